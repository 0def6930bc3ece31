package mobi

import (
	"encoding/binary"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseHeader(t *testing.T) {
	rec := buildRecord0(t, testBook{
		Text:       []byte("hello"),
		Compress:   true,
		Title:      "Test Book",
		ExtraFlags: 0x3,
		EXTH: []EXTHRecord{
			{Type: EXTHAuthor, Data: []byte("Ada Lovelace")},
			{Type: EXTHLanguage, Data: []byte("es")},
			{Type: 503, Data: []byte("ignored")},
		},
	}, 1)

	h, err := ParseHeader(rec, discardLogger())
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}

	if h.Compression != CompressionPalmDoc {
		t.Fatalf("Compression = %v, want %v", h.Compression, CompressionPalmDoc)
	}
	if h.TextLength != 5 || h.TextRecordCount != 1 || h.RecordSize != 4096 {
		t.Fatalf("TextLength/TextRecordCount/RecordSize = %d/%d/%d, want 5/1/4096",
			h.TextLength, h.TextRecordCount, h.RecordSize)
	}
	if !h.HasMOBIHeader {
		t.Fatal("HasMOBIHeader = false, want true")
	}
	if h.HeaderLength != testMOBIHeaderLength {
		t.Fatalf("HeaderLength = %d, want %d", h.HeaderLength, testMOBIHeaderLength)
	}
	if h.Encoding != EncodingUTF8 {
		t.Fatalf("Encoding = %d, want %d", h.Encoding, EncodingUTF8)
	}
	if h.ExtraDataFlags != 0x3 {
		t.Fatalf("ExtraDataFlags = %#x, want 0x3", h.ExtraDataFlags)
	}
	if h.Title != "Test Book" {
		t.Fatalf("Title = %q, want %q", h.Title, "Test Book")
	}
	if h.Metadata.Author != "Ada Lovelace" {
		t.Fatalf("Author = %q, want %q", h.Metadata.Author, "Ada Lovelace")
	}
	if h.Metadata.Language != "es" {
		t.Fatalf("Language = %q, want %q", h.Metadata.Language, "es")
	}
}

func TestParseHeader_NoMOBIHeader(t *testing.T) {
	rec := buildRecord0(t, testBook{Text: []byte("plain"), NoMOBI: true}, 1)

	h, err := ParseHeader(rec, discardLogger())
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if h.HasMOBIHeader {
		t.Fatal("HasMOBIHeader = true, want false")
	}
	if h.Compression != CompressionNone {
		t.Fatalf("Compression = %v, want %v", h.Compression, CompressionNone)
	}
	if h.Encoding != EncodingUTF8 {
		t.Fatalf("Encoding = %d, want default %d", h.Encoding, EncodingUTF8)
	}
	if h.Title != "" || h.Metadata.Author != "" || h.Metadata.Language != "" {
		t.Fatalf("metadata = %q/%q/%q, want empty", h.Title, h.Metadata.Author, h.Metadata.Language)
	}
}

func TestParseHeader_MalformedEXTH(t *testing.T) {
	// Declares two records but only carries the header of the first one.
	raw := []byte("EXTH")
	raw = binary.BigEndian.AppendUint32(raw, 16)
	raw = binary.BigEndian.AppendUint32(raw, 2)
	raw = binary.BigEndian.AppendUint32(raw, EXTHAuthor)

	rec := buildRecord0(t, testBook{Text: []byte("x"), Title: "Still Here", RawEXTH: raw}, 1)

	h, err := ParseHeader(rec, discardLogger())
	if err != nil {
		t.Fatalf("ParseHeader() error = %v, want nil", err)
	}
	if h.Metadata != (ExtendedMetadata{}) {
		t.Fatalf("Metadata = %+v, want empty", h.Metadata)
	}
	if h.Title != "Still Here" {
		t.Fatalf("Title = %q, want %q", h.Title, "Still Here")
	}
}

func TestParseHeader_UnsupportedCompression(t *testing.T) {
	rec := buildRecord0(t, testBook{Text: []byte("x")}, 1)
	binary.BigEndian.PutUint16(rec[offCompression:], 17480) // HUFF/CDIC

	h, err := ParseHeader(rec, discardLogger())
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if h.Compression != CompressionUnsupported {
		t.Fatalf("Compression = %v, want %v", h.Compression, CompressionUnsupported)
	}
	if h.CompressionCode != 17480 {
		t.Fatalf("CompressionCode = %d, want 17480", h.CompressionCode)
	}
}

func TestParseHeader_TooShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 10), discardLogger()); err == nil {
		t.Fatal("ParseHeader() error = nil, want error")
	}
}

func TestParseEXTH(t *testing.T) {
	block := encodeEXTH([]EXTHRecord{
		{Type: EXTHAuthor, Data: []byte("Author")},
		{Type: 201, Data: []byte{0, 0, 0, 1}},
	})

	records, err := ParseEXTH(block)
	if err != nil {
		t.Fatalf("ParseEXTH() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Type != EXTHAuthor || string(records[0].Data) != "Author" {
		t.Fatalf("records[0] = %d/%q, want %d/%q", records[0].Type, records[0].Data, EXTHAuthor, "Author")
	}
	if records[1].Type != 201 || len(records[1].Data) != 4 {
		t.Fatalf("records[1] = %d/%v, want 201 with 4 bytes", records[1].Type, records[1].Data)
	}
}

func TestParseEXTH_Errors(t *testing.T) {
	tests := []struct {
		name  string
		block []byte
	}{
		{"too short", []byte("EXTH")},
		{"wrong identifier", append([]byte("EXTX"), make([]byte, 8)...)},
		{"record length below minimum", func() []byte {
			b := []byte("EXTH")
			b = binary.BigEndian.AppendUint32(b, 20)
			b = binary.BigEndian.AppendUint32(b, 1)
			b = binary.BigEndian.AppendUint32(b, EXTHAuthor)
			return binary.BigEndian.AppendUint32(b, 4)
		}()},
		{"record past block", func() []byte {
			b := []byte("EXTH")
			b = binary.BigEndian.AppendUint32(b, 20)
			b = binary.BigEndian.AppendUint32(b, 1)
			b = binary.BigEndian.AppendUint32(b, EXTHAuthor)
			return binary.BigEndian.AppendUint32(b, 100)
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEXTH(tt.block); err == nil {
				t.Fatal("ParseEXTH() error = nil, want error")
			}
		})
	}
}
