package mobi

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testBook describes a MOBI file to assemble for tests.
type testBook struct {
	Name       string
	Text       []byte
	Compress   bool
	NoMOBI     bool
	Title      string
	Encoding   uint32
	EXTH       []EXTHRecord
	RawEXTH    []byte // used instead of EXTH when set
	ExtraFlags uint16
	Trailing   []byte // appended to every text record
}

const testMOBIHeaderLength = 232

// buildMOBI assembles a Palm Database file: header, record list, record 0
// and the text records.
func buildMOBI(t *testing.T, tb testBook) []byte {
	t.Helper()

	var textRecords [][]byte
	for off := 0; off < len(tb.Text); off += 4096 {
		chunk := tb.Text[off:min(off+4096, len(tb.Text))]
		if tb.Compress {
			chunk = Compress(chunk)
		}
		rec := append([]byte{}, chunk...)
		rec = append(rec, tb.Trailing...)
		textRecords = append(textRecords, rec)
	}

	records := append([][]byte{buildRecord0(t, tb, len(textRecords))}, textRecords...)
	return assemblePDB(tb.Name, records)
}

func buildRecord0(t *testing.T, tb testBook, textRecordCount int) []byte {
	t.Helper()

	compression := compressionCodeNone
	if tb.Compress {
		compression = compressionCodePalmDoc
	}

	rec := make([]byte, PalmDOCHeaderSize)
	binary.BigEndian.PutUint16(rec[offCompression:], compression)
	binary.BigEndian.PutUint32(rec[offTextLength:], uint32(len(tb.Text)))
	binary.BigEndian.PutUint16(rec[offTextRecordCount:], uint16(textRecordCount))
	binary.BigEndian.PutUint16(rec[offRecordSize:], 4096)
	if tb.NoMOBI {
		return rec
	}

	rec = append(rec, make([]byte, testMOBIHeaderLength)...)
	copy(rec[offIdentifier:], "MOBI")
	binary.BigEndian.PutUint32(rec[offHeaderLength:], testMOBIHeaderLength)
	encoding := tb.Encoding
	if encoding == 0 {
		encoding = EncodingUTF8
	}
	binary.BigEndian.PutUint32(rec[offEncoding:], encoding)
	binary.BigEndian.PutUint16(rec[offExtraDataFlags:], tb.ExtraFlags)

	switch {
	case tb.RawEXTH != nil:
		rec = append(rec, tb.RawEXTH...)
	case tb.EXTH != nil:
		rec = append(rec, encodeEXTH(tb.EXTH)...)
	}

	titleOffset := len(rec)
	rec = append(rec, tb.Title...)
	rec = append(rec, 0, 0)
	binary.BigEndian.PutUint32(rec[offTitleOffset:], uint32(titleOffset))
	binary.BigEndian.PutUint32(rec[offTitleLength:], uint32(len(tb.Title)))
	return rec
}

func encodeEXTH(records []EXTHRecord) []byte {
	var body bytes.Buffer
	for _, r := range records {
		binary.Write(&body, binary.BigEndian, r.Type)
		binary.Write(&body, binary.BigEndian, uint32(8+len(r.Data)))
		body.Write(r.Data)
	}

	var buf bytes.Buffer
	buf.WriteString("EXTH")
	binary.Write(&buf, binary.BigEndian, uint32(12+body.Len()))
	binary.Write(&buf, binary.BigEndian, uint32(len(records)))
	buf.Write(body.Bytes())
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func assemblePDB(name string, records [][]byte) []byte {
	header := make([]byte, PDBHeaderSize)
	copy(header, name)
	copy(header[pdbTypeOffset:], "BOOK")
	copy(header[pdbCreatorOffset:], "MOBI")
	binary.BigEndian.PutUint16(header[pdbNumRecordOffset:], uint16(len(records)))

	var buf bytes.Buffer
	buf.Write(header)
	offset := uint32(PDBHeaderSize + len(records)*RecordEntrySize + 2)
	for i, r := range records {
		binary.Write(&buf, binary.BigEndian, offset)
		buf.Write([]byte{0, 0, 0, byte(i)})
		offset += uint32(len(r))
	}
	buf.Write([]byte{0, 0})
	for _, r := range records {
		buf.Write(r)
	}
	return buf.Bytes()
}
