package mobi

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/yuanying/bionicbook/internal/book"
)

func TestReadPDBHeader(t *testing.T) {
	data := assemblePDB("My Book", [][]byte{make([]byte, 16), []byte("text")})

	h, err := ReadPDBHeader(data)
	if err != nil {
		t.Fatalf("ReadPDBHeader() error = %v", err)
	}
	if h.Name != "My Book" {
		t.Fatalf("Name = %q, want %q", h.Name, "My Book")
	}
	if h.RecordCount != 2 {
		t.Fatalf("RecordCount = %d, want 2", h.RecordCount)
	}
	if h.Type != "BOOK" || h.Creator != "MOBI" {
		t.Fatalf("Type/Creator = %q/%q, want BOOK/MOBI", h.Type, h.Creator)
	}
}

func TestReadPDBHeader_TooShort(t *testing.T) {
	_, err := ReadPDBHeader(make([]byte, PDBHeaderSize-1))
	if !errors.Is(err, book.ErrFormat) {
		t.Fatalf("ReadPDBHeader() error = %v, want FormatError", err)
	}
}

func TestReadRecordTable(t *testing.T) {
	records := [][]byte{make([]byte, 20), []byte("abc"), []byte("defgh")}
	data := assemblePDB("x", records)

	entries, err := ReadRecordTable(data, len(records))
	if err != nil {
		t.Fatalf("ReadRecordTable() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}

	want := uint32(PDBHeaderSize + 3*RecordEntrySize + 2)
	if entries[0].Offset != want {
		t.Fatalf("entries[0].Offset = %d, want %d", entries[0].Offset, want)
	}

	for i, r := range records {
		got, err := RecordData(data, entries, i)
		if err != nil {
			t.Fatalf("RecordData(%d) error = %v", i, err)
		}
		if string(got) != string(r) {
			t.Fatalf("RecordData(%d) = %q, want %q", i, got, r)
		}
	}
}

func TestReadRecordTable_PastEnd(t *testing.T) {
	data := assemblePDB("x", [][]byte{[]byte("only")})

	// Declare far more records than the buffer can hold.
	_, err := ReadRecordTable(data, 500)
	if !errors.Is(err, book.ErrFormat) {
		t.Fatalf("ReadRecordTable() error = %v, want FormatError", err)
	}
}

func TestReadRecordTable_NonMonotonic(t *testing.T) {
	data := assemblePDB("x", [][]byte{[]byte("first"), []byte("second")})

	// Swap the order of the two offsets.
	first := binary.BigEndian.Uint32(data[PDBHeaderSize:])
	second := binary.BigEndian.Uint32(data[PDBHeaderSize+RecordEntrySize:])
	binary.BigEndian.PutUint32(data[PDBHeaderSize:], second)
	binary.BigEndian.PutUint32(data[PDBHeaderSize+RecordEntrySize:], first)

	_, err := ReadRecordTable(data, 2)
	if !errors.Is(err, book.ErrFormat) {
		t.Fatalf("ReadRecordTable() error = %v, want FormatError", err)
	}
}

func TestRecordData_OutOfRange(t *testing.T) {
	data := assemblePDB("x", [][]byte{[]byte("a")})
	entries, err := ReadRecordTable(data, 1)
	if err != nil {
		t.Fatalf("ReadRecordTable() error = %v", err)
	}
	if _, err := RecordData(data, entries, 1); err == nil {
		t.Fatal("RecordData(1) error = nil, want error")
	}
}
