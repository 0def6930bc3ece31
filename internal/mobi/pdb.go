package mobi

import (
	"bytes"
	"encoding/binary"

	"github.com/yuanying/bionicbook/internal/book"
)

const (
	// PDBHeaderSize is the size of the fixed Palm Database header; the record
	// list starts immediately after it.
	PDBHeaderSize = 78

	// RecordEntrySize is the size of one record list entry: offset (4),
	// attributes (1) and a 3-byte unique ID.
	RecordEntrySize = 8

	pdbNameSize        = 32
	pdbTypeOffset      = 60
	pdbCreatorOffset   = 64
	pdbNumRecordOffset = 76
)

// PDBHeader holds the fields of the Palm Database header this reader uses.
// All multi-byte fields are big-endian.
type PDBHeader struct {
	Name        string // database name, null-terminated and trimmed
	Type        string // e.g. "BOOK"
	Creator     string // e.g. "MOBI"
	RecordCount uint16
}

// RecordEntry is a single record list entry.
type RecordEntry struct {
	Offset     uint32
	Attributes uint8
}

// ReadPDBHeader decodes the database name and record count.
func ReadPDBHeader(data []byte) (*PDBHeader, error) {
	if len(data) < PDBHeaderSize {
		return nil, book.NewFormatError(formatName, "file too short for PDB header: %d bytes, need %d", len(data), PDBHeaderSize)
	}

	name := data[:pdbNameSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	return &PDBHeader{
		Name:        string(bytes.TrimSpace(name)),
		Type:        string(data[pdbTypeOffset : pdbTypeOffset+4]),
		Creator:     string(data[pdbCreatorOffset : pdbCreatorOffset+4]),
		RecordCount: binary.BigEndian.Uint16(data[pdbNumRecordOffset:PDBHeaderSize]),
	}, nil
}

// ReadRecordTable decodes count record list entries starting at byte 78.
// Offsets must be non-decreasing and must not point past the buffer.
func ReadRecordTable(data []byte, count int) ([]RecordEntry, error) {
	end := PDBHeaderSize + count*RecordEntrySize
	if count < 0 || end > len(data) {
		return nil, book.NewFormatError(formatName, "record table of %d entries exceeds file size %d", count, len(data))
	}

	records := make([]RecordEntry, count)
	for i := range records {
		pos := PDBHeaderSize + i*RecordEntrySize
		records[i] = RecordEntry{
			Offset:     binary.BigEndian.Uint32(data[pos : pos+4]),
			Attributes: data[pos+4],
		}
		if int64(records[i].Offset) > int64(len(data)) {
			return nil, book.NewFormatError(formatName, "record %d offset %d beyond file size %d", i, records[i].Offset, len(data))
		}
		if i > 0 && records[i].Offset < records[i-1].Offset {
			return nil, book.NewFormatError(formatName, "record %d offset %d precedes record %d offset %d", i, records[i].Offset, i-1, records[i-1].Offset)
		}
	}

	return records, nil
}

// RecordData returns the bytes of record i. A record extends to the next
// record's offset, or to the end of the buffer for the last record.
func RecordData(data []byte, records []RecordEntry, i int) ([]byte, error) {
	if i < 0 || i >= len(records) {
		return nil, book.NewFormatError(formatName, "record %d out of range (have %d)", i, len(records))
	}
	start := int(records[i].Offset)
	end := len(data)
	if i+1 < len(records) {
		end = int(records[i+1].Offset)
	}
	return data[start:end], nil
}
