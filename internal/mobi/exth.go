package mobi

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// EXTH record types read by this package.
const (
	EXTHAuthor   uint32 = 100
	EXTHLanguage uint32 = 524
)

var exthIdentifier = []byte("EXTH")

// ExtendedMetadata holds the EXTH values this reader extracts.
type ExtendedMetadata struct {
	Author   string
	Language string
}

// EXTHRecord represents a single EXTH metadata record.
type EXTHRecord struct {
	Type uint32
	Data []byte
}

// ParseEXTH decodes an EXTH block.
// Layout: "EXTH"(4) + headerLength(4) + recordCount(4) + records, where each
// record is type(4) + length(4) + data(length-8).
func ParseEXTH(block []byte) ([]EXTHRecord, error) {
	if len(block) < 12 {
		return nil, fmt.Errorf("EXTH block too short: %d bytes", len(block))
	}
	if string(block[:4]) != string(exthIdentifier) {
		return nil, fmt.Errorf("EXTH identifier mismatch: %q", block[:4])
	}

	count := binary.BigEndian.Uint32(block[8:12])
	records := make([]EXTHRecord, 0, min(count, 256))
	pos := 12
	for i := uint32(0); i < count; i++ {
		if pos+8 > len(block) {
			return nil, fmt.Errorf("EXTH record %d header truncated at offset %d", i, pos)
		}
		recType := binary.BigEndian.Uint32(block[pos : pos+4])
		recLen := int(binary.BigEndian.Uint32(block[pos+4 : pos+8]))
		if recLen < 8 || pos+recLen > len(block) {
			return nil, fmt.Errorf("EXTH record %d has invalid length %d at offset %d", i, recLen, pos)
		}
		records = append(records, EXTHRecord{
			Type: recType,
			Data: block[pos+8 : pos+recLen],
		})
		pos += recLen
	}

	return records, nil
}

// extendedMetadataFrom picks author and language out of EXTH records.
// Any other record type is ignored.
func extendedMetadataFrom(records []EXTHRecord) ExtendedMetadata {
	var meta ExtendedMetadata
	for _, rec := range records {
		switch rec.Type {
		case EXTHAuthor:
			meta.Author = strings.TrimSpace(string(rec.Data))
		case EXTHLanguage:
			meta.Language = strings.TrimSpace(string(rec.Data))
		}
	}
	return meta
}
