package mobi

import (
	"encoding/binary"
	"log/slog"
	"strings"

	"github.com/yuanying/bionicbook/internal/book"
)

// CompressionKind classifies the compression declared in record 0.
type CompressionKind int

const (
	// CompressionNone marks uncompressed text records.
	CompressionNone CompressionKind = iota
	// CompressionPalmDoc marks PalmDoc-compressed text records.
	CompressionPalmDoc
	// CompressionUnsupported marks anything else (e.g. HUFF/CDIC).
	CompressionUnsupported
)

func (k CompressionKind) String() string {
	switch k {
	case CompressionNone:
		return "none"
	case CompressionPalmDoc:
		return "palmdoc"
	default:
		return "unsupported"
	}
}

const (
	compressionCodeNone    uint16 = 1
	compressionCodePalmDoc uint16 = 2

	// EncodingUTF8 and EncodingCP1252 are the MOBI text encoding codes.
	EncodingUTF8   uint32 = 65001
	EncodingCP1252 uint32 = 1252

	// PalmDOCHeaderSize is the size of the PalmDOC header that precedes the MOBI header.
	PalmDOCHeaderSize = 16

	// Offsets relative to the start of record 0.
	offCompression     = 0
	offTextLength      = 4
	offTextRecordCount = 8
	offRecordSize      = 10
	offIdentifier      = 16
	offHeaderLength    = 20
	offEncoding        = 28
	offTitleOffset     = 84
	offTitleLength     = 88
	offExtraDataFlags  = 0xF2

	// minExtraFlagsHeaderLength is the smallest MOBI header length that
	// carries the extra record data flags.
	minExtraFlagsHeaderLength = 0xE4
)

var mobiIdentifier = []byte("MOBI")

// Header is the decoded content of record 0.
type Header struct {
	Compression     CompressionKind
	CompressionCode uint16
	TextLength      uint32
	TextRecordCount uint16
	RecordSize      uint16

	// The fields below are only set when the MOBI identifier is present.
	HasMOBIHeader  bool
	HeaderLength   uint32
	Title          string
	Encoding       uint32
	ExtraDataFlags uint16
	Metadata       ExtendedMetadata
}

// ParseHeader decodes the PalmDOC header and, when present, the MOBI header
// and its EXTH block. A missing MOBI identifier is not an error; the text
// records are still readable. Failures inside the EXTH block are logged and
// leave the extended metadata empty.
func ParseHeader(record0 []byte, logger *slog.Logger) (*Header, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(record0) < PalmDOCHeaderSize {
		return nil, book.NewFormatError(formatName, "record 0 too short for PalmDOC header: %d bytes", len(record0))
	}

	code := binary.BigEndian.Uint16(record0[offCompression:])
	h := &Header{
		Compression:     compressionKind(code),
		CompressionCode: code,
		TextLength:      binary.BigEndian.Uint32(record0[offTextLength:]),
		TextRecordCount: binary.BigEndian.Uint16(record0[offTextRecordCount:]),
		RecordSize:      binary.BigEndian.Uint16(record0[offRecordSize:]),
		Encoding:        EncodingUTF8,
	}

	if len(record0) < offIdentifier+4 || string(record0[offIdentifier:offIdentifier+4]) != string(mobiIdentifier) {
		logger.Debug("record 0 has no MOBI header, using defaults")
		return h, nil
	}
	h.HasMOBIHeader = true

	if len(record0) >= offHeaderLength+4 {
		h.HeaderLength = binary.BigEndian.Uint32(record0[offHeaderLength:])
	}
	if len(record0) >= offEncoding+4 {
		h.Encoding = binary.BigEndian.Uint32(record0[offEncoding:])
	}
	if h.HeaderLength >= minExtraFlagsHeaderLength && len(record0) >= offExtraDataFlags+2 {
		h.ExtraDataFlags = binary.BigEndian.Uint16(record0[offExtraDataFlags:])
	}

	h.Title = readTitle(record0, logger)

	exthStart := int64(offIdentifier) + int64(h.HeaderLength)
	if exthStart+4 <= int64(len(record0)) && string(record0[exthStart:exthStart+4]) == string(exthIdentifier) {
		records, err := ParseEXTH(record0[exthStart:])
		if err != nil {
			logger.Warn("ignoring malformed EXTH block", "error", err)
		} else {
			h.Metadata = extendedMetadataFrom(records)
		}
	}

	return h, nil
}

func readTitle(record0 []byte, logger *slog.Logger) string {
	if len(record0) < offTitleLength+4 {
		return ""
	}
	off := int64(binary.BigEndian.Uint32(record0[offTitleOffset:]))
	n := int64(binary.BigEndian.Uint32(record0[offTitleLength:]))
	if n == 0 {
		return ""
	}
	if off+n > int64(len(record0)) {
		logger.Warn("title lies outside record 0", "offset", off, "length", n)
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(record0[off:off+n]), "\x00"))
}

func compressionKind(code uint16) CompressionKind {
	switch code {
	case compressionCodeNone:
		return CompressionNone
	case compressionCodePalmDoc:
		return CompressionPalmDoc
	default:
		return CompressionUnsupported
	}
}
