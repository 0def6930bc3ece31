package mobi

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

// ReadText decompresses text records 1..h.TextRecordCount and returns them
// concatenated in record order, decoded to a UTF-8 string.
// Records are decompressed in parallel; each one is independent.
func ReadText(data []byte, records []RecordEntry, h *Header) (string, error) {
	if h.Compression == CompressionUnsupported {
		return "", fmt.Errorf("unsupported compression type %d", h.CompressionCode)
	}

	count := int(h.TextRecordCount)
	if count >= len(records) {
		count = len(records) - 1
	}
	if count <= 0 {
		return "", nil
	}

	parts := make([][]byte, count)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range parts {
		g.Go(func() error {
			rec, err := RecordData(data, records, i+1)
			if err != nil {
				return err
			}
			rec = rec[:len(rec)-trailingEntriesSize(rec, h.ExtraDataFlags)]
			if h.Compression == CompressionPalmDoc {
				parts[i] = Decompress(rec)
			} else {
				parts[i] = rec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	text := bytes.Join(parts, nil)
	if h.TextLength > 0 && uint64(len(text)) > uint64(h.TextLength) {
		text = text[:h.TextLength]
	}

	return decodeText(text, h.Encoding)
}

// trailingEntriesSize returns the number of bytes of trailing entries at the
// end of a text record, as declared by the extra record data flags.
// Bit 0 marks multibyte overlap bytes; every higher bit marks one entry
// whose size is stored as a backward-read variable-width integer.
func trailingEntriesSize(rec []byte, flags uint16) int {
	size := 0
	for f := flags >> 1; f != 0; f >>= 1 {
		if f&1 != 0 && size < len(rec) {
			size += backwardVarLen(rec[:len(rec)-size])
		}
	}
	if flags&1 != 0 && size < len(rec) {
		size += int(rec[len(rec)-size-1]&0x3) + 1
	}
	return min(size, len(rec))
}

// backwardVarLen reads a variable-width integer from the end of b. Each byte
// contributes 7 bits; a set high bit marks the first byte of the value.
func backwardVarLen(b []byte) int {
	value, shift := 0, 0
	for i := len(b) - 1; i >= 0; i-- {
		v := b[i]
		value |= int(v&0x7F) << shift
		shift += 7
		if v&0x80 != 0 || shift >= 28 {
			break
		}
	}
	return value
}

func decodeText(text []byte, encoding uint32) (string, error) {
	if encoding == EncodingCP1252 {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(text)
		if err != nil {
			return "", fmt.Errorf("failed to decode CP1252 text: %w", err)
		}
		return string(decoded), nil
	}
	return strings.ToValidUTF8(string(text), "�"), nil
}
