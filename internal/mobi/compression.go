package mobi

// PalmDoc back references reach at most 2047 bytes back and copy 3 to 10 bytes.
const (
	maxDistance = 2047
	minMatchLen = 3
	maxMatchLen = 10
)

// Decompress expands PalmDoc (LZ77-style) compressed data. It is a pure
// function and safe to call concurrently on independent records.
//
// Back references that point before the start of the output are skipped,
// and a truncated literal run copies whatever bytes remain.
func Decompress(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)

	for i := 0; i < len(data); {
		b := data[i]
		i++

		switch {
		case b == 0x00:
			out = append(out, 0x00)

		case b <= 0x08:
			n := min(int(b), len(data)-i)
			out = append(out, data[i:i+n]...)
			i += n

		case b <= 0x7F:
			out = append(out, b)

		case b <= 0xBF:
			if i >= len(data) {
				return out
			}
			pair := uint16(b)<<8 | uint16(data[i])
			i++

			distance := int(pair>>3) & 0x7FF
			length := int(pair&0x7) + 3
			start := len(out) - distance
			if distance == 0 || start < 0 {
				continue
			}
			// Copy one byte at a time so overlapping runs replicate.
			for j := 0; j < length; j++ {
				out = append(out, out[start+j])
			}

		default:
			out = append(out, ' ', b^0x80)
		}
	}

	return out
}

// Compress applies PalmDoc compression. Decompress(Compress(b)) == b for
// any input.
func Compress(data []byte) []byte {
	out := make([]byte, 0, len(data))

	for i := 0; i < len(data); {
		if n, dist := findMatch(data, i); n >= minMatchLen {
			out = append(out, byte(0x80|dist>>5), byte((dist&0x1F)<<3|(n-minMatchLen)))
			i += n
			continue
		}

		// Space followed by 0x40-0x7F packs into one byte.
		if data[i] == ' ' && i+1 < len(data) && data[i+1] >= 0x40 && data[i+1] <= 0x7F {
			out = append(out, data[i+1]^0x80)
			i += 2
			continue
		}

		if isPlainLiteral(data[i]) {
			out = append(out, data[i])
			i++
			continue
		}

		// Bytes 0x01-0x08 and 0x80-0xFF travel in a counted run of up to 8.
		start := i
		for i < len(data) && i-start < 8 && !isPlainLiteral(data[i]) {
			if n, _ := findMatch(data, i); n >= minMatchLen && i > start {
				break
			}
			i++
		}
		out = append(out, byte(i-start))
		out = append(out, data[start:i]...)
	}

	return out
}

func isPlainLiteral(b byte) bool {
	return b == 0x00 || (b >= 0x09 && b <= 0x7F)
}

// findMatch returns the longest earlier match at pos as (length, distance),
// or (0, 0) when no match of at least three bytes exists.
func findMatch(data []byte, pos int) (int, int) {
	if pos+minMatchLen > len(data) {
		return 0, 0
	}

	window := min(pos, maxDistance)
	limit := min(maxMatchLen, len(data)-pos)
	bestLen, bestDist := 0, 0

	for dist := 1; dist <= window; dist++ {
		start := pos - dist
		n := 0
		for n < limit && data[start+n] == data[pos+n] {
			n++
		}
		if n >= minMatchLen && n > bestLen {
			bestLen, bestDist = n, dist
			if n == limit {
				break
			}
		}
	}

	return bestLen, bestDist
}
