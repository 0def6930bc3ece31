package mobi

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecompress_Empty(t *testing.T) {
	if got := Decompress(nil); len(got) != 0 {
		t.Fatalf("Decompress(nil) = %d bytes, want 0", len(got))
	}
	if got := Decompress([]byte{}); len(got) != 0 {
		t.Fatalf("Decompress([]) = %d bytes, want 0", len(got))
	}
}

func TestDecompress_ControlBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"null literal", []byte{0x00}, []byte{0x00}},
		{"literal run", []byte{0x03, 0x80, 0xFF, 0x01}, []byte{0x80, 0xFF, 0x01}},
		{"plain bytes", []byte("Hello"), []byte("Hello")},
		{"space plus char", []byte{'a', 'b' ^ 0x80 | 0x40}, []byte("a b")},
		{"space plus char high", []byte{0xC1}, []byte{' ', 0x41}},
		// "abc" then back 3, copy 3.
		{"back reference", []byte{'a', 'b', 'c', 0x80, 0x18}, []byte("abcabc")},
		// "ab" then back 2, copy 5: the copy reads bytes it just wrote.
		{"overlapping back reference", []byte{'a', 'b', 0x80, 0x12}, []byte("abababa")},
		// distance 1, length 10: a run of one byte.
		{"run of one byte", []byte{'z', 0x80, 0x0F}, []byte("zzzzzzzzzzz")},
		{"truncated literal run", []byte{0x05, 'x', 'y'}, []byte("xy")},
		{"truncated back reference", []byte{'a', 0x80}, []byte("a")},
		// distance 8 with only one byte written: skipped.
		{"out of range back reference", []byte{'a', 0x80, 0x40, 'b'}, []byte("ab")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decompress(tt.input); !bytes.Equal(got, tt.want) {
				t.Fatalf("Decompress(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecompress_Pure(t *testing.T) {
	input := Compress([]byte(strings.Repeat("the quick brown fox ", 40)))
	first := Decompress(input)
	second := Decompress(input)
	if !bytes.Equal(first, second) {
		t.Fatal("Decompress() returned different output for identical input")
	}
}

func TestRoundTrip(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = byte('A' + i%26)
	}
	binaryData := make([]byte, 300)
	for i := range binaryData {
		binaryData[i] = byte(i * 7)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"literal only", []byte("Hello, World! This is a test.")},
		{"repeated text", []byte("abcdefghij abcdefghij abcdefghij")},
		{"space plus char", []byte("word word word word")},
		{"overlapping run", []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")},
		{"record size", long},
		{"utf8", []byte("Había una vez una lectura biónica. これはテストです。")},
		{"binary", binaryData},
		{"markup", []byte(strings.Repeat(`<p class="x">Lorem ipsum dolor</p>`, 50))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := Compress(tt.data)
			got := Decompress(compressed)
			if !bytes.Equal(got, tt.data) {
				t.Fatalf("round-trip mismatch:\n  got:  %q\n  want: %q", got, tt.data)
			}
		})
	}
}

func TestCompress_UsesBackReferences(t *testing.T) {
	data := []byte(strings.Repeat("abcdefghij", 20))
	if compressed := Compress(data); len(compressed) >= len(data) {
		t.Fatalf("len(Compress()) = %d, want < %d", len(compressed), len(data))
	}
}
