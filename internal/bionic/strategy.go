package bionic

import (
	"math"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Strategy selects which runes of a word are highlighted. The returned
// mask has one entry per rune of word.
type Strategy func(word []rune, intensity float64) []bool

var strategies = map[Mode]Strategy{
	ModePrefix:     prefix,
	ModePrefixMid:  prefixMid,
	ModeConsonants: consonants,
	ModeVowels:     vowels,
	ModeSyllable:   syllable,
}

// StrategyFor returns the strategy for m, or nil for off and unknown modes.
func StrategyFor(m Mode) Strategy {
	return strategies[m]
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

// isVowel reports whether r is a vowel, accented forms included: the rune
// is decomposed and its base letter checked.
func isVowel(r rune) bool {
	if !unicode.IsLetter(r) {
		return false
	}
	base := r
	if d := norm.NFD.String(string(r)); d != "" {
		base = []rune(d)[0]
	}
	switch unicode.ToLower(base) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isConsonant(r rune) bool {
	return isLetter(r) && !isVowel(r)
}

func countLetters(word []rune) int {
	n := 0
	for _, r := range word {
		if isLetter(r) {
			n++
		}
	}
	return n
}

func ceilCount(n int, intensity float64) int {
	return int(math.Ceil(float64(n) * intensity))
}

// selectLetters marks the first n letters of word, leaving non-letters
// unselected at their positions.
func selectLetters(word []rune, n int) []bool {
	mask := make([]bool, len(word))
	for i, r := range word {
		if n <= 0 {
			break
		}
		if isLetter(r) {
			mask[i] = true
			n--
		}
	}
	return mask
}

// selectMatching marks, in order, up to limit runes satisfying match.
func selectMatching(word []rune, limit int, match func(rune) bool) []bool {
	mask := make([]bool, len(word))
	for i, r := range word {
		if limit <= 0 {
			break
		}
		if match(r) {
			mask[i] = true
			limit--
		}
	}
	return mask
}

// prefix highlights the leading letters: one for words of up to three
// letters, otherwise ceil(letters*intensity) clamped to [1, letters-1].
func prefix(word []rune, intensity float64) []bool {
	letters := countLetters(word)
	n := 1
	if letters > 3 {
		n = min(max(ceilCount(letters, intensity), 1), letters-1)
	}
	return selectLetters(word, n)
}

// prefixMid highlights the first half of the word by raw position,
// punctuation included.
func prefixMid(word []rune, _ float64) []bool {
	mask := make([]bool, len(word))
	for i := range len(word) / 2 {
		mask[i] = true
	}
	return mask
}

func consonants(word []rune, intensity float64) []bool {
	return selectMatching(word, ceilCount(len(word), intensity), isConsonant)
}

func vowels(word []rune, intensity float64) []bool {
	return selectMatching(word, ceilCount(len(word), intensity), isVowel)
}

// syllable highlights letters up to the end of the first vowel run that is
// followed by a consonant.
func syllable(word []rune, intensity float64) []bool {
	var letters []rune
	for _, r := range word {
		if isLetter(r) {
			letters = append(letters, r)
		}
	}

	boundary := -1
	if len(letters) > 2 {
		boundary = firstSyllableEnd(letters)
	}
	if boundary < 0 {
		boundary = min(ceilCount(len(letters), intensity), len(letters)-1)
	}
	return selectLetters(word, boundary+1)
}

// firstSyllableEnd returns the index of the last vowel of the first vowel
// run that is followed by a consonant, or -1.
func firstSyllableEnd(letters []rune) int {
	i := 0
	for i < len(letters) && !isVowel(letters[i]) {
		i++
	}
	for i < len(letters) && isVowel(letters[i]) {
		i++
	}
	if i > 0 && i < len(letters) && isVowel(letters[i-1]) {
		return i - 1
	}
	return -1
}
