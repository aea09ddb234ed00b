package detect

// script buckets are checked in a fixed order so that ties between equally
// frequent scripts resolve deterministically.
var scriptTable = [...]struct {
	name string
	lang string
}{
	{"devanagari", "hi"}, // also serves Sanskrit/Marathi, Hindi wins
	{"bengali", "bn"},
	{"tamil", "ta"},
	{"telugu", "te"},
	{"gujarati", "gu"},
	{"kannada", "kn"},
	{"malayalam", "ml"},
	{"gurmukhi", "pa"},
	{"latin", "en"},
	{"arabic", "ur"},
}

// scriptIndex classifies a rune into one of the script buckets, or -1 when
// the rune belongs to none (digits, punctuation, whitespace).
func scriptIndex(r rune) int {
	switch {
	case r >= 0x0900 && r <= 0x097F: // Devanagari
		return 0
	case r >= 0x0980 && r <= 0x09FF: // Bengali
		return 1
	case r >= 0x0B80 && r <= 0x0BFF: // Tamil
		return 2
	case r >= 0x0C00 && r <= 0x0C7F: // Telugu
		return 3
	case r >= 0x0A80 && r <= 0x0AFF: // Gujarati
		return 4
	case r >= 0x0C80 && r <= 0x0CFF: // Kannada
		return 5
	case r >= 0x0D00 && r <= 0x0D7F: // Malayalam
		return 6
	case r >= 0x0A00 && r <= 0x0A7F: // Gurmukhi (Punjabi)
		return 7
	case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'): // Latin, ASCII letters only
		return 8
	case r >= 0x0600 && r <= 0x06FF: // Arabic (Urdu)
		return 9
	default:
		return -1
	}
}

// DetectByScript guesses the language from Unicode script frequency. Each
// script maps to exactly one language code, so Devanagari text always comes
// back as Hindi. Confidence is the dominant script's share of all classified
// characters; input with no classifiable characters returns the fallback
// with zero confidence.
func DetectByScript(text string, fallback string) (string, float64) {
	var counts [len(scriptTable)]int
	total := 0

	for _, r := range text {
		if i := scriptIndex(r); i >= 0 {
			counts[i]++
			total++
		}
	}

	if total == 0 {
		return fallback, 0.0
	}

	dominant := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[dominant] {
			dominant = i
		}
	}

	confidence := float64(counts[dominant]) / float64(total)
	return scriptTable[dominant].lang, confidence
}
