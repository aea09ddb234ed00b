package detect

import (
	"io"
	"log"
	"testing"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDetectByScript(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		fallback       string
		wantLang       string
		wantConfidence float64
	}{
		{
			name:     "pure devanagari",
			text:     "भारत",
			fallback: "en",
			wantLang: "hi", wantConfidence: 1.0,
		},
		{
			name:     "devanagari with spaces still fully classified",
			text:     "भारत की राजधानी",
			fallback: "en",
			wantLang: "hi", wantConfidence: 1.0,
		},
		{
			name:     "pure bengali",
			text:     "বাংলা",
			fallback: "en",
			wantLang: "bn", wantConfidence: 1.0,
		},
		{
			name:     "pure tamil",
			text:     "தமிழ்",
			fallback: "en",
			wantLang: "ta", wantConfidence: 1.0,
		},
		{
			name:     "pure arabic maps to urdu",
			text:     "سلام",
			fallback: "en",
			wantLang: "ur", wantConfidence: 1.0,
		},
		{
			name:     "latin dominates mixed text",
			text:     "abஅ",
			fallback: "en",
			wantLang: "en", wantConfidence: 2.0 / 3.0,
		},
		{
			name:     "tie resolves to earlier script bucket",
			text:     "abسل",
			fallback: "en",
			wantLang: "en", wantConfidence: 0.5,
		},
		{
			name:     "empty input returns fallback",
			text:     "",
			fallback: "en",
			wantLang: "en", wantConfidence: 0.0,
		},
		{
			name:     "digits and punctuation classify nothing",
			text:     "12345 !!! ...",
			fallback: "fr",
			wantLang: "fr", wantConfidence: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, confidence := DetectByScript(tt.text, tt.fallback)
			if lang != tt.wantLang {
				t.Errorf("lang = %q, want %q", lang, tt.wantLang)
			}
			if confidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v", confidence, tt.wantConfidence)
			}
		})
	}
}

func TestDetectEmptyInput(t *testing.T) {
	d := NewDetector(testLogger())

	lang, confidence := d.Detect("", "en")
	if lang != "en" || confidence != 0.0 {
		t.Errorf("Detect(\"\") = (%q, %v), want (\"en\", 0.0)", lang, confidence)
	}

	lang, confidence = d.Detect("   \n\t  ", "hi")
	if lang != "hi" || confidence != 0.0 {
		t.Errorf("Detect(whitespace) = (%q, %v), want (\"hi\", 0.0)", lang, confidence)
	}
}

func TestDetectStatistical(t *testing.T) {
	d := NewDetector(testLogger())

	tests := []struct {
		name     string
		text     string
		wantLang string
	}{
		{
			name:     "english sentence",
			text:     "The quick brown fox jumps over the lazy dog near the river bank.",
			wantLang: "en",
		},
		{
			name:     "hindi sentence",
			text:     "भारत की राजधानी नई दिल्ली है। यह देश बहुत बड़ा है और यहाँ कई भाषाएँ बोली जाती हैं।",
			wantLang: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, confidence := d.Detect(tt.text, "en")
			if lang != tt.wantLang {
				t.Errorf("lang = %q, want %q", lang, tt.wantLang)
			}
			if confidence <= 0 {
				t.Errorf("confidence = %v, want > 0", confidence)
			}
		})
	}
}

func TestDetectMultipleFallback(t *testing.T) {
	d := NewDetector(testLogger())

	candidates := d.DetectMultiple("", 3)
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if candidates[0].Language != "en" || candidates[0].Probability != 1.0 {
		t.Errorf("candidates[0] = %+v, want {en 1.0}", candidates[0])
	}
}

func TestDetectMultipleRespectsTopK(t *testing.T) {
	d := NewDetector(testLogger())

	candidates := d.DetectMultiple("The weather is nice today and the sun is shining brightly.", 2)
	if len(candidates) > 2 {
		t.Errorf("len(candidates) = %d, want at most 2", len(candidates))
	}
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if candidates[0].Language != "en" {
		t.Errorf("top candidate = %q, want en", candidates[0].Language)
	}
}

func TestIsMultilingualEmptyText(t *testing.T) {
	d := NewDetector(testLogger())

	if d.IsMultilingual("", 0.3) {
		t.Error("IsMultilingual(\"\") = true, want false")
	}
}
