package detect

import (
	"log"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// detection only looks at the head of the text, long documents carry no
// extra signal worth the cpu time
const sampleLimit = 1000

// Candidate is one (language, probability) pair from the statistical model.
type Candidate struct {
	Language    string
	Probability float64
}

// Detector resolves the dominant language of free text. The statistical
// lingua model is the primary path; when it produces nothing usable the
// detector falls back to script frequency, which covers scripts the model
// was never trained on.
type Detector struct {
	classifier lingua.LanguageDetector
	logger     *log.Logger
}

func NewDetector(logger *log.Logger) *Detector {
	classifier := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()
	return &Detector{
		classifier: classifier,
		logger:     logger,
	}
}

// sample trims the text and caps it at sampleLimit characters.
func sample(text string) string {
	runes := []rune(text)
	if len(runes) > sampleLimit {
		runes = runes[:sampleLimit]
	}
	return strings.TrimSpace(string(runes))
}

func isoCode(language lingua.Language) string {
	return strings.ToLower(language.IsoCode639_1().String())
}

// Detect returns the most likely language code and its probability.
// Empty or whitespace-only input returns the fallback with zero confidence;
// when the statistical model has no opinion the script heuristic decides.
func (d *Detector) Detect(text string, fallback string) (string, float64) {
	if strings.TrimSpace(text) == "" {
		d.logger.Printf("[DETECTOR] Empty text provided, using fallback")
		return fallback, 0.0
	}

	s := sample(text)
	if s == "" {
		return fallback, 0.0
	}

	values := d.classifier.ComputeLanguageConfidenceValues(s)
	if len(values) > 0 && values[0].Value() > 0 {
		lang := isoCode(values[0].Language())
		confidence := values[0].Value()
		d.logger.Printf("[DETECTOR] Detected: %s (confidence: %.2f)", lang, confidence)
		return lang, confidence
	}

	d.logger.Printf("[DETECTOR] Statistical detection inconclusive, trying script-based detection")
	return DetectByScript(text, fallback)
}

// DetectMultiple returns up to topK candidates for mixed-language text.
// Any failure collapses to a single confident english guess, which is a
// different contract than Detect's zero-confidence fallback: this API always
// answers, Detect admits it does not know.
func (d *Detector) DetectMultiple(text string, topK int) []Candidate {
	s := sample(text)
	if s == "" {
		return []Candidate{{Language: "en", Probability: 1.0}}
	}

	values := d.classifier.ComputeLanguageConfidenceValues(s)

	candidates := make([]Candidate, 0, topK)
	for _, v := range values {
		if v.Value() <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Language:    isoCode(v.Language()),
			Probability: v.Value(),
		})
		if len(candidates) == topK {
			break
		}
	}

	if len(candidates) == 0 {
		return []Candidate{{Language: "en", Probability: 1.0}}
	}

	d.logger.Printf("[DETECTOR] Detected multiple languages: %v", candidates)
	return candidates
}

// IsMultilingual reports whether a secondary language reaches the threshold.
func (d *Detector) IsMultilingual(text string, threshold float64) bool {
	candidates := d.DetectMultiple(text, 2)
	if len(candidates) < 2 {
		return false
	}
	return candidates[1].Probability >= threshold
}
