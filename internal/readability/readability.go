// Package readability computes the scalar text-complexity snapshot attached
// to every analysis response. The formulas follow the classic definitions
// (Flesch, SMOG, Coleman-Liau, ARI, Dale-Chall, Linsear Write, Gunning fog).
package readability

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Metrics is the fixed bundle of readability scores. The zero value (with
// TextStandard "N/A") is the defaulted snapshot for empty/degenerate text.
type Metrics struct {
	FleschReadingEase    float64 `json:"flesch_reading_ease"`
	SMOGIndex            float64 `json:"smog_index"`
	FleschKincaidGrade   float64 `json:"flesch_kincaid_grade"`
	ColemanLiauIndex     float64 `json:"coleman_liau_index"`
	AutomatedReadability float64 `json:"automated_readability_index"`
	DaleChallScore       float64 `json:"dale_chall_readability_score"`
	DifficultWords       int     `json:"difficult_words"`
	LinsearWriteFormula  float64 `json:"linsear_write_formula"`
	GunningFog           float64 `json:"gunning_fog"`
	TextStandard         string  `json:"text_standard"`
}

// Default returns the all-zero snapshot used for empty input.
func Default() Metrics {
	return Metrics{TextStandard: "N/A"}
}

// Compute derives the full metric snapshot from text. Empty or
// whitespace-only text yields Default() rather than an error.
func Compute(text string) Metrics {
	if strings.TrimSpace(text) == "" {
		return Default()
	}

	words := splitWords(text)
	if len(words) == 0 {
		return Default()
	}
	sentences := countSentences(text)
	if sentences < 1 {
		sentences = 1
	}

	var syllables, polysyllables, difficult, letters, chars, longWords int
	for _, w := range words {
		s := countSyllables(w)
		syllables += s
		if s >= 3 {
			polysyllables++
		}
		if s >= 3 && !startsUpper(w) {
			difficult++
		}
		if len(w) > 6 {
			longWords++
		}
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters++
			}
			chars++
		}
	}

	nw := float64(len(words))
	ns := float64(sentences)
	nsyl := float64(syllables)

	m := Metrics{}
	m.FleschReadingEase = round2(206.835 - 1.015*(nw/ns) - 84.6*(nsyl/nw))
	m.FleschKincaidGrade = round2(0.39*(nw/ns) + 11.8*(nsyl/nw) - 15.59)
	m.SMOGIndex = round2(1.043*math.Sqrt(float64(polysyllables)*(30.0/ns)) + 3.1291)
	m.ColemanLiauIndex = round2(0.0588*(float64(letters)/nw*100) - 0.296*(ns/nw*100) - 15.8)
	m.AutomatedReadability = round2(4.71*(float64(chars)/nw) + 0.5*(nw/ns) - 21.43)

	pctDifficult := float64(difficult) / nw * 100
	dc := 0.1579*pctDifficult + 0.0496*(nw/ns)
	if pctDifficult > 5 {
		dc += 3.6365
	}
	m.DaleChallScore = round2(dc)
	m.DifficultWords = difficult

	easy := len(words) - polysyllables
	m.LinsearWriteFormula = round2(linsearWrite(float64(easy), float64(polysyllables)*3, ns))
	m.GunningFog = round2(0.4 * ((nw / ns) + 100*(float64(polysyllables)/nw)))
	m.TextStandard = textStandard(m)
	return m
}

func linsearWrite(easyPoints, hardPoints, sentences float64) float64 {
	provisional := (easyPoints + hardPoints) / sentences
	if provisional > 20 {
		return provisional / 2
	}
	return provisional/2 - 1
}

// textStandard reports the consensus school-grade band across the
// grade-producing formulas, e.g. "8th and 9th grade".
func textStandard(m Metrics) string {
	grades := []float64{
		m.FleschKincaidGrade,
		m.SMOGIndex,
		m.ColemanLiauIndex,
		m.AutomatedReadability,
		m.LinsearWriteFormula,
		m.GunningFog,
		fleschToGrade(m.FleschReadingEase),
	}
	counts := map[int]int{}
	for _, g := range grades {
		n := int(math.Round(g))
		if n < 0 {
			n = 0
		}
		counts[n]++
		counts[n+1]++
	}
	best, bestCount := 0, -1
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	lo := best - 1
	if lo < 0 {
		lo = 0
	}
	return fmt.Sprintf("%s and %s grade", ordinal(lo), ordinal(best))
}

func fleschToGrade(score float64) float64 {
	switch {
	case score >= 90:
		return 5
	case score >= 80:
		return 6
	case score >= 70:
		return 7
	case score >= 60:
		return 8.5
	case score >= 50:
		return 11
	case score >= 40:
		return 13
	case score >= 30:
		return 15
	default:
		return 16
	}
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func countSentences(text string) int {
	count := 0
	inSentence := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if inSentence {
				count++
				inSentence = false
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			inSentence = true
		}
	}
	if inSentence {
		count++
	}
	return count
}

// countSyllables estimates syllables by vowel groups with a silent-e
// adjustment. Every word counts as at least one syllable.
func countSyllables(word string) int {
	w := strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
