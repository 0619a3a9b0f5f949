// Package report turns a finished interview transcript into a structured
// evaluation that maps directly onto the UI cards.
package report

import (
	"math"
	"strings"
)

// MinTranscriptLen is the minimum transcript length worth evaluating.
const MinTranscriptLen = 20

const maxListItems = 5

type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

type Report struct {
	OverallScore   int       `json:"overall_score"`
	OverallComment string    `json:"overall_comment"`
	Sentiment      Sentiment `json:"sentiment"`
	KeyTopics      []string  `json:"key_topics"`
	Strengths      []string  `json:"strengths"`
	Improvements   []string  `json:"improvements"`
}

// Normalize clamps the score, renormalizes sentiment percentages to sum 100,
// and caps the list fields, so a sloppy model response still renders cleanly.
func Normalize(r Report) Report {
	r.OverallScore = clamp(r.OverallScore, 0, 100)
	r.OverallComment = strings.TrimSpace(r.OverallComment)

	total := r.Sentiment.Positive + r.Sentiment.Neutral + r.Sentiment.Negative
	if total > 0 {
		pos := int(math.Round(float64(r.Sentiment.Positive) / float64(total) * 100))
		neu := int(math.Round(float64(r.Sentiment.Neutral) / float64(total) * 100))
		r.Sentiment = Sentiment{Positive: pos, Neutral: neu, Negative: 100 - pos - neu}
	} else {
		r.Sentiment = Sentiment{Positive: 33, Neutral: 34, Negative: 33}
	}

	r.KeyTopics = capList(r.KeyTopics)
	r.Strengths = capList(r.Strengths)
	r.Improvements = capList(r.Improvements)
	return r
}

// Score10 converts the 0-100 model score to the 0-10 scale shown in the UI.
func Score10(overallScore int) float64 {
	s := math.Round(float64(overallScore)/10.0*10) / 10
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}

// StatusLabel buckets a 0-10 score into the hiring recommendation label.
func StatusLabel(score10 float64) string {
	switch {
	case score10 >= 8.0:
		return "Güçlü Aday"
	case score10 >= 6.0:
		return "İkinci Görüşme"
	default:
		return "Uygun Değil"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func capList(items []string) []string {
	out := make([]string, 0, maxListItems)
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}

// StripCodeFence removes markdown ```json fences some models wrap around
// their JSON output despite being told not to.
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	// Keep only the outermost JSON value when the model added prose around it.
	if start := strings.IndexAny(raw, "{["); start > 0 {
		raw = raw[start:]
	}
	return raw
}
