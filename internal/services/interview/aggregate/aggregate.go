// Package aggregate computes session summaries from observation streams:
// the dominant label of a categorical stream, session duration, and the
// three-way posture distribution.
package aggregate

import (
	"iter"
	"math"
	"time"

	"golang.org/x/text/cases"
)

const (
	// DefaultEmotion is the dominant emotion of an empty timeline.
	DefaultEmotion = "neutral"
	// DefaultPosture is the dominant posture of a session without events.
	DefaultPosture = "Good"
)

// Dominant returns the most frequent label in labels. Ties go to the label
// seen first. An empty sequence yields fallback.
func Dominant(labels iter.Seq[string], fallback string) string {
	counts := make(map[string]int)
	var order []string
	for label := range labels {
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}
	if len(order) == 0 {
		return fallback
	}
	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return best
}

// DurationMinutes returns floor((end-start)/1m). Negative spans are not
// clamped.
func DurationMinutes(start, end time.Time) int64 {
	seconds := end.Sub(start).Seconds()
	return int64(math.Floor(seconds / 60))
}

// PostureSummary counts posture labels in the good/average/poor vocabulary.
type PostureSummary struct {
	GoodCount    int
	AverageCount int
	PoorCount    int
}

// SummarizePosture matches counts against the good/average/poor vocabulary
// case-insensitively. Labels outside the vocabulary are dropped.
func SummarizePosture(counts map[string]int) PostureSummary {
	fold := cases.Fold()
	var out PostureSummary
	for label, n := range counts {
		switch fold.String(label) {
		case "good":
			out.GoodCount += n
		case "average":
			out.AverageCount += n
		case "poor":
			out.PoorCount += n
		}
	}
	return out
}

// Summary is the frozen result of ending a session.
type Summary struct {
	OverallEmotion  string
	OverallPosture  string
	DurationMinutes int64
}

// Summarize computes a session summary. emotions and postures must yield
// labels in observation order.
func Summarize(emotions, postures iter.Seq[string], start, end time.Time) Summary {
	return Summary{
		OverallEmotion:  Dominant(emotions, DefaultEmotion),
		OverallPosture:  Dominant(postures, DefaultPosture),
		DurationMinutes: DurationMinutes(start, end),
	}
}
