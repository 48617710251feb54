// Package observation defines the emotion and posture events recorded while
// an interview runs, and the frame classification path that produces them.
package observation

import (
	"math"
	"strings"
	"time"

	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
)

// NoFaceLabel is reported when a frame cannot be classified.
const NoFaceLabel = "no_face"

// Emotion is one classified affect sample.
type Emotion struct {
	ID         int64
	SessionID  int64
	Label      string
	Confidence float64
	ObservedAt time.Time
}

// Posture is one classified posture sample.
type Posture struct {
	ID         int64
	SessionID  int64
	Label      string
	ObservedAt time.Time
}

// Classification is the output of an emotion classifier.
type Classification struct {
	Label      string
	Confidence float64
}

// NoFace is the classification substituted for any classifier failure.
func NoFace() Classification {
	return Classification{Label: NoFaceLabel, Confidence: 0}
}

// IsNoFace reports whether c is the failure sentinel.
func (c Classification) IsNoFace() bool {
	return c.Label == NoFaceLabel
}

// NewEmotion validates a caller-supplied emotion sample. The label set is
// open and confidence is stored as given, provided it is finite.
func NewEmotion(sessionID int64, label string, confidence float64, now time.Time) (Emotion, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Emotion{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "emotion label is required", map[string]string{"field": "emotion label"})
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return Emotion{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "confidence must be finite", map[string]string{"field": "confidence"})
	}
	return Emotion{
		SessionID:  sessionID,
		Label:      label,
		Confidence: confidence,
		ObservedAt: now.UTC(),
	}, nil
}

// NewPosture validates a caller-supplied posture sample.
func NewPosture(sessionID int64, label string, now time.Time) (Posture, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Posture{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "posture label is required", map[string]string{"field": "posture label"})
	}
	return Posture{
		SessionID:  sessionID,
		Label:      label,
		ObservedAt: now.UTC(),
	}, nil
}
