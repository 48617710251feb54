// Package transcript holds the question and answer rules of an interview.
package transcript

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
)

// NoResponse stands in for an answer that was never given or was blank.
const NoResponse = "No response"

// Question is one question asked within a session.
type Question struct {
	ID             int64
	SessionID      int64
	Text           string
	SequenceNumber int
	AskedAt        time.Time
}

// Answer is one submission for a question. Later submissions supersede
// earlier ones on read.
type Answer struct {
	ID         int64
	QuestionID int64
	Text       string
	AnsweredAt time.Time
}

// Pair is one transcript line as shown in session details.
type Pair struct {
	QuestionID int64
	Question   string
	Answer     string
	AskedAt    time.Time
}

// NormalizeAnswer trims text and substitutes NoResponse for blank answers.
func NormalizeAnswer(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoResponse
	}
	return text
}

// AnswerOrPlaceholder returns the stored answer, or NoResponse if none.
func AnswerOrPlaceholder(text string, ok bool) string {
	if !ok || strings.TrimSpace(text) == "" {
		return NoResponse
	}
	return text
}

// ValidateSequenceNumber rejects sequence numbers below one.
func ValidateSequenceNumber(n int) error {
	if n < 1 {
		return apperrors.WithMetadata(apperrors.CodeInvalidInput, "sequence number must be at least 1", map[string]string{"field": "sequence number"})
	}
	return nil
}

// NewQuestion validates and builds a question for sessionID.
func NewQuestion(sessionID int64, text string, sequenceNumber int, now time.Time) (Question, error) {
	if err := ValidateSequenceNumber(sequenceNumber); err != nil {
		return Question{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "question text is required", map[string]string{"field": "question text"})
	}
	return Question{
		SessionID:      sessionID,
		Text:           text,
		SequenceNumber: sequenceNumber,
		AskedAt:        now.UTC(),
	}, nil
}
