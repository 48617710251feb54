// Package storage defines persistence contracts for interview sessions.
package storage

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/louisbranch/mockinterview/internal/services/interview/aggregate"
	"github.com/louisbranch/mockinterview/internal/services/interview/historyfilter"
	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/transcript"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrSessionCompleted indicates a write against a completed session.
	ErrSessionCompleted = errors.New("session is completed")
	// ErrInvalidPageToken indicates a page token the store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// SessionStore persists session lifecycle state.
type SessionStore interface {
	CreateSession(ctx context.Context, s session.Session) (session.Session, error)
	GetSession(ctx context.Context, id int64) (session.Session, error)
	// EndSession atomically reads the session and its observations, calls
	// summarize when the session is still ongoing, and stores the result.
	// A completed session is returned unchanged and summarize is not called.
	EndSession(ctx context.Context, id int64, endedAt time.Time, summarize SummarizeFunc) (session.Session, error)
	ListHistory(ctx context.Context, query HistoryQuery) (HistoryPage, error)
}

// SummarizeFunc computes a summary from ordered label streams.
type SummarizeFunc func(emotions, postures iter.Seq[string], startedAt, endedAt time.Time) aggregate.Summary

// TranscriptStore persists questions and answers.
type TranscriptStore interface {
	// AddQuestion stores q; it fails with ErrSessionCompleted when the
	// session has ended.
	AddQuestion(ctx context.Context, q transcript.Question) (transcript.Question, error)
	GetQuestion(ctx context.Context, id int64) (transcript.Question, error)
	AddAnswer(ctx context.Context, a transcript.Answer) (transcript.Answer, error)
	// QAPairs lists questions by sequence number with their latest answer.
	QAPairs(ctx context.Context, sessionID int64) ([]transcript.Pair, error)
}

// ObservationStore persists emotion and posture events.
type ObservationStore interface {
	RecordEmotion(ctx context.Context, e observation.Emotion) (observation.Emotion, error)
	RecordPosture(ctx context.Context, p observation.Posture) (observation.Posture, error)
	// ListEmotions yields emotions ordered by observation time. Each
	// iteration runs a fresh query.
	ListEmotions(ctx context.Context, sessionID int64) iter.Seq2[observation.Emotion, error]
	PostureCounts(ctx context.Context, sessionID int64) (map[string]int, error)
}

// Store groups every interview persistence contract.
type Store interface {
	SessionStore
	TranscriptStore
	ObservationStore
}

// HistoryQuery selects one page of completed sessions for an owner.
type HistoryQuery struct {
	OwnerID   string
	PageSize  int
	PageToken string
	Filter    historyfilter.Condition
}

// HistoryPage is one page of completed sessions, newest first.
type HistoryPage struct {
	Sessions      []session.Session
	NextPageToken string
}
