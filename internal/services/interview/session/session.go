// Package session models the interview session lifecycle. A session starts
// Ongoing and moves to Completed exactly once; Completed is terminal.
package session

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
	"github.com/louisbranch/mockinterview/internal/services/interview/aggregate"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusOngoing accepts questions, answers and observations.
	StatusOngoing Status = "ongoing"
	// StatusCompleted is frozen; the summary fields are set.
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOngoing || s == StatusCompleted
}

// Session is one interview attempt for one owner and role.
type Session struct {
	ID        int64
	OwnerID   string
	RoleLabel string
	StartedAt time.Time
	Status    Status
	// EndedAt, OverallEmotion and OverallPosture are set iff Status is
	// StatusCompleted.
	EndedAt        time.Time
	OverallEmotion string
	OverallPosture string
}

// Start validates input and returns a new ongoing session. The ID is
// assigned by storage.
func Start(ownerID, roleLabel string, now time.Time) (Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	roleLabel = strings.TrimSpace(roleLabel)
	if ownerID == "" {
		return Session{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "owner id is required", map[string]string{"field": "user id"})
	}
	if roleLabel == "" {
		return Session{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "role label is required", map[string]string{"field": "role label"})
	}
	return Session{
		OwnerID:   ownerID,
		RoleLabel: roleLabel,
		StartedAt: now.UTC(),
		Status:    StatusOngoing,
	}, nil
}

// Completed reports whether the session is frozen.
func (s Session) Completed() bool {
	return s.Status == StatusCompleted
}

// OwnedBy reports whether userID owns the session.
func (s Session) OwnedBy(userID string) bool {
	return s.OwnerID != "" && s.OwnerID == strings.TrimSpace(userID)
}

// EnsureWritable rejects writes against a completed session.
func (s Session) EnsureWritable() error {
	if s.Completed() {
		return apperrors.WithMetadata(apperrors.CodeInvalidState, "session is completed", map[string]string{"session_id": strconv.FormatInt(s.ID, 10)})
	}
	return nil
}

// Complete returns the session frozen with summary at endedAt.
func (s Session) Complete(summary aggregate.Summary, endedAt time.Time) Session {
	s.Status = StatusCompleted
	s.EndedAt = endedAt.UTC()
	s.OverallEmotion = summary.OverallEmotion
	s.OverallPosture = summary.OverallPosture
	return s
}

// Summary returns the frozen summary of a completed session. Duration is
// derived from the stored start and end times.
func (s Session) Summary() (aggregate.Summary, bool) {
	if !s.Completed() {
		return aggregate.Summary{}, false
	}
	return aggregate.Summary{
		OverallEmotion:  s.OverallEmotion,
		OverallPosture:  s.OverallPosture,
		DurationMinutes: aggregate.DurationMinutes(s.StartedAt, s.EndedAt),
	}, true
}
