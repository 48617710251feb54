package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/storage"
)

const sessionColumns = `id, user_id, role_label, started_at, ended_at, overall_emotion, overall_posture, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var (
		out            session.Session
		startedAt      int64
		endedAt        sql.NullInt64
		overallEmotion sql.NullString
		overallPosture sql.NullString
		status         string
	)
	if err := row.Scan(
		&out.ID,
		&out.OwnerID,
		&out.RoleLabel,
		&startedAt,
		&endedAt,
		&overallEmotion,
		&overallPosture,
		&status,
	); err != nil {
		return session.Session{}, err
	}
	out.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		out.EndedAt = fromMillis(endedAt.Int64)
	}
	out.OverallEmotion = overallEmotion.String
	out.OverallPosture = overallPosture.String
	out.Status = session.Status(status)
	return out, nil
}

// CreateSession inserts an ongoing session and returns it with its ID.
func (s *Store) CreateSession(ctx context.Context, in session.Session) (session.Session, error) {
	if err := s.ready(ctx); err != nil {
		return session.Session{}, err
	}
	if in.Status != session.StatusOngoing {
		return session.Session{}, fmt.Errorf("new session must be ongoing")
	}
	if in.StartedAt.IsZero() {
		in.StartedAt = time.Now().UTC()
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO interviews (user_id, role_label, started_at, status) VALUES (?, ?, ?, ?)`,
		in.OwnerID,
		in.RoleLabel,
		toMillis(in.StartedAt),
		string(session.StatusOngoing),
	)
	if err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return session.Session{}, fmt.Errorf("create session id: %w", err)
	}
	in.ID = id
	in.StartedAt = fromMillis(toMillis(in.StartedAt))
	return in, nil
}

// GetSession returns one session by ID.
func (s *Store) GetSession(ctx context.Context, id int64) (session.Session, error) {
	if err := s.ready(ctx); err != nil {
		return session.Session{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM interviews WHERE id = ?`, id)
	out, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, storage.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return out, nil
}

// EndSession freezes the session summary in one immediate transaction, so
// no observation can land between the aggregate read and the update.
func (s *Store) EndSession(ctx context.Context, id int64, endedAt time.Time, summarize storage.SummarizeFunc) (session.Session, error) {
	if err := s.ready(ctx); err != nil {
		return session.Session{}, err
	}
	if summarize == nil {
		return session.Session{}, fmt.Errorf("summarize function is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return session.Session{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM interviews WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, storage.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	if current.Completed() {
		return current, nil
	}

	emotions, err := queryLabels(ctx, tx, `SELECT emotion_label FROM emotion_timeline WHERE interview_id = ? ORDER BY observed_at ASC, id ASC`, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("read emotions: %w", err)
	}
	postures, err := queryLabels(ctx, tx, `SELECT posture_label FROM posture_events WHERE interview_id = ? ORDER BY observed_at ASC, id ASC`, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("read postures: %w", err)
	}
	endedAt = fromMillis(toMillis(endedAt))
	summary := summarize(slices.Values(emotions), slices.Values(postures), current.StartedAt, endedAt)
	completed := current.Complete(summary, endedAt)

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE interviews
		    SET status = ?, ended_at = ?, overall_emotion = ?, overall_posture = ?
		  WHERE id = ? AND status = ?`,
		string(session.StatusCompleted),
		toMillis(completed.EndedAt),
		completed.OverallEmotion,
		completed.OverallPosture,
		id,
		string(session.StatusOngoing),
	); err != nil {
		return session.Session{}, fmt.Errorf("complete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return session.Session{}, fmt.Errorf("commit: %w", err)
	}
	return completed, nil
}

func queryLabels(ctx context.Context, tx *sql.Tx, query string, id int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}
