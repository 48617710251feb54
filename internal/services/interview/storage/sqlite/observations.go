package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
)

// RecordEmotion appends an emotion sample to an ongoing session.
func (s *Store) RecordEmotion(ctx context.Context, e observation.Emotion) (observation.Emotion, error) {
	if err := s.ready(ctx); err != nil {
		return observation.Emotion{}, err
	}
	if e.ObservedAt.IsZero() {
		e.ObservedAt = time.Now().UTC()
	}
	err := s.withWritableSession(ctx, e.SessionID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO emotion_timeline (interview_id, emotion_label, confidence, observed_at) VALUES (?, ?, ?, ?)`,
			e.SessionID,
			e.Label,
			e.Confidence,
			toMillis(e.ObservedAt),
		)
		if err != nil {
			return fmt.Errorf("record emotion: %w", err)
		}
		e.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return observation.Emotion{}, err
	}
	e.ObservedAt = fromMillis(toMillis(e.ObservedAt))
	return e, nil
}

// RecordPosture appends a posture sample to an ongoing session.
func (s *Store) RecordPosture(ctx context.Context, p observation.Posture) (observation.Posture, error) {
	if err := s.ready(ctx); err != nil {
		return observation.Posture{}, err
	}
	if p.ObservedAt.IsZero() {
		p.ObservedAt = time.Now().UTC()
	}
	err := s.withWritableSession(ctx, p.SessionID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO posture_events (interview_id, posture_label, observed_at) VALUES (?, ?, ?)`,
			p.SessionID,
			p.Label,
			toMillis(p.ObservedAt),
		)
		if err != nil {
			return fmt.Errorf("record posture: %w", err)
		}
		p.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return observation.Posture{}, err
	}
	p.ObservedAt = fromMillis(toMillis(p.ObservedAt))
	return p, nil
}

// ListEmotions yields the session's emotions ordered by observation time,
// then ID. Each range over the sequence issues a new query.
func (s *Store) ListEmotions(ctx context.Context, sessionID int64) iter.Seq2[observation.Emotion, error] {
	return func(yield func(observation.Emotion, error) bool) {
		if err := s.ready(ctx); err != nil {
			yield(observation.Emotion{}, err)
			return
		}
		rows, err := s.sqlDB.QueryContext(
			ctx,
			`SELECT id, interview_id, emotion_label, confidence, observed_at
			   FROM emotion_timeline
			  WHERE interview_id = ?
			  ORDER BY observed_at ASC, id ASC`,
			sessionID,
		)
		if err != nil {
			yield(observation.Emotion{}, fmt.Errorf("list emotions: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e          observation.Emotion
				observedAt int64
			)
			if err := rows.Scan(&e.ID, &e.SessionID, &e.Label, &e.Confidence, &observedAt); err != nil {
				yield(observation.Emotion{}, fmt.Errorf("list emotions: %w", err))
				return
			}
			e.ObservedAt = fromMillis(observedAt)
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(observation.Emotion{}, fmt.Errorf("list emotions: %w", err))
		}
	}
}

// PostureCounts returns the number of events per posture label.
func (s *Store) PostureCounts(ctx context.Context, sessionID int64) (map[string]int, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT posture_label, COUNT(*) FROM posture_events WHERE interview_id = ? GROUP BY posture_label`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("posture counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			label string
			count int
		)
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("posture counts: %w", err)
		}
		counts[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("posture counts: %w", err)
	}
	return counts, nil
}
