package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/storage"
	"github.com/louisbranch/mockinterview/internal/services/interview/transcript"
)

// AddQuestion stores a question for an ongoing session.
func (s *Store) AddQuestion(ctx context.Context, q transcript.Question) (transcript.Question, error) {
	if err := s.ready(ctx); err != nil {
		return transcript.Question{}, err
	}
	if q.AskedAt.IsZero() {
		q.AskedAt = time.Now().UTC()
	}
	err := s.withWritableSession(ctx, q.SessionID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO interview_questions (interview_id, question_text, question_number, asked_at) VALUES (?, ?, ?, ?)`,
			q.SessionID,
			q.Text,
			q.SequenceNumber,
			toMillis(q.AskedAt),
		)
		if err != nil {
			return fmt.Errorf("add question: %w", err)
		}
		q.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("add question id: %w", err)
		}
		return nil
	})
	if err != nil {
		return transcript.Question{}, err
	}
	q.AskedAt = fromMillis(toMillis(q.AskedAt))
	return q, nil
}

// GetQuestion returns one question by ID.
func (s *Store) GetQuestion(ctx context.Context, id int64) (transcript.Question, error) {
	if err := s.ready(ctx); err != nil {
		return transcript.Question{}, err
	}
	var (
		q       transcript.Question
		askedAt int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, interview_id, question_text, question_number, asked_at FROM interview_questions WHERE id = ?`,
		id,
	).Scan(&q.ID, &q.SessionID, &q.Text, &q.SequenceNumber, &askedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transcript.Question{}, storage.ErrNotFound
		}
		return transcript.Question{}, fmt.Errorf("get question: %w", err)
	}
	q.AskedAt = fromMillis(askedAt)
	return q, nil
}

// AddAnswer appends an answer row. The question must exist and its session
// must be ongoing.
func (s *Store) AddAnswer(ctx context.Context, a transcript.Answer) (transcript.Answer, error) {
	if err := s.ready(ctx); err != nil {
		return transcript.Answer{}, err
	}
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now().UTC()
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return transcript.Answer{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(
		ctx,
		`SELECT i.status
		   FROM interview_questions q
		   JOIN interviews i ON i.id = q.interview_id
		  WHERE q.id = ?`,
		a.QuestionID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transcript.Answer{}, storage.ErrNotFound
		}
		return transcript.Answer{}, fmt.Errorf("get question session: %w", err)
	}
	if session.Status(status) == session.StatusCompleted {
		return transcript.Answer{}, storage.ErrSessionCompleted
	}
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO interview_answers (question_id, answer_text, answered_at) VALUES (?, ?, ?)`,
		a.QuestionID,
		a.Text,
		toMillis(a.AnsweredAt),
	)
	if err != nil {
		return transcript.Answer{}, fmt.Errorf("add answer: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return transcript.Answer{}, fmt.Errorf("add answer id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return transcript.Answer{}, fmt.Errorf("commit: %w", err)
	}
	a.AnsweredAt = fromMillis(toMillis(a.AnsweredAt))
	return a, nil
}

// QAPairs lists questions by sequence number. When a question has several
// answers the latest one wins, ties broken by the higher row ID.
func (s *Store) QAPairs(ctx context.Context, sessionID int64) ([]transcript.Pair, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT q.id, q.question_text, q.asked_at,
		        (SELECT a.answer_text
		           FROM interview_answers a
		          WHERE a.question_id = q.id
		          ORDER BY a.answered_at DESC, a.id DESC
		          LIMIT 1)
		   FROM interview_questions q
		  WHERE q.interview_id = ?
		  ORDER BY q.question_number ASC, q.id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list qa pairs: %w", err)
	}
	defer rows.Close()

	pairs := make([]transcript.Pair, 0)
	for rows.Next() {
		var (
			pair    transcript.Pair
			askedAt int64
			answer  sql.NullString
		)
		if err := rows.Scan(&pair.QuestionID, &pair.Question, &askedAt, &answer); err != nil {
			return nil, fmt.Errorf("list qa pairs: %w", err)
		}
		pair.AskedAt = fromMillis(askedAt)
		pair.Answer = transcript.AnswerOrPlaceholder(answer.String, answer.Valid)
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list qa pairs: %w", err)
	}
	return pairs, nil
}
