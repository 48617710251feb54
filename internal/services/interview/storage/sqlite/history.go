package sqlite

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/storage"
)

// ListHistory returns one page of an owner's completed sessions, ordered by
// start time then ID, newest first.
func (s *Store) ListHistory(ctx context.Context, query storage.HistoryQuery) (storage.HistoryPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.HistoryPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.HistoryPage{}, fmt.Errorf("page size must be greater than zero")
	}

	clauses := []string{"user_id = ?", "status = ?"}
	params := []any{query.OwnerID, string(session.StatusCompleted)}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		startedAt, id, err := decodePageToken(token)
		if err != nil {
			return storage.HistoryPage{}, err
		}
		clauses = append(clauses, "(started_at < ? OR (started_at = ? AND id < ?))")
		params = append(params, startedAt, startedAt, id)
	}
	if !query.Filter.Empty() {
		clauses = append(clauses, query.Filter.Clause)
		params = append(params, query.Filter.Params...)
	}
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+sessionColumns+`
		   FROM interviews
		  WHERE `+strings.Join(clauses, " AND ")+`
		  ORDER BY started_at DESC, id DESC
		  LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.HistoryPage{}, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	page := storage.HistoryPage{Sessions: make([]session.Session, 0, query.PageSize)}
	for rows.Next() {
		item, err := scanSession(rows)
		if err != nil {
			return storage.HistoryPage{}, fmt.Errorf("list history: %w", err)
		}
		page.Sessions = append(page.Sessions, item)
	}
	if err := rows.Err(); err != nil {
		return storage.HistoryPage{}, fmt.Errorf("list history: %w", err)
	}
	if len(page.Sessions) > query.PageSize {
		last := page.Sessions[query.PageSize-1]
		page.NextPageToken = encodePageToken(toMillis(last.StartedAt), last.ID)
		page.Sessions = page.Sessions[:query.PageSize]
	}
	return page, nil
}

func encodePageToken(startedAt, id int64) string {
	raw := strconv.FormatInt(startedAt, 10) + ":" + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodePageToken(token string) (int64, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, 0, storage.ErrInvalidPageToken
	}
	startedPart, idPart, ok := strings.Cut(string(raw), ":")
	if !ok {
		return 0, 0, storage.ErrInvalidPageToken
	}
	startedAt, err := strconv.ParseInt(startedPart, 10, 64)
	if err != nil {
		return 0, 0, storage.ErrInvalidPageToken
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, storage.ErrInvalidPageToken
	}
	return startedAt, id, nil
}
