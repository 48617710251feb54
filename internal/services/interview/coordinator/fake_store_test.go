package coordinator

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/storage"
	"github.com/louisbranch/mockinterview/internal/services/interview/transcript"
)

// fakeStore is an in-memory storage.Store.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	sessions  map[int64]session.Session
	questions map[int64]transcript.Question
	answers   []transcript.Answer
	emotions  []observation.Emotion
	postures  []observation.Posture

	getSessionErr error
	lastHistory   storage.HistoryQuery
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:  make(map[int64]session.Session),
		questions: make(map[int64]transcript.Question),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) writable(sessionID int64) error {
	s, ok := f.sessions[sessionID]
	if !ok {
		return storage.ErrNotFound
	}
	if s.Completed() {
		return storage.ErrSessionCompleted
	}
	return nil
}

func (f *fakeStore) CreateSession(_ context.Context, s session.Session) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.id()
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) GetSession(_ context.Context, id int64) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getSessionErr != nil {
		return session.Session{}, f.getSessionErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return session.Session{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) EndSession(_ context.Context, id int64, endedAt time.Time, summarize storage.SummarizeFunc) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return session.Session{}, storage.ErrNotFound
	}
	if s.Completed() {
		return s, nil
	}
	emotions := func(yield func(string) bool) {
		for _, e := range f.sortedEmotions(id) {
			if !yield(e.Label) {
				return
			}
		}
	}
	postures := func(yield func(string) bool) {
		for _, p := range f.postures {
			if p.SessionID == id && !yield(p.Label) {
				return
			}
		}
	}
	s = s.Complete(summarize(emotions, postures, s.StartedAt, endedAt), endedAt)
	f.sessions[id] = s
	return s, nil
}

func (f *fakeStore) ListHistory(_ context.Context, query storage.HistoryQuery) (storage.HistoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastHistory = query
	if query.PageToken == "bad" {
		return storage.HistoryPage{}, storage.ErrInvalidPageToken
	}
	var out []session.Session
	for _, s := range f.sessions {
		if s.OwnerID == query.OwnerID && s.Completed() {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b session.Session) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if len(out) > query.PageSize {
		out = out[:query.PageSize]
	}
	return storage.HistoryPage{Sessions: out}, nil
}

func (f *fakeStore) AddQuestion(_ context.Context, q transcript.Question) (transcript.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writable(q.SessionID); err != nil {
		return transcript.Question{}, err
	}
	q.ID = f.id()
	f.questions[q.ID] = q
	return q, nil
}

func (f *fakeStore) GetQuestion(_ context.Context, id int64) (transcript.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return transcript.Question{}, storage.ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) AddAnswer(_ context.Context, a transcript.Answer) (transcript.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[a.QuestionID]
	if !ok {
		return transcript.Answer{}, storage.ErrNotFound
	}
	if err := f.writable(q.SessionID); err != nil {
		return transcript.Answer{}, err
	}
	a.ID = f.id()
	f.answers = append(f.answers, a)
	return a, nil
}

func (f *fakeStore) QAPairs(_ context.Context, sessionID int64) ([]transcript.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var qs []transcript.Question
	for _, q := range f.questions {
		if q.SessionID == sessionID {
			qs = append(qs, q)
		}
	}
	slices.SortFunc(qs, func(a, b transcript.Question) int {
		return cmp.Or(cmp.Compare(a.SequenceNumber, b.SequenceNumber), cmp.Compare(a.ID, b.ID))
	})
	pairs := make([]transcript.Pair, 0, len(qs))
	for _, q := range qs {
		var latest *transcript.Answer
		for i := range f.answers {
			a := &f.answers[i]
			if a.QuestionID != q.ID {
				continue
			}
			if latest == nil || !a.AnsweredAt.Before(latest.AnsweredAt) {
				latest = a
			}
		}
		text := ""
		if latest != nil {
			text = latest.Text
		}
		pairs = append(pairs, transcript.Pair{
			QuestionID: q.ID,
			Question:   q.Text,
			Answer:     transcript.AnswerOrPlaceholder(text, latest != nil),
			AskedAt:    q.AskedAt,
		})
	}
	return pairs, nil
}

func (f *fakeStore) RecordEmotion(_ context.Context, e observation.Emotion) (observation.Emotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writable(e.SessionID); err != nil {
		return observation.Emotion{}, err
	}
	e.ID = f.id()
	f.emotions = append(f.emotions, e)
	return e, nil
}

func (f *fakeStore) RecordPosture(_ context.Context, p observation.Posture) (observation.Posture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writable(p.SessionID); err != nil {
		return observation.Posture{}, err
	}
	p.ID = f.id()
	f.postures = append(f.postures, p)
	return p, nil
}

func (f *fakeStore) sortedEmotions(sessionID int64) []observation.Emotion {
	var out []observation.Emotion
	for _, e := range f.emotions {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b observation.Emotion) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})
	return out
}

func (f *fakeStore) ListEmotions(_ context.Context, sessionID int64) iter.Seq2[observation.Emotion, error] {
	return func(yield func(observation.Emotion, error) bool) {
		f.mu.Lock()
		emotions := f.sortedEmotions(sessionID)
		f.mu.Unlock()
		for _, e := range emotions {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (f *fakeStore) PostureCounts(_ context.Context, sessionID int64) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, p := range f.postures {
		if p.SessionID == sessionID {
			counts[p.Label]++
		}
	}
	return counts, nil
}

var errStorageDown = errors.New("disk on fire")

var _ storage.Store = (*fakeStore)(nil)
