package coordinator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
	"github.com/louisbranch/mockinterview/internal/services/interview/questions"
	"github.com/louisbranch/mockinterview/internal/services/interview/session"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *fakeStore, *testClock) {
	t.Helper()
	store := newFakeStore()
	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	cfg.Store = store
	cfg.Clock = clock.Now
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return c, store, clock
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperrors.GetCode(err); got != want {
		t.Fatalf("error code = %s, want %s (err=%v)", got, want, err)
	}
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestFullSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	gen := questions.GeneratorFunc(func(_ context.Context, role string, n int) (string, error) {
		return "Why do you want to be a " + role + "?", nil
	})
	c, _, clock := newTestCoordinator(t, Config{Questions: gen})

	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if s.ID == 0 || s.Status != session.StatusOngoing {
		t.Fatalf("session = %+v, want ongoing with id", s)
	}

	q, err := c.GenerateQuestion(ctx, "1", s.ID, "", 1)
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	if q.Text != "Why do you want to be a Backend Engineer?" {
		t.Fatalf("question text = %q", q.Text)
	}
	if _, err := c.SubmitAnswer(ctx, "1", q.ID, "I like APIs"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	for _, label := range []string{"happy", "happy", "neutral", "happy"} {
		clock.Advance(time.Second)
		if _, err := c.RecordEmotion(ctx, "1", s.ID, label, 0.9); err != nil {
			t.Fatalf("record emotion %q: %v", label, err)
		}
	}
	for _, label := range []string{"Good", "Poor", "Good"} {
		if _, err := c.RecordPosture(ctx, "1", s.ID, label); err != nil {
			t.Fatalf("record posture %q: %v", label, err)
		}
	}

	clock.Advance(5*time.Minute + 30*time.Second)
	summary, err := c.EndSession(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if summary.OverallEmotion != "happy" {
		t.Fatalf("overall emotion = %q, want happy", summary.OverallEmotion)
	}
	if summary.OverallPosture != "Good" {
		t.Fatalf("overall posture = %q, want Good", summary.OverallPosture)
	}
	if summary.DurationMinutes != 5 {
		t.Fatalf("duration = %d, want 5", summary.DurationMinutes)
	}

	details, err := c.GetDetails(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if len(details.QAPairs) != 1 || details.QAPairs[0].Answer != "I like APIs" {
		t.Fatalf("qa pairs = %+v", details.QAPairs)
	}
	if len(details.EmotionTimeline) != 4 {
		t.Fatalf("emotion timeline len = %d, want 4", len(details.EmotionTimeline))
	}
	if details.PostureSummary.GoodCount != 2 || details.PostureSummary.PoorCount != 1 {
		t.Fatalf("posture summary = %+v", details.PostureSummary)
	}
	if details.DurationMinutes != 5 {
		t.Fatalf("details duration = %d, want 5", details.DurationMinutes)
	}

	page, err := c.ListHistory(ctx, "1", HistoryRequest{})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(page.Sessions) != 1 || page.Sessions[0].ID != s.ID {
		t.Fatalf("history = %+v", page.Sessions)
	}
}

func TestStartSessionRejectsBlankInput(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Config{})
	_, err := c.StartSession(context.Background(), "1", "   ")
	assertCode(t, err, apperrors.CodeInvalidInput)
	_, err = c.StartSession(context.Background(), "", "Backend Engineer")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestOwnershipIsChecked(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, err = c.GetDetails(ctx, "2", s.ID)
	assertCode(t, err, apperrors.CodeAccessDenied)
	_, err = c.EndSession(ctx, "2", s.ID)
	assertCode(t, err, apperrors.CodeAccessDenied)
	_, err = c.RecordPosture(ctx, "2", s.ID, "Good")
	assertCode(t, err, apperrors.CodeAccessDenied)
	_, err = c.GetDetails(ctx, "", s.ID)
	assertCode(t, err, apperrors.CodeAccessDenied)

	// Missing sessions report NotFound to every caller.
	_, err = c.GetDetails(ctx, "2", s.ID+100)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestWritesAfterEndAreRejected(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	q, err := c.GenerateQuestion(ctx, "1", s.ID, "", 1)
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	if _, err := c.EndSession(ctx, "1", s.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}

	_, err = c.SubmitAnswer(ctx, "1", q.ID, "late")
	assertCode(t, err, apperrors.CodeInvalidState)
	_, err = c.RecordEmotion(ctx, "1", s.ID, "happy", 0.5)
	assertCode(t, err, apperrors.CodeInvalidState)
	_, err = c.RecordPosture(ctx, "1", s.ID, "Good")
	assertCode(t, err, apperrors.CodeInvalidState)
	_, err = c.GenerateQuestion(ctx, "1", s.ID, "", 2)
	assertCode(t, err, apperrors.CodeInvalidState)
	_, err = c.DetectEmotion(ctx, "1", s.ID, pngFrame(t))
	assertCode(t, err, apperrors.CodeInvalidState)

	if len(store.answers) != 0 || len(store.emotions) != 0 || len(store.postures) != 0 {
		t.Fatalf("writes persisted after end: answers=%d emotions=%d postures=%d", len(store.answers), len(store.emotions), len(store.postures))
	}
}

func TestEndSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := c.RecordEmotion(ctx, "1", s.ID, "sad", 0.7); err != nil {
		t.Fatalf("record emotion: %v", err)
	}
	clock.Advance(3 * time.Minute)
	first, err := c.EndSession(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}

	clock.Advance(time.Hour)
	second, err := c.EndSession(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("end session again: %v", err)
	}
	if first != second {
		t.Fatalf("second end = %+v, want %+v", second, first)
	}
	if first.OverallEmotion != "sad" || first.DurationMinutes != 3 {
		t.Fatalf("summary = %+v", first)
	}
}

func TestEndSessionDefaultsWithoutObservations(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	summary, err := c.EndSession(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if summary.OverallEmotion != "neutral" || summary.OverallPosture != "Good" || summary.DurationMinutes != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestGetDetailsIsReadOnly(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	q, err := c.GenerateQuestion(ctx, "1", s.ID, "", 1)
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}

	first, err := c.GetDetails(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	second, err := c.GetDetails(ctx, "1", s.ID)
	if err != nil {
		t.Fatalf("get details again: %v", err)
	}
	if len(first.QAPairs) != 1 || len(second.QAPairs) != 1 {
		t.Fatalf("qa pairs = %d and %d, want 1", len(first.QAPairs), len(second.QAPairs))
	}
	if first.QAPairs[0] != second.QAPairs[0] {
		t.Fatalf("details changed between reads: %+v vs %+v", first.QAPairs[0], second.QAPairs[0])
	}
	if first.QAPairs[0].QuestionID != q.ID || first.QAPairs[0].Answer != "No response" {
		t.Fatalf("unanswered pair = %+v", first.QAPairs[0])
	}
	if first.Session.Completed() || first.DurationMinutes != 0 {
		t.Fatalf("ongoing session details = %+v", first)
	}
	if first.EmotionTimeline == nil {
		t.Fatal("emotion timeline should be empty, not nil")
	}
}

func TestSubmitAnswerBlankStoresPlaceholder(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	q, err := c.GenerateQuestion(ctx, "1", s.ID, "", 1)
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	a, err := c.SubmitAnswer(ctx, "1", q.ID, "  ")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if a.Text != "No response" {
		t.Fatalf("answer text = %q, want placeholder", a.Text)
	}

	_, err = c.SubmitAnswer(ctx, "1", q.ID+100, "hello")
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = c.SubmitAnswer(ctx, "2", q.ID, "hello")
	assertCode(t, err, apperrors.CodeAccessDenied)
}

func TestGenerateQuestionFallsBack(t *testing.T) {
	ctx := context.Background()
	gen := questions.GeneratorFunc(func(context.Context, string, int) (string, error) {
		return "", errors.New("connection refused")
	})
	c, _, _ := newTestCoordinator(t, Config{Questions: gen})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	q, err := c.GenerateQuestion(ctx, "1", s.ID, "", 2)
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	if want := questions.Fallback("Backend Engineer", 2); q.Text != want {
		t.Fatalf("question = %q, want %q", q.Text, want)
	}
	if q.SequenceNumber != 2 || q.SessionID != s.ID {
		t.Fatalf("question = %+v", q)
	}
}

func TestGenerateQuestionTimesOut(t *testing.T) {
	ctx := context.Background()
	gen := questions.GeneratorFunc(func(ctx context.Context, _ string, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c, _, _ := newTestCoordinator(t, Config{Questions: gen, QuestionTimeout: 10 * time.Millisecond})
	s, err := c.StartSession(ctx, "1", "Data Scientist")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	q, err := c.GenerateQuestion(ctx, "1", s.ID, "Data Scientist", 1)
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	if !strings.Contains(q.Text, "Data Scientist") {
		t.Fatalf("fallback question = %q, want role mentioned", q.Text)
	}
}

func TestGenerateQuestionRejectsBadSequence(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	_, err = c.GenerateQuestion(ctx, "1", s.ID, "", 0)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestRecordEmotionValidatesInput(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	_, err = c.RecordEmotion(ctx, "1", s.ID, "", 0.5)
	assertCode(t, err, apperrors.CodeInvalidInput)
	_, err = c.RecordPosture(ctx, "1", s.ID, " ")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestDetectEmotion(t *testing.T) {
	ctx := context.Background()
	frame := pngFrame(t)

	tests := []struct {
		name        string
		classifier  observation.FrameClassifier
		frame       []byte
		wantLabel   string
		wantPersist int
	}{
		{
			name: "classified",
			classifier: observation.FrameClassifierFunc(func(_ context.Context, got []byte) (observation.Classification, error) {
				if len(got) == 0 {
					return observation.Classification{}, errors.New("empty frame")
				}
				return observation.Classification{Label: "happy", Confidence: 0.92}, nil
			}),
			frame:       frame,
			wantLabel:   "happy",
			wantPersist: 1,
		},
		{
			name:      "no classifier",
			frame:     frame,
			wantLabel: observation.NoFaceLabel,
		},
		{
			name: "undecodable frame",
			classifier: observation.FrameClassifierFunc(func(context.Context, []byte) (observation.Classification, error) {
				return observation.Classification{Label: "happy", Confidence: 1}, nil
			}),
			frame:     []byte("not an image"),
			wantLabel: observation.NoFaceLabel,
		},
		{
			name: "classifier failure",
			classifier: observation.FrameClassifierFunc(func(context.Context, []byte) (observation.Classification, error) {
				return observation.Classification{}, errors.New("no face detected")
			}),
			frame:     frame,
			wantLabel: observation.NoFaceLabel,
		},
		{
			name: "classifier returns blank label",
			classifier: observation.FrameClassifierFunc(func(context.Context, []byte) (observation.Classification, error) {
				return observation.Classification{Label: " ", Confidence: 0.3}, nil
			}),
			frame:     frame,
			wantLabel: observation.NoFaceLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, _ := newTestCoordinator(t, Config{Classifier: tt.classifier})
			s, err := c.StartSession(ctx, "1", "Backend Engineer")
			if err != nil {
				t.Fatalf("start session: %v", err)
			}
			got, err := c.DetectEmotion(ctx, "1", s.ID, tt.frame)
			if err != nil {
				t.Fatalf("detect emotion: %v", err)
			}
			if got.Label != tt.wantLabel {
				t.Fatalf("label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.IsNoFace() && got.Confidence != 0 {
				t.Fatalf("no_face confidence = %v, want 0", got.Confidence)
			}
			if len(store.emotions) != tt.wantPersist {
				t.Fatalf("persisted emotions = %d, want %d", len(store.emotions), tt.wantPersist)
			}
		})
	}
}

func TestDetectEmotionChecksOwnership(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t, Config{})
	s, err := c.StartSession(ctx, "1", "Backend Engineer")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	_, err = c.DetectEmotion(ctx, "2", s.ID, pngFrame(t))
	assertCode(t, err, apperrors.CodeAccessDenied)
}

func TestListHistory(t *testing.T) {
	ctx := context.Background()
	c, store, clock := newTestCoordinator(t, Config{})

	var ended []int64
	for i := 0; i < 3; i++ {
		s, err := c.StartSession(ctx, "1", "Backend Engineer")
		if err != nil {
			t.Fatalf("start session: %v", err)
		}
		clock.Advance(time.Minute)
		if i < 2 {
			if _, err := c.EndSession(ctx, "1", s.ID); err != nil {
				t.Fatalf("end session: %v", err)
			}
			ended = append(ended, s.ID)
		}
	}
	if _, err := c.StartSession(ctx, "2", "Designer"); err != nil {
		t.Fatalf("start other session: %v", err)
	}

	page, err := c.ListHistory(ctx, "1", HistoryRequest{PageSize: 500})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if store.lastHistory.PageSize != maxHistoryPageSize {
		t.Fatalf("page size = %d, want %d", store.lastHistory.PageSize, maxHistoryPageSize)
	}
	if len(page.Sessions) != 2 {
		t.Fatalf("history len = %d, want 2", len(page.Sessions))
	}
	if page.Sessions[0].ID != ended[1] || page.Sessions[1].ID != ended[0] {
		t.Fatalf("history order = %d,%d want %d,%d", page.Sessions[0].ID, page.Sessions[1].ID, ended[1], ended[0])
	}

	if _, err := c.ListHistory(ctx, "1", HistoryRequest{}); err != nil {
		t.Fatalf("list history: %v", err)
	}
	if store.lastHistory.PageSize != defaultHistoryPageSize {
		t.Fatalf("default page size = %d, want %d", store.lastHistory.PageSize, defaultHistoryPageSize)
	}

	_, err = c.ListHistory(ctx, "", HistoryRequest{})
	assertCode(t, err, apperrors.CodeAccessDenied)
	_, err = c.ListHistory(ctx, "1", HistoryRequest{Filter: "role_label ="})
	assertCode(t, err, apperrors.CodeInvalidInput)
	_, err = c.ListHistory(ctx, "1", HistoryRequest{PageToken: "bad"})
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestStorageFailuresAreOpaque(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCoordinator(t, Config{})
	store.getSessionErr = errStorageDown
	_, err := c.GetDetails(ctx, "1", 1)
	assertCode(t, err, apperrors.CodeStorageFailure)
	if !errors.Is(err, errStorageDown) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
