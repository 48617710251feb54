package interview

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	interviewv1 "github.com/louisbranch/mockinterview/api/interview/v1"
	"github.com/louisbranch/mockinterview/internal/platform/requestctx"
	"github.com/louisbranch/mockinterview/internal/services/interview/coordinator"
	"github.com/louisbranch/mockinterview/internal/services/interview/questions"
	interviewsqlite "github.com/louisbranch/mockinterview/internal/services/interview/storage/sqlite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := interviewsqlite.Open(filepath.Join(t.TempDir(), "interview.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	c, err := coordinator.New(coordinator.Config{
		Store: store,
		Questions: questions.GeneratorFunc(func(context.Context, string, int) (string, error) {
			return "", errors.New("model offline")
		}),
		Clock: func() time.Time {
			tick++
			return start.Add(time.Duration(tick) * time.Minute)
		},
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return NewService(c)
}

func userContext(userID string) context.Context {
	return requestctx.WithUserID(context.Background(), userID)
}

func assertStatus(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Fatalf("code = %v, want %v (err=%v)", got, want, err)
	}
}

func TestNilRequestsAreInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := userContext("1")

	_, err := svc.StartSession(ctx, nil)
	assertStatus(t, err, codes.InvalidArgument)
	_, err = svc.EndSession(ctx, nil)
	assertStatus(t, err, codes.InvalidArgument)
	_, err = svc.GetDetails(ctx, nil)
	assertStatus(t, err, codes.InvalidArgument)
}

func TestMissingIdentityIsUnauthenticated(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.StartSession(context.Background(), &interviewv1.StartSessionRequest{RoleLabel: "Backend Engineer"})
	assertStatus(t, err, codes.Unauthenticated)
	_, err = svc.ListHistory(context.Background(), &interviewv1.ListHistoryRequest{})
	assertStatus(t, err, codes.Unauthenticated)
}

func TestUnconfiguredServiceIsInternal(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.StartSession(userContext("1"), &interviewv1.StartSessionRequest{RoleLabel: "Backend Engineer"})
	assertStatus(t, err, codes.Internal)
}

func TestSessionLifecycleOverService(t *testing.T) {
	svc := newTestService(t)
	ctx := userContext("1")

	started, err := svc.StartSession(ctx, &interviewv1.StartSessionRequest{RoleLabel: "Backend Engineer"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if started.SessionID == 0 || started.Session.Status != "ongoing" {
		t.Fatalf("start response = %+v", started)
	}

	q, err := svc.GenerateQuestion(ctx, &interviewv1.GenerateQuestionRequest{SessionID: started.SessionID, SequenceNumber: 1})
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	if want := questions.Fallback("Backend Engineer", 1); q.QuestionText != want {
		t.Fatalf("question = %q, want fallback %q", q.QuestionText, want)
	}
	if _, err := svc.SubmitAnswer(ctx, &interviewv1.SubmitAnswerRequest{QuestionID: q.QuestionID, Text: "Go and SQL"}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	for _, label := range []string{"happy", "happy", "happy", "neutral"} {
		if _, err := svc.RecordEmotion(ctx, &interviewv1.RecordEmotionRequest{SessionID: started.SessionID, Label: label, Confidence: 0.8}); err != nil {
			t.Fatalf("record emotion: %v", err)
		}
	}
	if _, err := svc.RecordPosture(ctx, &interviewv1.RecordPostureRequest{SessionID: started.SessionID, Label: "Average"}); err != nil {
		t.Fatalf("record posture: %v", err)
	}

	// Frame detection without a classifier reports no_face.
	detected, err := svc.DetectEmotion(ctx, &interviewv1.DetectEmotionRequest{SessionID: started.SessionID, Frame: []byte("frame")})
	if err != nil {
		t.Fatalf("detect emotion: %v", err)
	}
	if detected.Label != "no_face" || detected.Confidence != 0 {
		t.Fatalf("detect response = %+v", detected)
	}

	ended, err := svc.EndSession(ctx, &interviewv1.EndSessionRequest{SessionID: started.SessionID})
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if ended.OverallEmotion != "happy" || ended.OverallPosture != "Average" {
		t.Fatalf("end response = %+v", ended)
	}

	details, err := svc.GetDetails(ctx, &interviewv1.GetDetailsRequest{SessionID: started.SessionID})
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if details.Details.Session.Status != "completed" || details.Details.Session.EndedAt == nil {
		t.Fatalf("details session = %+v", details.Details.Session)
	}
	if len(details.Details.QAPairs) != 1 || details.Details.QAPairs[0].Answer != "Go and SQL" {
		t.Fatalf("qa pairs = %+v", details.Details.QAPairs)
	}
	if len(details.Details.EmotionTimeline) != 4 {
		t.Fatalf("timeline len = %d, want 4", len(details.Details.EmotionTimeline))
	}
	if details.Details.PostureSummary.Average != 1 {
		t.Fatalf("posture summary = %+v", details.Details.PostureSummary)
	}

	history, err := svc.ListHistory(ctx, &interviewv1.ListHistoryRequest{})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history.Sessions) != 1 || history.Sessions[0].ID != started.SessionID {
		t.Fatalf("history = %+v", history.Sessions)
	}

	_, err = svc.RecordPosture(ctx, &interviewv1.RecordPostureRequest{SessionID: started.SessionID, Label: "Good"})
	assertStatus(t, err, codes.FailedPrecondition)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	svc := newTestService(t)
	owner := userContext("1")
	started, err := svc.StartSession(owner, &interviewv1.StartSessionRequest{RoleLabel: "Backend Engineer"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, err = svc.StartSession(owner, &interviewv1.StartSessionRequest{RoleLabel: " "})
	assertStatus(t, err, codes.InvalidArgument)
	_, err = svc.GetDetails(userContext("2"), &interviewv1.GetDetailsRequest{SessionID: started.SessionID})
	assertStatus(t, err, codes.PermissionDenied)
	_, err = svc.GetDetails(owner, &interviewv1.GetDetailsRequest{SessionID: started.SessionID + 99})
	assertStatus(t, err, codes.NotFound)
	_, err = svc.ListHistory(owner, &interviewv1.ListHistoryRequest{PageToken: "%%%"})
	assertStatus(t, err, codes.InvalidArgument)
	_, err = svc.GenerateQuestion(owner, &interviewv1.GenerateQuestionRequest{SessionID: started.SessionID})
	assertStatus(t, err, codes.InvalidArgument)
}
