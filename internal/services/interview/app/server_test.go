package server

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	interviewv1 "github.com/louisbranch/mockinterview/api/interview/v1"
	platformgrpc "github.com/louisbranch/mockinterview/internal/platform/grpc"
	grpcmeta "github.com/louisbranch/mockinterview/internal/platform/grpc/metadata"
	"github.com/louisbranch/mockinterview/internal/services/interview/questions"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func startTestServer(t *testing.T) interviewv1.InterviewServiceClient {
	t.Helper()
	t.Setenv("MOCKINTERVIEW_INTERVIEW_DB_PATH", t.TempDir()+"/interview.db")
	t.Setenv("MOCKINTERVIEW_LLM_BASE_URL", "http://127.0.0.1:1/v1")
	t.Setenv("MOCKINTERVIEW_QUESTION_TIMEOUT", "200ms")

	srv, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	conn, err := platformgrpc.DialWithHealth(context.Background(), srv.Addr(), 5*time.Second, t.Logf)
	if err != nil {
		t.Fatalf("dial interview server: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close gRPC connection: %v", closeErr)
		}
	})
	return interviewv1.NewInterviewServiceClient(conn)
}

func asUser(userID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), grpcmeta.UserIDHeader, userID)
}

func TestServer_SessionRoundTripOverJSON(t *testing.T) {
	client := startTestServer(t)
	ctx := asUser("1")

	var header metadata.MD
	started, err := client.StartSession(ctx, &interviewv1.StartSessionRequest{RoleLabel: "Backend Engineer"}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader) == "" {
		t.Fatal("expected request id response header")
	}

	q, err := client.GenerateQuestion(ctx, &interviewv1.GenerateQuestionRequest{SessionID: started.SessionID, SequenceNumber: 3})
	if err != nil {
		t.Fatalf("generate question: %v", err)
	}
	if want := questions.Fallback("Backend Engineer", 3); q.QuestionText != want {
		t.Fatalf("question = %q, want fallback %q", q.QuestionText, want)
	}
	if _, err := client.SubmitAnswer(ctx, &interviewv1.SubmitAnswerRequest{QuestionID: q.QuestionID, Text: "Queues"}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	for _, label := range []string{"happy", "happy", "happy", "neutral"} {
		if _, err := client.RecordEmotion(ctx, &interviewv1.RecordEmotionRequest{SessionID: started.SessionID, Label: label, Confidence: 0.75}); err != nil {
			t.Fatalf("record emotion: %v", err)
		}
	}

	ended, err := client.EndSession(ctx, &interviewv1.EndSessionRequest{SessionID: started.SessionID})
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if ended.OverallEmotion != "happy" || ended.OverallPosture != "Good" {
		t.Fatalf("end response = %+v", ended)
	}

	details, err := client.GetDetails(ctx, &interviewv1.GetDetailsRequest{SessionID: started.SessionID})
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if got := len(details.Details.QAPairs); got != 1 {
		t.Fatalf("qa pairs = %d, want 1", got)
	}
	if got := details.Details.QAPairs[0].Answer; got != "Queues" {
		t.Fatalf("answer = %q, want Queues", got)
	}

	history, err := client.ListHistory(ctx, &interviewv1.ListHistoryRequest{PageSize: 5})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history.Sessions) != 1 || history.Sessions[0].ID != started.SessionID {
		t.Fatalf("history = %+v", history.Sessions)
	}

	_, err = client.GetDetails(asUser("2"), &interviewv1.GetDetailsRequest{SessionID: started.SessionID})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.PermissionDenied)
	}
	_, err = client.RecordPosture(ctx, &interviewv1.RecordPostureRequest{SessionID: started.SessionID, Label: "Good"})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.FailedPrecondition)
	}
}

func TestServer_RejectsAnonymousCalls(t *testing.T) {
	client := startTestServer(t)
	_, err := client.StartSession(context.Background(), &interviewv1.StartSessionRequest{RoleLabel: "Backend Engineer"})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Unauthenticated)
	}
}

func TestServer_BearerTokensWhenKeyConfigured(t *testing.T) {
	key := "test-hmac-key-test-hmac-key-1234"
	t.Setenv("MOCKINTERVIEW_AUTH_HMAC_KEY", key)
	client := startTestServer(t)

	// The user id header is ignored once tokens are required.
	_, err := client.StartSession(asUser("1"), &interviewv1.StartSessionRequest{RoleLabel: "Designer"})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Unauthenticated)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "9"}).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	ctx := metadata.AppendToOutgoingContext(context.Background(), grpcmeta.AuthorizationHeader, "Bearer "+token)
	started, err := client.StartSession(ctx, &interviewv1.StartSessionRequest{RoleLabel: "Designer"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if started.Session == nil || started.Session.RoleLabel != "Designer" {
		t.Fatalf("start response = %+v", started)
	}
}
