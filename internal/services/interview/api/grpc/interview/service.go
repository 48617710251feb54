// Package interview exposes interview.v1 gRPC operations over the session
// coordinator.
package interview

import (
	"context"

	interviewv1 "github.com/louisbranch/mockinterview/api/interview/v1"
	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
	"github.com/louisbranch/mockinterview/internal/platform/requestctx"
	"github.com/louisbranch/mockinterview/internal/services/interview/coordinator"
	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/transcript"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service implements interview.v1.InterviewService.
type Service struct {
	interviewv1.UnimplementedInterviewServiceServer
	coordinator *coordinator.Coordinator
}

// NewService creates an interview service backed by c.
func NewService(c *coordinator.Coordinator) *Service {
	return &Service{coordinator: c}
}

// caller returns the authenticated user id placed in ctx by the auth
// interceptor.
func (s *Service) caller(ctx context.Context) (string, error) {
	if s == nil || s.coordinator == nil {
		return "", status.Error(codes.Internal, "interview coordinator is not configured")
	}
	userID := requestctx.UserIDFromContext(ctx)
	if userID == "" {
		return "", status.Error(codes.Unauthenticated, "caller identity is required")
	}
	return userID, nil
}

// StartSession opens a new ongoing session for the caller.
func (s *Service) StartSession(ctx context.Context, in *interviewv1.StartSessionRequest) (*interviewv1.StartSessionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "start session request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	created, err := s.coordinator.StartSession(ctx, userID, in.RoleLabel)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.StartSessionResponse{
		SessionID: created.ID,
		Session:   sessionToWire(created),
	}, nil
}

// GenerateQuestion stores and returns the next question of a session.
func (s *Service) GenerateQuestion(ctx context.Context, in *interviewv1.GenerateQuestionRequest) (*interviewv1.GenerateQuestionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "generate question request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.coordinator.GenerateQuestion(ctx, userID, in.SessionID, in.RoleLabel, int(in.SequenceNumber))
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.GenerateQuestionResponse{
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		SequenceNumber: int32(q.SequenceNumber),
	}, nil
}

// SubmitAnswer records an answer to a question.
func (s *Service) SubmitAnswer(ctx context.Context, in *interviewv1.SubmitAnswerRequest) (*interviewv1.SubmitAnswerResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "submit answer request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.coordinator.SubmitAnswer(ctx, userID, in.QuestionID, in.Text)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.SubmitAnswerResponse{OK: true, AnswerID: a.ID}, nil
}

// RecordEmotion appends an emotion sample classified by the caller.
func (s *Service) RecordEmotion(ctx context.Context, in *interviewv1.RecordEmotionRequest) (*interviewv1.RecordEmotionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "record emotion request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.coordinator.RecordEmotion(ctx, userID, in.SessionID, in.Label, in.Confidence); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.RecordEmotionResponse{OK: true}, nil
}

// DetectEmotion classifies a camera frame and records the result.
func (s *Service) DetectEmotion(ctx context.Context, in *interviewv1.DetectEmotionRequest) (*interviewv1.DetectEmotionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "detect emotion request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.coordinator.DetectEmotion(ctx, userID, in.SessionID, in.Frame)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.DetectEmotionResponse{
		Label:      result.Label,
		Confidence: result.Confidence,
	}, nil
}

// RecordPosture appends a posture sample.
func (s *Service) RecordPosture(ctx context.Context, in *interviewv1.RecordPostureRequest) (*interviewv1.RecordPostureResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "record posture request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.coordinator.RecordPosture(ctx, userID, in.SessionID, in.Label); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.RecordPostureResponse{OK: true}, nil
}

// EndSession completes a session and returns its summary.
func (s *Service) EndSession(ctx context.Context, in *interviewv1.EndSessionRequest) (*interviewv1.EndSessionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "end session request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.coordinator.EndSession(ctx, userID, in.SessionID)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.EndSessionResponse{
		OverallEmotion:  summary.OverallEmotion,
		OverallPosture:  summary.OverallPosture,
		DurationMinutes: summary.DurationMinutes,
	}, nil
}

// ListHistory returns the caller's completed sessions, newest first.
func (s *Service) ListHistory(ctx context.Context, in *interviewv1.ListHistoryRequest) (*interviewv1.ListHistoryResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list history request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.coordinator.ListHistory(ctx, userID, coordinator.HistoryRequest{
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
		Filter:    in.Filter,
	})
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	resp := &interviewv1.ListHistoryResponse{
		Sessions:      make([]*interviewv1.Session, 0, len(page.Sessions)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Sessions {
		resp.Sessions = append(resp.Sessions, sessionToWire(record))
	}
	return resp, nil
}

// GetDetails returns the transcript, emotion timeline and posture summary
// of one session.
func (s *Service) GetDetails(ctx context.Context, in *interviewv1.GetDetailsRequest) (*interviewv1.GetDetailsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get details request is required")
	}
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	details, err := s.coordinator.GetDetails(ctx, userID, in.SessionID)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &interviewv1.GetDetailsResponse{Details: detailsToWire(details)}, nil
}

func sessionToWire(s session.Session) *interviewv1.Session {
	out := &interviewv1.Session{
		ID:             s.ID,
		RoleLabel:      s.RoleLabel,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt,
		OverallEmotion: s.OverallEmotion,
		OverallPosture: s.OverallPosture,
	}
	if summary, ok := s.Summary(); ok {
		endedAt := s.EndedAt
		out.EndedAt = &endedAt
		out.DurationMinutes = summary.DurationMinutes
	}
	return out
}

func pairToWire(p transcript.Pair) *interviewv1.QAPair {
	return &interviewv1.QAPair{
		QuestionID: p.QuestionID,
		Question:   p.Question,
		Answer:     p.Answer,
		AskedAt:    p.AskedAt,
	}
}

func emotionToWire(e observation.Emotion) *interviewv1.EmotionSample {
	return &interviewv1.EmotionSample{
		Label:      e.Label,
		Confidence: e.Confidence,
		ObservedAt: e.ObservedAt,
	}
}

func detailsToWire(d coordinator.Details) *interviewv1.SessionDetails {
	out := &interviewv1.SessionDetails{
		Session:         sessionToWire(d.Session),
		QAPairs:         make([]*interviewv1.QAPair, 0, len(d.QAPairs)),
		EmotionTimeline: make([]*interviewv1.EmotionSample, 0, len(d.EmotionTimeline)),
		PostureSummary: &interviewv1.PostureSummary{
			Good:    d.PostureSummary.GoodCount,
			Average: d.PostureSummary.AverageCount,
			Poor:    d.PostureSummary.PoorCount,
		},
	}
	for _, p := range d.QAPairs {
		out.QAPairs = append(out.QAPairs, pairToWire(p))
	}
	for _, e := range d.EmotionTimeline {
		out.EmotionTimeline = append(out.EmotionTimeline, emotionToWire(e))
	}
	return out
}
