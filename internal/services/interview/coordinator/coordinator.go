// Package coordinator runs interview sessions: it checks identity and
// session state, delegates writes to storage, and aggregates the summary
// when a session ends.
package coordinator

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
	"github.com/louisbranch/mockinterview/internal/platform/grpc/pagination"
	"github.com/louisbranch/mockinterview/internal/platform/requestctx"
	"github.com/louisbranch/mockinterview/internal/platform/timeouts"
	"github.com/louisbranch/mockinterview/internal/services/interview/aggregate"
	"github.com/louisbranch/mockinterview/internal/services/interview/historyfilter"
	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
	"github.com/louisbranch/mockinterview/internal/services/interview/questions"
	"github.com/louisbranch/mockinterview/internal/services/interview/session"
	"github.com/louisbranch/mockinterview/internal/services/interview/storage"
	"github.com/louisbranch/mockinterview/internal/services/interview/transcript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultHistoryPageSize = 10
	maxHistoryPageSize     = 50
)

// Config wires the coordinator's collaborators.
type Config struct {
	Store storage.Store
	// Questions may be nil; every question then comes from the fallback list.
	Questions       questions.Generator
	QuestionTimeout time.Duration
	// Classifier may be nil; frame detection then always reports no_face.
	Classifier        observation.FrameClassifier
	ClassifierTimeout time.Duration
	Clock             func() time.Time
}

// Coordinator orchestrates interview sessions. It keeps no session state of
// its own; every call reads and writes through the store.
type Coordinator struct {
	store             storage.Store
	questions         questions.Generator
	questionTimeout   time.Duration
	classifier        observation.FrameClassifier
	classifierTimeout time.Duration
	clock             func() time.Time
}

// New builds a coordinator from cfg.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if err := initMetrics(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		store:             cfg.Store,
		questions:         cfg.Questions,
		questionTimeout:   cfg.QuestionTimeout,
		classifier:        cfg.Classifier,
		classifierTimeout: cfg.ClassifierTimeout,
		clock:             cfg.Clock,
	}
	if c.questionTimeout <= 0 {
		c.questionTimeout = timeouts.QuestionGeneration
	}
	if c.classifierTimeout <= 0 {
		c.classifierTimeout = timeouts.FrameClassification
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c, nil
}

func (c *Coordinator) now() time.Time {
	return c.clock().UTC()
}

// StartSession opens an ongoing session for userID.
func (c *Coordinator) StartSession(ctx context.Context, userID, roleLabel string) (session.Session, error) {
	in, err := session.Start(userID, roleLabel, c.now())
	if err != nil {
		return session.Session{}, err
	}
	created, err := c.store.CreateSession(ctx, in)
	if err != nil {
		return session.Session{}, storageError(err, "create session", "session", 0)
	}
	addCounter(ctx, sessionsStarted)
	return created, nil
}

// ownedSession loads a session and checks that userID owns it. A missing
// session is NotFound regardless of caller.
func (c *Coordinator) ownedSession(ctx context.Context, userID string, sessionID int64) (session.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return session.Session{}, apperrors.New(apperrors.CodeAccessDenied, "caller identity is required")
	}
	s, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, storageError(err, "get session", "session", sessionID)
	}
	if !s.OwnedBy(userID) {
		return session.Session{}, apperrors.WithMetadata(apperrors.CodeAccessDenied, "session belongs to another user", map[string]string{
			"session_id": strconv.FormatInt(sessionID, 10),
		})
	}
	return s, nil
}

// writableSession is ownedSession plus the completed-session guard.
func (c *Coordinator) writableSession(ctx context.Context, userID string, sessionID int64) (session.Session, error) {
	s, err := c.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.EnsureWritable(); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// GenerateQuestion asks the model for the next question and stores it. Model
// failures never surface; the fallback list answers instead. A blank
// roleLabel uses the session's role.
func (c *Coordinator) GenerateQuestion(ctx context.Context, userID string, sessionID int64, roleLabel string, sequenceNumber int) (transcript.Question, error) {
	ctx, span := tracer().Start(ctx, "interview.GenerateQuestion", trace.WithAttributes(
		attribute.Int64("interview.session_id", sessionID),
		attribute.Int("interview.sequence_number", sequenceNumber),
	))
	defer span.End()

	if err := transcript.ValidateSequenceNumber(sequenceNumber); err != nil {
		return transcript.Question{}, err
	}
	s, err := c.writableSession(ctx, userID, sessionID)
	if err != nil {
		return transcript.Question{}, err
	}
	roleLabel = strings.TrimSpace(roleLabel)
	if roleLabel == "" {
		roleLabel = s.RoleLabel
	}

	result := questions.Ask(ctx, c.questions, roleLabel, sequenceNumber, c.questionTimeout)
	if result.Fallback {
		addCounter(ctx, questionFallbacks)
		span.SetAttributes(attribute.Bool("interview.question_fallback", true))
		cause := apperrors.Wrap(apperrors.CodeExternalServiceUnavailable, "generate question", result.Cause)
		log.Printf("session %d question %d: using fallback question request_id=%s: %v", sessionID, sequenceNumber, requestctx.RequestIDFromContext(ctx), cause)
	}

	q, err := transcript.NewQuestion(sessionID, result.Text, sequenceNumber, c.now())
	if err != nil {
		return transcript.Question{}, err
	}
	stored, err := c.store.AddQuestion(ctx, q)
	if err != nil {
		err = storageError(err, "add question", "session", sessionID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "add question")
		return transcript.Question{}, err
	}
	return stored, nil
}

// SubmitAnswer stores an answer. Blank text is stored as "No response".
func (c *Coordinator) SubmitAnswer(ctx context.Context, userID string, questionID int64, text string) (transcript.Answer, error) {
	q, err := c.store.GetQuestion(ctx, questionID)
	if err != nil {
		return transcript.Answer{}, storageError(err, "get question", "question", questionID)
	}
	if _, err := c.writableSession(ctx, userID, q.SessionID); err != nil {
		return transcript.Answer{}, err
	}
	stored, err := c.store.AddAnswer(ctx, transcript.Answer{
		QuestionID: questionID,
		Text:       transcript.NormalizeAnswer(text),
		AnsweredAt: c.now(),
	})
	if err != nil {
		return transcript.Answer{}, storageError(err, "add answer", "question", questionID)
	}
	return stored, nil
}

// RecordEmotion appends a caller-classified emotion sample.
func (c *Coordinator) RecordEmotion(ctx context.Context, userID string, sessionID int64, label string, confidence float64) (observation.Emotion, error) {
	e, err := observation.NewEmotion(sessionID, label, confidence, c.now())
	if err != nil {
		return observation.Emotion{}, err
	}
	if _, err := c.writableSession(ctx, userID, sessionID); err != nil {
		return observation.Emotion{}, err
	}
	stored, err := c.store.RecordEmotion(ctx, e)
	if err != nil {
		return observation.Emotion{}, storageError(err, "record emotion", "session", sessionID)
	}
	addCounter(ctx, observationsRecorded, attribute.String("kind", "emotion"))
	return stored, nil
}

// DetectEmotion classifies a camera frame and records the result. Decode or
// classifier failures return the no_face sentinel and record nothing.
// Session errors still surface.
func (c *Coordinator) DetectEmotion(ctx context.Context, userID string, sessionID int64, frame []byte) (observation.Classification, error) {
	if _, err := c.writableSession(ctx, userID, sessionID); err != nil {
		return observation.Classification{}, err
	}
	result, err := c.classify(ctx, frame)
	if err != nil {
		log.Printf("session %d: frame classification failed, reporting %s request_id=%s: %v", sessionID, observation.NoFaceLabel, requestctx.RequestIDFromContext(ctx), err)
		return observation.NoFace(), nil
	}
	if _, err := c.RecordEmotion(ctx, userID, sessionID, result.Label, result.Confidence); err != nil {
		if apperrors.IsCode(err, apperrors.CodeInvalidInput) {
			return observation.NoFace(), nil
		}
		return observation.Classification{}, err
	}
	return result, nil
}

func (c *Coordinator) classify(ctx context.Context, frame []byte) (observation.Classification, error) {
	if c.classifier == nil {
		return observation.Classification{}, errors.New("frame classifier is not configured")
	}
	prepared, err := observation.PrepareFrame(frame)
	if err != nil {
		return observation.Classification{}, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.classifierTimeout)
	defer cancel()
	return c.classifier.Classify(callCtx, prepared)
}

// RecordPosture appends a posture sample.
func (c *Coordinator) RecordPosture(ctx context.Context, userID string, sessionID int64, label string) (observation.Posture, error) {
	p, err := observation.NewPosture(sessionID, label, c.now())
	if err != nil {
		return observation.Posture{}, err
	}
	if _, err := c.writableSession(ctx, userID, sessionID); err != nil {
		return observation.Posture{}, err
	}
	stored, err := c.store.RecordPosture(ctx, p)
	if err != nil {
		return observation.Posture{}, storageError(err, "record posture", "session", sessionID)
	}
	addCounter(ctx, observationsRecorded, attribute.String("kind", "posture"))
	return stored, nil
}

// EndSession completes the session and returns its summary. Ending a
// completed session returns the frozen summary unchanged.
func (c *Coordinator) EndSession(ctx context.Context, userID string, sessionID int64) (aggregate.Summary, error) {
	ctx, span := tracer().Start(ctx, "interview.EndSession", trace.WithAttributes(
		attribute.Int64("interview.session_id", sessionID),
	))
	defer span.End()

	s, err := c.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return aggregate.Summary{}, err
	}
	if summary, ok := s.Summary(); ok {
		span.SetAttributes(attribute.Bool("interview.already_completed", true))
		return summary, nil
	}

	done, err := c.store.EndSession(ctx, sessionID, c.now(), aggregate.Summarize)
	if err != nil {
		err = storageError(err, "end session", "session", sessionID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "end session")
		return aggregate.Summary{}, err
	}
	summary, ok := done.Summary()
	if !ok {
		return aggregate.Summary{}, apperrors.New(apperrors.CodeStorageFailure, "session did not complete")
	}
	addCounter(ctx, sessionsCompleted)
	span.SetAttributes(
		attribute.String("interview.overall_emotion", summary.OverallEmotion),
		attribute.String("interview.overall_posture", summary.OverallPosture),
	)
	return summary, nil
}

// HistoryRequest selects a page of completed sessions.
type HistoryRequest struct {
	PageSize  int32
	PageToken string
	Filter    string
}

// ListHistory returns userID's completed sessions, newest first.
func (c *Coordinator) ListHistory(ctx context.Context, userID string, req HistoryRequest) (storage.HistoryPage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.HistoryPage{}, apperrors.New(apperrors.CodeAccessDenied, "caller identity is required")
	}
	cond, err := historyfilter.Parse(req.Filter)
	if err != nil {
		return storage.HistoryPage{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, err.Error(), map[string]string{"field": "filter"})
	}
	pageSize := pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{
		Default: defaultHistoryPageSize,
		Max:     maxHistoryPageSize,
	})
	page, err := c.store.ListHistory(ctx, storage.HistoryQuery{
		OwnerID:   userID,
		PageSize:  pageSize,
		PageToken: req.PageToken,
		Filter:    cond,
	})
	if err != nil {
		return storage.HistoryPage{}, storageError(err, "list history", "history", 0)
	}
	return page, nil
}

// Details is the read model of one session.
type Details struct {
	Session session.Session
	// DurationMinutes is set only for completed sessions.
	DurationMinutes int64
	QAPairs         []transcript.Pair
	EmotionTimeline []observation.Emotion
	PostureSummary  aggregate.PostureSummary
}

// GetDetails composes the transcript, emotion timeline and posture
// distribution of a session owned by userID.
func (c *Coordinator) GetDetails(ctx context.Context, userID string, sessionID int64) (Details, error) {
	s, err := c.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return Details{}, err
	}
	details := Details{Session: s}
	if summary, ok := s.Summary(); ok {
		details.DurationMinutes = summary.DurationMinutes
	}

	if details.QAPairs, err = c.store.QAPairs(ctx, sessionID); err != nil {
		return Details{}, storageError(err, "list qa pairs", "session", sessionID)
	}
	details.EmotionTimeline = make([]observation.Emotion, 0)
	for e, err := range c.store.ListEmotions(ctx, sessionID) {
		if err != nil {
			return Details{}, storageError(err, "list emotions", "session", sessionID)
		}
		details.EmotionTimeline = append(details.EmotionTimeline, e)
	}
	counts, err := c.store.PostureCounts(ctx, sessionID)
	if err != nil {
		return Details{}, storageError(err, "posture counts", "session", sessionID)
	}
	details.PostureSummary = aggregate.SummarizePosture(counts)
	return details, nil
}
