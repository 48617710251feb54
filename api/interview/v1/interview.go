// Package interviewv1 defines the interview.v1 wire contract. Messages are
// plain JSON structs carried by the json gRPC codec.
package interviewv1

import "time"

// Session is one interview session as seen by its owner.
type Session struct {
	ID             int64      `json:"id"`
	RoleLabel      string     `json:"role_label"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	OverallEmotion string     `json:"overall_emotion,omitempty"`
	OverallPosture string     `json:"overall_posture,omitempty"`
	// DurationMinutes is zero until the session is completed.
	DurationMinutes int64 `json:"duration_minutes"`
}

type StartSessionRequest struct {
	RoleLabel string `json:"role_label"`
}

type StartSessionResponse struct {
	SessionID int64    `json:"session_id"`
	Session   *Session `json:"session,omitempty"`
}

type GenerateQuestionRequest struct {
	SessionID int64 `json:"session_id"`
	// RoleLabel defaults to the session's role when blank.
	RoleLabel      string `json:"role_label,omitempty"`
	SequenceNumber int32  `json:"sequence_number"`
}

type GenerateQuestionResponse struct {
	QuestionID     int64  `json:"question_id"`
	QuestionText   string `json:"question_text"`
	SequenceNumber int32  `json:"sequence_number"`
}

type SubmitAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
}

type SubmitAnswerResponse struct {
	OK       bool  `json:"ok"`
	AnswerID int64 `json:"answer_id"`
}

type RecordEmotionRequest struct {
	SessionID  int64   `json:"session_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type RecordEmotionResponse struct {
	OK bool `json:"ok"`
}

// DetectEmotionRequest carries one JPEG or PNG camera frame. Frame is
// base64 on the wire.
type DetectEmotionRequest struct {
	SessionID int64  `json:"session_id"`
	Frame     []byte `json:"frame"`
}

type DetectEmotionResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type RecordPostureRequest struct {
	SessionID int64  `json:"session_id"`
	Label     string `json:"label"`
}

type RecordPostureResponse struct {
	OK bool `json:"ok"`
}

type EndSessionRequest struct {
	SessionID int64 `json:"session_id"`
}

type EndSessionResponse struct {
	OverallEmotion  string `json:"overall_emotion"`
	OverallPosture  string `json:"overall_posture"`
	DurationMinutes int64  `json:"duration_minutes"`
}

// ListHistoryRequest pages through completed sessions. Filter is an
// AIP-160 expression over role_label, overall_emotion, overall_posture,
// started_at and ended_at.
type ListHistoryRequest struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

type ListHistoryResponse struct {
	Sessions      []*Session `json:"sessions"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

type GetDetailsRequest struct {
	SessionID int64 `json:"session_id"`
}

type QAPair struct {
	QuestionID int64     `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AskedAt    time.Time `json:"asked_at"`
}

type EmotionSample struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	ObservedAt time.Time `json:"observed_at"`
}

type PostureSummary struct {
	Good    int `json:"good"`
	Average int `json:"average"`
	Poor    int `json:"poor"`
}

type SessionDetails struct {
	Session         *Session         `json:"session"`
	QAPairs         []*QAPair        `json:"qa_pairs"`
	EmotionTimeline []*EmotionSample `json:"emotion_timeline"`
	PostureSummary  *PostureSummary  `json:"posture_summary"`
}

type GetDetailsResponse struct {
	Details *SessionDetails `json:"details"`
}
