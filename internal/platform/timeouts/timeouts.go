// Package timeouts defines shared timeout constants used across the
// interview service and its clients.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// QuestionGeneration bounds one call to the question-generation model. When
// it elapses the coordinator substitutes a fallback question.
const QuestionGeneration = 30 * time.Second

// FrameClassification bounds one call to the emotion classifier.
const FrameClassification = 10 * time.Second

// TelemetryShutdown limits how long span export may take on process exit.
const TelemetryShutdown = 5 * time.Second
