package observation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// FrameClassifier labels the dominant emotion in a prepared frame.
type FrameClassifier interface {
	Classify(ctx context.Context, frame []byte) (Classification, error)
}

// FrameClassifierFunc adapts a function to FrameClassifier.
type FrameClassifierFunc func(ctx context.Context, frame []byte) (Classification, error)

// Classify calls f.
func (f FrameClassifierFunc) Classify(ctx context.Context, frame []byte) (Classification, error) {
	return f(ctx, frame)
}

// HTTPClassifierConfig configures the remote emotion classifier.
type HTTPClassifierConfig struct {
	URL        string
	HTTPClient *http.Client
}

type httpClassifier struct {
	cfg HTTPClassifierConfig
}

// NewHTTPClassifier builds a classifier that POSTs JPEG frames to cfg.URL.
// The endpoint answers with {"dominant_emotion": "...", "emotion": {...}}
// where emotion maps labels to scores.
func NewHTTPClassifier(cfg HTTPClassifierConfig) FrameClassifier {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &httpClassifier{cfg: cfg}
}

func (c *httpClassifier) Classify(ctx context.Context, frame []byte) (Classification, error) {
	endpoint := strings.TrimSpace(c.cfg.URL)
	if endpoint == "" {
		return Classification{}, fmt.Errorf("classifier url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(frame))
	if err != nil {
		return Classification{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("classify request failed: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Classification{}, fmt.Errorf("read classify response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Classification{}, fmt.Errorf("classify request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return Classification{}, fmt.Errorf("decode classify response: invalid json")
	}

	result := gjson.ParseBytes(body)
	// Some classifiers answer with one result per detected face.
	if result.IsArray() {
		result = result.Get("0")
	}
	label := strings.TrimSpace(result.Get("dominant_emotion").String())
	if label == "" {
		return Classification{}, fmt.Errorf("classify response missing dominant_emotion")
	}
	var confidence float64
	result.Get("emotion").ForEach(func(key, value gjson.Result) bool {
		if key.String() != label {
			return true
		}
		confidence = value.Float()
		return false
	})
	return Classification{Label: label, Confidence: confidence}, nil
}
