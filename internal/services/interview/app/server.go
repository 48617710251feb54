// Package server wires the interview runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	interviewv1 "github.com/louisbranch/mockinterview/api/interview/v1"
	"github.com/louisbranch/mockinterview/internal/platform/config"
	grpcmeta "github.com/louisbranch/mockinterview/internal/platform/grpc/metadata"
	interviewservice "github.com/louisbranch/mockinterview/internal/services/interview/api/grpc/interview"
	"github.com/louisbranch/mockinterview/internal/services/interview/coordinator"
	"github.com/louisbranch/mockinterview/internal/services/interview/observation"
	"github.com/louisbranch/mockinterview/internal/services/interview/questions"
	interviewsqlite "github.com/louisbranch/mockinterview/internal/services/interview/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type serverEnv struct {
	DBPath          string        `env:"INTERVIEW_DB_PATH"`
	LLMBaseURL      string        `env:"LLM_BASE_URL" envDefault:"http://localhost:11434/v1"`
	LLMModel        string        `env:"LLM_MODEL" envDefault:"llama2"`
	LLMAPIKey       string        `env:"LLM_API_KEY" envDefault:"ollama"`
	QuestionTimeout time.Duration `env:"QUESTION_TIMEOUT" envDefault:"30s"`
	ClassifierURL   string        `env:"CLASSIFIER_URL"`
	AuthHMACKey     string        `env:"AUTH_HMAC_KEY"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		log.Printf("interview env: %v", err)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "interview.db")
	}
	return cfg
}

// Server hosts the interview gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *interviewsqlite.Store
}

// New creates a configured interview server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured interview server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	store, err := openInterviewStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	sessions, err := coordinator.New(coordinator.Config{
		Store: store,
		Questions: questions.NewOpenAIGenerator(questions.OpenAIConfig{
			BaseURL: env.LLMBaseURL,
			Model:   env.LLMModel,
			APIKey:  env.LLMAPIKey,
		}),
		QuestionTimeout: env.QuestionTimeout,
		Classifier:      newClassifier(env.ClassifierURL),
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("create interview coordinator: %w", err)
	}
	auth, err := newAuthenticator(env.AuthHMACKey)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			interviewservice.UnaryAuthInterceptor(auth),
		),
	)
	apiService := interviewservice.NewService(sessions)
	healthServer := health.NewServer()
	interviewv1.RegisterInterviewServiceServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(interviewv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
	}, nil
}

func newClassifier(url string) observation.FrameClassifier {
	url = strings.TrimSpace(url)
	if url == "" {
		log.Printf("no emotion classifier configured; frame detection reports %s", observation.NoFaceLabel)
		return nil
	}
	return observation.NewHTTPClassifier(observation.HTTPClassifierConfig{URL: url})
}

func newAuthenticator(hmacKey string) (interviewservice.Authenticator, error) {
	hmacKey = strings.TrimSpace(hmacKey)
	if hmacKey == "" {
		log.Printf("no auth key configured; trusting %s metadata", grpcmeta.UserIDHeader)
		return interviewservice.HeaderAuthenticator{}, nil
	}
	auth, err := interviewservice.NewJWTAuthenticator([]byte(hmacKey))
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}
	return auth, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves an interview server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("interview server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		return serveResult(<-serveErr)
	case err := <-serveErr:
		return serveResult(err)
	}
}

func serveResult(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Close releases interview server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close interview store: %v", err)
		}
	}
}

func openInterviewStore(path string) (*interviewsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := interviewsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interview sqlite store: %w", err)
	}
	return store, nil
}
