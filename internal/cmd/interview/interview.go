// Package interview parses interview service flags and launches the service.
package interview

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/mockinterview/internal/platform/cmd"
	server "github.com/louisbranch/mockinterview/internal/services/interview/app"
)

// Config holds interview command configuration.
type Config struct {
	Port int `env:"INTERVIEW_PORT" envDefault:"8095"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The interview gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the interview gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceInterview, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
