package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	grpcmeta "github.com/louisbranch/mockinterview/internal/platform/grpc/metadata"
	"github.com/louisbranch/mockinterview/internal/platform/requestctx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

var (
	// ErrMissingCredentials reports a call without identity metadata.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials reports identity metadata that failed validation.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authenticator resolves the calling user from incoming call metadata.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// HeaderAuthenticator trusts the user id header. It is meant for local
// deployments behind a trusted gateway.
type HeaderAuthenticator struct{}

// Authenticate returns the value of the user id header.
func (HeaderAuthenticator) Authenticate(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ErrMissingCredentials
	}
	values := md.Get(grpcmeta.UserIDHeader)
	if len(values) == 0 {
		return "", ErrMissingCredentials
	}
	userID := strings.TrimSpace(values[0])
	if userID == "" {
		return "", ErrMissingCredentials
	}
	if !grpcmeta.IsPrintableASCII(userID) {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}

// JWTAuthenticator validates an HS256 bearer token and uses its subject as
// the user id.
type JWTAuthenticator struct {
	key []byte
}

// NewJWTAuthenticator returns an authenticator for tokens signed with key.
func NewJWTAuthenticator(key []byte) (*JWTAuthenticator, error) {
	if len(key) == 0 {
		return nil, errors.New("jwt signing key is required")
	}
	return &JWTAuthenticator{key: key}, nil
}

// Authenticate parses the authorization header and validates the token.
func (a *JWTAuthenticator) Authenticate(ctx context.Context) (string, error) {
	raw := strings.TrimSpace(grpcmeta.IncomingValue(ctx, grpcmeta.AuthorizationHeader))
	if raw == "" {
		return "", ErrMissingCredentials
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: authorization must be a bearer token", ErrInvalidCredentials)
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: token subject is required", ErrInvalidCredentials)
	}
	return subject, nil
}

// UnaryAuthInterceptor authenticates every call except health checks and
// stores the caller in context.
func UnaryAuthInterceptor(auth Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if info != nil && strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}
		if auth == nil {
			return nil, status.Error(codes.Unauthenticated, "authentication is not configured")
		}
		userID, err := auth.Authenticate(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "caller identity is required")
		}
		return handler(requestctx.WithUserID(ctx, userID), req)
	}
}
