// Package metadata defines the request headers shared by interview clients
// and the server interceptor that stamps every call with a correlation id.
package metadata

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/louisbranch/mockinterview/internal/platform/requestctx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader is the gRPC metadata key for request correlation IDs.
const RequestIDHeader = "x-mockinterview-request-id"

// UserIDHeader is the gRPC metadata key for a caller identity asserted by a
// trusted front end. It is only honoured when token auth is disabled.
const UserIDHeader = "x-mockinterview-user-id"

// AuthorizationHeader carries "Bearer <token>" credentials.
const AuthorizationHeader = "authorization"

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// IncomingValue reads header from the incoming metadata of ctx.
func IncomingValue(ctx context.Context, header string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstMetadataValue(md, header)
}

// UnaryServerInterceptor ensures every unary call carries a request ID in
// context and echoes it back as a response header.
func UnaryServerInterceptor(idGenerator func() string) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := IncomingValue(ctx, RequestIDHeader)
		if requestID == "" {
			requestID = idGenerator()
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}
