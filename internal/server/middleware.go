package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-Id when present, and echoes it in the response.
func RequestIDMiddleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			id := tr.RequestHeader().Get(requestIDHeader)
			if id == "" {
				v7, err := uuid.NewV7()
				if err != nil {
					return handler(ctx, req)
				}
				id = v7.String()
			}
			tr.ReplyHeader().Set(requestIDHeader, id)

			return handler(context.WithValue(ctx, requestIDKey{}, id), req)
		}
	}
}

// RequestIDFromContext returns the id set by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID is a log valuer for the current request id.
func RequestID() log.Valuer {
	return func(ctx context.Context) interface{} {
		return RequestIDFromContext(ctx)
	}
}
