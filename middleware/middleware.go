// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/vote-for-me/auth"
	"github.com/danielhkuo/vote-for-me/linkcodec"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/models"
	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/store"
)

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		next(w, r)

		duration := time.Since(start)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// WriteDomainError maps a core error to its HTTP status. Validation errors
// surface verbatim; token failures stay deliberately vague.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrSessionNotFound):
		ErrorResponse(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrInvalidStateTransition):
		ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnknownParticipant),
		errors.Is(err, session.ErrUnknownItem),
		errors.Is(err, session.ErrNegativeAllocation),
		errors.Is(err, session.ErrBudgetExceeded),
		errors.Is(err, session.ErrNoItems):
		ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, linkcodec.ErrInvalidToken):
		ErrorResponse(w, http.StatusBadRequest, "Invalid or expired voting link")
	case errors.Is(err, manager.ErrOperationTimedOut):
		ErrorResponse(w, http.StatusServiceUnavailable, "Operation timed out, please retry")
	case errors.Is(err, store.ErrPersistence):
		slog.Error("persistence error", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "Storage error")
	default:
		slog.Error("unhandled error", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

type actorCtxKey int

const actorKey actorCtxKey = 1

// RequireAdmin rejects requests without a valid admin bearer token and
// attaches the verified claims to the request context.
func RequireAdmin(admin *auth.Admin, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ErrorResponse(w, http.StatusUnauthorized, "Bearer token required")
			return
		}
		claims, err := admin.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid auth token")
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// ActorFromContext returns the authenticated admin claims, if any.
func ActorFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(actorKey).(*auth.Claims)
	return claims, ok
}

// CORS middleware allows cross-origin requests from the frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
