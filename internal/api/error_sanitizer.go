package api

import (
	"net/http"
	"strings"

	"github.com/ignite/reachpoint/internal/pkg/httputil"
	"github.com/ignite/reachpoint/internal/pkg/logger"
)

// respondSafeError logs the full internal error and sends a public-safe
// message. Storage paths, SQL and backend addresses never reach clients.
func respondSafeError(w http.ResponseWriter, status int, code string, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error("request failed", "status", status, "error", internalErr.Error())
	}
	httputil.ErrorCode(w, status, code, publicMsg)
}

// safeErrorMessage maps common internal error patterns to public-safe
// messages. 4xx messages describe user input and are returned as is.
func safeErrorMessage(status int, internalErr error) string {
	if status < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}
	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())
	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"
	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"
	case strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"
	case strings.Contains(errStr, "s3") ||
		strings.Contains(errStr, "dynamodb") ||
		strings.Contains(errStr, "redis"):
		return "A storage backend error occurred"
	default:
		return "An internal error occurred"
	}
}
