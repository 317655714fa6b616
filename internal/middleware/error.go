package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"sitebuilder/internal/logger"
)

// AppError represents a custom error type for the application. Message is
// the machine-readable error code sent on the wire; Details optionally
// carries per-field specifics such as document validation violations.
type AppError struct {
	Error   error
	Message string
	Code    int
	Details []string
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// errorResponse is the JSON body written for any failed request.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Error is a middleware that converts handler errors into JSON error
// responses and logs the underlying cause.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					writeError(w, &AppError{Message: "internal_error", Code: http.StatusInternalServerError})
				}
			}()

			err := next(w, r)
			if err != nil {
				if err.Error != nil {
					log.Error(err.Error, err.Message)
				}
				writeError(w, err)
			}
		})
	}
}

func writeError(w http.ResponseWriter, appErr *AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}
