package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

const maxBodyBytes = 1 << 20

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	message, reason := "", ""
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message, reason = svcErr.Message, svcErr.Code
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, orDefault(message, "validation error"))
	case errors.Is(err, service.ErrUnauthorized):
		respond.ErrorCode(w, r, http.StatusUnauthorized, orDefault(message, "unauthorized"), reason)
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, orDefault(message, "not found"))
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, orDefault(message, "conflict"))
	default:
		logger.Error("internal error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respond.Error(w, r, http.StatusInternalServerError, "server error")
	}
}

// decodeJSON reads a JSON body into dst and rejects empty or malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respond.Error(w, r, http.StatusBadRequest, "empty request body")
			return false
		}
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// currentUser reads the id set by auth.Middleware. A missing id means the route
// was mounted without the guard.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
