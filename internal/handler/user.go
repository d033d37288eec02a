package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type UserHandler struct {
	service *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(srv *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Success(w, r, http.StatusCreated, respond.Envelope{"token": result.Token, "user": result.User})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Success(w, r, http.StatusOK, respond.Envelope{"token": result.Token, "user": result.User})
}

// Me answers a vanished account with 400, which clients treat as "log in again"
// rather than as a missing resource.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if errors.Is(err, repo.ErrorNotFound) {
		respond.Error(w, r, http.StatusBadRequest, "user not found")
		return
	}
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Success(w, r, http.StatusOK, respond.Envelope{"user": user})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Success(w, r, http.StatusOK, respond.Envelope{"user": user})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.PasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdatePassword(r.Context(), userID, req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Success(w, r, http.StatusOK, respond.Envelope{"message": "password changed"})
}
