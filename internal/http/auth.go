package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/wayfarelabs/tour-marketplace/internal/auth"
	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			h.writeDomainError(w, errors.Wrap(domain.ErrConflict, "email or username already exists"))
			return
		}
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	user, err := h.repo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": userSummaryDTO{
			ID:       user.ID.String(),
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword stores a short-lived reset token and hands delivery to
// the event pipeline; no mail is sent in-process.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	user, err := h.repo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	token, err := auth.NewResetToken()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	expires := time.Now().Add(h.cfg.ResetTokenTTL)
	if err := h.repo.SetResetToken(r.Context(), user.ID, token, expires); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.repo.EnqueueEvent(r.Context(), "user", user.ID, "user.password_reset", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"token":   token,
	}); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "reset link sent to email"})
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req resetPasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.repo.ResetPassword(r.Context(), token, hash, time.Now()); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid or expired token"})
			return
		}
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated successfully"})
}
