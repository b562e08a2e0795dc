// internal/api/user_handlers.go
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"
)

// RegisterUser обрабатывает запрос на регистрацию пользователя.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err, "Register")
		return
	}
	req.Email = domain.NormalizeEmail(req.Email)
	if err := h.validate(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "Registration request validation failed", slog.String("error", err.Error()))
		h.respondDomainError(w, r, err, "Register")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondDomainError(w, r, err, "Password hashing")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "Attempt to register existing user", slog.String("email", req.Email))
		}
		h.respondDomainError(w, r, err, "Create user")
		return
	}

	h.logger.InfoContext(ctx, "User registered successfully", slog.String("userID", user.ID))
	h.respondJSON(w, r, http.StatusCreated, user.Public())
}

// LoginUser проверяет учетные данные и выдает JWT.
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err, "Login")
		return
	}
	req.Email = domain.NormalizeEmail(req.Email)
	if err := h.validate(ctx, req); err != nil {
		h.respondDomainError(w, r, err, "Login")
		return
	}

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		h.respondDomainError(w, r, err, "Get user by email")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.logger.WarnContext(ctx, "Login failed: invalid credentials", slog.String("email", req.Email))
		h.respondError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokenManager.Generate(user.ID, user.Email)
	if err != nil {
		h.respondDomainError(w, r, err, "Token generation")
		return
	}

	h.logger.InfoContext(ctx, "User logged in successfully", slog.String("userID", user.ID))
	h.respondJSON(w, r, http.StatusOK, domain.LoginResponse{User: user.Public(), Token: token})
}

// GetUserProfile возвращает профиль текущего пользователя.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, "User ID not found in token")
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		h.respondDomainError(w, r, err, "Get user profile")
		return
	}
	h.respondJSON(w, r, http.StatusOK, user.Public())
}
