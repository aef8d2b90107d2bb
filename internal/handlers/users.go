package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"printsite/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the store the user handler needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (*storage.User, error)
	GetUserByID(ctx context.Context, id int64) (*storage.User, error)
	ListUsers(ctx context.Context) ([]*storage.User, error)
	ChangeUserPassword(ctx context.Context, userID int64, newHash string) error
	DeleteUser(ctx context.Context, userID int64) error
}

type UserHandler struct {
	Store  UserStore
	Logger *slog.Logger
}

func (h *UserHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := h.Store.ListUsers(r.Context())
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, users)
	})
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UserHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "username, email and password are required")
			return
		}
		if req.Role == "" {
			req.Role = "editor"
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		user, err := h.Store.CreateUser(r.Context(), req.Username, req.Email, string(hash), req.Role)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, user)
	})
}

type updateUserRequest struct {
	Password string `json:"password"`
}

// HandleUpdate currently only rotates the password; usernames and emails are
// immutable once created.
func (h *UserHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var req updateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Password == "" {
			respondError(w, http.StatusBadRequest, "password is required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		if err := h.Store.ChangeUserPassword(r.Context(), id, string(hash)); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		user, err := h.Store.GetUserByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	})
}

func (h *UserHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		if err := h.Store.DeleteUser(r.Context(), id); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
	})
}
