// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/vote-for-me/auth"
	"github.com/danielhkuo/vote-for-me/middleware"
	"github.com/danielhkuo/vote-for-me/models"
)

type AuthHandler struct {
	admin *auth.Admin
}

func NewAuthHandler(admin *auth.Admin) *AuthHandler {
	return &AuthHandler{admin: admin}
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "password is required")
		return
	}

	token, err := h.admin.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid password")
			return
		}
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{Token: token})
}
