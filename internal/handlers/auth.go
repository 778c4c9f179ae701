package handlers

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"ytresearch-backend/internal/middleware"
	"ytresearch-backend/internal/models"
)

type AuthHandler struct {
	jwtAuth         *middleware.JWTAuth
	operatorKeyHash string
}

func NewAuthHandler(jwtAuth *middleware.JWTAuth, operatorKeyHash string) *AuthHandler {
	return &AuthHandler{jwtAuth: jwtAuth, operatorKeyHash: operatorKeyHash}
}

// Token exchanges the shared operator key for a short-lived JWT.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.OperatorKey == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "operator_key is required", r))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.operatorKeyHash), []byte(req.OperatorKey)); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid operator key", r))
		return
	}

	token, err := h.jwtAuth.GenerateAccessToken()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to issue token", r))
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(middleware.TokenTTL.Seconds()),
	})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
