package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"PellinesFM/core/auth"
	"PellinesFM/logger"
)

// LoginHandler 管理员登录，校验密码后签发令牌
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminPasswordHash == "" || h.cfg.JWTSecret == "" {
		writeError(w, http.StatusNotImplemented, "Admin authentication is not configured")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !auth.VerifyPassword(req.Password, h.cfg.AdminPasswordHash) {
		logger.Warn("admin login failed", logger.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to issue admin token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}

// AuthMiddleware 保护管理端点。没有配置管理员口令时直接放行，
// 和原始部署一样完全开放。
func (h *APIHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AdminPasswordHash == "" || h.cfg.JWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			writeError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		if _, err := auth.ParseToken(h.cfg.JWTSecret, tokenString); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
