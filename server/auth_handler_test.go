package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"PellinesFM/core/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminEndpointsOpenWithoutConfiguredPassword(t *testing.T) {
	_, _, router := newTestAPI(t)

	// 未配置口令时管理端点完全开放
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/live/start", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthBoundaryWhenConfigured(t *testing.T) {
	h, _, router := newTestAPI(t)

	hash, err := auth.HashPassword("secreto")
	require.NoError(t, err)
	h.cfg.AdminPasswordHash = hash
	h.cfg.JWTSecret = "test-secret"

	// 没有令牌：拒绝
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/live/start", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 错误口令登录失败
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 正确口令换取令牌
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"password":"secreto"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// 带令牌访问管理端点
	req := httptest.NewRequest(http.MethodPost, "/live/start", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// 伪造令牌被拒
	req = httptest.NewRequest(http.MethodPost, "/live/stop", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 公开端点不受影响
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginNotConfigured(t *testing.T) {
	_, _, router := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"password":"x"}`)))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
