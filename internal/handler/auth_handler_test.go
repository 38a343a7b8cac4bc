package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/stampman/internal/auth"
	"github.com/hitoshi/stampman/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerUserFn  func(ctx context.Context, username, password string) (*auth.LoginResult, error)
	loginUserFn     func(ctx context.Context, username, password string) (*auth.LoginResult, error)
	registerAdminFn func(ctx context.Context, username, password string) (*auth.LoginResult, error)
	loginAdminFn    func(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

func (m *mockAuthService) RegisterUser(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if m.registerUserFn != nil {
		return m.registerUserFn(ctx, username, password)
	}
	return &auth.LoginResult{Token: "token", Username: username}, nil
}

func (m *mockAuthService) LoginUser(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if m.loginUserFn != nil {
		return m.loginUserFn(ctx, username, password)
	}
	return &auth.LoginResult{Token: "token", Username: username}, nil
}

func (m *mockAuthService) RegisterAdmin(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if m.registerAdminFn != nil {
		return m.registerAdminFn(ctx, username, password)
	}
	return &auth.LoginResult{Token: "token", Username: username}, nil
}

func (m *mockAuthService) LoginAdmin(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if m.loginAdminFn != nil {
		return m.loginAdminFn(ctx, username, password)
	}
	return &auth.LoginResult{Token: "token", Username: username}, nil
}

// --- テスト ---

func TestAuthHandler_Register_Returns201WithToken(t *testing.T) {
	service := &mockAuthService{
		registerUserFn: func(ctx context.Context, username, password string) (*auth.LoginResult, error) {
			if username != "taro" || password != "password123" {
				t.Errorf("credentials = (%q, %q), want (taro, password123)", username, password)
			}
			return &auth.LoginResult{Token: "new-token", Username: "taro"}, nil
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"taro","password":"password123"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result auth.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Token != "new-token" {
		t.Errorf("token = %q, want new-token", result.Token)
	}
	if result.Username != "taro" {
		t.Errorf("username = %q, want taro", result.Username)
	}
}

func TestAuthHandler_Register_InvalidBody_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_UsernameTaken_Returns409(t *testing.T) {
	service := &mockAuthService{
		registerUserFn: func(ctx context.Context, username, password string) (*auth.LoginResult, error) {
			return nil, model.NewUsernameTakenError(username)
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"taro","password":"password123"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeUsernameTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUsernameTaken)
	}
	if body.Action == "" {
		t.Error("action should be populated")
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns401(t *testing.T) {
	service := &mockAuthService{
		loginUserFn: func(ctx context.Context, username, password string) (*auth.LoginResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"taro","password":"wrong"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_LoginAdmin_Success_Returns200(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login",
		strings.NewReader(`{"username":"boss","password":"admin-pass"}`))
	w := httptest.NewRecorder()
	h.LoginAdmin(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
