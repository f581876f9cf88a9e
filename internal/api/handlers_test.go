package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/loanbot/internal/config"
	"github.com/susu3304/loanbot/internal/ledger"
)

type fakeEngine struct {
	userID string
	text   string
}

func (f *fakeEngine) Handle(_ context.Context, userID, text string) string {
	f.userID, f.text = userID, text
	return "Do you want to record that you lent John $50?"
}

type fakeLoans struct {
	loans      []ledger.Loan
	repayments []ledger.Loan
	err        error
}

func (f fakeLoans) ListActiveLoans(context.Context, string) ([]ledger.Loan, error) {
	return f.loans, f.err
}

func (f fakeLoans) Repayments(context.Context, string) ([]ledger.Loan, error) {
	return f.repayments, f.err
}

func newTestAPI(engine Responder, loans LoanLister) *API {
	cfg := &config.Config{JWTSecret: "test-secret", WebBind: "127.0.0.1:0"}
	return New(cfg, engine, loans, nil)
}

func bearer(t *testing.T, a *API, userID string) string {
	t.Helper()
	token, err := a.issueToken(userID, "tester", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHandleWebInterface(t *testing.T) {
	api := &API{}

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	api.handleWebInterface(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status OK, got %v", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "text/html; charset=utf-8" {
		t.Errorf("Expected Content-Type text/html; charset=utf-8, got %v", contentType)
	}

	body := w.Body.String()
	for _, expected := range []string{"<!DOCTYPE html>", "loanbot", "sendMessage", "/api/chat"} {
		if !strings.Contains(body, expected) {
			t.Errorf("Expected response to contain '%s'", expected)
		}
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{})

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsKept(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{})
	id := "7f5c6d0e-3c55-4c3b-9d51-1a0c3f8b2e11"

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(requestIDHeader, id)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(requestIDHeader))
}

func TestChatRequiresToken(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{})

	tests := map[string]string{
		"missing":      "",
		"not bearer":   "Token abc",
		"bad token":    "Bearer not-a-jwt",
		"wrong secret": "",
	}
	other := newTestAPI(&fakeEngine{}, fakeLoans{})
	other.jwtSecret = []byte("another-secret")
	tests["wrong secret"] = bearer(t, other, "u1")

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"hi"}`))
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			a.Handler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestChatUsesTokenUser(t *testing.T) {
	engine := &fakeEngine{}
	a := newTestAPI(engine, fakeLoans{})

	body, _ := json.Marshal(map[string]string{"message": "  I lent John 50 ", "user_id": "someone-else"})
	req := httptest.NewRequest("POST", "/api/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, a, "discord-42"))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "discord-42", engine.userID)
	assert.Equal(t, "I lent John 50", engine.text)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Do you want to record that you lent John $50?", resp["reply"])
}

func TestChatRejectsBadBody(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{})

	for _, body := range []string{"{", `{"message":"   "}`} {
		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
		req.Header.Set("Authorization", bearer(t, a, "u1"))
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestListLoans(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{loans: []ledger.Loan{{ID: 1, Entity: "John", Amount: 100, Remaining: 60, Status: ledger.StatusActive}}})

	req := httptest.NewRequest("GET", "/api/loans", nil)
	req.Header.Set("Authorization", bearer(t, a, "u1"))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var loans []ledger.Loan
	require.NoError(t, json.NewDecoder(w.Body).Decode(&loans))
	require.Len(t, loans, 1)
	assert.Equal(t, 60.0, loans[0].Remaining)
}

func TestListLoansEmptyAndError(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{})
	req := httptest.NewRequest("GET", "/api/loans", nil)
	req.Header.Set("Authorization", bearer(t, a, "u1"))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	a = newTestAPI(&fakeEngine{}, fakeLoans{err: errors.New("db down")})
	req = httptest.NewRequest("GET", "/api/loans", nil)
	req.Header.Set("Authorization", bearer(t, a, "u1"))
	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListRepayments(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{repayments: []ledger.Loan{
		{ID: 7, Kind: ledger.KindRepayment, Entity: "John", Amount: 40, Description: "Partial repayment", Status: ledger.StatusClosed},
	}})

	req := httptest.NewRequest("GET", "/api/repayments", nil)
	req.Header.Set("Authorization", bearer(t, a, "u1"))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var notes []ledger.Loan
	require.NoError(t, json.NewDecoder(w.Body).Decode(&notes))
	require.Len(t, notes, 1)
	assert.Equal(t, ledger.KindRepayment, notes[0].Kind)
	assert.Equal(t, 40.0, notes[0].Amount)
}

func TestProtectedRoutesNeedSecret(t *testing.T) {
	a := New(&config.Config{}, &fakeEngine{}, fakeLoans{}, nil)

	_, err := a.issueToken("u1", "tester", time.Hour)
	assert.Error(t, err)

	signed := newTestAPI(&fakeEngine{}, fakeLoans{})
	req := httptest.NewRequest("GET", "/api/loans", nil)
	req.Header.Set("Authorization", bearer(t, signed, "u1"))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionRedirect(t *testing.T) {
	a := New(&config.Config{JWTSecret: "s", WebUIBaseURL: "https://ledger.example.com"}, &fakeEngine{}, fakeLoans{}, nil)
	assert.Equal(t, "https://ledger.example.com/#token=a.b%2Bc", a.sessionRedirect("a.b+c"))
}

func TestLoginDisabledWithoutOAuth(t *testing.T) {
	a := newTestAPI(&fakeEngine{}, fakeLoans{})

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/auth/login", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLoginReturnsAuthURL(t *testing.T) {
	a := New(&config.Config{JWTSecret: "s", DiscordClientID: "id", DiscordClientSecret: "secret", DiscordRedirectURI: "http://localhost:3000/api/auth/callback"}, &fakeEngine{}, fakeLoans{}, nil)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/auth/login", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp["state"], 32)
	assert.Contains(t, resp["auth_url"], "client_id=id")
	assert.Contains(t, resp["auth_url"], "state="+resp["state"])
}

func TestGetDiscordUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"42","username":"jo","global_name":"Jo"}`))
	}))
	defer srv.Close()

	old := discordAPIBase
	discordAPIBase = srv.URL
	defer func() { discordAPIBase = old }()

	user, err := (&API{}).getDiscordUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "Jo", getUsername(user))
}

func TestGenerateRandomString(t *testing.T) {
	a, b := generateRandomString(32), generateRandomString(32)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
