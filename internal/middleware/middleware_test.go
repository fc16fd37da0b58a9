package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "spendlens/internal/errors"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(v TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(UserIDKey)})
	})
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func signed(t *testing.T, claims *JWTClaims, secret []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAuthMiddleware_JWT(t *testing.T) {
	r := newAuthRouter(NewJWTVerifier(testSecret))

	valid, err := GenerateAccessToken(testSecret, "alice", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired := signed(t, &JWTClaims{UserID: "alice", TokenType: "access", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}, testSecret)
	refresh := signed(t, &JWTClaims{UserID: "alice", TokenType: "refresh", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, testSecret)
	subjectOnly := signed(t, &JWTClaims{TokenType: "access", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, testSecret)
	foreign, _ := GenerateAccessToken([]byte("other-secret"), "alice", time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "alice"},
		{"lowercase_scheme", "bearer " + valid, http.StatusOK, "alice"},
		{"subject_fallback", "Bearer " + subjectOnly, http.StatusOK, "bob"},
		{"missing_header", "", http.StatusUnauthorized, ""},
		{"wrong_scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"empty_token", "Bearer ", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"refresh_token", "Bearer " + refresh, http.StatusUnauthorized, ""},
		{"wrong_secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := get(r, "/me", headers)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if code := errorCode(t, w); code != "UNAUTHORIZED" {
					t.Errorf("code = %q, want UNAUTHORIZED", code)
				}
				return
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["userId"] != tt.wantUser {
				t.Errorf("userId = %q, want %q", body["userId"], tt.wantUser)
			}
		})
	}
}

func TestGenerateAccessToken_RequiresUser(t *testing.T) {
	if _, err := GenerateAccessToken(testSecret, "", time.Hour); err == nil {
		t.Error("expected error for empty user id")
	}
}

type fakeIDTokens struct {
	uid string
	err error
}

func (f fakeIDTokens) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Token{UID: f.uid}, nil
}

func TestAuthMiddleware_Firebase(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := newAuthRouter(NewFirebaseVerifier(fakeIDTokens{uid: "firebase-uid"}))
		w := get(r, "/me", map[string]string{"Authorization": "Bearer id-token"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["userId"] != "firebase-uid" {
			t.Errorf("userId = %q", body["userId"])
		}
	})

	t.Run("rejected", func(t *testing.T) {
		r := newAuthRouter(NewFirebaseVerifier(fakeIDTokens{err: errors.New("token expired")}))
		w := get(r, "/me", map[string]string{"Authorization": "Bearer id-token"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("empty_uid", func(t *testing.T) {
		r := newAuthRouter(NewFirebaseVerifier(fakeIDTokens{}))
		w := get(r, "/me", map[string]string{"Authorization": "Bearer id-token"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/x", map[string]string{"Origin": "https://app.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allowed origin header = %q", got)
	}

	w = get(r, "/x", map[string]string{"Origin": "https://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin should get no header, got %q", got)
	}

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperrors.ErrRateUnavailable) })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })

	w := get(r, "/app", nil)
	if w.Code != http.StatusBadGateway || errorCode(t, w) != "RATE_UNAVAILABLE" {
		t.Errorf("app error: status %d body %s", w.Code, w.Body.String())
	}
	var body struct {
		Error struct {
			Retryable bool `json:"retryable"`
		} `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Error.Retryable {
		t.Error("retryable errors should say so")
	}

	w = get(r, "/plain", nil)
	if w.Code != http.StatusInternalServerError || errorCode(t, w) != "INTERNAL_ERROR" {
		t.Errorf("plain error: status %d body %s", w.Code, w.Body.String())
	}
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/x", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
