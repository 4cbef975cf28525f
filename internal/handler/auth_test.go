package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

type authFixture struct {
	handler    *AuthHandler
	users      *store.UserStore
	sessions   *store.SessionStore
	magicLinks *store.MagicLinkStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := openTestDB(t)
	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db)
	magicLinks := store.NewMagicLinkStore(db)
	h := NewAuthHandler(users, sessions, magicLinks, nil, false, testLogger())
	return &authFixture{handler: h, users: users, sessions: sessions, magicLinks: magicLinks}
}

func (f *authFixture) createUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	user, err := f.users.Create(email, "Test Bruker", model.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		if err := f.users.SetPassword(user.ID, string(hash)); err != nil {
			t.Fatalf("set password: %v", err)
		}
	}
	return user
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "leder@bykirken.no", "hemmelig123")

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email": "leder@bykirken.no", "password": "hemmelig123"}`))
	w := httptest.NewRecorder()
	f.handler.Login(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	cookie := sessionCookie(w)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	sess, err := f.sessions.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("session not found for cookie token: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "leder@bykirken.no", "hemmelig123")

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email": "leder@bykirken.no", "password": "feil"}`},
		{"unknown user", `{"email": "ukjent@bykirken.no", "password": "hemmelig123"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			f.handler.Login(w, r)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if sessionCookie(w) != nil {
				t.Error("session cookie set on failed login")
			}
		})
	}
}

func TestLoginRejectsPasswordlessUser(t *testing.T) {
	// Magic-link-only accounts have no hash and must not accept any password.
	f := newAuthFixture(t)
	f.createUser(t, "leder@bykirken.no", "")

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email": "leder@bykirken.no", "password": ""}`))
	w := httptest.NewRecorder()
	f.handler.Login(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMagicLinkFlow(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "leder@bykirken.no", "")

	r := httptest.NewRequest(http.MethodPost, "/api/auth/code", strings.NewReader(`{"email": "leder@bykirken.no"}`))
	w := httptest.NewRecorder()
	f.handler.RequestCode(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("request code status = %d, want %d", w.Code, http.StatusOK)
	}

	ml, err := f.magicLinks.GetPendingByEmail("leder@bykirken.no")
	if err != nil || ml == nil {
		t.Fatalf("pending magic link not found: %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"email": "leder@bykirken.no", "code": "`+ml.Token+`"}`))
	w = httptest.NewRecorder()
	f.handler.VerifyCode(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if sessionCookie(w) == nil {
		t.Fatal("session cookie not set after verify")
	}

	// The code is single-use.
	r = httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"email": "leder@bykirken.no", "code": "`+ml.Token+`"}`))
	w = httptest.NewRecorder()
	f.handler.VerifyCode(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("reuse status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMagicLinkRequestUnknownEmail(t *testing.T) {
	// Response must not reveal whether the address belongs to a user.
	f := newAuthFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/code", strings.NewReader(`{"email": "ukjent@bykirken.no"}`))
	w := httptest.NewRecorder()
	f.handler.RequestCode(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	ml, err := f.magicLinks.GetPendingByEmail("ukjent@bykirken.no")
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if ml != nil {
		t.Error("magic link created for unknown user")
	}
}

func TestMagicLinkAttemptLimit(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "leder@bykirken.no", "")

	r := httptest.NewRequest(http.MethodPost, "/api/auth/code", strings.NewReader(`{"email": "leder@bykirken.no"}`))
	w := httptest.NewRecorder()
	f.handler.RequestCode(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("request code status = %d", w.Code)
	}

	ml, err := f.magicLinks.GetPendingByEmail("leder@bykirken.no")
	if err != nil || ml == nil {
		t.Fatalf("pending magic link not found: %v", err)
	}

	for i := 0; i < maxCodeAttempts; i++ {
		r = httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"email": "leder@bykirken.no", "code": "000000"}`))
		w = httptest.NewRecorder()
		f.handler.VerifyCode(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want %d", i+1, w.Code, http.StatusUnauthorized)
		}
	}

	// Correct code no longer works after the attempt limit.
	r = httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"email": "leder@bykirken.no", "code": "`+ml.Token+`"}`))
	w = httptest.NewRecorder()
	f.handler.VerifyCode(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post-limit status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	user := f.createUser(t, "leder@bykirken.no", "hemmelig123")

	sess, err := f.sessions.Create(user.ID, sessionTTL)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	w := httptest.NewRecorder()
	f.handler.Logout(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	got, err := f.sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Error("session still valid after logout")
	}

	cookie := sessionCookie(w)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie not cleared")
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "logged out" {
		t.Errorf("status = %q, want %q", body["status"], "logged out")
	}
}
