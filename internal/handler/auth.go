package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bykirken/bykirken/internal/auth"
	"github.com/bykirken/bykirken/internal/email"
	"github.com/bykirken/bykirken/internal/store"
)

const (
	sessionCookieName = "bykirken_session"
	sessionTTL        = 30 * 24 * time.Hour
	maxCodeAttempts   = 5
)

type AuthHandler struct {
	users      *store.UserStore
	sessions   *store.SessionStore
	magicLinks *store.MagicLinkStore
	email      *email.Client
	secure     bool
	logger     *slog.Logger
}

func NewAuthHandler(users *store.UserStore, sessions *store.SessionStore, magicLinks *store.MagicLinkStore, mailer *email.Client, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		sessions:   sessions,
		magicLinks: magicLinks,
		email:      mailer,
		secure:     secure,
		logger:     logger,
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, hash, err := h.users.GetCredentials(req.Email)
	if err != nil {
		h.logger.Error("get credentials", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || hash == "" {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(user.ID, sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, user)
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// RequestCode emails a one-time login code. The response is identical
// whether or not the address belongs to a user, so the endpoint cannot be
// used to probe accounts.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("get user by email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send code")
		return
	}

	if user != nil {
		ml, err := h.magicLinks.Create(req.Email)
		if err != nil {
			h.logger.Error("create magic link", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to send code")
			return
		}
		if h.email != nil && h.email.Configured() {
			if err := h.email.SendLoginCode(req.Email, ml.Token); err != nil {
				h.logger.Error("send login code", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to send code")
				return
			}
		} else {
			h.logger.Info("email not configured, login code not sent", "email", req.Email)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyCode exchanges a valid login code for a session.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	ml, err := h.magicLinks.GetPendingByEmail(req.Email)
	if err != nil {
		h.logger.Error("get pending magic link", "error", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	if ml == nil || ml.Attempts >= maxCodeAttempts {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	if subtle.ConstantTimeCompare([]byte(ml.Token), []byte(req.Code)) != 1 {
		attempts, err := h.magicLinks.IncrementAttempts(ml.ID)
		if err == nil && attempts >= maxCodeAttempts {
			_ = h.magicLinks.MarkUsed(ml.ID)
		}
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	if err := h.magicLinks.MarkUsed(ml.ID); err != nil {
		h.logger.Error("mark magic link used", "error", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	sess, err := h.sessions.Create(user.ID, sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, user)
}

// Logout deletes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Warn("delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == 0 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
