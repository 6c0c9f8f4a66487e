package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"yatube/internal/domain"
)

const (
	sessionCookie = "session"
	userKey       = "yatube.user"
)

// Sessions issues and verifies signed session tokens carrying a user id.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

func (s *Sessions) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Parse returns the user id of a valid, unexpired token.
func (s *Sessions) Parse(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("empty session token")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("parse session: %w", err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session subject %q", claims.Subject)
	}
	return id, nil
}

func (s *Sessions) maxAge() int {
	return int(s.ttl / time.Second)
}

// identify resolves the session cookie into the acting user. Bad or stale
// tokens leave the request anonymous.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(sessionCookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		id, err := h.sessions.Parse(raw)
		if err != nil {
			h.clearSession(c)
			c.Next()
			return
		}
		user, err := h.users.GetByID(c.Request.Context(), id)
		if err != nil {
			h.clearSession(c)
			c.Next()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func (h *Handler) startSession(c *gin.Context, user *domain.User) error {
	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, h.sessions.maxAge(), "/", "", false, true)
	return nil
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// currentUser returns nil for anonymous requests.
func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

// redirectToLogin sends the client to the login page with the current URI
// as the continuation.
func (h *Handler) redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, loginRedirectURL(h.loginURL, c.Request.URL.RequestURI()))
	c.Abort()
}

func loginRedirectURL(loginURL, next string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
