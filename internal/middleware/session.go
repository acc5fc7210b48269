package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"dealership/pkg/apperror"
	"dealership/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenCookie = "access_token"

// Session is the authenticated back-office user of one request.
type Session struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// HasRole reports whether the session carries one of roles.
func (s Session) HasRole(roles ...string) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 session tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewAuthenticator signs with secret. secure marks cookies Secure and
// SameSite=None for cross-origin deployments.
func NewAuthenticator(secret string, ttl time.Duration, secure bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Issue signs a token for s and returns it with its expiry.
func (a *Authenticator) Issue(s Session) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: s.Email,
		Role:  s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses tokenString into a Session.
func (a *Authenticator) Verify(tokenString string) (Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return Session{}, apperror.Wrap(apperror.CodeUnauthorized, "invalid token", err)
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Session{}, apperror.Wrap(apperror.CodeUnauthorized, "invalid token subject", err)
	}
	if c.Role == "" {
		return Session{}, apperror.New(apperror.CodeUnauthorized, "role not found in token")
	}
	return Session{UserID: id, Email: c.Email, Role: c.Role}, nil
}

func tokenFrom(c *gin.Context) (string, error) {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// RequireRole validates the session token and checks the role against
// allowedRoles. The session is stored in the request context.
func (a *Authenticator) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFrom(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		session, err := a.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		if !session.HasRole(allowedRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), session))
		c.Next()
	}
}

func (a *Authenticator) cookieMode() (http.SameSite, bool) {
	if a.secure {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
func (a *Authenticator) SetTokenCookie(c *gin.Context, token string) {
	sameSite, secure := a.cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, int(a.ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie.
func (a *Authenticator) ClearTokenCookie(c *gin.Context) {
	sameSite, secure := a.cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
}
