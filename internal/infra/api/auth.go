package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"digital-storefront/internal/config"
	"digital-storefront/internal/domain/model"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims binds a browser session to an actor. Subject carries the user id.
type SessionClaims struct {
	SessionID string     `json:"sid"`
	Role      model.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthManager struct {
	secret       []byte
	cookieName   string
	cookieDomain string
	secure       bool
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthManager(cfg config.AuthConfig) *AuthManager {
	return &AuthManager{
		secret:       []byte(cfg.Secret),
		cookieName:   cfg.CookieName,
		cookieDomain: cfg.CookieDomain,
		secure:       cfg.SecureCookie,
		ttl:          cfg.SessionTTL,
		now:          time.Now,
	}
}

// NewGuestActor starts a fresh anonymous session.
func NewGuestActor() model.Actor {
	sid := uuid.NewString()
	return model.Actor{UserID: model.GuestUserID(sid), SessionID: sid, Role: model.RoleCustomer}
}

// Sign returns a token for actor valid for ttl (the configured session TTL when ttl <= 0).
func (a *AuthManager) Sign(actor model.Actor, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = a.ttl
	}
	now := a.now()
	claims := SessionClaims{
		SessionID: actor.SessionID,
		Role:      actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   actor.UserID,
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Mint signs a token for actor and sets it as the session cookie.
func (a *AuthManager) Mint(w http.ResponseWriter, actor model.Actor) (string, error) {
	signed, err := a.Sign(actor, 0)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    signed,
		Path:     "/",
		Domain:   a.cookieDomain,
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return signed, nil
}

// ParseFromRequest reads a bearer token first, then the session cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (model.Actor, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(a.cookieName); err == nil {
		return a.parse(c.Value)
	}
	return model.Actor{}, ErrMissingToken
}

func (a *AuthManager) parse(tok string) (model.Actor, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid {
		return model.Actor{}, ErrInvalidToken
	}
	if claims.Subject == "" || (claims.Role != model.RoleSupport && claims.SessionID == "") {
		return model.Actor{}, ErrInvalidToken
	}
	return model.Actor{UserID: claims.Subject, SessionID: claims.SessionID, Role: claims.Role}, nil
}
