// Package session issues and verifies the signed access and refresh tokens
// that identify a caller. No session state is kept on the server: a token is
// valid when its signature, kind and expiry check out.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/config"
	"github.com/princinho/stackforum/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	// RefreshCookiePath limits the refresh cookie to the auth endpoints.
	RefreshCookiePath = "/api/auth"
)

type Claims struct {
	UserID string    `json:"userId"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type Options struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	CookieSecure   bool
	CookieDomain   string
	CookieSameSite http.SameSite
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AccessSecret:   []byte(cfg.AccessTokenSecret),
		RefreshSecret:  []byte(cfg.RefreshTokenSecret),
		AccessTTL:      cfg.AccessTTL,
		RefreshTTL:     cfg.RefreshTTL,
		CookieSecure:   cfg.CookieSecure,
		CookieDomain:   cfg.CookieDomain,
		CookieSameSite: cfg.CookieSameSite,
	}
}

// UserLookup resolves the subject of a refresh token.
type UserLookup interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

type Manager struct {
	opts Options
	now  func() time.Time
}

func NewManager(opts Options) *Manager {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.CookieSameSite == 0 {
		opts.CookieSameSite = http.SameSiteLaxMode
	}
	return &Manager{opts: opts, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying tokens.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) AccessTTL() time.Duration  { return m.opts.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.opts.RefreshTTL }

func (m *Manager) IssueAccessToken(userID string) (string, time.Time, error) {
	return m.issue(userID, KindAccess, m.opts.AccessSecret, m.opts.AccessTTL)
}

func (m *Manager) IssueRefreshToken(userID string) (string, time.Time, error) {
	return m.issue(userID, KindRefresh, m.opts.RefreshSecret, m.opts.RefreshTTL)
}

func (m *Manager) issue(userID string, kind TokenKind, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, apperrors.Internal("sign token", err)
	}
	return signed, exp, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, KindAccess, m.opts.AccessSecret)
}

func (m *Manager) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, KindRefresh, m.opts.RefreshSecret)
}

func (m *Manager) verify(tokenStr string, kind TokenKind, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, apperrors.Wrap(apperrors.KindInvalidCredential, "invalid or expired token", err)
	}
	if claims.Kind != kind || claims.UserID == "" {
		return nil, apperrors.InvalidCredential("invalid or expired token")
	}
	return claims, nil
}

// Authenticate resolves the caller from the access token cookie.
func (m *Manager) Authenticate(r *http.Request) (bson.ObjectID, error) {
	cookie, err := r.Cookie(AccessCookieName)
	if err != nil || cookie.Value == "" {
		return bson.NilObjectID, apperrors.Unauthenticated("authentication required")
	}
	claims, err := m.VerifyAccessToken(cookie.Value)
	if err != nil {
		return bson.NilObjectID, err
	}
	id, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return bson.NilObjectID, apperrors.Wrap(apperrors.KindInvalidCredential, "invalid or expired token", err)
	}
	return id, nil
}

// StartSession issues both tokens for userID and sets them as cookies.
func (m *Manager) StartSession(w http.ResponseWriter, userID string) error {
	access, accessExp, err := m.IssueAccessToken(userID)
	if err != nil {
		return err
	}
	refresh, refreshExp, err := m.IssueRefreshToken(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(AccessCookieName, access, "/", accessExp, m.opts.AccessTTL))
	http.SetCookie(w, m.cookie(RefreshCookieName, refresh, RefreshCookiePath, refreshExp, m.opts.RefreshTTL))
	return nil
}

// Refresh mints a new access token from the refresh token cookie and
// replaces the access cookie. The refresh token itself is not rotated.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request, users UserLookup) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.Unauthenticated("refresh token missing")
	}
	claims, err := m.VerifyRefreshToken(cookie.Value)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInvalidCredential, "invalid or expired refresh token", err)
	}
	id, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInvalidCredential, "invalid refresh token", err)
	}
	user, err := users.FindByID(ctx, id)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return "", apperrors.InvalidCredential("invalid refresh token")
		}
		return "", err
	}

	access, exp, err := m.IssueAccessToken(user.ID.Hex())
	if err != nil {
		return "", err
	}
	http.SetCookie(w, m.cookie(AccessCookieName, access, "/", exp, m.opts.AccessTTL))
	return access, nil
}

// Logout clears both cookies. It never fails.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, m.expired(AccessCookieName, "/"))
	http.SetCookie(w, m.expired(RefreshCookieName, RefreshCookiePath))
}

func (m *Manager) cookie(name, value, path string, expires time.Time, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   m.opts.CookieDomain,
		Expires:  expires,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.CookieSecure,
		SameSite: m.opts.CookieSameSite,
	}
}

func (m *Manager) expired(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   m.opts.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.CookieSecure,
		SameSite: m.opts.CookieSameSite,
	}
}
