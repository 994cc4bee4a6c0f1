package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/adcraft/creative-engine/internal/domain"
)

const (
	issuer   = "creative-engine"
	audience = "creative-engine-clients"
)

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenService issues HS256 access tokens and tracks refresh tokens in an
// expiring in-memory cache. Refresh tokens are single use: a refresh rotates
// the pair and invalidates the old token.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	refresh    *gocache.Cache
	now        func() time.Time
}

// NewTokenService constructs a token service. TTLs fall back to sane defaults
// when zero.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		refresh:    gocache.New(refreshTTL, 10*time.Minute),
		now:        time.Now,
	}
}

// Issue returns a fresh token pair for the user.
func (t *TokenService) Issue(user Profile) (TokenPair, error) {
	now := t.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
		Email: user.Email,
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign access token: %w", err)
	}
	refreshToken := uuid.NewString()
	t.refresh.Set(refreshToken, user.ID, t.refreshTTL)
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(t.accessTTL.Seconds()),
	}, nil
}

// Verify parses an access token and returns the user id it was issued for.
func (t *TokenService) Verify(token string) (string, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience), jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return "", errors.Join(domain.ErrUnauthorized, err)
	}
	return claims.Subject, nil
}

// Rotate exchanges a refresh token for the user id it belongs to, consuming
// it. Callers issue a new pair afterwards.
func (t *TokenService) Rotate(refreshToken string) (string, error) {
	value, found := t.refresh.Get(refreshToken)
	if !found {
		return "", domain.ErrUnauthorized
	}
	t.refresh.Delete(refreshToken)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

// Revoke drops a refresh token, e.g. on logout.
func (t *TokenService) Revoke(refreshToken string) {
	t.refresh.Delete(refreshToken)
}
