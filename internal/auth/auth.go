package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/contactbox/apiserver/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Token scopes. A token issued under one scope is never accepted under
// another, so an access token cannot be replayed as a refresh token.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
)

// ErrInvalidToken is returned when a token fails signature, expiry, or
// scope validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the registered claim set plus the token scope.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates the signed tokens used by the auth flow.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

// NewTokenManager constructs a TokenManager from the signing secret and
// configured lifetimes.
func NewTokenManager(secret string, cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		emailTTL:   cfg.EmailTokenTTL,
	}
}

// CreateAccessToken issues a short-lived token authorizing API calls.
func (m *TokenManager) CreateAccessToken(email string) (string, error) {
	return m.issue(email, ScopeAccess, m.accessTTL)
}

// CreateRefreshToken issues a long-lived token exchangeable for a new pair.
func (m *TokenManager) CreateRefreshToken(email string) (string, error) {
	return m.issue(email, ScopeRefresh, m.refreshTTL)
}

// CreateEmailToken issues a token proving control of an email address.
func (m *TokenManager) CreateEmailToken(email string) (string, error) {
	return m.issue(email, ScopeEmail, m.emailTTL)
}

// DecodeAccessToken returns the subject email of a valid access token.
func (m *TokenManager) DecodeAccessToken(token string) (string, error) {
	return m.decode(token, ScopeAccess)
}

// DecodeRefreshToken returns the subject email of a valid refresh token.
func (m *TokenManager) DecodeRefreshToken(token string) (string, error) {
	return m.decode(token, ScopeRefresh)
}

// DecodeEmailToken returns the subject email of a valid confirmation token.
func (m *TokenManager) DecodeEmailToken(token string) (string, error) {
	return m.decode(token, ScopeEmail)
}

func (m *TokenManager) issue(email, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) decode(tokenString, scope string) (string, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Scope != scope {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword produces a salted one-way hash of the plaintext password.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext password matches the hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
