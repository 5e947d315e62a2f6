package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the decoded payload of a session token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies HS256 bearer tokens and checks the single
// configured demo credential pair. Tokens are never persisted; validity is a
// pure function of content, current time, and the shared secret.
type AuthService struct {
	secret        []byte
	adminEmail    string
	adminPassword string
	tokenTTL      time.Duration
}

// NewAuthService creates an AuthService with the given signing secret, demo
// credentials, and token lifetime.
func NewAuthService(secret, adminEmail, adminPassword string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		secret:        []byte(secret),
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		tokenTTL:      tokenTTL,
	}
}

// TokenTTL returns the configured token lifetime.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// VerifyCredentials checks the demo credential pair. Both comparisons run in
// constant time and both always run, so timing reveals neither which field
// mismatched nor at which byte.
func (s *AuthService) VerifyCredentials(email, password string) error {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	if !emailOK || !passwordOK {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken creates a new signed token carrying the given identity. The
// issued-at and expiry claims are stamped from the current time.
func (s *AuthService) IssueToken(userID int64, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "roster",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken verifies a bearer token and returns its claims. All failure
// modes collapse into ErrInvalidToken: malformed segments, signature
// mismatch, undecodable payload, expired token, or a non-HMAC signing
// method. The signature check covers the transmitted segments byte for byte,
// so a tampered payload fails even if it re-encodes to equivalent claims.
func (s *AuthService) VerifyToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
