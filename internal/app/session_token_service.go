package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// SessionTokenService mints the short-lived bearer tokens the mini-app web
// client presents on its HTTP calls.
type SessionTokenService struct {
	secret string
	issuer string
	ttl    time.Duration
}

const defaultSessionTokenTTL = time.Hour

func NewSessionTokenService(secret, issuer string) *SessionTokenService {
	return &SessionTokenService{
		secret: secret,
		issuer: issuer,
		ttl:    defaultSessionTokenTTL,
	}
}

// GenerateToken signs an HS256 token identifying the user to the web client.
func (s *SessionTokenService) GenerateToken(userID, username string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("session token service is nil")
	}
	if userID == "" {
		return "", fmt.Errorf("userID is required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("session token config is incomplete")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"usn": username,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
