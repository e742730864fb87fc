package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Service issues and checks controller tokens. A controller token lets its holder drive
// one flip session; everyone else connected to the session only watches.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Grant is returned to the client that created a session.
type Grant struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issue signs a controller token for sessionID.
func (s *Service) Issue(sessionID string) (*Grant, error) {
	if sessionID == "" {
		return nil, errors.New("issue token: empty session id")
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Grant{Token: signed, SessionID: sessionID, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Validate returns the session a token controls.
func (s *Service) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
