package jwt

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	// GenerateAccessToken signs an access token for the given subject
	GenerateAccessToken(claims AccessClaims) (string, error)
}

// AccessClaims is the identity the attendance engine reads from a token
type AccessClaims struct {
	UserID         string
	EmployeeID     string
	OrganizationID string
	Role           string
}

type jwtService struct {
	auth             *jwtauth.JWTAuth
	accessExpiration time.Duration
}

func NewJWTService(secret string, accessExpiration string) (Service, error) {
	exp, err := time.ParseDuration(accessExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid access expiration %q: %w", accessExpiration, err)
	}
	return &jwtService{
		auth:             jwtauth.New("HS256", []byte(secret), nil, jwxjwt.WithAcceptableSkew(30*time.Second)),
		accessExpiration: exp,
	}, nil
}

func (s *jwtService) JWTAuth() *jwtauth.JWTAuth {
	return s.auth
}

func (s *jwtService) GenerateAccessToken(c AccessClaims) (string, error) {
	now := time.Now()
	claims := map[string]interface{}{
		"sub":             c.UserID,
		"user_id":         c.UserID,
		"employee_id":     c.EmployeeID,
		"organization_id": c.OrganizationID,
		"role":            c.Role,
		"type":            "access",
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(s.accessExpiration))

	_, token, err := s.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}
