package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"journal-live/domain"
	"journal-live/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIssuer = "journal-live"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTService issues and checks HS256 credentials. It is the in-process
// implementation of the token collaborator; signing keys are provided by
// configuration and never minted here.
type JWTService struct {
	secret   []byte
	issuer   string
	duration time.Duration
	now      func() time.Time
}

func NewJWTService(secret string, duration time.Duration) *JWTService {
	return &JWTService{
		secret:   []byte(secret),
		issuer:   defaultIssuer,
		duration: duration,
		now:      time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

// GenerateToken creates a signed JWT for a specific user.
func (s *JWTService) GenerateToken(userID domain.UserID, roles []string, duration time.Duration) (domain.Credential, error) {
	issuedAt := s.now()
	expirationTime := issuedAt.Add(duration)

	claims := &CustomClaims{
		UserID: userID.String(),
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return domain.Credential{
		Token:     signed,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate parses and validates the signature and expiration of a JWT string.
func (s *JWTService) Validate(_ context.Context, tokenString string) (domain.Credential, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return domain.Credential{}, fmt.Errorf("%w: %w", errors.ErrAuthRejected, errors.ErrTokenExpired)
		}
		return domain.Credential{}, fmt.Errorf("%w: %v", errors.ErrAuthRejected, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Credential{}, fmt.Errorf("%w: malformed claims", errors.ErrAuthRejected)
	}
	return domain.Credential{
		Token:     tokenString,
		UserID:    domain.UserID(claims.UserID),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh issues a new credential with the configured lifetime.
func (s *JWTService) Refresh(_ context.Context, userID domain.UserID) (domain.Credential, error) {
	if userID == "" {
		return domain.Credential{}, fmt.Errorf("%w: empty user", errors.ErrTokenGeneration)
	}
	return s.GenerateToken(userID, []string{"user"}, s.duration)
}
