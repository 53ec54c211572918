package auth

import (
	"errors"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Session is the profile extracted from a validated provider token.
// SubjectID is the provider's stable identifier for the principal.
type Session struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	Username  string
	AvatarKey string
}

// SessionValidator checks a credential issued by the external auth provider.
// Implementations return (nil, nil) for a token that is simply invalid or
// expired -- only infrastructure failures surface as errors.
type SessionValidator interface {
	Validate(token string) (*Session, error)
}

// TokenValidator validates the provider's signed ID tokens.
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator builds a validator for the shared signing secret.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer}
}

type sessionClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Nickname   string `json:"nickname"`
	Picture    string `json:"picture"`
	jwt.RegisteredClaims
}

// Validate parses and verifies an ID token. Malformed, expired, or
// wrongly-signed tokens yield (nil, nil): the caller is unauthenticated,
// not broken.
func (v *TokenValidator) Validate(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nil
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return nil, nil
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, nil
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, nil
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return nil, nil
	}

	username := claims.Nickname
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	firstName := claims.GivenName
	lastName := claims.FamilyName

	return &Session{
		SubjectID: subject,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
		AvatarKey: claims.Picture,
	}, nil
}
