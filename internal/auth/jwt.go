package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer   = "taskflow-api"
	defaultAudience = "taskflow-clients"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Claims represents the JWT claims of an access token
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 access tokens. The mock backend uses it;
// the client itself never holds the secret.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer builds an issuer; an empty secret falls back to JWT_SECRET.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if secret == "" {
		secret = getEnv("JWT_SECRET", "development-insecure-secret-change-me")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{
		secret:   []byte(secret),
		issuer:   getEnv("JWT_ISSUER", defaultIssuer),
		audience: getEnv("JWT_AUDIENCE", defaultAudience),
		ttl:      ttl,
	}
}

// GenerateToken generates a token for the given user
func (i *Issuer) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ValidateToken validates a token and returns its claims
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithAudience(i.audience))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ExpiresAt reads the expiry of a token without verifying its signature.
// The client uses it to decide whether a restored session needs a refresh.
func ExpiresAt(tokenString string) (time.Time, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token is unreadable or past its expiry, with
// leeway subtracted so a token about to lapse counts as expired.
func Expired(tokenString string, leeway time.Duration) bool {
	exp, err := ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return !time.Now().Add(leeway).Before(exp)
}
