// Package auth authenticates callers from HMAC-signed JWT bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const RoleAdmin = "admin"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID int64
	Role   string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanActFor reports whether the caller may read or write userID's cart and orders.
func (c Caller) CanActFor(userID int64) bool {
	return c.IsAdmin() || c.UserID == userID
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// ParseHeader authenticates an Authorization header value ("Bearer <jwt>").
func (v *Verifier) ParseHeader(header string) (Caller, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return Caller{}, ErrMissingToken
	}
	return v.Parse(strings.TrimSpace(header[len(prefix):]))
}

// Parse validates the token and reads "sub" (user id) and "role".
func (v *Verifier) Parse(tokenStr string) (Caller, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Caller{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Caller{}, ErrInvalidToken
	}
	userID, err := subject(claims["sub"])
	if err != nil {
		return Caller{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Caller{UserID: userID, Role: role}, nil
}

// Issue signs a token for userID. Used by tests and local tooling.
func (v *Verifier) Issue(userID int64, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"exp": time.Now().Add(ttl).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func subject(v interface{}) (int64, error) {
	switch s := v.(type) {
	case string:
		return strconv.ParseInt(s, 10, 64)
	case float64:
		return int64(s), nil
	default:
		return 0, errors.New("sub claim missing")
	}
}
