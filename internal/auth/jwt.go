package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Tokens issues and validates HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

func (t *Tokens) GenerateJWT(userID string) (string, error) {
	return t.sign(jwt.MapClaims{
		"sub": userID,
		"iat": t.now().Unix(),
		"exp": t.now().Add(sessionTTL).Unix(),
	})
}

// ValidateJWT returns the subject of a valid session token.
func (t *Tokens) ValidateJWT(tokenString string) (string, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return "", err
	}
	if _, isState := claims["nonce"]; isState {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// SignState produces a short-lived token binding an OAuth state to a user.
func (t *Tokens) SignState(userID, nonce string, ttl time.Duration) (string, error) {
	return t.sign(jwt.MapClaims{
		"sub":   userID,
		"nonce": nonce,
		"exp":   t.now().Add(ttl).Unix(),
	})
}

// VerifyState checks a state produced by SignState and returns its user.
func (t *Tokens) VerifyState(state string) (string, error) {
	claims, err := t.parse(state)
	if err != nil {
		return "", err
	}
	if _, ok := claims["nonce"].(string); !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (t *Tokens) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
