package authservice

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/twinj/uuid"
)

type Tokenizer interface {
	Generate(userID uint64) (string, error)
	Parse(token string) (uint64, error)
}

type tokenizer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenizer returns an HS256 tokenizer. A zero ttl issues tokens that
// never expire; they stay valid until revoked.
func NewTokenizer(secret []byte, ttl time.Duration) Tokenizer {
	return &tokenizer{secret: secret, ttl: ttl}
}

var (
	uuidV4 = uuid.NewV4
	now    = time.Now
)

func (t *tokenizer) Generate(userID uint64) (string, error) {
	issued := now()
	claims := jwt.MapClaims{
		"uuid":    uuidV4().String(),
		"user_id": userID,
		"iat":     issued.Unix(),
	}
	if t.ttl > 0 {
		claims["exp"] = issued.Add(t.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenizer) Parse(token string) (uint64, error) {
	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, authsvc.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, authsvc.ErrUnauthorized
	}

	if _, ok := claims["user_id"].(float64); !ok {
		return 0, authsvc.ErrUnauthorized
	}
	userID, err := strconv.ParseUint(fmt.Sprintf("%.f", claims["user_id"]), 10, 64)
	if err != nil || userID == 0 {
		return 0, authsvc.ErrUnauthorized
	}

	return userID, nil
}
