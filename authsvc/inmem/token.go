package inmem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ichigozero/taskapi/authsvc"
)

const tokenPrefix = "taskapi/tokens"

type tokenRepository struct {
	client Client
}

// NewTokenRepository stores session tokens in the Consul KV store, one key
// per token under a per-user prefix.
func NewTokenRepository(c Client) authsvc.TokenRepository {
	return &tokenRepository{c}
}

func (t *tokenRepository) Add(_ context.Context, userID uint64, token string) error {
	return t.client.Put(tokenKey(userID, token), []byte(token))
}

func (t *tokenRepository) Exists(_ context.Context, userID uint64, token string) (bool, error) {
	v, err := t.client.Get(tokenKey(userID, token))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return string(v) == token, nil
}

func (t *tokenRepository) List(_ context.Context, userID uint64) ([]string, error) {
	pairs, err := t.client.List(userPrefix(userID))
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(pairs))
	for _, p := range pairs {
		tokens = append(tokens, string(p.Value))
	}

	return tokens, nil
}

func (t *tokenRepository) Remove(_ context.Context, userID uint64, token string) error {
	return t.client.Delete(tokenKey(userID, token))
}

func (t *tokenRepository) RemoveAll(_ context.Context, userID uint64) error {
	return t.client.DeleteTree(userPrefix(userID))
}

func userPrefix(userID uint64) string {
	return fmt.Sprintf("%s/%d/", tokenPrefix, userID)
}

func tokenKey(userID uint64, token string) string {
	sum := sha256.Sum256([]byte(token))
	return userPrefix(userID) + hex.EncodeToString(sum[:])
}
