package authservice

import (
	"context"
	"sync"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	mu     sync.Mutex
	tokens map[uint64][]string
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[uint64][]string)}
}

func (m *memTokens) Add(_ context.Context, userID uint64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = append(m.tokens[userID], token)
	return nil
}

func (m *memTokens) Exists(_ context.Context, userID uint64, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tk := range m.tokens[userID] {
		if tk == token {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTokens) List(_ context.Context, userID uint64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens[userID]...), nil
}

func (m *memTokens) Remove(_ context.Context, userID uint64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[userID][:0]
	for _, tk := range m.tokens[userID] {
		if tk != token {
			kept = append(kept, tk)
		}
	}
	m.tokens[userID] = kept
	return nil
}

func (m *memTokens) RemoveAll(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

type userSet map[uint64]bool

func (u userSet) IsExists(_ context.Context, id uint64) (bool, error) {
	return u[id], nil
}

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	tokens := newMemTokens()
	svc := New(NewTokenizer(secret, 0), tokens, userSet{1: true}, log.NewNopLogger())

	token, err := svc.Issue(ctx, 1)
	require.NoError(t, err)

	list, err := tokens.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{token}, list)

	a, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, authsvc.Auth{UserID: 1, Token: token}, a)

	_, err = svc.Issue(ctx, 0)
	assert.ErrorIs(t, err, authsvc.ErrInvalidArgument)
}

func TestVerifyRejectsRevokedTokens(t *testing.T) {
	ctx := context.Background()
	svc := New(NewTokenizer(secret, 0), newMemTokens(), userSet{1: true}, log.NewNopLogger())

	first, err := svc.Issue(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, 1, first))

	_, err = svc.Verify(ctx, first)
	assert.ErrorIs(t, err, authsvc.ErrUnauthorized)
	_, err = svc.Verify(ctx, second)
	assert.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, 1))
	_, err = svc.Verify(ctx, second)
	assert.ErrorIs(t, err, authsvc.ErrUnauthorized)
}

func TestVerifyRejectsDeletedUser(t *testing.T) {
	ctx := context.Background()
	users := userSet{1: true}
	svc := New(NewTokenizer(secret, 0), newMemTokens(), users, log.NewNopLogger())

	token, err := svc.Issue(ctx, 1)
	require.NoError(t, err)

	delete(users, 1)
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, authsvc.ErrUnauthorized)
}

func TestVerifyRejectsUnknownTokens(t *testing.T) {
	ctx := context.Background()
	svc := New(NewTokenizer(secret, 0), newMemTokens(), userSet{1: true}, log.NewNopLogger())

	// Validly signed but never stored.
	token, err := NewTokenizer(secret, 0).Generate(1)
	require.NoError(t, err)

	for _, tk := range []string{token, "", "garbage"} {
		_, err := svc.Verify(ctx, tk)
		assert.ErrorIs(t, err, authsvc.ErrUnauthorized)
	}
}
