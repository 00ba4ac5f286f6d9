package usersvc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewUser(t *testing.T) {
	age := 27
	u, err := NewUser("  Andrew ", " Andrew@Example.com ", " MyPass777! ", &age, bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, "Andrew", u.Name)
	assert.Equal(t, "andrew@example.com", u.Email)
	assert.Equal(t, 27, u.Age)
	assert.NotEqual(t, "MyPass777!", u.PasswordHash)
	assert.True(t, u.CheckPassword("MyPass777!"))
	assert.False(t, u.CheckPassword("wrong"))

	u, err = NewUser("Andrew", "andrew@example.com", "MyPass777!", nil, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Age)
}

func TestNewUserValidation(t *testing.T) {
	negative := -1

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		age      *int
		message  string
	}{
		{"empty name", " ", "a@example.com", "MyPass777!", nil, "name is required"},
		{"bad email", "A", "not-an-email", "MyPass777!", nil, "email is invalid"},
		{"short password", "A", "a@example.com", "abc12", nil, "password is invalid"},
		{"password after trim is short", "A", "a@example.com", "  abc12   ", nil, "password is invalid"},
		{"contains password", "A", "a@example.com", "myPassWord123", nil, "password is invalid"},
		{"negative age", "A", "a@example.com", "MyPass777!", &negative, "age must be a positive number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.userName, tt.email, tt.password, tt.age, bcrypt.MinCost)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestUserJSONOmitsSecrets(t *testing.T) {
	u, err := NewUser("Andrew", "andrew@example.com", "MyPass777!", nil, bcrypt.MinCost)
	require.NoError(t, err)
	u.ID = 3

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "PasswordHash")
	assert.NotContains(t, m, "passwordHash")
	assert.NotContains(t, m, "password")
	assert.NotContains(t, m, "tokens")
	assert.NotContains(t, m, "avatar")
	assert.Equal(t, "andrew@example.com", m["email"])
}

func TestPatchApply(t *testing.T) {
	orig, err := NewUser("Andrew", "andrew@example.com", "MyPass777!", nil, bcrypt.MinCost)
	require.NoError(t, err)
	orig.ID = 1

	patch := func(body string) Patch {
		var p Patch
		require.NoError(t, json.Unmarshal([]byte(body), &p))
		return p
	}

	got, err := patch(`{"name": " Jess ", "age": 30, "email": "JESS@example.com"}`).Apply(orig, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, "Jess", got.Name)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, "jess@example.com", got.Email)
	assert.Equal(t, orig.PasswordHash, got.PasswordHash)
	assert.Equal(t, "Andrew", orig.Name)

	got, err = patch(`{"password": "NewPass999"}`).Apply(orig, bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("NewPass999"))
	assert.False(t, got.CheckPassword("MyPass777!"))

	for _, body := range []string{
		`{"location": "Philadelphia"}`,
		`{"name": "Jess", "id": 9}`,
		`{"tokens": []}`,
		`{"password": "password1"}`,
		`{"email": "nope"}`,
		`{"age": -3}`,
		`{"age": "old"}`,
		`{"age": null}`,
		`{"name": null}`,
		`{"email": null}`,
		`{"password": null}`,
		`{"name": ""}`,
	} {
		_, err := patch(body).Apply(orig, bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrInvalidArgument, body)
	}
	assert.Equal(t, "Andrew", orig.Name)
	assert.True(t, orig.CheckPassword("MyPass777!"))
}

func TestNoPasswordRule(t *testing.T) {
	assert.NoError(t, validate.Var("MyPass777!", "nopassword"))
	assert.Error(t, validate.Var("myPASSWORD1", "nopassword"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", NormalizeEmail("  A@Example.COM "))
}
