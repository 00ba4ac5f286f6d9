package usersvc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	})
	if err != nil {
		panic(err)
	}
	return v
}

var rules = map[string]string{
	"name":     "required",
	"email":    "required,email",
	"password": "required,min=7,nopassword",
	"age":      "gte=0",
}

// Password problems share one message so the response does not say which
// rule was broken.
var messages = map[string]string{
	"name":     "name is required",
	"email":    "email is invalid",
	"password": "password is invalid",
	"age":      "age must be a positive number",
}

func check(field string, value interface{}) error {
	if err := validate.Var(value, rules[field]); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, messages[field])
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser validates signup input and returns a user ready to be stored, with
// the password already hashed.
func NewUser(name, email, password string, age *int, cost int) (User, error) {
	u := User{
		Name:  strings.TrimSpace(name),
		Email: NormalizeEmail(email),
	}
	if age != nil {
		u.Age = *age
	}
	password = strings.TrimSpace(password)

	if err := check("name", u.Name); err != nil {
		return User{}, err
	}
	if err := check("email", u.Email); err != nil {
		return User{}, err
	}
	if err := check("password", password); err != nil {
		return User{}, err
	}
	if err := check("age", u.Age); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(password, cost)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash

	return u, nil
}

// Patch is a partial update of a user keyed by JSON field name.
type Patch map[string]json.RawMessage

// Apply returns a copy of u with the patch applied. Keys outside
// name, email, password and age are rejected, and u is never modified.
func (p Patch) Apply(u User, cost int) (User, error) {
	for k, raw := range p {
		if _, ok := rules[k]; !ok {
			return User{}, fmt.Errorf("%w: invalid update %q", ErrInvalidArgument, k)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, messages[k])
		}
	}

	if raw, ok := p["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, messages["name"])
		}
		u.Name = strings.TrimSpace(name)
		if err := check("name", u.Name); err != nil {
			return User{}, err
		}
	}
	if raw, ok := p["email"]; ok {
		var email string
		if err := json.Unmarshal(raw, &email); err != nil {
			return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, messages["email"])
		}
		u.Email = NormalizeEmail(email)
		if err := check("email", u.Email); err != nil {
			return User{}, err
		}
	}
	if raw, ok := p["age"]; ok {
		var age int
		if err := json.Unmarshal(raw, &age); err != nil {
			return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, messages["age"])
		}
		u.Age = age
		if err := check("age", u.Age); err != nil {
			return User{}, err
		}
	}
	if raw, ok := p["password"]; ok {
		var password string
		if err := json.Unmarshal(raw, &password); err != nil {
			return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, messages["password"])
		}
		password = strings.TrimSpace(password)
		if err := check("password", password); err != nil {
			return User{}, err
		}
		hash, err := HashPassword(password, cost)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = hash
	}

	return u, nil
}
