package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tourney-api/internal/domain"
)

func TestRecipient_SMS(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"12345", false},
		{"1234567890", false}, // leading digit out of range
		{"98765432101", false},
		{"98765a3210", false},
		{"", false},
	}
	for _, c := range cases {
		err := Recipient("sms", c.in)
		if c.ok {
			assert.NoError(t, err, c.in)
		} else {
			assert.True(t, errors.Is(err, domain.ErrBadRequest), c.in)
		}
	}
}

func TestRecipient_Email(t *testing.T) {
	assert.NoError(t, Recipient("email", "player@example.com"))
	assert.Error(t, Recipient("email", "not-an-email"))
	assert.Error(t, Recipient("email", "a b@example.com"))
}

func TestCode(t *testing.T) {
	assert.NoError(t, Code("482913", 6))
	assert.True(t, errors.Is(Code("12a", 6), domain.ErrBadRequest))
	assert.True(t, errors.Is(Code("12345", 6), domain.ErrBadRequest))
	assert.True(t, errors.Is(Code("1234567", 6), domain.ErrBadRequest))
}

func TestStruct(t *testing.T) {
	type body struct {
		Name string `validate:"required"`
	}
	assert.NoError(t, Struct(&body{Name: "x"}))
	assert.ErrorContains(t, Struct(&body{}), "Name")
}
