package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type otpBody struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,otp"`
}

func TestBind_Valid(t *testing.T) {
	var b otpBody
	require.NoError(t, Bind([]byte(`{"email":"a@b.com","otp":"123456"}`), &b))
	assert.Equal(t, "a@b.com", b.Email)
	assert.Equal(t, "123456", b.Otp)
}

func TestBind_UnknownFieldRejected(t *testing.T) {
	var b otpBody
	err := Bind([]byte(`{"email":"a@b.com","otp":"123456","walletBalance":1e9}`), &b)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, `Unknown field "walletBalance"`, verr.Message)
}

func TestBind_EmptyAndMalformed(t *testing.T) {
	var b otpBody
	err := Bind(nil, &b)
	require.Error(t, err)
	assert.Equal(t, "Request body is required", err.Error())

	err = Bind([]byte(`{"email":`), &b)
	require.Error(t, err)

	err = Bind([]byte(`{"email":"a@b.com","otp":123456}`), &b)
	require.Error(t, err)
	assert.Equal(t, "Field otp has an invalid type", err.Error())

	err = Bind([]byte(`{"email":"a@b.com","otp":"123456"} {}`), &b)
	require.Error(t, err)
}

func TestBind_FieldErrorsUseJSONNames(t *testing.T) {
	var b otpBody
	err := Bind([]byte(`{"email":"not-an-email","otp":"12ab56"}`), &b)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("email"))
	assert.True(t, verr.HasField("otp"))
	assert.False(t, verr.HasField("Email"))
	for _, f := range verr.Fields {
		if f.Field == "otp" {
			assert.Equal(t, "must be a six-digit code", f.Message)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("investor@vitkara.com"))
	assert.False(t, IsValidEmail("investor@"))
	assert.False(t, IsValidEmail(""))
}
