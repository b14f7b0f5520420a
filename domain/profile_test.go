package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileUpdate_AcceptsWhitelistedFields(t *testing.T) {
	update, err := ParseProfileUpdate(map[string]string{
		"username":    "jane_doe",
		"email":       "jane@example.com",
		"bio":         "Runner.",
		"phoneNumber": "+1 (555) 010-2030",
	})
	require.NoError(t, err)
	assert.Len(t, update.Fields, 4)

	user := &User{Username: "old", Email: "old@example.com"}
	update.Apply(user)
	assert.Equal(t, "jane_doe", user.Username)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "Runner.", user.Bio)
	assert.Equal(t, "+1 (555) 010-2030", user.PhoneNumber)
}

func TestParseProfileUpdate_RejectsUnknownFields(t *testing.T) {
	_, err := ParseProfileUpdate(map[string]string{"bio": "ok", "password": "x", "avatar": "http://x"})
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Equal(t, map[string]string{
		"password": "is not an editable profile field",
		"avatar":   "is not an editable profile field",
	}, FieldErrors(err))
}

func TestParseProfileUpdate_SkipsEmptyValues(t *testing.T) {
	update, err := ParseProfileUpdate(map[string]string{"username": "", "bio": ""})
	require.NoError(t, err)
	assert.True(t, update.IsEmpty())

	user := &User{Username: "keep"}
	update.Apply(user)
	assert.Equal(t, "keep", user.Username)
}

func TestParseProfileUpdate_ValidatesValues(t *testing.T) {
	_, err := ParseProfileUpdate(map[string]string{
		"username":    "a b",
		"email":       "not-an-email",
		"phoneNumber": "call me",
	})
	fields := FieldErrors(err)
	require.Len(t, fields, 3)
	assert.Contains(t, fields["email"], "valid email")
	assert.Contains(t, fields["phoneNumber"], "phone")
	assert.NotEmpty(t, fields["username"])
}

func TestProfileUpdate_AvatarOnly(t *testing.T) {
	update := ProfileUpdate{AvatarURL: "https://img/a.png"}
	assert.False(t, update.IsEmpty())

	user := &User{}
	update.Apply(user)
	assert.Equal(t, "https://img/a.png", user.Avatar)
}
