package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestSignAndParse(t *testing.T) {
	token, err := Sign("pat-1", "patient", secret)
	require.NoError(t, err)

	s, err := Parse(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "pat-1", s.Sub)
	assert.Equal(t, RolePatient, s.Role)
}

func TestParseRejectsBadInput(t *testing.T) {
	token, err := Sign("doc-1", RoleDoctor, secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"empty token", "", secret},
		{"garbage token", "not.a.jwt", secret},
		{"wrong secret", token, "other-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseRequiresSubAndRole(t *testing.T) {
	token, err := Sign("", RoleDoctor, secret)
	require.NoError(t, err)
	_, err = Parse(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = Sign("doc-1", "", secret)
	require.NoError(t, err)
	_, err = Parse(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireRole(t *testing.T) {
	s := &Session{Sub: "doc-1", Role: RoleDoctor}

	assert.True(t, RequireRole(s, RoleDoctor))
	assert.True(t, RequireRole(s, RolePatient, RoleDoctor))
	assert.False(t, RequireRole(s, RolePatient))
	assert.False(t, RequireRole(nil, RoleDoctor))
}
