package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"validate", ModeValidate},
		{"rigidbody", ModeRigidBody},
		{"viewer", ModeViewer},
		{"PyBullet", ModeRigidBody},
		{"maniskill", ModeViewer},
		{" Validate ", ModeValidate},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("gazebo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate, rigidbody, viewer")
}

func TestMode_DefaultIsRigidBody(t *testing.T) {
	var m Mode
	assert.Equal(t, ModeRigidBody, m)
	assert.True(t, m.Simulates())
	assert.False(t, ModeValidate.Simulates())
}

func TestMode_Flag(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalFlag("viewer"))
	assert.Equal(t, ModeViewer, m)

	s, err := m.MarshalFlag()
	require.NoError(t, err)
	assert.Equal(t, "viewer", s)

	assert.Error(t, m.UnmarshalFlag("bogus"))
	assert.Equal(t, ModeViewer, m)
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
