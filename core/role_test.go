package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_ParseRoundTrip(t *testing.T) {
	for _, r := range Roles() {
		parsed, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
}

func TestRole_ParseUnknown(t *testing.T) {
	_, err := ParseRole("narrator")
	assert.Error(t, err)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleWriter.Valid())
	assert.False(t, Role(99).Valid())
	assert.False(t, Role(-1).Valid())
}
