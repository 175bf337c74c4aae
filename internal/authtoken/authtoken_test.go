package authtoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymousDefaultAllowed(t *testing.T) {
	a := New()
	assert.NoError(t, a.Check("", "default", "read"))
	assert.Error(t, a.Check("", "other", "read"))
}

func TestTokenNamespacePatternMatch(t *testing.T) {
	a := New()
	a.RegisterToken("tok1", []string{"team-*"}, DefaultPermission())

	assert.NoError(t, a.Check("tok1", "team-alpha", "write"))
	assert.Error(t, a.Check("tok1", "other", "write"))
	assert.Error(t, a.Check("unknown", "team-alpha", "write"))
}

func TestTokenPermissionDenied(t *testing.T) {
	a := New()
	a.RegisterToken("readonly", []string{"*"}, Permission{Read: true})

	assert.NoError(t, a.Check("readonly", "anything", "read"))
	assert.Error(t, a.Check("readonly", "anything", "write"))
	assert.Error(t, a.Check("readonly", "anything", "delete"))
}
