package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveInputDeepLink(t *testing.T) {
	lookup, err := ResolveInput("kiwiapp://product/42")
	assert.NoError(t, err)
	assert.Equal(t, KindID, lookup.Kind)
	assert.Equal(t, "42", lookup.Value)
}

func TestResolveInputNumericID(t *testing.T) {
	lookup, err := ResolveInput("  1007 ")
	assert.NoError(t, err)
	assert.Equal(t, KindID, lookup.Kind)
	assert.Equal(t, "1007", lookup.Value)
}

func TestResolveInputAccessCode(t *testing.T) {
	lookup, err := ResolveInput("ax99kl")
	assert.NoError(t, err)
	assert.Equal(t, KindCode, lookup.Kind)
	assert.Equal(t, "AX99KL", lookup.Value)
}

func TestResolveInputMixedStaysCode(t *testing.T) {
	// Digits mixed with letters are a code, not an id.
	lookup, err := ResolveInput("7B42XQ")
	assert.NoError(t, err)
	assert.Equal(t, KindCode, lookup.Kind)
	assert.Equal(t, "7B42XQ", lookup.Value)
}

func TestResolveInputEmpty(t *testing.T) {
	_, err := ResolveInput("   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveInputDeepLinkWithoutID(t *testing.T) {
	_, err := ResolveInput("kiwiapp://product/")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
