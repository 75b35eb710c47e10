package codegen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UsesAlphabet(t *testing.T) {
	code, err := New(32)
	require.NoError(t, err)
	assert.Len(t, code, 32)
	assert.Regexp(t, regexp.MustCompile(`^[A-HJKMNP-Z2-9]+$`), code)
}

func TestGrouped(t *testing.T) {
	code, err := Grouped("GIFT", 2, 4)
	require.NoError(t, err)
	assert.Regexp(t, `^GIFT-[A-Z2-9]{4}-[A-Z2-9]{4}$`, code)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "REF123", Normalize("  ref123 "))
}
