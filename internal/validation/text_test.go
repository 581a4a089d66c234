package validation

import (
	"strings"
	"testing"

	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeComment(t *testing.T) {
	t.Parallel()

	got, err := NormalizeComment("  nice post \n")
	require.NoError(t, err)
	assert.Equal(t, "nice post", got)

	_, err = NormalizeComment("   ")
	assert.Error(t, err)

	// Runes, not bytes.
	_, err = NormalizeComment(strings.Repeat("é", MaxCommentLength))
	assert.NoError(t, err)

	_, err = NormalizeComment(strings.Repeat("a", MaxCommentLength+1))
	assert.Error(t, err)
}

func TestParseGender(t *testing.T) {
	t.Parallel()

	g, err := ParseGender("female")
	require.NoError(t, err)
	assert.Equal(t, models.GenderFemale, g)

	_, err = ParseGender("other")
	assert.Error(t, err)
	_, err = ParseGender("")
	assert.Error(t, err)
}

func TestValidateNameAndBio(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateName("firstName", "Ada"))
	assert.Error(t, ValidateName("firstName", strings.Repeat("x", 51)))
	assert.NoError(t, ValidateBio(""))
	assert.Error(t, ValidateBio(strings.Repeat("x", 501)))
}
