package runner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/runner"
)

func TestSanitizeInput_PassesCleanText(t *testing.T) {
	out, err := runner.SanitizeInput("move(l0, l1)")
	require.NoError(t, err)
	assert.Equal(t, "move(l0, l1)", out)
}

func TestSanitizeInput_StripsControlCharacters(t *testing.T) {
	out, err := runner.SanitizeInput("mo\x1b[31mve\x00")
	require.NoError(t, err)
	assert.Equal(t, "mo[31mve", out)
}

func TestSanitizeInput_KeepsWhitespaceControls(t *testing.T) {
	out, err := runner.SanitizeInput("a\tb\nc")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc", out)
}

func TestSanitizeInput_RejectsOversized(t *testing.T) {
	_, err := runner.SanitizeInput(strings.Repeat("x", runner.DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)
}

func TestSanitizeInput_SizeOverride(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "8")
	_, err := runner.SanitizeInput("123456789")
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)

	out, err := runner.SanitizeInput("12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", out)
}

func TestSanitizeInput_RejectsInvalidUTF8(t *testing.T) {
	_, err := runner.SanitizeInput("abc\xff")
	assert.ErrorIs(t, err, runner.ErrInvalidUTF8)
}
