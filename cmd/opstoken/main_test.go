package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateAndVerify(t *testing.T) {
	t.Setenv("PFM_OPERATOR_JWT_SECRET", "cli-test-secret")

	out, err := run(t, "generate", "--subject", "ops@example.com")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	assert.Equal(t, 2, strings.Count(token, "."))

	out, err = run(t, "verify", token)
	require.NoError(t, err)
	assert.Equal(t, "valid token for ops@example.com\n", out)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Setenv("PFM_OPERATOR_JWT_SECRET", "first-secret")
	out, err := run(t, "generate", "-s", "ops")
	require.NoError(t, err)

	t.Setenv("PFM_OPERATOR_JWT_SECRET", "second-secret")
	_, err = run(t, "verify", strings.TrimSpace(out))
	assert.ErrorContains(t, err, "invalid token")
}

func TestGenerate_RequiresSecret(t *testing.T) {
	t.Setenv("PFM_OPERATOR_JWT_SECRET", "")

	_, err := run(t, "generate", "--subject", "ops")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestGenerate_RequiresSubject(t *testing.T) {
	t.Setenv("PFM_OPERATOR_JWT_SECRET", "cli-test-secret")

	_, err := run(t, "generate")
	assert.Error(t, err)
}
