package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("WORKTRACK_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOrDefault("WORKTRACK_TEST_VALUE", "fallback"))

	t.Setenv("WORKTRACK_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOrDefault("WORKTRACK_TEST_VALUE", "fallback"))
}

func TestEnvBool(t *testing.T) {
	t.Setenv("WORKTRACK_TEST_FLAG", "")
	v, err := EnvBool("WORKTRACK_TEST_FLAG", true)
	require.NoError(t, err)
	assert.True(t, v)

	t.Setenv("WORKTRACK_TEST_FLAG", "false")
	v, err = EnvBool("WORKTRACK_TEST_FLAG", true)
	require.NoError(t, err)
	assert.False(t, v)

	t.Setenv("WORKTRACK_TEST_FLAG", "sometimes")
	_, err = EnvBool("WORKTRACK_TEST_FLAG", false)
	assert.ErrorContains(t, err, "WORKTRACK_TEST_FLAG")
}
