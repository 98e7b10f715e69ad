package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultWebRoot, cfg.WebRoot)
}

func TestLoadExplicitPortAndRoot(t *testing.T) {
	cfg, err := Load([]string{"-p", "9000", "-r", "/srv/www"})
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/www", cfg.WebRoot)
}

func TestLoadPortFallsBackOnUnparsable(t *testing.T) {
	cfg, err := Load([]string{"-p", "not-a-number"})
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
}

func TestLoadPortFallsBackWhenZeroOrNegative(t *testing.T) {
	cfg, err := Load([]string{"-p", "0"})
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)

	cfg, err = Load([]string{"-p", "-5"})
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
}

func TestLoadPortFallsBackWhenOutOfRange(t *testing.T) {
	cfg, err := Load([]string{"-p", "65536"})
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
}

func TestLoadPortBoundaryValuesAreAccepted(t *testing.T) {
	cfg, err := Load([]string{"-p", "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Port)

	cfg, err = Load([]string{"-p", "65535"})
	require.NoError(t, err)
	assert.Equal(t, 65535, cfg.Port)
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	_, err := Load([]string{"-bogus"})
	assert.Error(t, err)
}
