package smu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SMU_RESOURCE", "")
	t.Setenv("SMU_TIMEOUT_MS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()
	require.Equal(t, "TCPIP0::localhost::inst0::INSTR", cfg.Resource)
	require.True(t, cfg.IDQuery)
	require.True(t, cfg.Reset)
	require.Equal(t, uint32(100000), cfg.TimeoutMs)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SMU_RESOURCE", "USB0::0x0957::0x8C18::MY51140000::0::INSTR")
	t.Setenv("SMU_ID_QUERY", "false")
	t.Setenv("SMU_RESET", "false")
	t.Setenv("SMU_TIMEOUT_MS", "5000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	require.Equal(t, "USB0::0x0957::0x8C18::MY51140000::0::INSTR", cfg.Resource)
	require.False(t, cfg.IDQuery)
	require.False(t, cfg.Reset)
	require.Equal(t, uint32(5000), cfg.TimeoutMs)
	require.Equal(t, "debug", cfg.LogLevel)
}
