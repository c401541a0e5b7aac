package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "vaultctl", cmd.Use)
	assert.Contains(t, cmd.Long, "yield")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"simulate", "quote", "version"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestQuoteCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	quoteCmd, _, err := cmd.Find([]string{"quote"})
	require.NoError(t, err)

	for _, name := range []string{"amount", "shares", "rate", "fee-bps"} {
		assert.NotNil(t, quoteCmd.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, "1", quoteCmd.Flags().Lookup("rate").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--format", "xml", "version"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigFileSetsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o600))

	out, err := runRoot(t, "--config", path, "quote", "--amount", "100")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFlagOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o600))

	out, err := runRoot(t, "--config", path, "--format", "text", "quote", "--amount", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "deposit: amount=100 fee_bps=0 rate=1")
}

func TestEnvSetsFormat(t *testing.T) {
	t.Setenv("VAULTCTL_FORMAT", "json")

	out, err := runRoot(t, "quote", "--shares", "5", "--rate", "3")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	redeem, ok := data["redeem"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(15), redeem["payout"])
}

func TestMissingConfigFile(t *testing.T) {
	_, err := runRoot(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "load config")
}
