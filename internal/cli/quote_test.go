package cli

import (
	"bytes"
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteGolden(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewQuoteCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--amount", "10000", "--shares", "198", "--rate", "50", "--fee-bps", "100"})

	require.NoError(t, cmd.Execute())
	newGolden(t).Assert(t, "quote_deposit", buf.Bytes())
}

func TestQuoteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewQuoteCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--amount", "1049", "--rate", "10", "--fee-bps", "100"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string      `json:"status"`
		Data   QuoteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data.Deposit)
	assert.Equal(t, int64(10), resp.Data.Deposit.Fee)
	assert.Equal(t, int64(1039), resp.Data.Deposit.Net)
	assert.Equal(t, int64(103), resp.Data.Deposit.Shares)
	assert.Equal(t, int64(1), resp.Data.Deposit.FeeShares)
	assert.Equal(t, int64(9), resp.Data.Dust)
	assert.Nil(t, resp.Data.Redeem)
}

func TestQuoteRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing to quote", []string{}, "one of --amount or --shares"},
		{"negative shares", []string{"--amount", "10", "--shares", "-1"}, "must not be negative"},
		{"zero rate", []string{"--amount", "10", "--rate", "0"}, "--rate must be greater than zero"},
		{"fee above 100%", []string{"--amount", "10", "--fee-bps", "10001"}, "--fee-bps must be between 0 and 10000"},
		{"overflow", []string{"--shares", "9223372036854775807", "--rate", "2"}, "quote redemption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewQuoteCommand(&RootOptions{Format: "text"})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveVersion(t *testing.T) {
	t.Run("no build info", func(t *testing.T) {
		v := resolveVersion(nil)
		assert.Equal(t, Version, v.Version)
	})

	t.Run("module and vcs settings", func(t *testing.T) {
		info := &debug.BuildInfo{
			Main: debug.Module{Path: "github.com/xraph/vault", Version: "v0.3.0"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			},
		}
		v := resolveVersion(info)
		assert.Equal(t, "v0.3.0", v.Version)
		assert.Equal(t, "abc123", v.Commit)
		assert.Equal(t, "2026-01-02T03:04:05Z", v.Built)
	})

	t.Run("devel build keeps default", func(t *testing.T) {
		v := resolveVersion(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		assert.Equal(t, "dev", v.Version)
	})
}

func TestVersionCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewVersionCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "version: ")
}
