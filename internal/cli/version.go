package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags "-X github.com/xraph/vault/internal/cli.Version=v0.1.0".
var (
	Version   = "dev"
	GitCommit = ""
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Built   string `json:"built,omitempty"`
}

func (v VersionInfo) String() string {
	s := fmt.Sprintf("version: %s\n", v.Version)
	if v.Commit != "" {
		s += fmt.Sprintf("commit: %s\n", v.Commit)
	}
	if v.Built != "" {
		s += fmt.Sprintf("built: %s\n", v.Built)
	}
	return s
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, _ := debug.ReadBuildInfo()
			return rootOpts.formatter(cmd).Success(resolveVersion(info))
		},
	}
}

// resolveVersion prefers linker-set values and falls back to module and VCS
// build info. info may be nil.
func resolveVersion(info *debug.BuildInfo) VersionInfo {
	v := VersionInfo{Version: Version, Commit: GitCommit}
	if info == nil {
		return v
	}

	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "" {
				v.Commit = s.Value
			}
		case "vcs.time":
			v.Built = s.Value
		}
	}
	return v
}
