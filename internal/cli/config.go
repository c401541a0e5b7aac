package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. VAULTCTL_FORMAT=json.
const EnvPrefix = "VAULTCTL"

// LoadConfig layers defaults, an optional vaultctl.yaml, VAULTCTL_*
// environment variables and explicitly set flags into v, in increasing
// precedence. A missing config file is not an error unless path names one.
func LoadConfig(v *viper.Viper, path string, flags *pflag.FlagSet) error {
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vaultctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "vaultctl"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return err
		}
	}
	return nil
}
