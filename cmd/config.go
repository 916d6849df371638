package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/icodezjb/canarydossier/logger"
	"github.com/icodezjb/canarydossier/network"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultArtifact    = "artifacts/contracts/CanaryDossier.sol/CanaryDossier.json"
	DefaultOutput      = "deployed_address.txt"
	DefaultTestBalance = "10000"
	DefaultTimeout     = 5 * time.Minute
)

// DotEnvFiles are loaded, when present, before the config is read.
var DotEnvFiles = []string{".env", ".env.local"}

type Config struct {
	Artifact    string                    `mapstructure:"artifact"`
	Keystore    string                    `mapstructure:"keystore"`
	Password    string                    `mapstructure:"password"`
	PrivateKey  string                    `mapstructure:"private_key"`
	Aliases     map[string]string         `mapstructure:"aliases"`
	Networks    map[string]network.Config `mapstructure:"networks"`
	Output      string                    `mapstructure:"output"`
	GasLimit    uint64                    `mapstructure:"gas_limit"`
	Timeout     time.Duration             `mapstructure:"timeout"`
	TestBalance string                    `mapstructure:"test_balance"`
	RecordDir   string                    `mapstructure:"record_dir"`
	EnvFile     string                    `mapstructure:"env_file"`
	EnvKey      string                    `mapstructure:"env_key"`
	AssumeYes   bool                      `mapstructure:"yes"`
}

// DefaultConfig is what an empty config file and environment produce.
func DefaultConfig() *Config {
	return &Config{
		Artifact:    DefaultArtifact,
		Output:      DefaultOutput,
		Timeout:     DefaultTimeout,
		TestBalance: DefaultTestBalance,
	}
}

// NetworkTable is the builtin network table with the configured overrides.
func (c *Config) NetworkTable() map[string]network.Config {
	return network.Table(c.Networks)
}

// LoadDotEnv loads the dotenv files that exist. Variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load %v", f)
		}
		logger.Debug("loaded env file %v", f)
	}
	return nil
}

// SetupViper layers flags over CANARY_* env vars over the config file over
// defaults. cfgPath may be empty, in which case ./canary.{json,yaml,toml} is
// used when it exists.
func SetupViper(cmd *cobra.Command, cfgPath string) (*viper.Viper, error) {
	v := viper.New()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("canary")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CANARY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("private_key", "CANARY_PRIVATE_KEY", "PRIVATE_KEY"); err != nil {
		return nil, err
	}

	def := DefaultConfig()
	v.SetDefault("artifact", def.Artifact)
	v.SetDefault("output", def.Output)
	v.SetDefault("timeout", def.Timeout.String())
	v.SetDefault("test_balance", def.TestBalance)
	v.SetDefault("keystore", "")
	v.SetDefault("password", "")
	v.SetDefault("gas_limit", 0)
	v.SetDefault("record_dir", "")
	v.SetDefault("env_file", "")
	v.SetDefault("env_key", "")
	v.SetDefault("yes", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgPath != "" {
			return nil, errors.Wrapf(err, "read config file (%s)", v.ConfigFileUsed())
		}
	}

	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || f.Name == "help" || f.Name == "version" {
				return
			}
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	return v, nil
}

// ParseConfig decodes v into a Config.
func ParseConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file (%s)", v.ConfigFileUsed())
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return cfg, nil
}

// LoadConfig is LoadDotEnv, SetupViper and ParseConfig in one go.
func LoadConfig(cmd *cobra.Command, cfgPath string) (*Config, error) {
	if err := LoadDotEnv(DotEnvFiles...); err != nil {
		return nil, err
	}

	v, err := SetupViper(cmd, cfgPath)
	if err != nil {
		return nil, err
	}

	return ParseConfig(v)
}
