package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QuoteConfig holds inputs for a one-off swap quote. Amounts are decimal
// strings so they are not capped at uint64.
type QuoteConfig struct {
	AmountIn   string
	ReserveIn  string
	ReserveOut string
	LogLevel   string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return QuoteConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return QuoteConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return QuoteConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := QuoteConfig{
		AmountIn:   v.GetString("amount-in"),
		ReserveIn:  v.GetString("reserve-in"),
		ReserveOut: v.GetString("reserve-out"),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}
