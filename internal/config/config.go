package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL        string
	ChainName     string
	ChainID       uint64
	AggregatorURL string
	StableToken   string
	WrappedNative string
	TrackedToken  string
	FactoryAddr   string
	CallTimeout   time.Duration
	CacheTTL      time.Duration
	FanOut        int
	Port          int
	RedisAddr     string
	PGDSN         string
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRICED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain", "base")
	v.SetDefault("chain-id", uint64(8453))
	v.SetDefault("aggregator-url", "https://coins.llama.fi")
	v.SetDefault("stable-token", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	v.SetDefault("wrapped-native-token", "0x4200000000000000000000000000000000000006")
	v.SetDefault("tracked-token", "0x940181a94A35A4569E4529A3CDfB74e38FD98631")
	v.SetDefault("factory-address", "0x420DD381b31aEf6683db6B902084cB0FFECe40Da")
	v.SetDefault("call-timeout", 5*time.Second)
	v.SetDefault("cache-ttl", 30*time.Second)
	v.SetDefault("fan-out", 4)
	v.SetDefault("port", 8080)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		ChainName:     v.GetString("chain"),
		ChainID:       v.GetUint64("chain-id"),
		AggregatorURL: v.GetString("aggregator-url"),
		StableToken:   v.GetString("stable-token"),
		WrappedNative: v.GetString("wrapped-native-token"),
		TrackedToken:  v.GetString("tracked-token"),
		FactoryAddr:   v.GetString("factory-address"),
		CallTimeout:   v.GetDuration("call-timeout"),
		CacheTTL:      v.GetDuration("cache-ttl"),
		FanOut:        v.GetInt("fan-out"),
		Port:          v.GetInt("port"),
		RedisAddr:     v.GetString("redis-addr"),
		PGDSN:         v.GetString("pg-dsn"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings the resolver cannot run without.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.ChainName == "" {
		return fmt.Errorf("chain name is required")
	}
	for name, addr := range map[string]string{
		"stable-token":         c.StableToken,
		"wrapped-native-token": c.WrappedNative,
		"tracked-token":        c.TrackedToken,
		"factory-address":      c.FactoryAddr,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a valid address: %q", name, addr)
		}
	}
	return nil
}
