package x

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"roofscore/apps/go/scorer/types"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding config values, e.g.
// ROOFSCORE_TEMPORAL_TASK_QUEUE for temporal.task_queue.
const EnvPrefix = "ROOFSCORE"

// ConfigPath is CONFIG_PATH, or $HOME/..AppName../config.json when unset.
func ConfigPath() string {
	configPathEnv := os.Getenv("CONFIG_PATH")
	configPathDefault := filepath.Join(os.ExpandEnv("$HOME"), AppName, "config.json")
	if configPathEnv == "" {
		log.Warn().Str("Default", configPathDefault).Msg("Missing CONFIG_PATH. Using default")
		configPathEnv = configPathDefault
	}
	return configPathEnv
}

// LoadConfigFile reads the config file, loading a .env file first when there is one.
func LoadConfigFile() *types.Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("unable to load .env file")
	}

	configFilePath, err := filepath.Abs(ConfigPath())
	if err != nil {
		log.Fatal().Str("Path", configFilePath).Msg("unable to resolve path")
	}

	c, err := ReadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Str("Path", configFilePath).Msg("cannot read config file")
	}
	return c
}

// ReadConfig decodes the JSON config file over the defaults, then applies the environment overrides.
func ReadConfig(path string) (*types.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := types.Config{}
	if err = json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("cannot read config file into json: %w", err)
	}

	merged, err := json.Marshal(&c)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err = v.ReadConfig(bytes.NewReader(merged)); err != nil {
		return nil, err
	}

	out := types.Config{}
	if err = v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("cannot apply environment overrides: %w", err)
	}
	return &out, nil
}
