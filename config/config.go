// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`

	// DataDir is where audio artifacts and the local database live.
	DataDir string `mapstructure:"data_dir" validate:"required"`

	// Speech-to-text credential. Empty is allowed at load time; live mode
	// start fails with a configuration error when it is missing.
	SpeechApiKey string `mapstructure:"speech_api_key"`

	// AI companion / summary generation.
	OpenAIApiKey    string `mapstructure:"openai_api_key"`
	SummaryModel    string `mapstructure:"summary_model"`
	AssistantRetry  int    `mapstructure:"assistant_retry" validate:"gte=0"`
	CloudSyncHost   string `mapstructure:"cloud_sync_host"`
	CloudSyncApiKey string `mapstructure:"cloud_sync_api_key"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "scribe")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("SPEECH_API_KEY", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("SUMMARY_MODEL", "gpt-4o-mini")
	v.SetDefault("ASSISTANT_RETRY", 3)
	v.SetDefault("CLOUD_SYNC_HOST", "")
	v.SetDefault("CLOUD_SYNC_API_KEY", "")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
