// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("crypto.secret", "crypto_secret")

	v.BindEnv("images.directory", "images_directory")
	v.BindEnv("images.trash_directory", "images_trash_directory")
	v.BindEnv("images.max_upload_size", "images_max_upload_size")
	v.BindEnv("images.trash_retention_hours", "images_trash_retention_hours")

	v.BindEnv("twitter.client_id", "twitter_client_id")
	v.BindEnv("twitter.client_secret", "twitter_client_secret")
	v.BindEnv("twitter.callback_url", "twitter_callback_url")

	v.BindEnv("reddit.client_id", "reddit_client_id")
	v.BindEnv("reddit.client_secret", "reddit_client_secret")
	v.BindEnv("reddit.callback_url", "reddit_callback_url")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("images.directory", "./artworkimg")
	v.SetDefault("images.trash_directory", "./artworkimg/trash")
	v.SetDefault("images.max_upload_size", 50)
	v.SetDefault("images.trash_retention_hours", 72)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetString("crypto.secret") == "" {
		fmt.Println("WARNING: You haven't set a crypto secret used to encrypt social media credentials. Your random crypto secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("images.max_upload_size") <= 0 {
		return errors.New("images.max_upload_size must be bigger than 0")
	}

	if v.GetInt("images.trash_retention_hours") <= 0 {
		return errors.New("images.trash_retention_hours must be bigger than 0")
	}

	for _, key := range []string{"images.directory", "images.trash_directory"} {
		if err := os.MkdirAll(v.GetString(key), 0o755); err != nil {
			return fmt.Errorf("failed to create %s, %w", key, err)
		}
	}

	// Megabytes in the file, bytes everywhere else
	v.Set("images.max_upload_size", v.GetInt64("images.max_upload_size")<<20)
	v.Set("images.trash_retention", time.Duration(v.GetInt("images.trash_retention_hours"))*time.Hour)

	return nil
}
