// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string

	// LogLevel is the minimum zap level written to the log.
	LogLevel string

	// CleanupInterval is the period of the orphan QR code sweep. Zero disables it.
	CleanupInterval time.Duration

	// QrSize is the edge length of generated QR images in pixels.
	QrSize int
}

// fileOptions mirrors Options in the JSON config file. Empty fields keep the
// flag value.
type fileOptions struct {
	Address         string `json:"address"`
	DatabaseDSN     string `json:"database_dsn"`
	LogLevel        string `json:"log_level"`
	CleanupInterval string `json:"cleanup_interval"`
	QrSize          int    `json:"qr_size"`
}

// Parse parses os.Args and the environment. Invalid input is fatal.
func Parse() *Options {
	options, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// ParseArgs builds Options from flags, then the config file, then the
// environment, each overriding the previous one.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.DurationVar(&options.CleanupInterval, "cleanup", time.Hour, "orphan qr code cleanup interval, 0 disables")
	fs.IntVar(&options.QrSize, "qr-size", 256, "qr image size in pixels")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if err := applyFile(options, options.Config); err != nil {
			return nil, err
		}
	}

	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options, nil
}

func applyFile(options *Options, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	var file fileOptions
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	if file.Address != "" {
		options.Address = file.Address
	}
	if file.DatabaseDSN != "" {
		options.DatabaseDSN = file.DatabaseDSN
	}
	if file.LogLevel != "" {
		options.LogLevel = file.LogLevel
	}
	if file.CleanupInterval != "" {
		d, err := time.ParseDuration(file.CleanupInterval)
		if err != nil {
			return fmt.Errorf("error while parsing cleanup_interval: %w", err)
		}
		options.CleanupInterval = d
	}
	if file.QrSize > 0 {
		options.QrSize = file.QrSize
	}
	return nil
}
