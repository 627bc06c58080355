package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/cast"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
)

// Accepted values of the enumerated settings.
var (
	DataSources = []string{"erddap", "localftp", "argovis"}
	Datasets    = []string{"phy", "bgc", "ref"}
)

// Config holds all service settings, populated from environment variables
// layered over an optional TOML file.
type Config struct {
	DataSrc   string
	Dataset   string
	LocalFTP  string
	OutputDir string
	// OutputForm is the shape datasets are written in.
	OutputForm     dataset.Mode
	FilterDataMode bool
	KeepError      bool
	Floats         []domain.FloatRef
	Workers        int
	CacheSize      int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// file mirrors the settings a TOML file named by ARGO_CONFIG may carry.
// Environment variables take precedence over it.
type file struct {
	DataSrc        string `toml:"data_src"`
	Dataset        string `toml:"dataset"`
	LocalFTP       string `toml:"local_ftp"`
	OutputDir      string `toml:"output_dir"`
	OutputForm     string `toml:"output_form"`
	FilterDataMode *bool  `toml:"filter_data_mode"`
	KeepError      *bool  `toml:"keep_error"`
	Floats         string `toml:"floats"`
	Workers        int    `toml:"workers"`
	CacheSize      int    `toml:"cache_size"`
	HTTPAddr       string `toml:"http_addr"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
}

// Load reads configuration from environment variables, applying file values
// and then defaults where unset.
func Load() (*Config, error) {
	var f file
	if path := os.Getenv("ARGO_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("invalid ARGO_CONFIG: %w", err)
		}
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataSrc:         sharedcfg.EnvOrDefault("ARGO_DATA_SRC", or(f.DataSrc, "localftp")),
		Dataset:         sharedcfg.EnvOrDefault("ARGO_DATASET", or(f.Dataset, "phy")),
		LocalFTP:        sharedcfg.EnvOrDefault("ARGO_LOCAL_FTP", or(f.LocalFTP, ".")),
		OutputDir:       sharedcfg.EnvOrDefault("ARGO_OUTPUT_DIR", or(f.OutputDir, "output")),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", or(f.HTTPAddr, ":8080")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", or(f.LogLevel, "info")),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", or(f.LogFormat, "json")),
		ShutdownTimeout: shutdownTimeout,
	}

	if !slices.Contains(DataSources, cfg.DataSrc) {
		return nil, fmt.Errorf("invalid ARGO_DATA_SRC %q: must be one of %v", cfg.DataSrc, DataSources)
	}
	if !slices.Contains(Datasets, cfg.Dataset) {
		return nil, fmt.Errorf("invalid ARGO_DATASET %q: must be one of %v", cfg.Dataset, Datasets)
	}
	if fi, err := os.Stat(cfg.LocalFTP); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("invalid ARGO_LOCAL_FTP %q: not an existing directory", cfg.LocalFTP)
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("ARGO_OUTPUT_DIR is required")
	}

	form := sharedcfg.EnvOrDefault("ARGO_OUTPUT_FORM", or(f.OutputForm, "point"))
	if cfg.OutputForm, err = dataset.ParseMode(form); err != nil {
		return nil, fmt.Errorf("invalid ARGO_OUTPUT_FORM %q: must be point or profile", form)
	}
	if cfg.FilterDataMode, err = parseBool("ARGO_FILTER_DATA_MODE", f.FilterDataMode); err != nil {
		return nil, err
	}
	if cfg.KeepError, err = parseBool("ARGO_KEEP_ERROR", f.KeepError); err != nil {
		return nil, err
	}

	floats := sharedcfg.EnvOrDefault("ARGO_FLOATS", f.Floats)
	if cfg.Floats, err = domain.ParseFloatRefs(floats); err != nil {
		return nil, fmt.Errorf("invalid ARGO_FLOATS: %w", err)
	}

	if cfg.Workers, err = parseInt("ARGO_WORKERS", f.Workers, 4); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 || cfg.Workers > 64 {
		return nil, fmt.Errorf("invalid ARGO_WORKERS %d: must be between 1 and 64", cfg.Workers)
	}
	if cfg.CacheSize, err = parseInt("ARGO_CACHE_SIZE", f.CacheSize, 16); err != nil {
		return nil, err
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("invalid ARGO_CACHE_SIZE %d: must be positive", cfg.CacheSize)
	}

	return cfg, nil
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// parseBool reads a boolean setting that defaults to true.
func parseBool(key string, fromFile *bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		if fromFile != nil {
			return *fromFile, nil
		}
		return true, nil
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be a boolean", key, s)
	}
	return b, nil
}

func parseInt(key string, fromFile, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		if fromFile != 0 {
			return fromFile, nil
		}
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", key, s)
	}
	return n, nil
}
