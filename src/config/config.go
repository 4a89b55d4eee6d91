package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var (
	// DataDir holds the database and state files.
	DataDir     = "planner-data"
	LogFile     = "log.log"
	LogLevel    = "info"
	TopCount    = 10
	KeepBackups = false
	config      *configStruct
)

type configStruct struct {
	DataDir     *string `json:"DataDir"`
	LogFile     *string `json:"LogFile"`
	LogLevel    *string `json:"LogLevel"`
	TopCount    *int    `json:"TopCount"`
	KeepBackups *bool   `json:"KeepBackups"`
}

// ReadConfig loads the configuration file, then applies PLANNER_* environment
// overrides. Variables from a .env file count as environment. A missing
// configuration file keeps the defaults.
func ReadConfig(filename string) error {
	file, err := os.ReadFile(filename)
	switch {
	case err == nil:
		config = &configStruct{}
		if err := json.Unmarshal(file, config); err != nil {
			return errors.Wrapf(err, "parsing %s", filename)
		}
		applyFile(config)
	case !os.IsNotExist(err):
		return errors.Wrapf(err, "reading %s", filename)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrap(err, "loading .env")
	}
	return applyEnv()
}

func applyFile(c *configStruct) {
	if c.DataDir != nil {
		DataDir = *c.DataDir
	}
	if c.LogFile != nil {
		LogFile = *c.LogFile
	}
	if c.LogLevel != nil {
		LogLevel = *c.LogLevel
	}
	if c.TopCount != nil {
		TopCount = *c.TopCount
	}
	if c.KeepBackups != nil {
		KeepBackups = *c.KeepBackups
	}
}

func applyEnv() error {
	if v, ok := os.LookupEnv("PLANNER_DATA_DIR"); ok {
		DataDir = v
	}
	if v, ok := os.LookupEnv("PLANNER_LOG_FILE"); ok {
		LogFile = v
	}
	if v, ok := os.LookupEnv("PLANNER_LOG_LEVEL"); ok {
		LogLevel = v
	}
	if v, ok := os.LookupEnv("PLANNER_TOP_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.Errorf("PLANNER_TOP_COUNT must be a positive integer, got %q", v)
		}
		TopCount = n
	}
	if v, ok := os.LookupEnv("PLANNER_KEEP_BACKUPS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("PLANNER_KEEP_BACKUPS must be a boolean, got %q", v)
		}
		KeepBackups = b
	}
	return nil
}
