// Package config holds the batch enhancer configuration.
//
// Values are resolved in increasing order of precedence: built-in defaults,
// an optional YAML file, ENHANCE_* environment variables (a .env file in the
// working directory is loaded by the CLI before this runs), and finally
// command-line flags applied by cmd/batch-enhance.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPrompt is the enhancement instruction sent with every request.
const DefaultPrompt = "Upscale to 4K resolution, significantly improve sharpness and clarity, remove jpeg artifacts, and enhance details for a professional look."

const (
	// DefaultSize lets the tool pick the output size.
	DefaultSize = "auto"

	DefaultInputExt     = ".jpg"
	DefaultOutputSuffix = "-enhanced"
	DefaultOutputExt    = ".png"

	// DefaultDelay is the pause between consecutive jobs.
	DefaultDelay = 2 * time.Second

	// DefaultLogFileName is used when no log file is configured; it lives in
	// the processed directory.
	DefaultLogFileName = "process_images.log"
)

// UploadConfig configures optional publishing of enhanced images to S3.
// Publishing is disabled when Bucket is empty.
type UploadConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// Config is everything the batch enhancer needs to run.
type Config struct {
	// Directory is scanned (non-recursively) for input images.
	Directory string `yaml:"directory"`

	// ToolPath is the absolute path of the external image tool.
	ToolPath string `yaml:"tool_path"`

	// LogFile receives a copy of every console line. Empty means
	// <Directory>/process_images.log.
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	Prompt string `yaml:"prompt"`
	Size   string `yaml:"size"`

	InputExt     string `yaml:"input_ext"`
	OutputSuffix string `yaml:"output_suffix"`
	OutputExt    string `yaml:"output_ext"`

	// Limit caps the number of discovered images processed per run. 0 = unlimited.
	Limit int `yaml:"limit"`

	// Delay is the fixed pause between jobs.
	Delay time.Duration `yaml:"delay"`

	Upload UploadConfig `yaml:"upload"`
}

// DefaultToolPath returns ~/.local/bin/image-tool, or a relative image-tool
// if the home directory cannot be determined.
func DefaultToolPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "image-tool"
	}
	return filepath.Join(home, ".local", "bin", "image-tool")
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Directory:    ".",
		ToolPath:     DefaultToolPath(),
		LogLevel:     "info",
		Prompt:       DefaultPrompt,
		Size:         DefaultSize,
		InputExt:     DefaultInputExt,
		OutputSuffix: DefaultOutputSuffix,
		OutputExt:    DefaultOutputExt,
		Delay:        DefaultDelay,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ENHANCE_DIRECTORY":     &c.Directory,
		"ENHANCE_TOOL_PATH":     &c.ToolPath,
		"ENHANCE_LOG_FILE":      &c.LogFile,
		"ENHANCE_LOG_LEVEL":     &c.LogLevel,
		"ENHANCE_PROMPT":        &c.Prompt,
		"ENHANCE_SIZE":          &c.Size,
		"ENHANCE_INPUT_EXT":     &c.InputExt,
		"ENHANCE_OUTPUT_SUFFIX": &c.OutputSuffix,
		"ENHANCE_OUTPUT_EXT":    &c.OutputExt,
		"ENHANCE_UPLOAD_BUCKET": &c.Upload.Bucket,
		"ENHANCE_UPLOAD_PREFIX": &c.Upload.Prefix,
		"ENHANCE_UPLOAD_REGION": &c.Upload.Region,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("ENHANCE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ENHANCE_LIMIT %q: %w", v, err)
		}
		c.Limit = n
	}
	if v := os.Getenv("ENHANCE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ENHANCE_DELAY %q: %w", v, err)
		}
		c.Delay = d
	}
	return nil
}

// LogPath returns the effective log file path.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.Directory, DefaultLogFileName)
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Directory) == "" {
		errs = append(errs, errors.New("directory is required"))
	}
	if strings.TrimSpace(c.ToolPath) == "" {
		errs = append(errs, errors.New("tool path is required"))
	}
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must be >= 0, got %d", c.Limit))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must be >= 0, got %s", c.Delay))
	}
	for name, ext := range map[string]string{"input extension": c.InputExt, "output extension": c.OutputExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 || strings.ContainsAny(ext, `/\`) {
			errs = append(errs, fmt.Errorf("%s must look like \".jpg\", got %q", name, ext))
		}
	}
	// Outputs would otherwise be rediscovered as inputs with an identical name.
	if c.OutputSuffix == "" && strings.EqualFold(c.InputExt, c.OutputExt) {
		errs = append(errs, errors.New("output suffix must be set when input and output extensions match"))
	}
	return errors.Join(errs...)
}
