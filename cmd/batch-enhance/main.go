package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/fpang/batch-enhance/internal/config"
	"github.com/fpang/batch-enhance/internal/enhancer"
	"github.com/fpang/batch-enhance/internal/logging"
	"github.com/fpang/batch-enhance/internal/s3util"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI flags
var (
	configFlag       string
	directoryFlag    string
	toolFlag         string
	logFileFlag      string
	logLevelFlag     string
	promptFlag       string
	sizeFlag         string
	limitFlag        int
	delayFlag        time.Duration
	uploadBucketFlag string
	uploadPrefixFlag string
)

// rootCmd is the main Cobra command for the batch-enhance CLI.
var rootCmd = &cobra.Command{
	Use:   "batch-enhance",
	Short: "Enhance every image in a folder with an external image tool",
	Long: `Batch Enhance scans a folder for .jpg images and runs each one through an
external image tool ("image-tool edit --json ...") to upscale, sharpen and
remove compression artifacts. Results are saved next to the input as
<name>-enhanced.png.

Images that already have an enhanced output are skipped, so the command can
be re-run safely after an interruption. Images are processed one at a time
with a pause between them. Progress goes to the console and to a log file.

Settings come from defaults, an optional YAML file (--config), ENHANCE_*
environment variables (a .env file is loaded if present) and flags, in that
order of precedence.

Examples:
  batch-enhance --directory /path/to/photos
  batch-enhance -d ./photos --tool ~/.local/bin/image-tool --limit 1
  batch-enhance -d ./photos --delay 5s --log-file ./enhance.log
  batch-enhance --config enhance.yaml --upload-bucket my-bucket`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()
	},
	RunE: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "YAML configuration file")
	rootCmd.Flags().StringVarP(&directoryFlag, "directory", "d", "", "Folder containing images to enhance (default \".\")")
	rootCmd.Flags().StringVar(&toolFlag, "tool", "", "Path to the image tool executable (default ~/.local/bin/image-tool)")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Log file (default <directory>/"+config.DefaultLogFileName+")")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default info)")
	rootCmd.Flags().StringVar(&promptFlag, "prompt", "", "Enhancement instruction sent to the tool")
	rootCmd.Flags().StringVar(&sizeFlag, "size", "", "Output size requested from the tool (default \"auto\")")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum images to process per run (0 = unlimited)")
	rootCmd.Flags().DurationVar(&delayFlag, "delay", config.DefaultDelay, "Pause between images")
	rootCmd.Flags().StringVar(&uploadBucketFlag, "upload-bucket", "", "Also upload enhanced images to this S3 bucket")
	rootCmd.Flags().StringVar(&uploadPrefixFlag, "upload-prefix", "", "S3 key prefix for uploaded images")
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra. Per-image failures
// are logged and never turn into a non-zero exit.
func runMain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.Init(cfg.LogLevel, cfg.LogPath())

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	logging.NewStartupLogger("batch-enhance").
		Version(version).
		RunID(runID).
		Config("directory", cfg.Directory).
		Config("tool", cfg.ToolPath).
		Config("logFile", cfg.LogPath()).
		Config("limit", strconv.Itoa(cfg.Limit)).
		Config("delay", cfg.Delay.String()).
		Feature("upload", cfg.Upload.Bucket != "").
		Log(logger)

	ctx := cmd.Context()
	opts := []enhancer.Option{enhancer.WithLogger(logger)}
	if cfg.Upload.Bucket != "" {
		uploader, err := s3util.NewUploader(ctx, cfg.Upload.Bucket, cfg.Upload.Prefix, cfg.Upload.Region)
		if err != nil {
			return err
		}
		opts = append(opts, enhancer.WithPublisher(uploader))
	}

	batch := enhancer.New(cfg, enhancer.NewExecTool(cfg.ToolPath), opts...)
	if _, err := batch.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		logger.Error().Err(err).Msg("Batch aborted")
		return err
	}
	return nil
}

// loadConfig layers explicitly set flags over the file and environment
// configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("directory") {
		cfg.Directory = directoryFlag
	}
	if flags.Changed("tool") {
		cfg.ToolPath = toolFlag
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFileFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if flags.Changed("prompt") {
		cfg.Prompt = promptFlag
	}
	if flags.Changed("size") {
		cfg.Size = sizeFlag
	}
	if flags.Changed("limit") {
		cfg.Limit = limitFlag
	}
	if flags.Changed("delay") {
		cfg.Delay = delayFlag
	}
	if flags.Changed("upload-bucket") {
		cfg.Upload.Bucket = uploadBucketFlag
	}
	if flags.Changed("upload-prefix") {
		cfg.Upload.Prefix = uploadPrefixFlag
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
