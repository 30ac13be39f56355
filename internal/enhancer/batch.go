// Package enhancer runs the batch enhancement workflow: discover input images
// in a folder, hand each one that has no output yet to the image tool, and
// move the tool's result into place.
//
// A job whose output file exists is complete, so re-running a batch only
// processes what is left. Jobs run one at a time with a fixed pause between
// them. Per-job failures are logged and never stop the batch.
package enhancer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fpang/batch-enhance/internal/config"
	"github.com/fpang/batch-enhance/internal/filehandler"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Publisher copies a finished output somewhere else (e.g. S3) and returns
// where it went.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// BatchEnhancer enhances every image in one folder.
type BatchEnhancer struct {
	cfg       config.Config
	tool      Tool
	publisher Publisher
	logger    zerolog.Logger
}

// Option customises a BatchEnhancer.
type Option func(*BatchEnhancer)

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *BatchEnhancer) { b.logger = l }
}

// WithPublisher publishes each newly enhanced image.
func WithPublisher(p Publisher) Option {
	return func(b *BatchEnhancer) { b.publisher = p }
}

// New returns a BatchEnhancer for cfg that enhances through tool.
func New(cfg config.Config, tool Tool, opts ...Option) *BatchEnhancer {
	b := &BatchEnhancer{
		cfg:    cfg,
		tool:   tool,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Discover returns one job per input image in the configured folder, sorted
// by name. When two inputs map to the same output (photo.jpg and photo.JPG)
// only the first is kept.
func (b *BatchEnhancer) Discover() ([]ImageJob, error) {
	files, err := filehandler.ScanDirectory(b.cfg.Directory, b.cfg.InputExt)
	if err != nil {
		return nil, err
	}

	jobs := make([]ImageJob, 0, len(files))
	outputs := make(map[string]string, len(files))
	for _, f := range files {
		job := NewImageJob(f, b.cfg.OutputSuffix, b.cfg.OutputExt)
		if prev, ok := outputs[job.Output]; ok {
			b.logger.Warn().
				Str("file", job.Name()).
				Str("conflicts_with", prev).
				Str("output", job.Output).
				Msg("Skipping image whose output name is already taken")
			continue
		}
		outputs[job.Output] = job.Input
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Run discovers and processes the folder. The returned error is non-nil only
// when the batch itself cannot proceed (unreadable folder, cancelled
// context); failed jobs are reported in the Summary.
func (b *BatchEnhancer) Run(ctx context.Context) (Summary, error) {
	b.logger.Info().
		Str("directory", b.cfg.Directory).
		Msg("Starting batch image enhancement...")

	jobs, err := b.Discover()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to discover images: %w", err)
	}

	summary := Summary{Total: len(jobs)}
	if len(jobs) == 0 {
		b.logger.Info().
			Str("directory", b.cfg.Directory).
			Str("extension", b.cfg.InputExt).
			Msg("No images found in folder.")
		return summary, nil
	}

	selected := jobs
	if b.cfg.Limit > 0 && b.cfg.Limit < len(jobs) {
		selected = jobs[:b.cfg.Limit]
		b.logger.Info().
			Int("limit", b.cfg.Limit).
			Int("total", len(jobs)).
			Msg("Processing a limited number of images")
	}

	for i, job := range selected {
		if i > 0 {
			if err := sleep(ctx, b.cfg.Delay); err != nil {
				b.logger.Warn().
					Int("processed", summary.Processed).
					Int("total", summary.Total).
					Msg("Batch interrupted")
				return summary, err
			}
		}
		summary.record(b.ProcessOne(ctx, job))
	}

	b.logger.Info().
		Int("succeeded", summary.Counts[OutcomeSucceeded]).
		Int("skipped", summary.Counts[OutcomeSkipped]).
		Int("failed", summary.Failed()).
		Msgf("Batch processing complete. Processed %d/%d images.", summary.Processed, summary.Total)

	return summary, nil
}

// ProcessOne enhances a single image unless its output already exists. It
// never returns an error: every outcome is logged as exactly one line and
// reported through the returned Outcome.
func (b *BatchEnhancer) ProcessOne(ctx context.Context, job ImageJob) (outcome Outcome) {
	name := job.Name()

	if filehandler.Exists(job.Output) {
		b.logger.Info().Str("file", name).Msg("Skipping image (already enhanced)")
		return OutcomeSkipped
	}

	b.logger.Info().Str("file", name).Msg("Processing image...")

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("file", name).
				Str("error", fmt.Sprint(r)).
				Msg("Exception processing image")
			outcome = OutcomeException
		}
	}()

	b.logInputMetadata(job)

	result, err := b.tool.Enhance(ctx, ToolRequest{
		File:   job.Input,
		Prompt: b.cfg.Prompt,
		Size:   b.cfg.Size,
	})
	if err != nil {
		return b.logToolFailure(name, err)
	}

	if err := filehandler.MoveFile(result.Image, job.Output); err != nil {
		b.logger.Error().
			Err(err).
			Str("file", name).
			Str("tool_output", result.Image).
			Msg("Exception processing image")
		return OutcomeException
	}

	evt := b.logger.Info().
		Str("file", name).
		Str("output", job.Output)
	if w, h, err := filehandler.ImageDimensions(job.Output); err == nil {
		evt = evt.Int("width", w).Int("height", h)
	}
	evt.Msg("Successfully enhanced image")

	b.publish(ctx, job)
	return OutcomeSucceeded
}

func (b *BatchEnhancer) logToolFailure(name string, err error) Outcome {
	var (
		crashed   *ToolCrashedError
		malformed *MalformedOutputError
		reported  *ToolReportedError
	)

	switch {
	case errors.Is(err, ErrToolMissing):
		b.logger.Error().
			Str("file", name).
			Str("tool", b.cfg.ToolPath).
			Msg("Error: image tool not found")
		return OutcomeToolMissing

	case errors.As(err, &crashed):
		b.logger.Error().
			Str("file", name).
			Int("exit_code", crashed.ExitCode).
			Str("stderr", crashed.Stderr).
			Msg("Error processing image")
		return OutcomeToolCrashed

	case errors.As(err, &malformed):
		b.logger.Error().
			Str("file", name).
			Str("output", malformed.Raw).
			Msg("Invalid output from image tool")
		return OutcomeMalformedOutput

	case errors.As(err, &reported):
		b.logger.Error().
			Str("file", name).
			Str("error", reported.Message).
			Msg("Tool error")
		return OutcomeToolError

	default:
		b.logger.Error().
			Err(err).
			Str("file", name).
			Msg("Exception processing image")
		return OutcomeException
	}
}

// logInputMetadata records EXIF details of the input at debug level. Missing
// or unreadable metadata is not an error.
func (b *BatchEnhancer) logInputMetadata(job ImageJob) {
	evt := b.logger.Debug()
	if !evt.Enabled() {
		return
	}

	evt = evt.Str("file", job.Name())
	if info, err := os.Stat(job.Input); err == nil {
		evt = evt.Int64("size_bytes", info.Size())
	}
	if w, h, err := filehandler.ImageDimensions(job.Input); err == nil {
		evt = evt.Int("width", w).Int("height", h)
	}
	if meta, err := filehandler.ExtractImageMetadata(job.Input); err == nil {
		if meta.HasDate {
			evt = evt.Time("date_taken", meta.DateTaken)
		}
		if camera := meta.Camera(); camera != "" {
			evt = evt.Str("camera", camera)
		}
	}
	evt.Msg("Input image details")
}

func (b *BatchEnhancer) publish(ctx context.Context, job ImageJob) {
	if b.publisher == nil {
		return
	}
	location, err := b.publisher.Publish(ctx, job.Output)
	if err != nil {
		b.logger.Warn().
			Err(err).
			Str("file", job.Name()).
			Msg("Failed to publish enhanced image")
		return
	}
	b.logger.Info().
		Str("file", job.Name()).
		Str("location", location).
		Msg("Published enhanced image")
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
