package enhancer

import (
	"path/filepath"
	"strings"
)

// ImageJob pairs an input image with the output path its enhanced version is
// written to. The output lives next to the input.
type ImageJob struct {
	Input  string
	Output string
}

// NewImageJob derives the output path for input by replacing its extension
// with suffix+ext, e.g. photo.jpg -> photo-enhanced.png.
func NewImageJob(input, suffix, ext string) ImageJob {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return ImageJob{
		Input:  input,
		Output: filepath.Join(filepath.Dir(input), name+suffix+ext),
	}
}

// Name is the input file's base name, used in log lines.
func (j ImageJob) Name() string {
	return filepath.Base(j.Input)
}
