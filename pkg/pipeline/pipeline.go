// Package pipeline configures, plans and renders patterns for the CLI and
// the HTTP server.
//
// A [Runner] takes a [planner.Spec] through three steps: validation into a
// [planner.Session], planning through the plan cache and rendering into
// each requested format.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Spec:    spec,
//	    Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	if res == nil {
//	    return err
//	}
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
)

const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

var formats = []string{FormatJSON, FormatDOT, FormatSVG}

// Options describes one run.
type Options struct {
	Spec     planner.Spec `json:"spec"`
	Formats  []string     `json:"formats,omitempty"`
	Detailed bool         `json:"detailed,omitempty"`
	Refresh  bool         `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result is the output of a run.
type Result struct {
	Steps     []planner.Step
	Warnings  []planner.Warning
	PlanKey   string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

type Stats struct {
	Copies     int
	Steps      int
	PlanTime   time.Duration
	RenderTime time.Duration
}

type CacheInfo struct {
	PlanHit bool
}

// ValidateFormat reports an INVALID_FORMAT error for anything but json, dot
// and svg. Formats are case sensitive.
func ValidateFormat(format string) error {
	if !slices.Contains(formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

func ValidateFormats(fs []string) error {
	for _, f := range fs {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Normalize fills in the default format and logger and validates the
// formats.
func (o *Options) Normalize() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return ValidateFormats(o.Formats)
}
