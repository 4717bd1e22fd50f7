package summarizer

import (
	"fmt"
	"strings"
)

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// Option configures the formatters in this package.
type Option func(*options)

type options struct {
	translate func(string) string
}

// WithTranslator sets the function used to translate labels.
func WithTranslator(translate func(string) string) Option {
	return func(o *options) {
		o.translate = translate
	}
}

func newOptions(opts []Option) options {
	o := options{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(&o)
	}
	if o.translate == nil {
		o.translate = func(s string) string { return s }
	}
	return o
}

// TextFormatter renders a short plain-text report for terminals.
type TextFormatter struct {
	opts options
}

// NewTextFormatter creates a TextFormatter.
func NewTextFormatter(opts ...Option) *TextFormatter {
	return &TextFormatter{opts: newOptions(opts)}
}

// Format implements Formatter.
func (f *TextFormatter) Format(s *Summary) string {
	t := f.opts.translate
	var b strings.Builder

	if s.Run.Succeeded {
		fmt.Fprintln(&b, t("Generated"))
	} else {
		fmt.Fprintln(&b, t("Generation failed, please try again"))
		if s.Run.Error != "" {
			fmt.Fprintf(&b, "  %s: %s\n", t("Error"), s.Run.Error)
		}
	}

	fmt.Fprintf(&b, "  %s: %s\n", t("Video duration"), formatSeconds(s.Source.Duration.Seconds()))
	fmt.Fprintf(&b, "  %s: %s\n", t("Processing time"), formatSeconds(s.Run.ProcessingTime.Seconds()))

	if s.Run.Succeeded {
		fmt.Fprintf(&b, "  %s: %d\n", t("Sampled frames"), s.Output.SampledFrames)
		fmt.Fprintf(&b, "  %s: %dx%d\n", t("Size"), s.Output.Width, s.Output.Height)
		fmt.Fprintf(&b, "  %s: %s\n", t("Image"), s.Output.Path)
		if s.Output.ObjectURL != "" {
			fmt.Fprintf(&b, "  %s: %s\n", t("Object URL"), s.Output.ObjectURL)
		}
	}

	return b.String()
}

func formatSeconds(sec float64) string {
	return fmt.Sprintf("%.2f s", sec)
}

// formatBytes formats a byte count in human-readable form.
func formatBytes(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.2f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
