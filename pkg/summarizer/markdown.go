package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	opts options
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...Option) *MarkdownFormatter {
	return &MarkdownFormatter{opts: newOptions(opts)}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.opts.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Panorama Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated at"), s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	// Result
	fmt.Fprintf(&b, "## %s\n\n", t("Result"))
	table := newTable(t("Item"), t("Value"))
	if s.Run.ID != "" {
		table.row(t("Run ID"), s.Run.ID)
	}
	if s.Run.Succeeded {
		table.row(t("Status"), t("Succeeded"))
	} else {
		table.row(t("Status"), t("Failed"))
		if s.Run.Error != "" {
			table.row(t("Error"), s.Run.Error)
		}
		if s.Run.StitchStatus != "" {
			table.row(t("Stitch status"), s.Run.StitchStatus)
		}
	}
	table.row(t("Processing time"), formatSeconds(s.Run.ProcessingTime.Seconds()))
	table.write(&b)

	// Source
	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	table = newTable(t("Item"), t("Value"))
	table.row(t("Video"), s.Source.Path)
	if s.Source.Codec != "" {
		table.row(t("Codec"), s.Source.Codec)
	}
	table.row(t("Frames"), fmt.Sprintf("%d", s.Source.FrameCount))
	table.row(t("Frame rate"), fmt.Sprintf("%.2f fps", s.Source.FrameRate))
	table.row(t("Resolution"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height))
	table.row(t("Video duration"), formatSeconds(s.Source.Duration.Seconds()))
	table.write(&b)

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	table = newTable(t("Item"), t("Value"))
	if s.Settings.MaxFrames > 0 {
		table.row(t("Max frames"), fmt.Sprintf("%d", s.Settings.MaxFrames))
	} else {
		table.row(t("Max frames"), t("Unbounded"))
	}
	table.row(t("Stride"), fmt.Sprintf("%d", s.Settings.Stride))
	table.row(t("Stitcher"), s.Settings.Stitcher)
	table.row(t("JPEG quality"), fmt.Sprintf("%d", s.Settings.Quality))
	table.row(t("Workers"), fmt.Sprintf("%d", s.Settings.Workers))
	table.write(&b)

	if !s.Run.Succeeded {
		return b.String()
	}

	// Output
	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	table = newTable(t("Item"), t("Value"))
	table.row(t("Image"), s.Output.Path)
	if s.Output.ObjectURL != "" {
		table.row(t("Object URL"), s.Output.ObjectURL)
	}
	table.row(t("Sampled frames"), fmt.Sprintf("%d", s.Output.SampledFrames))
	table.row(t("Size"), fmt.Sprintf("%dx%d", s.Output.Width, s.Output.Height))
	table.row(t("File size"), formatBytes(s.Output.FileSize))
	table.write(&b)

	return b.String()
}

type table struct {
	header [2]string
	rows   [][2]string
}

func newTable(key, value string) *table {
	return &table{header: [2]string{key, value}}
}

func (t *table) row(key, value string) {
	t.rows = append(t.rows, [2]string{key, escapeCell(value)})
}

func (t *table) write(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n", t.header[0], t.header[1])
	b.WriteString("|---|---|\n")
	for _, r := range t.rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
