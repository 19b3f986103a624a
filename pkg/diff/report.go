package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Format selects the report rendering.
type Format string

const (
	// Text renders one human-readable line per record.
	Text Format = "text"
	// Structured renders an ordered JSON array of records.
	Structured Format = "structured"
)

// ErrUnknownFormat is returned for an unrecognized report format name.
var ErrUnknownFormat = errors.New("unknown report format")

const (
	maxStringDisplay   = 100
	maxCompoundDisplay = 200
)

// Options controls report rendering.
type Options struct {
	// ShowKept includes non-semantic "kept" records in the output.
	ShowKept bool
	// Color colorizes the kind column of the text format.
	Color bool
}

// Option is a functional option for Render.
type Option func(*Options)

// WithKept sets whether unchanged entries appear in the report.
func WithKept(show bool) Option {
	return func(o *Options) { o.ShowKept = show }
}

// WithColor enables ANSI colors in the text format.
func WithColor(enable bool) Option {
	return func(o *Options) { o.Color = enable }
}

// Render renders the records in the given format.
//
// Text format, one line per record:
//
//	added at <path>: <source>
//	removed at <path>: <target>
//	changed at <path>: <source> <- <target>
//	list-merged at <path>: <n> source + <m> target elements
//
// Structured format: a JSON array of {path, kind, source?, target?} objects in
// record order, with the same field optionality as the records themselves.
func Render(records []Record, format Format, opts ...Option) (string, error) {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	filtered := records
	if !options.ShowKept {
		filtered = make([]Record, 0, len(records))
		for _, r := range records {
			if r.Kind != Kept {
				filtered = append(filtered, r)
			}
		}
	}

	switch format {
	case Text:
		return renderText(filtered, options), nil
	case Structured:
		out, err := json.MarshalIndent(filtered, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out) + "\n", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

var kindColors = map[Kind]*color.Color{
	Added:      color.New(color.FgGreen),
	Removed:    color.New(color.FgRed),
	Changed:    color.New(color.FgYellow),
	ListMerged: color.New(color.FgCyan),
	Kept:       color.New(color.Faint),
}

func renderText(records []Record, options Options) string {
	var b strings.Builder
	for _, r := range records {
		kind := string(r.Kind)
		if options.Color {
			if c, ok := kindColors[r.Kind]; ok {
				kind = c.Sprint(kind)
			}
		}
		switch r.Kind {
		case Added:
			fmt.Fprintf(&b, "%s at %s: %s\n", kind, r.Path, FormatValue(r.Source))
		case Removed:
			fmt.Fprintf(&b, "%s at %s: %s\n", kind, r.Path, FormatValue(r.Target))
		case Changed:
			fmt.Fprintf(&b, "%s at %s: %s <- %s\n", kind, r.Path, FormatValue(r.Source), FormatValue(r.Target))
		case ListMerged:
			fmt.Fprintf(&b, "%s at %s: %d source + %d target elements\n", kind, r.Path, listLen(r.Source), listLen(r.Target))
		default:
			fmt.Fprintf(&b, "%s at %s: %s\n", kind, r.Path, FormatValue(r.Target))
		}
	}
	return b.String()
}

func listLen(v any) int {
	if l, ok := v.([]any); ok {
		return len(l)
	}
	return 0
}

// FormatValue renders a record value compactly for the text report: strings
// quoted, mappings and sequences as single-line JSON, long values truncated.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		if len(val) > maxStringDisplay {
			return fmt.Sprintf("%q", val[:maxStringDisplay-3]+"...")
		}
		return fmt.Sprintf("%q", val)
	case map[string]any, []any:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		s := string(out)
		if len(s) > maxCompoundDisplay {
			return s[:maxCompoundDisplay-3] + "..."
		}
		return s
	default:
		return fmt.Sprint(val)
	}
}
