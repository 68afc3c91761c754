package cmd

import (
	"io"
	"os"
	"testing"

	"github.com/wimglenn/mopup/internal/output"
)

func TestProgressWriter(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		format output.Format
		want   io.Writer
	}{
		{name: "text goes to stdout", format: output.FormatText, want: os.Stdout},
		// Structured formats own stdout; commentary moves to stderr so
		// the stream stays machine-parseable.
		{name: "json keeps stdout clean", format: output.FormatJSON, want: os.Stderr},
		{name: "yaml keeps stdout clean", format: output.FormatYAML, want: os.Stderr},
		{name: "quiet discards", quiet: true, format: output.FormatText, want: io.Discard},
		{name: "quiet wins over format", quiet: true, format: output.FormatJSON, want: io.Discard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiet = tt.quiet
			defer func() { quiet = false }()

			if got := progressWriter(tt.format); got != tt.want {
				t.Errorf("progressWriter(%v) with quiet=%v = %v, want %v", tt.format, tt.quiet, got, tt.want)
			}
		})
	}
}
