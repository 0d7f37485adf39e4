// TokenFlow - process-map animation timeline builder
// Turns an event log plus its precedence relations into a per-case token
// animation payload for an SVG/SMIL rendering layer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokenflow/tokenflow/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	logFile        string
	precedenceFile string
	graphFile      string
	outputFile     string

	modeFlag     string
	durationFlag float64
	widthFlag    int
	heightFlag   int

	// Event log column mapping
	caseColumn      string
	activityColumn  string
	timestampColumn string
	lifecycleColumn string

	// Attribute value sources
	sizeColumn  string
	sizeTable   string
	colorColumn string
	colorTable  string
	imageColumn string
	imageTable  string

	// Precedence derivation
	useDuckDB bool

	quiet bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tokenflow",
	Short: "TokenFlow - build process-map animation timelines",
	Long: `TokenFlow converts a process event log plus its derived precedence
relations into a per-case animation timeline: strictly ordered, gap-free
token movements along process-graph edges, plus compacted size/color/image
keyframe streams on the same animation clock.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

func init() {
	rootCmd.AddCommand(animateCmd)
	rootCmd.AddCommand(watchCmd)

	for _, cmd := range []*cobra.Command{animateCmd, watchCmd} {
		f := cmd.Flags()
		f.StringVar(&logFile, "log", "", "event log CSV (required unless --precedence is given)")
		f.StringVar(&precedenceFile, "precedence", "", "precedence table CSV (derived from --log when omitted)")
		f.StringVar(&graphFile, "graph", "", "process-graph edge list CSV (directly-follows edges when omitted)")
		f.StringVarP(&outputFile, "out", "o", "payload.json", "output payload path")

		f.StringVar(&modeFlag, "mode", "", "animation mode: absolute | relative")
		f.Float64Var(&durationFlag, "duration", 0, "target animation duration in seconds")
		f.IntVar(&widthFlag, "width", 0, "display width passed through to the renderer")
		f.IntVar(&heightFlag, "height", 0, "display height passed through to the renderer")

		f.StringVar(&caseColumn, "case-column", "case_id", "event log case id column")
		f.StringVar(&activityColumn, "activity-column", "activity", "event log activity column")
		f.StringVar(&timestampColumn, "timestamp-column", "timestamp", "event log timestamp column")
		f.StringVar(&lifecycleColumn, "lifecycle-column", "lifecycle", "event log lifecycle column")

		f.StringVar(&sizeColumn, "size-column", "", "event attribute column driving token size")
		f.StringVar(&sizeTable, "size-table", "", "external case/time/value CSV driving token size")
		f.StringVar(&colorColumn, "color-column", "", "event attribute column driving token color")
		f.StringVar(&colorTable, "color-table", "", "external case/time/value CSV driving token color")
		f.StringVar(&imageColumn, "image-column", "", "event attribute column driving token image")
		f.StringVar(&imageTable, "image-table", "", "external case/time/value CSV driving token image")

		f.BoolVar(&useDuckDB, "duckdb", false, "derive precedence from --log with DuckDB (no lifecycle pairing)")
		f.BoolVarP(&quiet, "quiet", "q", false, "suppress the summary")
	}
}

// loadConfig merges file/env configuration with command-line overrides.
func loadConfig() (*config.Config, error) {
	manager := config.NewManager()
	if err := manager.Load(); err != nil {
		return nil, err
	}
	cfg := manager.Get()

	if modeFlag != "" {
		cfg.Animation.Mode = modeFlag
	}
	if durationFlag != 0 {
		cfg.Animation.Duration = durationFlag
	}
	if widthFlag != 0 {
		cfg.Display.Width = widthFlag
	}
	if heightFlag != 0 {
		cfg.Display.Height = heightFlag
	}

	if sizeColumn != "" {
		cfg.Tokens.Size.Column = sizeColumn
	}
	if sizeTable != "" {
		cfg.Tokens.Size.Table = sizeTable
	}
	if colorColumn != "" {
		cfg.Tokens.Color.Column = colorColumn
	}
	if colorTable != "" {
		cfg.Tokens.Color.Table = colorTable
	}
	if imageColumn != "" {
		cfg.Tokens.Image.Column = imageColumn
	}
	if imageTable != "" {
		cfg.Tokens.Image.Table = imageTable
	}

	return cfg, nil
}
