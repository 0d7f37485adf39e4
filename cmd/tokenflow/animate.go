package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tokenflow/tokenflow/pkg/adapters"
	"github.com/tokenflow/tokenflow/pkg/animation"
	"github.com/tokenflow/tokenflow/pkg/attributes"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/precedence"
	"github.com/tokenflow/tokenflow/pkg/tui"
)

var animateCmd = &cobra.Command{
	Use:   "animate",
	Short: "Build the animation payload once and write it as JSON",
	RunE:  runAnimate,
}

func runAnimate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	payload, err := buildPayload(ctx, cfg)
	if err != nil {
		tui.PrintError(err)
		return err
	}

	if err := writePayload(outputFile, payload); err != nil {
		return err
	}

	if !quiet {
		tui.PrintSummary(payload)
		fmt.Printf("  wrote %s\n\n", outputFile)
	}
	return nil
}

// buildPayload assembles the pipeline inputs from the CLI boundary and runs
// the pipeline.
func buildPayload(ctx context.Context, cfg *config.Config) (*animation.Payload, error) {
	in := animation.Inputs{}

	needsLog := logFile != "" &&
		(precedenceFile == "" || cfg.Tokens.Size.Column != "" ||
			cfg.Tokens.Color.Column != "" || cfg.Tokens.Image.Column != "")

	if needsLog && !useDuckDB {
		log, err := adapters.LoadEventLog(logFile, adapters.EventColumns{
			CaseID:    caseColumn,
			Activity:  activityColumn,
			Timestamp: timestampColumn,
			Lifecycle: lifecycleColumn,
		})
		if err != nil {
			return nil, err
		}
		in.Log = log
	}

	switch {
	case precedenceFile != "":
		rows, err := adapters.LoadPrecedence(precedenceFile)
		if err != nil {
			return nil, err
		}
		in.Precedence = rows

	case useDuckDB:
		deriver, err := precedence.NewDuckDBDeriver()
		if err != nil {
			return nil, err
		}
		defer deriver.Close()
		rows, err := deriver.DeriveCSV(ctx, logFile, caseColumn, activityColumn, timestampColumn)
		if err != nil {
			return nil, err
		}
		in.Precedence = rows

	case in.Log != nil:
		in.Precedence = precedence.Derive(in.Log)

	default:
		return nil, fmt.Errorf("either --log or --precedence is required")
	}

	if graphFile != "" {
		edges, err := adapters.LoadEdges(graphFile)
		if err != nil {
			return nil, err
		}
		in.Edges = edges
	}

	if !quiet {
		bar := tui.NewCaseBar(-1)
		in.Progress = func(done, total int) {
			bar.ChangeMax(total)
			bar.Set(done)
		}
	}

	var err error
	if in.Size, err = sourceFor(attributes.AttrSize, cfg.Tokens.Size); err != nil {
		return nil, err
	}
	if in.Color, err = sourceFor(attributes.AttrColor, cfg.Tokens.Color); err != nil {
		return nil, err
	}
	if in.Image, err = sourceFor(attributes.AttrImage, cfg.Tokens.Image); err != nil {
		return nil, err
	}

	return animation.Build(ctx, cfg, in)
}

// sourceFor loads any external table and maps the attribute config onto its
// tagged variant source.
func sourceFor(attr string, cfg config.AttributeConfig) (attributes.Source, error) {
	var external []attributes.Sample
	if cfg.Table != "" {
		rows, err := adapters.LoadAttributeTable(cfg.Table, attr)
		if err != nil {
			return nil, err
		}
		external = rows
	}
	return attributes.SourceFromConfig(attr, cfg, external), nil
}

// writePayload writes the payload as indented JSON.
func writePayload(path string, payload *animation.Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
