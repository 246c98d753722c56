package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webplots/internal/config"
	"webplots/internal/engine"
	"webplots/internal/export"
	"webplots/internal/models"
	"webplots/internal/project"
	"webplots/internal/workspace"
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Short:   "Render a project and/or CSV file without starting the server",
	Example: `  webplots render --project weather.json --format html --out plot.html
  webplots render --csv data.csv --y temp --format svg --out plot.svg`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.String("project", "", "project file to load")
	f.String("csv", "", "CSV file to load (replaces the project's data)")
	f.String("x", "", "x axis column (default: first column)")
	f.StringSlice("y", nil, "y axis columns")
	f.String("format", "json", "output format: json, html, svg or receipt")
	f.String("out", "-", "output file, - for stdout")
	f.Int("max-traces", 8, "maximum traces per plot (0 = unlimited)")
}

var renderFormats = []string{"json", "html", "svg", "receipt"}

type renderOptions struct {
	project, csv, x, format, out string
	y                            []string
}

func runRender(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var opts renderOptions
	opts.project, _ = f.GetString("project")
	opts.csv, _ = f.GetString("csv")
	opts.x, _ = f.GetString("x")
	opts.y, _ = f.GetStringSlice("y")
	opts.format, _ = f.GetString("format")
	opts.out, _ = f.GetString("out")
	if !slices.Contains(renderFormats, opts.format) {
		return fmt.Errorf("unknown format %q (want %s)", opts.format, strings.Join(renderFormats, ", "))
	}

	cfg, err := loadConfig(cmd, map[string]string{"render.max_traces": "max-traces"})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	state, err := buildState(cmd.Context(), cfg, opts, logger)
	if err != nil {
		return err
	}
	plot := engine.NewPipeline(logger, cfg.Render.MaxTraces).Run(state)

	err = writeOutput(opts.out, cmd.OutOrStdout(), func(w io.Writer) error {
		return writePlot(w, plot, state, opts.format)
	})
	if err != nil {
		return err
	}
	logger.Info("plot rendered",
		zap.String("format", opts.format),
		zap.String("out", opts.out),
		zap.Int("traces", len(plot.Traces)),
		zap.Bool("has_data", plot.HasData))
	return nil
}

// writeOutput hands write the named file, or stdout for "" and "-".
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(file)
}

func buildState(ctx context.Context, cfg *config.Config, opts renderOptions, logger *zap.Logger) (*models.WorkspaceState, error) {
	state := models.NewWorkspaceState()
	state.Density.ChartWidth = cfg.Render.ChartWidth
	state.Density.ChartHeight = cfg.Render.ChartHeight
	workspace.SetColorPalette(state, cfg.Render.Palette)

	if opts.project != "" {
		b, err := os.ReadFile(opts.project)
		if err != nil {
			return nil, fmt.Errorf("failed to read project: %w", err)
		}
		if err := project.Apply(state, b); err != nil {
			return nil, fmt.Errorf("%s: %w", opts.project, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.csv != "" {
		ds, err := engine.LoadCSVFile(opts.csv, logger)
		if err != nil {
			return nil, err
		}
		workspace.LoadDataset(state, ds)
	}

	if opts.x != "" {
		if err := workspace.SetXAxis(state, opts.x); err != nil {
			return nil, err
		}
	} else if state.Axis.XAxis == "" && len(state.Columns) > 0 {
		state.Axis.XAxis = state.Columns[0]
	}
	for _, col := range opts.y {
		if err := workspace.AddYColumn(state, col); err != nil {
			return nil, err
		}
	}
	return state, nil
}

func writePlot(w io.Writer, plot *models.PlotConfig, state *models.WorkspaceState, format string) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(plot, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode plot: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "html":
		return export.WriteHTML(w, plot)
	case "svg":
		return export.WriteSVG(w, plot, state.Density.ChartWidth, state.Density.ChartHeight)
	case "receipt":
		_, err := fmt.Fprintln(w, plot.Receipt)
		return err
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(renderFormats, ", "))
}
