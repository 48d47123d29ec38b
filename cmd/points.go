// File: cmd/points.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/config"
	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/grid"
	"github.com/xkilldash9x/gridclick/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// pointsReport is the JSON document printed by `points --format json`.
type pointsReport struct {
	Region geometry.Rect `json:"region"`
	HCells int           `json:"h_cells"`
	VCells int           `json:"v_cells"`
	Points []scanPoint   `json:"points"`
}

type scanPoint struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PX    int     `json:"px"`
	PY    int     `json:"py"`
}

func newPointsCmd() *cobra.Command {
	var format string

	pointsCmd := &cobra.Command{
		Use:   "points",
		Short: "Print the scan points for the configured region and grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			report, err := buildPointsReport(cmd.Context(), cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			return writePoints(cmd.OutOrStdout(), report, format)
		},
	}

	f := pointsCmd.Flags()
	f.StringVarP(&format, "format", "f", "table", "output format: table or json")
	f.String("backend", "", "backend used to locate the screen for auto placement")
	f.Int("left", 0, "region left edge (disables auto placement)")
	f.Int("top", 0, "region top edge (disables auto placement)")
	f.Int("width", 0, "region width")
	f.Int("height", 0, "region height")
	f.Int("h-cells", 0, "horizontal cell count")
	f.Int("v-cells", 0, "vertical cell count")
	for name, key := range map[string]string{
		"backend": "platform.backend",
		"left":    "sampler.region.left",
		"top":     "sampler.region.top",
		"width":   "sampler.region.width",
		"height":  "sampler.region.height",
		"h-cells": "grid.h_cells",
		"v-cells": "grid.v_cells",
	} {
		bindFlag(pointsCmd, name, key)
	}
	return pointsCmd
}

func buildPointsReport(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pointsReport, error) {
	region := cfg.Sampler().Region.Rect()
	if cfg.Sampler().Region.AutoPlace {
		backend, err := openBackend(ctx, cfg.PlatformOptions(), logger)
		if err != nil {
			return pointsReport{}, fmt.Errorf("open %q backend: %w", cfg.Platform().Backend, err)
		}
		defer backend.Close()
		if region, err = resolveRegion(ctx, cfg, backend); err != nil {
			logger.Warn("Could not read screen bounds, using the configured region as-is", zap.Error(err))
		}
	}

	cells := cfg.Grid().Normalize()
	report := pointsReport{Region: region, HCells: cells.HCells, VCells: cells.VCells}
	for i, p := range grid.Generate(region, cells) {
		px := p.Pixel()
		report.Points = append(report.Points, scanPoint{Index: i, X: p.X, Y: p.Y, PX: px.X, PY: px.Y})
	}
	return report, nil
}

func writePoints(w io.Writer, report pointsReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "# region %d,%d %dx%d, grid %dx%d\n",
			report.Region.Left, report.Region.Top, report.Region.Width, report.Region.Height, report.HCells, report.VCells)
		fmt.Fprintln(tw, "INDEX\tX\tY\tPX\tPY")
		for _, p := range report.Points {
			fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%d\t%d\n", p.Index, p.X, p.Y, p.PX, p.PY)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
}
