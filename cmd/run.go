// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/gridclick/internal/config"
	"github.com/xkilldash9x/gridclick/internal/driver"
	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/observability"
	"github.com/xkilldash9x/gridclick/internal/platform"
	"github.com/xkilldash9x/gridclick/internal/preview"
	"github.com/xkilldash9x/gridclick/internal/sampler"
)

// openBackend is swapped in tests to observe the dry backend.
var openBackend = platform.Open

func newRunCmd() *cobra.Command {
	var opts runOptions

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Capture the region and sweep it with paced pointer input",
		Long: `run samples the capture region periodically and, while armed, walks a
sheared grid over it one point per admitted snapshot.

  rehearse  moves the pointer only and keeps sweeping until stopped
  execute   moves and clicks, then disarms once every point was visited`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			opts.in = cmd.InOrStdin()
			opts.out = cmd.OutOrStdout()
			return runSession(cmd.Context(), cfg, opts, observability.GetLogger())
		},
	}

	f := runCmd.Flags()
	f.String("mode", "", "start mode: idle, rehearse or execute")
	f.String("backend", "", "capture and input backend: desktop, browser or dry")
	f.Int("left", 0, "region left edge (disables auto placement)")
	f.Int("top", 0, "region top edge (disables auto placement)")
	f.Int("width", 0, "region width")
	f.Int("height", 0, "region height")
	f.Duration("period", 0, "sampling period; 0 pauses sampling")
	f.Int("h-cells", 0, "horizontal cell count")
	f.Int("v-cells", 0, "vertical cell count")
	f.Bool("safer", false, "jitter the pointer on every snapshot")
	f.Duration("min-interval", 0, "minimum spacing between dispatched points")
	f.String("preview", "", "write a highlighted PNG of the region to this path")
	f.String("url", "", "page to open with the browser backend")
	f.Bool("headless", true, "run the browser backend headless")
	for name, key := range map[string]string{
		"mode":         "driver.start_mode",
		"backend":      "platform.backend",
		"left":         "sampler.region.left",
		"top":          "sampler.region.top",
		"width":        "sampler.region.width",
		"height":       "sampler.region.height",
		"period":       "sampler.period",
		"h-cells":      "grid.h_cells",
		"v-cells":      "grid.v_cells",
		"safer":        "driver.safer",
		"min-interval": "driver.min_interval",
		"preview":      "preview.path",
		"url":          "browser.url",
		"headless":     "browser.headless",
	} {
		bindFlag(runCmd, name, key)
	}

	f.BoolVarP(&opts.interactive, "interactive", "i", false, "read operator commands from stdin")
	f.BoolVar(&opts.exitOnIdle, "exit-on-idle", false, "exit after an execute pass completes")
	return runCmd
}

type runOptions struct {
	interactive bool
	exitOnIdle  bool
	in          io.Reader
	out         io.Writer
}

// session wires one backend to the sampler, the driver and the optional
// preview sink.
type session struct {
	backend platform.Backend
	sampler *sampler.Sampler
	driver  *driver.Driver
	preview *preview.Writer
	start   driver.Mode
}

func newSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*session, error) {
	start, err := driver.ParseMode(cfg.Driver().StartMode)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg.PlatformOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("open %q backend: %w", cfg.Platform().Backend, err)
	}

	region, err := resolveRegion(ctx, cfg, backend)
	if err != nil {
		logger.Warn("Could not read screen bounds, using the configured region as-is", zap.Error(err))
	}

	s := &session{
		backend: backend,
		driver:  driver.New(cfg.Driver(), cfg.Grid(), backend, logger),
		sampler: sampler.New(sampler.Config{Region: region, Period: cfg.Sampler().Period}, backend, backend, logger),
		start:   start,
	}

	// The preview renders before the step so it shows the frame the step acted on.
	if path := cfg.Preview().Path; path != "" {
		s.preview, err = preview.NewWriter(cfg.Preview(), s.driver.PreviewPoints, logger)
		if err != nil {
			backend.Close()
			return nil, err
		}
		s.sampler.OnSnapshot(s.preview.HandleSnapshot)
	}
	s.sampler.OnSnapshot(s.driver.HandleSnapshot)

	logger.Info("Session ready",
		zap.String("backend", cfg.Platform().Backend),
		zap.Any("region", region),
		zap.Int("h_cells", cfg.Grid().HCells),
		zap.Int("v_cells", cfg.Grid().VCells),
		zap.Duration("period", cfg.Sampler().Period),
		zap.Stringer("start_mode", start))
	return s, nil
}

// resolveRegion places the configured region on the backend's screen. The
// unplaced region is returned alongside any screen error.
func resolveRegion(ctx context.Context, cfg *config.Config, backend platform.Backend) (geometry.Rect, error) {
	rc := cfg.Sampler().Region
	if !rc.AutoPlace {
		return rc.Rect(), nil
	}
	screen, err := backend.ScreenBounds(ctx)
	if err != nil {
		return rc.Rect(), err
	}
	return rc.Resolve(screen), nil
}

func runSession(ctx context.Context, cfg *config.Config, opts runOptions, logger *zap.Logger) error {
	s, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.backend.Close(); err != nil {
			logger.Warn("Backend close failed", zap.Error(err))
		}
	}()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if opts.exitOnIdle {
		s.driver.OnDisarm(func(sum driver.PassSummary) {
			logger.Info("Execute pass finished, exiting", zap.String("pass_id", sum.PassID), zap.Int("points", sum.Points))
			stop()
		})
	}

	s.driver.SetMode(s.start)
	s.sampler.SetEnabled(true)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return s.sampler.Run(gctx) })
	if opts.interactive {
		op := newOperator(s, opts.in, opts.out)
		g.Go(func() error {
			defer stop()
			return op.Serve(gctx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		// Our own stop is a clean exit; the caller's cancellation is reported.
		return ctx.Err()
	}
	return err
}
