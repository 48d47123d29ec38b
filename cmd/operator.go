// File: cmd/operator.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/gridclick/internal/driver"
	"github.com/xkilldash9x/gridclick/internal/geometry"
)

const operatorHelp = `commands:
  rehearse | try        move the pointer over the grid without clicking
  execute | go          move and click; disarms after one full pass
  stop                  disarm
  status                print the current state
  cells H V             set the grid for the next pass
  safer on|off          toggle pointer jitter
  sample on|off         start or stop screen sampling
  region L T W H        move or resize the capture region
  period DURATION       change the sampling period (0 pauses)
  quit | exit           end the session
`

// operator reads line commands and applies them to a session. It stands in
// for the control panel of a desktop front end.
type operator struct {
	s   *session
	in  io.Reader
	out io.Writer
}

func newOperator(s *session, in io.Reader, out io.Writer) *operator {
	return &operator{s: s, in: in, out: out}
}

// Serve processes commands until quit, end of input or cancellation.
func (o *operator) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(o.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprint(o.out, "gridclick> ")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := o.exec(line)
			if err != nil {
				fmt.Fprintln(o.out, "error:", err)
			}
			if quit {
				return nil
			}
			fmt.Fprint(o.out, "gridclick> ")
		}
	}
}

// exec applies one command. It reports true when the session should end.
func (o *operator) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	d, smp := o.s.driver, o.s.sampler

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprint(o.out, operatorHelp)
	case "status":
		o.status()
	case "cells":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: cells H V")
		}
		h, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("cells: %w", err)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("cells: %w", err)
		}
		d.SetCellCounts(h, v)
		g := d.Grid()
		fmt.Fprintf(o.out, "grid %dx%d\n", g.HCells, g.VCells)
	case "safer":
		on, err := parseSwitch(args)
		if err != nil {
			return false, fmt.Errorf("safer: %w", err)
		}
		d.SetSafer(on)
	case "sample", "sampling":
		on, err := parseSwitch(args)
		if err != nil {
			return false, fmt.Errorf("sample: %w", err)
		}
		smp.SetEnabled(on)
	case "region":
		if len(args) != 4 {
			return false, fmt.Errorf("usage: region L T W H")
		}
		var n [4]int
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return false, fmt.Errorf("region: %w", err)
			}
			n[i] = v
		}
		smp.Configure(geometry.NewRect(n[0], n[1], n[2], n[3]), smp.Config().Period)
	case "period":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: period DURATION")
		}
		p, err := time.ParseDuration(args[0])
		if err != nil {
			return false, fmt.Errorf("period: %w", err)
		}
		smp.Configure(smp.Config().Region, p)
	default:
		mode, err := driver.ParseMode(cmd)
		if err != nil {
			return false, fmt.Errorf("unknown command %q (try help)", cmd)
		}
		d.SetMode(mode)
		fmt.Fprintf(o.out, "mode %s\n", mode)
	}
	return false, nil
}

func (o *operator) status() {
	d, smp := o.s.driver, o.s.sampler
	cfg := smp.Config()
	g := d.Grid()
	fmt.Fprintf(o.out, "mode=%s queue=%d grid=%dx%d safer=%t sampling=%t region=%d,%d %dx%d period=%s\n",
		d.Mode(), d.QueueSize(), g.HCells, g.VCells, d.Safer(), smp.Enabled(),
		cfg.Region.Left, cfg.Region.Top, cfg.Region.Width, cfg.Region.Height, cfg.Period)
}

func parseSwitch(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("want on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", args[0])
}
