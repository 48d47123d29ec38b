// File: cmd/operator_test.go
package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/driver"
	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/grid"
)

func newTestOperator(t *testing.T) (*operator, *bytes.Buffer) {
	t.Helper()
	useRecorder(t)
	s, err := newSession(context.Background(), fastConfig(), zap.NewNop())
	require.NoError(t, err)
	var out bytes.Buffer
	return newOperator(s, strings.NewReader(""), &out), &out
}

func TestOperator_Exec(t *testing.T) {
	op, out := newTestOperator(t)
	d, smp := op.s.driver, op.s.sampler

	run := func(line string) {
		t.Helper()
		quit, err := op.exec(line)
		require.NoError(t, err, line)
		require.False(t, quit, line)
	}

	run("rehearse")
	assert.Equal(t, driver.ModeRehearse, d.Mode())
	run("GO")
	assert.Equal(t, driver.ModeExecute, d.Mode())
	run("stop")
	assert.Equal(t, driver.ModeIdle, d.Mode())

	run("cells 5 6")
	assert.Equal(t, grid.Config{HCells: 5, VCells: 6}, d.Grid())
	run("cells 0 -2")
	assert.Equal(t, grid.Config{HCells: 1, VCells: 1}, d.Grid(), "counts clamp to 1")

	run("safer on")
	assert.True(t, d.Safer())
	run("safer off")
	assert.False(t, d.Safer())

	run("sample on")
	assert.True(t, smp.Enabled())
	run("sample off")
	assert.False(t, smp.Enabled())

	run("region 10 20 30 40")
	assert.Equal(t, geometry.NewRect(10, 20, 30, 40), smp.Config().Region)
	run("period 250ms")
	assert.Equal(t, 250*time.Millisecond, smp.Config().Period)
	assert.Equal(t, geometry.NewRect(10, 20, 30, 40), smp.Config().Region)

	out.Reset()
	run("status")
	assert.Equal(t, "mode=idle queue=0 grid=1x1 safer=false sampling=false region=10,20 30x40 period=250ms\n", out.String())

	out.Reset()
	run("help")
	assert.Contains(t, out.String(), "cells H V")

	run("")

	quit, err := op.exec("quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestOperator_ExecErrors(t *testing.T) {
	op, _ := newTestOperator(t)
	for _, line := range []string{
		"cells 3",
		"cells a b",
		"safer maybe",
		"sample",
		"region 1 2 3",
		"region 1 2 x 4",
		"period soon",
		"launch",
	} {
		_, err := op.exec(line)
		assert.Error(t, err, line)
	}
}

func TestOperator_Serve(t *testing.T) {
	t.Run("ends at end of input", func(t *testing.T) {
		op, out := newTestOperator(t)
		op.in = strings.NewReader("rehearse\nbogus\n")
		require.NoError(t, op.Serve(context.Background()))
		assert.Contains(t, out.String(), "mode rehearse")
		assert.Contains(t, out.String(), "error: unknown command")
		assert.Equal(t, driver.ModeRehearse, op.s.driver.Mode())
	})

	t.Run("stops at quit", func(t *testing.T) {
		op, _ := newTestOperator(t)
		op.in = strings.NewReader("quit\nexecute\n")
		require.NoError(t, op.Serve(context.Background()))
		assert.Equal(t, driver.ModeIdle, op.s.driver.Mode(), "commands after quit are ignored")
	})

	t.Run("returns on cancellation", func(t *testing.T) {
		op, _ := newTestOperator(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		// Input that never arrives blocks the scanner, not Serve.
		pr, pw := io.Pipe()
		t.Cleanup(func() { pw.Close() })
		op.in = pr
		assert.ErrorIs(t, op.Serve(ctx), context.Canceled)
	})
}
