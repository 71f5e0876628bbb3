// Package cluster implements the multi-process worker pool: a supervisor
// that forks one serving process per CPU and restarts any that dies. Workers
// share nothing in memory; they bind the same port through SO_REUSEPORT, so
// no coordination beyond process lifecycle is needed.
package cluster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"unibook/internal/infra/metrics"
)

// EnvWorkerID marks a process as a worker; the supervisor sets it on every
// child it spawns.
const EnvWorkerID = "UNIBOOK_WORKER_ID"

// WorkerID reports whether this process is a supervised worker.
func WorkerID() (int, bool) {
	v := os.Getenv(EnvWorkerID)
	if v == "" {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return id, true
}

type exitEvent struct {
	id  int
	err error
}

// Supervise re-execs this binary `workers` times (0 means one per CPU) and
// keeps that many alive until ctx is cancelled. Every unexpected exit is
// logged with the worker's identity and reason and replaced immediately.
func Supervise(ctx context.Context, workers int, logger zerolog.Logger) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	exits := make(chan exitEvent, workers)
	procs := make(map[int]*exec.Cmd, workers)

	spawn := func(id int) error {
		cmd := exec.Command(exe)
		cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", EnvWorkerID, id))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start worker %d: %w", id, err)
		}
		procs[id] = cmd
		logger.Info().Int("worker", id).Int("pid", cmd.Process.Pid).Msg("worker started")
		go func() { exits <- exitEvent{id: id, err: cmd.Wait()} }()
		return nil
	}

	for id := 0; id < workers; id++ {
		if err := spawn(id); err != nil {
			stopAll(procs, logger)
			return err
		}
	}
	logger.Info().Int("workers", workers).Msg("cluster supervisor running")

	for {
		select {
		case <-ctx.Done():
			stopAll(procs, logger)
			drain(exits, len(procs))
			return nil
		case e := <-exits:
			delete(procs, e.id)
			logger.Error().Int("worker", e.id).AnErr("reason", e.err).Msg("worker exited, restarting")
			metrics.WorkerRestartsTotal.Inc()
			if err := spawn(e.id); err != nil {
				logger.Error().Err(err).Int("worker", e.id).Msg("respawn failed")
			}
		}
	}
}

func stopAll(procs map[int]*exec.Cmd, logger zerolog.Logger) {
	for id, cmd := range procs {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			logger.Warn().Err(err).Int("worker", id).Msg("signal worker failed")
		}
	}
}

// drain waits briefly for the signalled workers to report their exit so the
// supervisor does not leave zombies behind.
func drain(exits <-chan exitEvent, n int) {
	deadline := time.After(10 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-exits:
		case <-deadline:
			return
		}
	}
}
