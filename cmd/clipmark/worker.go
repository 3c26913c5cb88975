package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// workerOptions controls detached scan worker launch behavior.
type workerOptions struct {
	Executable string
	VodPath    string
	ConfigPath string
	LogLevel   string
	Resume     bool
}

func (c *commandContext) workerOptions(vod string, resume bool) workerOptions {
	opts := workerOptions{VodPath: vod, Resume: resume, LogLevel: strings.TrimSpace(c.flags.logLevel)}
	if path := strings.TrimSpace(c.flags.config); path != "" {
		opts.ConfigPath = c.configPath
	} else if _, err := os.Stat(c.configPath); err == nil {
		opts.ConfigPath = c.configPath
	}
	return opts
}

func workerArgs(opts workerOptions) []string {
	args := []string{"scan", "run", opts.VodPath}
	if opts.Resume {
		args = append(args, "--resume")
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	return args
}

// launchWorker starts a detached `scan run` process in its own session so it
// outlives the invoking terminal. Its output is discarded; progress goes to
// the scan's log file and markers.
func launchWorker(opts workerOptions) (int, error) {
	exe := strings.TrimSpace(opts.Executable)
	if exe == "" {
		resolved, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("resolve executable: %w", err)
		}
		exe = resolved
	}

	proc := exec.Command(exe, workerArgs(opts)...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch scan worker: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}
