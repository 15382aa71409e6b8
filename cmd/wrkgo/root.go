/*
 * MIT License
 *
 * Copyright (c) 2026 wrkgo contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github/sabouaram/wrkgo/internal/config"
	"github/sabouaram/wrkgo/internal/errs"
)

// Version is the build-time identifier printed by -v/--version.
const Version = "0.1.0"

// cliFlags mirrors the command's flag table as raw strings; unit-suffixed
// values (SI, time) are parsed in buildConfig via internal/config/units.go
// rather than by cobra's own flag types, so "2k" and "30s" work the way
// wrk's own scan_metric/scan_time do.
type cliFlags struct {
	connections string
	threads     string
	duration    string
	localIP     string
	script      string
	headers     []string
	latency     bool
	timeout     string
	warmup      bool
	warmupTO    string
	primary     int
	sync        string
	strictSync  bool
	version     bool
}

func newRootCommand() *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "wrkgo [options] <url>",
		Short: "Multi-threaded HTTP/1.1 load generator",
		Args:  cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.version {
				fmt.Println("wrkgo", Version)
				return nil
			}
			if len(args) != 1 {
				return errs.New(errs.CodeConfiguration, "missing <url>")
			}
			return runBenchmark(args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.connections, "connections", "c", "10", "total connections; must be >= threads")
	cmd.Flags().StringVarP(&f.threads, "threads", "t", "2", "worker threads")
	cmd.Flags().StringVarP(&f.duration, "duration", "d", "10s", "test duration")
	cmd.Flags().StringVarP(&f.localIP, "local_ip", "i", "", "comma-separated local bind addresses")
	cmd.Flags().StringVarP(&f.script, "script", "s", "", "script for request/response/summary hooks")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "extra request header (repeatable)")
	cmd.Flags().BoolVar(&f.latency, "latency", false, "print latency percentiles")
	cmd.Flags().StringVar(&f.timeout, "timeout", "2000ms", "per-request timeout")
	cmd.Flags().BoolVarP(&f.warmup, "warmup", "W", false, "enable WARMUP phase")
	cmd.Flags().StringVar(&f.warmupTO, "warmup-timeout", "", "WARMUP timeout")
	cmd.Flags().IntVarP(&f.primary, "primary", "p", 0, "run as primary; wait for K secondaries")
	cmd.Flags().StringVarP(&f.sync, "sync", "S", "", "inter-process rendezvous address")
	cmd.Flags().BoolVar(&f.strictSync, "strict-sync", false, "abort on inter-process barrier mismatch instead of proceeding")
	cmd.Flags().BoolVarP(&f.version, "version", "v", false, "print version")

	return cmd
}

func exitCodeFor(err error) int {
	if e, ok := err.(errs.Error); ok {
		return e.Code().ExitCode()
	}
	return 1
}

func parseFlags(f *cliFlags) (connections, threads int, duration, timeout, warmupTimeout time.Duration, err error) {
	connections64, perr := config.ScanMetric(f.connections)
	if perr != nil {
		return 0, 0, 0, 0, 0, fmt.Errorf("--connections: %w", perr)
	}
	threads64, perr := config.ScanMetric(f.threads)
	if perr != nil {
		return 0, 0, 0, 0, 0, fmt.Errorf("--threads: %w", perr)
	}
	duration, perr = config.ScanTime(f.duration)
	if perr != nil {
		return 0, 0, 0, 0, 0, fmt.Errorf("--duration: %w", perr)
	}
	timeout, perr = config.ScanTime(f.timeout)
	if perr != nil {
		return 0, 0, 0, 0, 0, fmt.Errorf("--timeout: %w", perr)
	}
	if strings.TrimSpace(f.warmupTO) != "" {
		warmupTimeout, perr = config.ScanTime(f.warmupTO)
		if perr != nil {
			return 0, 0, 0, 0, 0, fmt.Errorf("--warmup-timeout: %w", perr)
		}
	}
	return int(connections64), int(threads64), duration, timeout, warmupTimeout, nil
}
