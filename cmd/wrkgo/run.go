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
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github/sabouaram/wrkgo/internal/aggregate"
	"github/sabouaram/wrkgo/internal/config"
	"github/sabouaram/wrkgo/internal/connection"
	"github/sabouaram/wrkgo/internal/errs"
	"github/sabouaram/wrkgo/internal/logging"
	"github/sabouaram/wrkgo/internal/phase"
	"github/sabouaram/wrkgo/internal/runtime"
	"github/sabouaram/wrkgo/internal/script"
	"github/sabouaram/wrkgo/internal/threadengine"
	"github/sabouaram/wrkgo/internal/tlsstrategy"
)

func runBenchmark(rawURL string, f *cliFlags) error {
	connections, threads, duration, timeout, warmupTimeout, err := parseFlags(f)
	if err != nil {
		return errs.Wrap(errs.CodeConfiguration, "invalid argument", err)
	}

	cfg, cerr := config.New(rawURL, connections, threads, duration, timeout)
	if cerr != nil {
		return cerr
	}
	cfg.Headers = f.headers
	cfg.LatencyReport = f.latency
	cfg.Warmup = f.warmup
	cfg.WarmupTimeout = warmupTimeout
	cfg.StrictSync = f.strictSync
	if strings.TrimSpace(f.localIP) != "" {
		cfg.LocalIPs = strings.Split(f.localIP, ",")
	}
	if f.sync != "" {
		cfg.SyncAddr = f.sync
		if f.primary > 0 {
			cfg.Role = config.RolePrimary
			cfg.Secondaries = f.primary
		} else {
			cfg.Role = config.RoleSecondary
		}
	}
	if verr := cfg.Validate(); verr != nil {
		return verr
	}

	log := logging.New(logrus.InfoLevel)

	if f.script != "" {
		return errs.Newf(errs.CodeConfiguration, "scripting runtime not built into this binary; omit -s/--script (got %q)", f.script)
	}

	if err := connection.Probe(cfg.URL.Host, cfg.Timeout); err != nil {
		return errs.Wrap(errs.CodeConnectProbe, "initial connect probe failed", err)
	}

	var ipSync *phase.InterProcessSync
	var coord *phase.Coordinator
	if cfg.Warmup {
		var barrier func() error
		if cfg.Role != config.RoleStandalone {
			ipSync, err = setupSync(cfg, log)
			if err != nil {
				return errs.Wrap(errs.CodeSyncSetup, "inter-process sync setup failed", err)
			}
			barrier = ipSync.Barrier
		}
		coord = phase.NewCoordinator(cfg.Threads, barrier)
		coord.OnBarrierDone(func(err error) {
			if err != nil {
				if cfg.StrictSync {
					log.Errorf("inter-process barrier: %v", err)
					ipSync.Close()
					os.Exit(errs.CodeSyncSetup.ExitCode())
				}
				log.Warnf("inter-process barrier: %v", err)
				return
			}
			if cfg.Role != config.RoleStandalone {
				fmt.Println("Synced")
			}
		})
	}

	rt := runtime.New()
	strategy := strategyFor(cfg)
	handler := script.NewStatic("GET", cfg.URL.Path, cfg.URL.Hostname(), cfg.Headers)

	fmt.Printf("Running %s test @ %s\n", cfg.Duration, cfg.URL.String())
	fmt.Printf("  %d threads and %d connections\n", cfg.Threads, cfg.Connections)

	threadsList := make([]*threadengine.Thread, cfg.Threads)
	perThread := cfg.ConnectionsPerThread()

	for i := 0; i < cfg.Threads; i++ {
		params := threadengine.Params{
			Index:               i,
			Connections:         perThread,
			RemoteAddr:          cfg.URL.Host,
			Hostname:            cfg.URL.Hostname(),
			LocalIP:             cfg.LocalIPFor(i),
			Pipeline:            handler.VerifyRequest(),
			Timeout:             cfg.Timeout,
			WantResponse:        handler.WantResponse(),
			Dynamic:             !handler.IsStatic(),
			HasDelay:            handler.HasDelay(),
			DefaultDelay:        0,
			Warmup:              cfg.Warmup,
			WarmupTimeout:       cfg.DefaultWarmupTimeout(),
			HasInterProcessSync: cfg.Role != config.RoleStandalone,
		}

		th, terr := threadengine.New(params, strategy, handler, coord, log)
		if terr != nil {
			if ipSync != nil {
				ipSync.Close()
			}
			return errs.Wrap(errs.CodeThreadSpawn, fmt.Sprintf("thread %d spawn failed", i), terr)
		}
		threadsList[i] = th
	}

	var wg sync.WaitGroup
	for _, th := range threadsList {
		wg.Add(1)
		go func(t *threadengine.Thread) {
			defer wg.Done()
			t.Run(rt)
		}(th)
	}

	time.Sleep(cfg.Duration)
	rt.Stop()
	wg.Wait()

	if ipSync != nil {
		ipSync.Close()
	}

	reportThreadSummaries(handler, threadsList, cfg.Warmup)

	report := aggregate.Join(toAggregateThreads(threadsList), int(cfg.Timeout.Milliseconds()), cfg.Warmup)
	if handler.HasDone() {
		handler.Done(report.Latency, report.RequestRate)
	}
	aggregate.Print(os.Stdout, report, cfg.LatencyReport)

	return nil
}

// reportThreadSummaries gives handler its per-thread totals and error
// counters, mirroring wrk's per-thread summary/errors callbacks before the
// process-wide done callback sees the merged histograms.
func reportThreadSummaries(handler script.Handler, threads []*threadengine.Thread, warmupEnabled bool) {
	for _, t := range threads {
		basis := t.Started()
		if warmupEnabled {
			if pn := t.PhaseNormalStart(); !pn.IsZero() {
				basis = pn
			}
		}
		var runtimeUs int64
		if !basis.IsZero() {
			runtimeUs = time.Since(basis).Microseconds()
		}
		handler.Summary(runtimeUs, t.Counters.Complete, t.Counters.Bytes)
		handler.Errors(script.ErrorCounts{
			Connect: t.Counters.ErrConnect,
			Read:    t.Counters.ErrRead,
			Write:   t.Counters.ErrWrite,
			Status:  t.Counters.ErrStatus,
			Timeout: t.Counters.ErrTimeout,
		})
	}
}

func toAggregateThreads(threads []*threadengine.Thread) []aggregate.Thread {
	out := make([]aggregate.Thread, len(threads))
	for i, t := range threads {
		out[i] = aggregate.Thread{
			Counters:         t.Counters,
			Connections:      t.Connections(),
			Started:          t.Started(),
			PhaseNormalStart: t.PhaseNormalStart(),
			Latency:          t.Latency,
			RequestRate:      t.RateHist,
		}
	}
	return out
}

func strategyFor(cfg *config.Config) tlsstrategy.Strategy {
	if cfg.Transport == config.TransportTLS {
		opts := tlsstrategy.DefaultOptions()
		opts.ServerName = cfg.URL.Hostname()
		return tlsstrategy.NewTLS(opts)
	}
	return tlsstrategy.NewPlain()
}

func setupSync(cfg *config.Config, log logging.Logger) (*phase.InterProcessSync, error) {
	if cfg.Role == config.RolePrimary {
		return phase.SetupPrimary(cfg.SyncAddr, cfg.Secondaries, cfg.StrictSync, log.Warnf)
	}
	return phase.SetupSecondary(cfg.SyncAddr, cfg.StrictSync, log.Warnf)
}
