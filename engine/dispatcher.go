package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/use-agent/serprank/models"
)

// Dispatcher coordinates multi-engine racing with staged escalation for one
// session. It starts the cheapest engine first and escalates to heavier ones
// if earlier ones fail, time out or get served a challenge page.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *HostMemory
	detectors        []Detector
}

// NewDispatcher creates a Dispatcher. engines[i] starts escalationDelays[i]
// after the race begins; missing delays are zero.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *HostMemory, detectors []Detector) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
		detectors:        detectors,
	}
}

// Dispatch returns the first successful, unchallenged result. If every
// engine fails it returns the last error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engines configured")
	}
	if len(d.engines) == 1 {
		return d.fetch(ctx, d.engines[0], req)
	}

	host := extractHost(req.URL)

	if remembered := d.memory.Get(host); remembered != "" {
		for _, eng := range d.engines {
			if eng.Name() != remembered {
				continue
			}
			slog.Debug("host memory hit", "host", host, "engine", remembered)
			result, err := d.fetch(ctx, eng, req)
			if err == nil {
				return result, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			slog.Info("remembered engine failed, running full race",
				"host", host, "engine", remembered, "error", err)
			d.memory.Delete(host)
			break
		}
	}

	return d.race(ctx, req, host)
}

// fetch runs one engine and turns a challenge page into an error.
func (d *Dispatcher) fetch(ctx context.Context, e Engine, req *FetchRequest) (*FetchResult, error) {
	result, err := e.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if source, blocked := DetectChallenge(result, d.detectors); blocked {
		return nil, models.NewRankError(models.ErrCodeBlocked,
			fmt.Sprintf("%s engine was served a challenge page (%s)", e.Name(), source), nil)
	}
	return result, nil
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, host string) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-timer.C:
				}
			}
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := d.fetch(raceCtx, e, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		raceCancel()
		slog.Debug("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		d.memory.Set(host, rr.result.EngineName)
		return rr.result, nil
	}

	if lastErr == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
