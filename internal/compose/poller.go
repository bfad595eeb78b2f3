package compose

import (
	"context"

	"github.com/stackpilot/stackpilot/internal/logger"
)

// ServiceQuery returns the current service snapshot for a stack.
type ServiceQuery func(ctx context.Context) (map[string]ServiceInfo, error)

// poll runs the readiness state machine: query the named services each
// tick, settle READY as soon as every target service satisfies the
// target state, or TIMED_OUT once the elapsed wall-clock time exceeds
// the timeout. Settling is immediate; the remaining poll interval is
// never waited out.
func poll(ctx context.Context, clock Clock, project string, spec WaitSpec, query ServiceQuery) (State, error) {
	if err := spec.Validate(); err != nil {
		return StateUnknown, err
	}

	start := clock.Now()

	// Last observed state per target service, reported on timeout.
	lastSeen := make(map[string]State, len(spec.Services))
	for _, name := range spec.Services {
		lastSeen[name] = StateUnknown
	}

	for {
		if err := ctx.Err(); err != nil {
			return StateUnknown, err
		}

		services, err := query(ctx)
		if err != nil {
			// A status query can fail transiently while containers are
			// still being created; keep polling until the timeout.
			logger.Warn().Err(err).Str("project", project).Msg("service status query failed")
		} else {
			ready := true
			for _, name := range spec.Services {
				info, ok := services[name]
				if !ok {
					lastSeen[name] = StateUnknown
					ready = false
					continue
				}
				lastSeen[name] = info.State
				if !spec.Target.SatisfiedBy(info.State) {
					ready = false
				}
			}
			if ready {
				logger.Debug().
					Str("project", project).
					Str("target", string(spec.Target)).
					Dur("elapsed", clock.Now().Sub(start)).
					Msg("services ready")
				return spec.Target, nil
			}
		}

		elapsed := clock.Now().Sub(start)
		if elapsed >= spec.Timeout {
			unready := make(map[string]State)
			for _, name := range spec.Services {
				if !spec.Target.SatisfiedBy(lastSeen[name]) {
					unready[name] = lastSeen[name]
				}
			}
			return StateUnknown, &TimeoutError{
				Project: project,
				Target:  spec.Target,
				Elapsed: elapsed,
				Unready: unready,
			}
		}

		clock.Sleep(spec.Interval)
	}
}
