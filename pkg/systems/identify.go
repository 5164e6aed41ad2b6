package systems

import (
	"context"
	"time"

	"github.com/justin-oleary/mlperf-sysconf/pkg/metrics"
)

// Resolve matches d against t. In strict mode overlapping profiles are an
// *AmbiguousMatchError; otherwise the first profile in table order wins. The
// profile is nil when nothing matched.
func (t *Table) Resolve(d DetectedSystem, strict bool) (*Profile, error) {
	if strict {
		return t.MatchStrict(d)
	}
	p, _ := t.Match(d)
	return p, nil
}

// Identify probes the host and resolves the result against t, honouring
// SYSCONF_STRICT_MATCH.
func Identify(ctx context.Context, t *Table, opts ProbeOptions) (DetectedSystem, *Profile, error) {
	start := time.Now()
	d, err := Probe(ctx, opts)
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return DetectedSystem{}, nil, err
	}
	p, err := t.Resolve(d, strictMatch)
	if err != nil {
		return d, nil, err
	}
	system := metrics.Unmatched
	if p != nil {
		system = p.Name
	}
	metrics.MatchTotal.WithLabelValues(system).Inc()
	return d, p, nil
}
