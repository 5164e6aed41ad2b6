// Package catalog ships a representative set of tuning records so the
// registry can be used without an external configuration tree.
package catalog

import (
	"sync"

	"github.com/justin-oleary/mlperf-sysconf/pkg/configs"
	"github.com/justin-oleary/mlperf-sysconf/pkg/metrics"
)

var (
	defaultOnce sync.Once
	defaultReg  *configs.Registry
)

// Load registers every built-in record into r. Records are registered
// parents first; the first failure is returned.
func Load(r *configs.Registry) error {
	for _, load := range []func(*builder){
		loadBERT,
		loadRNNT,
		loadSSDMobileNet,
		loadSSDResNet34,
		loadUNET3D,
	} {
		b := &builder{reg: r}
		load(b)
		if b.err != nil {
			return b.err
		}
	}
	return nil
}

// Default returns the process-wide registry holding the built-in records.
// It is built on first use and sealed.
func Default() *configs.Registry {
	defaultOnce.Do(func() {
		r := configs.NewRegistry()
		if err := Load(r); err != nil {
			panic(err)
		}
		r.Seal()
		metrics.RegisteredConfigs.Set(float64(r.Len()))
		defaultReg = r
	})
	return defaultReg
}

// builder keeps declarations short and stops at the first error.
type builder struct {
	reg *configs.Registry
	err error
}

// ref names a registered record: a parent for later declarations.
type ref = *configs.Key

func (b *builder) add(k configs.Key, parent ref, f configs.Fields) ref {
	if b.err != nil {
		return &k
	}
	b.err = b.reg.Register(k, configs.Decl{Extends: parent, Fields: f})
	return &k
}

// variant derives a key from k with the given harness, accuracy and power.
func variant(k configs.Key, h configs.HarnessType, a configs.AccuracyTarget, p configs.PowerSetting) configs.Key {
	k.Harness, k.Accuracy, k.Power = h, a, p
	return k
}

func maxP(b configs.Benchmark, s configs.Scenario, system string, h configs.HarnessType) configs.Key {
	return configs.Key{Benchmark: b, Scenario: s, Harness: h, Accuracy: configs.Accuracy99, Power: configs.MaxP, System: system}
}
