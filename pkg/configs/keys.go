package configs

import (
	"fmt"
	"slices"
	"strings"
)

// Benchmark is an MLPerf Inference benchmark.
type Benchmark string

const (
	BERT         Benchmark = "bert"
	DLRM         Benchmark = "dlrm"
	RNNT         Benchmark = "rnnt"
	ResNet50     Benchmark = "resnet50"
	SSDMobileNet Benchmark = "ssd-mobilenet"
	SSDResNet34  Benchmark = "ssd-resnet34"
	UNET3D       Benchmark = "3d-unet"
)

// Benchmarks lists every benchmark in a stable order.
var Benchmarks = []Benchmark{BERT, DLRM, RNNT, ResNet50, SSDMobileNet, SSDResNet34, UNET3D}

var benchmarkAliases = map[string]Benchmark{
	"bert":          BERT,
	"dlrm":          DLRM,
	"rnnt":          RNNT,
	"rnn-t":         RNNT,
	"resnet50":      ResNet50,
	"resnet":        ResNet50,
	"ssd-mobilenet": SSDMobileNet,
	"ssdmobilenet":  SSDMobileNet,
	"mobilenet":     SSDMobileNet,
	"ssd-resnet34":  SSDResNet34,
	"ssdresnet34":   SSDResNet34,
	"3d-unet":       UNET3D,
	"3dunet":        UNET3D,
	"unet":          UNET3D,
}

// ParseBenchmark accepts canonical names and the common spellings used in
// harness command lines.
func ParseBenchmark(s string) (Benchmark, error) {
	if b, ok := benchmarkAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return b, nil
	}
	return "", fmt.Errorf("%w: benchmark %q", ErrUnknownValue, s)
}

// Scenario is the LoadGen query-arrival pattern.
type Scenario string

const (
	Offline      Scenario = "Offline"
	Server       Scenario = "Server"
	SingleStream Scenario = "SingleStream"
	MultiStream  Scenario = "MultiStream"
)

// Scenarios lists every scenario in a stable order.
var Scenarios = []Scenario{Offline, Server, SingleStream, MultiStream}

// ParseScenario is case-insensitive and ignores '-' and '_'.
func ParseScenario(s string) (Scenario, error) {
	n := normalize(s)
	for _, sc := range Scenarios {
		if normalize(string(sc)) == n {
			return sc, nil
		}
	}
	return "", fmt.Errorf("%w: scenario %q", ErrUnknownValue, s)
}

// HarnessType is the execution backend that runs a benchmark.
type HarnessType string

const (
	HarnessCustom        HarnessType = "custom"
	HarnessLWIS          HarnessType = "lwis"
	HarnessTriton        HarnessType = "triton"
	HarnessTritonUnified HarnessType = "triton_unified"
	HarnessHeteroMIG     HarnessType = "hetero_mig"
)

// HarnessTypes lists every harness type in a stable order.
var HarnessTypes = []HarnessType{HarnessCustom, HarnessLWIS, HarnessTriton, HarnessTritonUnified, HarnessHeteroMIG}

// ParseHarnessType is case-insensitive and ignores '-' and '_'.
func ParseHarnessType(s string) (HarnessType, error) {
	n := normalize(s)
	for _, h := range HarnessTypes {
		if normalize(string(h)) == n {
			return h, nil
		}
	}
	return "", fmt.Errorf("%w: harness type %q", ErrUnknownValue, s)
}

// AccuracyTarget is the fraction of the reference model's accuracy a
// configuration must reach.
type AccuracyTarget string

const (
	Accuracy99  AccuracyTarget = "k_99"
	Accuracy999 AccuracyTarget = "k_99_9"
)

// AccuracyTargets lists every accuracy target in a stable order.
var AccuracyTargets = []AccuracyTarget{Accuracy99, Accuracy999}

// Fraction returns the target as a fraction of reference accuracy.
func (a AccuracyTarget) Fraction() float64 {
	if a == Accuracy999 {
		return 0.999
	}
	return 0.99
}

// ParseAccuracyTarget accepts "k_99", "99", "0.99", "high_accuracy" and the
// corresponding 99.9 spellings.
func ParseAccuracyTarget(s string) (AccuracyTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k_99", "99", "0.99", "default":
		return Accuracy99, nil
	case "k_99_9", "99.9", "0.999", "high_accuracy", "high-accuracy":
		return Accuracy999, nil
	}
	return "", fmt.Errorf("%w: accuracy target %q", ErrUnknownValue, s)
}

// PowerSetting is the operating point a configuration was tuned for.
type PowerSetting string

const (
	MaxP PowerSetting = "MaxP"
	MaxQ PowerSetting = "MaxQ"
)

// PowerSettings lists every power setting in a stable order.
var PowerSettings = []PowerSetting{MaxP, MaxQ}

// ParsePowerSetting is case-insensitive.
func ParsePowerSetting(s string) (PowerSetting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maxp":
		return MaxP, nil
	case "maxq":
		return MaxQ, nil
	}
	return "", fmt.Errorf("%w: power setting %q", ErrUnknownValue, s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// Key identifies one configuration record. At most one record may be
// registered per key.
type Key struct {
	Benchmark Benchmark
	Scenario  Scenario
	Harness   HarnessType
	Accuracy  AccuracyTarget
	Power     PowerSetting
	System    string // systems.Profile.Name
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", k.Benchmark, k.Scenario, k.System, k.Harness, k.Accuracy, k.Power)
}

// Validate checks that every component is a canonical enumerated value and
// that a system is named.
func (k Key) Validate() error {
	switch {
	case !slices.Contains(Benchmarks, k.Benchmark):
		return fmt.Errorf("%w: benchmark %q", ErrUnknownValue, k.Benchmark)
	case !slices.Contains(Scenarios, k.Scenario):
		return fmt.Errorf("%w: scenario %q", ErrUnknownValue, k.Scenario)
	case !slices.Contains(HarnessTypes, k.Harness):
		return fmt.Errorf("%w: harness type %q", ErrUnknownValue, k.Harness)
	case !slices.Contains(AccuracyTargets, k.Accuracy):
		return fmt.Errorf("%w: accuracy target %q", ErrUnknownValue, k.Accuracy)
	case !slices.Contains(PowerSettings, k.Power):
		return fmt.Errorf("%w: power setting %q", ErrUnknownValue, k.Power)
	case k.System == "":
		return fmt.Errorf("%w: empty system", ErrUnknownValue)
	}
	return nil
}
