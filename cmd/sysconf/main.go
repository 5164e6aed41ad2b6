// sysconf identifies the local MLPerf Inference system and prints the tuning
// configuration registered for it.
//
// Usage:
//
//	sysconf -benchmark=<name> -scenario=<name> [-harness=custom] [-accuracy=k_99]
//	        [-power=MaxP] [-system=<profile>] [-format=json|args|list]
//
// Formats:
//
//	json    Structured report: detected hardware, matched system,
//	        classifications, configuration key and fields.
//	args    One --name=value harness flag per line.
//	list    Every registered variant for the benchmark on this system.
//	        -scenario is optional here.
//
// Exit status is 1 for invalid flags or a failed probe and 2 when no
// configuration exists for the requested variant, so a launcher can skip it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/justin-oleary/mlperf-sysconf/pkg/configs"
	"github.com/justin-oleary/mlperf-sysconf/pkg/configs/catalog"
	"github.com/justin-oleary/mlperf-sysconf/pkg/metrics"
	"github.com/justin-oleary/mlperf-sysconf/pkg/systems"
)

const (
	exitOK       = 0
	exitUsage    = 1
	exitNotFound = 2
)

type systemReport struct {
	Name            string   `json:"name"`
	SystemID        string   `json:"system_id"`
	Description     string   `json:"description"`
	Classifications []string `json:"classifications"`
}

type keyReport struct {
	Benchmark string `json:"benchmark"`
	Scenario  string `json:"scenario"`
	Harness   string `json:"harness"`
	Accuracy  string `json:"accuracy"`
	Power     string `json:"power"`
	System    string `json:"system"`
}

type report struct {
	Timestamp string         `json:"timestamp"`
	Hostname  string         `json:"hostname"`
	Detected  string         `json:"detected,omitempty"`
	System    systemReport   `json:"system"`
	Key       keyReport      `json:"key"`
	Fields    configs.Fields `json:"fields"`
	Args      []string       `json:"args"`
}

// identifyFunc detects and matches the local system. Replaced in tests.
type identifyFunc func(ctx context.Context, t *systems.Table) (systems.DetectedSystem, *systems.Profile, error)

func probeHost(ctx context.Context, t *systems.Table) (systems.DetectedSystem, *systems.Profile, error) {
	return systems.Identify(ctx, t, systems.ProbeOptions{})
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, probeHost))
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, identify identifyFunc) int {
	fs := flag.NewFlagSet("sysconf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	benchmark := fs.String("benchmark", "", "benchmark: bert, dlrm, rnnt, resnet50, ssd-mobilenet, ssd-resnet34, 3d-unet")
	scenario := fs.String("scenario", "", "scenario: Offline, Server, SingleStream, MultiStream")
	harness := fs.String("harness", string(configs.HarnessCustom), "harness type: custom, lwis, triton, triton_unified, hetero_mig")
	accuracy := fs.String("accuracy", string(configs.Accuracy99), "accuracy target: k_99, k_99_9")
	power := fs.String("power", string(configs.MaxP), "power setting: MaxP, MaxQ")
	systemName := fs.String("system", "", "system profile name; skips hardware detection")
	format := fs.String("format", "json", "output format: json, args, list")
	customPath := fs.String("custom-systems", systems.CustomSystemsPath(), "YAML file of additional systems")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	key, err := parseKey(*benchmark, *scenario, *harness, *accuracy, *power, *format == "list")
	if err != nil {
		metrics.LookupTotal.WithLabelValues("invalid").Inc()
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}
	switch *format {
	case "json", "args", "list":
	default:
		fmt.Fprintf(stderr, "unknown format %q\nvalid: json, args, list\n", *format)
		return exitUsage
	}

	table, err := systems.LoadTable(*customPath)
	if err != nil {
		fmt.Fprintf(stderr, "load system table: %v\n", err)
		return exitUsage
	}

	var (
		detected *systems.DetectedSystem
		profile  *systems.Profile
	)
	if *systemName != "" {
		profile, err = table.Lookup(*systemName)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitUsage
		}
	} else {
		d, p, err := identify(ctx, table)
		if err != nil {
			fmt.Fprintf(stderr, "identify system: %v\n", err)
			return exitUsage
		}
		detected, profile = &d, p
		if profile == nil {
			fmt.Fprintf(stderr, "no known system matches this host: %s\n", d)
			return exitNotFound
		}
	}
	key.System = profile.Name

	reg := catalog.Default()

	if *format == "list" {
		variants := reg.Variants(key.Benchmark, key.Scenario, key.System)
		for _, k := range variants {
			fmt.Fprintln(stdout, k)
		}
		if len(variants) == 0 {
			return exitNotFound
		}
		return exitOK
	}

	rec, err := reg.Lookup(key)
	if err != nil {
		if errors.Is(err, configs.ErrNotFound) {
			metrics.LookupTotal.WithLabelValues("miss").Inc()
			fmt.Fprintf(stderr, "%v\n", err)
			return exitNotFound
		}
		fmt.Fprintf(stderr, "lookup: %v\n", err)
		return exitUsage
	}
	metrics.LookupTotal.WithLabelValues("hit").Inc()

	if *format == "args" {
		for _, a := range rec.Args() {
			fmt.Fprintln(stdout, a)
		}
		return exitOK
	}

	hostname, _ := os.Hostname()
	r := report{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostname,
		System: systemReport{
			Name:            profile.Name,
			SystemID:        profile.SystemID,
			Description:     profile.Describe(),
			Classifications: systems.Classify(profile),
		},
		Key: keyReport{
			Benchmark: string(key.Benchmark),
			Scenario:  string(key.Scenario),
			Harness:   string(key.Harness),
			Accuracy:  string(key.Accuracy),
			Power:     string(key.Power),
			System:    key.System,
		},
		Fields: rec.Fields(),
		Args:   rec.Args(),
	}
	if detected != nil {
		r.Detected = detected.String()
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintf(stderr, "json encode: %v\n", err)
		return exitUsage
	}
	return exitOK
}

// parseKey validates the enumerated flags. The system is filled in later.
// When anyScenario is set an empty scenario is allowed.
func parseKey(benchmark, scenario, harness, accuracy, power string, anyScenario bool) (configs.Key, error) {
	var k configs.Key
	var err error
	if k.Benchmark, err = configs.ParseBenchmark(benchmark); err != nil {
		return k, err
	}
	if scenario != "" || !anyScenario {
		if k.Scenario, err = configs.ParseScenario(scenario); err != nil {
			return k, err
		}
	}
	if k.Harness, err = configs.ParseHarnessType(harness); err != nil {
		return k, err
	}
	if k.Accuracy, err = configs.ParseAccuracyTarget(accuracy); err != nil {
		return k, err
	}
	if k.Power, err = configs.ParsePowerSetting(power); err != nil {
		return k, err
	}
	return k, nil
}
