package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/justin-oleary/mlperf-sysconf/pkg/systems"
)

func detect(name string) identifyFunc {
	return func(_ context.Context, t *systems.Table) (systems.DetectedSystem, *systems.Profile, error) {
		if name == "" {
			return systems.DetectedSystem{CPU: systems.CPU{Name: "mystery"}}, nil, nil
		}
		p, err := t.Lookup(name)
		return systems.DetectedSystem{}, p, err
	}
}

func failingDetect(context.Context, *systems.Table) (systems.DetectedSystem, *systems.Profile, error) {
	return systems.DetectedSystem{}, nil, errors.New("nvidia-smi timed out")
}

func TestRunExitCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		args     []string
		identify identifyFunc
		wantCode int
		wantOut  string // substring of stdout
		wantErr  string // substring of stderr
	}{
		{
			name:     "args for detected system",
			args:     []string{"-benchmark=bert", "-scenario=Server", "-format=args"},
			identify: detect("A100_PCIe_40GBx8"),
			wantCode: exitOK,
			wantOut:  "--server_target_qps=20800\n",
		},
		{
			name:     "explicit system skips detection",
			args:     []string{"-benchmark=ssd-mobilenet", "-scenario=SingleStream", "-harness=hetero_mig", "-system=A100_PCIe_80GB_MIG_1x1g_10gb", "-format=args"},
			identify: failingDetect,
			wantCode: exitOK,
			wantOut:  "--single_stream_expected_latency_ns=470000\n",
		},
		{
			name:     "unknown benchmark",
			args:     []string{"-benchmark=gpt-j", "-scenario=Server"},
			identify: detect("T4x1"),
			wantCode: exitUsage,
			wantErr:  "unknown value",
		},
		{
			name:     "unknown format",
			args:     []string{"-benchmark=bert", "-scenario=Server", "-format=yaml"},
			identify: detect("T4x1"),
			wantCode: exitUsage,
			wantErr:  "unknown format",
		},
		{
			name:     "unknown system",
			args:     []string{"-benchmark=bert", "-scenario=Server", "-system=H100x8"},
			identify: detect("T4x1"),
			wantCode: exitUsage,
			wantErr:  "H100x8",
		},
		{
			name:     "no record for variant",
			args:     []string{"-benchmark=dlrm", "-scenario=Offline"},
			identify: detect("T4x1"),
			wantCode: exitNotFound,
			wantErr:  "configuration not found",
		},
		{
			name:     "unmatched host",
			args:     []string{"-benchmark=bert", "-scenario=Server"},
			identify: detect(""),
			wantCode: exitNotFound,
			wantErr:  "no known system",
		},
		{
			name:     "probe failure",
			args:     []string{"-benchmark=bert", "-scenario=Server"},
			identify: failingDetect,
			wantCode: exitUsage,
			wantErr:  "nvidia-smi timed out",
		},
		{
			name:     "list every variant",
			args:     []string{"-benchmark=bert", "-format=list"},
			identify: detect("T4x1"),
			wantCode: exitOK,
			wantOut:  "bert/SingleStream/T4x1/triton/k_99_9/MaxP\n",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tc.args, &stdout, &stderr, tc.identify)
			if code != tc.wantCode {
				t.Fatalf("exit code %d, want %d\nstderr: %s", code, tc.wantCode, stderr.String())
			}
			if !strings.Contains(stdout.String(), tc.wantOut) {
				t.Errorf("stdout missing %q\ngot: %s", tc.wantOut, stdout.String())
			}
			if !strings.Contains(stderr.String(), tc.wantErr) {
				t.Errorf("stderr missing %q\ngot: %s", tc.wantErr, stderr.String())
			}
		})
	}
}

func TestRunJSONReport(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-benchmark=rnnt", "-scenario=Server", "-system=A100_SXM_80GB_ROx4"},
		&stdout, &stderr, failingDetect)
	if code != exitOK {
		t.Fatalf("exit code %d\nstderr: %s", code, stderr.String())
	}

	var got struct {
		System struct {
			Name            string   `json:"name"`
			SystemID        string   `json:"system_id"`
			Classifications []string `json:"classifications"`
		} `json:"system"`
		Key struct {
			Benchmark string `json:"benchmark"`
			System    string `json:"system"`
		} `json:"key"`
		Fields map[string]any `json:"fields"`
		Args   []string       `json:"args"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, stdout.String())
	}

	if got.System.SystemID != "DGX-Station-A100_A100-SXM-80GBx4" {
		t.Errorf("system_id=%q", got.System.SystemID)
	}
	if diff := cmp.Diff([]string{"ampere", "gpu", "multi-gpu"}, got.System.Classifications); diff != "" {
		t.Errorf("classifications (-want +got):\n%s", diff)
	}
	if got.Key.Benchmark != "rnnt" || got.Key.System != "A100_SXM_80GB_ROx4" {
		t.Errorf("key = %+v", got.Key)
	}
	if _, ok := got.Fields["start_from_device"]; ok {
		t.Error("start_from_device should have been removed")
	}
	if got.Fields["_notes"] == nil {
		t.Error("notes missing from fields")
	}
	for _, a := range got.Args {
		if strings.HasPrefix(a, "--_") {
			t.Errorf("annotation leaked into args: %s", a)
		}
	}
}
