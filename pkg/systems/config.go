package systems

import (
	"os"
	"strconv"
	"time"
)

// nvidiaSMI is the nvidia-smi binary the probe runs.
// Override with NVIDIA_SMI (absolute path) when it is not on PATH, as in
// minimal containers that mount the driver utilities elsewhere.
var nvidiaSMI = envString("NVIDIA_SMI", "nvidia-smi")

// probeTimeout bounds a whole Probe call, including every nvidia-smi run.
// Override with PROBE_TIMEOUT_SECONDS (integer seconds).
var probeTimeout = envDuration("PROBE_TIMEOUT_SECONDS", time.Second, 30*time.Second)

// inferentiaInstance names the EC2 instance type on Inferentia hosts, e.g.
// "inf1.6xlarge". The Neuron devices carry no identifying model string, so
// the operator has to say which shape the node is. Set with SYSCONF_INFERENTIA.
var inferentiaInstance = os.Getenv("SYSCONF_INFERENTIA")

// customSystemsPath is a YAML file of site-specific systems appended to the
// built-in table. Set with SYSCONF_CUSTOM_SYSTEMS.
var customSystemsPath = os.Getenv("SYSCONF_CUSTOM_SYSTEMS")

// CustomSystemsPath returns the configured custom system list, or "".
func CustomSystemsPath() string {
	return customSystemsPath
}

// strictMatch makes Identify fail when the detected system satisfies more
// than one profile instead of taking the first in table order.
// Enable with SYSCONF_STRICT_MATCH=true.
var strictMatch = envBool("SYSCONF_STRICT_MATCH", false)

// ProbeTimeout returns the active probe deadline. Exported for callers that
// build their own context around Probe.
func ProbeTimeout() time.Duration {
	return probeTimeout
}

func envString(key, def string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return def
}

func envDuration(key string, unit, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return time.Duration(v) * unit
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			return v
		}
	}
	return def
}
