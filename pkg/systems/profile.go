package systems

import (
	"fmt"
	"sort"
	"strings"
)

// CPUConstraint limits which processors a Profile accepts. The zero value
// accepts nothing; use AnyCPU for an unconstrained profile.
type CPUConstraint struct {
	Any     bool
	Allowed []CPU
	Sockets int // 0 accepts any socket count
}

// AnyCPU accepts every processor.
var AnyCPU = CPUConstraint{Any: true}

// AllowCPUs accepts any of the given CPU patterns with any socket count.
func AllowCPUs(cpus ...CPU) CPUConstraint {
	return CPUConstraint{Allowed: cpus}
}

func (c CPUConstraint) satisfiedBy(d DetectedSystem) bool {
	if c.Sockets != 0 && c.Sockets != d.Sockets {
		return false
	}
	if c.Any {
		return true
	}
	for _, p := range c.Allowed {
		if p.matches(d.CPU) {
			return true
		}
	}
	return false
}

// Profile is one known hardware system. Profiles are built once when the
// table is constructed and must not be modified afterwards.
type Profile struct {
	// Name is the symbolic identifier records are keyed by, e.g. "A100_SXM_80GBx8".
	Name string
	// SystemID is the identifier used by the harness for result directories,
	// e.g. "DGX-A100_A100-SXM-80GBx8".
	SystemID     string
	CPU          CPUConstraint
	Accelerators map[Accelerator]int
	// MinMemory is the smallest host memory the configuration was tested with.
	// A zero quantity places no requirement.
	MinMemory Memory
	// NUMANodes, when set, requires an exact NUMA node count.
	NUMANodes *int
}

// SatisfiedBy reports whether the detected system meets every constraint of p.
func (p *Profile) SatisfiedBy(d DetectedSystem) bool {
	if !p.CPU.satisfiedBy(d) {
		return false
	}
	if d.MemoryBytes < p.MinMemory.Bytes() {
		return false
	}
	if p.NUMANodes != nil && *p.NUMANodes != d.NUMANodes {
		return false
	}
	return sameCounts(p.Accelerators, d.Accelerators)
}

// ComputeSM returns the compute capability of the profile's NVIDIA
// accelerators, or 0 if it has none. A profile mixing generations reports
// its oldest one.
func (p *Profile) ComputeSM() int {
	sm := 0
	for a, n := range p.Accelerators {
		if n == 0 || a.ComputeSM == 0 {
			continue
		}
		if sm == 0 || a.ComputeSM < sm {
			sm = a.ComputeSM
		}
	}
	return sm
}

// NumGPUs counts full GPUs and MIG slices together, the way the harness
// counts devices it has to drive.
func (p *Profile) NumGPUs() int {
	n := 0
	for a, c := range p.Accelerators {
		if a.Kind == KindGPU || a.Kind == KindMIG {
			n += c
		}
	}
	return n
}

func (p *Profile) String() string {
	return p.Name
}

// Describe renders the accelerator composition, e.g. "8x A100-SXM-80GB".
func (p *Profile) Describe() string {
	return describeCounts(p.Accelerators)
}

func sameCounts(want, got map[Accelerator]int) bool {
	if len(nonZero(want)) != len(nonZero(got)) {
		return false
	}
	for a, n := range want {
		if n != 0 && got[a] != n {
			return false
		}
	}
	return true
}

func nonZero(m map[Accelerator]int) map[Accelerator]int {
	out := make(map[Accelerator]int, len(m))
	for a, n := range m {
		if n != 0 {
			out[a] = n
		}
	}
	return out
}

func describeCounts(m map[Accelerator]int) string {
	if len(m) == 0 {
		return "no accelerators"
	}
	parts := make([]string, 0, len(m))
	for a, n := range m {
		parts = append(parts, fmt.Sprintf("%dx %s", n, a))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// DetectedSystem describes the machine the process is running on. It is
// produced once by Probe (or built by hand in tests and overrides) and
// compared against every Profile.
type DetectedSystem struct {
	CPU          CPU
	Sockets      int
	Accelerators map[Accelerator]int
	MemoryBytes  uint64
	NUMANodes    int
}

func (d DetectedSystem) String() string {
	return fmt.Sprintf("%dx %s, %s, %.1f GiB, %d NUMA node(s)",
		d.Sockets, d.CPU, describeCounts(d.Accelerators),
		float64(d.MemoryBytes)/float64(1<<30), d.NUMANodes)
}
