package systems

import (
	"fmt"
	"strconv"
	"strings"
)

// Arch is a CPU instruction set architecture as reported by the kernel.
type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
)

// CPU describes a processor. Used both for detected CPUs and as a match
// pattern in a CPUConstraint, where zero-valued fields match anything.
type CPU struct {
	Name           string
	Arch           Arch
	Vendor         string
	CoresPerSocket int
}

// matches reports whether the detected CPU d satisfies the pattern c.
func (c CPU) matches(d CPU) bool {
	if c.Name != "" && c.Name != d.Name {
		return false
	}
	if c.Arch != "" && c.Arch != d.Arch {
		return false
	}
	if c.Vendor != "" && c.Vendor != d.Vendor {
		return false
	}
	if c.CoresPerSocket != 0 && c.CoresPerSocket != d.CoresPerSocket {
		return false
	}
	return true
}

func (c CPU) String() string {
	if c.Name == "" {
		return "generic " + string(c.Arch)
	}
	return c.Name
}

// AcceleratorKind separates full GPUs from MIG slices and non-NVIDIA devices.
type AcceleratorKind string

const (
	KindGPU        AcceleratorKind = "gpu"
	KindMIG        AcceleratorKind = "mig"
	KindInferentia AcceleratorKind = "inferentia"
)

// Accelerator identifies one kind of accelerator device. The struct is
// comparable and is used as a map key for per-kind device counts, so probes
// must normalize what they see to the canonical values in known.go.
type Accelerator struct {
	Kind        AcceleratorKind
	Name        string
	PCIID       string // vendor-qualified device id, e.g. "0x20B210DE"
	MemoryGiB   int
	PowerLimitW int
	ComputeSM   int    // CUDA compute capability x10; 0 for non-NVIDIA devices
	Slice       string // MIG profile, e.g. "1g.10gb"; empty for full devices
}

func (a Accelerator) String() string {
	if a.Slice != "" {
		return a.Name + " MIG " + a.Slice
	}
	return a.Name
}

// ByteSuffix is a memory size unit.
type ByteSuffix string

const (
	KiB ByteSuffix = "KiB"
	MiB ByteSuffix = "MiB"
	GiB ByteSuffix = "GiB"
	TiB ByteSuffix = "TiB"
	KB  ByteSuffix = "KB"
	MB  ByteSuffix = "MB"
	GB  ByteSuffix = "GB"
	TB  ByteSuffix = "TB"
)

var suffixBytes = map[ByteSuffix]float64{
	KiB: 1 << 10,
	MiB: 1 << 20,
	GiB: 1 << 30,
	TiB: 1 << 40,
	KB:  1e3,
	MB:  1e6,
	GB:  1e9,
	TB:  1e12,
}

// Memory is a quantity of memory with its unit kept for display, so that
// "0.9 TiB" reads the way the requirement was written.
type Memory struct {
	Quantity float64
	Suffix   ByteSuffix
}

// Bytes returns the memory size in bytes.
func (m Memory) Bytes() uint64 {
	return uint64(m.Quantity * suffixBytes[m.Suffix])
}

func (m Memory) String() string {
	return strconv.FormatFloat(m.Quantity, 'f', -1, 64) + " " + string(m.Suffix)
}

// ParseMemory parses strings like "30GiB", "0.5 TiB" or "500GB".
func ParseMemory(s string) (Memory, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return Memory{}, fmt.Errorf("parse memory %q: missing quantity or unit", s)
	}
	q, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Memory{}, fmt.Errorf("parse memory %q: %w", s, err)
	}
	suffix := ByteSuffix(strings.TrimSpace(s[i:]))
	if _, ok := suffixBytes[suffix]; !ok {
		return Memory{}, fmt.Errorf("parse memory %q: unknown unit %q", s, suffix)
	}
	return Memory{Quantity: q, Suffix: suffix}, nil
}
