package systems

import "sort"

// Predicate classifies a matched profile. Every predicate accepts nil (an
// unmatched system) and returns false for it.
type Predicate func(*Profile) bool

func named(names ...string) Predicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(p *Profile) bool {
		if p == nil {
			return false
		}
		_, ok := set[p.Name]
		return ok
	}
}

// A100 SXM systems where the harness can keep inputs resident in device
// memory (start_from_device) and leave outputs there (end_on_device).
var deviceResident = []string{
	"A100_SXM_80GBx1",
	"A100_SXM_80GBx8",
	"A100_SXM_80GB_MIG_1x1g_10gb",
	"A100_SXM_80GB_MIG_56x1g_10gb",
	"A100_SXM4_40GBx1",
	"A100_SXM4_40GBx8",
	"A100_SXM4_40GB_MIG_1x1g_5gb",
	"A100_SXM_80GB_ARMx1",
	"A100_SXM_80GB_ARMx8",
}

var (
	IsXavierNX  = named("Xavier_NX")
	IsXavierAGX = named("AGX_Xavier")
	IsOrin      = named("Orin")

	StartFromDeviceEnabled = named(deviceResident...)
	EndOnDeviceEnabled     = named(deviceResident...)

	// IntelOpenVINO holds for the CPU-only systems served through the
	// OpenVINO backend of Triton.
	IntelOpenVINO = named("Triton_CPU_2S_8380", "Triton_CPU_4S_8380H", "Triton_CPU_2S_6258R")
)

// IsXavier holds for both Xavier boards.
func IsXavier(p *Profile) bool { return IsXavierNX(p) || IsXavierAGX(p) }

// IsSoC holds for the embedded Tegra systems.
func IsSoC(p *Profile) bool { return IsXavier(p) || IsOrin(p) }

// IsAmpere holds for compute capability 8.0, 8.6 and 8.7 parts.
func IsAmpere(p *Profile) bool {
	if p == nil {
		return false
	}
	switch p.ComputeSM() {
	case 80, 86, 87:
		return true
	}
	return false
}

// IsTuring holds for compute capability 7.5 parts.
func IsTuring(p *Profile) bool {
	return p != nil && p.ComputeSM() == 75
}

// InferentiaBased holds for profiles driving AWS Inferentia devices.
func InferentiaBased(p *Profile) bool {
	if p == nil {
		return false
	}
	for a, n := range p.Accelerators {
		if a.Kind == KindInferentia && n > 0 {
			return true
		}
	}
	return false
}

// GPUBased holds when the profile has at least one GPU or MIG slice.
func GPUBased(p *Profile) bool { return p != nil && p.NumGPUs() > 0 }

// MultiGPU holds when the profile has more than one GPU or MIG slice.
func MultiGPU(p *Profile) bool { return p != nil && p.NumGPUs() > 1 }

// Classifications maps a stable name to each predicate. The names are used
// as label suffixes and in reports, so they must not change.
var Classifications = map[string]Predicate{
	"xavier-nx":         IsXavierNX,
	"xavier-agx":        IsXavierAGX,
	"xavier":            IsXavier,
	"orin":              IsOrin,
	"soc":               IsSoC,
	"ampere":            IsAmpere,
	"turing":            IsTuring,
	"start-from-device": StartFromDeviceEnabled,
	"end-on-device":     EndOnDeviceEnabled,
	"intel-openvino":    IntelOpenVINO,
	"inferentia":        InferentiaBased,
	"gpu":               GPUBased,
	"multi-gpu":         MultiGPU,
}

// Classify returns the sorted names of every classification that holds for p.
func Classify(p *Profile) []string {
	var out []string
	for name, pred := range Classifications {
		if pred(p) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
