package systems

import (
	"fmt"
	"strings"
	"sync"
)

// Table is an ordered, immutable list of known system profiles.
type Table struct {
	profiles []*Profile
	byName   map[string]*Profile
}

// NewTable builds a table from profiles in the given order.
func NewTable(profiles ...*Profile) (*Table, error) {
	t := &Table{byName: make(map[string]*Profile, len(profiles))}
	return t.add(profiles)
}

func (t *Table) add(profiles []*Profile) (*Table, error) {
	for _, p := range profiles {
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		t.byName[p.Name] = p
		t.profiles = append(t.profiles, p)
	}
	return t, nil
}

// Extend returns a new table holding t's profiles followed by extra. t is
// left unchanged.
func (t *Table) Extend(extra ...*Profile) (*Table, error) {
	out := &Table{
		profiles: make([]*Profile, 0, len(t.profiles)+len(extra)),
		byName:   make(map[string]*Profile, len(t.profiles)+len(extra)),
	}
	if _, err := out.add(t.profiles); err != nil {
		return nil, err
	}
	return out.add(extra)
}

// Override returns a new table where each profile in extra replaces the
// profile of the same name in place. Profiles with new names are inserted
// ahead of the Inferentia profiles. t is left unchanged.
func (t *Table) Override(extra ...*Profile) (*Table, error) {
	replace := make(map[string]*Profile, len(extra))
	var added []*Profile
	for _, p := range extra {
		if _, dup := replace[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		replace[p.Name] = p
		if _, exists := t.byName[p.Name]; !exists {
			added = append(added, p)
		}
	}

	merged := make([]*Profile, 0, len(t.profiles)+len(added))
	for _, p := range t.profiles {
		if len(added) > 0 && InferentiaBased(p) {
			merged = append(merged, added...)
			added = nil
		}
		if r, ok := replace[p.Name]; ok {
			p = r
		}
		merged = append(merged, p)
	}
	merged = append(merged, added...)
	return NewTable(merged...)
}

// Profiles returns the profiles in table order.
func (t *Table) Profiles() []*Profile {
	return append([]*Profile(nil), t.profiles...)
}

// Len returns the number of profiles.
func (t *Table) Len() int { return len(t.profiles) }

// Lookup returns the profile with the given symbolic name.
func (t *Table) Lookup(name string) (*Profile, error) {
	p, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Match returns the first profile, in table order, that d satisfies. An
// unmatched system is an expected state: the result is (nil, false).
func (t *Table) Match(d DetectedSystem) (*Profile, bool) {
	for _, p := range t.profiles {
		if p.SatisfiedBy(d) {
			return p, true
		}
	}
	return nil, false
}

// MatchStrict is Match with overlap checking. It returns an
// *AmbiguousMatchError when d satisfies more than one profile, and
// (nil, nil) when it satisfies none.
func (t *Table) MatchStrict(d DetectedSystem) (*Profile, error) {
	var found []*Profile
	for _, p := range t.profiles {
		if p.SatisfiedBy(d) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, &AmbiguousMatchError{Candidates: found}
	}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the built-in table of known systems. It is built on
// first use and shared afterwards.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := NewTable(builtinProfiles()...)
		if err != nil {
			// the built-in list is static; a duplicate can only be an edit mistake
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// addSystems expands one system description into a profile per accelerator
// count. nameFormat and idFormat may contain a single %d verb for the count.
func addSystems(dst []*Profile, nameFormat, idFormat string, cpu CPUConstraint, acc Accelerator, counts []int, mem Memory) []*Profile {
	for _, n := range counts {
		dst = append(dst, &Profile{
			Name:         formatCount(nameFormat, n),
			SystemID:     formatCount(idFormat, n),
			CPU:          cpu,
			Accelerators: map[Accelerator]int{acc: n},
			MinMemory:    mem,
		})
	}
	return dst
}

func formatCount(format string, n int) string {
	if strings.Contains(format, "%d") {
		return fmt.Sprintf(format, n)
	}
	return format
}

func builtinProfiles() []*Profile {
	epycOrX86 := AllowCPUs(CPUAMDEPYC7742, CPUX86_64Generic)
	epyc := AllowCPUs(CPUAMDEPYC7742)
	neoverse := AllowCPUs(CPUNeoverseN1)

	var p []*Profile

	// A100 PCIe 40GB and 80GB
	p = addSystems(p, "A100_PCIe_40GBx%d", "A100-PCIex%d", epycOrX86, GPUA100PCIe40GB, []int{1, 8}, Memory{30, GiB})
	p = addSystems(p, "A100_PCIe_40GB_ARMx%d", "A100-PCIe_aarch64x%d", neoverse, GPUA100PCIe40GB, []int{1, 2, 4}, Memory{30, GiB})
	p = addSystems(p, "A100_PCIe_80GBx%d", "A100-PCIe-80GBx%d", epycOrX86, GPUA100PCIe80GB, []int{1, 2, 4, 8}, Memory{30, GiB})
	p = addSystems(p, "A100_PCIe_80GB_ARMx%d", "A100-PCIe-80GB_aarch64x%d", neoverse, GPUA100PCIe80GB, []int{1, 2, 4}, Memory{30, GiB})

	p = addSystems(p, "A100_PCIe_40GB_MIG_%dx1g_5gb", "A100-PCIe-MIG_%dx1g.5gb", epyc, MIGA100PCIe40GB1g5gb, []int{1}, Memory{1, TiB})
	p = addSystems(p, "A100_PCIe_40GB_ARM_MIG_%dx1g_5gb", "A100-PCIe_aarch64-MIG_%dx1g.5gb", neoverse, MIGA100PCIe40GB1g5gb, []int{1}, Memory{1, TiB})
	p = addSystems(p, "A100_PCIe_80GB_MIG_%dx1g_10gb", "A100-PCIe-80GB-MIG_%dx1g.10gb", epyc, MIGA100PCIe80GB1g10gb, []int{1, 7, 56}, Memory{1, TB})
	p = addSystems(p, "A100_PCIe_80GB_ARM_MIG_%dx1g_10gb", "A100-PCIe-80GB_aarch64-MIG_%dx1g.10gb", neoverse, MIGA100PCIe80GB1g10gb, []int{1}, Memory{1, TiB})

	// A100 SXM4 40GB and SXM 80GB
	p = addSystems(p, "A100_SXM4_40GBx%d", "DGX-A100_A100-SXM4-40GBx%d", epycOrX86, GPUA100SXM4_40GB, []int{1, 8}, Memory{30, GiB})
	p = addSystems(p, "A100_SXM_80GBx%d", "DGX-A100_A100-SXM-80GBx%d", epycOrX86, GPUA100SXM80GB, []int{1, 8}, Memory{30, GiB})
	p = addSystems(p, "A100_SXM_80GB_ROx%d", "DGX-Station-A100_A100-SXM-80GBx%d", epycOrX86, GPUA100SXM80GBRO, []int{1, 4}, Memory{30, GiB})
	p = addSystems(p, "A100_SXM_80GB_ARMx%d", "A100-SXM-80GB_aarch64x%d", neoverse, GPUA100SXM80GB, []int{1, 8}, Memory{1, TB})

	p = addSystems(p, "A100_SXM4_40GB_MIG_%dx1g_5gb", "DGX-A100_A100-SXM4-40GB-MIG_%dx1g.5gb", epyc, MIGA100SXM4_40GB1g5gb, []int{1, 56}, Memory{1, TiB})
	p = addSystems(p, "A100_SXM_80GB_MIG_%dx1g_10gb", "DGX-A100_A100-SXM-80GB-MIG_%dx1g.10gb", epyc, MIGA100SXM80GB1g10gb, []int{1, 7, 56}, Memory{1, TiB})
	p = addSystems(p, "A100_SXM_80GB_RO_MIG_%dx1g_10gb", "DGX-Station-A100_A100-SXM-80GB-MIG_%dx1g.10gb", epyc, MIGA100SXM80GBRO1g10g, []int{1, 7, 28}, Memory{1, TiB})
	p = addSystems(p, "A100_SXM_80GB_ARM_MIG_%dx1g_10gb", "A100-SXM-80GB_aarch64_MIG_%dx1g.10gb", neoverse, MIGA100SXM80GB1g10gb, []int{1, 7, 56}, Memory{1, TB})

	// other Ampere parts
	p = addSystems(p, "GeForceRTX_3080x%d", "GeForceRTX3080x%d", AnyCPU, GPUGeForceRTX3080, []int{1}, Memory{30, GiB})
	p = addSystems(p, "GeForceRTX_3090x%d", "GeForceRTX3090x%d", AnyCPU, GPUGeForceRTX3090, []int{1}, Memory{30, GiB})
	p = addSystems(p, "A10x%d", "A10x%d", epyc, GPUA10, []int{1, 8}, Memory{0.9, TiB})
	p = addSystems(p, "A30x%d", "A30x%d", epyc, GPUA30, []int{1, 8}, Memory{0.5, TiB})
	p = addSystems(p, "A2x%d", "A2x%d", AnyCPU, GPUA2, []int{1, 2}, Memory{100, GiB})
	p = addSystems(p, "A30_MIG_%dx1g_6gb", "A30-MIG_%dx1g.6gb", epyc, MIGA30_1g6gb, []int{1, 32}, Memory{0.5, TiB})
	p = addSystems(p, "DRIVE_A100_PCIE", "Drive-A100-PCIex1", AllowCPUs(CPUIntelXeonSilver4314), GPUDriveA100PCIe, []int{1}, Memory{30, GB})

	// Turing
	p = addSystems(p, "T4x%d", "T4x%d", AllowCPUs(CPUX86_64Generic), GPUT4, []int{1, 8, 20}, Memory{32, GiB})

	// embedded
	p = addSystems(p, "AGX_Xavier", "AGX_Xavier", AllowCPUs(CPUNVIDIACarmel), GPUAGXXavier, []int{1}, Memory{30, GiB})
	p = addSystems(p, "Xavier_NX", "Xavier_NX", AllowCPUs(CPUNVIDIACarmel), GPUXavierNX, []int{1}, Memory{7, GiB})
	p = addSystems(p, "Orin", "Orin", AllowCPUs(CPUARMv8Generic), GPUOrin, []int{1}, Memory{7, GiB})

	// CPU-only systems
	p = append(p,
		cpuOnly("Triton_CPU_2S_8380", "Triton_CPU_2S_8380x1", CPUIntelXeonPlatinum8380, 2),
		cpuOnly("Triton_CPU_4S_8380H", "Triton_CPU_4S_8380Hx1", CPUIntelXeonPlatinum8380H, 4),
		cpuOnly("Triton_CPU_2S_6258R", "Triton_CPU_2S_6258Rx1", CPUIntelXeonGold6258R, 2),
	)

	// AWS Inferentia instances
	p = append(p,
		inferentia("Triton_Inferentia_INF1_XLARGE", "Triton_Inferentia_INF1_XLARGEx1", InferentiaINF1XLarge),
		inferentia("Triton_Inferentia_INF1_2XLARGE", "Triton_Inferentia_INF1_2XLARGEx1", InferentiaINF1_2XLarge),
		inferentia("Triton_Inferentia_INF1_6XLARGE", "Triton_Inferentia_INF1_6XLARGEx1", InferentiaINF1_6XLarge),
		inferentia("Triton_Inferentia_INF1_24XLARGE", "Triton_Inferentia_INF1_24XLARGEx1", InferentiaINF124XLarge),
	)
	return p
}

func cpuOnly(name, id string, cpu CPU, sockets int) *Profile {
	return &Profile{
		Name:         name,
		SystemID:     id,
		CPU:          CPUConstraint{Allowed: []CPU{cpu}, Sockets: sockets},
		Accelerators: map[Accelerator]int{},
		MinMemory:    Memory{500, GB},
	}
}

func inferentia(name, id string, acc Accelerator) *Profile {
	return &Profile{
		Name:         name,
		SystemID:     id,
		CPU:          AnyCPU,
		Accelerators: map[Accelerator]int{acc: 1},
	}
}
