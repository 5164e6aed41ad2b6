package systems

import (
	"errors"
	"testing"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	a100x1 := &Profile{
		Name:         "A100x1",
		SystemID:     "A100x1",
		CPU:          AnyCPU,
		Accelerators: map[Accelerator]int{GPUA100SXM80GB: 1},
		MinMemory:    Memory{30, GiB},
	}
	a100x8 := &Profile{
		Name:         "A100x8",
		SystemID:     "A100x8",
		CPU:          AllowCPUs(CPUAMDEPYC7742),
		Accelerators: map[Accelerator]int{GPUA100SXM80GB: 8},
		MinMemory:    Memory{1, TiB},
	}
	twoNUMA := 2
	cpuOnly := &Profile{
		Name:         "CPU_2S",
		SystemID:     "CPU_2S",
		CPU:          CPUConstraint{Allowed: []CPU{CPUIntelXeonPlatinum8380}, Sockets: 2},
		Accelerators: map[Accelerator]int{},
		MinMemory:    Memory{500, GB},
		NUMANodes:    &twoNUMA,
	}
	table, err := NewTable(a100x1, a100x8, cpuOnly)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	cases := []struct {
		name     string
		detected DetectedSystem
		want     *Profile // nil = no match
	}{
		{
			name: "single A100 with 64 GiB matches A100x1",
			detected: DetectedSystem{
				CPU:          CPU{Name: "whatever", Arch: ArchX86_64},
				Sockets:      1,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 1},
				MemoryBytes:  64 << 30,
				NUMANodes:    1,
			},
			want: a100x1,
		},
		{
			name: "memory exactly at the minimum still matches",
			detected: DetectedSystem{
				CPU:          CPUAMDEPYC7742,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 1},
				MemoryBytes:  30 << 30,
			},
			want: a100x1,
		},
		{
			name: "memory below the minimum does not match",
			detected: DetectedSystem{
				CPU:          CPUAMDEPYC7742,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 1},
				MemoryBytes:  16 << 30,
			},
		},
		{
			name: "accelerator count must be exact",
			detected: DetectedSystem{
				CPU:          CPUAMDEPYC7742,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 4},
				MemoryBytes:  2 << 40,
			},
		},
		{
			name: "eight A100 on EPYC matches A100x8",
			detected: DetectedSystem{
				CPU:          CPUAMDEPYC7742,
				Sockets:      2,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 8},
				MemoryBytes:  2 << 40,
			},
			want: a100x8,
		},
		{
			name: "eight A100 on a CPU outside the allow-list does not match",
			detected: DetectedSystem{
				CPU:          CPUIntelXeonPlatinum8380,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 8},
				MemoryBytes:  2 << 40,
			},
		},
		{
			name: "extra accelerator kind breaks the match",
			detected: DetectedSystem{
				CPU:          CPUAMDEPYC7742,
				Accelerators: map[Accelerator]int{GPUA100SXM80GB: 1, GPUT4: 1},
				MemoryBytes:  64 << 30,
			},
		},
		{
			name: "cpu-only system with matching sockets and NUMA",
			detected: DetectedSystem{
				CPU:         CPUIntelXeonPlatinum8380,
				Sockets:     2,
				MemoryBytes: 512e9,
				NUMANodes:   2,
			},
			want: cpuOnly,
		},
		{
			name: "cpu-only system with wrong socket count",
			detected: DetectedSystem{
				CPU:         CPUIntelXeonPlatinum8380,
				Sockets:     4,
				MemoryBytes: 512e9,
				NUMANodes:   2,
			},
		},
		{
			name: "cpu-only system with wrong NUMA layout",
			detected: DetectedSystem{
				CPU:         CPUIntelXeonPlatinum8380,
				Sockets:     2,
				MemoryBytes: 512e9,
				NUMANodes:   8,
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := table.Match(tc.detected)
			if ok != (tc.want != nil) {
				t.Fatalf("Match ok=%v, want %v (got %v)", ok, tc.want != nil, got)
			}
			if got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}

			strict, err := table.MatchStrict(tc.detected)
			if err != nil {
				t.Fatalf("MatchStrict: %v", err)
			}
			if strict != tc.want {
				t.Errorf("MatchStrict = %v, want %v", strict, tc.want)
			}
		})
	}
}

func TestMatchStrictReportsOverlap(t *testing.T) {
	t.Parallel()

	first := &Profile{Name: "first", CPU: AnyCPU, Accelerators: map[Accelerator]int{GPUT4: 1}}
	second := &Profile{Name: "second", CPU: AllowCPUs(CPUX86_64Generic), Accelerators: map[Accelerator]int{GPUT4: 1}}
	table, err := NewTable(first, second)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	d := DetectedSystem{CPU: CPU{Name: "x", Arch: ArchX86_64}, Accelerators: map[Accelerator]int{GPUT4: 1}}

	got, ok := table.Match(d)
	if !ok || got != first {
		t.Errorf("Match = %v, %v; want first profile in table order", got, ok)
	}

	_, err = table.MatchStrict(d)
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("MatchStrict err = %v, want ErrAmbiguousMatch", err)
	}
	var amb *AmbiguousMatchError
	if !errors.As(err, &amb) {
		t.Fatalf("MatchStrict err is %T, want *AmbiguousMatchError", err)
	}
	if len(amb.Candidates) != 2 || amb.Candidates[0] != first || amb.Candidates[1] != second {
		t.Errorf("candidates = %v, want [first second]", amb.Candidates)
	}

	if _, err := table.Resolve(d, false); err != nil {
		t.Errorf("Resolve non-strict returned %v", err)
	}
	if _, err := table.Resolve(d, true); !errors.Is(err, ErrAmbiguousMatch) {
		t.Errorf("Resolve strict err = %v, want ErrAmbiguousMatch", err)
	}
}

func TestNewTableRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	p := &Profile{Name: "dup", CPU: AnyCPU}
	if _, err := NewTable(p, &Profile{Name: "dup"}); !errors.Is(err, ErrDuplicateProfile) {
		t.Fatalf("err = %v, want ErrDuplicateProfile", err)
	}

	base, err := NewTable(p)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, err := base.Extend(&Profile{Name: "dup"}); !errors.Is(err, ErrDuplicateProfile) {
		t.Fatalf("Extend err = %v, want ErrDuplicateProfile", err)
	}
	if base.Len() != 1 {
		t.Errorf("Extend modified the receiver: Len=%d", base.Len())
	}
}

// TestDefaultTableProfilesAreDisjoint builds a system that satisfies each
// built-in profile and checks that it matches that profile alone.
func TestDefaultTableProfilesAreDisjoint(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	if table.Len() == 0 {
		t.Fatal("default table is empty")
	}
	for _, p := range table.Profiles() {
		d := exemplar(p)
		got, err := table.MatchStrict(d)
		if err != nil {
			t.Errorf("%s: %v", p.Name, err)
			continue
		}
		if got != p {
			t.Errorf("%s: exemplar matched %v", p.Name, got)
		}
	}
}

func TestDefaultTableLookup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		systemID string
		gpus     int
	}{
		{"A100_SXM_80GBx8", "DGX-A100_A100-SXM-80GBx8", 8},
		{"A100_PCIe_80GB_MIG_56x1g_10gb", "A100-PCIe-80GB-MIG_56x1g.10gb", 56},
		{"Orin", "Orin", 1},
		{"Triton_CPU_4S_8380H", "Triton_CPU_4S_8380Hx1", 0},
		{"T4x20", "T4x20", 20},
	}
	for _, tc := range cases {
		p, err := DefaultTable().Lookup(tc.name)
		if err != nil {
			t.Errorf("Lookup(%q): %v", tc.name, err)
			continue
		}
		if p.SystemID != tc.systemID {
			t.Errorf("%s: SystemID=%q, want %q", tc.name, p.SystemID, tc.systemID)
		}
		if p.NumGPUs() != tc.gpus {
			t.Errorf("%s: NumGPUs=%d, want %d", tc.name, p.NumGPUs(), tc.gpus)
		}
	}

	if _, err := DefaultTable().Lookup("H100x8"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Lookup unknown err = %v, want ErrUnknownProfile", err)
	}
}

func TestParseMemory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "30GiB", want: 30 << 30},
		{in: "0.5 TiB", want: 1 << 39},
		{in: "500GB", want: 500e9},
		{in: "1TB", want: 1e12},
		{in: "GiB", wantErr: true},
		{in: "12 parsecs", wantErr: true},
	}
	for _, tc := range cases {
		m, err := ParseMemory(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMemory(%q) = %v, want error", tc.in, m)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMemory(%q): %v", tc.in, err)
			continue
		}
		if m.Bytes() != tc.want {
			t.Errorf("ParseMemory(%q).Bytes() = %d, want %d", tc.in, m.Bytes(), tc.want)
		}
	}
}

// exemplar returns a detected system that satisfies p with the least
// specific hardware the constraints allow.
func exemplar(p *Profile) DetectedSystem {
	d := DetectedSystem{
		CPU:          CPU{Name: "Exemplar CPU", Arch: ArchX86_64},
		Sockets:      1,
		Accelerators: make(map[Accelerator]int, len(p.Accelerators)),
		MemoryBytes:  p.MinMemory.Bytes(),
		NUMANodes:    1,
	}
	if !p.CPU.Any && len(p.CPU.Allowed) > 0 {
		c := p.CPU.Allowed[0]
		if c.Name == "" {
			c.Name = "Exemplar CPU"
		}
		d.CPU = c
	}
	if p.CPU.Sockets != 0 {
		d.Sockets = p.CPU.Sockets
	}
	if p.NUMANodes != nil {
		d.NUMANodes = *p.NUMANodes
	}
	for a, n := range p.Accelerators {
		d.Accelerators[a] = n
	}
	return d
}
