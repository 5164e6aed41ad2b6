package systems

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// customFile is the on-disk shape of a site-specific system list. An entry
// named like a built-in replaces it; other entries go after the built-in GPU
// and CPU systems, so they only win for hardware those do not already claim.
//
//	systems:
//	  - name: Lab_A100_SXM_80GBx4
//	    system_id: Lab-A100-SXM-80GBx4
//	    cpus: [any]
//	    accelerators:
//	      - {name: A100-SXM-80GB, count: 4}
//	    min_memory: 256GiB
type customFile struct {
	Systems []customSystem `yaml:"systems"`
}

type customSystem struct {
	Name         string              `yaml:"name"`
	SystemID     string              `yaml:"system_id"`
	CPUs         []string            `yaml:"cpus"`
	Sockets      int                 `yaml:"sockets"`
	Accelerators []customAccelerator `yaml:"accelerators"`
	MinMemory    string              `yaml:"min_memory"`
	NUMANodes    *int                `yaml:"numa_nodes"`
}

type customAccelerator struct {
	Name       string `yaml:"name"`
	MIG        string `yaml:"mig"`
	PowerLimit int    `yaml:"power_limit"`
	Count      int    `yaml:"count"`
}

// LoadCustomProfiles reads a YAML system list from path.
func LoadCustomProfiles(path string) ([]*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read custom systems: %w", err)
	}
	profiles, err := ParseCustomProfiles(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// ParseCustomProfiles decodes a YAML system list. CPU entries are catalogued
// model names, "x86_64" or "aarch64" for any CPU of that architecture, or
// "any". Accelerator names must be catalogued.
func ParseCustomProfiles(b []byte) ([]*Profile, error) {
	var f customFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode custom systems: %w", err)
	}
	out := make([]*Profile, 0, len(f.Systems))
	for i, s := range f.Systems {
		p, err := s.profile()
		if err != nil {
			return nil, fmt.Errorf("custom system %d (%q): %w", i, s.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s customSystem) profile() (*Profile, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	p := &Profile{
		Name:         s.Name,
		SystemID:     s.SystemID,
		Accelerators: make(map[Accelerator]int, len(s.Accelerators)),
		NUMANodes:    s.NUMANodes,
	}
	if p.SystemID == "" {
		p.SystemID = s.Name
	}

	c, err := cpuConstraint(s.CPUs)
	if err != nil {
		return nil, err
	}
	c.Sockets = s.Sockets
	p.CPU = c

	for _, a := range s.Accelerators {
		acc, err := a.resolve()
		if err != nil {
			return nil, err
		}
		if a.Count < 1 {
			return nil, fmt.Errorf("accelerator %s: count must be >= 1", acc)
		}
		p.Accelerators[acc] += a.Count
	}

	if s.MinMemory != "" {
		m, err := ParseMemory(s.MinMemory)
		if err != nil {
			return nil, err
		}
		p.MinMemory = m
	}
	return p, nil
}

func cpuConstraint(names []string) (CPUConstraint, error) {
	if len(names) == 0 {
		return AnyCPU, nil
	}
	var c CPUConstraint
	for _, n := range names {
		switch n {
		case "any":
			return AnyCPU, nil
		case string(ArchX86_64):
			c.Allowed = append(c.Allowed, CPUX86_64Generic)
		case string(ArchAarch64):
			c.Allowed = append(c.Allowed, CPUARMv8Generic)
		default:
			known, ok := KnownCPU(n)
			if !ok {
				return CPUConstraint{}, fmt.Errorf("unknown cpu %q", n)
			}
			c.Allowed = append(c.Allowed, known)
		}
	}
	return c, nil
}

func (a customAccelerator) resolve() (Accelerator, error) {
	for _, k := range knownAccelerators {
		if k.Name != a.Name || k.Slice != a.MIG {
			continue
		}
		if a.PowerLimit != 0 && k.PowerLimitW != a.PowerLimit {
			continue
		}
		return k, nil
	}
	if a.MIG != "" {
		return Accelerator{}, fmt.Errorf("unknown accelerator %q MIG %q", a.Name, a.MIG)
	}
	return Accelerator{}, fmt.Errorf("unknown accelerator %q", a.Name)
}

// LoadTable returns the built-in table overridden by the systems listed in
// the YAML file at path: an entry named like a built-in replaces it, other
// entries are added. An empty path returns the built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	extra, err := LoadCustomProfiles(path)
	if err != nil {
		return nil, err
	}
	return DefaultTable().Override(extra...)
}
