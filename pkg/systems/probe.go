package systems

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/klauspost/cpuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"
)

// RunCmdFunc runs an external command and returns its stdout.
// Defined as a type so tests can replay recorded nvidia-smi output.
type RunCmdFunc func(ctx context.Context, name string, args ...string) (string, error)

// HostInfo reports the host CPU and memory. The default implementation reads
// them through gopsutil and cpuid.
type HostInfo interface {
	CPU(ctx context.Context) (c CPU, sockets int, err error)
	MemoryBytes(ctx context.Context) (uint64, error)
}

// ProbeOptions configures Probe. The zero value probes the real host.
type ProbeOptions struct {
	Run    RunCmdFunc
	Host   HostInfo
	Root   string // filesystem root for sysfs and device-tree reads
	Logger *slog.Logger

	// InferentiaInstance overrides SYSCONF_INFERENTIA.
	InferentiaInstance string
}

func (o ProbeOptions) withDefaults() ProbeOptions {
	if o.Run == nil {
		o.Run = execCmd
	}
	if o.Host == nil {
		o.Host = hostInfo{}
	}
	if o.Root == "" {
		o.Root = "/"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.InferentiaInstance == "" {
		o.InferentiaInstance = inferentiaInstance
	}
	return o
}

// Probe detects the machine it runs on. CPU and memory failures are errors;
// missing accelerator tooling only means the system has no such devices.
func Probe(ctx context.Context, opts ProbeOptions) (DetectedSystem, error) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var (
		d    DetectedSystem
		accs map[Accelerator]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, sockets, err := opts.Host.CPU(gctx)
		if err != nil {
			return fmt.Errorf("probe cpu: %w", err)
		}
		d.CPU, d.Sockets = c, sockets
		return nil
	})
	g.Go(func() error {
		total, err := opts.Host.MemoryBytes(gctx)
		if err != nil {
			return fmt.Errorf("probe memory: %w", err)
		}
		d.MemoryBytes = total
		return nil
	})
	g.Go(func() error {
		d.NUMANodes = numaNodes(opts.Root)
		return nil
	})
	g.Go(func() error {
		accs = probeAccelerators(gctx, opts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return DetectedSystem{}, err
	}
	d.Accelerators = accs
	return d, nil
}

func probeAccelerators(ctx context.Context, opts ProbeOptions) map[Accelerator]int {
	accs := make(map[Accelerator]int)

	soc, onSoC := probeTegra(opts.Root)
	gpus, err := probeNVIDIA(ctx, opts.Run)
	if err != nil {
		opts.Logger.Debug("nvidia-smi unavailable, assuming no discrete GPUs", "err", err)
	}
	for a, n := range gpus {
		if onSoC && integratedGPU(a) {
			continue
		}
		accs[a] += n
	}
	if onSoC {
		accs[soc] = 1
	}
	if opts.InferentiaInstance != "" {
		if a, ok := KnownAccelerator(opts.InferentiaInstance, ""); ok && a.Kind == KindInferentia {
			accs[a]++
		} else {
			opts.Logger.Warn("unknown Inferentia instance type ignored", "instance", opts.InferentiaInstance)
		}
	}
	return accs
}

// probeNVIDIA counts GPUs from nvidia-smi. MIG-enabled boards are counted by
// their slices instead of as whole GPUs, since that is what the harness
// schedules onto.
func probeNVIDIA(ctx context.Context, run RunCmdFunc) (map[Accelerator]int, error) {
	out, err := run(ctx, nvidiaSMI,
		"--query-gpu=index,name,pci.device_id,power.default_limit",
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	boards, err := parseGPUQuery(out)
	if err != nil {
		return nil, err
	}

	slices := map[int][]string{}
	if list, err := run(ctx, nvidiaSMI, "-L"); err == nil {
		slices = parseMIGList(list)
	}

	counts := make(map[Accelerator]int)
	for _, b := range boards {
		if migs := slices[b.index]; len(migs) > 0 {
			for _, s := range migs {
				counts[MIGOf(b.acc, s)]++
			}
			continue
		}
		counts[b.acc]++
	}
	return counts, nil
}

type gpuBoard struct {
	index int
	acc   Accelerator
}

func parseGPUQuery(out string) ([]gpuBoard, error) {
	var boards []gpuBoard
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("nvidia-smi: unexpected field count in %q", line)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi: bad index in %q: %w", line, err)
		}
		var power int
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err == nil {
			power = int(v + 0.5)
		}
		pciID := strings.TrimSpace(fields[2])
		if pciID == "[N/A]" {
			pciID = ""
		}
		boards = append(boards, gpuBoard{
			index: idx,
			acc:   IdentifyGPU(strings.TrimSpace(fields[1]), pciID, power),
		})
	}
	return boards, nil
}

// integratedGPU reports whether a row from nvidia-smi is a Tegra iGPU, which
// JetPack lists without a PCI id (e.g. "Orin (nvgpu)").
func integratedGPU(a Accelerator) bool {
	return a.Kind == KindGPU && (a.PCIID == "" || strings.Contains(strings.ToLower(a.Name), "nvgpu"))
}

// parseMIGList extracts MIG slice profiles per GPU index from `nvidia-smi -L`:
//
//	GPU 0: NVIDIA A100-SXM4-80GB (UUID: GPU-...)
//	  MIG 1g.10gb     Device  0: (UUID: MIG-...)
func parseMIGList(out string) map[int][]string {
	res := make(map[int][]string)
	current := -1
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "GPU "):
			rest := strings.TrimPrefix(line, "GPU ")
			colon := strings.IndexByte(rest, ':')
			if colon < 0 {
				current = -1
				continue
			}
			idx, err := strconv.Atoi(rest[:colon])
			if err != nil {
				current = -1
				continue
			}
			current = idx
		case strings.HasPrefix(line, "MIG ") && current >= 0:
			f := strings.Fields(line)
			if len(f) >= 2 {
				res[current] = append(res[current], f[1])
			}
		}
	}
	return res
}

// probeTegra identifies Jetson boards from the device-tree model string.
// nvidia-smi is missing on older JetPack and reports no device id on newer.
func probeTegra(root string) (Accelerator, bool) {
	for _, p := range []string{"proc/device-tree/model", "sys/firmware/devicetree/base/model"} {
		b, err := os.ReadFile(filepath.Join(root, p))
		if err != nil {
			continue
		}
		model := string(bytes.TrimRight(b, "\x00\n"))
		switch {
		case strings.Contains(model, "Orin"):
			return GPUOrin, true
		case strings.Contains(model, "Xavier NX"):
			return GPUXavierNX, true
		case strings.Contains(model, "Xavier"):
			return GPUAGXXavier, true
		}
	}
	return Accelerator{}, false
}

func numaNodes(root string) int {
	nodes, err := filepath.Glob(filepath.Join(root, "sys/devices/system/node/node[0-9]*"))
	if err != nil || len(nodes) == 0 {
		return 1
	}
	return len(nodes)
}

func execCmd(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(ee.Stderr))
		}
		return "", err
	}
	return string(out), nil
}

type hostInfo struct{}

func (hostInfo) CPU(ctx context.Context) (CPU, int, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return CPU{}, 0, err
	}
	if len(infos) == 0 {
		return CPU{}, 0, errors.New("no processors reported")
	}

	c := CPU{
		Name:   strings.TrimSpace(cpuid.CPU.BrandName),
		Arch:   goarchToArch(runtime.GOARCH),
		Vendor: infos[0].VendorID,
	}
	if c.Name == "" {
		c.Name = strings.TrimSpace(infos[0].ModelName)
	}

	sockets := map[string]struct{}{}
	for _, i := range infos {
		sockets[i.PhysicalID] = struct{}{}
	}
	n := len(sockets)
	if n == 0 {
		n = 1
	}
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil && physical > 0 {
		c.CoresPerSocket = physical / n
	}
	return c, n, nil
}

func (hostInfo) MemoryBytes(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

func goarchToArch(goarch string) Arch {
	switch goarch {
	case "amd64":
		return ArchX86_64
	case "arm64":
		return ArchAarch64
	default:
		return Arch(goarch)
	}
}
