package systems

import "strings"

// Known CPUs. Generic entries leave fields empty so they match any processor
// of that architecture.
var (
	CPUAMDEPYC7742 = CPU{
		Name: "AMD EPYC 7742 64-Core Processor", Arch: ArchX86_64, Vendor: "AuthenticAMD", CoresPerSocket: 64,
	}
	CPUIntelXeonPlatinum8380 = CPU{
		Name: "Intel(R) Xeon(R) Platinum 8380 CPU @ 2.30GHz", Arch: ArchX86_64, Vendor: "GenuineIntel", CoresPerSocket: 40,
	}
	CPUIntelXeonPlatinum8380H = CPU{
		Name: "Intel(R) Xeon(R) Platinum 8380H CPU @ 2.90GHz", Arch: ArchX86_64, Vendor: "GenuineIntel", CoresPerSocket: 28,
	}
	CPUIntelXeonGold6258R = CPU{
		Name: "Intel(R) Xeon(R) Gold 6258R CPU @ 2.70GHz", Arch: ArchX86_64, Vendor: "GenuineIntel", CoresPerSocket: 28,
	}
	CPUIntelXeonSilver4314 = CPU{
		Name: "Intel(R) Xeon(R) Silver 4314 CPU @ 2.40GHz", Arch: ArchX86_64, Vendor: "GenuineIntel", CoresPerSocket: 16,
	}
	CPUNeoverseN1 = CPU{
		Name: "Neoverse-N1", Arch: ArchAarch64, Vendor: "ARM", CoresPerSocket: 80,
	}
	// Carmel core counts differ per board (8 on AGX Xavier, 6 on Xavier NX).
	CPUNVIDIACarmel = CPU{
		Name: "ARMv8 Processor rev 0 (v8l)", Arch: ArchAarch64, Vendor: "NVIDIA",
	}
	CPUX86_64Generic = CPU{Arch: ArchX86_64}
	CPUARMv8Generic  = CPU{Arch: ArchAarch64}
)

// Known GPUs. PCI ids are the NVIDIA device id followed by the vendor id.
var (
	GPUA100PCIe40GB = Accelerator{
		Kind: KindGPU, Name: "A100-PCIE-40GB", PCIID: "0x20F110DE", MemoryGiB: 40, PowerLimitW: 250, ComputeSM: 80,
	}
	GPUA100PCIe80GB = Accelerator{
		Kind: KindGPU, Name: "A100-PCIE-80GB", PCIID: "0x20B510DE", MemoryGiB: 80, PowerLimitW: 300, ComputeSM: 80,
	}
	GPUA100SXM4_40GB = Accelerator{
		Kind: KindGPU, Name: "A100-SXM4-40GB", PCIID: "0x20B010DE", MemoryGiB: 40, PowerLimitW: 400, ComputeSM: 80,
	}
	GPUA100SXM80GB = Accelerator{
		Kind: KindGPU, Name: "A100-SXM-80GB", PCIID: "0x20B210DE", MemoryGiB: 80, PowerLimitW: 400, ComputeSM: 80,
	}
	// DGX Station A100 ships the same board power-capped, so the power limit
	// is the only thing that tells the two apart.
	GPUA100SXM80GBRO = Accelerator{
		Kind: KindGPU, Name: "A100-SXM-80GB", PCIID: "0x20B210DE", MemoryGiB: 80, PowerLimitW: 275, ComputeSM: 80,
	}
	GPUA10 = Accelerator{
		Kind: KindGPU, Name: "A10", PCIID: "0x223610DE", MemoryGiB: 24, PowerLimitW: 150, ComputeSM: 86,
	}
	GPUA30 = Accelerator{
		Kind: KindGPU, Name: "A30", PCIID: "0x20B710DE", MemoryGiB: 24, PowerLimitW: 165, ComputeSM: 80,
	}
	GPUA2 = Accelerator{
		Kind: KindGPU, Name: "A2", PCIID: "0x25B610DE", MemoryGiB: 16, PowerLimitW: 60, ComputeSM: 86,
	}
	GPUT4 = Accelerator{
		Kind: KindGPU, Name: "Tesla T4", PCIID: "0x1EB810DE", MemoryGiB: 16, PowerLimitW: 70, ComputeSM: 75,
	}
	GPUGeForceRTX3080 = Accelerator{
		Kind: KindGPU, Name: "GeForce RTX 3080", PCIID: "0x220610DE", MemoryGiB: 10, PowerLimitW: 320, ComputeSM: 86,
	}
	GPUGeForceRTX3090 = Accelerator{
		Kind: KindGPU, Name: "GeForce RTX 3090", PCIID: "0x220410DE", MemoryGiB: 24, PowerLimitW: 350, ComputeSM: 86,
	}
	GPUDriveA100PCIe = Accelerator{
		Kind: KindGPU, Name: "DRIVE-A100-PCIE", PCIID: "0x20BB10DE", MemoryGiB: 32, PowerLimitW: 250, ComputeSM: 80,
	}

	// Tegra SoCs have no PCI id; the probe identifies them from the
	// device-tree model string.
	GPUAGXXavier = Accelerator{Kind: KindGPU, Name: "Jetson AGX Xavier", MemoryGiB: 32, ComputeSM: 72}
	GPUXavierNX  = Accelerator{Kind: KindGPU, Name: "Jetson Xavier NX", MemoryGiB: 8, ComputeSM: 72}
	GPUOrin      = Accelerator{Kind: KindGPU, Name: "Jetson AGX Orin", MemoryGiB: 32, ComputeSM: 87}
)

// Known MIG slices, one per parent board.
var (
	MIGA100PCIe40GB1g5gb  = mig(GPUA100PCIe40GB, "1g.5gb", 5)
	MIGA100PCIe80GB1g10gb = mig(GPUA100PCIe80GB, "1g.10gb", 10)
	MIGA100SXM4_40GB1g5gb = mig(GPUA100SXM4_40GB, "1g.5gb", 5)
	MIGA100SXM80GB1g10gb  = mig(GPUA100SXM80GB, "1g.10gb", 10)
	MIGA100SXM80GBRO1g10g = mig(GPUA100SXM80GBRO, "1g.10gb", 10)
	MIGA30_1g6gb          = mig(GPUA30, "1g.6gb", 6)
)

// Known AWS Inferentia instance shapes. The whole instance is treated as one
// accelerator because the Neuron runtime schedules across its chips.
var (
	InferentiaINF1XLarge   = Accelerator{Kind: KindInferentia, Name: "inf1.xlarge"}
	InferentiaINF1_2XLarge = Accelerator{Kind: KindInferentia, Name: "inf1.2xlarge"}
	InferentiaINF1_6XLarge = Accelerator{Kind: KindInferentia, Name: "inf1.6xlarge"}
	InferentiaINF124XLarge = Accelerator{Kind: KindInferentia, Name: "inf1.24xlarge"}
)

func mig(parent Accelerator, slice string, memGiB int) Accelerator {
	parent.Kind = KindMIG
	parent.Slice = slice
	parent.MemoryGiB = memGiB
	return parent
}

var knownCPUs = []CPU{
	CPUAMDEPYC7742,
	CPUIntelXeonPlatinum8380,
	CPUIntelXeonPlatinum8380H,
	CPUIntelXeonGold6258R,
	CPUIntelXeonSilver4314,
	CPUNeoverseN1,
	CPUNVIDIACarmel,
}

var knownAccelerators = []Accelerator{
	GPUA100PCIe40GB,
	GPUA100PCIe80GB,
	GPUA100SXM4_40GB,
	GPUA100SXM80GB,
	GPUA100SXM80GBRO,
	GPUA10,
	GPUA30,
	GPUA2,
	GPUT4,
	GPUGeForceRTX3080,
	GPUGeForceRTX3090,
	GPUDriveA100PCIe,
	GPUAGXXavier,
	GPUXavierNX,
	GPUOrin,
	MIGA100PCIe40GB1g5gb,
	MIGA100PCIe80GB1g10gb,
	MIGA100SXM4_40GB1g5gb,
	MIGA100SXM80GB1g10gb,
	MIGA100SXM80GBRO1g10g,
	MIGA30_1g6gb,
	InferentiaINF1XLarge,
	InferentiaINF1_2XLarge,
	InferentiaINF1_6XLarge,
	InferentiaINF124XLarge,
}

// KnownCPU returns the catalogued CPU with the given model name.
func KnownCPU(name string) (CPU, bool) {
	for _, c := range knownCPUs {
		if c.Name == name {
			return c, true
		}
	}
	return CPU{}, false
}

// KnownAccelerator returns the catalogued accelerator with the given name and
// MIG slice (empty for full devices). When several variants share a name the
// first catalogued one is returned.
func KnownAccelerator(name, slice string) (Accelerator, bool) {
	for _, a := range knownAccelerators {
		if a.Name == name && a.Slice == slice {
			return a, true
		}
	}
	return Accelerator{}, false
}

// IdentifyGPU resolves a device reported by nvidia-smi to a catalogued GPU.
// The PCI id is authoritative; the power limit breaks ties between boards
// that share one, and the marketing name is the fallback when the id is
// unknown. Unrecognized devices are returned as-is so they still count
// toward the detected system (and make it match nothing).
func IdentifyGPU(name, pciID string, powerLimitW int) Accelerator {
	var byID []Accelerator
	for _, a := range knownAccelerators {
		if a.Kind == KindGPU && a.PCIID != "" && equalFoldID(a.PCIID, pciID) {
			byID = append(byID, a)
		}
	}
	switch len(byID) {
	case 0:
	case 1:
		return byID[0]
	default:
		for _, a := range byID {
			if a.PowerLimitW == powerLimitW {
				return a
			}
		}
		return byID[0]
	}
	for _, a := range knownAccelerators {
		if a.Kind == KindGPU && matchesMarketingName(name, a.Name) {
			return a
		}
	}
	return Accelerator{Kind: KindGPU, Name: name, PCIID: pciID, PowerLimitW: powerLimitW}
}

func equalFoldID(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// matchesMarketingName compares an nvidia-smi product name against a
// catalogue name, ignoring the vendor prefix newer drivers add.
func matchesMarketingName(reported, known string) bool {
	reported = strings.TrimSpace(reported)
	reported = strings.TrimPrefix(reported, "NVIDIA ")
	return strings.EqualFold(reported, known)
}

// MIGOf returns the catalogued MIG slice of parent with the given profile,
// e.g. "1g.10gb". Unknown slices are synthesized so they still count.
func MIGOf(parent Accelerator, slice string) Accelerator {
	for _, a := range knownAccelerators {
		if a.Kind == KindMIG && a.Slice == slice && a.Name == parent.Name && a.PowerLimitW == parent.PowerLimitW {
			return a
		}
	}
	return mig(parent, slice, 0)
}
