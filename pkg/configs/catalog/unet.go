package catalog

import c "github.com/justin-oleary/mlperf-sysconf/pkg/configs"

var unetSingleStreamGPU = c.Fields{
	"gpu_inference_streams":              1,
	"gpu_copy_streams":                   1,
	"gpu_batch_size":                     map[string]int{"3d-unet": 4},
	"slice_overlap_patch_kernel_cg_impl": false,
}

func loadUNET3D(b *builder) {
	key := func(system string) c.Key { return maxP(c.UNET3D, c.SingleStream, system, c.HarnessCustom) }
	batch := func(n int) map[string]int { return map[string]int{"3d-unet": n} }

	pcie := b.add(key("A100_PCIe_80GBx1"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(8),
		"single_stream_expected_latency_ns": 542444704,
	}))
	b.add(variant(*pcie, c.HarnessCustom, c.Accuracy999, c.MaxP), pcie, nil)

	mig := b.add(key("A100_PCIe_80GB_MIG_1x1g_10gb"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(1),
		"single_stream_expected_latency_ns": int64(90000000000),
		"workspace_size":                    1073741824,
	}))
	b.add(variant(*mig, c.HarnessHeteroMIG, c.Accuracy99, c.MaxP), mig, nil)

	sxm := b.add(key("A100_SXM_80GBx1"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(8),
		"start_from_device":                 true,
		"end_on_device":                     true,
		"single_stream_expected_latency_ns": 515000000,
	}))
	b.add(variant(*sxm, c.HarnessCustom, c.Accuracy999, c.MaxP), sxm, nil)
	b.add(key("A100_SXM_80GB_ARMx1"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(8),
		"single_stream_expected_latency_ns": 520000000,
	}))
	b.add(key("A100_SXM4_40GBx1"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(8),
		"start_from_device":                 true,
		"end_on_device":                     true,
		"single_stream_expected_latency_ns": 657000000,
	}))
	b.add(key("A30x1"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(2),
		"single_stream_expected_latency_ns": 1226400000,
	}))
	b.add(key("Orin"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(2),
		"single_stream_expected_latency_ns": 2222222222,
		"use_direct_host_access":            true,
	}))
	b.add(key("T4x1"), nil, unetSingleStreamGPU.With(c.Fields{
		"gpu_batch_size":                    batch(1),
		"single_stream_expected_latency_ns": 2500000000,
	}))
}
