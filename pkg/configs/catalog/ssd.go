package catalog

import c "github.com/justin-oleary/mlperf-sysconf/pkg/configs"

const mobilenetCHW4 = "build/preprocessed_data/coco/val2017/SSDMobileNet/int8_chw4"

var (
	mobilenetSingleStreamGPU = c.Fields{
		"gpu_batch_size":        1,
		"gpu_copy_streams":      1,
		"gpu_inference_streams": 1,
		"use_graphs":            true,
	}
	mobilenetMultiStreamGPU = c.Fields{
		"gpu_batch_size":                         8,
		"gpu_copy_streams":                       1,
		"gpu_inference_streams":                  1,
		"multi_stream_samples_per_query":         8,
		"multi_stream_target_latency_percentile": 99,
		"use_graphs":                             true,
	}
	resnet34ServerGPU = c.Fields{
		"active_sms":                 100,
		"use_graphs":                 false,
		"use_cuda_thread_per_device": true,
	}
	resnet34OfflineGPU = c.Fields{
		"use_graphs": false,
	}
)

func loadSSDMobileNet(b *builder) {
	ss := func(system string, h c.HarnessType) c.Key { return maxP(c.SSDMobileNet, c.SingleStream, system, h) }
	ms := func(system string, h c.HarnessType) c.Key { return maxP(c.SSDMobileNet, c.MultiStream, system, h) }

	pcie := b.add(ss("A100_PCIe_40GBx1", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"single_stream_expected_latency_ns": 460000,
	}))
	b.add(variant(*pcie, c.HarnessTriton, c.Accuracy99, c.MaxP), pcie, c.Fields{"use_triton": true})

	mig := b.add(ss("A100_PCIe_80GB_MIG_1x1g_10gb", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"input_format":                      "chw4",
		"tensor_path":                       mobilenetCHW4,
		"workspace_size":                    1073741824,
		"single_stream_expected_latency_ns": 450000,
	}))
	b.add(variant(*mig, c.HarnessHeteroMIG, c.Accuracy99, c.MaxP), mig, c.Fields{
		"single_stream_expected_latency_ns": 470000,
	})
	b.add(variant(*mig, c.HarnessTriton, c.Accuracy99, c.MaxP), mig, c.Fields{"use_triton": true})

	sxmMIG := b.add(ss("A100_SXM_80GB_MIG_1x1g_10gb", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"input_format":                      "chw4",
		"start_from_device":                 true,
		"tensor_path":                       mobilenetCHW4,
		"workspace_size":                    1073741824,
		"single_stream_expected_latency_ns": 460000,
	}))
	b.add(variant(*sxmMIG, c.HarnessHeteroMIG, c.Accuracy99, c.MaxP), sxmMIG, nil)

	xavier := b.add(ss("AGX_Xavier", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"input_format":                      "chw4",
		"tensor_path":                       mobilenetCHW4,
		"use_direct_host_access":            false,
		"single_stream_expected_latency_ns": 1500000,
	}))
	b.add(variant(*xavier, c.HarnessLWIS, c.Accuracy99, c.MaxQ), xavier, c.Fields{
		"soc_gpu_freq": 828750000,
		"soc_dla_freq": 115200000,
		"soc_cpu_freq": 1190400,
		"soc_emc_freq": 1600000000,
	})
	b.add(ss("Xavier_NX", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"gpu_copy_streams":                  2,
		"input_format":                      "chw4",
		"tensor_path":                       mobilenetCHW4,
		"use_direct_host_access":            false,
		"single_stream_expected_latency_ns": 2000000,
	}))
	b.add(ss("Orin", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"input_format":                      "chw4",
		"tensor_path":                       mobilenetCHW4,
		"single_stream_expected_latency_ns": 450000,
		"use_direct_host_access":            true,
		"gpu_copy_streams":                  2,
	}))
	t4 := b.add(ss("T4x1", c.HarnessLWIS), nil, mobilenetSingleStreamGPU.With(c.Fields{
		"input_format":                      "chw4",
		"tensor_path":                       mobilenetCHW4,
		"single_stream_expected_latency_ns": 753452,
	}))
	b.add(variant(*t4, c.HarnessTriton, c.Accuracy99, c.MaxP), t4, c.Fields{"use_triton": true})

	b.add(ms("AGX_Xavier", c.HarnessLWIS), nil, mobilenetMultiStreamGPU.With(c.Fields{
		"input_format":                     "chw4",
		"tensor_path":                      mobilenetCHW4,
		"use_direct_host_access":           false,
		"multi_stream_expected_latency_ns": 12000000,
	}))
	b.add(ms("Xavier_NX", c.HarnessLWIS), nil, mobilenetMultiStreamGPU.With(c.Fields{
		"gpu_copy_streams":                 2,
		"input_format":                     "chw4",
		"tensor_path":                      mobilenetCHW4,
		"use_direct_host_access":           false,
		"multi_stream_expected_latency_ns": 16000000,
	}))
	t4ms := b.add(ms("T4x1", c.HarnessLWIS), nil, mobilenetMultiStreamGPU.With(c.Fields{
		"input_format":                     "chw4",
		"tensor_path":                      mobilenetCHW4,
		"multi_stream_expected_latency_ns": 6027616,
	}))
	b.add(variant(*t4ms, c.HarnessTriton, c.Accuracy99, c.MaxP), t4ms, c.Fields{"use_triton": true})
}

func loadSSDResNet34(b *builder) {
	server := func(system string) c.Key { return maxP(c.SSDResNet34, c.Server, system, c.HarnessLWIS) }
	offline := func(system string) c.Key { return maxP(c.SSDResNet34, c.Offline, system, c.HarnessLWIS) }

	pcie := b.add(server("A100_PCIe_40GBx1"), nil, resnet34ServerGPU.With(c.Fields{
		"gpu_copy_streams":      4,
		"use_deque_limit":       true,
		"deque_timeout_usec":    30000,
		"gpu_batch_size":        8,
		"gpu_inference_streams": 2,
		"server_target_qps":     770,
	}))
	b.add(variant(*pcie, c.HarnessTriton, c.Accuracy99, c.MaxP), pcie, c.Fields{
		"instance_group_count": 4,
		"use_triton":           true,
	})
	ro := b.add(server("A100_SXM_80GB_ROx4"), nil, resnet34ServerGPU.With(c.Fields{
		"_system_alias":         "DGX Station A100 - Red October",
		"_notes":                "This should not inherit from A100_SXM_80GB (DGX-A100), and cannot use start_from_device",
		"gpu_copy_streams":      4,
		"use_deque_limit":       true,
		"deque_timeout_usec":    30000,
		"gpu_batch_size":        8,
		"gpu_inference_streams": 2,
		"server_target_qps":     3250,
	}))
	b.add(variant(*ro, c.HarnessTriton, c.Accuracy99, c.MaxP), ro, c.Fields{"use_triton": true})
	b.add(server("T4x1"), nil, resnet34ServerGPU.With(c.Fields{
		"gpu_copy_streams":           4,
		"use_deque_limit":            true,
		"deque_timeout_usec":         2000,
		"gpu_batch_size":             2,
		"gpu_inference_streams":      4,
		"server_target_qps":          110,
		"use_cuda_thread_per_device": false,
	}))

	b.add(offline("A100_PCIe_40GBx1"), nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":            64,
		"gpu_copy_streams":          4,
		"gpu_inference_streams":     2,
		"offline_expected_qps":      960,
		"run_infer_on_copy_streams": false,
	}))
	b.add(offline("A100_PCIe_80GBx8"), nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":            64,
		"gpu_copy_streams":          4,
		"gpu_inference_streams":     2,
		"offline_expected_qps":      7680.0,
		"run_infer_on_copy_streams": false,
	}))
	b.add(offline("A100_SXM_80GB_MIG_1x1g_10gb"), nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":        32,
		"gpu_copy_streams":      2,
		"gpu_inference_streams": 2,
		"start_from_device":     true,
		"offline_expected_qps":  135,
	}))
	sxmMIG56 := maxP(c.SSDResNet34, c.Offline, "A100_SXM_80GB_MIG_56x1g_10gb", c.HarnessTriton)
	b.add(sxmMIG56, nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":        32,
		"gpu_copy_streams":      2,
		"gpu_inference_streams": 2,
		"start_from_device":     true,
		"use_triton":            true,
		"offline_expected_qps":  7560,
	}))
	sxm := b.add(offline("A100_SXM_80GBx1"), nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":        64,
		"gpu_copy_streams":      4,
		"gpu_inference_streams": 2,
		"start_from_device":     true,
		"offline_expected_qps":  960,
	}))
	b.add(offline("A100_SXM_80GBx8"), sxm, c.Fields{
		"offline_expected_qps":      7800,
		"run_infer_on_copy_streams": false,
	})
	b.add(offline("A30_MIG_1x1g_6gb"), nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":        4,
		"gpu_copy_streams":      1,
		"gpu_inference_streams": 1,
		"workspace_size":        1610612736,
		"offline_expected_qps":  128,
	}))
	b.add(offline("A2x2"), nil, resnet34OfflineGPU.With(c.Fields{
		"gpu_batch_size":        32,
		"gpu_copy_streams":      2,
		"gpu_inference_streams": 1,
		"offline_expected_qps":  140,
	}))
}
