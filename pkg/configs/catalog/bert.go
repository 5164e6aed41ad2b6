package catalog

import c "github.com/justin-oleary/mlperf-sysconf/pkg/configs"

var (
	bertServerGPU = c.Fields{
		"enable_interleaved":               false,
		"use_graphs":                       true,
		"gpu_copy_streams":                 1,
		"gpu_inference_streams":            2,
		"use_small_tile_gemm_plugin":       true,
		"gemm_plugin_fairshare_cache_size": 120,
	}
	bertOfflineGPU = c.Fields{
		"gpu_copy_streams":      2,
		"gpu_inference_streams": 2,
	}
	bertSingleStreamGPU = c.Fields{
		"gpu_batch_size":             1,
		"gpu_copy_streams":           1,
		"gpu_inference_streams":      1,
		"use_graphs":                 true,
		"bert_opt_seqlen":            270,
		"use_small_tile_gemm_plugin": false,
	}
	bertServerCPU = c.Fields{
		"precision":  "int8",
		"use_triton": true,
		"batch_size": 0,
	}
)

func loadBERT(b *builder) {
	bertServer(b)
	bertOffline(b)
	bertSingleStream(b)
}

func bertServer(b *builder) {
	key := func(system string, h c.HarnessType) c.Key { return maxP(c.BERT, c.Server, system, h) }

	pcie := b.add(key("A100_PCIe_40GBx1", c.HarnessCustom), nil, bertServerGPU.With(c.Fields{
		"active_sms":                     60,
		"gpu_batch_size":                 64,
		"graphs_max_seqlen":              200,
		"server_num_issue_query_threads": 1,
		"server_target_qps":              2600,
		"soft_drop":                      1.0,
	}))
	pcieHA := b.add(variant(*pcie, c.HarnessCustom, c.Accuracy999, c.MaxP), pcie, c.Fields{
		"precision":         "fp16",
		"server_target_qps": 1215,
	})
	b.add(variant(*pcie, c.HarnessTriton, c.Accuracy99, c.MaxP), pcie, c.Fields{
		"server_target_qps": 2450,
		"use_triton":        true,
	})
	b.add(variant(*pcieHA, c.HarnessTriton, c.Accuracy999, c.MaxP), pcieHA, c.Fields{
		"server_target_qps": 1185,
		"use_triton":        true,
	})
	b.add(key("A100_PCIe_40GBx8", c.HarnessCustom), pcie, c.Fields{
		"server_target_qps": 20800,
	})

	pcie80x4 := b.add(key("A100_PCIe_80GBx4", c.HarnessCustom), pcie, c.Fields{
		"server_target_qps": 11500,
	})
	b.add(key("A100_PCIe_80GBx8", c.HarnessCustom), pcie80x4, c.Fields{
		"server_target_qps": 23000,
	})

	b.add(key("A100_SXM_80GBx1", c.HarnessCustom), nil, bertServerGPU.With(c.Fields{
		"active_sms":                     60,
		"gpu_batch_size":                 48,
		"graphs_max_seqlen":              200,
		"server_num_issue_query_threads": 1,
		"server_target_qps":              3200,
		"soft_drop":                      0.99,
	}))
	sxm8 := b.add(key("A100_SXM_80GBx8", c.HarnessCustom), nil, bertServerGPU.With(c.Fields{
		"active_sms":                     60,
		"gpu_batch_size":                 48,
		"graphs_max_seqlen":              240,
		"server_num_issue_query_threads": 0,
		"server_target_qps":              25800,
		"soft_drop":                      0.99,
	}))
	sxm8Q := b.add(variant(*sxm8, c.HarnessCustom, c.Accuracy99, c.MaxQ), sxm8, c.Fields{
		"power_limit":       275,
		"server_target_qps": 21500,
	})
	b.add(variant(*sxm8, c.HarnessCustom, c.Accuracy999, c.MaxQ), sxm8Q, c.Fields{
		"gpu_batch_size":    24,
		"precision":         "fp16",
		"server_target_qps": 10000,
	})
	b.add(key("A100_SXM_80GB_ROx4", c.HarnessCustom), nil, bertServerGPU.With(c.Fields{
		"_system_alias":                  "DGX Station A100 - Red October",
		"_notes":                         "This should not inherit from A100_SXM_80GB (DGX-A100), and cannot use start_from_device",
		"active_sms":                     60,
		"gpu_batch_size":                 64,
		"graphs_max_seqlen":              200,
		"server_num_issue_query_threads": 1,
		"server_target_qps":              10800,
		"soft_drop":                      1.0,
	}))

	t4 := b.add(key("T4x8", c.HarnessCustom), nil, bertServerGPU.With(c.Fields{
		"gpu_batch_size":                 14,
		"graphs_max_seqlen":              260,
		"server_num_issue_query_threads": 16,
		"server_target_qps":              2200,
		"soft_drop":                      0.992,
	}))
	t4HA := b.add(variant(*t4, c.HarnessCustom, c.Accuracy999, c.MaxP), t4, c.Fields{
		"gpu_inference_streams":          1,
		"precision":                      "fp16",
		"gpu_batch_size":                 8,
		"server_num_issue_query_threads": 8,
		"server_target_qps":              1330,
	})
	b.add(variant(*t4, c.HarnessTriton, c.Accuracy99, c.MaxP), t4, c.Fields{"use_triton": true})
	b.add(variant(*t4HA, c.HarnessTriton, c.Accuracy999, c.MaxP), t4HA, c.Fields{"use_triton": true})

	b.add(key("Triton_CPU_2S_6258R", c.HarnessTriton), nil, bertServerCPU.With(c.Fields{
		"server_target_qps": 1,
		"num_instances":     26,
		"ov_parameters":     map[string]any{"CPU_THROUGHPUT_STREAMS": "14", "SKIP_OV_DYNAMIC_BATCHSIZE": "YES"},
	}))
	b.add(key("Triton_CPU_4S_8380H", c.HarnessTriton), nil, bertServerCPU.With(c.Fields{
		"server_target_qps": 79,
		"num_instances":     8,
		"ov_parameters":     map[string]any{"CPU_THREADS_NUM": "112", "CPU_THROUGHPUT_STREAMS": "8", "ENABLE_BATCH_PADDING": "NO", "SKIP_OV_DYNAMIC_BATCHSIZE": "YES"},
	}))
	b.add(key("Triton_CPU_2S_8380", c.HarnessTriton), nil, bertServerCPU.With(c.Fields{
		"server_target_qps": 39,
		"num_instances":     4,
		"ov_parameters":     map[string]any{"CPU_THREADS_NUM": "80", "CPU_THROUGHPUT_STREAMS": "4", "ENABLE_BATCH_PADDING": "NO", "SKIP_OV_DYNAMIC_BATCHSIZE": "YES"},
	}))

	b.add(key("Triton_Inferentia_INF1_2XLARGE", c.HarnessTriton), nil, c.Fields{
		"server_target_qps": 37,
		"tensor_path": "/home/ubuntu/mlperf_scratch/preprocessed_data/squad_tokenized/input_ids.npy," +
			"/home/ubuntu/mlperf_scratch/preprocessed_data/squad_tokenized/input_mask.npy," +
			"/home/ubuntu/mlperf_scratch/preprocessed_data/squad_tokenized/segment_ids.npy",
	})
}

func bertOffline(b *builder) {
	key := func(system string, h c.HarnessType) c.Key { return maxP(c.BERT, c.Offline, system, h) }
	batch := func(n int) map[string]int { return map[string]int{"bert": n} }

	pcie := b.add(key("A100_PCIe_80GBx1", c.HarnessCustom), nil, bertOfflineGPU.With(c.Fields{
		"use_small_tile_gemm_plugin": true,
		"gpu_batch_size":             batch(1024),
		"offline_expected_qps":       3400,
		"workspace_size":             int64(7516192768),
	}))
	pcieHA := b.add(variant(*pcie, c.HarnessCustom, c.Accuracy999, c.MaxP), pcie, c.Fields{
		"precision":            "fp16",
		"offline_expected_qps": 1750,
	})
	b.add(variant(*pcie, c.HarnessTriton, c.Accuracy99, c.MaxP), pcie, c.Fields{
		"use_triton":           true,
		"offline_expected_qps": 3000,
	})
	b.add(variant(*pcie, c.HarnessTritonUnified, c.Accuracy99, c.MaxP), pcie, c.Fields{
		"use_triton":           true,
		"offline_expected_qps": 3000,
	})
	b.add(variant(*pcieHA, c.HarnessTriton, c.Accuracy999, c.MaxP), pcieHA, c.Fields{
		"use_triton":           true,
		"offline_expected_qps": 1550,
	})
	pcie8 := b.add(key("A100_PCIe_80GBx8", c.HarnessCustom), pcie, c.Fields{
		"offline_expected_qps": 27200,
	})
	b.add(variant(*pcie8, c.HarnessCustom, c.Accuracy999, c.MaxP), pcie8, c.Fields{
		"precision":            "fp16",
		"offline_expected_qps": 12800,
	})

	sxm := b.add(key("A100_SXM_80GBx1", c.HarnessCustom), nil, bertOfflineGPU.With(c.Fields{
		"use_small_tile_gemm_plugin": true,
		"gpu_batch_size":             batch(1280),
		"gpu_inference_streams":      1,
		"offline_expected_qps":       3500,
	}))
	sxmHA := b.add(variant(*sxm, c.HarnessCustom, c.Accuracy999, c.MaxP), sxm, c.Fields{
		"precision":            "fp16",
		"gpu_batch_size":       batch(512),
		"offline_expected_qps": 1750,
	})
	b.add(variant(*sxmHA, c.HarnessTriton, c.Accuracy999, c.MaxP), sxmHA, c.Fields{
		"use_triton":     true,
		"gpu_batch_size": batch(1280),
	})
	sxm8 := b.add(key("A100_SXM_80GBx8", c.HarnessCustom), sxm, c.Fields{
		"offline_expected_qps": 30000,
		"workspace_size":       int64(7516192768),
	})
	b.add(variant(*sxm8, c.HarnessTriton, c.Accuracy99, c.MaxP), sxm8, c.Fields{
		"use_triton":            true,
		"offline_expected_qps":  29000,
		"batch_triton_requests": false,
	})
	sxm8Q := b.add(variant(*sxm8, c.HarnessCustom, c.Accuracy99, c.MaxQ), sxm8, c.Fields{
		"power_limit": 275,
	})
	sxm8QHA := b.add(variant(*sxm8, c.HarnessCustom, c.Accuracy999, c.MaxQ), sxm8Q, c.Fields{
		"precision":            "fp16",
		"gpu_batch_size":       batch(512),
		"offline_expected_qps": 11000,
	})
	b.add(variant(*sxm8, c.HarnessTriton, c.Accuracy999, c.MaxQ), sxm8QHA, c.Fields{
		"use_triton": true,
	})

	orin := b.add(key("Orin", c.HarnessCustom), nil, bertOfflineGPU.With(c.Fields{
		"use_small_tile_gemm_plugin": true,
		"gpu_batch_size":             batch(256),
		"gpu_copy_streams":           1,
		"gpu_inference_streams":      1,
		"offline_expected_qps":       550,
	}))
	b.add(variant(*orin, c.HarnessTriton, c.Accuracy99, c.MaxP), orin, c.Fields{
		"use_triton":            true,
		"batch_triton_requests": true,
	})
	b.add(variant(*orin, c.HarnessCustom, c.Accuracy99, c.MaxQ), orin, c.Fields{
		"gpu_batch_size":       batch(384),
		"soc_cpu_freq":         576000,
		"soc_gpu_freq":         714000000,
		"soc_dla_freq":         0,
		"soc_emc_freq":         2133000000,
		"soc_pva_freq":         115000000,
		"orin_num_cores":       4,
		"offline_expected_qps": 300,
	})
}

func bertSingleStream(b *builder) {
	key := func(system string, h c.HarnessType) c.Key { return maxP(c.BERT, c.SingleStream, system, h) }

	xavier := b.add(key("AGX_Xavier", c.HarnessCustom), nil, bertSingleStreamGPU.With(c.Fields{
		"single_stream_expected_latency_ns": 31000000,
		"use_graphs":                        false,
	}))
	b.add(variant(*xavier, c.HarnessCustom, c.Accuracy99, c.MaxQ), xavier, c.Fields{
		"soc_gpu_freq": 828750000,
		"soc_dla_freq": 115200000,
		"soc_cpu_freq": 1190400,
		"soc_emc_freq": 1600000000,
	})
	b.add(variant(*xavier, c.HarnessCustom, c.Accuracy999, c.MaxQ), xavier, c.Fields{
		"precision": "fp16",
	})
	b.add(variant(*xavier, c.HarnessTriton, c.Accuracy99, c.MaxP), xavier, c.Fields{
		"use_triton": true,
	})

	orin := b.add(key("Orin", c.HarnessCustom), nil, bertSingleStreamGPU.With(c.Fields{
		"single_stream_expected_latency_ns": 12000000,
		"use_graphs":                        false,
	}))
	b.add(variant(*orin, c.HarnessCustom, c.Accuracy99, c.MaxQ), orin, c.Fields{
		"soc_cpu_freq":                      1036800,
		"soc_gpu_freq":                      1032750000,
		"soc_dla_freq":                      0,
		"soc_emc_freq":                      2133000000,
		"orin_num_cores":                    4,
		"single_stream_expected_latency_ns": 11914844,
	})

	t4 := b.add(key("T4x1", c.HarnessCustom), nil, bertSingleStreamGPU.With(c.Fields{
		"single_stream_expected_latency_ns": 6400000,
	}))
	b.add(variant(*t4, c.HarnessCustom, c.Accuracy999, c.MaxP), t4, c.Fields{"precision": "fp16"})
	t4T := b.add(variant(*t4, c.HarnessTriton, c.Accuracy99, c.MaxP), t4, c.Fields{"use_triton": true})
	b.add(variant(*t4, c.HarnessTriton, c.Accuracy999, c.MaxP), t4T, c.Fields{"precision": "fp16"})
}
