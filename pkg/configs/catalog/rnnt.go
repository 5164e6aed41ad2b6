package catalog

import c "github.com/justin-oleary/mlperf-sysconf/pkg/configs"

var rnntServerGPU = c.Fields{
	"use_graphs":               true,
	"gpu_inference_streams":    1,
	"gpu_copy_streams":         1,
	"num_warmups":              20480,
	"nobatch_sorting":          true,
	"audio_batch_size":         1024,
	"audio_buffer_num_lines":   4096,
	"audio_fp16_input":         true,
	"dali_batches_issue_ahead": 0,
	"dali_pipeline_depth":      2,
}

func loadRNNT(b *builder) {
	key := func(system string) c.Key { return maxP(c.RNNT, c.Server, system, c.HarnessCustom) }

	b.add(key("A100_PCIe_40GBx1"), nil, rnntServerGPU.With(c.Fields{
		"gpu_batch_size":    2048,
		"server_target_qps": 11100,
	}))
	b.add(key("A100_PCIe_80GBx4"), nil, rnntServerGPU.With(c.Fields{
		"gpu_batch_size":    2048,
		"server_target_qps": 44400,
	}))
	b.add(key("A100_SXM_80GB_MIG_1x1g_10gb"), nil, rnntServerGPU.With(c.Fields{
		"audio_batch_size":         64,
		"audio_buffer_num_lines":   512,
		"dali_batches_issue_ahead": 2,
		"gpu_batch_size":           1024,
		"num_warmups":              64,
		"server_target_qps":        1350,
		"start_from_device":        true,
		"max_seq_length":           64,
	}))

	sxm := b.add(key("A100_SXM_80GBx1"), nil, rnntServerGPU.With(c.Fields{
		"gpu_batch_size":    1792,
		"server_target_qps": 12750,
		"start_from_device": true,
	}))
	sxm8 := b.add(key("A100_SXM_80GBx8"), sxm, c.Fields{
		"dali_pipeline_depth":            1,
		"gpu_batch_size":                 2048,
		"server_num_issue_query_threads": 0,
		"server_target_qps":              104000,
	})
	b.add(variant(*sxm8, c.HarnessCustom, c.Accuracy99, c.MaxQ), sxm8, c.Fields{
		"server_target_qps": 88000,
		"power_limit":       275,
	})
	b.add(key("A100_SXM_80GB_ROx4"), sxm, c.Fields{
		"_system_alias":     "DGX Station A100 - Red October",
		"_notes":            "This should not inherit from A100_SXM_80GB (DGX-A100), and cannot use start_from_device",
		"start_from_device": c.Unset,
		"server_target_qps": 45000,
	})

	b.add(key("A30_MIG_1x1g_6gb"), nil, rnntServerGPU.With(c.Fields{
		"audio_batch_size":         32,
		"audio_buffer_num_lines":   512,
		"audio_fp16_input":         c.Unset,
		"dali_batches_issue_ahead": 1,
		"dali_pipeline_depth":      1,
		"gpu_batch_size":           256,
		"num_warmups":              32,
		"nobatch_sorting":          c.Unset,
		"server_target_qps":        1100,
		"workspace_size":           int64(1610612736),
	}))
	b.add(key("A30x1"), nil, rnntServerGPU.With(c.Fields{
		"gpu_batch_size":    1792,
		"server_target_qps": 5200,
	}))
	b.add(key("T4x1"), nil, rnntServerGPU.With(c.Fields{
		"audio_batch_size":       64,
		"audio_buffer_num_lines": 512,
		"audio_fp16_input":       c.Unset,
		"dali_pipeline_depth":    1,
		"disable_encoder_plugin": true,
		"gpu_batch_size":         256,
		"gpu_copy_streams":       4,
		"max_seq_length":         102,
		"num_warmups":            2048,
		"server_target_qps":      1050,
	}))
}
