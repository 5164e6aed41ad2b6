package systems

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		system string
		want   []string
	}{
		{"A100_SXM_80GBx8", []string{"ampere", "end-on-device", "gpu", "multi-gpu", "start-from-device"}},
		{"A100_PCIe_40GBx1", []string{"ampere", "gpu"}},
		{"A100_PCIe_80GB_MIG_7x1g_10gb", []string{"ampere", "gpu", "multi-gpu"}},
		{"A100_SXM4_40GB_MIG_1x1g_5gb", []string{"ampere", "end-on-device", "gpu", "start-from-device"}},
		{"T4x8", []string{"gpu", "multi-gpu", "turing"}},
		{"Orin", []string{"ampere", "gpu", "orin", "soc"}},
		{"AGX_Xavier", []string{"gpu", "soc", "xavier", "xavier-agx"}},
		{"Xavier_NX", []string{"gpu", "soc", "xavier", "xavier-nx"}},
		{"Triton_CPU_2S_8380", []string{"intel-openvino"}},
		{"Triton_Inferentia_INF1_6XLARGE", []string{"inferentia"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.system, func(t *testing.T) {
			t.Parallel()

			p, err := DefaultTable().Lookup(tc.system)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if diff := cmp.Diff(tc.want, Classify(p)); diff != "" {
				t.Errorf("Classify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPredicatesTreatUnmatchedAsFalse(t *testing.T) {
	t.Parallel()

	for name, pred := range Classifications {
		if pred(nil) {
			t.Errorf("%s(nil) = true, want false", name)
		}
	}
	if got := Classify(nil); len(got) != 0 {
		t.Errorf("Classify(nil) = %v, want none", got)
	}
}

func TestComputeSMMixedGenerations(t *testing.T) {
	t.Parallel()

	p := &Profile{
		Name:         "Lab_T4_A100",
		CPU:          AnyCPU,
		Accelerators: map[Accelerator]int{GPUA100PCIe80GB: 1, GPUT4: 2, InferentiaINF1XLarge: 1},
	}
	for i := 0; i < 50; i++ {
		if got := p.ComputeSM(); got != 75 {
			t.Fatalf("ComputeSM = %d, want 75", got)
		}
		if !IsTuring(p) || IsAmpere(p) {
			t.Fatalf("IsTuring=%v IsAmpere=%v, want true/false", IsTuring(p), IsAmpere(p))
		}
	}
}
