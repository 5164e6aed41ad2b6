package k8s

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/justin-oleary/mlperf-sysconf/pkg/systems"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func profile(t *testing.T, name string) *systems.Profile {
	t.Helper()
	p, err := systems.DefaultTable().Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReconcileNode(t *testing.T) {
	t.Parallel()

	dgx := profile(t, "A100_SXM_80GBx8")
	t4 := profile(t, "T4x1")

	cases := []struct {
		name string

		// node pre-condition in the fake API server
		node *corev1.Node

		// identify mock
		profile *systems.Profile
		idErr   error

		// expected observable state after ReconcileNode
		wantLabels    map[string]string
		wantCondition corev1.ConditionStatus
		wantReason    string
		wantErr       bool
		wantLog       string // substring expected in structured log output; empty = skip check
	}{
		{
			name:    "fresh DGX node gets system and class labels",
			node:    readyNode("gpu-node-0", nil),
			profile: dgx,
			wantLabels: map[string]string{
				"kubernetes.io/hostname":                    "gpu-node-0",
				"mlperf.sysconf.io/system":                  "A100_SXM_80GBx8",
				"mlperf.sysconf.io/system-id":               "DGX-A100_A100-SXM-80GBx8",
				"mlperf.sysconf.io/class.ampere":            "true",
				"mlperf.sysconf.io/class.end-on-device":     "true",
				"mlperf.sysconf.io/class.gpu":               "true",
				"mlperf.sysconf.io/class.multi-gpu":         "true",
				"mlperf.sysconf.io/class.start-from-device": "true",
			},
			wantCondition: corev1.ConditionTrue,
			wantReason:    "SystemMatched",
		},
		{
			// The card was swapped: old classifications must go.
			name: "stale class labels are removed",
			node: readyNode("gpu-node-1", map[string]string{
				"mlperf.sysconf.io/system":          "A100_SXM_80GBx8",
				"mlperf.sysconf.io/system-id":       "DGX-A100_A100-SXM-80GBx8",
				"mlperf.sysconf.io/class.ampere":    "true",
				"mlperf.sysconf.io/class.multi-gpu": "true",
				"team":                              "inference",
			}),
			profile: t4,
			wantLabels: map[string]string{
				"kubernetes.io/hostname":         "gpu-node-1",
				"team":                           "inference",
				"mlperf.sysconf.io/system":       "T4x1",
				"mlperf.sysconf.io/system-id":    "T4x1",
				"mlperf.sysconf.io/class.gpu":    "true",
				"mlperf.sysconf.io/class.turing": "true",
			},
			wantCondition: corev1.ConditionTrue,
			wantReason:    "SystemMatched",
		},
		{
			name:    "unmatched node is labelled unmatched",
			node:    readyNode("gpu-node-2", map[string]string{"mlperf.sysconf.io/class.gpu": "true"}),
			profile: nil,
			wantLabels: map[string]string{
				"kubernetes.io/hostname":   "gpu-node-2",
				"mlperf.sysconf.io/system": "unmatched",
			},
			wantCondition: corev1.ConditionFalse,
			wantReason:    "NoMatchingSystem",
			wantLog:       "no known system matches",
		},
		{
			name:  "probe failure leaves labels and records the condition",
			node:  readyNode("gpu-node-3", map[string]string{"mlperf.sysconf.io/system": "T4x1"}),
			idErr: errors.New("probe cpu: permission denied"),
			wantLabels: map[string]string{
				"kubernetes.io/hostname":   "gpu-node-3",
				"mlperf.sysconf.io/system": "T4x1",
			},
			wantCondition: corev1.ConditionFalse,
			wantReason:    "IdentificationFailed",
			wantErr:       true,
			wantLog:       "permission denied",
		},
	}

	for _, tc := range cases {
		tc := tc // capture for parallel sub-tests
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			clientset := fake.NewSimpleClientset(tc.node)
			l := newLabelerWithIdentify(clientset, func(context.Context) (systems.DetectedSystem, *systems.Profile, error) {
				return systems.DetectedSystem{}, tc.profile, tc.idErr
			})

			var logBuf bytes.Buffer
			l = l.withLogger(slog.New(slog.NewTextHandler(&logBuf, nil)))

			err := l.ReconcileNode(context.Background(), tc.node.Name)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ReconcileNode err = %v, wantErr %v", err, tc.wantErr)
			}

			got, err := clientset.CoreV1().Nodes().Get(context.Background(), tc.node.Name, metav1.GetOptions{})
			if err != nil {
				t.Fatalf("Get node after reconcile: %v", err)
			}
			if diff := cmp.Diff(tc.wantLabels, got.Labels); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}

			cond := findCondition(got, identifiedCondition)
			if cond == nil {
				t.Fatalf("condition %s missing (conditions: %v)", identifiedCondition, got.Status.Conditions)
			}
			if cond.Status != tc.wantCondition || cond.Reason != tc.wantReason {
				t.Errorf("condition = %s/%s, want %s/%s", cond.Status, cond.Reason, tc.wantCondition, tc.wantReason)
			}

			if tc.wantLog != "" && !strings.Contains(logBuf.String(), tc.wantLog) {
				t.Errorf("log output missing %q\ngot: %s", tc.wantLog, logBuf.String())
			}
		})
	}
}

func TestReconcileNodeIsIdempotent(t *testing.T) {
	t.Parallel()

	clientset := fake.NewSimpleClientset(readyNode("gpu-node-4", nil))
	dgx := profile(t, "A100_SXM_80GBx8")
	l := newLabelerWithIdentify(clientset, func(context.Context) (systems.DetectedSystem, *systems.Profile, error) {
		return systems.DetectedSystem{}, dgx, nil
	})

	if err := l.ReconcileNode(context.Background(), "gpu-node-4"); err != nil {
		t.Fatalf("first ReconcileNode: %v", err)
	}
	if n := countPatches(clientset.Actions()); n != 2 {
		t.Fatalf("first reconcile made %d patches, want 2 (labels + status)", n)
	}

	clientset.ClearActions()
	if err := l.ReconcileNode(context.Background(), "gpu-node-4"); err != nil {
		t.Fatalf("second ReconcileNode: %v", err)
	}
	if n := countPatches(clientset.Actions()); n != 0 {
		t.Errorf("second reconcile made %d patches, want 0", n)
	}
}

func TestReconcileNodeMissingNode(t *testing.T) {
	t.Parallel()

	called := false
	l := newLabelerWithIdentify(fake.NewSimpleClientset(), func(context.Context) (systems.DetectedSystem, *systems.Profile, error) {
		called = true
		return systems.DetectedSystem{}, nil, nil
	})
	if err := l.ReconcileNode(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for missing node")
	}
	if called {
		t.Error("identify ran for a node that does not exist")
	}
}

func TestDesiredLabelsRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	p := &systems.Profile{Name: "Lab system with spaces", SystemID: "lab"}
	if _, err := desiredLabels(p); err == nil {
		t.Error("expected invalid label value error")
	}
}

func TestIsNodeReady(t *testing.T) {
	t.Parallel()

	if !IsNodeReady(readyNode("a", nil)) {
		t.Error("ready node reported not ready")
	}
	n := readyNode("b", nil)
	n.Status.Conditions[0].Status = corev1.ConditionFalse
	if IsNodeReady(n) {
		t.Error("not-ready node reported ready")
	}
	if IsNodeReady(&corev1.Node{}) {
		t.Error("node without conditions reported ready")
	}
}

// readyNode returns a Ready node carrying the given labels plus the hostname
// label every kubelet sets.
func readyNode(name string, labels map[string]string) *corev1.Node {
	l := map[string]string{"kubernetes.io/hostname": name}
	for k, v := range labels {
		l[k] = v
	}
	return &corev1.Node{
		TypeMeta:   metav1.TypeMeta{Kind: "Node", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: l},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func findCondition(node *corev1.Node, t corev1.NodeConditionType) *corev1.NodeCondition {
	for i := range node.Status.Conditions {
		if node.Status.Conditions[i].Type == t {
			return &node.Status.Conditions[i]
		}
	}
	return nil
}

func countPatches(actions []k8stesting.Action) int {
	n := 0
	for _, a := range actions {
		if a.GetVerb() == "patch" {
			n++
		}
	}
	return n
}
