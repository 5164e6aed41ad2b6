package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/justin-oleary/mlperf-sysconf/pkg/metrics"
	"github.com/justin-oleary/mlperf-sysconf/pkg/systems"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/client-go/kubernetes"
)

const (
	labelPrefix      = "mlperf.sysconf.io/"
	systemLabel      = labelPrefix + "system"
	systemIDLabel    = labelPrefix + "system-id"
	classLabelPrefix = labelPrefix + "class."

	identifiedCondition = corev1.NodeConditionType("MLPerfSystemIdentified")
)

// identifyFunc probes the local host and matches it against the system table.
// Defined as a type so tests can inject a detection without real hardware.
type identifyFunc func(ctx context.Context) (systems.DetectedSystem, *systems.Profile, error)

// Labeler publishes the matched MLPerf system of a node as labels so
// benchmark jobs can select nodes by system and classification.
type Labeler struct {
	client   kubernetes.Interface
	identify identifyFunc
	logger   *slog.Logger
}

// NewLabeler returns a Labeler that probes the real host and matches it
// against table.
func NewLabeler(client kubernetes.Interface, table *systems.Table) *Labeler {
	l := &Labeler{client: client, logger: slog.Default()}
	l.identify = func(ctx context.Context) (systems.DetectedSystem, *systems.Profile, error) {
		return systems.Identify(ctx, table, systems.ProbeOptions{Logger: l.logger})
	}
	return l
}

// newLabelerWithIdentify injects a custom identify function.
// Only for use in unit tests.
func newLabelerWithIdentify(client kubernetes.Interface, fn identifyFunc) *Labeler {
	return &Labeler{client: client, identify: fn, logger: slog.Default()}
}

// withLogger swaps the labeler's logger. Used in tests to capture structured
// log output without touching the global default logger.
func (l *Labeler) withLogger(lg *slog.Logger) *Labeler {
	l.logger = lg
	return l
}

// ReconcileNode identifies the local system and brings the node's labels and
// MLPerfSystemIdentified condition in line with it. Nothing is patched when
// the node already carries the right labels.
func (l *Labeler) ReconcileNode(ctx context.Context, nodeName string) error {
	node, err := l.client.CoreV1().Nodes().Get(ctx, nodeName, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("get node %s: %w", nodeName, err)
	}

	detected, profile, err := l.identify(ctx)
	if err != nil {
		l.logger.Error("system identification failed", "node", nodeName, "err", err)
		if perr := l.setCondition(ctx, nodeName, node, corev1.ConditionFalse, "IdentificationFailed", err.Error()); perr != nil {
			return fmt.Errorf("identify system: %w (and %v)", err, perr)
		}
		return fmt.Errorf("identify system: %w", err)
	}

	desired, err := desiredLabels(profile)
	if err != nil {
		return err
	}
	patch := labelPatch(node.Labels, desired)

	if profile == nil {
		l.logger.Warn("no known system matches this node", "node", nodeName, "detected", detected.String())
	} else {
		l.logger.Info("system identified", "node", nodeName, "system", profile.Name, "system_id", profile.SystemID)
	}

	if len(patch) > 0 {
		body, err := json.Marshal(map[string]any{
			"metadata": map[string]any{"labels": patch},
		})
		if err != nil {
			return fmt.Errorf("marshal label patch: %w", err)
		}
		if _, err := l.client.CoreV1().Nodes().Patch(
			ctx, nodeName, types.MergePatchType, body, metav1.PatchOptions{},
		); err != nil {
			return fmt.Errorf("patch node labels: %w", err)
		}
		l.logger.Info("node labels updated", "node", nodeName, "changed", len(patch))
	}

	if profile == nil {
		return l.setCondition(ctx, nodeName, node, corev1.ConditionFalse, "NoMatchingSystem", detected.String())
	}
	return l.setCondition(ctx, nodeName, node, corev1.ConditionTrue, "SystemMatched", profile.SystemID)
}

// desiredLabels returns the managed labels for p. An unmatched node gets
// system=unmatched and no other managed labels.
func desiredLabels(p *systems.Profile) (map[string]string, error) {
	if p == nil {
		return map[string]string{systemLabel: metrics.Unmatched}, nil
	}
	out := map[string]string{
		systemLabel:   p.Name,
		systemIDLabel: p.SystemID,
	}
	for _, class := range systems.Classify(p) {
		out[classLabelPrefix+class] = "true"
	}
	for k, v := range out {
		if errs := validation.IsValidLabelValue(v); len(errs) > 0 {
			return nil, fmt.Errorf("label %s=%q: %s", k, v, strings.Join(errs, "; "))
		}
	}
	return out, nil
}

// labelPatch computes a merge-patch label map that turns the managed subset
// of current into desired. A nil value deletes the label. Labels outside the
// mlperf.sysconf.io/ prefix are never touched.
func labelPatch(current, desired map[string]string) map[string]*string {
	patch := make(map[string]*string)
	for _, k := range slices.Sorted(maps.Keys(desired)) {
		v := desired[k]
		if cur, ok := current[k]; !ok || cur != v {
			patch[k] = &v
		}
	}
	for k := range current {
		if !strings.HasPrefix(k, labelPrefix) {
			continue
		}
		if _, keep := desired[k]; !keep {
			patch[k] = nil
		}
	}
	return patch
}

// IsNodeReady reports whether the node's Ready condition is True.
// Exported for use by the watch loop in cmd/agent.
func IsNodeReady(node *corev1.Node) bool {
	for _, c := range node.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

// setCondition records the identification outcome in the node status
// subresource. Skipped when status and reason are unchanged.
func (l *Labeler) setCondition(ctx context.Context, nodeName string, node *corev1.Node, status corev1.ConditionStatus, reason, message string) error {
	for _, c := range node.Status.Conditions {
		if c.Type == identifiedCondition && c.Status == status && c.Reason == reason && c.Message == message {
			return nil
		}
	}

	type statusPatch struct {
		Status struct {
			Conditions []corev1.NodeCondition `json:"conditions"`
		} `json:"status"`
	}
	cond := corev1.NodeCondition{
		Type:               identifiedCondition,
		Status:             status,
		Reason:             reason,
		Message:            message,
		LastTransitionTime: metav1.Now(),
	}
	st := statusPatch{}
	st.Status.Conditions = upsertCondition(slices.Clone(node.Status.Conditions), cond)
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal status patch: %w", err)
	}
	if _, err := l.client.CoreV1().Nodes().Patch(
		ctx, nodeName, types.MergePatchType, body,
		metav1.PatchOptions{}, "status",
	); err != nil {
		return fmt.Errorf("patch node status: %w", err)
	}
	return nil
}

func upsertCondition(conditions []corev1.NodeCondition, c corev1.NodeCondition) []corev1.NodeCondition {
	for i, existing := range conditions {
		if existing.Type == c.Type {
			conditions[i] = c
			return conditions
		}
	}
	return append(conditions, c)
}
