package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestExporter_RecordsAcrossAllFourCollectors(t *testing.T) {
	reg := prom.NewRegistry()
	exp, err := NewExporter("", reg, ExporterOptions{})
	require.NoError(t, err)

	exp.RecordWorkDuration("s1", 5*time.Millisecond)
	exp.RecordFault("s1")
	exp.RecordQueueDepth("s1", 3)
	exp.RecordRejected("s1", "closed")

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	require.Contains(t, byName, "corosched_work_duration_seconds")
	require.Contains(t, byName, "corosched_fault_total")
	require.Contains(t, byName, "corosched_active_queue_depth")
	require.Contains(t, byName, "corosched_rejected_total")

	faultFamily := byName["corosched_fault_total"]
	require.Len(t, faultFamily.Metric, 1)
	require.Equal(t, float64(1), faultFamily.Metric[0].GetCounter().GetValue())

	depthFamily := byName["corosched_active_queue_depth"]
	require.Equal(t, float64(3), depthFamily.Metric[0].GetGauge().GetValue())
}

func TestExporter_DoubleRegistrationReusesExistingCollectors(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewExporter("dup", reg, ExporterOptions{})
	require.NoError(t, err)

	second, err := NewExporter("dup", reg, ExporterOptions{})
	require.NoError(t, err)

	second.RecordFault("s1")
	first.RecordFault("s1")

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "dup_fault_total" {
			found = true
			require.Equal(t, float64(2), f.Metric[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "expected dup_fault_total to be registered exactly once and shared")
}

func TestNormalizeLabel_EmptyBecomesUnknown(t *testing.T) {
	require.Equal(t, "unknown", normalizeLabel(""))
	require.Equal(t, "s1", normalizeLabel("s1"))
}

func TestExporter_NilReceiverIsSafeNoOp(t *testing.T) {
	var exp *Exporter
	require.NotPanics(t, func() {
		exp.RecordWorkDuration("s", time.Millisecond)
		exp.RecordFault("s")
		exp.RecordQueueDepth("s", 1)
		exp.RecordRejected("s", "x")
	})
}
