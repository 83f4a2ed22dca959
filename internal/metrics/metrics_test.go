package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveSealIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "tansakuu_test")

	m.ObserveSeal(10, 20, 5, 0)

	require.Equal(t, float64(1), counterValue(t, m.SealsTotal))
}

func TestObserveMergeIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "tansakuu_test2")

	m.ObserveMerge()
	m.ObserveMerge()

	require.Equal(t, float64(2), counterValue(t, m.MergesTotal))
}
