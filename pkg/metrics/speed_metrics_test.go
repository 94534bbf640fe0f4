package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispeed-collector/pkg/models"
)

func TestObserveUpdatesGaugesAndCounters(t *testing.T) {
	reg := NewRegistry(false)
	m := NewMetricFactory(reg).NewAcquisitionMetrics()

	m.Observe(models.Measurement{Interface: "WLAN", DownloadMbps: 50, UploadMbps: 10, LatencyMs: 15}, 20*time.Second)
	m.Observe(models.Measurement{Interface: "Ethernet", DownloadMbps: -1, UploadMbps: -1, LatencyMs: -1}, time.Second)
	m.CycleDone()

	assert.Equal(t, 50.0, testutil.ToFloat64(m.Download.WithLabelValues("WLAN")))
	assert.Equal(t, -1.0, testutil.ToFloat64(m.Latency.WithLabelValues("Ethernet")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ProbeFailures.WithLabelValues("WLAN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeFailures.WithLabelValues("Ethernet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles))

	n, err := testutil.GatherAndCount(reg, "ispeed_measurements_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *AcquisitionMetrics
	assert.NotPanics(t, func() {
		m.Observe(models.Measurement{Interface: "WLAN"}, time.Second)
		m.CycleDone()
	})
}
