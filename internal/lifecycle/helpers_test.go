package lifecycle

import (
	"bytes"
	"testing"
	"time"

	"github.com/imamik/quantserver/internal/config"
	"github.com/imamik/quantserver/internal/logging"
	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/pkg/cloud"
	"github.com/imamik/quantserver/pkg/cloud/fakes"
)

const testLabel = "Quant-Trading-Server"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type staticPayload string

func (p staticPayload) UserData() (string, error) { return string(p), nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.BaseSnapshotID = "base-snap"
	cfg.Timeouts = &config.Timeouts{
		InstanceActive:   200 * time.Millisecond,
		InstancePoll:     time.Millisecond,
		SnapshotComplete: 200 * time.Millisecond,
		SnapshotPoll:     time.Millisecond,
	}
	return cfg
}

type testEnv struct {
	fake    *fakes.FakeProvider
	manager *Manager
	metrics *metrics.Recorder
	logs    *bytes.Buffer
}

func newTestEnv(opts ...Option) *testEnv {
	env := &testEnv{
		fake:    fakes.NewFakeProvider(),
		metrics: metrics.NewRecorder(),
		logs:    &bytes.Buffer{},
	}
	opts = append([]Option{
		WithLogger(logging.New(env.logs, 1)),
		WithMetrics(env.metrics),
		WithClock(func() time.Time { return testNow }),
	}, opts...)
	env.manager = NewManager(env.fake, staticPayload("cGF5bG9hZA=="), testConfig(), opts...)
	return env
}

// backup builds a backup snapshot named for a date offset from testNow.
func backup(id string, daysAgo int, status string) cloud.Snapshot {
	return cloud.Snapshot{
		ID:          id,
		Description: BackupDescription(config.DefaultBackupPrefix, testNow.AddDate(0, 0, -daysAgo)),
		Status:      status,
	}
}

func liveInstance(id string) cloud.Instance {
	return cloud.Instance{
		ID:          id,
		Label:       testLabel,
		Status:      cloud.StatusActive,
		PowerStatus: cloud.PowerRunning,
		MainIP:      "198.51.100.4",
	}
}

// metricValue returns the value of the series of name whose labels include
// labels. Histograms report their sample count.
func metricValue(t *testing.T, rec *metrics.Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				if !found {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}
