package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/arveo/kismet-sentinel/internal/alerts"
	"github.com/arveo/kismet-sentinel/internal/automation"
	"github.com/arveo/kismet-sentinel/internal/kismet"
	"github.com/arveo/kismet-sentinel/internal/models"
	"github.com/arveo/kismet-sentinel/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, upstreamURL string) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	settings := automation.NewSettings()
	watched := watch.NewList()
	saver := automation.NewSaver(dir, settings, watched, nil)
	client := kismet.NewClient(kismet.Settings{URL: upstreamURL})
	return NewEngine(alerts.NewStore(0), watched, settings, saver, client, dir), dir
}

func droneDevice() models.DeviceRecord {
	return models.DeviceRecord{
		"kismet_device_base_macaddr": "60:60:1F:AA:BB:CC",
		"kismet_device_base_name":    "DJI-Mavic-3-Pro",
		"kismet_device_base_phyname": "IEEE802.11",
		"kismet_device_base_manuf":   "DJI Technology",
		"kismet_device_base_signal": map[string]any{
			"kismet_common_signal_last_signal": float64(-38),
		},
	}
}

func TestIngestDroneScenario(t *testing.T) {
	// Single DJI device at -38 dBm: exactly one drone event (keyword "dji")
	// and one strong-signal event, both referencing the same MAC.
	e, _ := newTestEngine(t, "")
	e.Ingest([]models.DeviceRecord{droneDevice()})
	e.Flush()

	drones := e.Store.Query("", "drone", 0)
	require.Len(t, drones, 1)
	assert.Contains(t, drones[0].Body, "'dji'")
	assert.Contains(t, drones[0].Body, "60:60:1F:AA:BB:CC")

	signals := e.Store.Query("", "signal", 0)
	require.Len(t, signals, 1)
	assert.Contains(t, signals[0].Body, "60:60:1F:AA:BB:CC")

	assert.Equal(t, 2, e.Store.Len())
}

func TestIngestAppendsBeforePolicyRuns(t *testing.T) {
	// The drone event is in the store and the device auto-watched with the
	// default rules (drone rule enabled).
	e, _ := newTestEngine(t, "")
	e.Ingest([]models.DeviceRecord{droneDevice()})
	e.Flush()

	assert.True(t, e.Watched.Contains("60:60:1F:AA:BB:CC"))
	entries := e.Watched.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Auto)
}

func TestIngestSchedulesSaveForAttachedDevice(t *testing.T) {
	e, dir := newTestEngine(t, "")
	e.Ingest([]models.DeviceRecord{droneDevice()})
	e.Flush()

	// Two alerts, two evidence files.
	files, err := filepath.Glob(filepath.Join(dir, "alert_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Len(t, e.Saver.Records(), 2)
}

func TestIngestMalformedRecordDoesNotHaltBatch(t *testing.T) {
	e, _ := newTestEngine(t, "")
	e.Ingest([]models.DeviceRecord{
		{"kismet_device_base_signal": "garbage"},
		nil,
		droneDevice(),
	})
	e.Flush()

	// The trailing drone still produced its two events.
	assert.Equal(t, 2, e.Store.Len())
}

func TestIngestEmptyBatchNoOp(t *testing.T) {
	e, _ := newTestEngine(t, "")
	e.Ingest(nil)
	assert.Zero(t, e.Store.Len())
}

func TestMirrorUpstreamSeverityMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"kismet.alert.header":"DEAUTHFLOOD","kismet.alert.text":"flood","kismet.alert.severity":5},
			{"kismet.alert.header":"NEWDEVICE","kismet.alert.text":"seen","kismet.alert.severity":15}
		]`))
	}))
	defer srv.Close()

	e, _ := newTestEngine(t, srv.URL)
	e.MirrorUpstream(context.Background())

	mirrored := e.Store.Query("", "kismet", 0)
	require.Len(t, mirrored, 2)
	// Newest first: NEWDEVICE (ordinal 15 → info) then DEAUTHFLOOD (5 → warning).
	assert.Equal(t, models.SeverityInfo, mirrored[0].Severity)
	assert.Equal(t, models.SeverityWarning, mirrored[1].Severity)
}

func TestMirrorUpstreamCapsAtTwenty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := "["
		for i := 0; i < 30; i++ {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"kismet.alert.header":"A%d","kismet.alert.severity":15}`, i)
		}
		w.Write([]byte(body + "]"))
	}))
	defer srv.Close()

	e, _ := newTestEngine(t, srv.URL)
	e.MirrorUpstream(context.Background())

	mirrored := e.Store.Query("", "kismet", 0)
	require.Len(t, mirrored, 20)
	// The newest upstream entries win: A29 mirrored last, so it is at the head.
	assert.Equal(t, "A29", mirrored[0].Title)
	assert.Equal(t, "A10", mirrored[19].Title)
}

func TestMirrorUpstreamFetchFailureBecomesErrorAlert(t *testing.T) {
	e, _ := newTestEngine(t, "http://127.0.0.1:1") // nothing listens here
	e.MirrorUpstream(context.Background())

	errs := e.Store.Query("error", "error", 0)
	require.Len(t, errs, 1)
	assert.Equal(t, "Kismet alert poll failed", errs[0].Title)
}

func TestBatchSaveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/devices/all_devices.ekjson", r.URL.Path)
		w.Write([]byte(`{"kismet_device_base_macaddr":"AA:BB:CC:11:22:33","kismet_device_base_name":"HomeNetwork_5G"}
`))
	}))
	defer srv.Close()

	e, dir := newTestEngine(t, srv.URL)
	e.BatchSave(context.Background(), "manual")
	e.Flush()

	log := e.BatchLog()
	require.Len(t, log, 1)
	assert.True(t, log[0].OK)
	assert.Equal(t, 1, log[0].Count)
	assert.Equal(t, log[0].TS, e.LastSave())

	files, err := filepath.Glob(filepath.Join(dir, "kismet_manual_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	saves := e.Store.Query("", "save", 0)
	require.Len(t, saves, 1)
	assert.Contains(t, saves[0].Title, "1 devices")
}

func TestBatchSaveFetchFailure(t *testing.T) {
	e, _ := newTestEngine(t, "http://127.0.0.1:1")
	e.BatchSave(context.Background(), "manual")

	log := e.BatchLog()
	require.Len(t, log, 1)
	assert.False(t, log[0].OK)
	assert.NotEmpty(t, log[0].Error)
	assert.Empty(t, e.LastSave())

	errs := e.Store.Query("error", "error", 0)
	require.Len(t, errs, 1)
	assert.Equal(t, "Batch save failed", errs[0].Title)
}

func TestWatchedOnlyEndToEnd(t *testing.T) {
	e, dir := newTestEngine(t, "")
	on := true
	e.Settings.Apply(automation.Update{SaveWatchedOnly: &on})
	// Disable auto-watch so the drone is not watched as a side effect.
	off := false
	e.Settings.Apply(automation.Update{AutoWatchRules: &automation.RulesUpdate{
		DroneAlerts: &off, BTLEAlerts: &off, StrongSignal: &off,
	}})

	e.Ingest([]models.DeviceRecord{droneDevice()})
	e.Flush()
	assert.Empty(t, e.Saver.Records())

	_, err := e.Watched.Add("60:60:1F:AA:BB:CC", "DJI-Mavic-3-Pro", "IEEE802.11")
	require.NoError(t, err)

	e.Ingest([]models.DeviceRecord{droneDevice()})
	e.Flush()
	files, err := filepath.Glob(filepath.Join(dir, "alert_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 2) // drone + signal alert for the watched device
}
