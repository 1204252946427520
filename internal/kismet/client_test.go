package kismet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevicesParsesEKJSON(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/devices/all_devices.ekjson", r.URL.Path)
		gotAuth = r.Header.Get("KISMET")
		// One JSON object per line, with a blank line thrown in.
		w.Write([]byte(`{"kismet_device_base_macaddr":"AA:BB:CC:11:22:33","kismet_device_base_name":"HomeNetwork_5G"}

{"kismet_device_base_macaddr":"60:60:1F:AA:BB:CC","kismet_device_base_name":"DJI-Mavic-3-Pro"}
`))
	}))
	defer srv.Close()

	c := NewClient(Settings{URL: srv.URL, APIKey: "secret"})
	devices, err := c.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "secret", gotAuth)
	assert.Equal(t, "DJI-Mavic-3-Pro", devices[1].Name())
}

func TestDevicesBasicAuthPreferredOverAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "kismet", user)
		assert.Equal(t, "pw", pass)
		assert.Empty(t, r.Header.Get("KISMET"))
		w.Write([]byte("{}\n"))
	}))
	defer srv.Close()

	c := NewClient(Settings{URL: srv.URL, APIKey: "ignored", Username: "kismet", Password: "pw"})
	_, err := c.Devices(context.Background())
	require.NoError(t, err)
}

func TestAlertsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alerts/all_alerts.json", r.URL.Path)
		w.Write([]byte(`[{"kismet.alert.header":"DEAUTHFLOOD","kismet.alert.text":"flood","kismet.alert.severity":5}]`))
	}))
	defer srv.Close()

	c := NewClient(Settings{URL: srv.URL})
	alerts, err := c.Alerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "DEAUTHFLOOD", alerts[0].Header)
	assert.Equal(t, float64(5), alerts[0].Severity)
}

func TestErrorStatusSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Settings{URL: srv.URL})
	_, err := c.Devices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestConfigureMergesNonEmptyFields(t *testing.T) {
	c := NewClient(Settings{URL: "http://localhost:2501", APIKey: "old"})
	c.Configure(Settings{APIKey: "new"})

	conf := c.Settings()
	assert.Equal(t, "http://localhost:2501", conf.URL)
	assert.Equal(t, "new", conf.APIKey)

	c.Configure(Settings{URL: "http://other:2501/"})
	assert.Equal(t, "http://other:2501", c.Settings().URL)
}

func TestDemoDevicesTripEveryDetectorRule(t *testing.T) {
	devices := DemoDevices()
	require.NotEmpty(t, devices)

	var uav, drone, strong bool
	for _, d := range devices {
		if d.Phy() == "UAV" {
			uav = true
		}
		if d.Manuf() == "DJI Technology" {
			drone = true
		}
		if d.LastSignal() > -60 {
			strong = true
		}
	}
	assert.True(t, uav)
	assert.True(t, drone)
	assert.True(t, strong)
}
