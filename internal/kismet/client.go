// Package kismet implements the HTTP client for the upstream Kismet server:
// device lists (ekjson), the native alert feed, and system status. Sentinel
// treats Kismet purely as a data source; nothing is written upstream.
package kismet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arveo/kismet-sentinel/internal/models"
)

// UpstreamAlert is one entry from Kismet's own alert feed.
type UpstreamAlert struct {
	Header   string  `json:"kismet.alert.header"`
	Text     string  `json:"kismet.alert.text"`
	Severity float64 `json:"kismet.alert.severity"`
}

// Settings is the connection configuration, changeable at runtime from the
// API. When Username is set, basic auth is used; otherwise the API key is
// sent in the KISMET header.
type Settings struct {
	URL      string `json:"kismet_url"`
	APIKey   string `json:"api_key"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client talks to one Kismet server.
type Client struct {
	mu   sync.RWMutex
	conf Settings
	http *http.Client
}

// NewClient returns a Client for the given connection settings.
func NewClient(conf Settings) *Client {
	conf.URL = strings.TrimRight(conf.URL, "/")
	return &Client{
		conf: conf,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Settings returns the current connection settings.
func (c *Client) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf
}

// Configure merges non-empty fields into the connection settings.
func (c *Client) Configure(conf Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conf.URL != "" {
		c.conf.URL = strings.TrimRight(conf.URL, "/")
	}
	if conf.APIKey != "" {
		c.conf.APIKey = conf.APIKey
	}
	if conf.Username != "" {
		c.conf.Username = conf.Username
	}
	if conf.Password != "" {
		c.conf.Password = conf.Password
	}
}

// get fetches one Kismet endpoint and returns the raw body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	conf := c.Settings()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, conf.URL+path, nil)
	if err != nil {
		return nil, err
	}
	if conf.Username != "" {
		req.SetBasicAuth(conf.Username, conf.Password)
	} else if conf.APIKey != "" {
		req.Header.Set("KISMET", conf.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("kismet returned %d for %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

// decodeEKJSON parses Kismet's ekjson framing: one JSON object per line,
// not a JSON array.
func decodeEKJSON(body []byte) ([]models.DeviceRecord, error) {
	var out []models.DeviceRecord
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj models.DeviceRecord
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, fmt.Errorf("parsing ekjson line: %w", err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Devices fetches the full device list.
func (c *Client) Devices(ctx context.Context) ([]models.DeviceRecord, error) {
	body, err := c.get(ctx, "/devices/all_devices.ekjson")
	if err != nil {
		return nil, err
	}
	return decodeEKJSON(body)
}

// DevicesSince fetches devices seen after the given Unix timestamp.
func (c *Client) DevicesSince(ctx context.Context, since int64) ([]models.DeviceRecord, error) {
	body, err := c.get(ctx, fmt.Sprintf("/devices/last-time/%d/devices.ekjson", since))
	if err != nil {
		return nil, err
	}
	return decodeEKJSON(body)
}

// Alerts fetches Kismet's native alert feed.
func (c *Client) Alerts(ctx context.Context) ([]UpstreamAlert, error) {
	body, err := c.get(ctx, "/alerts/all_alerts.json")
	if err != nil {
		return nil, err
	}
	var out []UpstreamAlert
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing alert feed: %w", err)
	}
	return out, nil
}

// Status fetches the upstream system status document.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	body, err := c.get(ctx, "/system/status.json")
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}
	return out, nil
}

// SSIDs fetches the 802.11 SSID view.
func (c *Client) SSIDs(ctx context.Context) ([]map[string]any, error) {
	body, err := c.get(ctx, "/phy/phy80211/ssids/views/ssids.json")
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing ssids: %w", err)
	}
	return out, nil
}
