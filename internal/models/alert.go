// Package models defines the data types shared across the Kismet Sentinel core:
// alert events, watchlist entries, automation settings and save records.
package models

import "time"

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Category identifies which subsystem produced an alert.
type Category string

const (
	// CategoryDrone: drone/UAV sighting from the detector set.
	CategoryDrone Category = "drone"
	// CategorySignal: unusually strong signal sighting.
	CategorySignal Category = "signal"
	// CategoryKismet: alert mirrored from the upstream Kismet feed.
	CategoryKismet Category = "kismet"
	// CategorySave: batch save completed.
	CategorySave Category = "save"
	// CategoryError: internal failure (upstream poll, batch save).
	CategoryError Category = "error"
)

// AlertEvent is a single entry in the alert log. Immutable once created;
// evicted only by the store's retention cap or an explicit clear.
type AlertEvent struct {
	ID       int64    `json:"id"`
	TS       string   `json:"ts"` // RFC 3339, local time
	Category Category `json:"type"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
}

// WatchlistEntry marks a device as tracked. Keyed by MAC; never expires,
// removed only by explicit delete.
type WatchlistEntry struct {
	MAC     string    `json:"mac"`
	Name    string    `json:"name"`
	Phy     string    `json:"phyname"`
	AddedAt time.Time `json:"added_at"`
	// Auto is true when the entry was inserted by an auto-watch rule
	// rather than by the operator.
	Auto bool `json:"auto,omitempty"`
}

// AutoWatchRules maps alert triggers to watchlist additions. Rules are
// independent; any enabled rule that matches causes a watch-add.
type AutoWatchRules struct {
	DroneAlerts  bool `json:"drone_alerts"`
	BTLEAlerts   bool `json:"btle_alerts"`
	StrongSignal bool `json:"strong_signal"`
}

// AutomationSettings controls the alert-save automation.
type AutomationSettings struct {
	AlertSaveEnabled  bool           `json:"alert_save_enabled"`
	SaveDeviceDetails bool           `json:"save_device_details"`
	SaveDeviceTraffic bool           `json:"save_device_traffic"`
	SaveWatchedOnly   bool           `json:"save_watched_only"`
	AutoWatchRules    AutoWatchRules `json:"auto_watch_rules"`
}

// DefaultAutomationSettings returns the settings active at startup.
func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{
		AlertSaveEnabled:  true,
		SaveDeviceDetails: true,
		SaveDeviceTraffic: true,
		SaveWatchedOnly:   false,
		AutoWatchRules: AutoWatchRules{
			DroneAlerts:  true,
			BTLEAlerts:   true,
			StrongSignal: false,
		},
	}
}

// SaveRecord is one attempted alert-save, success or failure.
type SaveRecord struct {
	TS       string `json:"ts"` // YYYYMMDD_HHMMSS, matches the artifact name
	File     string `json:"file"`
	Category string `json:"alert_type"`
	Device   string `json:"device"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// BatchSaveRecord is one batch device export.
type BatchSaveRecord struct {
	TS    string `json:"ts"`
	File  string `json:"file"`
	Count int    `json:"count"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
