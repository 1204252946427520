// Package automation implements the policy-gated alert-save automation and
// its runtime settings.
package automation

import (
	"sync"

	"github.com/arveo/kismet-sentinel/internal/models"
)

// Settings holds the live automation configuration. All accessors are safe
// for concurrent use.
type Settings struct {
	mu  sync.RWMutex
	cfg models.AutomationSettings
}

// NewSettings starts from the built-in defaults.
func NewSettings() *Settings {
	return &Settings{cfg: models.DefaultAutomationSettings()}
}

// Get returns a snapshot of the current configuration.
func (s *Settings) Get() models.AutomationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update is a partial settings change; nil fields are left untouched.
type Update struct {
	AlertSaveEnabled  *bool        `json:"alert_save_enabled"`
	SaveDeviceDetails *bool        `json:"save_device_details"`
	SaveDeviceTraffic *bool        `json:"save_device_traffic"`
	SaveWatchedOnly   *bool        `json:"save_watched_only"`
	AutoWatchRules    *RulesUpdate `json:"auto_watch_rules"`
}

// RulesUpdate is the auto-watch-rule part of an Update.
type RulesUpdate struct {
	DroneAlerts  *bool `json:"drone_alerts"`
	BTLEAlerts   *bool `json:"btle_alerts"`
	StrongSignal *bool `json:"strong_signal"`
}

// Apply merges an update into the live configuration and returns the result.
func (s *Settings) Apply(u Update) models.AutomationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.cfg.AlertSaveEnabled, u.AlertSaveEnabled)
	set(&s.cfg.SaveDeviceDetails, u.SaveDeviceDetails)
	set(&s.cfg.SaveDeviceTraffic, u.SaveDeviceTraffic)
	set(&s.cfg.SaveWatchedOnly, u.SaveWatchedOnly)
	if u.AutoWatchRules != nil {
		set(&s.cfg.AutoWatchRules.DroneAlerts, u.AutoWatchRules.DroneAlerts)
		set(&s.cfg.AutoWatchRules.BTLEAlerts, u.AutoWatchRules.BTLEAlerts)
		set(&s.cfg.AutoWatchRules.StrongSignal, u.AutoWatchRules.StrongSignal)
	}
	return s.cfg
}
