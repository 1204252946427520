// Package watch maintains the tracked-device set and the auto-watch policy
// that feeds it. Entries never expire; removal is always an explicit
// operator action.
package watch

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arveo/kismet-sentinel/internal/models"
)

// ErrMACRequired rejects a manual add without a device identifier.
var ErrMACRequired = errors.New("MAC required")

// List is the set of watched devices, keyed by MAC.
type List struct {
	mu      sync.RWMutex
	entries map[string]models.WatchlistEntry
}

// NewList returns an empty watchlist.
func NewList() *List {
	return &List{entries: make(map[string]models.WatchlistEntry)}
}

// Add inserts or replaces a manual entry. The MAC is uppercased so manual
// and upstream-reported spellings collide on the same key.
func (l *List) Add(mac, name, phy string) (models.WatchlistEntry, error) {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	if mac == "" {
		return models.WatchlistEntry{}, ErrMACRequired
	}
	entry := models.WatchlistEntry{
		MAC:     mac,
		Name:    name,
		Phy:     phy,
		AddedAt: time.Now(),
	}
	l.mu.Lock()
	l.entries[mac] = entry
	l.mu.Unlock()
	return entry, nil
}

// autoAdd inserts an automatic entry unless the device is already watched.
func (l *List) autoAdd(mac, name, phy string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[mac]; ok {
		return false
	}
	l.entries[mac] = models.WatchlistEntry{
		MAC:     mac,
		Name:    name,
		Phy:     phy,
		AddedAt: time.Now(),
		Auto:    true,
	}
	return true
}

// Remove deletes an entry by MAC (case-insensitive). Removing an absent
// entry is a no-op.
func (l *List) Remove(mac string) {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	l.mu.Lock()
	delete(l.entries, mac)
	l.mu.Unlock()
}

// Contains reports whether the MAC is watched.
func (l *List) Contains(mac string) bool {
	l.mu.RLock()
	_, ok := l.entries[mac]
	l.mu.RUnlock()
	return ok
}

// Entries returns all entries, ordered by MAC for stable API output.
func (l *List) Entries() []models.WatchlistEntry {
	l.mu.RLock()
	out := make([]models.WatchlistEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MAC < out[j].MAC })
	return out
}

// Len reports the number of watched devices.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Evaluate applies the auto-watch rules to one alert + device pair and adds
// the device when any applicable rule is enabled. It runs after the alert
// has been recorded and never blocks or fails alert recording: a nil device
// or an already-watched MAC is a no-op.
func (l *List) Evaluate(rules models.AutoWatchRules, category models.Category, dev models.DeviceRecord) {
	if dev == nil {
		return
	}
	mac := dev.MAC()
	if mac == "" || l.Contains(mac) {
		return
	}

	phy := dev.Phy()
	shouldWatch := false

	if rules.DroneAlerts && category == models.CategoryDrone {
		shouldWatch = true
	}
	if rules.BTLEAlerts && (category == models.CategorySignal || category == models.CategoryKismet) &&
		(phy == "BTLE" || phy == "Bluetooth") {
		shouldWatch = true
	}
	if rules.StrongSignal && category == models.CategorySignal {
		shouldWatch = true
	}

	if !shouldWatch {
		return
	}

	name := dev.Name()
	if name == "" {
		name = mac
	}
	if l.autoAdd(mac, name, phy) {
		log.Printf("[watch] auto-watched %s (%s), triggered by %s alert", name, mac, category)
	}
}
