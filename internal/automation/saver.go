package automation

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/arveo/kismet-sentinel/internal/archive"
	"github.com/arveo/kismet-sentinel/internal/models"
	"github.com/arveo/kismet-sentinel/internal/watch"
)

// maxSaveRecords caps the in-memory save log.
const maxSaveRecords = 100

// savePayload is the on-disk artifact format.
type savePayload struct {
	SavedAt string            `json:"saved_at"`
	Alert   models.AlertEvent `json:"alert"`
	Device  map[string]any    `json:"device,omitempty"`
	Traffic map[string]any    `json:"traffic,omitempty"`
}

// Saver persists alert + device evidence to disk when policy allows.
// Write failures are recorded in the save log, never raised to the caller.
type Saver struct {
	dir      string
	settings *Settings
	watched  *watch.List
	index    *archive.Index

	mu      sync.Mutex
	records []models.SaveRecord
}

// NewSaver returns a Saver writing artifacts under dir. index may be nil.
func NewSaver(dir string, settings *Settings, watched *watch.List, index *archive.Index) *Saver {
	return &Saver{dir: dir, settings: settings, watched: watched, index: index}
}

// MaybeSave runs the gate sequence and, on pass, writes one evidence file.
// It is invoked off the ingestion path (the pipeline dispatches it on its
// own goroutine), so filesystem latency never blocks alert recording.
func (s *Saver) MaybeSave(ev models.AlertEvent, dev models.DeviceRecord) {
	cfg := s.settings.Get()
	if !cfg.AlertSaveEnabled {
		return
	}
	if !cfg.SaveDeviceDetails && !cfg.SaveDeviceTraffic {
		return
	}
	if cfg.SaveWatchedOnly && dev != nil && !s.watched.Contains(dev.MAC()) {
		return
	}

	now := time.Now()
	ts := now.Format("20060102_150405")

	devName := ""
	if dev != nil {
		devName = dev.Label()
	}
	filename := "alert_" + sanitizeFilename(string(ev.Category)) + "_" + sanitizeFilename(devName) + "_" + ts + ".json"
	outFile := filepath.Join(s.dir, filename)

	payload := savePayload{SavedAt: ts, Alert: ev}
	if cfg.SaveDeviceDetails && dev != nil {
		payload.Device = dev.Detail()
	}
	if cfg.SaveDeviceTraffic && dev != nil {
		payload.Traffic = trafficBlock(dev)
	}

	rec := models.SaveRecord{
		TS:       ts,
		File:     outFile,
		Category: string(ev.Category),
		Device:   devName,
		OK:       true,
	}
	if err := s.write(outFile, payload); err != nil {
		log.Printf("[automation] alert save failed: %v", err)
		rec.OK = false
		rec.Error = err.Error()
	} else {
		log.Printf("[automation] alert save: %s", filename)
	}
	s.push(rec)

	mac := ""
	if dev != nil {
		mac = dev.MAC()
	}
	s.index.Record(archive.SaveArtifact{
		SavedAt:   now,
		File:      outFile,
		Category:  rec.Category,
		DeviceMAC: mac,
		Device:    devName,
		OK:        rec.OK,
		Error:     rec.Error,
	})
}

func (s *Saver) write(path string, payload savePayload) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Saver) push(rec models.SaveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]models.SaveRecord{rec}, s.records...)
	if len(s.records) > maxSaveRecords {
		s.records = s.records[:maxSaveRecords]
	}
}

// Records returns the save log, newest first.
func (s *Saver) Records() []models.SaveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SaveRecord, len(s.records))
	copy(out, s.records)
	return out
}

// trafficBlock extracts the traffic counters for the artifact, with a raw
// catch-all of every field whose key mentions packets, data or crypto.
func trafficBlock(dev models.DeviceRecord) map[string]any {
	raw := map[string]any{}
	for k, v := range dev {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "packet") || strings.Contains(lower, "data") || strings.Contains(lower, "crypt") {
			raw[k] = v
		}
	}
	return map[string]any{
		"packets_total": dev["kismet_device_base_packets_total"],
		"packets_data":  dev["kismet_device_base_packets_data"],
		"packets_crypt": dev["kismet_device_base_crypt"],
		"datasize":      dev["kismet_device_base_datasize"],
		"raw":           raw,
	}
}

// sanitizeFilename strips everything but alphanumerics, hyphen and
// underscore, and caps the result at 80 characters.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > 80 {
		out = out[:80]
	}
	return out
}
