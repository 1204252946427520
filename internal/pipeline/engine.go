// Package pipeline orchestrates the alerting core: detector evaluation over
// device batches, alert recording, watch-policy evaluation and the
// automation hand-off. For each event the ordering is fixed — store append,
// then watch policy, then the asynchronous save — while batches from
// concurrent callers may interleave freely.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arveo/kismet-sentinel/internal/alerts"
	"github.com/arveo/kismet-sentinel/internal/automation"
	"github.com/arveo/kismet-sentinel/internal/detect"
	"github.com/arveo/kismet-sentinel/internal/kismet"
	"github.com/arveo/kismet-sentinel/internal/models"
	"github.com/arveo/kismet-sentinel/internal/watch"
)

// maxBatchRecords caps the batch-save log.
const maxBatchRecords = 50

// mirrorLimit is how many upstream alerts one poll mirrors (the newest).
const mirrorLimit = 20

// Engine wires the detector set, alert store, watch policy and alert-save
// automation into one ingestion pipeline.
type Engine struct {
	Store    *alerts.Store
	Watched  *watch.List
	Settings *automation.Settings
	Saver    *automation.Saver

	client  *kismet.Client
	saveDir string

	saveWG sync.WaitGroup

	mu       sync.Mutex
	batchLog []models.BatchSaveRecord
	lastSave string
}

// NewEngine assembles an Engine. saveDir is where batch exports land.
func NewEngine(store *alerts.Store, watched *watch.List, settings *automation.Settings,
	saver *automation.Saver, client *kismet.Client, saveDir string) *Engine {
	return &Engine{
		Store:    store,
		Watched:  watched,
		Settings: settings,
		Saver:    saver,
		client:   client,
		saveDir:  saveDir,
	}
}

// PushAlert records one event and runs the per-event policy chain. The
// append happens first and cannot be blocked by the watchlist or the saver;
// the save is dispatched on its own goroutine when a device is attached.
func (e *Engine) PushAlert(category models.Category, severity models.Severity,
	title, body string, dev models.DeviceRecord) models.AlertEvent {

	ev := e.Store.Append(category, severity, title, body)

	e.Watched.Evaluate(e.Settings.Get().AutoWatchRules, category, dev)

	if dev != nil {
		e.saveWG.Add(1)
		go func() {
			defer e.saveWG.Done()
			e.Saver.MaybeSave(ev, dev)
		}()
	}
	return ev
}

// Ingest runs the detector set over a batch of device records. A failure on
// one record is swallowed and the batch continues.
func (e *Engine) Ingest(devices []models.DeviceRecord) {
	for _, dev := range devices {
		for _, c := range e.evaluate(dev) {
			e.PushAlert(c.Category, c.Severity, c.Title, c.Body, dev)
		}
	}
}

// evaluate isolates detector faults per record.
func (e *Engine) evaluate(dev models.DeviceRecord) (out []detect.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[pipeline] detector failure on record, skipping: %v", r)
		}
	}()
	return detect.Evaluate(dev)
}

// Flush waits for all in-flight alert saves to complete. Called on shutdown
// so evidence writes are not cut off mid-file.
func (e *Engine) Flush() {
	e.saveWG.Wait()
}

// MirrorUpstream polls Kismet's own alert feed and mirrors the newest
// entries into the alert store. A fetch failure becomes an error alert
// instead of propagating.
func (e *Engine) MirrorUpstream(ctx context.Context) {
	upstream, err := e.client.Alerts(ctx)
	if err != nil {
		e.PushAlert(models.CategoryError, models.SeverityError, "Kismet alert poll failed", err.Error(), nil)
		return
	}

	if len(upstream) > mirrorLimit {
		upstream = upstream[len(upstream)-mirrorLimit:]
	}
	for _, a := range upstream {
		severity := models.SeverityInfo
		if a.Severity < 10 {
			severity = models.SeverityWarning
		}
		header := a.Header
		if header == "" {
			header = "Kismet Alert"
		}
		e.PushAlert(models.CategoryKismet, severity, header, a.Text, nil)
	}
}

// BatchSave fetches the full device list, runs it through the detectors and
// exports it as one JSON file. All failure paths degrade to an error alert
// and a failed batch record.
func (e *Engine) BatchSave(ctx context.Context, label string) {
	ts := time.Now().Format("20060102_150405")
	outFile := filepath.Join(e.saveDir, fmt.Sprintf("kismet_%s_%s.json", label, ts))

	devices, err := e.client.Devices(ctx)
	if err == nil {
		e.Ingest(devices)
		err = e.writeBatch(outFile, ts, devices)
	}

	if err != nil {
		e.pushBatchRecord(models.BatchSaveRecord{TS: ts, File: outFile, OK: false, Error: err.Error()})
		e.PushAlert(models.CategoryError, models.SeverityError, "Batch save failed", err.Error(), nil)
		log.Printf("[pipeline] batch save failed: %v", err)
		return
	}

	e.pushBatchRecord(models.BatchSaveRecord{TS: ts, File: outFile, Count: len(devices), OK: true})
	e.PushAlert(models.CategorySave, models.SeverityInfo,
		fmt.Sprintf("Batch save complete: %d devices", len(devices)), outFile, nil)
	log.Printf("[pipeline] saved %d devices to %s", len(devices), outFile)
}

func (e *Engine) writeBatch(path, ts string, devices []models.DeviceRecord) error {
	if err := os.MkdirAll(e.saveDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(map[string]any{"ts": ts, "devices": devices}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (e *Engine) pushBatchRecord(rec models.BatchSaveRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchLog = append([]models.BatchSaveRecord{rec}, e.batchLog...)
	if len(e.batchLog) > maxBatchRecords {
		e.batchLog = e.batchLog[:maxBatchRecords]
	}
	if rec.OK {
		e.lastSave = rec.TS
	}
}

// BatchLog returns the batch-save log, newest first.
func (e *Engine) BatchLog() []models.BatchSaveRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.BatchSaveRecord, len(e.batchLog))
	copy(out, e.batchLog)
	return out
}

// LastSave returns the timestamp of the last successful batch save.
func (e *Engine) LastSave() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSave
}
