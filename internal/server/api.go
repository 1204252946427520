// Package server implements the Kismet Sentinel REST API on Gin.
// POST /api/login is public; everything else under /api requires a JWT.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arveo/kismet-sentinel/internal/archive"
	"github.com/arveo/kismet-sentinel/internal/automation"
	"github.com/arveo/kismet-sentinel/internal/kismet"
	"github.com/arveo/kismet-sentinel/internal/models"
	"github.com/arveo/kismet-sentinel/internal/pipeline"
	"github.com/arveo/kismet-sentinel/internal/sched"
	"github.com/arveo/kismet-sentinel/internal/sysinfo"
	"github.com/arveo/kismet-sentinel/internal/watch"
)

// API bundles the subsystems the handlers operate on.
type API struct {
	Engine *pipeline.Engine
	Client *kismet.Client
	Sched  *sched.Scheduler
	Index  *archive.Index
	// Demo serves canned data when the upstream Kismet server is down.
	Demo bool
}

// RegisterRoutes wires up the REST API on the given engine.
func (a *API) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ── Public endpoints ──────────────────────────────────────────────────────
	api.POST("/login", a.handleLogin)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	// ── JWT-protected endpoints ───────────────────────────────────────────────
	auth := api.Group("/", JWTMiddleware())
	{
		auth.GET("/config", a.handleConfigGet)
		auth.POST("/config", a.handleConfigSet)
		auth.GET("/status", a.handleStatus)

		auth.GET("/devices", a.handleDevices)
		auth.GET("/ssids", a.handleSSIDs)

		auth.GET("/alerts", a.handleAlerts)
		auth.POST("/alerts/clear", a.handleAlertsClear)
		auth.POST("/alerts/poll", a.handleAlertsPoll)

		auth.POST("/save", a.handleSave)
		auth.GET("/save/log", a.handleSaveLog)

		auth.GET("/schedules", a.handleSchedulesGet)
		auth.POST("/schedules", a.handleSchedulesAdd)
		auth.DELETE("/schedules/:id", a.handleSchedulesDelete)

		auth.GET("/automations", a.handleAutomationsGet)
		auth.POST("/automations", a.handleAutomationsSet)
		auth.GET("/automations/saves", a.handleAutomationSaves)
		auth.GET("/automations/saves/archive", a.handleAutomationSavesArchive)

		auth.GET("/watchlist", a.handleWatchlistGet)
		auth.POST("/watchlist", a.handleWatchlistAdd)
		auth.DELETE("/watchlist/:mac", a.handleWatchlistRemove)
	}
}

// handleLogin accepts username + password and returns a signed JWT.
func (a *API) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	if !checkAdmin(body.Username, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := GenerateJWT(body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": 86400, // seconds
		"type":       "Bearer",
	})
}

// handleConfigGet returns the upstream connection settings with the API key masked.
func (a *API) handleConfigGet(c *gin.Context) {
	conf := a.Client.Settings()
	masked := ""
	if conf.APIKey != "" {
		masked = "***"
	}
	c.JSON(http.StatusOK, gin.H{
		"kismet_url": conf.URL,
		"api_key":    masked,
		"username":   conf.Username,
	})
}

// handleConfigSet merges non-empty fields into the upstream connection settings.
func (a *API) handleConfigSet(c *gin.Context) {
	var body kismet.Settings
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.Client.Configure(body)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleStatus reports upstream reachability plus the sentinel host's own health.
func (a *API) handleStatus(c *gin.Context) {
	host := sysinfo.Collect()

	status, err := a.Client.Status(c.Request.Context())
	if err != nil {
		if a.Demo {
			c.JSON(http.StatusOK, gin.H{
				"ok": true,
				"data": gin.H{
					"kismet.system.version":       "demo",
					"kismet.system.devices.count": len(kismet.DemoDevices()),
				},
				"sentinel": host,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "Kismet not available", "sentinel": host})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": status, "sentinel": host})
}

// handleDevices fetches the upstream device list, runs it through the
// detector pipeline and returns it. Falls back to the demo dataset when the
// upstream is down and demo mode is on.
func (a *API) handleDevices(c *gin.Context) {
	since, _ := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)

	ctx := c.Request.Context()
	var devices []models.DeviceRecord
	var err error
	if since != 0 {
		devices, err = a.Client.DevicesSince(ctx, since)
	} else {
		devices, err = a.Client.Devices(ctx)
	}
	if err != nil {
		if a.Demo {
			c.JSON(http.StatusOK, gin.H{"ok": true, "devices": kismet.DemoDevices(), "ts": time.Now().Unix()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "Kismet not available"})
		return
	}

	a.Engine.Ingest(devices)
	c.JSON(http.StatusOK, gin.H{"ok": true, "devices": devices, "ts": time.Now().Unix()})
}

// handleSSIDs proxies the upstream SSID view.
func (a *API) handleSSIDs(c *gin.Context) {
	ssids, err := a.Client.SSIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ssids": ssids})
}

// handleAlerts returns alerts, newest first, with optional severity/type
// filters and a result limit.
func (a *API) handleAlerts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		limit = 100
	}
	events := a.Engine.Store.Query(c.Query("severity"), c.Query("type"), limit)
	c.JSON(http.StatusOK, gin.H{"alerts": events})
}

// handleAlertsClear empties the alert store.
func (a *API) handleAlertsClear(c *gin.Context) {
	a.Engine.Store.Clear()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleAlertsPoll kicks off an asynchronous mirror of the upstream alert feed.
func (a *API) handleAlertsPoll(c *gin.Context) {
	go a.Engine.MirrorUpstream(context.Background())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleSave kicks off an asynchronous batch save.
func (a *API) handleSave(c *gin.Context) {
	var body struct {
		Label string `json:"label"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.Label == "" {
		body.Label = "manual"
	}
	go a.Engine.BatchSave(context.Background(), body.Label)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Save started"})
}

// handleSaveLog returns the batch-save log.
func (a *API) handleSaveLog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"log": a.Engine.BatchLog(), "last_save": a.Engine.LastSave()})
}

// handleSchedulesGet lists the recurring save jobs.
func (a *API) handleSchedulesGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schedules": a.Sched.Jobs()})
}

// handleSchedulesAdd registers a new recurring save job.
func (a *API) handleSchedulesAdd(c *gin.Context) {
	var body struct {
		Name        string `json:"name"`
		IntervalMin int    `json:"interval_min"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.Name == "" {
		body.Name = "Auto Save"
	}
	if body.IntervalMin == 0 {
		body.IntervalMin = 30
	}
	job := a.Sched.Add(body.Name, body.IntervalMin)
	c.JSON(http.StatusOK, gin.H{"ok": true, "schedule": job})
}

// handleSchedulesDelete removes a save job by id.
func (a *API) handleSchedulesDelete(c *gin.Context) {
	a.Sched.Remove(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleAutomationsGet returns the automation settings and the watchlist.
func (a *API) handleAutomationsGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"automations":     a.Engine.Settings.Get(),
		"watched_devices": a.Engine.Watched.Entries(),
	})
}

// handleAutomationsSet applies a partial automation-settings update.
func (a *API) handleAutomationsSet(c *gin.Context) {
	var body automation.Update
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "automations": a.Engine.Settings.Apply(body)})
}

// handleAutomationSaves returns the in-memory alert-save log.
func (a *API) handleAutomationSaves(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"saves": a.Engine.Saver.Records()})
}

// handleAutomationSavesArchive returns the persistent save-artifact index.
func (a *API) handleAutomationSavesArchive(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	artifacts, err := a.Index.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saves": artifacts})
}

// handleWatchlistGet lists the watched devices.
func (a *API) handleWatchlistGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": a.Engine.Watched.Entries()})
}

// handleWatchlistAdd inserts a manual watchlist entry.
func (a *API) handleWatchlistAdd(c *gin.Context) {
	var body struct {
		MAC  string `json:"mac"`
		Name string `json:"name"`
		Phy  string `json:"phyname"`
	}
	_ = c.ShouldBindJSON(&body)

	if _, err := a.Engine.Watched.Add(body.MAC, body.Name, body.Phy); err != nil {
		if errors.Is(err, watch.ErrMACRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "MAC required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "watched": a.Engine.Watched.Len()})
}

// handleWatchlistRemove deletes a watchlist entry by MAC.
func (a *API) handleWatchlistRemove(c *gin.Context) {
	a.Engine.Watched.Remove(c.Param("mac"))
	c.JSON(http.StatusOK, gin.H{"ok": true, "watched": a.Engine.Watched.Len()})
}
