// Kismet Sentinel — monitor a Kismet server, detect drones, automate alert evidence capture.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arveo/kismet-sentinel/internal/alerts"
	"github.com/arveo/kismet-sentinel/internal/archive"
	"github.com/arveo/kismet-sentinel/internal/automation"
	"github.com/arveo/kismet-sentinel/internal/config"
	"github.com/arveo/kismet-sentinel/internal/kismet"
	"github.com/arveo/kismet-sentinel/internal/pipeline"
	"github.com/arveo/kismet-sentinel/internal/sched"
	"github.com/arveo/kismet-sentinel/internal/server"
	"github.com/arveo/kismet-sentinel/internal/watch"
)

const asciiLogo = `
 ███████╗███████╗███╗   ██╗████████╗██╗███╗   ██╗███████╗██╗
 ██╔════╝██╔════╝████╗  ██║╚══██╔══╝██║████╗  ██║██╔════╝██║
 ███████╗█████╗  ██╔██╗ ██║   ██║   ██║██╔██╗ ██║█████╗  ██║
 ╚════██║██╔══╝  ██║╚██╗██║   ██║   ██║██║╚██╗██║██╔══╝  ██║
 ███████║███████╗██║ ╚████║   ██║   ██║██║ ╚████║███████╗███████╗
 ╚══════╝╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚═╝╚═╝  ╚═══╝╚══════╝╚══════╝
`

const version = "v0.1.0"

func printBanner() {
	fmt.Print(asciiLogo)
	fmt.Println()
	fmt.Printf("  ► Kismet Sentinel %s\n\n", version)
}

func main() {
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Kismet Sentinel — drone detection & alert automation for Kismet",
		Long: `Kismet Sentinel polls a Kismet wireless-sensing server, classifies device
sightings with rule-based detectors (drone keywords, UAV PHY, strong signal),
keeps a bounded alert log, auto-watches interesting devices and saves alert
evidence to disk.`,
		SilenceUsage: true,
	}

	// ── server subcommand ─────────────────────────────────────────────────────
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the Kismet Sentinel backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			// CLI flags override config values.
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				cfg.ServerHost = host
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.ServerPort = port
			}
			if dir, _ := cmd.Flags().GetString("save-dir"); dir != "" {
				cfg.SaveDir = dir
			}

			server.SetJWTSecret(cfg.JWTSecret)
			if err := server.SetAdminCredentials(cfg.AdminUser, cfg.AdminPass); err != nil {
				return fmt.Errorf("hashing admin password: %w", err)
			}

			if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
				return fmt.Errorf("creating save dir: %w", err)
			}

			// The artifact index is best-effort; run without it if it fails.
			index, err := archive.Open(cfg.ArchivePath)
			if err != nil {
				log.Printf("[main] artifact index unavailable: %v", err)
				index = nil
			}

			// ── Wire the alerting core ──────────────────────────────────────────
			client := kismet.NewClient(kismet.Settings{
				URL:      cfg.KismetURL,
				APIKey:   cfg.KismetAPIKey,
				Username: cfg.KismetUser,
				Password: cfg.KismetPass,
			})
			store := alerts.NewStore(0)
			watched := watch.NewList()
			settings := automation.NewSettings()
			saver := automation.NewSaver(cfg.SaveDir, settings, watched, index)
			engine := pipeline.NewEngine(store, watched, settings, saver, client, cfg.SaveDir)

			scheduler := sched.New(func(label string) {
				engine.BatchSave(context.Background(), label)
			})

			if cfg.DemoMode {
				engine.Ingest(kismet.DemoDevices())
				log.Printf("[main] demo mode active — canned devices served when Kismet is down (set SENTINEL_DEMO_MODE=false to disable)")
			}

			gin.SetMode(gin.ReleaseMode)
			corsMiddleware := func(c *gin.Context) {
				c.Header("Access-Control-Allow-Origin", "*")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
				c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				if c.Request.Method == "OPTIONS" {
					c.AbortWithStatus(204)
					return
				}
				c.Next()
			}

			engineHTTP := gin.New()
			engineHTTP.Use(gin.Recovery(), corsMiddleware)
			api := &server.API{
				Engine: engine,
				Client: client,
				Sched:  scheduler,
				Index:  index,
				Demo:   cfg.DemoMode,
			}
			api.RegisterRoutes(engineHTTP)

			addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
			fmt.Printf("  ✓ API            → http://%s\n", addr)
			fmt.Printf("  ✓ Upstream       → %s\n", client.Settings().URL)
			fmt.Printf("  ✓ Save dir       → %s\n", cfg.SaveDir)
			fmt.Printf("  ✓ Default login: %s / %s\n\n", cfg.AdminUser, cfg.AdminPass)

			srv := &http.Server{Addr: addr, Handler: engineHTTP}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt) // os.Interrupt = SIGINT; works on all platforms

			select {
			case err := <-errCh:
				return err
			case <-quit:
				fmt.Println("\n  → Shutting down gracefully…")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
				scheduler.Shutdown()
				// Let in-flight evidence writes finish.
				engine.Flush()
				return nil
			}
		},
	}
	serverCmd.Flags().String("host", "", "Bind address (overrides config)")
	serverCmd.Flags().IntP("port", "p", 0, "Bind port (overrides config)")
	serverCmd.Flags().String("save-dir", "", "Directory for alert evidence and batch exports (overrides config)")

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print Kismet Sentinel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Kismet Sentinel %s\n", version)
		},
	}

	root.AddCommand(serverCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
