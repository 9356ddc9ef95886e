/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift pay engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and optional TOML config file
  2. Initialize SQLite store
  3. Wire recalculator, tax cache and period orchestrator
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: pay.db)
           Use ":memory:" for in-memory database
  -config  Optional TOML config file; flags override its values

CONFIG FILE (TOML):
  port = 8080
  db = "./data/pay.db"
  tax_cache_ttl = "1h"

  [tax_profile]
  claims_tax_free_threshold = true
  has_study_loan = false
  extra_withholding = "0"

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/pay.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run from a config file
  ./server -config=./pay.toml

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/api"
	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/period"
	"github.com/warp/pay-engine/store/sqlite"
	"github.com/warp/pay-engine/tax"
)

// Config is the optional TOML configuration file.
type Config struct {
	Port        int        `toml:"port"`
	DB          string     `toml:"db"`
	TaxCacheTTL string     `toml:"tax_cache_ttl"`
	TaxProfile  TaxProfile `toml:"tax_profile"`
}

// TaxProfile is the payee's standing withholding settings.
type TaxProfile struct {
	ClaimsTaxFreeThreshold bool   `toml:"claims_tax_free_threshold"`
	ForeignResident        bool   `toml:"foreign_resident"`
	MedicareExemption      string `toml:"medicare_exemption"` // "", "half", "full"
	HasStudyLoan           bool   `toml:"has_study_loan"`
	ExtraWithholding       string `toml:"extra_withholding"`
}

func defaultConfig() Config {
	return Config{
		Port:        8080,
		DB:          "pay.db",
		TaxCacheTTL: "1h",
		TaxProfile: TaxProfile{
			ClaimsTaxFreeThreshold: true,
		},
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) taxProfile() (period.TaxProfile, error) {
	p := period.TaxProfile{
		ClaimsTaxFreeThreshold: c.TaxProfile.ClaimsTaxFreeThreshold,
		ForeignResident:        c.TaxProfile.ForeignResident,
		HasStudyLoan:           c.TaxProfile.HasStudyLoan,
	}
	switch c.TaxProfile.MedicareExemption {
	case "":
		p.MedicareExemption = tax.ExemptionNone
	case "half":
		p.MedicareExemption = tax.ExemptionHalf
	case "full":
		p.MedicareExemption = tax.ExemptionFull
	default:
		return p, fmt.Errorf("invalid medicare_exemption %q: want half or full", c.TaxProfile.MedicareExemption)
	}
	if c.TaxProfile.ExtraWithholding != "" {
		extra, err := decimal.NewFromString(c.TaxProfile.ExtraWithholding)
		if err != nil {
			return p, fmt.Errorf("invalid extra_withholding %q", c.TaxProfile.ExtraWithholding)
		}
		p.ExtraWithholding = extra
	}
	return p, nil
}

func main() {
	// Flags
	configPath := flag.String("config", "", "TOML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DB = *dbPath
	}

	ttl, err := time.ParseDuration(cfg.TaxCacheTTL)
	if err != nil {
		log.Fatalf("Invalid tax_cache_ttl %q: %v", cfg.TaxCacheTTL, err)
	}
	profile, err := cfg.taxProfile()
	if err != nil {
		log.Fatalf("Invalid tax profile: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire the domain services: the store implements every persistence
	// interface, including the tax table source behind the cache.
	tables := tax.NewCache(store, ttl)
	recalc := engine.NewRecalculator(store, store)
	orch := period.NewOrchestrator(store, store, tax.NewCalculator(tables), profile)

	handler := api.NewHandler(store, recalc, orch, tables)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
