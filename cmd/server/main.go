package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledger-posting-engine/internal/auditseal"
	"ledger-posting-engine/internal/config"
	"ledger-posting-engine/internal/httpapi"
	"ledger-posting-engine/internal/idempotency"
	"ledger-posting-engine/internal/journal"
	"ledger-posting-engine/internal/legalhold"
	"ledger-posting-engine/internal/metrics"
	"ledger-posting-engine/internal/orchestrator"
	"ledger-posting-engine/internal/period"
	"ledger-posting-engine/internal/persist"
)

// defaultLocationAllowlist mirrors the reference operator-configured
// location-to-legal-entity map. A location not listed here is rejected.
var defaultLocationAllowlist = map[string]map[string]bool{
	"US_CO_01": {"BRECK_BASE_AREA": true, "VAIL_BASE_LODGE": true},
	"CA_BC_01": {"WHISTLER_VILLAGE": true, "BLACKCOMB_BASE": true},
}

// defaultCounterparties mirrors the reference intercompany pairing table:
// which legal entities may post intercompany/consolidation events against
// each other.
var defaultCounterparties = map[string]map[string]bool{
	"US_CO_01": {"CA_BC_01": true},
	"CA_BC_01": {"US_CO_01": true},
}

func main() {
	start := time.Now()
	cfg := config.Load()

	log.Printf("[startup] begin addr=%s persistDir=%s maxInflight=%d", cfg.HTTPAddr, cfg.PersistDir, cfg.HTTPMaxInflight)

	if err := os.MkdirAll(cfg.PersistDir, 0o755); err != nil {
		log.Fatalf("[startup] create persist dir failed: %v", err)
	}

	journals := journal.New()
	periods := period.New()
	holds := legalhold.New()
	idem := idempotency.New()
	results := idempotency.NewResultCache()
	seals := auditseal.New()

	log.Printf("[startup] loading snapshots")

	var journalSnap journal.Snapshot
	mustLoad(filepath.Join(cfg.PersistDir, "journal_store.json"), &journalSnap)
	if err := journals.Restore(journalSnap); err != nil {
		log.Fatalf("[startup] restore journal store failed: %v", err)
	}

	var periodSnap period.Snapshot
	mustLoad(filepath.Join(cfg.PersistDir, "period_store.json"), &periodSnap)
	if err := periods.Restore(periodSnap); err != nil {
		log.Fatalf("[startup] restore period store failed: %v", err)
	}

	var holdSnap legalhold.Snapshot
	mustLoad(filepath.Join(cfg.PersistDir, "legalhold.json"), &holdSnap)
	if err := holds.Restore(holdSnap); err != nil {
		log.Fatalf("[startup] restore legal hold store failed: %v", err)
	}

	var idemSnap []idempotency.Entry
	mustLoad(filepath.Join(cfg.PersistDir, "idempotency_store.json"), &idemSnap)
	if err := idem.Restore(idemSnap); err != nil {
		log.Fatalf("[startup] restore idempotency store failed: %v", err)
	}

	var resultSnap map[string]idempotency.CachedResult
	mustLoad(filepath.Join(cfg.PersistDir, "results.json"), &resultSnap)
	results.Restore(resultSnap)

	var sealSnap auditseal.Snapshot
	mustLoad(filepath.Join(cfg.PersistDir, "audit_seal_store.json"), &sealSnap)
	if err := seals.Restore(sealSnap); err != nil {
		log.Fatalf("[startup] restore audit seal chain failed: %v", err)
	}
	if err := seals.VerifyChain(); err != nil {
		log.Fatalf("[startup] audit seal chain verification failed: %v", err)
	}

	log.Printf("[startup] starting persist workers")
	journalWorker := persist.NewWorker(filepath.Join(cfg.PersistDir, "journal_store.json"))
	periodWorker := persist.NewWorker(filepath.Join(cfg.PersistDir, "period_store.json"))
	holdWorker := persist.NewWorker(filepath.Join(cfg.PersistDir, "legalhold.json"))
	idemWorker := persist.NewWorker(filepath.Join(cfg.PersistDir, "idempotency_store.json"))
	resultWorker := persist.NewWorker(filepath.Join(cfg.PersistDir, "results.json"))
	sealWorker := persist.NewWorker(filepath.Join(cfg.PersistDir, "audit_seal_store.json"))

	workers := []*persist.Worker{journalWorker, periodWorker, holdWorker, idemWorker, resultWorker, sealWorker}
	defer func() {
		for _, w := range workers {
			w.Shutdown()
		}
	}()

	reg := prometheus.NewRegistry()
	metricsRegistry := metrics.New(reg)

	orch := &orchestrator.Orchestrator{
		Idempotency: idem,
		ResultCache: results,
		Journals:    journals,
		Periods:     periods,
		LegalHolds:  holds,
		AuditSeals:  seals,
		Locations: func(legalEntityID, locationID string) bool {
			allowed, ok := defaultLocationAllowlist[legalEntityID]
			return ok && allowed[locationID]
		},
		Counterparties: func(legalEntityID, counterpartyLegalEntityID string) bool {
			allowed, ok := defaultCounterparties[legalEntityID]
			return ok && allowed[counterpartyLegalEntityID]
		},
	}

	h := &httpapi.Handlers{
		Orchestrator: orch,
		Journals:     journals,
		Periods:      periods,
		LegalHolds:   holds,
		AuditSeals:   seals,
		Checklists:   httpapi.NewChecklistRegistry(),
		Metrics:      metricsRegistry,
		Capacity:     httpapi.NewCapacityTracker(),
	}

	targets := periodicPersistTargets{
		journals: journals, journalW: journalWorker,
		periods: periods, periodW: periodWorker,
		holds: holds, holdW: holdWorker,
		idem: idem, idemW: idemWorker,
		results: results, resultW: resultWorker,
		seals: seals, sealW: sealWorker,
	}
	stopPersist := startPeriodicPersist(targets, 5*time.Second)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.Router(h, cfg.HTTPMaxInflight),

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	go func() {
		log.Printf("[startup] metrics listening on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[startup] ready in %s, listening on %s", time.Since(start).Truncate(time.Millisecond), cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[shutdown] signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	stopPersist()
	persistOnce(targets)
	for _, w := range workers {
		_ = w.Flush()
	}
	log.Printf("[shutdown] complete")
}

func mustLoad(path string, dest any) {
	if err := persist.LoadOrDefault(path, dest); err != nil {
		log.Fatalf("[startup] load %s failed: %v", path, err)
	}
}

type periodicPersistTargets struct {
	journals *journal.Store
	journalW *persist.Worker
	periods  *period.Store
	periodW  *persist.Worker
	holds    *legalhold.Store
	holdW    *persist.Worker
	idem     *idempotency.Store
	idemW    *persist.Worker
	results  *idempotency.ResultCache
	resultW  *persist.Worker
	seals    *auditseal.Chain
	sealW    *persist.Worker
}

// startPeriodicPersist periodically exports every store and enqueues the
// snapshot on its write-behind worker, coalescing bursts of mutation into
// one disk write per tick. Returns a stop function.
func startPeriodicPersist(t periodicPersistTargets, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				persistOnce(t)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
	}
}

func persistOnce(t periodicPersistTargets) {
	if snap, err := t.journals.ExportSnapshot(); err == nil {
		if b, err := json.Marshal(snap); err == nil {
			t.journalW.Persist(b)
		}
	}
	if snap, err := t.periods.ExportSnapshot(); err == nil {
		if b, err := json.Marshal(snap); err == nil {
			t.periodW.Persist(b)
		}
	}
	if snap, err := t.holds.ExportSnapshot(); err == nil {
		if b, err := json.Marshal(snap); err == nil {
			t.holdW.Persist(b)
		}
	}
	if snap, err := t.idem.Snapshot(); err == nil {
		if b, err := json.Marshal(snap); err == nil {
			t.idemW.Persist(b)
		}
	}
	if b, err := json.Marshal(t.results.Snapshot()); err == nil {
		t.resultW.Persist(b)
	}
	if snap, err := t.seals.ExportSnapshot(); err == nil {
		if b, err := json.Marshal(snap); err == nil {
			t.sealW.Persist(b)
		}
	}
}
