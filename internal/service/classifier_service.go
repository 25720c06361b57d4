package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"go-gluten-scan/internal/ai"
	"go-gluten-scan/internal/repository"
	"go-gluten-scan/internal/ws"
	"go-gluten-scan/pkg/logger"
)

// checkResult is the terminal state of one staleness check.
type checkResult int

const (
	checkFresh checkResult = iota // within the freshness window, nothing done
	checkUnchanged
	checkUpdated
)

// ClassifierConfig tunes the background reclassification.
type ClassifierConfig struct {
	FreshnessWindow time.Duration
	Workers         int
	QueueSize       int
	CallTimeout     time.Duration
	SweepSchedule   string // cron spec; empty disables the sweep
	SweepBatchSize  int
	Now             func() time.Time // test hook, defaults to time.Now
}

// StalenessClassifier keeps product statuses current without adding latency
// to the scan path. Scans enqueue barcodes; workers re-run the classifier on
// stale records and overwrite the status when the verdict changes. A failed
// classification never degrades a stored status.
type StalenessClassifier struct {
	products   repository.ProductStatusWriter
	classifier ai.Classifier
	hub        *ws.Hub
	cfg        ClassifierConfig

	jobs   chan string
	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStalenessClassifier(
	products repository.ProductStatusWriter,
	classifier ai.Classifier,
	hub *ws.Hub,
	cfg ClassifierConfig,
) *StalenessClassifier {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StalenessClassifier{
		products:   products,
		classifier: classifier,
		hub:        hub,
		cfg:        cfg,
		jobs:       make(chan string, cfg.QueueSize),
	}
}

// Enqueue hands a barcode to the background workers. It never blocks; when
// the queue is full the check is skipped and will run on a later scan or the
// nightly sweep.
func (s *StalenessClassifier) Enqueue(barcode string) bool {
	select {
	case s.jobs <- barcode:
		return true
	default:
		return false
	}
}

// Start launches the worker pool and, when configured, the periodic sweep
// over stale products nobody is rescanning.
func (s *StalenessClassifier) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	if s.cfg.SweepSchedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweep); err != nil {
			logger.L.Error("invalid sweep schedule, sweep disabled",
				"schedule", s.cfg.SweepSchedule, "error", err)
		} else {
			s.cron.Start()
		}
	}
}

// Stop drains the workers and stops the sweep.
func (s *StalenessClassifier) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *StalenessClassifier) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case barcode := <-s.jobs:
			s.check(ctx, barcode)
		}
	}
}

// sweep enqueues every product whose classification fell out of the
// freshness window.
func (s *StalenessClassifier) sweep() {
	limit := s.cfg.SweepBatchSize
	if limit <= 0 {
		limit = 100
	}
	cutoff := s.cfg.Now().Add(-s.cfg.FreshnessWindow)
	stale, err := s.products.FindStale(cutoff, limit)
	if err != nil {
		logger.L.Error("stale sweep query failed", "error", err)
		return
	}
	queued := 0
	for _, p := range stale {
		if s.Enqueue(p.Barcode) {
			queued++
		}
	}
	logger.L.Info("stale sweep finished", "stale", len(stale), "queued", queued)
}

// check runs the staleness state machine for one barcode. Concurrent checks
// for the same barcode are harmless: status writes are full overwrites keyed
// by barcode, last write wins.
func (s *StalenessClassifier) check(ctx context.Context, barcode string) checkResult {
	product, err := s.products.FindByBarcode(barcode)
	if err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			logger.L.Error("staleness check read failed", "barcode", barcode, "error", err)
		}
		return checkUnchanged
	}

	now := s.cfg.Now()
	if !product.IsStale(s.cfg.FreshnessWindow, now) {
		return checkFresh
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	verdict, err := s.classifier.CheckStatus(callCtx, product.Name, product.Ingredients, product.StatusLabel)
	if err != nil {
		// Non-fatal: keep the stored status, never downgrade on AI failure.
		logger.L.Warn("classification failed, status unchanged",
			"barcode", barcode, "error", err)
		return checkUnchanged
	}

	if verdict.Label == product.StatusLabel {
		// Same verdict; refresh the evaluation time so the next scans inside
		// the window skip the classifier.
		if err := s.products.RefreshEvaluatedAt(barcode, now); err != nil {
			logger.L.Warn("failed to refresh evaluation time", "barcode", barcode, "error", err)
		}
		return checkUnchanged
	}

	if err := s.products.UpdateStatus(barcode, verdict.Label, verdict.Explanation, now); err != nil {
		logger.L.Error("failed to store new status", "barcode", barcode, "error", err)
		return checkUnchanged
	}

	logger.L.Info("product status changed",
		"barcode", barcode, "old_label", product.StatusLabel, "new_label", verdict.Label)

	if s.hub != nil {
		s.hub.BroadcastJSON(map[string]interface{}{
			"type":        "status_update",
			"barcode":     barcode,
			"name":        product.Name,
			"old_label":   product.StatusLabel,
			"new_label":   verdict.Label,
			"explanation": verdict.Explanation,
		})
	}
	return checkUpdated
}
