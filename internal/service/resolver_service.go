package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-gluten-scan/internal/catalog"
	"go-gluten-scan/internal/model"
	"go-gluten-scan/internal/repository"
	"go-gluten-scan/pkg/logger"
	"go-gluten-scan/pkg/validator"
)

// StalenessTrigger is how the resolver hands a resolved barcode to the
// background classifier. Enqueue must never block the scan path.
type StalenessTrigger interface {
	Enqueue(barcode string) bool
}

// ScanResolver runs the resolution cascade for a barcode and journals the
// scan on success.
type ScanResolver interface {
	ResolveAndRecordScan(ctx context.Context, barcode string, userID uuid.UUID) (*ResolutionOutcome, error)
}

type scanResolver struct {
	products repository.ProductCreator
	journal  repository.ScanJournal
	external catalog.Client
	stale    StalenessTrigger
	now      func() time.Time
}

func NewScanResolver(
	products repository.ProductCreator,
	journal repository.ScanJournal,
	external catalog.Client,
	stale StalenessTrigger,
) ScanResolver {
	return &scanResolver{
		products: products,
		journal:  journal,
		external: external,
		stale:    stale,
		now:      time.Now,
	}
}

// ResolveAndRecordScan tries the local catalog, then the external catalog.
// On a hit it journals exactly one scan event and triggers the staleness
// check; on a double miss it reports needs_community_input without touching
// the journal. Upstream failures of the external catalog surface as errors,
// never as needs_community_input.
func (s *scanResolver) ResolveAndRecordScan(ctx context.Context, barcode string, userID uuid.UUID) (*ResolutionOutcome, error) {
	if barcode == "" {
		return nil, ErrEmptyBarcode
	}

	outcome, err := s.resolve(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if outcome.Kind == OutcomeNeedsCommunityInput {
		return outcome, nil
	}

	// Product creation (if any) committed above; the journal entry follows,
	// then the detached staleness check.
	event := &model.ScanEvent{
		UserID:    userID,
		Barcode:   barcode,
		ScannedAt: s.now(),
	}
	if errs := validator.ValidateStruct(event); len(errs) > 0 {
		return nil, fmt.Errorf("invalid scan event: field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
	}
	if err := s.journal.Record(event); err != nil {
		return nil, err
	}

	if !s.stale.Enqueue(barcode) {
		logger.L.Warn("staleness queue full, skipping check", "barcode", barcode)
	}
	return outcome, nil
}

func (s *scanResolver) resolve(ctx context.Context, barcode string) (*ResolutionOutcome, error) {
	// Step 1: local catalog.
	product, err := s.products.FindByBarcode(barcode)
	if err == nil {
		return &ResolutionOutcome{Kind: OutcomeFoundLocal, Barcode: barcode, Product: product}, nil
	}
	if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, err
	}

	// Step 2: external catalog.
	candidate, err := s.external.Lookup(ctx, barcode)
	if errors.Is(err, catalog.ErrNotFound) {
		return &ResolutionOutcome{Kind: OutcomeNeedsCommunityInput, Barcode: barcode}, nil
	}
	if err != nil {
		return nil, err
	}

	product = &model.Product{
		Barcode:         candidate.Barcode,
		Name:            candidate.Name,
		Ingredients:     candidate.Ingredients,
		PictureURL:      candidate.PictureURL,
		Source:          model.SourceExternalCatalog,
		StatusLabel:     model.StatusUnknown,
		LastEvaluatedAt: s.now(),
	}
	if err := s.products.Create(product); err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			// A concurrent resolution won the create; discard our candidate
			// and use the stored record.
			existing, readErr := s.products.FindByBarcode(barcode)
			if readErr != nil {
				return nil, readErr
			}
			return &ResolutionOutcome{Kind: OutcomeFoundLocal, Barcode: barcode, Product: existing}, nil
		}
		return nil, err
	}
	return &ResolutionOutcome{Kind: OutcomeFoundExternal, Barcode: barcode, Product: product}, nil
}
