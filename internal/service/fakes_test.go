package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-gluten-scan/internal/ai"
	"go-gluten-scan/internal/catalog"
	"go-gluten-scan/internal/model"
	"go-gluten-scan/internal/repository"
)

// fakeProductRepo is an in-memory ProductRepository with the same uniqueness
// semantics as the real one.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product

	createCalls  int
	updateCalls  int
	refreshCalls int

	createErr error
	findErr   error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*model.Product{}}
}

func (r *fakeProductRepo) put(p *model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.Barcode] = &cp
}

func (r *fakeProductRepo) get(barcode string) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[barcode]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (r *fakeProductRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}

func (r *fakeProductRepo) FindByBarcode(barcode string) (*model.Product, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	p := r.get(barcode)
	if p == nil {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) Create(product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.products[product.Barcode]; exists {
		return repository.ErrProductExists
	}
	cp := *product
	r.products[product.Barcode] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateStatus(barcode string, label model.StatusLabel, explanation string, evaluatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	p, ok := r.products[barcode]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.StatusLabel = label
	p.StatusExplanation = explanation
	p.LastEvaluatedAt = evaluatedAt
	return nil
}

func (r *fakeProductRepo) RefreshEvaluatedAt(barcode string, evaluatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshCalls++
	p, ok := r.products[barcode]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.LastEvaluatedAt = evaluatedAt
	return nil
}

func (r *fakeProductRepo) FindStale(olderThan time.Time, limit int) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if !p.LastEvaluatedAt.After(olderThan) && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeJournal struct {
	mu     sync.Mutex
	events []model.ScanEvent
	err    error
}

func (j *fakeJournal) Record(event *model.ScanEvent) error {
	if j.err != nil {
		return j.err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, *event)
	return nil
}

func (j *fakeJournal) FindByUser(userID uuid.UUID, limit int) ([]model.ScanEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []model.ScanEvent
	for _, ev := range j.events {
		if ev.UserID == userID && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (j *fakeJournal) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.events)
}

type fakeCatalog struct {
	mu         sync.Mutex
	candidates map[string]*catalog.Candidate
	err        error
	calls      int
}

func (c *fakeCatalog) Lookup(ctx context.Context, barcode string) (*catalog.Candidate, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if cand, ok := c.candidates[barcode]; ok {
		return cand, nil
	}
	return nil, catalog.ErrNotFound
}

type fakeTrigger struct {
	mu       sync.Mutex
	barcodes []string
}

func (t *fakeTrigger) Enqueue(barcode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.barcodes = append(t.barcodes, barcode)
	return true
}

func (t *fakeTrigger) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.barcodes)
}

type fakeClassifier struct {
	mu      sync.Mutex
	verdict *ai.Verdict
	err     error
	calls   int
}

func (c *fakeClassifier) CheckStatus(ctx context.Context, name string, ingredients []string, current model.StatusLabel) (*ai.Verdict, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.verdict, nil
}

func (c *fakeClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeExtractor struct {
	info  *ai.ProductInfo
	err   error
	calls int
}

func (e *fakeExtractor) ExtractProductInfo(ctx context.Context, images [][]byte, barcode string) (*ai.ProductInfo, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.info, nil
}

type fakeObjectStore struct {
	url   string
	err   error
	calls int
	paths []string
}

func (s *fakeObjectStore) Upload(ctx context.Context, data []byte, contentType, objectPath string) (string, error) {
	s.calls++
	s.paths = append(s.paths, objectPath)
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}
