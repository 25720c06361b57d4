package repository

import (
	"errors"
	"time"

	"go-gluten-scan/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
)

// ProductReader is the lookup surface shared by every resolution component.
type ProductReader interface {
	FindByBarcode(barcode string) (*model.Product, error)
}

// ProductCreator is handed to the resolution components. They may create
// records but never touch the status of an existing one.
type ProductCreator interface {
	ProductReader
	Create(product *model.Product) error
}

// ProductStatusWriter is handed only to the staleness classifier; it is the
// single post-creation writer of the status fields.
type ProductStatusWriter interface {
	FindByBarcode(barcode string) (*model.Product, error)
	UpdateStatus(barcode string, label model.StatusLabel, explanation string, evaluatedAt time.Time) error
	RefreshEvaluatedAt(barcode string, evaluatedAt time.Time) error
	FindStale(olderThan time.Time, limit int) ([]model.Product, error)
}

// ProductRepository is the full surface, for wiring.
type ProductRepository interface {
	ProductCreator
	ProductStatusWriter
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) FindByBarcode(barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "barcode = ?", barcode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Create(product *model.Product) error {
	err := r.db.Create(product).Error
	if isUniqueViolation(err) {
		return ErrProductExists
	}
	return err
}

func (r *productRepo) UpdateStatus(barcode string, label model.StatusLabel, explanation string, evaluatedAt time.Time) error {
	res := r.db.Model(&model.Product{}).
		Where("barcode = ?", barcode).
		Updates(map[string]interface{}{
			"status_label":       label,
			"status_explanation": explanation,
			"last_evaluated_at":  evaluatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepo) RefreshEvaluatedAt(barcode string, evaluatedAt time.Time) error {
	res := r.db.Model(&model.Product{}).
		Where("barcode = ?", barcode).
		Update("last_evaluated_at", evaluatedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepo) FindStale(olderThan time.Time, limit int) ([]model.Product, error) {
	var products []model.Product
	// Inclusive: Product.IsStale treats age == window as stale, so the sweep
	// must pick up records sitting exactly on the boundary too.
	err := r.db.
		Where("last_evaluated_at <= ?", olderThan).
		Order("last_evaluated_at ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// isUniqueViolation detects the barcode uniqueness conflict raised when two
// resolutions race to create the same product.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
