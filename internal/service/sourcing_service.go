package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-gluten-scan/internal/ai"
	"go-gluten-scan/internal/model"
	"go-gluten-scan/internal/repository"
	"go-gluten-scan/internal/storage"
	"go-gluten-scan/pkg/logger"
)

// DefaultCommunityName is used when the extractor cannot read a product name
// from any of the photos.
const DefaultCommunityName = "Unknown Product (from AI)"

// SourcingConfig bounds the community image submission.
type SourcingConfig struct {
	MinImages int
	MaxImages int
}

// CommunitySourcing builds a product from user-submitted packaging photos
// when no catalog has the barcode.
type CommunitySourcing interface {
	SubmitImages(ctx context.Context, barcode string, userID uuid.UUID, images [][]byte) (*model.Product, error)
}

type communitySourcing struct {
	products  repository.ProductCreator
	extractor ai.Extractor
	store     storage.ObjectStore
	cfg       SourcingConfig
	now       func() time.Time
}

func NewCommunitySourcing(
	products repository.ProductCreator,
	extractor ai.Extractor,
	store storage.ObjectStore,
	cfg SourcingConfig,
) CommunitySourcing {
	return &communitySourcing{
		products:  products,
		extractor: extractor,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SubmitImages validates the image count, extracts name/ingredients, uploads
// the representative photo, and creates the product with status unknown. The
// operation is atomic: any extraction or upload failure leaves no record, so
// the caller can retry with the same images.
func (s *communitySourcing) SubmitImages(ctx context.Context, barcode string, userID uuid.UUID, images [][]byte) (*model.Product, error) {
	if barcode == "" {
		return nil, ErrEmptyBarcode
	}
	if len(images) < s.cfg.MinImages {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrNotEnoughImages, len(images), s.cfg.MinImages)
	}
	if len(images) > s.cfg.MaxImages {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyImages, len(images), s.cfg.MaxImages)
	}

	info, err := s.extractor.ExtractProductInfo(ctx, images, barcode)
	if err != nil {
		return nil, fmt.Errorf("extract product info: %w", err)
	}

	name := info.Name
	if name == "" {
		name = DefaultCommunityName
	}
	ingredients := info.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}

	objectPath := fmt.Sprintf("community/%s/%s.jpg", barcode, uuid.New())
	pictureURL, err := s.store.Upload(ctx, images[0], "image/jpeg", objectPath)
	if err != nil {
		return nil, fmt.Errorf("upload representative image: %w", err)
	}

	now := s.now()
	product := &model.Product{
		Barcode:           barcode,
		Name:              name,
		Ingredients:       ingredients,
		PictureURL:        pictureURL,
		Source:            model.SourceCommunity,
		StatusLabel:       model.StatusUnknown,
		StatusExplanation: "Awaiting first classification",
		LastEvaluatedAt:   now,
	}
	if err := s.products.Create(product); err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			// Someone else created the record while we were extracting.
			// Discard our candidate and hand back the stored one.
			logger.L.Info("community candidate discarded, product already exists", "barcode", barcode)
			return s.products.FindByBarcode(barcode)
		}
		return nil, err
	}

	logger.L.Info("community product created",
		"barcode", barcode, "user_id", userID, "name", name, "images", len(images))
	return product, nil
}
