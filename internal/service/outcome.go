package service

import (
	"errors"

	"go-gluten-scan/internal/model"
)

// OutcomeKind tags how a resolution attempt ended.
type OutcomeKind string

const (
	// OutcomeFoundLocal: the local catalog already had the product.
	OutcomeFoundLocal OutcomeKind = "found_local"
	// OutcomeFoundExternal: the external catalog had it; a record was created.
	OutcomeFoundExternal OutcomeKind = "found_external"
	// OutcomeNeedsCommunityInput: the cascade exhausted; the caller must
	// collect images and submit them before rescanning.
	OutcomeNeedsCommunityInput OutcomeKind = "needs_community_input"
)

// ResolutionOutcome is the per-attempt result of the resolution cascade.
// Product is nil iff Kind is OutcomeNeedsCommunityInput.
type ResolutionOutcome struct {
	Kind    OutcomeKind    `json:"outcome"`
	Barcode string         `json:"barcode"`
	Product *model.Product `json:"product,omitempty"`
}

var (
	ErrEmptyBarcode = errors.New("barcode must not be empty")

	// ErrNotEnoughImages / ErrTooManyImages are the validation failures of
	// the community sourcing flow; nothing is called before they surface.
	ErrNotEnoughImages = errors.New("not enough images submitted")
	ErrTooManyImages   = errors.New("too many images submitted")
)
