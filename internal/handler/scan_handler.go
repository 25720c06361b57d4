package handler

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-gluten-scan/internal/catalog"
	"go-gluten-scan/internal/decoder"
	"go-gluten-scan/internal/repository"
	"go-gluten-scan/internal/service"
)

type ScanHandler struct {
	resolver service.ScanResolver
	sourcing service.CommunitySourcing
	journal  repository.ScanJournal
	decoder  decoder.Decoder
}

func NewScanHandler(
	resolver service.ScanResolver,
	sourcing service.CommunitySourcing,
	journal repository.ScanJournal,
	dec decoder.Decoder,
) *ScanHandler {
	return &ScanHandler{
		resolver: resolver,
		sourcing: sourcing,
		journal:  journal,
		decoder:  dec,
	}
}

// Helper to read the authenticated user from context (set by RequireAuth)
func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, errors.New("no user in context")
	}
	return uuid.Parse(raw)
}

type scanRequest struct {
	Barcode string `json:"barcode"`
}

// CreateScan resolves a barcode and records the scan.
func (h *ScanHandler) CreateScan(c *fiber.Ctx) error {
	var req scanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	userID, err := getUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid user identity"})
	}

	return h.resolveAndRespond(c, req.Barcode, userID)
}

// DecodeAndScan accepts a product photo, decodes the barcode server-side,
// then runs the same resolution flow.
func (h *ScanHandler) DecodeAndScan(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Missing image file"})
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Unreadable image file"})
	}

	barcode, err := h.decoder.Decode(data)
	if err != nil {
		if errors.Is(err, decoder.ErrBarcodeNotFound) {
			return c.Status(422).JSON(fiber.Map{"error": "No barcode detected in image"})
		}
		return c.Status(400).JSON(fiber.Map{"error": "Invalid image"})
	}

	userID, err := getUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid user identity"})
	}

	return h.resolveAndRespond(c, barcode, userID)
}

func (h *ScanHandler) resolveAndRespond(c *fiber.Ctx, barcode string, userID uuid.UUID) error {
	outcome, err := h.resolver.ResolveAndRecordScan(c.Context(), barcode, userID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBarcode) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		var upstream *catalog.UpstreamError
		if errors.As(err, &upstream) {
			// Transient catalog outage: tell the client to retry, do NOT
			// route it into the community image flow.
			return c.Status(502).JSON(fiber.Map{"error": "External catalog unavailable, please retry"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if outcome.Kind == service.OutcomeNeedsCommunityInput {
		return c.Status(404).JSON(outcome)
	}
	return c.JSON(outcome)
}

// SubmitImages accepts 4..8 packaging photos for a barcode neither catalog
// knows and builds the product from them.
func (h *ScanHandler) SubmitImages(c *fiber.Ctx) error {
	barcode := c.Params("barcode")

	userID, err := getUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid user identity"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid multipart form"})
	}

	var images [][]byte
	for _, fileHeader := range form.File["images"] {
		data, err := readMultipartFile(fileHeader)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Unreadable image file"})
		}
		images = append(images, data)
	}

	product, err := h.sourcing.SubmitImages(c.Context(), barcode, userID, images)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBarcode),
			errors.Is(err, service.ErrNotEnoughImages),
			errors.Is(err, service.ErrTooManyImages):
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(502).JSON(fiber.Map{"error": "Failed to process images, please retry"})
		}
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// GetScans returns the requesting user's scan history.
func (h *ScanHandler) GetScans(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid user identity"})
	}

	limit := c.QueryInt("limit", 50)
	events, err := h.journal.FindByUser(userID, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(events)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
