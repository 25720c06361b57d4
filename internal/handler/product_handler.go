package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"go-gluten-scan/internal/repository"
)

type ProductHandler struct {
	products repository.ProductReader
}

func NewProductHandler(products repository.ProductReader) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	barcode := c.Params("barcode")

	product, err := h.products.FindByBarcode(barcode)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(product)
}
