package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tiffin/internal/services"
)

// QuotationHandler exposes the quotation calculator: live views, frozen
// snapshots, and spreadsheet export.
type QuotationHandler struct {
	quotations *services.QuotationService
	export     *services.ExportService
}

// NewQuotationHandler constructs QuotationHandler.
func NewQuotationHandler(quotations *services.QuotationService, export *services.ExportService) *QuotationHandler {
	return &QuotationHandler{quotations: quotations, export: export}
}

// CurrentQuotation computes the quotation from the order's present state
// without persisting anything.
func (h *QuotationHandler) CurrentQuotation(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	quotation, warnings, err := h.quotations.Current(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     quotation,
		"warnings": warningStrings(warnings),
	})
}

// SnapshotQuotation freezes the current quotation and links it to the order.
func (h *QuotationHandler) SnapshotQuotation(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	quotation, warnings, err := h.quotations.Snapshot(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"data":     quotation,
		"warnings": warningStrings(warnings),
	})
}

// GetQuotation returns a stored quotation snapshot by id.
func (h *QuotationHandler) GetQuotation(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("quotationId")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	quotation, err := h.quotations.Get(c.Context(), c.Params("quotationId"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": quotation})
}

// ExportQuotation streams the quotation workbook as an xlsx download.
func (h *QuotationHandler) ExportQuotation(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	buf, orderCode, err := h.export.QuotationWorkbook(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="quotation-%s.xlsx"`, orderCode))
	return c.Send(buf.Bytes())
}

func warningStrings(warnings []services.DataQualityWarning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
