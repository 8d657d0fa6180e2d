package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/despensa-app/despensa/internal/common"
)

// handleExportStock streams the stock workbook.
func (s *Server) handleExportStock(c *fiber.Ctx) error {
	if s.user(c) == "" {
		return common.ErrNoSession
	}

	raw, err := s.exporter.ExportStockXLSX(c.UserContext(), s.lowStockThreshold)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="stock.xlsx"`)
	return c.Send(raw)
}
