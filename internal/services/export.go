package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// ExportService renders quotation workbooks for the admin console: one
// client sheet for the whole order plus one sheet per partner restaurant.
type ExportService struct {
	quotations *QuotationService
}

// NewExportService constructs ExportService.
func NewExportService(quotations *QuotationService) *ExportService {
	return &ExportService{quotations: quotations}
}

// QuotationWorkbook recomputes the order's quotation and writes it to an
// xlsx workbook. The order code is returned for the download filename.
func (s *ExportService) QuotationWorkbook(ctx context.Context, orderID string) (*bytes.Buffer, string, error) {
	order, subOrders, err := s.quotations.load(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	client, partner, _ := BuildQuotation(order, subOrders)

	f := excelize.NewFile()
	defer f.Close()

	const clientSheet = "Client"
	if err := f.SetSheetName("Sheet1", clientSheet); err != nil {
		return nil, "", err
	}
	if err := writeClientSheet(f, clientSheet, order, client); err != nil {
		return nil, "", err
	}

	restaurantNames := make(map[string]string, len(subOrders))
	for i := range subOrders {
		restaurantNames[subOrders[i].RestaurantID] = subOrders[i].RestaurantName
	}

	partnerIDs := make([]string, 0, len(partner))
	for id := range partner {
		partnerIDs = append(partnerIDs, id)
	}
	sort.Strings(partnerIDs)

	for _, partnerID := range partnerIDs {
		name := restaurantNames[partnerID]
		if name == "" {
			name = partnerID
		}
		if err := writePartnerSheet(f, name, partner[partnerID]); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf, order.Code, nil
}

func writeClientSheet(f *excelize.File, sheet string, order *models.Order, b models.ClientBreakdown) error {
	rows := [][]any{
		{"Order", order.Code},
		{"Company", order.CompanyName},
		{},
		{"Food total", b.TotalPrice},
		{"Transport fee", b.TransportFee},
		{"Service fee", b.ServiceFee},
		{"PITO fee", b.PITOFee},
		{"Promotion", -b.Promotion},
		{fmt.Sprintf("VAT (%.0f%%)", order.VATPercentage), b.VATFee},
		{"Total with VAT", b.TotalWithVAT},
	}
	return writeRows(f, sheet, rows)
}

func writePartnerSheet(f *excelize.File, sheet string, byDate map[int64]models.PartnerBreakdown) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	dates := make([]int64, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	rows := [][]any{
		{"Date", "Food total", "Service fee price", "VAT fee", "Total with VAT"},
	}
	var totalPrice, totalVAT, totalWithVAT int64
	for _, d := range dates {
		b := byDate[d]
		rows = append(rows, []any{
			utils.FormatBusinessDate(d), b.TotalPrice, b.ServiceFeePrice, b.VATFee, b.TotalWithVAT,
		})
		totalPrice += b.TotalPrice
		totalVAT += b.VATFee
		totalWithVAT += b.TotalWithVAT
	}
	rows = append(rows, []any{"Total", totalPrice, "", totalVAT, totalWithVAT})

	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
