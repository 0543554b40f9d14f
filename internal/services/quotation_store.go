package services

import (
	"context"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
)

// QuotationService persists quotation snapshots. Snapshots exist for
// display and export only; settlement totals are always recomputed live.
type QuotationService struct {
	db *gorm.DB
}

// NewQuotationService constructs QuotationService.
func NewQuotationService(db *gorm.DB) *QuotationService {
	return &QuotationService{db: db}
}

func (s *QuotationService) load(ctx context.Context, orderID string) (*models.Order, []models.SubOrder, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}
	var subOrders []models.SubOrder
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("date asc").
		Find(&subOrders).Error; err != nil {
		return nil, nil, err
	}
	return &order, subOrders, nil
}

// Current recomputes the breakdowns without persisting anything.
func (s *QuotationService) Current(ctx context.Context, orderID string) (*models.Quotation, []DataQualityWarning, error) {
	order, subOrders, err := s.load(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	client, partner, warnings := BuildQuotation(order, subOrders)
	quotation := &models.Quotation{
		OrderID: order.ID,
		Client:  datatypes.NewJSONType(client),
		Partner: datatypes.NewJSONType(partner),
	}
	return quotation, warnings, nil
}

// Snapshot recomputes the breakdowns and stores them as the order's active
// quotation. Older snapshots stay addressable but are not authoritative.
func (s *QuotationService) Snapshot(ctx context.Context, orderID string) (*models.Quotation, []DataQualityWarning, error) {
	quotation, warnings, err := s.Current(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quotation).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Update("quotation_id", quotation.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}

	for _, w := range warnings {
		log.Printf("[Quotation] data quality: %s", w)
	}
	return quotation, warnings, nil
}

// Get returns a stored snapshot by id.
func (s *QuotationService) Get(ctx context.Context, id string) (*models.Quotation, error) {
	var quotation models.Quotation
	if err := s.db.WithContext(ctx).First(&quotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}
