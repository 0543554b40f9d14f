package services

import (
	"github.com/shopspring/decimal"

	"github.com/example/tiffin/internal/models"
)

// Quotation calculation is pure: it reads sub-orders and order fees and
// produces breakdowns, flagging unresolvable food references as warnings
// instead of failing the whole pipeline.

// percentOf returns amount*pct/100 floored to a whole VND. Floor is used
// consistently everywhere so that displayed and ledgered totals never drift.
func percentOf(amount int64, pct float64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

// subOrderFoodTotal sums foodPrice x frequency across the sub-order's
// member selections. Selections pointing at a dish missing from the food
// snapshot contribute zero and yield a warning.
func subOrderFoodTotal(sub *models.SubOrder) (int64, []DataQualityWarning) {
	prices := make(map[string]int64, len(sub.FoodList.Data()))
	for _, f := range sub.FoodList.Data() {
		prices[f.FoodID] = f.FoodPrice
	}

	var total int64
	var warnings []DataQualityWarning
	for participantID, mo := range sub.MemberOrders.Data() {
		if mo.FoodID == "" {
			continue
		}
		price, ok := prices[mo.FoodID]
		if !ok {
			warnings = append(warnings, DataQualityWarning{
				OrderID:       sub.OrderID.String(),
				SubOrderDate:  sub.Date,
				ParticipantID: participantID,
				FoodID:        mo.FoodID,
				Reason:        "missing from food list snapshot",
			})
			continue
		}
		total += price
	}
	return total, warnings
}

// CalculateClientQuotation computes the whole-order breakdown the client is
// billed against: food totals across all sub-orders plus transport and
// platform service fees, VAT on the full total, minus any promotion.
func CalculateClientQuotation(subOrders []models.SubOrder, order *models.Order) (models.ClientBreakdown, []DataQualityWarning) {
	var foodTotal int64
	var warnings []DataQualityWarning
	for i := range subOrders {
		t, w := subOrderFoodTotal(&subOrders[i])
		foodTotal += t
		warnings = append(warnings, w...)
	}

	breakdown := models.ClientBreakdown{
		TotalPrice:   foodTotal,
		TransportFee: order.TransportFee,
		ServiceFee:   order.ClientServiceFee,
		Promotion:    order.PromotionAmount,
		PITOFee:      percentOf(foodTotal, order.PITOFeePercentage),
	}

	billable := foodTotal + breakdown.TransportFee + breakdown.ServiceFee + breakdown.PITOFee - breakdown.Promotion
	if billable < 0 {
		billable = 0
	}
	// Client-side VAT applies to the full billable total. Partner-side VAT
	// does not; see CalculatePartnerQuotation.
	breakdown.VATFee = percentOf(billable, order.VATPercentage)
	breakdown.TotalWithVAT = billable + breakdown.VATFee
	return breakdown, warnings
}

// CalculatePartnerQuotation computes one restaurant's slice: the given
// sub-orders' food total, the platform's service fee cut, and VAT. Per the
// modeled tax rule the service fee itself is not VAT-liable, so VAT applies
// to totalPrice - serviceFeePrice only, and the service fee is excluded from
// the VAT-added total.
func CalculatePartnerQuotation(subOrders []models.SubOrder, serviceFeePct, vatPct float64, date *int64) (models.PartnerBreakdown, []DataQualityWarning) {
	var totalPrice int64
	var warnings []DataQualityWarning
	for i := range subOrders {
		if date != nil && subOrders[i].Date != *date {
			continue
		}
		t, w := subOrderFoodTotal(&subOrders[i])
		totalPrice += t
		warnings = append(warnings, w...)
	}

	serviceFeePrice := percentOf(totalPrice, serviceFeePct)
	vatBase := totalPrice - serviceFeePrice
	vatFee := percentOf(vatBase, vatPct)

	return models.PartnerBreakdown{
		TotalPrice:      totalPrice,
		ServiceFee:      serviceFeePct,
		ServiceFeePrice: serviceFeePrice,
		VATFee:          vatFee,
		TotalWithVAT:    totalPrice + vatFee,
	}, warnings
}

// BuildQuotation recomputes the full snapshot document for an order: one
// client breakdown plus a partner breakdown per (restaurant, date).
func BuildQuotation(order *models.Order, subOrders []models.SubOrder) (models.ClientBreakdown, map[string]map[int64]models.PartnerBreakdown, []DataQualityWarning) {
	client, warnings := CalculateClientQuotation(subOrders, order)

	serviceFees := order.ServiceFees.Data()
	partner := make(map[string]map[int64]models.PartnerBreakdown)
	for i := range subOrders {
		sub := &subOrders[i]
		if _, ok := partner[sub.RestaurantID]; !ok {
			partner[sub.RestaurantID] = make(map[int64]models.PartnerBreakdown)
		}
		// Warnings were already collected by the client pass above.
		breakdown, _ := CalculatePartnerQuotation(subOrders[i:i+1], serviceFees[sub.RestaurantID], order.VATPercentage, nil)
		partner[sub.RestaurantID][sub.Date] = breakdown
	}
	return client, partner, warnings
}
