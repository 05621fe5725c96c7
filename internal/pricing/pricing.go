// Package pricing computes order totals. Every function here is pure: the
// same input always produces the same Quote, so the cashier UI can call it
// repeatedly for a live preview without committing anything.
package pricing

import "github.com/shopspring/decimal"

// Regulatory rates. PWD and senior-citizen sales get the statutory 20%
// discount, are VAT-exempt, and waive the service charge.
var (
	regulatoryDiscountRate = decimal.NewFromFloat(0.20)
	vatRate                = decimal.NewFromFloat(0.12)
	serviceChargeRate      = decimal.NewFromFloat(0.10)
	pesoPerPoint           = decimal.NewFromFloat(0.10)
	pesosPerPointEarned    = decimal.NewFromInt(10)
)

// DiscountKind selects the regulatory discount applied to the whole order.
type DiscountKind string

const (
	DiscountNone   DiscountKind = ""
	DiscountPWD    DiscountKind = "PWD"
	DiscountSenior DiscountKind = "SENIOR"
)

// OrderType mirrors the order_type enum; only dine-in carries a service
// charge.
type OrderType string

const (
	DineIn   OrderType = "DINE_IN"
	Takeout  OrderType = "TAKEOUT"
	Delivery OrderType = "DELIVERY"
)

// Line is one cart line as the calculator sees it.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int32
	Discount  decimal.Decimal // per-line discount, absolute
	Modifiers []decimal.Decimal
}

// Input is everything the calculator needs. CustomerPoints is the customer's
// available balance; zero when no customer is attached.
type Input struct {
	Lines           []Line
	OrderType       OrderType
	Discount        DiscountKind
	Tip             decimal.Decimal
	PointsRequested int32
	CustomerPoints  int32
	HasCustomer     bool
}

// Quote is the fully broken-down result. Each component is independently
// rounded to the whole currency unit before entering the next step, so the
// arithmetic is reproducible for audit.
type Quote struct {
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	Tax             decimal.Decimal
	ServiceCharge   decimal.Decimal
	Tip             decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	PointsRedeemed  int32
	Total           decimal.Decimal
}

// round snaps to the smallest currency unit (whole peso), half away from
// zero.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Compute runs the pricing pipeline:
// subtotal -> discount -> tax -> service charge -> tip -> loyalty -> total.
func Compute(in Input) Quote {
	subtotal := decimal.Zero
	for _, line := range in.Lines {
		qty := decimal.NewFromInt32(line.Quantity)
		lineTotal := line.UnitPrice.Mul(qty)
		for _, mod := range line.Modifiers {
			lineTotal = lineTotal.Add(mod.Mul(qty))
		}
		subtotal = subtotal.Add(lineTotal).Sub(line.Discount)
	}
	subtotal = round(subtotal)

	discountAmount := decimal.Zero
	if in.Discount == DiscountPWD || in.Discount == DiscountSenior {
		discountAmount = round(subtotal.Mul(regulatoryDiscountRate))
	}
	afterDiscount := subtotal.Sub(discountAmount)

	// Regulatory discounts are VAT-exempt and waive the service charge.
	tax := decimal.Zero
	serviceCharge := decimal.Zero
	if in.Discount == DiscountNone {
		tax = round(afterDiscount.Mul(vatRate))
		if in.OrderType == DineIn {
			serviceCharge = round(afterDiscount.Mul(serviceChargeRate))
		}
	}

	tip := round(in.Tip)
	if tip.IsNegative() {
		tip = decimal.Zero
	}

	redeemed := int32(0)
	loyaltyDiscount := decimal.Zero
	if in.HasCustomer && in.PointsRequested > 0 {
		redeemed = in.PointsRequested
		if in.CustomerPoints < redeemed {
			redeemed = in.CustomerPoints
		}
		if redeemed < 0 {
			redeemed = 0
		}
		loyaltyDiscount = round(decimal.NewFromInt32(redeemed).Mul(pesoPerPoint))
	}

	total := round(afterDiscount.Add(tax).Add(serviceCharge).Add(tip).Sub(loyaltyDiscount))
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal:        subtotal,
		DiscountAmount:  discountAmount,
		Tax:             tax,
		ServiceCharge:   serviceCharge,
		Tip:             tip,
		LoyaltyDiscount: loyaltyDiscount,
		PointsRedeemed:  redeemed,
		Total:           total,
	}
}

// PointsEarned is the loyalty accrual for a settled order: one point per ten
// pesos actually paid, excluding the part covered by redeemed points.
func PointsEarned(total decimal.Decimal) int32 {
	if total.IsNegative() {
		return 0
	}
	return int32(total.Div(pesosPerPointEarned).Floor().IntPart())
}
