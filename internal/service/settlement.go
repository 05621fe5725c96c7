package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/enum"
	"github.com/kusina-pos/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// paymentTolerance is how far the payment sum may drift from the computed
// total before settlement is rejected.
var paymentTolerance = decimal.NewFromFloat(0.01)

// Errors returned by the settlement service.
var (
	ErrEmptyLines             = errors.New("lines are required")
	ErrInvalidOrderType       = errors.New("invalid order_type")
	ErrInvalidQuantity        = errors.New("quantity must be >= 1")
	ErrMissingDescription     = errors.New("description is required for ad-hoc lines")
	ErrInvalidUnitPrice       = errors.New("invalid unit_price")
	ErrInvalidLineDiscount    = errors.New("invalid line discount")
	ErrInvalidModifierPrice   = errors.New("invalid modifier price")
	ErrInvalidProductID       = errors.New("invalid product_id")
	ErrInvalidVariantID       = errors.New("invalid variant_id")
	ErrProductNotFound        = errors.New("product not found in branch")
	ErrVariantNotFound        = errors.New("variant not found")
	ErrVariantMismatch        = errors.New("variant does not belong to product")
	ErrInvalidDiscountKind    = errors.New("invalid discount kind")
	ErrMissingDiscountProof   = errors.New("discount requires an ID number and a verifying employee")
	ErrInvalidVerifierID      = errors.New("invalid verifier id")
	ErrInvalidCustomerID      = errors.New("invalid customer_id")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrInvalidServerID        = errors.New("invalid server_id")
	ErrInvalidTableID         = errors.New("invalid table_id")
	ErrTableNotFound          = errors.New("table not found")
	ErrMissingDeliveryContact = errors.New("delivery orders require contact and address")
	ErrInvalidTip             = errors.New("invalid tip amount")
	ErrInvalidPoints          = errors.New("points_requested must be >= 0")
	ErrNoPayments             = errors.New("payments are required")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidPaymentAmount   = errors.New("payment amount must be positive")
	ErrPaymentMismatch        = errors.New("payments do not sum to the order total")
)

// SettlementStore defines the DB methods the coordinator needs.
// Satisfied by *database.Queries (and its WithTx variant).
type SettlementStore interface {
	GetProductForSale(ctx context.Context, arg database.GetProductForSaleParams) (database.Product, error)
	GetVariantForSale(ctx context.Context, id uuid.UUID) (database.ProductVariant, error)
	GetCustomerForUpdate(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error)
	GetOpenDrawerSession(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error)
	IncrementFiscalCounter(ctx context.Context, arg database.IncrementFiscalCounterParams) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	CreateOrderLineModifier(ctx context.Context, arg database.CreateOrderLineModifierParams) (database.OrderLineModifier, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	CreateAuditEntry(ctx context.Context, arg database.CreateAuditEntryParams) (database.AuditEntry, error)
	CreateExportPayload(ctx context.Context, arg database.CreateExportPayloadParams) (database.ExportPayload, error)
	AdjustProductStock(ctx context.Context, arg database.AdjustStockParams) error
	AdjustVariantStock(ctx context.Context, arg database.AdjustStockParams) error
	SettleCustomerLoyalty(ctx context.Context, arg database.SettleCustomerLoyaltyParams) (database.Customer, error)
	AddEmployeeSales(ctx context.Context, arg database.AdjustEmployeeAmountParams) error
	AddEmployeeTips(ctx context.Context, arg database.AdjustEmployeeAmountParams) error
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.DiningTable, error)
}

// NewSettlementStore creates a SettlementStore from a DBTX (pool or tx).
type NewSettlementStore func(db database.DBTX) SettlementStore

// SettleRequest is the validated input for settling a cart.
type SettleRequest struct {
	BranchID         uuid.UUID
	SettledBy        uuid.UUID
	OrderType        string
	DiscountKind     string // "" | PWD | SENIOR
	DiscountIDNumber string
	VerifiedBy       string
	CustomerID       string
	ServerID         string
	TableID          string
	Tip              string
	PointsRequested  int32
	Notes            string
	DeliveryContact  string
	DeliveryAddress  string
	Lines            []SettleLine
	Payments         []SettlePayment
}

// SettleLine is one cart line. ProductID may be empty for ad-hoc items, in
// which case Description and UnitPrice are required.
type SettleLine struct {
	ProductID    string
	VariantID    string
	Description  string
	UnitPrice    string
	Quantity     int32
	LineDiscount string
	Instructions string
	Modifiers    []SettleModifier
}

// SettleModifier is a selected modifier with its own price.
type SettleModifier struct {
	Name  string
	Price string
}

// SettlePayment is one payment-method slice of the total.
type SettlePayment struct {
	Method string
	Amount string
}

// SettleResult is the persisted order with its lines and payments.
type SettleResult struct {
	Order    database.Order
	Lines    []SettledLine
	Payments []database.Payment
}

// SettledLine is a line with its modifiers.
type SettledLine struct {
	Line      database.OrderLine
	Modifiers []database.OrderLineModifier
}

// SettlementService converts carts into sequence-numbered, immutable ledger
// entries and propagates every dependent effect in the same transaction.
type SettlementService struct {
	pool     TxBeginner
	newStore NewSettlementStore
}

func NewSettlementService(pool TxBeginner, newStore NewSettlementStore) *SettlementService {
	return &SettlementService{pool: pool, newStore: newStore}
}

// resolvedLine is a priced line ready to insert.
type resolvedLine struct {
	params        database.CreateOrderLineParams
	modifiers     []database.CreateOrderLineModifierParams
	productID     pgtype.UUID
	variantID     pgtype.UUID
	variantTracks bool
	quantity      int32
	pricing       pricing.Line
}

// Settle validates the cart, prices it, and persists the order together with
// the audit entry, export payload, stock depletion, loyalty accrual,
// commissions and table occupancy as one atomic unit of work. Any failure
// before commit rolls back the fiscal counter increment too, keeping the
// invoice sequence gap-free.
func (s *SettlementService) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	if len(req.Payments) == 0 {
		return nil, ErrNoPayments
	}
	if req.PointsRequested < 0 {
		return nil, ErrInvalidPoints
	}

	discount, err := validateDiscountKind(req.DiscountKind)
	if err != nil {
		return nil, err
	}
	verifiedBy := pgtype.UUID{}
	if discount != pricing.DiscountNone {
		// Regulatory discounts need the beneficiary's ID number and the
		// employee who sighted it.
		if req.DiscountIDNumber == "" || req.VerifiedBy == "" {
			return nil, ErrMissingDiscountProof
		}
		vid, err := uuid.Parse(req.VerifiedBy)
		if err != nil {
			return nil, ErrInvalidVerifierID
		}
		verifiedBy = pgtype.UUID{Bytes: vid, Valid: true}
	}

	if req.OrderType == enum.OrderTypeDelivery {
		if req.DeliveryContact == "" || req.DeliveryAddress == "" {
			return nil, ErrMissingDeliveryContact
		}
	}

	tip := decimal.Zero
	if req.Tip != "" {
		tip, err = decimal.NewFromString(req.Tip)
		if err != nil || tip.IsNegative() {
			return nil, ErrInvalidTip
		}
	}

	payments, paymentSum, err := parsePayments(req.Payments)
	if err != nil {
		return nil, err
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	lines, err := s.resolveLines(ctx, store, req)
	if err != nil {
		return nil, err
	}

	// Lock the customer row before reading the balance so concurrent
	// settlements cannot double-spend points.
	customerID := pgtype.UUID{}
	customerPoints := int32(0)
	hasCustomer := false
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customer, err := store.GetCustomerForUpdate(ctx, database.GetCustomerParams{
			ID:       cid,
			BranchID: req.BranchID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("get customer: %w", err)
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
		customerPoints = customer.LoyaltyPoints
		hasCustomer = true
	}

	serverID := pgtype.UUID{}
	if req.ServerID != "" {
		sid, err := uuid.Parse(req.ServerID)
		if err != nil {
			return nil, ErrInvalidServerID
		}
		serverID = pgtype.UUID{Bytes: sid, Valid: true}
	}

	tableID := pgtype.UUID{}
	if req.OrderType == enum.OrderTypeDineIn && req.TableID != "" {
		tid, err := uuid.Parse(req.TableID)
		if err != nil {
			return nil, ErrInvalidTableID
		}
		if _, err := store.GetTable(ctx, database.GetTableParams{ID: tid, BranchID: req.BranchID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		tableID = pgtype.UUID{Bytes: tid, Valid: true}
	}

	// --- Price the cart ---
	pricingLines := make([]pricing.Line, len(lines))
	for i, l := range lines {
		pricingLines[i] = l.pricing
	}
	quote := pricing.Compute(pricing.Input{
		Lines:           pricingLines,
		OrderType:       pricing.OrderType(req.OrderType),
		Discount:        discount,
		Tip:             tip,
		PointsRequested: req.PointsRequested,
		CustomerPoints:  customerPoints,
		HasCustomer:     hasCustomer,
	})

	// Reject before the counter is touched: a payment mismatch must leave
	// no trace, not even a consumed invoice number.
	if paymentSum.Sub(quote.Total).Abs().GreaterThan(paymentTolerance) {
		return nil, fmt.Errorf("%w: paid %s, total %s", ErrPaymentMismatch,
			paymentSum.StringFixed(2), quote.Total.StringFixed(2))
	}

	// --- Step 1: issue the invoice number ---
	invoiceNumber, err := store.IncrementFiscalCounter(ctx, database.IncrementFiscalCounterParams{
		BranchID: req.BranchID,
		Amount:   decimalToNumeric(quote.Total),
	})
	if err != nil {
		return nil, fmt.Errorf("increment fiscal counter: %w", err)
	}

	// Link to the open drawer session, if any.
	drawerSessionID := pgtype.UUID{}
	session, err := store.GetOpenDrawerSession(ctx, req.BranchID)
	if err == nil {
		drawerSessionID = pgtype.UUID{Bytes: session.ID, Valid: true}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get open drawer session: %w", err)
	}

	pointsEarned := int32(0)
	if hasCustomer {
		pointsEarned = pricing.PointsEarned(quote.Total)
	}

	// --- Step 2: persist the order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		BranchID:         req.BranchID,
		InvoiceNumber:    invoiceNumber,
		OrderType:        req.OrderType,
		DiscountKind:     textOrNull(req.DiscountKind),
		DiscountIDNumber: textOrNull(req.DiscountIDNumber),
		VerifiedBy:       verifiedBy,
		CustomerID:       customerID,
		ServerID:         serverID,
		TableID:          tableID,
		SettledBy:        req.SettledBy,
		DrawerSessionID:  drawerSessionID,
		Subtotal:         decimalToNumeric(quote.Subtotal),
		DiscountAmount:   decimalToNumeric(quote.DiscountAmount),
		TaxAmount:        decimalToNumeric(quote.Tax),
		ServiceCharge:    decimalToNumeric(quote.ServiceCharge),
		TipAmount:        decimalToNumeric(quote.Tip),
		LoyaltyDiscount:  decimalToNumeric(quote.LoyaltyDiscount),
		TotalAmount:      decimalToNumeric(quote.Total),
		PointsEarned:     pointsEarned,
		PointsRedeemed:   quote.PointsRedeemed,
		DeliveryContact:  textOrNull(req.DeliveryContact),
		DeliveryAddress:  textOrNull(req.DeliveryAddress),
		Notes:            textOrNull(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var lineResults []SettledLine
	for _, rl := range lines {
		rl.params.OrderID = order.ID
		line, err := store.CreateOrderLine(ctx, rl.params)
		if err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		var modResults []database.OrderLineModifier
		for _, mp := range rl.modifiers {
			mp.OrderLineID = line.ID
			mod, err := store.CreateOrderLineModifier(ctx, mp)
			if err != nil {
				return nil, fmt.Errorf("create order line modifier: %w", err)
			}
			modResults = append(modResults, mod)
		}
		lineResults = append(lineResults, SettledLine{Line: line, Modifiers: modResults})
	}

	var paymentResults []database.Payment
	for _, p := range payments {
		payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID: order.ID,
			Method:  p.method,
			Amount:  decimalToNumeric(p.amount),
		})
		if err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
		paymentResults = append(paymentResults, payment)
	}

	// --- Step 3: audit trail ---
	detail, _ := json.Marshal(map[string]any{
		"invoice_number": invoiceNumber,
		"subtotal":       quote.Subtotal.StringFixed(2),
		"discount":       quote.DiscountAmount.StringFixed(2),
		"tax":            quote.Tax.StringFixed(2),
		"service_charge": quote.ServiceCharge.StringFixed(2),
		"tip":            quote.Tip.StringFixed(2),
		"payments":       paymentBreakdown(payments),
	})
	if _, err := store.CreateAuditEntry(ctx, database.CreateAuditEntryParams{
		BranchID: req.BranchID,
		ActorID:  req.SettledBy,
		Action:   enum.AuditActionSettle,
		OrderID:  pgtype.UUID{Bytes: order.ID, Valid: true},
		Amount:   decimalToNumeric(quote.Total),
		Detail:   detail,
	}); err != nil {
		return nil, fmt.Errorf("create audit entry: %w", err)
	}

	// --- Step 4: enqueue the tax-authority export ---
	exportPayload, _ := json.Marshal(map[string]any{
		"invoice_number": invoiceNumber,
		"branch_id":      req.BranchID,
		"order_id":       order.ID,
		"gross":          quote.Subtotal.StringFixed(2),
		"discount_kind":  req.DiscountKind,
		"discount":       quote.DiscountAmount.StringFixed(2),
		"vat":            quote.Tax.StringFixed(2),
		"service_charge": quote.ServiceCharge.StringFixed(2),
		"net":            quote.Total.StringFixed(2),
		"settled_at":     order.CreatedAt,
	})
	if _, err := store.CreateExportPayload(ctx, database.CreateExportPayloadParams{
		OrderID:  order.ID,
		BranchID: req.BranchID,
		Payload:  exportPayload,
	}); err != nil {
		return nil, fmt.Errorf("create export payload: %w", err)
	}

	// --- Steps 5-8: dependent effects, same atomic boundary ---
	for _, rl := range lines {
		if err := depleteStock(ctx, store, rl); err != nil {
			return nil, err
		}
	}

	if hasCustomer {
		if _, err := store.SettleCustomerLoyalty(ctx, database.SettleCustomerLoyaltyParams{
			ID:           uuid.UUID(customerID.Bytes),
			EarnPoints:   pointsEarned,
			RedeemPoints: quote.PointsRedeemed,
			Spent:        decimalToNumeric(quote.Total),
		}); err != nil {
			return nil, fmt.Errorf("settle customer loyalty: %w", err)
		}
	}

	if err := store.AddEmployeeSales(ctx, database.AdjustEmployeeAmountParams{
		ID:     req.SettledBy,
		Amount: decimalToNumeric(quote.Total),
	}); err != nil {
		return nil, fmt.Errorf("add employee sales: %w", err)
	}

	if serverID.Valid && quote.Tip.IsPositive() {
		if err := store.AddEmployeeTips(ctx, database.AdjustEmployeeAmountParams{
			ID:     uuid.UUID(serverID.Bytes),
			Amount: decimalToNumeric(quote.Tip),
		}); err != nil {
			return nil, fmt.Errorf("add employee tips: %w", err)
		}
	}

	if tableID.Valid {
		if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			ID:             uuid.UUID(tableID.Bytes),
			Status:         enum.TableStatusOccupied,
			CurrentOrderID: pgtype.UUID{Bytes: order.ID, Valid: true},
		}); err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &SettleResult{
		Order:    order,
		Lines:    lineResults,
		Payments: paymentResults,
	}, nil
}

// resolveLines validates each cart line and prices it from the catalog (or
// from the ad-hoc unit price).
func (s *SettlementService) resolveLines(ctx context.Context, store SettlementStore, req SettleRequest) ([]resolvedLine, error) {
	var lines []resolvedLine
	for i, item := range req.Lines {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}

		var (
			unitPrice     decimal.Decimal
			description   = item.Description
			productID     pgtype.UUID
			variantID     pgtype.UUID
			variantTracks bool
		)

		if item.ProductID != "" {
			pid, err := uuid.Parse(item.ProductID)
			if err != nil {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidProductID)
			}
			product, err := store.GetProductForSale(ctx, database.GetProductForSaleParams{
				ID:       pid,
				BranchID: req.BranchID,
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("lines[%d]: %w", i, ErrProductNotFound)
				}
				return nil, fmt.Errorf("lines[%d]: get product: %w", i, err)
			}
			productID = pgtype.UUID{Bytes: pid, Valid: true}
			unitPrice = numericToDecimal(product.BasePrice)
			if description == "" {
				description = product.Name
			}

			if item.VariantID != "" {
				vid, err := uuid.Parse(item.VariantID)
				if err != nil {
					return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidVariantID)
				}
				variant, err := store.GetVariantForSale(ctx, vid)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return nil, fmt.Errorf("lines[%d]: %w", i, ErrVariantNotFound)
					}
					return nil, fmt.Errorf("lines[%d]: get variant: %w", i, err)
				}
				if variant.ProductID != pid {
					return nil, fmt.Errorf("lines[%d]: %w", i, ErrVariantMismatch)
				}
				variantID = pgtype.UUID{Bytes: vid, Valid: true}
				variantTracks = variant.TrackStock
				unitPrice = unitPrice.Add(numericToDecimal(variant.PriceAdjustment))
				description = description + " (" + variant.Name + ")"
			}
		} else {
			// Ad-hoc line: no catalog reference, price comes from the cart.
			if description == "" {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrMissingDescription)
			}
			var err error
			unitPrice, err = decimal.NewFromString(item.UnitPrice)
			if err != nil || unitPrice.IsNegative() {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidUnitPrice)
			}
		}

		lineDiscount := decimal.Zero
		if item.LineDiscount != "" {
			var err error
			lineDiscount, err = decimal.NewFromString(item.LineDiscount)
			if err != nil || lineDiscount.IsNegative() {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidLineDiscount)
			}
		}

		var modParams []database.CreateOrderLineModifierParams
		var modPrices []decimal.Decimal
		for j, mod := range item.Modifiers {
			price, err := decimal.NewFromString(mod.Price)
			if err != nil || price.IsNegative() {
				return nil, fmt.Errorf("lines[%d].modifiers[%d]: %w", i, j, ErrInvalidModifierPrice)
			}
			modParams = append(modParams, database.CreateOrderLineModifierParams{
				Name:  mod.Name,
				Price: decimalToNumeric(price),
			})
			modPrices = append(modPrices, price)
		}

		lines = append(lines, resolvedLine{
			params: database.CreateOrderLineParams{
				ProductID:    productID,
				VariantID:    variantID,
				Description:  description,
				UnitPrice:    decimalToNumeric(unitPrice),
				Quantity:     item.Quantity,
				LineDiscount: decimalToNumeric(lineDiscount),
				Instructions: textOrNull(item.Instructions),
			},
			modifiers:     modParams,
			productID:     productID,
			variantID:     variantID,
			variantTracks: variantTracks,
			quantity:      item.Quantity,
			pricing: pricing.Line{
				UnitPrice: unitPrice,
				Quantity:  item.Quantity,
				Discount:  lineDiscount,
				Modifiers: modPrices,
			},
		})
	}
	return lines, nil
}

// depleteStock decrements inventory for a catalog-backed line. A stock-tracked
// variant depletes its own count, otherwise the parent product's. Ad-hoc lines
// have nothing to deplete.
func depleteStock(ctx context.Context, store SettlementStore, rl resolvedLine) error {
	if rl.variantID.Valid && rl.variantTracks {
		if err := store.AdjustVariantStock(ctx, database.AdjustStockParams{
			ID:    uuid.UUID(rl.variantID.Bytes),
			Delta: -rl.quantity,
		}); err != nil {
			return fmt.Errorf("deplete variant stock: %w", err)
		}
		return nil
	}
	if rl.productID.Valid {
		if err := store.AdjustProductStock(ctx, database.AdjustStockParams{
			ID:    uuid.UUID(rl.productID.Bytes),
			Delta: -rl.quantity,
		}); err != nil {
			return fmt.Errorf("deplete product stock: %w", err)
		}
	}
	return nil
}

// --- Helpers ---

type parsedPayment struct {
	method string
	amount decimal.Decimal
}

func parsePayments(in []SettlePayment) ([]parsedPayment, decimal.Decimal, error) {
	var payments []parsedPayment
	sum := decimal.Zero
	for i, p := range in {
		if !isValidPaymentMethod(p.Method) {
			return nil, decimal.Zero, fmt.Errorf("payments[%d]: %w", i, ErrInvalidPaymentMethod)
		}
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil || !amount.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("payments[%d]: %w", i, ErrInvalidPaymentAmount)
		}
		payments = append(payments, parsedPayment{method: p.Method, amount: amount})
		sum = sum.Add(amount)
	}
	return payments, sum, nil
}

func paymentBreakdown(payments []parsedPayment) map[string]string {
	breakdown := make(map[string]string, len(payments))
	for _, p := range payments {
		if prev, ok := breakdown[p.method]; ok {
			prevD, _ := decimal.NewFromString(prev)
			breakdown[p.method] = prevD.Add(p.amount).StringFixed(2)
			continue
		}
		breakdown[p.method] = p.amount.StringFixed(2)
	}
	return breakdown
}

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeout, enum.OrderTypeDelivery:
		return nil
	}
	return ErrInvalidOrderType
}

func validateDiscountKind(s string) (pricing.DiscountKind, error) {
	switch s {
	case "":
		return pricing.DiscountNone, nil
	case enum.DiscountKindPWD:
		return pricing.DiscountPWD, nil
	case enum.DiscountKindSenior:
		return pricing.DiscountSenior, nil
	}
	return pricing.DiscountNone, ErrInvalidDiscountKind
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodCard,
		enum.PaymentMethodQR, enum.PaymentMethodTransfer:
		return true
	}
	return false
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
