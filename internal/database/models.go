package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Branch struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type Employee struct {
	ID           uuid.UUID
	BranchID     uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	PinHash      pgtype.Text
	Role         string
	TotalSales   pgtype.Numeric
	TotalTips    pgtype.Numeric
	Active       bool
	CreatedAt    time.Time
}

type Customer struct {
	ID            uuid.UUID
	BranchID      uuid.UUID
	FullName      string
	Phone         pgtype.Text
	LoyaltyPoints int32
	Tags          []string
	TotalSpent    pgtype.Numeric
	VisitCount    int32
	CreatedAt     time.Time
}

type Product struct {
	ID           uuid.UUID
	BranchID     uuid.UUID
	Name         string
	BasePrice    pgtype.Numeric
	StockQty     int32
	ReorderLevel int32
	TrackStock   bool
	Active       bool
	CreatedAt    time.Time
}

type ProductVariant struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	Name            string
	PriceAdjustment pgtype.Numeric
	StockQty        int32
	TrackStock      bool
}

type DiningTable struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	Label          string
	Status         string
	CurrentOrderID pgtype.UUID
}

type FiscalCounter struct {
	BranchID          uuid.UUID
	LastInvoiceNumber int64
	GrandTotal        pgtype.Numeric
}

type DrawerSession struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	OpenedBy       uuid.UUID
	OpeningFloat   pgtype.Numeric
	OpenedAt       time.Time
	ClosedAt       pgtype.Timestamptz
	ExpectedAmount pgtype.Numeric
	CountedAmount  pgtype.Numeric
	Difference     pgtype.Numeric
	Denominations  []byte
}

type CashMovement struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Kind      string
	Amount    pgtype.Numeric
	Reason    string
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

type Order struct {
	ID               uuid.UUID
	BranchID         uuid.UUID
	InvoiceNumber    int64
	OrderType        string
	Status           string
	DiscountKind     pgtype.Text
	DiscountIDNumber pgtype.Text
	VerifiedBy       pgtype.UUID
	CustomerID       pgtype.UUID
	ServerID         pgtype.UUID
	TableID          pgtype.UUID
	SettledBy        uuid.UUID
	DrawerSessionID  pgtype.UUID
	Subtotal         pgtype.Numeric
	DiscountAmount   pgtype.Numeric
	TaxAmount        pgtype.Numeric
	ServiceCharge    pgtype.Numeric
	TipAmount        pgtype.Numeric
	LoyaltyDiscount  pgtype.Numeric
	TotalAmount      pgtype.Numeric
	PointsEarned     int32
	PointsRedeemed   int32
	DeliveryContact  pgtype.Text
	DeliveryAddress  pgtype.Text
	Notes            pgtype.Text
	KitchenNotes     pgtype.Text
	Priority         string
	EstPrepMinutes   pgtype.Int4
	VoidReason       pgtype.Text
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderLine struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    pgtype.UUID
	VariantID    pgtype.UUID
	Description  string
	UnitPrice    pgtype.Numeric
	Quantity     int32
	LineDiscount pgtype.Numeric
	Instructions pgtype.Text
}

type OrderLineModifier struct {
	ID          uuid.UUID
	OrderLineID uuid.UUID
	Name        string
	Price       pgtype.Numeric
}

type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Method    string
	Amount    pgtype.Numeric
	CreatedAt time.Time
}

type Refund struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	BranchID       uuid.UUID
	Amount         pgtype.Numeric
	Method         string
	Reason         string
	LineQuantities []byte
	ProcessedBy    uuid.UUID
	CreatedAt      time.Time
}

type AuditEntry struct {
	ID        uuid.UUID
	BranchID  uuid.UUID
	ActorID   uuid.UUID
	Action    string
	OrderID   pgtype.UUID
	Amount    pgtype.Numeric
	Detail    []byte
	CreatedAt time.Time
}

type ExportPayload struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	BranchID  uuid.UUID
	Status    string
	Payload   []byte
	Attempts  int32
	LastError pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}
