package enum

// --- State machines (CHECK constrained in DB) ---

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusServed    = "SERVED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusVoided    = "VOIDED"
)

const (
	TableStatusVacant        = "VACANT"
	TableStatusOccupied      = "OCCUPIED"
	TableStatusNeedsCleaning = "NEEDS_CLEANING"
)

const (
	ExportStatusPending = "PENDING"
	ExportStatusSent    = "SENT"
	ExportStatusFailed  = "FAILED"
)

// --- Roles (CHECK constrained in DB) ---

const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
	RoleKitchen = "KITCHEN"
)

// --- Order attributes ---

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeout  = "TAKEOUT"
	OrderTypeDelivery = "DELIVERY"
)

// Regulatory discounts. Both grant 20% off, VAT exemption and a
// service-charge waiver.
const (
	DiscountKindPWD    = "PWD"
	DiscountKindSenior = "SENIOR"
)

const (
	OrderPriorityNormal = "NORMAL"
	OrderPriorityRush   = "RUSH"
)

// --- Configurable labels (no DB constraint) ---

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodQR       = "QR"
	PaymentMethodTransfer = "TRANSFER"
)

const (
	CashMovementDrop   = "DROP"
	CashMovementPickup = "PICKUP"
	CashMovementNote   = "NOTE"
)

const (
	AuditActionSettle = "ORDER_SETTLED"
	AuditActionVoid   = "ORDER_VOIDED"
	AuditActionRefund = "ORDER_REFUNDED"
)
