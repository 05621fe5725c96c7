package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kusina-pos/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries.
type ReportStore interface {
	GetZReading(ctx context.Context, arg database.GetZReadingParams) (database.GetZReadingRow, error)
	GetRefundTotalForDay(ctx context.Context, arg database.GetZReadingParams) (database.GetRefundTotalForDayRow, error)
	GetPaymentSummary(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error)
	GetFiscalCounter(ctx context.Context, branchID uuid.UUID) (database.FiscalCounter, error)
}

// ReportHandler handles end-of-day reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/reports
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/z-reading", h.ZReading)
	r.Get("/payment-summary", h.PaymentSummary)
}

type zReadingResponse struct {
	Date                 string `json:"date"`
	OrderCount           int64  `json:"order_count"`
	FirstInvoice         int64  `json:"first_invoice"`
	LastInvoice          int64  `json:"last_invoice"`
	GrossSales           string `json:"gross_sales"`
	TotalDiscount        string `json:"total_discount"`
	TotalVAT             string `json:"total_vat"`
	TotalServiceCharge   string `json:"total_service_charge"`
	TotalTips            string `json:"total_tips"`
	TotalLoyaltyDiscount string `json:"total_loyalty_discount"`
	NetSales             string `json:"net_sales"`
	RefundCount          int64  `json:"refund_count"`
	TotalRefund          string `json:"total_refund"`
	CounterInvoice       int64  `json:"counter_invoice"`
	GrandTotal           string `json:"grand_total"`
}

type paymentSummaryEntry struct {
	Method           string `json:"method"`
	TransactionCount int64  `json:"transaction_count"`
	TotalAmount      string `json:"total_amount"`
}

type paymentSummaryResponse struct {
	Payments []paymentSummaryEntry `json:"payments"`
}

// ZReading handles GET /branches/{bid}/reports/z-reading?date=YYYY-MM-DD.
// Defaults to today when no date is given.
func (h *ReportHandler) ZReading(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	day := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		day, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
	}

	params := database.GetZReadingParams{
		BranchID: branchID,
		Day:      pgtype.Date{Time: day, Valid: true},
	}

	reading, err := h.store.GetZReading(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: z-reading: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	refunds, err := h.store.GetRefundTotalForDay(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: refund total: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// The lifetime counter goes on every Z reading alongside the day's slice.
	counter, err := h.store.GetFiscalCounter(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: fiscal counter: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, zReadingResponse{
		Date:                 day.Format("2006-01-02"),
		OrderCount:           reading.OrderCount,
		FirstInvoice:         reading.FirstInvoice,
		LastInvoice:          reading.LastInvoice,
		GrossSales:           numericToString(reading.GrossSales),
		TotalDiscount:        numericToString(reading.TotalDiscount),
		TotalVAT:             numericToString(reading.TotalVAT),
		TotalServiceCharge:   numericToString(reading.TotalServiceCharge),
		TotalTips:            numericToString(reading.TotalTips),
		TotalLoyaltyDiscount: numericToString(reading.TotalLoyaltyDiscount),
		NetSales:             numericToString(reading.NetSales),
		RefundCount:          refunds.RefundCount,
		TotalRefund:          numericToString(refunds.TotalRefund),
		CounterInvoice:       counter.LastInvoiceNumber,
		GrandTotal:           numericToString(counter.GrandTotal),
	})
}

// PaymentSummary handles GET /branches/{bid}/reports/payment-summary with
// optional start_date and end_date filters.
func (h *ReportHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	params := database.GetPaymentSummaryParams{BranchID: branchID}

	q := r.URL.Query()
	if startStr := q.Get("start_date"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: start, Valid: true}
	}
	if endStr := q.Get("end_date"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: end, Valid: true}
	}

	rows, err := h.store.GetPaymentSummary(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: payment summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := paymentSummaryResponse{Payments: []paymentSummaryEntry{}}
	for _, row := range rows {
		resp.Payments = append(resp.Payments, paymentSummaryEntry{
			Method:           row.Method,
			TransactionCount: row.TransactionCount,
			TotalAmount:      numericToString(row.TotalAmount),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
