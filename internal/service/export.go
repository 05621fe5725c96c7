package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kusina-pos/api/internal/database"
)

// ExportStore defines the DB methods the fiscal export relay needs.
type ExportStore interface {
	ListPendingExports(ctx context.Context, arg database.ListPendingExportsParams) ([]database.ExportPayload, error)
	MarkExportSent(ctx context.Context, id uuid.UUID) error
	MarkExportFailed(ctx context.Context, arg database.MarkExportFailedParams) error
}

// NewExportStore creates an ExportStore from a DBTX (pool or tx).
type NewExportStore func(db database.DBTX) ExportStore

// ExportSender delivers one payload to the fiscal endpoint.
type ExportSender interface {
	Send(ctx context.Context, payload database.ExportPayload) error
}

const (
	exportBatchSize   = 50
	exportMaxAttempts = 5
)

// ExportRelay moves queued settlement payloads out to the tax authority
// endpoint. Settlement writes the rows inside its own transaction; the relay
// only drains them and records each delivery outcome.
type ExportRelay struct {
	pool     TxBeginner
	newStore NewExportStore
	sender   ExportSender
}

func NewExportRelay(pool TxBeginner, newStore NewExportStore, sender ExportSender) *ExportRelay {
	return &ExportRelay{pool: pool, newStore: newStore, sender: sender}
}

// Drain sends one batch of pending exports for the branch and returns how
// many went out. A delivery failure is recorded on its row and does not stop
// the rest of the batch.
func (r *ExportRelay) Drain(ctx context.Context, branchID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := r.newStore(tx)

	pending, err := store.ListPendingExports(ctx, database.ListPendingExportsParams{
		BranchID: branchID,
		Limit:    exportBatchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("list pending exports: %w", err)
	}

	sent := 0
	for _, payload := range pending {
		if err := r.sender.Send(ctx, payload); err != nil {
			if markErr := store.MarkExportFailed(ctx, database.MarkExportFailedParams{
				ID:          payload.ID,
				LastError:   err.Error(),
				MaxAttempts: exportMaxAttempts,
			}); markErr != nil {
				return sent, fmt.Errorf("mark export failed: %w", markErr)
			}
			continue
		}
		if err := store.MarkExportSent(ctx, payload.ID); err != nil {
			return sent, fmt.Errorf("mark export sent: %w", err)
		}
		sent++
	}

	if err := tx.Commit(ctx); err != nil {
		return sent, fmt.Errorf("commit tx: %w", err)
	}
	return sent, nil
}
