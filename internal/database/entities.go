package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Products / stock ---

const getProductForSale = `
SELECT id, branch_id, name, base_price, stock_qty, reorder_level, track_stock, active, created_at
FROM products
WHERE id = $1 AND branch_id = $2 AND active
`

type GetProductForSaleParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetProductForSale(ctx context.Context, arg GetProductForSaleParams) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, getProductForSale, arg.ID, arg.BranchID).
		Scan(&p.ID, &p.BranchID, &p.Name, &p.BasePrice, &p.StockQty,
			&p.ReorderLevel, &p.TrackStock, &p.Active, &p.CreatedAt)
	return p, err
}

const getVariantForSale = `
SELECT id, product_id, name, price_adjustment, stock_qty, track_stock
FROM product_variants
WHERE id = $1
`

func (q *Queries) GetVariantForSale(ctx context.Context, id uuid.UUID) (ProductVariant, error) {
	var v ProductVariant
	err := q.db.QueryRow(ctx, getVariantForSale, id).
		Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceAdjustment, &v.StockQty, &v.TrackStock)
	return v, err
}

// GREATEST keeps stock from going below zero even if preparation already
// consumed more than the ledger believed.
const adjustProductStock = `
UPDATE products
SET stock_qty = GREATEST(0, stock_qty + $2)
WHERE id = $1 AND track_stock
`

type AdjustStockParams struct {
	ID    uuid.UUID
	Delta int32
}

func (q *Queries) AdjustProductStock(ctx context.Context, arg AdjustStockParams) error {
	_, err := q.db.Exec(ctx, adjustProductStock, arg.ID, arg.Delta)
	return err
}

const adjustVariantStock = `
UPDATE product_variants
SET stock_qty = GREATEST(0, stock_qty + $2)
WHERE id = $1 AND track_stock
`

func (q *Queries) AdjustVariantStock(ctx context.Context, arg AdjustStockParams) error {
	_, err := q.db.Exec(ctx, adjustVariantStock, arg.ID, arg.Delta)
	return err
}

// --- Customers / loyalty ---

const getCustomerForUpdate = `
SELECT id, branch_id, full_name, phone, loyalty_points, tags, total_spent, visit_count, created_at
FROM customers
WHERE id = $1 AND branch_id = $2
FOR NO KEY UPDATE
`

type GetCustomerParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetCustomerForUpdate(ctx context.Context, arg GetCustomerParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, getCustomerForUpdate, arg.ID, arg.BranchID).
		Scan(&c.ID, &c.BranchID, &c.FullName, &c.Phone, &c.LoyaltyPoints,
			&c.Tags, &c.TotalSpent, &c.VisitCount, &c.CreatedAt)
	return c, err
}

// Earn and redeem applied together; the GREATEST floor guards the
// non-negative points invariant.
const settleCustomerLoyalty = `
UPDATE customers
SET loyalty_points = GREATEST(0, loyalty_points + $2 - $3),
    total_spent = total_spent + $4,
    visit_count = visit_count + 1
WHERE id = $1
RETURNING id, branch_id, full_name, phone, loyalty_points, tags, total_spent, visit_count, created_at
`

type SettleCustomerLoyaltyParams struct {
	ID           uuid.UUID
	EarnPoints   int32
	RedeemPoints int32
	Spent        pgtype.Numeric
}

func (q *Queries) SettleCustomerLoyalty(ctx context.Context, arg SettleCustomerLoyaltyParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, settleCustomerLoyalty, arg.ID, arg.EarnPoints, arg.RedeemPoints, arg.Spent).
		Scan(&c.ID, &c.BranchID, &c.FullName, &c.Phone, &c.LoyaltyPoints,
			&c.Tags, &c.TotalSpent, &c.VisitCount, &c.CreatedAt)
	return c, err
}

const deductCustomerLoyalty = `
UPDATE customers
SET loyalty_points = GREATEST(0, loyalty_points - $2)
WHERE id = $1
`

type DeductCustomerLoyaltyParams struct {
	ID     uuid.UUID
	Points int32
}

func (q *Queries) DeductCustomerLoyalty(ctx context.Context, arg DeductCustomerLoyaltyParams) error {
	_, err := q.db.Exec(ctx, deductCustomerLoyalty, arg.ID, arg.Points)
	return err
}

// --- Employees ---

const addEmployeeSales = `
UPDATE employees SET total_sales = total_sales + $2 WHERE id = $1
`

type AdjustEmployeeAmountParams struct {
	ID     uuid.UUID
	Amount pgtype.Numeric
}

func (q *Queries) AddEmployeeSales(ctx context.Context, arg AdjustEmployeeAmountParams) error {
	_, err := q.db.Exec(ctx, addEmployeeSales, arg.ID, arg.Amount)
	return err
}

const deductEmployeeSales = `
UPDATE employees SET total_sales = GREATEST(0, total_sales - $2) WHERE id = $1
`

func (q *Queries) DeductEmployeeSales(ctx context.Context, arg AdjustEmployeeAmountParams) error {
	_, err := q.db.Exec(ctx, deductEmployeeSales, arg.ID, arg.Amount)
	return err
}

const addEmployeeTips = `
UPDATE employees SET total_tips = total_tips + $2 WHERE id = $1
`

func (q *Queries) AddEmployeeTips(ctx context.Context, arg AdjustEmployeeAmountParams) error {
	_, err := q.db.Exec(ctx, addEmployeeTips, arg.ID, arg.Amount)
	return err
}

const employeeColumns = `
id, branch_id, full_name, email, password_hash, pin_hash, role,
total_sales, total_tips, active, created_at
`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.BranchID, &e.FullName, &e.Email, &e.PasswordHash,
		&e.PinHash, &e.Role, &e.TotalSales, &e.TotalTips, &e.Active, &e.CreatedAt)
	return e, err
}

const getEmployeeByEmail = `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1 AND active`

func (q *Queries) GetEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployeeByEmail, email))
}

const getEmployeeByID = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

func (q *Queries) GetEmployeeByID(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployeeByID, id))
}

const listActiveEmployeesByBranch = `
SELECT ` + employeeColumns + ` FROM employees WHERE branch_id = $1 AND active AND pin_hash IS NOT NULL
`

func (q *Queries) ListActiveEmployeesByBranch(ctx context.Context, branchID uuid.UUID) ([]Employee, error) {
	rows, err := q.db.Query(ctx, listActiveEmployeesByBranch, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// --- Tables ---

const getTable = `
SELECT id, branch_id, label, status, current_order_id
FROM dining_tables
WHERE id = $1 AND branch_id = $2
`

type GetTableParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (DiningTable, error) {
	var t DiningTable
	err := q.db.QueryRow(ctx, getTable, arg.ID, arg.BranchID).
		Scan(&t.ID, &t.BranchID, &t.Label, &t.Status, &t.CurrentOrderID)
	return t, err
}

const setTableStatus = `
UPDATE dining_tables
SET status = $2, current_order_id = $3
WHERE id = $1
RETURNING id, branch_id, label, status, current_order_id
`

type SetTableStatusParams struct {
	ID             uuid.UUID
	Status         string
	CurrentOrderID pgtype.UUID
}

func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) (DiningTable, error) {
	var t DiningTable
	err := q.db.QueryRow(ctx, setTableStatus, arg.ID, arg.Status, arg.CurrentOrderID).
		Scan(&t.ID, &t.BranchID, &t.Label, &t.Status, &t.CurrentOrderID)
	return t, err
}
