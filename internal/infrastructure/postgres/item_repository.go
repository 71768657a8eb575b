package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, name, part_number, category_id, supplier_id, description, unit_cost, selling_price,
	quantity_in_stock, reorder_threshold, reorder_quantity, location, notes, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var (
		it                     entity.InventoryItem
		partNumber, supplierID *string
		sellingPrice           decimal.NullDecimal
	)
	err := row.Scan(
		&it.ID, &it.Name, &partNumber, &it.CategoryID, &supplierID, &it.Description, &it.UnitCost, &sellingPrice,
		&it.QuantityInStock, &it.ReorderThreshold, &it.ReorderQuantity, &it.Location, &it.Notes,
		&it.IsActive, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.PartNumber = deref(partNumber)
	it.SupplierID = deref(supplierID)
	if sellingPrice.Valid {
		p := sellingPrice.Decimal
		it.SellingPrice = &p
	}
	return &it, nil
}

func (r *ItemRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.InventoryItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return it, nil
}

// Create persiste un ítem nuevo. La cantidad inicial siempre llega por el ledger.
func (r *ItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	query := `INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Name, nullString(item.PartNumber), item.CategoryID, nullString(item.SupplierID),
		item.Description, item.UnitCost, item.SellingPrice,
		item.QuantityInStock, item.ReorderThreshold, item.ReorderQuantity, item.Location, item.Notes,
		item.IsActive, item.CreatedAt, item.UpdatedAt,
	)
	return classify("insert item", err)
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.getOne(ctx, "get item", `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción. Con lock_timeout vencido devuelve ErrTransient.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.getOne(ctx, "lock item", `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id)
}

// LockKey usa un advisory lock de transacción sobre el hash de la clave. Con pool se libera al terminar la sentencia.
func (r *ItemRepo) LockKey(ctx context.Context, key string) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return classify("lock key", err)
}

// GetByName compara sin distinguir mayúsculas (índice sobre lower(name)).
func (r *ItemRepo) GetByName(ctx context.Context, name string) (*entity.InventoryItem, error) {
	return r.getOne(ctx, "get item by name",
		`SELECT `+itemColumns+` FROM inventory_items WHERE lower(name) = lower($1) ORDER BY created_at LIMIT 1`, name)
}

func (r *ItemRepo) GetByPartNumber(ctx context.Context, partNumber string) (*entity.InventoryItem, error) {
	if partNumber == "" {
		return nil, nil
	}
	return r.getOne(ctx, "get item by part number",
		`SELECT `+itemColumns+` FROM inventory_items WHERE part_number = $1 ORDER BY created_at LIMIT 1`, partNumber)
}

// Update actualiza atributos maestros. quantity_in_stock, is_active y created_at no se tocan.
func (r *ItemRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		UPDATE inventory_items SET name = $2, part_number = $3, category_id = $4, supplier_id = $5, description = $6,
			unit_cost = $7, selling_price = $8, reorder_threshold = $9, reorder_quantity = $10, location = $11,
			notes = $12, updated_at = $13
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		item.ID, item.Name, nullString(item.PartNumber), item.CategoryID, nullString(item.SupplierID), item.Description,
		item.UnitCost, item.SellingPrice, item.ReorderThreshold, item.ReorderQuantity, item.Location,
		item.Notes, item.UpdatedAt,
	)
	if err != nil {
		return classify("update item", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ítem %s: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdateStock es de uso exclusivo del ledger, dentro de la misma tx que inserta el movimiento.
func (r *ItemRepo) UpdateStock(ctx context.Context, id string, quantity int64, unitCost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET quantity_in_stock = $2, unit_cost = $3, updated_at = now() WHERE id = $1`,
		id, quantity, unitCost,
	)
	if err != nil {
		return classify("update item stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *ItemRepo) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return classify("set item active", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List aplica los filtros y pagina ordenando por nombre.
func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.InventoryItem, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = "+arg(filter.CategoryID))
	}
	if filter.Active != nil {
		where = append(where, "is_active = "+arg(*filter.Active))
	}
	switch filter.StockStatus {
	case entity.StockStatusOutOfStock:
		where = append(where, "quantity_in_stock <= 0")
	case entity.StockStatusLowStock:
		where = append(where, "quantity_in_stock > 0 AND quantity_in_stock <= reorder_threshold")
	case entity.StockStatusInStock:
		where = append(where, "quantity_in_stock > reorder_threshold")
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, "(name ILIKE "+p+" OR part_number ILIKE "+p+")")
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list items", err)
	}
	defer rows.Close()
	out := []*entity.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, classify("scan item", err)
		}
		out = append(out, it)
	}
	return out, classify("list items", rows.Err())
}

// Delete falla con ErrConflict si hay movimientos (FK ON DELETE RESTRICT); las alertas caen en cascada.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return classify("delete item", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
