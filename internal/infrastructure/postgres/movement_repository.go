package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo log append-only de movimientos sobre PostgreSQL. No expone UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, seq, item_id, type, quantity, direction, unit_cost, total_cost,
	transaction_date, supplier_id, created_by, notes, created_at`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                     entity.Movement
		supplierID, createdBy *string
	)
	err := row.Scan(
		&m.ID, &m.Seq, &m.ItemID, &m.Type, &m.Quantity, &m.Direction, &m.UnitCost, &m.TotalCost,
		&m.TransactionDate, &supplierID, &createdBy, &m.Notes, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.SupplierID = deref(supplierID)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

// Create inserta el movimiento; seq lo asigna la secuencia de la tabla (orden de inserción).
func (r *MovementRepo) Create(ctx context.Context, movement *entity.Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_transactions (id, item_id, type, quantity, direction, unit_cost, total_cost,
			transaction_date, supplier_id, created_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		movement.ID, movement.ItemID, movement.Type, movement.Quantity, movement.Direction,
		movement.UnitCost, movement.TotalCost, movement.TransactionDate,
		nullString(movement.SupplierID), nullString(movement.CreatedBy), movement.Notes, movement.CreatedAt,
	).Scan(&movement.Seq)
	return classify("insert movement", err)
}

func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get movement", err)
	}
	return m, nil
}

func (r *MovementRepo) CountByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM inventory_transactions WHERE item_id = $1`, itemID).Scan(&n)
	return n, classify("count movements", err)
}

func (r *MovementRepo) LastSeq(ctx context.Context, itemID string) (int64, error) {
	var seq int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM inventory_transactions WHERE item_id = $1`, itemID).Scan(&seq)
	return seq, classify("last movement seq", err)
}

// List pagina por keyset sobre (transaction_date, seq).
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.Movement, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ItemID != "" {
		where = append(where, "item_id = "+arg(filter.ItemID))
	}
	if len(filter.Types) > 0 {
		where = append(where, "type = ANY("+arg(filter.Types)+")")
	}
	if filter.From != nil {
		where = append(where, "transaction_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "transaction_date <= "+arg(*filter.To))
	}
	if filter.SupplierID != "" {
		where = append(where, "supplier_id = "+arg(filter.SupplierID))
	}
	if after != nil {
		where = append(where, "(transaction_date, seq) > ("+arg(after.Date)+", "+arg(after.Seq)+")")
	}

	query := `SELECT ` + movementColumns + ` FROM inventory_transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_date, seq"
	if limit > 0 {
		query += " LIMIT " + arg(limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list movements", err)
	}
	defer rows.Close()
	out := []*entity.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, classify("scan movement", err)
		}
		out = append(out, m)
	}
	return out, classify("list movements", rows.Err())
}
