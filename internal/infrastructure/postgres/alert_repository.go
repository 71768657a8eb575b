package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo persistencia de alertas de umbral.
type AlertRepo struct {
	q Querier
}

func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, item_id, type, status, message, quantity_at_open, created_at,
	resolution_note, resolved_by, resolved_at`

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var (
		a          entity.Alert
		resolvedBy *string
	)
	err := row.Scan(&a.ID, &a.ItemID, &a.Type, &a.Status, &a.Message, &a.QuantityAtOpen, &a.CreatedAt,
		&a.ResolutionNote, &resolvedBy, &a.ResolvedAt)
	if err != nil {
		return nil, err
	}
	a.ResolvedBy = deref(resolvedBy)
	return &a, nil
}

// Create depende del índice único parcial (item_id, type) WHERE status = 'active'.
func (r *AlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	query := `INSERT INTO stock_alerts (` + alertColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		alert.ID, alert.ItemID, alert.Type, alert.Status, alert.Message, alert.QuantityAtOpen, alert.CreatedAt,
		alert.ResolutionNote, nullString(alert.ResolvedBy), alert.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("alerta %s/%s: %w", alert.ItemID, alert.Type, domain.ErrDuplicate)
		}
		return classify("insert alert", err)
	}
	return nil
}

func (r *AlertRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return a, nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	return r.getOne(ctx, "get alert", `SELECT `+alertColumns+` FROM stock_alerts WHERE id = $1`, id)
}

func (r *AlertRepo) GetActive(ctx context.Context, itemID, alertType string) (*entity.Alert, error) {
	return r.getOne(ctx, "get active alert",
		`SELECT `+alertColumns+` FROM stock_alerts WHERE item_id = $1 AND type = $2 AND status = 'active'`,
		itemID, alertType)
}

func (r *AlertRepo) ListActive(ctx context.Context, itemID string) ([]*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM stock_alerts WHERE status = 'active'`
	var args []any
	if itemID != "" {
		query += ` AND item_id = $1`
		args = append(args, itemID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list alerts", err)
	}
	defer rows.Close()
	out := []*entity.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, classify("scan alert", err)
		}
		out = append(out, a)
	}
	return out, classify("list alerts", rows.Err())
}

// MarkResolved UPDATE condicional: dos resoluciones concurrentes, solo una gana.
func (r *AlertRepo) MarkResolved(ctx context.Context, alert *entity.Alert) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_alerts SET status = $2, resolution_note = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = 'active'`,
		alert.ID, alert.Status, alert.ResolutionNote, nullString(alert.ResolvedBy), alert.ResolvedAt,
	)
	if err != nil {
		return classify("resolve alert", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	existing, err := r.GetByID(ctx, alert.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("alerta %s: %w", alert.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("alerta %s: %w", alert.ID, domain.ErrInvalidState)
}
