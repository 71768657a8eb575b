package memory

import (
	"context"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func seedItem(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.Items().Create(context.Background(), &entity.InventoryItem{
		ID: id, Name: "item " + id, CategoryID: "cat", IsActive: true, UnitCost: decimal.NewFromInt(2),
	}))
}

func TestTxRunner_RollbackNoAplicaNada(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedItem(t, s, "a")
	boom := errors.New("boom")

	err := s.TxRunner().Run(ctx, func(items repository.ItemRepository, movements repository.MovementRepository, _ repository.AlertRepository) error {
		_, err := items.GetForUpdate(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, movements.Create(ctx, &entity.Movement{ItemID: "a", Type: entity.MovementTypeIn, Quantity: 5, Direction: 1, TransactionDate: time.Now()}))
		require.NoError(t, items.UpdateStock(ctx, "a", 5, decimal.NewFromInt(2)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	it, _ := s.Items().GetByID(ctx, "a")
	assert.Equal(t, int64(0), it.QuantityInStock)
	n, _ := s.Movements().CountByItem(ctx, "a")
	assert.Zero(t, n)
}

func TestTxRunner_CommitVisibleSoloAlFinal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedItem(t, s, "a")

	err := s.TxRunner().Run(ctx, func(items repository.ItemRepository, movements repository.MovementRepository, _ repository.AlertRepository) error {
		require.NoError(t, movements.Create(ctx, &entity.Movement{ItemID: "a", Type: entity.MovementTypeIn, Quantity: 3, Direction: 1, TransactionDate: time.Now()}))
		require.NoError(t, items.UpdateStock(ctx, "a", 3, decimal.NewFromInt(2)))

		// Dentro de la tx se ven las propias escrituras; fuera todavía no
		n, _ := movements.CountByItem(ctx, "a")
		assert.Equal(t, int64(1), n)
		outside, _ := s.Movements().CountByItem(ctx, "a")
		assert.Zero(t, outside)
		return nil
	})
	require.NoError(t, err)

	it, _ := s.Items().GetByID(ctx, "a")
	assert.Equal(t, int64(3), it.QuantityInStock)
}

func TestGetForUpdate_RespetaDeadline(t *testing.T) {
	s := NewStore()
	seedItem(t, s, "a")

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.TxRunner().Run(context.Background(), func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
			_, _ = items.GetForUpdate(context.Background(), "a")
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := s.TxRunner().Run(ctx, func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		_, err := items.GetForUpdate(ctx, "a")
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Otro ítem no comparte el candado
	seedItem(t, s, "b")
	err = s.TxRunner().Run(context.Background(), func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		_, err := items.GetForUpdate(context.Background(), "b")
		return err
	})
	assert.NoError(t, err)
}

// El id puede venir de un buffer reutilizable (parámetros de ruta de fiber).
func TestGetForUpdate_ClaveIndependienteDelBufferDelLlamador(t *testing.T) {
	s := NewStore()
	seedItem(t, s, "item-1")
	buf := []byte("item-1")
	id := unsafe.String(&buf[0], len(buf))

	err := s.TxRunner().Run(context.Background(), func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		if _, err := items.GetForUpdate(context.Background(), id); err != nil {
			return err
		}
		copy(buf, "item-9")
		return nil
	})
	require.NoError(t, err)

	s.locksMu.Lock()
	_, ok := s.locks["item-1"]
	_, stale := s.locks["item-9"]
	s.locksMu.Unlock()
	assert.True(t, ok)
	assert.False(t, stale)

	// El candado quedó liberado bajo la clave original
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = s.TxRunner().Run(ctx, func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		_, err := items.GetForUpdate(ctx, "item-1")
		return err
	})
	assert.NoError(t, err)
}

func TestLockKey_SerializaHastaElFinDeLaTransaccion(t *testing.T) {
	s := NewStore()
	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.TxRunner().Run(context.Background(), func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
			_ = items.LockKey(context.Background(), "item-name:taladro")
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := s.TxRunner().Run(ctx, func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		return items.LockKey(ctx, "item-name:taladro")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Fuera de transacción no retiene nada
	assert.NoError(t, s.Items().LockKey(context.Background(), "item-name:taladro"))

	close(release)
	err = s.TxRunner().Run(context.Background(), func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		return items.LockKey(context.Background(), "item-name:taladro")
	})
	assert.NoError(t, err)
}

func TestMovementList_KeysetOrdenadoPorFechaYSeq(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedItem(t, s, "a")
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d0 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	repo := s.Movements()
	for _, d := range []time.Time{d1, d0, d1, d0} {
		require.NoError(t, repo.Create(ctx, &entity.Movement{ItemID: "a", Type: entity.MovementTypeIn, Quantity: 1, Direction: 1, TransactionDate: d}))
	}

	page1, err := repo.List(ctx, repository.MovementFilter{ItemID: "a"}, nil, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	assert.Equal(t, []int64{2, 4, 1}, []int64{page1[0].Seq, page1[1].Seq, page1[2].Seq})

	last := page1[2]
	page2, err := repo.List(ctx, repository.MovementFilter{ItemID: "a"}, &repository.MovementCursor{Date: last.TransactionDate, Seq: last.Seq}, 3)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(3), page2[0].Seq)
}

func TestAlertRepo_UnaActivaPorTipo(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedItem(t, s, "a")
	repo := s.Alerts()

	a1 := &entity.Alert{ID: "1", ItemID: "a", Type: entity.AlertTypeLowStock, Status: entity.AlertStatusActive}
	require.NoError(t, repo.Create(ctx, a1))
	err := repo.Create(ctx, &entity.Alert{ID: "2", ItemID: "a", Type: entity.AlertTypeLowStock, Status: entity.AlertStatusActive})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, a1.Resolve("repuesto", "u1", time.Now()))
	require.NoError(t, repo.MarkResolved(ctx, a1))
	assert.ErrorIs(t, repo.MarkResolved(ctx, a1), domain.ErrInvalidState)

	// Resuelta la anterior, se puede abrir otra
	require.NoError(t, repo.Create(ctx, &entity.Alert{ID: "3", ItemID: "a", Type: entity.AlertTypeLowStock, Status: entity.AlertStatusActive}))
}

func TestItemRepo_DeleteConMovimientos(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedItem(t, s, "a")
	require.NoError(t, s.Movements().Create(ctx, &entity.Movement{ItemID: "a", Type: entity.MovementTypeIn, Quantity: 1, Direction: 1, TransactionDate: time.Now()}))
	assert.ErrorIs(t, s.Items().Delete(ctx, "a"), domain.ErrConflict)
}
