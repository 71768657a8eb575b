package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/monitor"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type fixture struct {
	store   *memory.Store
	ledger  *ledger.UseCase
	monitor *monitor.UseCase
}

func newFixture(t *testing.T, tx ports.TxRunner, cfg ledger.Config) *fixture {
	t.Helper()
	s := memory.NewStore()
	if tx == nil {
		tx = s.TxRunner()
	}
	mon := monitor.NewUseCase(s.Items(), s.Alerts(), nil, monitor.Config{}, nil)
	l := ledger.NewUseCase(tx, s.Items(), s.Movements(), mon, cfg, nil)
	return &fixture{store: s, ledger: l, monitor: mon}
}

func (f *fixture) seed(t *testing.T, id string, threshold int64) {
	t.Helper()
	require.NoError(t, f.store.Items().Create(context.Background(), &entity.InventoryItem{
		ID: id, Name: "Filtro " + id, CategoryID: "repuestos", IsActive: true,
		UnitCost: decimal.NewFromInt(10), ReorderThreshold: threshold, ReorderQuantity: 50,
	}))
}

func (f *fixture) qty(t *testing.T, id string) int64 {
	t.Helper()
	q, err := f.ledger.GetCurrentQuantity(context.Background(), id)
	require.NoError(t, err)
	return q
}

func (f *fixture) activeAlerts(t *testing.T, id string) []*entity.Alert {
	t.Helper()
	list, err := f.monitor.ListActiveAlerts(context.Background(), id)
	require.NoError(t, err)
	return list
}

func apply(f *fixture, id, typ string, qty int64) (*entity.Movement, error) {
	return f.ledger.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: id, Type: typ, Quantity: qty, Actor: "u1"})
}

func TestApplyMovement_EscenariosDeUmbral(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{MaxRetries: 1})
	f.seed(t, "it", 10)

	// 1. initial +100 -> 100, sin alerta
	_, err := apply(f, "it", entity.MovementTypeInitial, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.qty(t, "it"))
	assert.Empty(t, f.activeAlerts(t, "it"))

	// 2. out 95 -> 5, abre low_stock
	_, err = apply(f, "it", entity.MovementTypeOut, 95)
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.qty(t, "it"))
	alerts := f.activeAlerts(t, "it")
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.AlertTypeLowStock, alerts[0].Type)

	// 3. out 10 sobre 5 -> rechazado, cantidad intacta
	_, err = apply(f, "it", entity.MovementTypeOut, 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.qty(t, "it"))
	n, _ := f.store.Movements().CountByItem(context.Background(), "it")
	assert.Equal(t, int64(2), n)

	// 4. in +50 -> 55, la alerta sigue activa
	_, err = apply(f, "it", entity.MovementTypeIn, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(55), f.qty(t, "it"))
	alerts = f.activeAlerts(t, "it")
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.AlertStatusActive, alerts[0].Status)
}

func TestApplyMovement_SinStockAbreOutOfStockSinDuplicar(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 10)

	_, err := apply(f, "it", entity.MovementTypeIn, 8)
	require.NoError(t, err)
	_, err = apply(f, "it", entity.MovementTypeUse, 2)
	require.NoError(t, err)
	_, err = apply(f, "it", entity.MovementTypeOut, 6)
	require.NoError(t, err)

	alerts := f.activeAlerts(t, "it")
	require.Len(t, alerts, 2)
	types := []string{alerts[0].Type, alerts[1].Type}
	assert.ElementsMatch(t, []string{entity.AlertTypeLowStock, entity.AlertTypeOutOfStock}, types)
}

func TestApplyMovement_Validaciones(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 0)
	neg := decimal.NewFromInt(-1)

	cases := []struct {
		name string
		in   ledger.MovementInput
		want error
	}{
		{"cantidad cero", ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 0}, domain.ErrValidation},
		{"cantidad negativa", ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeOut, Quantity: -3}, domain.ErrValidation},
		{"ajuste cero", ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeAdjustment, Quantity: 0}, domain.ErrValidation},
		{"tipo desconocido", ledger.MovementInput{ItemID: "it", Type: "transfer", Quantity: 1}, domain.ErrValidation},
		{"costo negativo", ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 1, UnitCost: &neg}, domain.ErrValidation},
		{"sin item", ledger.MovementInput{Type: entity.MovementTypeIn, Quantity: 1}, domain.ErrValidation},
		{"item inexistente", ledger.MovementInput{ItemID: "nope", Type: entity.MovementTypeIn, Quantity: 1}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.ApplyMovement(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(0), f.qty(t, "it"))
}

func TestApplyMovement_ItemInactivoSoloAceptaAjustes(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 0)
	_, err := apply(f, "it", entity.MovementTypeIn, 10)
	require.NoError(t, err)
	require.NoError(t, f.store.Items().SetActive(context.Background(), "it", false))

	_, err = apply(f, "it", entity.MovementTypeOut, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	m, err := apply(f, "it", entity.MovementTypeAdjustment, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), m.Quantity)
	assert.Equal(t, entity.DirectionOut, m.Direction)
	assert.Equal(t, int64(6), f.qty(t, "it"))
}

func TestApplyMovement_AjusteNegativoNoBajaDeCero(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 0)
	_, err := apply(f, "it", entity.MovementTypeIn, 3)
	require.NoError(t, err)

	_, err = apply(f, "it", entity.MovementTypeAdjustment, -4)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), f.qty(t, "it"))
}

func TestApplyMovement_CostoPromedioPonderado(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{WeightedCost: true})
	f.seed(t, "it", 0)
	c8 := decimal.NewFromInt(8)
	c14 := decimal.NewFromInt(14)

	_, err := f.ledger.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeInitial, Quantity: 10, UnitCost: &c8})
	require.NoError(t, err)
	m, err := f.ledger.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 10, UnitCost: &c14})
	require.NoError(t, err)
	assert.True(t, m.TotalCost.Equal(decimal.NewFromInt(140)))

	item, _ := f.store.Items().GetByID(context.Background(), "it")
	assert.True(t, item.UnitCost.Equal(decimal.NewFromInt(11)), "costo: %s", item.UnitCost)

	// Una salida sin costo explícito usa el costo vigente y no lo altera
	out, err := apply(f, "it", entity.MovementTypeOut, 5)
	require.NoError(t, err)
	assert.True(t, out.UnitCost.Equal(decimal.NewFromInt(11)))
}

func TestApplyMovement_Conservacion(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 0)

	ops := []struct {
		typ string
		qty int64
	}{
		{entity.MovementTypeInitial, 40}, {entity.MovementTypeOut, 15}, {entity.MovementTypeReturn, 3},
		{entity.MovementTypeUse, 30}, {entity.MovementTypeAdjustment, 7}, {entity.MovementTypeOut, 100},
		{entity.MovementTypeAdjustment, -2}, {entity.MovementTypeIn, 12},
	}
	for _, op := range ops {
		_, _ = apply(f, "it", op.typ, op.qty)
	}

	seq, err := f.ledger.ListMovements(context.Background(), "it", ledger.MovementFilter{})
	require.NoError(t, err)
	var sum int64
	for m, err := range seq {
		require.NoError(t, err)
		sum += m.Delta()
	}
	assert.Equal(t, sum, f.qty(t, "it"))
	assert.Equal(t, int64(45), sum)
}

func TestApplyMovement_ConcurrenciaMismoItem(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 0)
	_, err := apply(f, "it", entity.MovementTypeInitial, 500)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = apply(f, "it", entity.MovementTypeIn, 3)
		}()
		go func() {
			defer wg.Done()
			_, _ = apply(f, "it", entity.MovementTypeOut, 5)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(500+50*3-50*5), f.qty(t, "it"))
}

func TestApplyMovement_ConcurrenciaNoPermiteNegativos(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{})
	f.seed(t, "it", 0)
	_, err := apply(f, "it", entity.MovementTypeIn, 10)
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := apply(f, "it", entity.MovementTypeOut, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	assert.Equal(t, int64(0), f.qty(t, "it"))
}

// failingTx envuelve un TxRunner real y hace fallar UpdateStock después de insertar el movimiento.
type failingTx struct {
	inner    ports.TxRunner
	err      error
	failures int // cantidad de veces que falla antes de dejar pasar; -1 = siempre
	calls    int
}

type failingItems struct {
	repository.ItemRepository
	err error
}

func (f failingItems) UpdateStock(context.Context, string, int64, decimal.Decimal) error { return f.err }

func (tx *failingTx) Run(ctx context.Context, fn func(repository.ItemRepository, repository.MovementRepository, repository.AlertRepository) error) error {
	tx.calls++
	return tx.inner.Run(ctx, func(items repository.ItemRepository, movs repository.MovementRepository, alerts repository.AlertRepository) error {
		if tx.failures < 0 || tx.calls <= tx.failures {
			items = failingItems{ItemRepository: items, err: tx.err}
		}
		return fn(items, movs, alerts)
	})
}

func TestApplyMovement_AtomicidadAnteFalloDeAlmacenamiento(t *testing.T) {
	s := memory.NewStore()
	boom := errors.New("disco lleno")
	tx := &failingTx{inner: s.TxRunner(), err: boom, failures: -1}
	l := ledger.NewUseCase(tx, s.Items(), s.Movements(), nil, ledger.Config{MaxRetries: 3}, nil)
	require.NoError(t, s.Items().Create(context.Background(), &entity.InventoryItem{ID: "it", Name: "x", CategoryID: "c", IsActive: true}))

	_, err := l.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 5})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, tx.calls, "un error no transitorio no se reintenta")

	n, _ := s.Movements().CountByItem(context.Background(), "it")
	assert.Zero(t, n)
	item, _ := s.Items().GetByID(context.Background(), "it")
	assert.Zero(t, item.QuantityInStock)
}

func TestApplyMovement_ReintentaTransitorios(t *testing.T) {
	s := memory.NewStore()
	transient := errors.Join(domain.ErrTransient, errors.New("deadlock detected"))
	tx := &failingTx{inner: s.TxRunner(), err: transient, failures: 2}
	l := ledger.NewUseCase(tx, s.Items(), s.Movements(), nil, ledger.Config{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)
	require.NoError(t, s.Items().Create(context.Background(), &entity.InventoryItem{ID: "it", Name: "x", CategoryID: "c", IsActive: true}))

	_, err := l.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, tx.calls)

	n, _ := s.Movements().CountByItem(context.Background(), "it")
	assert.Equal(t, int64(1), n)
}

func TestApplyMovement_ReintentosAgotados(t *testing.T) {
	s := memory.NewStore()
	tx := &failingTx{inner: s.TxRunner(), err: domain.ErrTransient, failures: -1}
	l := ledger.NewUseCase(tx, s.Items(), s.Movements(), nil, ledger.Config{MaxRetries: 2, RetryBackoff: time.Millisecond}, nil)
	require.NoError(t, s.Items().Create(context.Background(), &entity.InventoryItem{ID: "it", Name: "x", CategoryID: "c", IsActive: true}))

	_, err := l.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 3, tx.calls)
}

func TestApplyMovement_TimeoutPorBloqueo(t *testing.T) {
	f := newFixture(t, nil, ledger.Config{OpTimeout: 40 * time.Millisecond})
	f.seed(t, "it", 0)

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.store.TxRunner().Run(context.Background(), func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
			_, _ = items.GetForUpdate(context.Background(), "it")
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	_, err := apply(f, "it", entity.MovementTypeIn, 5)
	close(release)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, int64(0), f.qty(t, "it"))
}

// brokenMonitor simula un fallo del chequeo posterior al commit.
type brokenMonitor struct{ calls int }

func (m *brokenMonitor) CheckThresholds(context.Context, *entity.InventoryItem) error {
	m.calls++
	return errors.New("monitor caído")
}

func TestApplyMovement_FalloDelMonitorNoRevierte(t *testing.T) {
	s := memory.NewStore()
	mon := &brokenMonitor{}
	l := ledger.NewUseCase(s.TxRunner(), s.Items(), s.Movements(), mon, ledger.Config{}, nil)
	require.NoError(t, s.Items().Create(context.Background(), &entity.InventoryItem{ID: "it", Name: "x", CategoryID: "c", IsActive: true, ReorderThreshold: 100}))

	m, err := l.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: "it", Type: entity.MovementTypeIn, Quantity: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, 1, mon.calls)

	q, _ := l.GetCurrentQuantity(context.Background(), "it")
	assert.Equal(t, int64(5), q)
}
