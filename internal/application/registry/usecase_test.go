package registry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/monitor"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/application/registry"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type env struct {
	store    *memory.Store
	ledger   *ledger.UseCase
	registry *registry.UseCase
}

func newEnv(cfg registry.Config) *env {
	s := memory.NewStore()
	mon := monitor.NewUseCase(s.Items(), s.Alerts(), nil, monitor.Config{}, nil)
	l := ledger.NewUseCase(s.TxRunner(), s.Items(), s.Movements(), mon, ledger.Config{WeightedCost: true}, nil)
	r := registry.NewUseCase(s.TxRunner(), s.Items(), l, cfg, nil)
	return &env{store: s, ledger: l, registry: r}
}

func createReq(name string) dto.CreateItemRequest {
	return dto.CreateItemRequest{
		Name:             name,
		CategoryID:       "herramientas",
		UnitCost:         decimal.NewFromInt(25),
		ReorderThreshold: 10,
		ReorderQuantity:  40,
	}
}

func TestCreateItem_StockInicialPasaPorElLedger(t *testing.T) {
	e := newEnv(registry.Config{UniqueName: true})
	req := createReq("Taladro")
	req.InitialQuantity = 100

	item, err := e.registry.CreateItem(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, int64(100), item.QuantityInStock)
	assert.Equal(t, entity.StockStatusInStock, item.StockStatus)
	assert.True(t, item.IsActive)

	seq, err := e.ledger.ListMovements(context.Background(), item.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	list, err := ledger.CollectMovements(seq)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.MovementTypeInitial, list[0].Type)
	assert.Equal(t, "u1", list[0].CreatedBy)
}

func TestCreateItem_SinStockInicialNoGeneraMovimientos(t *testing.T) {
	e := newEnv(registry.Config{})
	item, err := e.registry.CreateItem(context.Background(), "u1", createReq("Martillo"))
	require.NoError(t, err)
	assert.Zero(t, item.QuantityInStock)

	n, _ := e.store.Movements().CountByItem(context.Background(), item.ID)
	assert.Zero(t, n)
}

func TestCreateItem_Validaciones(t *testing.T) {
	e := newEnv(registry.Config{UniqueName: true, UniquePartNumber: true})

	bad := createReq("")
	_, err := e.registry.CreateItem(context.Background(), "u1", bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = createReq("Sierra")
	bad.UnitCost = decimal.NewFromInt(-1)
	_, err = e.registry.CreateItem(context.Background(), "u1", bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = createReq("Sierra")
	bad.CategoryID = ""
	_, err = e.registry.CreateItem(context.Background(), "u1", bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = createReq("Sierra")
	bad.InitialQuantity = -5
	_, err = e.registry.CreateItem(context.Background(), "u1", bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateItem_Unicidad(t *testing.T) {
	e := newEnv(registry.Config{UniqueName: true, UniquePartNumber: true})
	req := createReq("Llave inglesa")
	req.PartNumber = "LL-12"
	_, err := e.registry.CreateItem(context.Background(), "u1", req)
	require.NoError(t, err)

	_, err = e.registry.CreateItem(context.Background(), "u1", createReq("llave INGLESA"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.ErrorIs(t, err, domain.ErrValidation)

	other := createReq("Llave de tubo")
	other.PartNumber = "LL-12"
	_, err = e.registry.CreateItem(context.Background(), "u1", other)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// Sin la regla, el nombre repetido se acepta
	lax := newEnv(registry.Config{})
	_, err = lax.registry.CreateItem(context.Background(), "u1", createReq("Pinza"))
	require.NoError(t, err)
	_, err = lax.registry.CreateItem(context.Background(), "u1", createReq("Pinza"))
	assert.NoError(t, err)
}

// hookTx envuelve un TxRunner real y decora el repositorio de ítems de cada transacción.
type hookTx struct {
	inner ports.TxRunner
	wrap  func(repository.ItemRepository) repository.ItemRepository
}

func (h hookTx) Run(ctx context.Context, fn func(repository.ItemRepository, repository.MovementRepository, repository.AlertRepository) error) error {
	return h.inner.Run(ctx, func(items repository.ItemRepository, movs repository.MovementRepository, alerts repository.AlertRepository) error {
		return fn(h.wrap(items), movs, alerts)
	})
}

// slowItems demora la búsqueda por nombre para ensanchar la ventana entre el chequeo y el alta.
type slowItems struct {
	repository.ItemRepository
	delay time.Duration
}

func (s slowItems) GetByName(ctx context.Context, name string) (*entity.InventoryItem, error) {
	time.Sleep(s.delay)
	return s.ItemRepository.GetByName(ctx, name)
}

func TestCreateItem_AltasConcurrentesConElMismoNombre(t *testing.T) {
	s := memory.NewStore()
	tx := hookTx{inner: s.TxRunner(), wrap: func(items repository.ItemRepository) repository.ItemRepository {
		return slowItems{ItemRepository: items, delay: 10 * time.Millisecond}
	}}
	r := registry.NewUseCase(tx, s.Items(), nil, registry.Config{UniqueName: true, UniquePartNumber: true}, nil)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := createReq("Taladro")
			if i%2 == 1 {
				req.Name = "TALADRO"
			}
			_, errs[i] = r.CreateItem(context.Background(), "u1", req)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	}
	assert.Equal(t, 1, created)

	all, err := s.Items().List(context.Background(), repository.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateItem_AltasConcurrentesConElMismoNumeroDeParte(t *testing.T) {
	e := newEnv(registry.Config{UniquePartNumber: true})

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := createReq("Broca " + string(rune('A'+i)))
			req.PartNumber = "BR-8"
			_, errs[i] = e.registry.CreateItem(context.Background(), "u1", req)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

// readHookItems ejecuta onRead una sola vez, justo después de leer el ítem dentro de la transacción.
type readHookItems struct {
	repository.ItemRepository
	once   *sync.Once
	onRead func()
}

func (r readHookItems) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	it, err := r.ItemRepository.GetForUpdate(ctx, id)
	r.once.Do(r.onRead)
	return it, err
}

func (r readHookItems) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	it, err := r.ItemRepository.GetByID(ctx, id)
	r.once.Do(r.onRead)
	return it, err
}

func TestUpdateItem_NoPisaElCostoDeUnMovimientoConcurrente(t *testing.T) {
	e := newEnv(registry.Config{UniqueName: true})
	req := createReq("Compresor")
	req.InitialQuantity = 10
	item, err := e.registry.CreateItem(context.Background(), "u1", req)
	require.NoError(t, err)

	// Entre la lectura del update y su escritura entra un ingreso de 10 a 75
	done := make(chan error, 1)
	onRead := func() {
		cost := decimal.NewFromInt(75)
		go func() {
			_, err := e.ledger.ApplyMovement(context.Background(), ledger.MovementInput{
				ItemID: item.ID, Type: entity.MovementTypeIn, Quantity: 10, UnitCost: &cost,
			})
			done <- err
		}()
		time.Sleep(30 * time.Millisecond)
	}
	once := &sync.Once{}
	tx := hookTx{inner: e.store.TxRunner(), wrap: func(items repository.ItemRepository) repository.ItemRepository {
		return readHookItems{ItemRepository: items, once: once, onRead: onRead}
	}}
	r := registry.NewUseCase(tx, e.store.Items(), e.ledger, registry.Config{UniqueName: true}, nil)

	location := "Pasillo 4"
	_, err = r.UpdateItem(context.Background(), item.ID, dto.UpdateItemRequest{Location: &location})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("el movimiento no terminó")
	}

	got, err := e.registry.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.QuantityInStock)
	assert.True(t, got.UnitCost.Equal(decimal.NewFromInt(50)), "costo: %s", got.UnitCost)
	assert.Equal(t, "Pasillo 4", got.Location)
}

func TestUpdateItem_NoTocaLaCantidad(t *testing.T) {
	e := newEnv(registry.Config{UniqueName: true})
	req := createReq("Nivel")
	req.InitialQuantity = 7
	item, err := e.registry.CreateItem(context.Background(), "u1", req)
	require.NoError(t, err)

	name := "Nivel láser"
	threshold := int64(3)
	updated, err := e.registry.UpdateItem(context.Background(), item.ID, dto.UpdateItemRequest{Name: &name, ReorderThreshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, "Nivel láser", updated.Name)
	assert.Equal(t, int64(3), updated.ReorderThreshold)
	assert.Equal(t, int64(7), updated.QuantityInStock)

	empty := ""
	_, err = e.registry.UpdateItem(context.Background(), item.ID, dto.UpdateItemRequest{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.registry.UpdateItem(context.Background(), "nope", dto.UpdateItemRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateReactivate(t *testing.T) {
	e := newEnv(registry.Config{})
	req := createReq("Escalera")
	req.InitialQuantity = 4
	item, err := e.registry.CreateItem(context.Background(), "u1", req)
	require.NoError(t, err)

	require.NoError(t, e.registry.Deactivate(context.Background(), item.ID))
	got, _ := e.registry.GetItem(context.Background(), item.ID)
	assert.False(t, got.IsActive)
	assert.Equal(t, int64(4), got.QuantityInStock)

	_, err = e.ledger.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: item.ID, Type: entity.MovementTypeOut, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, e.registry.Reactivate(context.Background(), item.ID))
	_, err = e.ledger.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: item.ID, Type: entity.MovementTypeOut, Quantity: 1})
	assert.NoError(t, err)

	assert.ErrorIs(t, e.registry.Deactivate(context.Background(), "nope"), domain.ErrNotFound)
}

func TestDeleteItem_ConYSinHistorial(t *testing.T) {
	e := newEnv(registry.Config{})

	clean, err := e.registry.CreateItem(context.Background(), "u1", createReq("Cinta"))
	require.NoError(t, err)
	require.NoError(t, e.registry.DeleteItem(context.Background(), clean.ID))
	_, err = e.registry.GetItem(context.Background(), clean.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	used, err := e.registry.CreateItem(context.Background(), "u1", createReq("Brocha"))
	require.NoError(t, err)
	_, err = e.ledger.ApplyMovement(context.Background(), ledger.MovementInput{ItemID: used.ID, Type: entity.MovementTypeIn, Quantity: 1})
	require.NoError(t, err)
	err = e.registry.DeleteItem(context.Background(), used.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.ErrorIs(t, e.registry.DeleteItem(context.Background(), "nope"), domain.ErrNotFound)
}

func TestListItems_Filtros(t *testing.T) {
	e := newEnv(registry.Config{})
	for name, qty := range map[string]int64{"A": 0, "B": 5, "C": 50} {
		req := createReq(name)
		req.InitialQuantity = qty
		_, err := e.registry.CreateItem(context.Background(), "u1", req)
		require.NoError(t, err)
	}

	all, err := e.registry.ListItems(context.Background(), dto.ItemListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Equal(t, 20, all.Page.Limit)

	low, err := e.registry.ListItems(context.Background(), dto.ItemListRequest{StockStatus: entity.StockStatusLowStock})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "B", low.Items[0].Name)

	_, err = e.registry.ListItems(context.Background(), dto.ItemListRequest{StockStatus: "raro"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValuationReport(t *testing.T) {
	e := newEnv(registry.Config{})
	seed := []struct {
		name, cat string
		qty       int64
		cost      int64
	}{
		{"Tornillo", "ferreteria", 100, 2},
		{"Tuerca", "ferreteria", 0, 1},
		{"Guante", "seguridad", 10, 15},
	}
	for _, s := range seed {
		req := createReq(s.name)
		req.CategoryID = s.cat
		req.UnitCost = decimal.NewFromInt(s.cost)
		req.InitialQuantity = s.qty
		_, err := e.registry.CreateItem(context.Background(), "u1", req)
		require.NoError(t, err)
	}

	report, err := e.registry.ValuationReport(context.Background(), dto.ValuationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Totals.Items)
	assert.Equal(t, int64(110), report.Totals.Quantity)
	assert.True(t, report.Totals.Value.Equal(decimal.NewFromInt(350)), report.Totals.Value.String())
	assert.Len(t, report.ByCategory, 2)

	withZero, err := e.registry.ValuationReport(context.Background(), dto.ValuationRequest{CategoryID: "ferreteria", IncludeZeroStock: true})
	require.NoError(t, err)
	assert.Equal(t, 2, withZero.Totals.Items)
	assert.True(t, withZero.Totals.Value.Equal(decimal.NewFromInt(200)))
}
