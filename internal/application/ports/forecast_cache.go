package ports

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ForecastCache puerto de caché de pronósticos.
// La clave ya incluye todo lo que determina el resultado (ítem, último seq, período, parámetros),
// así que una entrada nunca queda obsoleta: solo expira por TTL.
type ForecastCache interface {
	// Get devuelve (nil, false, nil) si la clave no existe.
	Get(ctx context.Context, key string) (*entity.ForecastResult, bool, error)
	Set(ctx context.Context, key string, result *entity.ForecastResult) error
}

// NoopForecastCache no guarda nada. Se usa cuando no hay Redis configurado.
type NoopForecastCache struct{}

func (NoopForecastCache) Get(context.Context, string) (*entity.ForecastResult, bool, error) {
	return nil, false, nil
}

func (NoopForecastCache) Set(context.Context, string, *entity.ForecastResult) error { return nil }
