package repository

import "context"

// Repos agrupa los repositorios atados a una misma transacción (unidad de trabajo).
// Se pasa explícitamente a las operaciones que se unen a la transacción del llamador.
type Repos struct {
	Movements MovementRepository
	Stock     StockLevelRepository
	Cycles    InventoryCycleRepository
	Lines     InventoryLineRepository
	Products  ProductRepository
	Stores    StoreRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}
