package stock

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MovementProcessor valida y aplica movimientos de stock: inserta el movimiento en el libro
// y actualiza la fila materializada en la misma transacción. No es idempotente: repetir una
// llamada idéntica aplica el delta dos veces.
type MovementProcessor struct {
	txRunner  repository.TxRunner
	movements repository.MovementRepository
	log       zerolog.Logger
}

// NewMovementProcessor construye el procesador.
func NewMovementProcessor(txRunner repository.TxRunner, movements repository.MovementRepository, log zerolog.Logger) *MovementProcessor {
	return &MovementProcessor{
		txRunner:  txRunner,
		movements: movements,
		log:       log.With().Str("component", "movement_processor").Logger(),
	}
}

// RecordCommand entrada de un movimiento.
// Direction es obligatoria para AJUSTEMENT y TRANSFERT; para los demás tipos debe ir vacía
// o coincidir con la dirección del tipo.
type RecordCommand struct {
	StoreID    string
	ProductID  string
	LotID      string
	Type       entity.MovementType
	Direction  entity.Direction
	Quantity   int64
	ActorID    string
	Reason     string
	SaleID     string
	PurchaseID string
}

// Key clave de stock afectada.
func (c RecordCommand) Key() entity.StockKey {
	return entity.StockKey{StoreID: c.StoreID, ProductID: c.ProductID, LotID: c.LotID}
}

// direction valida la forma del comando y resuelve su dirección.
func (c RecordCommand) direction() (entity.Direction, error) {
	if c.StoreID == "" || c.ProductID == "" {
		return "", domain.Validationf("store_id y product_id son obligatorios")
	}
	if c.Quantity <= 0 {
		return "", domain.Validationf("la cantidad debe ser un entero positivo, recibido %d", c.Quantity)
	}
	if !c.Type.IsValid() {
		return "", domain.Validationf("tipo de movimiento desconocido %q", c.Type)
	}
	if fixed, ok := c.Type.FixedDirection(); ok {
		if c.Direction != "" && c.Direction != fixed {
			return "", domain.Validationf("dirección %s incompatible con %s", c.Direction, c.Type)
		}
		return fixed, nil
	}
	if !c.Direction.IsValid() {
		return "", domain.Validationf("%s requiere dirección IN u OUT", c.Type)
	}
	return c.Direction, nil
}

// RecordResult movimiento insertado y estado de la fila tras aplicarlo.
type RecordResult struct {
	Movement   *entity.Movement
	StockLevel *entity.StockLevel
}

// Record aplica un movimiento en su propia transacción.
func (p *MovementProcessor) Record(ctx context.Context, cmd RecordCommand) (*RecordResult, error) {
	if _, err := cmd.direction(); err != nil {
		return nil, err
	}
	var res *RecordResult
	err := p.txRunner.Run(ctx, func(repos repository.Repos) error {
		r, err := p.RecordInTx(ctx, repos, cmd, time.Now().UTC())
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.log.Debug().
		Str("movement_id", res.Movement.ID).
		Str("key", cmd.Key().String()).
		Str("type", string(cmd.Type)).
		Int64("quantity", cmd.Quantity).
		Int64("balance", res.StockLevel.Quantity).
		Msg("movimiento registrado")
	return res, nil
}

// RecordInTx aplica el movimiento usando los repositorios de la transacción del llamador
// (checkout de ventas, recepción de compras, validación de inventario).
func (p *MovementProcessor) RecordInTx(ctx context.Context, repos repository.Repos, cmd RecordCommand, now time.Time) (*RecordResult, error) {
	dir, err := cmd.direction()
	if err != nil {
		return nil, err
	}
	store, err := repos.Stores.GetByID(ctx, cmd.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.NotFoundf("tienda %s", cmd.StoreID)
	}
	product, err := repos.Products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFoundf("producto %s", cmd.ProductID)
	}
	if product.TracksLots != (cmd.LotID != "") {
		if product.TracksLots {
			return nil, domain.Validationf("el producto %s se gestiona por lote: lot_id obligatorio", product.ID)
		}
		return nil, domain.Validationf("el producto %s no se gestiona por lote", product.ID)
	}

	key := cmd.Key()
	var level *entity.StockLevel
	if dir == entity.DirectionIn {
		current, err := repos.Stock.GetForUpdate(ctx, key)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Quantity > math.MaxInt64-cmd.Quantity {
			return nil, domain.Validationf("la entrada de %d desborda el stock de %s (actual %d)", cmd.Quantity, key, current.Quantity)
		}
		level, err = repos.Stock.Increment(ctx, key, cmd.Quantity, product.MinimumThreshold)
		if err != nil {
			return nil, err
		}
	} else {
		current, err := repos.Stock.GetForUpdate(ctx, key)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.NotFoundf("sin stock registrado para %s", key)
		}
		if current.Quantity < cmd.Quantity {
			return nil, &domain.InsufficientStockError{Key: key.String(), Current: current.Quantity, Requested: cmd.Quantity}
		}
		level, err = repos.Stock.Decrement(ctx, key, cmd.Quantity)
		if err != nil {
			return nil, err
		}
		if level == nil {
			// La guarda quantity >= solicitada falló entre la lectura y la escritura.
			return nil, &domain.InsufficientStockError{Key: key.String(), Current: current.Quantity, Requested: cmd.Quantity}
		}
	}

	mov := &entity.Movement{
		ID:            uuid.New().String(),
		StoreID:       cmd.StoreID,
		ProductID:     cmd.ProductID,
		LotID:         cmd.LotID,
		Type:          cmd.Type,
		Direction:     dir,
		Quantity:      cmd.Quantity,
		QuantityAfter: level.Quantity,
		ActorID:       cmd.ActorID,
		Reason:        cmd.Reason,
		SaleID:        cmd.SaleID,
		PurchaseID:    cmd.PurchaseID,
		CreatedAt:     now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return &RecordResult{Movement: mov, StockLevel: level}, nil
}

// TransferCommand traslado de stock entre dos tiendas.
type TransferCommand struct {
	FromStoreID string
	ToStoreID   string
	ProductID   string
	LotID       string
	Quantity    int64
	ActorID     string
	Reason      string
}

// TransferResult salida de la tienda origen y entrada en la destino.
type TransferResult struct {
	Out *RecordResult
	In  *RecordResult
}

// Transfer registra un TRANSFERT de salida y uno de entrada en una sola transacción.
func (p *MovementProcessor) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	if cmd.FromStoreID == "" || cmd.ToStoreID == "" {
		return nil, domain.Validationf("tiendas origen y destino obligatorias")
	}
	if cmd.FromStoreID == cmd.ToStoreID {
		return nil, domain.Validationf("origen y destino deben ser distintos")
	}
	base := RecordCommand{
		ProductID: cmd.ProductID,
		LotID:     cmd.LotID,
		Type:      entity.MovementTypeTransfert,
		Quantity:  cmd.Quantity,
		ActorID:   cmd.ActorID,
		Reason:    cmd.Reason,
	}
	out := base
	out.StoreID = cmd.FromStoreID
	out.Direction = entity.DirectionOut
	in := base
	in.StoreID = cmd.ToStoreID
	in.Direction = entity.DirectionIn

	var res TransferResult
	err := p.txRunner.Run(ctx, func(repos repository.Repos) error {
		now := time.Now().UTC()
		var err error
		if res.Out, err = p.RecordInTx(ctx, repos, out, now); err != nil {
			return err
		}
		res.In, err = p.RecordInTx(ctx, repos, in, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// History lista movimientos del libro, más recientes primero.
func (p *MovementProcessor) History(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	if filter.StoreID == "" {
		return nil, domain.Validationf("store_id obligatorio")
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return p.movements.List(ctx, filter)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
