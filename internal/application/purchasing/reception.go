package purchasing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valuation"
)

// ReceptionLine línea recibida de una orden de compra.
// UnitCost, si viene, revaloriza el producto con costo promedio ponderado.
type ReceptionLine struct {
	ProductID string
	LotID     string
	Quantity  int64
	UnitCost  *decimal.Decimal
}

// ReceptionCommand recepción (o anulación) de una orden de compra.
type ReceptionCommand struct {
	StoreID    string
	PurchaseID string
	ActorID    string
	Lines      []ReceptionLine
}

func (c ReceptionCommand) validate() error {
	if c.StoreID == "" || c.PurchaseID == "" || len(c.Lines) == 0 {
		return domain.Validationf("store_id, purchase_id y al menos una línea son obligatorios")
	}
	return nil
}

// ReceptionUseCase ingresa mercadería recibida y revierte recepciones anuladas.
type ReceptionUseCase struct {
	txRunner  repository.TxRunner
	processor *stock.MovementProcessor
	log       zerolog.Logger
}

// NewReceptionUseCase construye el caso de uso de compras.
func NewReceptionUseCase(txRunner repository.TxRunner, processor *stock.MovementProcessor, log zerolog.Logger) *ReceptionUseCase {
	return &ReceptionUseCase{txRunner: txRunner, processor: processor, log: log}
}

// Receive registra un ENTREE_ACHAT por línea, todas en una transacción.
func (uc *ReceptionUseCase) Receive(ctx context.Context, cmd ReceptionCommand) ([]*entity.Movement, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	for _, l := range cmd.Lines {
		if l.UnitCost != nil && l.UnitCost.IsNegative() {
			return nil, domain.Validationf("unit_cost negativo para %s", l.ProductID)
		}
	}
	movs, err := uc.apply(ctx, cmd, uc.revalue, func(l ReceptionLine) stock.RecordCommand {
		return stock.RecordCommand{
			StoreID:    cmd.StoreID,
			ProductID:  l.ProductID,
			LotID:      l.LotID,
			Type:       entity.MovementTypeEntreeAchat,
			Quantity:   l.Quantity,
			ActorID:    cmd.ActorID,
			Reason:     "Réception achat " + cmd.PurchaseID,
			PurchaseID: cmd.PurchaseID,
		}
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("purchase_id", cmd.PurchaseID).Int("lines", len(movs)).Msg("recepción registrada")
	return movs, nil
}

// CancelReception revierte una recepción con un AJUSTEMENT de salida por línea. Falla con
// stock insuficiente si la mercadería ya se vendió; en ese caso nada cambia.
func (uc *ReceptionUseCase) CancelReception(ctx context.Context, cmd ReceptionCommand) ([]*entity.Movement, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	movs, err := uc.apply(ctx, cmd, nil, func(l ReceptionLine) stock.RecordCommand {
		return stock.RecordCommand{
			StoreID:    cmd.StoreID,
			ProductID:  l.ProductID,
			LotID:      l.LotID,
			Type:       entity.MovementTypeAjustement,
			Direction:  entity.DirectionOut,
			Quantity:   l.Quantity,
			ActorID:    cmd.ActorID,
			Reason:     "Annulation réception " + cmd.PurchaseID,
			PurchaseID: cmd.PurchaseID,
		}
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("purchase_id", cmd.PurchaseID).Int("lines", len(movs)).Msg("recepción anulada")
	return movs, nil
}

// revalue aplica el costo promedio ponderado antes de ingresar la línea (stock previo de todas las tiendas).
func (uc *ReceptionUseCase) revalue(ctx context.Context, repos repository.Repos, l ReceptionLine) error {
	if l.UnitCost == nil || l.Quantity <= 0 {
		return nil
	}
	product, err := repos.Products.GetByID(ctx, l.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.NotFoundf("producto %s", l.ProductID)
	}
	onHand, err := repos.Stock.TotalOnHand(ctx, l.ProductID)
	if err != nil {
		return err
	}
	cost := valuation.WeightedAverageCost(onHand, product.UnitCost, l.Quantity, *l.UnitCost)
	if cost.Equal(product.UnitCost) {
		return nil
	}
	uc.log.Debug().
		Str("product_id", l.ProductID).
		Str("from", product.UnitCost.String()).
		Str("to", cost.String()).
		Msg("costo unitario revalorizado")
	return repos.Products.UpdateUnitCost(ctx, l.ProductID, cost)
}

type lineHook func(ctx context.Context, repos repository.Repos, l ReceptionLine) error

func (uc *ReceptionUseCase) apply(ctx context.Context, cmd ReceptionCommand, before lineHook, build func(ReceptionLine) stock.RecordCommand) ([]*entity.Movement, error) {
	var movs []*entity.Movement
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		now := time.Now().UTC()
		movs = make([]*entity.Movement, 0, len(cmd.Lines))
		for _, l := range cmd.Lines {
			if before != nil {
				if err := before(ctx, repos, l); err != nil {
					return err
				}
			}
			r, err := uc.processor.RecordInTx(ctx, repos, build(l), now)
			if err != nil {
				return err
			}
			movs = append(movs, r.Movement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movs, nil
}
