package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ShortfallError el carrito no puede servirse completo; no se aplicó ningún movimiento.
type ShortfallError struct {
	Shortfalls []stock.Shortfall
}

func (e *ShortfallError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (requerido %d, disponible %d)", s.ProductID, s.Required, s.Available))
	}
	return "stock insuficiente: " + strings.Join(parts, ", ")
}

func (e *ShortfallError) Is(target error) bool { return target == domain.ErrInsufficientStock }

// Line línea de un ticket de venta o devolución.
type Line struct {
	ProductID string
	LotID     string
	Quantity  int64
}

// CheckoutCommand venta multi-línea.
type CheckoutCommand struct {
	StoreID string
	SaleID  string // vacío = se genera
	ActorID string
	Lines   []Line
}

// ReturnCommand devolución de artículos de una venta.
type ReturnCommand struct {
	StoreID string
	SaleID  string
	ActorID string
	Reason  string
	Lines   []Line
}

// CheckoutResult movimientos generados por la venta.
type CheckoutResult struct {
	SaleID    string
	Movements []*entity.Movement
}

// CheckoutUseCase descuenta stock de un ticket completo o de nada.
type CheckoutUseCase struct {
	txRunner     repository.TxRunner
	availability *stock.AvailabilityChecker
	processor    *stock.MovementProcessor
	log          zerolog.Logger
}

// NewCheckoutUseCase construye el caso de uso de ventas.
func NewCheckoutUseCase(
	txRunner repository.TxRunner,
	availability *stock.AvailabilityChecker,
	processor *stock.MovementProcessor,
	log zerolog.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{txRunner: txRunner, availability: availability, processor: processor, log: log}
}

// Checkout verifica la disponibilidad de todo el carrito y, si alcanza, registra una
// SORTIE_VENTE por línea en una sola transacción (el procesador revalida cada línea).
func (uc *CheckoutUseCase) Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error) {
	if cmd.StoreID == "" || len(cmd.Lines) == 0 {
		return nil, domain.Validationf("store_id y al menos una línea son obligatorios")
	}
	items := make([]stock.AvailabilityItem, 0, len(cmd.Lines))
	for _, l := range cmd.Lines {
		items = append(items, stock.AvailabilityItem{ProductID: l.ProductID, LotID: l.LotID, Quantity: l.Quantity})
	}
	report, err := uc.availability.CheckAvailability(ctx, cmd.StoreID, items)
	if err != nil {
		return nil, err
	}
	if !report.AllAvailable {
		return nil, &ShortfallError{Shortfalls: report.Shortfalls}
	}

	saleID := cmd.SaleID
	if saleID == "" {
		saleID = uuid.New().String()
	}
	movs, err := uc.apply(ctx, cmd.Lines, func(l Line) stock.RecordCommand {
		return stock.RecordCommand{
			StoreID:   cmd.StoreID,
			ProductID: l.ProductID,
			LotID:     l.LotID,
			Type:      entity.MovementTypeSortieVente,
			Quantity:  l.Quantity,
			ActorID:   cmd.ActorID,
			Reason:    "Vente " + saleID,
			SaleID:    saleID,
		}
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_id", saleID).Int("lines", len(movs)).Msg("venta descontada del stock")
	return &CheckoutResult{SaleID: saleID, Movements: movs}, nil
}

// ReturnItems reingresa artículos devueltos (ENTREE_RETOUR) ligados a la venta.
func (uc *CheckoutUseCase) ReturnItems(ctx context.Context, cmd ReturnCommand) ([]*entity.Movement, error) {
	if cmd.StoreID == "" || cmd.SaleID == "" || len(cmd.Lines) == 0 {
		return nil, domain.Validationf("store_id, sale_id y al menos una línea son obligatorios")
	}
	reason := cmd.Reason
	if reason == "" {
		reason = "Retour vente " + cmd.SaleID
	}
	return uc.apply(ctx, cmd.Lines, func(l Line) stock.RecordCommand {
		return stock.RecordCommand{
			StoreID:   cmd.StoreID,
			ProductID: l.ProductID,
			LotID:     l.LotID,
			Type:      entity.MovementTypeEntreeRetour,
			Quantity:  l.Quantity,
			ActorID:   cmd.ActorID,
			Reason:    reason,
			SaleID:    cmd.SaleID,
		}
	})
}

func (uc *CheckoutUseCase) apply(ctx context.Context, lines []Line, build func(Line) stock.RecordCommand) ([]*entity.Movement, error) {
	var movs []*entity.Movement
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		now := time.Now().UTC()
		movs = make([]*entity.Movement, 0, len(lines))
		for _, l := range lines {
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
