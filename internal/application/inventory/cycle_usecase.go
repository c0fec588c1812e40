package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const defaultNotifyTimeout = 5 * time.Second

// CycleUseCase orquesta el inventario físico BROUILLON → EN_COURS → TERMINE → VALIDE.
// Cada operación multi-fila es una sola transacción; las transiciones bloquean la fila del ciclo.
type CycleUseCase struct {
	txRunner      repository.TxRunner
	cycles        repository.InventoryCycleRepository
	lines         repository.InventoryLineRepository
	processor     *stock.MovementProcessor
	notifier      Notifier
	notifyTimeout time.Duration
	log           zerolog.Logger
}

// NewCycleUseCase construye el caso de uso. notifier puede ser nil.
func NewCycleUseCase(
	txRunner repository.TxRunner,
	cycles repository.InventoryCycleRepository,
	lines repository.InventoryLineRepository,
	processor *stock.MovementProcessor,
	notifier Notifier,
	notifyTimeout time.Duration,
	log zerolog.Logger,
) *CycleUseCase {
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &CycleUseCase{
		txRunner:      txRunner,
		cycles:        cycles,
		lines:         lines,
		processor:     processor,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		log:           log.With().Str("component", "inventory_cycle").Logger(),
	}
}

// CycleDetail ciclo con sus líneas.
type CycleDetail struct {
	Cycle *entity.InventoryCycle
	Lines []*entity.InventoryLine
}

// CreateCycleInput entrada de Create. ProductIDs vacío = todos los productos con stock.
type CreateCycleInput struct {
	StoreID    string
	ProductIDs []string
	Comment    string
	ActorID    string
}

// Create genera el ciclo en BROUILLON con un número secuencial del año y congela el stock
// vivo de cada clave existente en líneas sin contar: una por lote para productos con
// caducidad, una por producto en los demás.
func (uc *CycleUseCase) Create(ctx context.Context, in CreateCycleInput) (*CycleDetail, error) {
	if in.StoreID == "" {
		return nil, domain.Validationf("store_id obligatorio")
	}
	subset := dedupe(in.ProductIDs)
	now := time.Now().UTC()

	var detail CycleDetail
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		store, err := repos.Stores.GetByID(ctx, in.StoreID)
		if err != nil {
			return err
		}
		if store == nil {
			return domain.NotFoundf("tienda %s", in.StoreID)
		}
		if len(subset) > 0 {
			found, err := repos.Products.ListByIDs(ctx, subset)
			if err != nil {
				return err
			}
			if len(found) != len(subset) {
				return domain.NotFoundf("uno o más productos del subconjunto no existen")
			}
		}

		levels, err := repos.Stock.ListForSnapshot(ctx, in.StoreID, subset)
		if err != nil {
			return err
		}
		products, err := productsByID(ctx, repos.Products, levels)
		if err != nil {
			return err
		}

		number, err := repos.Cycles.NextNumber(ctx, in.StoreID, now.Year())
		if err != nil {
			return err
		}
		cycle := entity.NewInventoryCycle(uuid.New().String(), in.StoreID, now.Year(), number, in.Comment, in.ActorID, now)

		lines := make([]*entity.InventoryLine, 0, len(levels))
		for _, lvl := range levels {
			p, ok := products[lvl.ProductID]
			if !ok {
				return domain.NotFoundf("producto %s", lvl.ProductID)
			}
			// La clave de la línea la decide la configuración del producto.
			if p.TracksLots != lvl.Key().HasLot() {
				uc.log.Warn().Str("key", lvl.Key().String()).Msg("fila de stock incompatible con la configuración del producto, omitida")
				continue
			}
			lines = append(lines, entity.NewInventoryLine(uuid.New().String(), cycle.ID, lvl.ProductID, lvl.LotID, lvl.Quantity, p.UnitCost, now))
		}
		if len(lines) == 0 {
			return domain.Validationf("no hay stock registrado que inventariar en la tienda %s", in.StoreID)
		}

		if err := repos.Cycles.Create(ctx, cycle); err != nil {
			return err
		}
		if err := repos.Lines.CreateBatch(ctx, lines); err != nil {
			return err
		}
		detail = CycleDetail{Cycle: cycle, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("cycle_id", detail.Cycle.ID).
		Str("reference", detail.Cycle.Reference()).
		Int("lines", len(detail.Lines)).
		Msg("ciclo de inventario creado")
	uc.notify(ctx, EventCycleCreated, detail.Cycle, in.ActorID, len(detail.Lines), 0)
	return &detail, nil
}

// Start BROUILLON → EN_COURS. Vuelve a leer el stock vivo de cada línea y sobrescribe la
// cantidad teórica, para absorber la deriva entre el borrador y el inicio del conteo.
func (uc *CycleUseCase) Start(ctx context.Context, cycleID, actorID string) (*CycleDetail, error) {
	now := time.Now().UTC()
	var detail CycleDetail
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		cycle, err := lockCycle(ctx, repos, cycleID)
		if err != nil {
			return err
		}
		if err := cycle.Start(actorID, now); err != nil {
			return err
		}
		lines, err := repos.Lines.ListByCycle(ctx, cycle.ID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			live, err := repos.Stock.Get(ctx, l.Key(cycle.StoreID))
			if err != nil {
				return err
			}
			var qty int64
			if live != nil {
				qty = live.Quantity
			}
			l.Refreeze(qty, now)
			if err := repos.Lines.Update(ctx, l); err != nil {
				return err
			}
		}
		if err := repos.Cycles.Update(ctx, cycle); err != nil {
			return err
		}
		detail = CycleDetail{Cycle: cycle, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("cycle_id", cycleID).Str("actor_id", actorID).Msg("conteo iniciado")
	uc.notify(ctx, EventCycleStarted, detail.Cycle, actorID, len(detail.Lines), 0)
	return &detail, nil
}

// RecordCount registra la cantidad contada de una línea (solo EN_COURS). Un nuevo conteo
// sobrescribe el anterior.
func (uc *CycleUseCase) RecordCount(ctx context.Context, cycleID, lineID string, counted int64) (*entity.InventoryLine, error) {
	if counted < 0 {
		return nil, domain.Validationf("cantidad contada negativa: %d", counted)
	}
	now := time.Now().UTC()
	var line *entity.InventoryLine
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		cycle, err := lockCycle(ctx, repos, cycleID)
		if err != nil {
			return err
		}
		if err := cycle.Require("recordCount", entity.CycleStatusEnCours); err != nil {
			return err
		}
		l, err := repos.Lines.GetByID(ctx, lineID)
		if err != nil {
			return err
		}
		if l == nil || l.CycleID != cycle.ID {
			return domain.NotFoundf("línea %s en ciclo %s", lineID, cycleID)
		}
		if err := l.RecordCount(counted, now); err != nil {
			return err
		}
		if err := repos.Lines.Update(ctx, l); err != nil {
			return err
		}
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Finalize EN_COURS → TERMINE. No exige cobertura completa: las líneas sin contar
// conservan implícitamente su cantidad teórica y no generan ajuste.
func (uc *CycleUseCase) Finalize(ctx context.Context, cycleID string) (*entity.InventoryCycle, error) {
	now := time.Now().UTC()
	var (
		cycle     *entity.InventoryCycle
		uncounted int
	)
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		c, err := lockCycle(ctx, repos, cycleID)
		if err != nil {
			return err
		}
		if err := c.Finalize(now); err != nil {
			return err
		}
		lines, err := repos.Lines.ListByCycle(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if !l.IsCounted {
				uncounted++
			}
		}
		if err := repos.Cycles.Update(ctx, c); err != nil {
			return err
		}
		cycle = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := uc.log.Info()
	if uncounted > 0 {
		ev = uc.log.Warn()
	}
	ev.Str("cycle_id", cycleID).Int("uncounted_lines", uncounted).Msg("conteo terminado")
	return cycle, nil
}

// Adjustment movimiento de ajuste generado por una línea contada.
type Adjustment struct {
	LineID   string
	Key      entity.StockKey
	Before   int64
	After    int64
	Movement *entity.Movement
}

// ValidationResult resultado de Validate.
type ValidationResult struct {
	Cycle       *entity.InventoryCycle
	Adjustments []Adjustment
	TotalLines  int
	Skipped     int // líneas sin contar
}

// Validate TERMINE → VALIDE. Para cada línea contada compara con el stock vivo actual
// (no con el snapshot) y emite un AJUSTEMENT por la diferencia. Las líneas sin contar no
// tocan el stock. Todos los ajustes y el cambio de estado se confirman juntos.
func (uc *CycleUseCase) Validate(ctx context.Context, cycleID, actorID string) (*ValidationResult, error) {
	now := time.Now().UTC()
	var res ValidationResult
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		cycle, err := lockCycle(ctx, repos, cycleID)
		if err != nil {
			return err
		}
		if err := cycle.Validate(actorID, now); err != nil {
			return err
		}
		lines, err := repos.Lines.ListByCycle(ctx, cycle.ID)
		if err != nil {
			return err
		}
		res = ValidationResult{Cycle: cycle, Adjustments: []Adjustment{}, TotalLines: len(lines)}
		for _, l := range lines {
			if !l.IsCounted || l.CountedQuantity == nil {
				res.Skipped++
				continue
			}
			adj, err := uc.adjustLine(ctx, repos, cycle, l, actorID, now)
			if err != nil {
				return err
			}
			if adj != nil {
				res.Adjustments = append(res.Adjustments, *adj)
			}
		}
		return repos.Cycles.Update(ctx, cycle)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("cycle_id", cycleID).
		Str("reference", res.Cycle.Reference()).
		Int("adjustments", len(res.Adjustments)).
		Int("uncounted_lines", res.Skipped).
		Msg("inventario validado")
	uc.notify(ctx, EventCycleValidated, res.Cycle, actorID, res.TotalLines, len(res.Adjustments))
	return &res, nil
}

func (uc *CycleUseCase) adjustLine(
	ctx context.Context,
	repos repository.Repos,
	cycle *entity.InventoryCycle,
	l *entity.InventoryLine,
	actorID string,
	now time.Time,
) (*Adjustment, error) {
	key := l.Key(cycle.StoreID)
	live, err := repos.Stock.GetForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	var before int64
	if live != nil {
		before = live.Quantity
	}
	counted := *l.CountedQuantity
	diff := counted - before
	if diff == 0 {
		return nil, nil
	}
	cmd := stock.RecordCommand{
		StoreID:   key.StoreID,
		ProductID: key.ProductID,
		LotID:     key.LotID,
		Type:      entity.MovementTypeAjustement,
		Direction: entity.DirectionIn,
		Quantity:  diff,
		ActorID:   actorID,
		Reason:    fmt.Sprintf("Inventaire %s : %d -> %d", cycle.Reference(), before, counted),
	}
	if diff < 0 {
		cmd.Direction = entity.DirectionOut
		cmd.Quantity = -diff
	}
	r, err := uc.processor.RecordInTx(ctx, repos, cmd, now)
	if err != nil {
		return nil, err
	}
	return &Adjustment{LineID: l.ID, Key: key, Before: before, After: r.StockLevel.Quantity, Movement: r.Movement}, nil
}

// GetStats avance y valorización del ciclo.
func (uc *CycleUseCase) GetStats(ctx context.Context, cycleID string) (*entity.CycleStats, error) {
	cycle, err := uc.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, domain.NotFoundf("ciclo %s", cycleID)
	}
	lines, err := uc.lines.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	st := entity.ComputeCycleStats(lines)
	return &st, nil
}

// Delete elimina un ciclo y sus líneas; solo en BROUILLON.
func (uc *CycleUseCase) Delete(ctx context.Context, cycleID string) error {
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		cycle, err := lockCycle(ctx, repos, cycleID)
		if err != nil {
			return err
		}
		if err := cycle.CheckDeletable(); err != nil {
			return err
		}
		if err := repos.Lines.DeleteByCycle(ctx, cycle.ID); err != nil {
			return err
		}
		return repos.Cycles.Delete(ctx, cycle.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("cycle_id", cycleID).Msg("ciclo eliminado")
	return nil
}

// Get devuelve el ciclo con sus líneas.
func (uc *CycleUseCase) Get(ctx context.Context, cycleID string) (*CycleDetail, error) {
	cycle, err := uc.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, domain.NotFoundf("ciclo %s", cycleID)
	}
	lines, err := uc.lines.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	return &CycleDetail{Cycle: cycle, Lines: lines}, nil
}

// List ciclos de una tienda, más recientes primero.
func (uc *CycleUseCase) List(ctx context.Context, filter repository.CycleFilter) ([]*entity.InventoryCycle, error) {
	if filter.StoreID == "" {
		return nil, domain.Validationf("store_id obligatorio")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.Validationf("estado desconocido %q", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.cycles.List(ctx, filter)
}

// notify despacha el evento tras el commit con un timeout propio; los errores solo se registran.
func (uc *CycleUseCase) notify(ctx context.Context, typ string, cycle *entity.InventoryCycle, actorID string, lines, adjustments int) {
	if uc.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.notifyTimeout)
	defer cancel()
	ev := CycleEvent{
		Type:        typ,
		CycleID:     cycle.ID,
		StoreID:     cycle.StoreID,
		Reference:   cycle.Reference(),
		Status:      cycle.Status.String(),
		ActorID:     actorID,
		Lines:       lines,
		Adjustments: adjustments,
		OccurredAt:  time.Now().UTC(),
	}
	if err := uc.notifier.Notify(nctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", typ).Str("cycle_id", cycle.ID).Msg("notificación de inventario fallida")
	}
}

func lockCycle(ctx context.Context, repos repository.Repos, cycleID string) (*entity.InventoryCycle, error) {
	cycle, err := repos.Cycles.GetForUpdate(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, domain.NotFoundf("ciclo %s", cycleID)
	}
	return cycle, nil
}

func productsByID(ctx context.Context, products repository.ProductRepository, levels []*entity.StockLevel) (map[string]*entity.Product, error) {
	ids := make([]string, 0, len(levels))
	for _, l := range levels {
		ids = append(ids, l.ProductID)
	}
	ids = dedupe(ids)
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
