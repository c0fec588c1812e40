package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.Notifier = (*LogNotifier)(nil)

// LogNotifier escribe los eventos de ciclo en el log estructurado.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, e inventory.CycleEvent) error {
	n.log.Info().
		Str("event", e.Type).
		Str("cycle_id", e.CycleID).
		Str("store_id", e.StoreID).
		Str("reference", e.Reference).
		Str("status", e.Status).
		Int("lines", e.Lines).
		Int("adjustments", e.Adjustments).
		Msg("evento de inventario")
	return nil
}
