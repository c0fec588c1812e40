package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Tipos de evento emitidos por el ciclo de inventario.
const (
	EventCycleCreated   = "inventory.cycle.created"
	EventCycleStarted   = "inventory.cycle.started"
	EventCycleValidated = "inventory.cycle.validated"
)

// CycleEvent notificación enviada a colaboradores tras una transición confirmada.
type CycleEvent struct {
	Type        string    `json:"type"`
	CycleID     string    `json:"cycle_id"`
	StoreID     string    `json:"store_id"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	ActorID     string    `json:"actor_id,omitempty"`
	Lines       int       `json:"lines"`
	Adjustments int       `json:"adjustments"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier despacha eventos de ciclo (fire-and-forget). Un error se registra en el log
// pero nunca deshace la transacción ya confirmada.
type Notifier interface {
	Notify(ctx context.Context, event CycleEvent) error
}

// ReportRow fila del informe de diferencias.
type ReportRow struct {
	Line        *entity.InventoryLine
	SKU         string
	ProductName string
}

// ReportData datos del informe de un ciclo.
type ReportData struct {
	Cycle     *entity.InventoryCycle
	StoreName string
	Rows      []ReportRow
	Stats     entity.CycleStats
}

// ReportGenerator genera la representación del informe (PDF).
type ReportGenerator interface {
	GenerateCycleReport(ctx context.Context, data *ReportData) ([]byte, error)
}
