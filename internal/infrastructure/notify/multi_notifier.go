package notify

import (
	"context"
	"errors"
	"io"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.Notifier = MultiNotifier(nil)

// MultiNotifier reenvía el evento a todos los notificadores y agrega los errores.
type MultiNotifier []inventory.Notifier

func (m MultiNotifier) Notify(ctx context.Context, e inventory.CycleEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close cierra los notificadores que mantienen recursos (io.Closer).
func (m MultiNotifier) Close() error {
	var errs []error
	for _, n := range m {
		if c, ok := n.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
