package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// CycleStatus estado de un ciclo de inventario físico.
type CycleStatus string

const (
	CycleStatusBrouillon CycleStatus = "BROUILLON" // borrador: líneas generadas, sin conteo
	CycleStatusEnCours   CycleStatus = "EN_COURS"  // conteo en curso
	CycleStatusTermine   CycleStatus = "TERMINE"   // conteo cerrado, pendiente de validar
	CycleStatusValide    CycleStatus = "VALIDE"    // ajustes aplicados (terminal)
)

func (s CycleStatus) IsValid() bool {
	switch s {
	case CycleStatusBrouillon, CycleStatusEnCours, CycleStatusTermine, CycleStatusValide:
		return true
	}
	return false
}

func (s CycleStatus) String() string { return string(s) }

// CanTransitionTo solo permite avanzar al estado inmediatamente siguiente.
func (s CycleStatus) CanTransitionTo(target CycleStatus) bool {
	switch s {
	case CycleStatusBrouillon:
		return target == CycleStatusEnCours
	case CycleStatusEnCours:
		return target == CycleStatusTermine
	case CycleStatusTermine:
		return target == CycleStatusValide
	}
	return false
}

// InventoryCycle ciclo de conteo físico de una tienda.
type InventoryCycle struct {
	ID          string
	StoreID     string
	Year        int
	Number      int // secuencial por tienda y año
	Status      CycleStatus
	Comment     string
	CreatedBy   string
	CreatedAt   time.Time
	StartedAt   *time.Time
	StartedBy   string
	EndedAt     *time.Time
	ValidatedAt *time.Time
	ValidatedBy string
	UpdatedAt   time.Time
}

// NewInventoryCycle crea un ciclo en BROUILLON.
func NewInventoryCycle(id, storeID string, year, number int, comment, actorID string, now time.Time) *InventoryCycle {
	return &InventoryCycle{
		ID:        id,
		StoreID:   storeID,
		Year:      year,
		Number:    number,
		Status:    CycleStatusBrouillon,
		Comment:   comment,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reference número legible del ciclo, p.ej. INV-2026-0007.
func (c *InventoryCycle) Reference() string {
	return fmt.Sprintf("INV-%d-%04d", c.Year, c.Number)
}

// Require devuelve InvalidStateError si el ciclo no está en el estado esperado.
func (c *InventoryCycle) Require(operation string, status CycleStatus) error {
	if c.Status != status {
		return &domain.InvalidStateError{Operation: operation, Current: c.Status.String()}
	}
	return nil
}

func (c *InventoryCycle) transition(operation string, target CycleStatus, now time.Time) error {
	if !c.Status.CanTransitionTo(target) {
		return &domain.InvalidStateError{Operation: operation, Current: c.Status.String()}
	}
	c.Status = target
	c.UpdatedAt = now
	return nil
}

// Start BROUILLON → EN_COURS.
func (c *InventoryCycle) Start(actorID string, now time.Time) error {
	if err := c.transition("start", CycleStatusEnCours, now); err != nil {
		return err
	}
	c.StartedAt = &now
	c.StartedBy = actorID
	return nil
}

// Finalize EN_COURS → TERMINE.
func (c *InventoryCycle) Finalize(now time.Time) error {
	if err := c.transition("finalize", CycleStatusTermine, now); err != nil {
		return err
	}
	c.EndedAt = &now
	return nil
}

// Validate TERMINE → VALIDE.
func (c *InventoryCycle) Validate(actorID string, now time.Time) error {
	if err := c.transition("validate", CycleStatusValide, now); err != nil {
		return err
	}
	c.ValidatedAt = &now
	c.ValidatedBy = actorID
	return nil
}

// CheckDeletable solo los borradores se pueden eliminar.
func (c *InventoryCycle) CheckDeletable() error {
	if c.Status != CycleStatusBrouillon {
		return &domain.CannotDeleteError{CycleID: c.ID, Status: c.Status.String()}
	}
	return nil
}
