package entity

import "time"

// MovementType tipo de movimiento del libro de stock.
type MovementType string

const (
	MovementTypeEntreeAchat      MovementType = "ENTREE_ACHAT"      // recepción de compra
	MovementTypeEntreeRetour     MovementType = "ENTREE_RETOUR"     // devolución de cliente
	MovementTypeSortieVente      MovementType = "SORTIE_VENTE"      // venta
	MovementTypeSortiePerissable MovementType = "SORTIE_PERISSABLE" // merma por caducidad
	MovementTypeAjustement       MovementType = "AJUSTEMENT"        // ajuste (dirección explícita)
	MovementTypeTransfert        MovementType = "TRANSFERT"         // traslado entre tiendas (dirección explícita)
)

// Direction sentido del movimiento. Nunca se deduce del signo de la cantidad.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// IsValid indica si el tipo es conocido.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntreeAchat, MovementTypeEntreeRetour, MovementTypeSortieVente,
		MovementTypeSortiePerissable, MovementTypeAjustement, MovementTypeTransfert:
		return true
	}
	return false
}

// FixedDirection devuelve la dirección implícita del tipo.
// AJUSTEMENT y TRANSFERT no tienen dirección fija: la suministra quien llama.
func (t MovementType) FixedDirection() (Direction, bool) {
	switch t {
	case MovementTypeEntreeAchat, MovementTypeEntreeRetour:
		return DirectionIn, true
	case MovementTypeSortieVente, MovementTypeSortiePerissable:
		return DirectionOut, true
	}
	return "", false
}

func (d Direction) IsValid() bool { return d == DirectionIn || d == DirectionOut }

// Movement entrada inmutable del libro de stock. Quantity siempre > 0.
type Movement struct {
	ID            string
	StoreID       string
	ProductID     string
	LotID         string
	Type          MovementType
	Direction     Direction
	Quantity      int64
	QuantityAfter int64 // saldo materializado tras aplicar el movimiento
	ActorID       string
	Reason        string
	SaleID        string
	PurchaseID    string
	CreatedAt     time.Time
}

// Key clave de stock afectada por el movimiento.
func (m *Movement) Key() StockKey {
	return StockKey{StoreID: m.StoreID, ProductID: m.ProductID, LotID: m.LotID}
}

// SignedDelta devuelve +Quantity para entradas y -Quantity para salidas.
func (m *Movement) SignedDelta() int64 {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}
