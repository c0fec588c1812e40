// Package valuation servicios de dominio para valorizar el stock.
package valuation

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada:
// (enStock*costoActual + recibido*costoRecibido) / (enStock + recibido).
// Un stock previo negativo o nulo no pondera: el costo pasa a ser el recibido.
func WeightedAverageCost(onHand int64, currentCost decimal.Decimal, received int64, receivedCost decimal.Decimal) decimal.Decimal {
	if received <= 0 {
		return currentCost
	}
	if onHand <= 0 {
		return receivedCost
	}
	total := decimal.NewFromInt(onHand + received)
	num := decimal.NewFromInt(onHand).Mul(currentCost).Add(decimal.NewFromInt(received).Mul(receivedCost))
	return num.DivRound(total, 4)
}
