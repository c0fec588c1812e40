package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

// CycleStats avance y valorización de un ciclo.
type CycleStats struct {
	TotalLines        int
	CountedLines      int
	Progression       int // porcentaje redondeado
	LinesWithVariance int
	Surplus           decimal.Decimal // suma de valores de diferencia positivos
	Shortage          decimal.Decimal // suma de |valores de diferencia negativos|
}

// ComputeCycleStats calcula las estadísticas sobre las líneas de un ciclo.
func ComputeCycleStats(lines []*InventoryLine) CycleStats {
	st := CycleStats{
		TotalLines: len(lines),
		Surplus:    decimal.Zero,
		Shortage:   decimal.Zero,
	}
	for _, l := range lines {
		if !l.IsCounted {
			continue
		}
		st.CountedLines++
		if l.Variance != 0 {
			st.LinesWithVariance++
		}
		switch {
		case l.VarianceValue.IsPositive():
			st.Surplus = st.Surplus.Add(l.VarianceValue)
		case l.VarianceValue.IsNegative():
			st.Shortage = st.Shortage.Add(l.VarianceValue.Abs())
		}
	}
	if st.TotalLines > 0 {
		st.Progression = int(math.Round(float64(st.CountedLines) * 100 / float64(st.TotalLines)))
	}
	return st
}
