// Package advisor turns a quote's cost breakdown into a pricing
// recommendation. Everything is derived from the job's own numbers and the
// configured margin, so the advice is deterministic and works offline.
package advisor

import (
	"errors"
	"fmt"

	"github.com/nordicastudio/gestion3d/internal/pricing"
)

// ErrNoCost indicates the job has no production cost, so there is nothing to
// advise on.
var ErrNoCost = errors.New("advisor: total cost is zero")

// Input is the cost picture of one print job plus the business margin.
type Input struct {
	MaterialCost    float64
	AccessoryCost   float64
	MachineCost     float64
	ElectricityCost float64
	CurrentPrice    float64
	ProfitMargin    float64 // percent
}

// TotalCost is the production cost without margin.
func (in Input) TotalCost() float64 {
	return in.MaterialCost + in.AccessoryCost + in.MachineCost + in.ElectricityCost
}

// Advice is the recommendation for one job.
type Advice struct {
	SuggestedPrice  float64
	EstimatedProfit float64
	Strategy        string
	Justification   string
}

// Evaluate compares the current price against the target derived from the
// cost breakdown and the configured margin.
func Evaluate(in Input) (Advice, error) {
	total := in.TotalCost()
	if total <= 0 {
		return Advice{}, ErrNoCost
	}

	suggested := pricing.Sale(total, in.ProfitMargin)
	adv := Advice{
		SuggestedPrice:  suggested,
		EstimatedProfit: suggested - total,
	}

	share := dominantCost(in, total)
	switch {
	case in.CurrentPrice < total:
		adv.Strategy = "Subir el precio"
		adv.Justification = fmt.Sprintf(
			"El precio actual no cubre el costo de producción de %.2f. %s", total, share)
	case in.CurrentPrice < suggested:
		adv.Strategy = "Subir el precio"
		adv.Justification = fmt.Sprintf(
			"Con un margen del %.0f%% el precio objetivo es %.2f. %s",
			in.ProfitMargin, suggested, share)
	case in.CurrentPrice > suggested:
		adv.Strategy = "Mantener el precio"
		adv.EstimatedProfit = in.CurrentPrice - total
		adv.Justification = fmt.Sprintf(
			"El precio actual ya supera el objetivo de %.2f y deja una ganancia de %.2f. %s",
			suggested, in.CurrentPrice-total, share)
	default:
		adv.Strategy = "Mantener el precio"
		adv.Justification = fmt.Sprintf(
			"El precio actual coincide con el objetivo para un margen del %.0f%%. %s",
			in.ProfitMargin, share)
	}
	return adv, nil
}

func dominantCost(in Input, total float64) string {
	name, value := "el material", in.MaterialCost
	if in.AccessoryCost > value {
		name, value = "los accesorios", in.AccessoryCost
	}
	if in.MachineCost > value {
		name, value = "la máquina", in.MachineCost
	}
	if in.ElectricityCost > value {
		name, value = "la electricidad", in.ElectricityCost
	}
	return fmt.Sprintf("El mayor componente del costo es %s (%.0f%% del total).",
		name, value/total*100)
}
