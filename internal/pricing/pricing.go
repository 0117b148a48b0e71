package pricing

import "math"

// MaterialLine is a filament consumption line with the cost resolved at
// calculation time.
type MaterialLine struct {
	FilamentID int64
	Grams      float64
	CostPerKg  float64
}

// AccessoryLine is an accessory consumption line with the unit cost resolved
// at calculation time.
type AccessoryLine struct {
	AccessoryID int64
	Quantity    int64
	UnitCost    float64
}

// Params carries the cost configuration a calculation depends on. Callers
// should read a fresh snapshot for every calculation; costs change between
// quotes.
type Params struct {
	ElectricityCost         float64 // currency per kWh
	MachineCost             float64 // currency per hour
	PrinterConsumptionWatts float64
	ProfitMargin            float64 // percent
}

// Breakdown contains every intermediate cost plus the final sale price.
type Breakdown struct {
	MaterialCost    float64
	AccessoryCost   float64
	MachineCost     float64
	ElectricityCost float64
	TotalCost       float64
	Price           float64
}

// Valid reports whether the line should participate in pricing and
// persistence. Empty or non-positive lines are filtered out, not rejected.
func (l MaterialLine) Valid() bool { return l.FilamentID > 0 && l.Grams > 0 }

func (l AccessoryLine) Valid() bool { return l.AccessoryID > 0 && l.Quantity > 0 }

// FilterMaterials drops invalid material lines.
func FilterMaterials(lines []MaterialLine) []MaterialLine {
	out := make([]MaterialLine, 0, len(lines))
	for _, l := range lines {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

// FilterAccessories drops invalid accessory lines.
func FilterAccessories(lines []AccessoryLine) []AccessoryLine {
	out := make([]AccessoryLine, 0, len(lines))
	for _, l := range lines {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

// Calculate computes the cost breakdown and sale price for a print job.
// A job with zero total cost is not priceable and gets price 0.
// The sale price is rounded up to the next 100 so it never dips below cost.
func Calculate(materials []MaterialLine, accessories []AccessoryLine, printingTimeHours float64, p Params) Breakdown {
	var b Breakdown

	for _, m := range materials {
		if !m.Valid() {
			continue
		}
		b.MaterialCost += (m.CostPerKg / 1000.0) * m.Grams
	}
	for _, a := range accessories {
		if !a.Valid() {
			continue
		}
		b.AccessoryCost += a.UnitCost * float64(a.Quantity)
	}

	b.MachineCost = p.MachineCost * printingTimeHours
	b.ElectricityCost = (p.PrinterConsumptionWatts / 1000.0) * printingTimeHours * p.ElectricityCost

	b.TotalCost = b.MaterialCost + b.AccessoryCost + b.MachineCost + b.ElectricityCost
	if b.TotalCost == 0 {
		return b
	}

	b.Price = Sale(b.TotalCost, p.ProfitMargin)
	return b
}

// Sale derives the sale price from a total cost: apply the margin, then round
// up to the next 100 so the price never dips below cost.
func Sale(totalCost, profitMargin float64) float64 {
	if totalCost <= 0 {
		return 0
	}
	withMargin := totalCost * (1.0 + profitMargin/100.0)
	return math.Ceil(withMargin/100.0) * 100.0
}
