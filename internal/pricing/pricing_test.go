package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCalculate_FullBreakdown(t *testing.T) {
	materials := []MaterialLine{{FilamentID: 1, Grams: 150, CostPerKg: 25000}}
	params := Params{
		ElectricityCost:         150,
		MachineCost:             500,
		PrinterConsumptionWatts: 150,
		ProfitMargin:            30,
	}

	b := Calculate(materials, nil, 8, params)

	nearlyEqual(t, "materialCost", b.MaterialCost, 3750)
	nearlyEqual(t, "accessoryCost", b.AccessoryCost, 0)
	nearlyEqual(t, "machineCost", b.MachineCost, 4000)
	nearlyEqual(t, "electricityCost", b.ElectricityCost, 180)
	nearlyEqual(t, "totalCost", b.TotalCost, 7930)
	// 7930 * 1.30 = 10309, rounded up to the next 100.
	nearlyEqual(t, "price", b.Price, 10400)
}

func TestCalculate_AccessoriesContribute(t *testing.T) {
	accessories := []AccessoryLine{
		{AccessoryID: 1, Quantity: 4, UnitCost: 120},
		{AccessoryID: 2, Quantity: 1, UnitCost: 35},
	}

	b := Calculate(nil, accessories, 0, Params{})

	nearlyEqual(t, "accessoryCost", b.AccessoryCost, 515)
	nearlyEqual(t, "totalCost", b.TotalCost, 515)
	nearlyEqual(t, "price", b.Price, 600)
}

func TestCalculate_ZeroCostIsNotPriceable(t *testing.T) {
	b := Calculate(nil, nil, 0, Params{ProfitMargin: 30})

	nearlyEqual(t, "totalCost", b.TotalCost, 0)
	nearlyEqual(t, "price", b.Price, 0)
}

func TestCalculate_RoundsUpNeverDown(t *testing.T) {
	// Total cost 100, margin 0% -> exact multiple of 100 stays put.
	exact := Calculate([]MaterialLine{{FilamentID: 1, Grams: 1000, CostPerKg: 100}}, nil, 0, Params{})
	nearlyEqual(t, "exact price", exact.Price, 100)

	// Total cost 101 -> next multiple up, even though 100 is nearer.
	up := Calculate([]MaterialLine{{FilamentID: 1, Grams: 1010, CostPerKg: 100}}, nil, 0, Params{})
	nearlyEqual(t, "rounded-up price", up.Price, 200)
}

func TestCalculate_InvalidLinesAreIgnored(t *testing.T) {
	materials := []MaterialLine{
		{FilamentID: 1, Grams: 100, CostPerKg: 10000},
		{FilamentID: 0, Grams: 100, CostPerKg: 10000},
		{FilamentID: 2, Grams: 0, CostPerKg: 10000},
		{FilamentID: 3, Grams: -5, CostPerKg: 10000},
	}
	accessories := []AccessoryLine{
		{AccessoryID: 1, Quantity: 2, UnitCost: 50},
		{AccessoryID: 0, Quantity: 2, UnitCost: 50},
		{AccessoryID: 2, Quantity: -1, UnitCost: 50},
	}

	b := Calculate(materials, accessories, 0, Params{})

	nearlyEqual(t, "materialCost", b.MaterialCost, 1000)
	nearlyEqual(t, "accessoryCost", b.AccessoryCost, 100)
}

func TestCalculate_IsDeterministic(t *testing.T) {
	materials := []MaterialLine{{FilamentID: 1, Grams: 333, CostPerKg: 17999}}
	params := Params{ElectricityCost: 142, MachineCost: 450, PrinterConsumptionWatts: 220, ProfitMargin: 27}

	first := Calculate(materials, nil, 5.5, params)
	second := Calculate(materials, nil, 5.5, params)

	if first != second {
		t.Fatalf("repeated calculation differs: %+v vs %+v", first, second)
	}
}

func TestFilterMaterials(t *testing.T) {
	lines := []MaterialLine{
		{FilamentID: 1, Grams: 50},
		{FilamentID: 0, Grams: 50},
		{FilamentID: 2, Grams: 0},
	}

	kept := FilterMaterials(lines)
	if len(kept) != 1 || kept[0].FilamentID != 1 {
		t.Fatalf("unexpected filtered lines: %+v", kept)
	}
}

func TestFilterAccessories(t *testing.T) {
	lines := []AccessoryLine{
		{AccessoryID: 5, Quantity: 2},
		{AccessoryID: 6, Quantity: 0},
	}

	kept := FilterAccessories(lines)
	if len(kept) != 1 || kept[0].AccessoryID != 5 {
		t.Fatalf("unexpected filtered lines: %+v", kept)
	}
}
