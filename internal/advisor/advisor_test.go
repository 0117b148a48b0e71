package advisor

import (
	"errors"
	"strings"
	"testing"
)

func TestEvaluate_PriceBelowCost(t *testing.T) {
	adv, err := Evaluate(Input{
		MaterialCost:    3750,
		MachineCost:     4000,
		ElectricityCost: 180,
		CurrentPrice:    5000,
		ProfitMargin:    30,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if adv.Strategy != "Subir el precio" {
		t.Fatalf("expected raise strategy, got %q", adv.Strategy)
	}
	if adv.SuggestedPrice != 10400 {
		t.Fatalf("expected suggested price 10400, got %v", adv.SuggestedPrice)
	}
	if adv.EstimatedProfit != 10400-7930 {
		t.Fatalf("expected estimated profit 2470, got %v", adv.EstimatedProfit)
	}
	if !strings.Contains(adv.Justification, "no cubre el costo") {
		t.Fatalf("unexpected justification %q", adv.Justification)
	}
	if !strings.Contains(adv.Justification, "la máquina") {
		t.Fatalf("expected machine as dominant cost, got %q", adv.Justification)
	}
}

func TestEvaluate_PriceBelowTarget(t *testing.T) {
	// Covers cost but not the configured margin.
	adv, err := Evaluate(Input{
		MaterialCost: 8000,
		CurrentPrice: 9000,
		ProfitMargin: 30,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if adv.Strategy != "Subir el precio" {
		t.Fatalf("expected raise strategy, got %q", adv.Strategy)
	}
	if adv.SuggestedPrice != 10400 {
		t.Fatalf("expected suggested price 10400, got %v", adv.SuggestedPrice)
	}
	if !strings.Contains(adv.Justification, "precio objetivo es 10400.00") {
		t.Fatalf("unexpected justification %q", adv.Justification)
	}
	if !strings.Contains(adv.Justification, "el material") {
		t.Fatalf("expected material as dominant cost, got %q", adv.Justification)
	}
}

func TestEvaluate_PriceAtTarget(t *testing.T) {
	adv, err := Evaluate(Input{
		MaterialCost: 8000,
		CurrentPrice: 10400,
		ProfitMargin: 30,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if adv.Strategy != "Mantener el precio" {
		t.Fatalf("expected keep strategy, got %q", adv.Strategy)
	}
	if adv.EstimatedProfit != 2400 {
		t.Fatalf("expected estimated profit 2400, got %v", adv.EstimatedProfit)
	}
}

func TestEvaluate_PriceAboveTarget(t *testing.T) {
	adv, err := Evaluate(Input{
		MaterialCost: 8000,
		CurrentPrice: 15000,
		ProfitMargin: 30,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if adv.Strategy != "Mantener el precio" {
		t.Fatalf("expected keep strategy, got %q", adv.Strategy)
	}
	if adv.EstimatedProfit != 7000 {
		t.Fatalf("profit must follow the current price, got %v", adv.EstimatedProfit)
	}
	if !strings.Contains(adv.Justification, "ya supera el objetivo") {
		t.Fatalf("unexpected justification %q", adv.Justification)
	}
}

func TestEvaluate_ZeroCost(t *testing.T) {
	_, err := Evaluate(Input{CurrentPrice: 1000, ProfitMargin: 30})
	if !errors.Is(err, ErrNoCost) {
		t.Fatalf("expected ErrNoCost, got %v", err)
	}
}
