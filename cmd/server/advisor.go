package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nordicastudio/gestion3d/internal/advisor"
	"github.com/nordicastudio/gestion3d/internal/quotes"
	"github.com/nordicastudio/gestion3d/internal/settings"
)

type advisorViewData struct {
	baseViewData
	Quotes      []quoteListItem
	SelectedID  int64
	Quote       quotes.Quote
	StatusLabel string
	Advice      advisor.Advice
	HasAdvice   bool
	Currency    string
}

// advisorInput maps a stored quote onto the advisor, using the margin
// configured today rather than the one in force when the quote was made.
func advisorInput(q quotes.Quote, cfg settings.Settings) advisor.Input {
	return advisor.Input{
		MaterialCost:    q.MaterialCost,
		AccessoryCost:   q.AccessoryCost,
		MachineCost:     q.MachineCost,
		ElectricityCost: q.ElectricityCost,
		CurrentPrice:    q.Price,
		ProfitMargin:    cfg.ProfitMargin,
	}
}

func (s *server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	list, err := s.quotes.List()
	if err != nil {
		http.Error(w, "failed to load quotes", http.StatusInternalServerError)
		return
	}
	cfg, err := s.settings.Get()
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	items := make([]quoteListItem, 0, len(list))
	for _, q := range list {
		items = append(items, quoteListItem{Quote: q, StatusLabel: q.Status.DisplayName()})
	}

	data := advisorViewData{
		baseViewData: baseViewData{ErrorMessage: r.URL.Query().Get("error")},
		Quotes:       items,
		Currency:     cfg.Currency,
	}

	raw := r.URL.Query().Get("quote_id")
	if raw == "" {
		s.renderTemplate(w, "advisor.html", data)
		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		data.ErrorMessage = "Cotización inválida."
		s.renderTemplate(w, "advisor.html", data)
		return
	}

	q, err := s.quotes.Get(id)
	if errors.Is(err, quotes.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load quote", http.StatusInternalServerError)
		return
	}

	advice, err := advisor.Evaluate(advisorInput(q, cfg))
	if errors.Is(err, advisor.ErrNoCost) {
		data.ErrorMessage = "La cotización no tiene costos para analizar."
		s.renderTemplate(w, "advisor.html", data)
		return
	}
	if err != nil {
		http.Error(w, "failed to evaluate quote", http.StatusInternalServerError)
		return
	}

	data.SelectedID = id
	data.Quote = q
	data.StatusLabel = q.Status.DisplayName()
	data.Advice = advice
	data.HasAdvice = true
	s.renderTemplate(w, "advisor.html", data)
}
