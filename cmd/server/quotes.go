package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nordicastudio/gestion3d/internal/clients"
	"github.com/nordicastudio/gestion3d/internal/inventory"
	"github.com/nordicastudio/gestion3d/internal/pricing"
	"github.com/nordicastudio/gestion3d/internal/quotes"
)

type quoteListItem struct {
	quotes.Quote
	StatusLabel string
}

type quotesViewData struct {
	baseViewData
	Quotes   []quoteListItem
	Currency string
}

type quoteFormViewData struct {
	baseViewData
	Clients     []clients.Client
	Filaments   []inventory.Filament
	Accessories []inventory.Accessory
	Input       quotes.CreateInput
	Breakdown   pricing.Breakdown
	HasPreview  bool
	Currency    string
}

type quoteDetailViewData struct {
	baseViewData
	Quote       quotes.Quote
	StatusLabel string
	Statuses    []quotes.Status
	Currency    string
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
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

	s.renderTemplate(w, "quotes.html", quotesViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Quotes:   items,
		Currency: cfg.Currency,
	})
}

func (s *server) handleQuoteForm(w http.ResponseWriter, r *http.Request) {
	data, err := s.quoteFormData()
	if err != nil {
		http.Error(w, "failed to load quote form", http.StatusInternalServerError)
		return
	}
	data.ErrorMessage = r.URL.Query().Get("error")

	s.renderTemplate(w, "quote_form.html", data)
}

// handleQuotePreview recalculates the breakdown for the current form state
// without creating anything or touching stock.
func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in, parseErr := parseQuoteForm(r)

	data, err := s.quoteFormData()
	if err != nil {
		http.Error(w, "failed to load quote form", http.StatusInternalServerError)
		return
	}
	data.Input = in

	if parseErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		data.ErrorMessage = parseErr.Error()
		s.renderTemplate(w, "quote_form.html", data)
		return
	}

	breakdown, err := s.quotes.Price(in)
	if err != nil {
		if msg, ok := quoteErrorMessage(err); ok {
			w.WriteHeader(http.StatusBadRequest)
			data.ErrorMessage = msg
			s.renderTemplate(w, "quote_form.html", data)
			return
		}
		http.Error(w, "failed to calculate quote", http.StatusInternalServerError)
		return
	}

	data.Breakdown = breakdown
	data.HasPreview = true
	s.renderTemplate(w, "quote_form.html", data)
}

func (s *server) handleQuotesCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in, err := parseQuoteForm(r)
	if err != nil {
		http.Redirect(w, r, "/quotes/new?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	q, err := s.quotes.Create(in)
	if err != nil {
		if msg, ok := quoteErrorMessage(err); ok {
			http.Redirect(w, r, "/quotes/new?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to create quote", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/quotes/%d?success=Cotizaci%%C3%%B3n+creada+correctamente", q.ID), http.StatusSeeOther)
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}

	q, err := s.quotes.Get(id)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to load quote", http.StatusInternalServerError)
		return
	}
	cfg, err := s.settings.Get()
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "quote_detail.html", quoteDetailViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Quote:       q,
		StatusLabel: q.Status.DisplayName(),
		Statuses:    []quotes.Status{quotes.StatusPending, quotes.StatusPrinting, quotes.StatusDelivered},
		Currency:    cfg.Currency,
	})
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	status := quotes.Status(r.FormValue("status"))
	if err := s.quotes.UpdateStatus(id, status); err != nil {
		switch {
		case errors.Is(err, quotes.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, quotes.ErrInvalidStatus):
			http.Redirect(w, r, fmt.Sprintf("/quotes/%d?error=Estado+inv%%C3%%A1lido", id), http.StatusSeeOther)
		default:
			http.Error(w, "failed to update quote status", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/quotes/%d?success=Estado+actualizado", id), http.StatusSeeOther)
}

func (s *server) handleQuotesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}

	if err := s.quotes.SoftDelete(id); err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to delete quote", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/quotes?success=Cotizaci%C3%B3n+movida+a+la+papelera", http.StatusSeeOther)
}

func (s *server) quoteFormData() (quoteFormViewData, error) {
	var data quoteFormViewData

	var err error
	if data.Clients, err = s.clients.List(); err != nil {
		return data, err
	}
	if data.Filaments, err = s.inventory.ListFilaments(); err != nil {
		return data, err
	}
	if data.Accessories, err = s.inventory.ListAccessories(); err != nil {
		return data, err
	}

	cfg, err := s.settings.Get()
	if err != nil {
		return data, err
	}
	data.Currency = cfg.Currency

	return data, nil
}

// parseQuoteForm reads the quote form. Line items arrive as parallel value
// slices, one entry per form row; rows the user left empty are dropped later
// by the service.
func parseQuoteForm(r *http.Request) (quotes.CreateInput, error) {
	in := quotes.CreateInput{
		Description: strings.TrimSpace(r.FormValue("description")),
	}

	clientID, err := strconv.ParseInt(r.FormValue("client_id"), 10, 64)
	if err != nil || clientID <= 0 {
		return in, errors.New("client_id es requerido")
	}
	in.ClientID = clientID

	if raw := strings.TrimSpace(r.FormValue("printing_time_hours")); raw != "" {
		if in.PrintingTimeHours, err = parseNonNegativeFloat(raw, "printing_time_hours"); err != nil {
			return in, err
		}
	}

	filamentIDs := r.Form["material_filament_id"]
	gramsValues := r.Form["material_grams"]
	if len(filamentIDs) != len(gramsValues) {
		return in, errors.New("materiales incompletos")
	}
	for i := range filamentIDs {
		if strings.TrimSpace(filamentIDs[i]) == "" && strings.TrimSpace(gramsValues[i]) == "" {
			continue
		}
		id, err := strconv.ParseInt(filamentIDs[i], 10, 64)
		if err != nil {
			return in, errors.New("material_filament_id debe ser un entero")
		}
		grams, err := parseNonNegativeFloat(gramsValues[i], "material_grams")
		if err != nil {
			return in, err
		}
		in.Materials = append(in.Materials, quotes.Material{FilamentID: id, Grams: grams})
	}

	accessoryIDs := r.Form["accessory_id"]
	quantities := r.Form["accessory_quantity"]
	if len(accessoryIDs) != len(quantities) {
		return in, errors.New("accesorios incompletos")
	}
	for i := range accessoryIDs {
		if strings.TrimSpace(accessoryIDs[i]) == "" && strings.TrimSpace(quantities[i]) == "" {
			continue
		}
		id, err := strconv.ParseInt(accessoryIDs[i], 10, 64)
		if err != nil {
			return in, errors.New("accessory_id debe ser un entero")
		}
		qty, err := parseNonNegativeInt(quantities[i], "accessory_quantity")
		if err != nil {
			return in, err
		}
		in.Accessories = append(in.Accessories, quotes.Accessory{AccessoryID: id, Quantity: qty})
	}

	return in, nil
}

// quoteErrorMessage maps domain errors to user-facing messages. Anything not
// listed here is an internal failure.
func quoteErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, quotes.ErrClientRequired):
		return "Selecciona un cliente", true
	case errors.Is(err, quotes.ErrClientNotFound):
		return "El cliente seleccionado no existe", true
	case errors.Is(err, quotes.ErrEmptyQuote):
		return "Agrega materiales, accesorios o tiempo de impresión", true
	case errors.Is(err, quotes.ErrNotPriceable):
		return "El costo total es cero, no se puede cotizar", true
	case errors.Is(err, quotes.ErrUnknownReference):
		return "Un material o accesorio de la cotización ya no existe", true
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "No hay stock suficiente para confirmar la cotización", true
	}
	return "", false
}
