package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nordicastudio/gestion3d/internal/expenses"
)

type expensesViewData struct {
	baseViewData
	Expenses []expenses.Expense
	Total    float64
}

func (s *server) handleExpensesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.expenses.List()
	if err != nil {
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}
	total, err := s.expenses.Total()
	if err != nil {
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "expenses.html", expensesViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Expenses: list,
		Total:    total,
	})
}

func (s *server) handleExpensesCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	if description == "" {
		http.Redirect(w, r, "/expenses?error=description+es+requerido", http.StatusSeeOther)
		return
	}

	amount, err := parsePositiveFloat(r.FormValue("amount"), "amount")
	if err != nil {
		http.Redirect(w, r, "/expenses?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := s.expenses.Create(expenses.Expense{
		Description: description,
		Amount:      amount,
		Date:        strings.TrimSpace(r.FormValue("date")),
	}); err != nil {
		http.Error(w, "failed to create expense", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/expenses?success=Gasto+registrado+correctamente", http.StatusSeeOther)
}

// handleFilamentPurchase registers a filament-buying expense. The purchase
// also feeds inventory: the matching spool gains stock and its cost per kg is
// recomputed as a weighted average.
func (s *server) handleFilamentPurchase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("filament_name"))
	if name == "" {
		http.Redirect(w, r, "/expenses?error=filament_name+es+requerido", http.StatusSeeOther)
		return
	}

	grams, err := parsePositiveFloat(r.FormValue("grams"), "grams")
	if err != nil {
		http.Redirect(w, r, "/expenses?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	amount, err := parsePositiveFloat(r.FormValue("amount"), "amount")
	if err != nil {
		http.Redirect(w, r, "/expenses?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := s.expenses.CreateFilamentPurchase(expenses.FilamentPurchase{
		FilamentName:  name,
		FilamentColor: strings.TrimSpace(r.FormValue("filament_color")),
		Grams:         grams,
		Amount:        amount,
		Date:          strings.TrimSpace(r.FormValue("date")),
	}); err != nil {
		http.Error(w, "failed to register purchase", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/expenses?success=Compra+de+filamento+registrada", http.StatusSeeOther)
}

func (s *server) handleExpensesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid expense id", http.StatusBadRequest)
		return
	}

	if err := s.expenses.Delete(id); err != nil {
		if errors.Is(err, expenses.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to delete expense", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/expenses?success=Gasto+movido+a+la+papelera", http.StatusSeeOther)
}
