package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nordicastudio/gestion3d/internal/inventory"
)

type inventoryViewData struct {
	baseViewData
	Filaments   []inventory.Filament
	Accessories []inventory.Accessory
}

func (s *server) handleInventory(w http.ResponseWriter, r *http.Request) {
	filaments, err := s.inventory.ListFilaments()
	if err != nil {
		http.Error(w, "failed to load filaments", http.StatusInternalServerError)
		return
	}
	accessories, err := s.inventory.ListAccessories()
	if err != nil {
		http.Error(w, "failed to load accessories", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "inventory.html", inventoryViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Filaments:   filaments,
		Accessories: accessories,
	})
}

func (s *server) handleFilamentsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f, err := parseFilamentForm(r)
	if err != nil {
		http.Redirect(w, r, "/inventory?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := s.inventory.CreateFilament(f); err != nil {
		http.Error(w, "failed to create filament", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory?success=Filamento+creado+correctamente", http.StatusSeeOther)
}

func (s *server) handleFilamentsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid filament id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f, err := parseFilamentForm(r)
	if err != nil {
		http.Redirect(w, r, "/inventory?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	f.ID = id

	if err := s.inventory.UpdateFilament(f); err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to update filament", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory?success=Filamento+actualizado+correctamente", http.StatusSeeOther)
}

func (s *server) handleFilamentsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid filament id", http.StatusBadRequest)
		return
	}

	if err := s.inventory.DeleteFilament(id); err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to delete filament", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory?success=Filamento+movido+a+la+papelera", http.StatusSeeOther)
}

func (s *server) handleAccessoriesCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	a, err := parseAccessoryForm(r)
	if err != nil {
		http.Redirect(w, r, "/inventory?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := s.inventory.CreateAccessory(a); err != nil {
		http.Error(w, "failed to create accessory", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory?success=Accesorio+creado+correctamente", http.StatusSeeOther)
}

func (s *server) handleAccessoriesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid accessory id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	a, err := parseAccessoryForm(r)
	if err != nil {
		http.Redirect(w, r, "/inventory?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	a.ID = id

	if err := s.inventory.UpdateAccessory(a); err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to update accessory", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory?success=Accesorio+actualizado+correctamente", http.StatusSeeOther)
}

func (s *server) handleAccessoriesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid accessory id", http.StatusBadRequest)
		return
	}

	if err := s.inventory.DeleteAccessory(id); err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to delete accessory", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory?success=Accesorio+movido+a+la+papelera", http.StatusSeeOther)
}

func parseFilamentForm(r *http.Request) (inventory.Filament, error) {
	f := inventory.Filament{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Color: strings.TrimSpace(r.FormValue("color")),
	}

	if f.Name == "" {
		return f, errors.New("name es requerido")
	}

	var err error
	if f.StockLevel, err = parseNonNegativeFloat(r.FormValue("stock_level"), "stock_level"); err != nil {
		return f, err
	}
	if f.CostPerKg, err = parseNonNegativeFloat(r.FormValue("cost_per_kg"), "cost_per_kg"); err != nil {
		return f, err
	}

	return f, nil
}

func parseAccessoryForm(r *http.Request) (inventory.Accessory, error) {
	a := inventory.Accessory{
		Name: strings.TrimSpace(r.FormValue("name")),
	}

	if a.Name == "" {
		return a, errors.New("name es requerido")
	}

	var err error
	if a.StockLevel, err = parseNonNegativeInt(r.FormValue("stock_level"), "stock_level"); err != nil {
		return a, err
	}
	if a.Cost, err = parseNonNegativeFloat(r.FormValue("cost"), "cost"); err != nil {
		return a, err
	}

	return a, nil
}
