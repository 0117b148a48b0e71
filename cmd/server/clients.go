package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nordicastudio/gestion3d/internal/clients"
)

type clientsViewData struct {
	baseViewData
	Clients []clients.Client
}

func (s *server) handleClientsList(w http.ResponseWriter, r *http.Request) {
	list, err := s.clients.List()
	if err != nil {
		http.Error(w, "failed to load clients", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "clients.html", clientsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Clients: list,
	})
}

func (s *server) handleClientsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	c, err := parseClientForm(r)
	if err != nil {
		http.Redirect(w, r, "/clients?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := s.clients.Create(c); err != nil {
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/clients?success=Cliente+creado+correctamente", http.StatusSeeOther)
}

func (s *server) handleClientsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	c, err := parseClientForm(r)
	if err != nil {
		http.Redirect(w, r, "/clients?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	c.ID = id

	if err := s.clients.Update(c); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to update client", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/clients?success=Cliente+actualizado+correctamente", http.StatusSeeOther)
}

func (s *server) handleClientsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	if err := s.clients.Delete(id); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to delete client", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/clients?success=Cliente+movido+a+la+papelera", http.StatusSeeOther)
}

func parseClientForm(r *http.Request) (clients.Client, error) {
	c := clients.Client{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Address: strings.TrimSpace(r.FormValue("address")),
	}

	if c.Name == "" {
		return c, errors.New("name es requerido")
	}

	return c, nil
}
