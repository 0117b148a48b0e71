package main

import (
	"errors"
	"net/http"

	"github.com/nordicastudio/gestion3d/internal/clients"
	"github.com/nordicastudio/gestion3d/internal/expenses"
	"github.com/nordicastudio/gestion3d/internal/inventory"
	"github.com/nordicastudio/gestion3d/internal/quotes"
	"github.com/nordicastudio/gestion3d/internal/trash"
)

type trashListItem struct {
	trash.Item
	CollectionLabel string
}

type trashViewData struct {
	baseViewData
	Items []trashListItem
}

var collectionLabels = map[string]string{
	clients.Collection:              "Cliente",
	inventory.CollectionFilaments:   "Filamento",
	inventory.CollectionAccessories: "Accesorio",
	expenses.Collection:             "Gasto",
	quotes.Collection:               "Cotización",
}

func (s *server) handleTrashList(w http.ResponseWriter, r *http.Request) {
	items, err := s.trash.List()
	if err != nil {
		http.Error(w, "failed to load trash", http.StatusInternalServerError)
		return
	}

	list := make([]trashListItem, 0, len(items))
	for _, it := range items {
		label, ok := collectionLabels[it.OriginalCollection]
		if !ok {
			label = it.OriginalCollection
		}
		list = append(list, trashListItem{Item: it, CollectionLabel: label})
	}

	s.renderTemplate(w, "trash.html", trashViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Items: list,
	})
}

func (s *server) handleTrashRestore(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid trash item id", http.StatusBadRequest)
		return
	}

	if err := s.trash.Restore(id); err != nil {
		switch {
		case errors.Is(err, trash.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, trash.ErrUnknownCollection):
			http.Redirect(w, r, "/trash?error=No+se+puede+restaurar+este+elemento", http.StatusSeeOther)
		default:
			http.Error(w, "failed to restore item", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/trash?success=Elemento+restaurado+correctamente", http.StatusSeeOther)
}

func (s *server) handleTrashPurge(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid trash item id", http.StatusBadRequest)
		return
	}

	if err := s.trash.Purge(id); err != nil {
		if errors.Is(err, trash.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to purge item", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/trash?success=Elemento+eliminado+definitivamente", http.StatusSeeOther)
}
