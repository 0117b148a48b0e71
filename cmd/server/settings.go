package main

import (
	"net/http"
	"strings"

	"github.com/nordicastudio/gestion3d/internal/settings"
)

type settingsViewData struct {
	baseViewData
	Settings settings.Settings
}

func (s *server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Get()
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "settings.html", settingsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Settings: cfg,
	})
}

func (s *server) handleSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cfg, validationErr := parseSettingsForm(r)
	if validationErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.renderTemplate(w, "settings.html", settingsViewData{
			baseViewData: baseViewData{ErrorMessage: validationErr.Error()},
			Settings:     cfg,
		})
		return
	}

	if err := s.settings.Save(cfg); err != nil {
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "settings.html", settingsViewData{
		baseViewData: baseViewData{SuccessMessage: "Configuración guardada correctamente."},
		Settings:     cfg,
	})
}

func parseSettingsForm(r *http.Request) (settings.Settings, error) {
	cfg := settings.Defaults()

	var err error
	if cfg.ElectricityCost, err = parseNonNegativeFloat(r.FormValue("electricity_cost"), "electricity_cost"); err != nil {
		return cfg, err
	}
	if cfg.MachineCost, err = parseNonNegativeFloat(r.FormValue("machine_cost"), "machine_cost"); err != nil {
		return cfg, err
	}
	if cfg.PrinterConsumptionWatts, err = parseNonNegativeFloat(r.FormValue("printer_consumption_watts"), "printer_consumption_watts"); err != nil {
		return cfg, err
	}
	if cfg.ProfitMargin, err = parsePercent(r.FormValue("profit_margin"), "profit_margin"); err != nil {
		return cfg, err
	}

	days, err := parseNonNegativeInt(r.FormValue("backup_reminder_days"), "backup_reminder_days")
	if err != nil {
		return cfg, err
	}
	cfg.BackupReminderDays = int(days)

	if currency := strings.TrimSpace(r.FormValue("currency")); currency != "" {
		cfg.Currency = currency
	}
	if name := strings.TrimSpace(r.FormValue("company_name")); name != "" {
		cfg.CompanyName = name
	}

	return cfg, nil
}
