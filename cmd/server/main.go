package main

import (
	"database/sql"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nordicastudio/gestion3d/internal/backup"
	"github.com/nordicastudio/gestion3d/internal/clients"
	"github.com/nordicastudio/gestion3d/internal/config"
	"github.com/nordicastudio/gestion3d/internal/db"
	"github.com/nordicastudio/gestion3d/internal/expenses"
	"github.com/nordicastudio/gestion3d/internal/inventory"
	"github.com/nordicastudio/gestion3d/internal/migrations"
	"github.com/nordicastudio/gestion3d/internal/quotes"
	"github.com/nordicastudio/gestion3d/internal/seed"
	"github.com/nordicastudio/gestion3d/internal/settings"
	"github.com/nordicastudio/gestion3d/internal/trash"
)

type server struct {
	auth      *authService
	db        *sql.DB
	clients   *clients.Store
	inventory *inventory.Store
	expenses  *expenses.Store
	settings  *settings.Store
	quotes    *quotes.Service
	trash     *trash.Service
	backup    *backup.Service
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
}

type loginViewData struct {
	baseViewData
}

type dashboardViewData struct {
	baseViewData
	ClientCount        int
	QuoteCount         int
	PendingCount       int
	Revenue            float64
	ProductionCost     float64
	ExpensesTotal      float64
	NetProfit          float64
	Currency           string
	BackupOverdue      bool
	NeverBackedUp      bool
	DaysSinceBackup    int
	BackupReminderDays int
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database, "migrations"); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	log.Printf("seed complete: %d inserts, %d updates", stats.Inserts, stats.Updates)

	policy := quotes.ReconcileOnSoftDelete
	if cfg.LegacyStockOnPurge {
		policy = quotes.ReconcileOnPurge
	}

	clientsStore := clients.NewStore(database)
	inventoryStore := inventory.NewStore(database)
	expensesStore := expenses.NewStore(database)
	settingsStore := settings.NewStore(database)
	quotesSvc := quotes.NewService(database, policy)

	trashSvc := trash.NewService(database)
	trashSvc.Register(clients.Collection, clients.Restore)
	trashSvc.Register(inventory.CollectionFilaments, inventory.RestoreFilament)
	trashSvc.Register(inventory.CollectionAccessories, inventory.RestoreAccessory)
	trashSvc.Register(expenses.Collection, expenses.Restore)
	trashSvc.Register(quotes.Collection, quotes.Restore)
	trashSvc.RegisterPurgeHook(quotes.Collection, quotesSvc.PurgeHook())

	srv := &server{
		auth:      newAuthService(database, cfg.SessionSecret),
		db:        database,
		clients:   clientsStore,
		inventory: inventoryStore,
		expenses:  expensesStore,
		settings:  settingsStore,
		quotes:    quotesSvc,
		trash:     trashSvc,
		backup: &backup.Service{
			Clients:   clientsStore,
			Inventory: inventoryStore,
			Quotes:    quotesSvc,
			Expenses:  expensesStore,
			Settings:  settingsStore,
		},
	}

	r := chi.NewRouter()
	r.Use(countRequests)
	r.Use(srv.authMiddleware)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	r.Get("/health", handleHealth)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/", srv.handleDashboard)
	r.Get("/login", srv.handleLoginForm)
	r.Post("/login", srv.handleLoginSubmit)
	r.Post("/logout", srv.handleLogout)

	r.Get("/clients", srv.handleClientsList)
	r.Post("/clients", srv.handleClientsCreate)
	r.Post("/clients/{id}", srv.handleClientsUpdate)
	r.Post("/clients/{id}/delete", srv.handleClientsDelete)

	r.Get("/inventory", srv.handleInventory)
	r.Post("/inventory/filaments", srv.handleFilamentsCreate)
	r.Post("/inventory/filaments/{id}", srv.handleFilamentsUpdate)
	r.Post("/inventory/filaments/{id}/delete", srv.handleFilamentsDelete)
	r.Post("/inventory/accessories", srv.handleAccessoriesCreate)
	r.Post("/inventory/accessories/{id}", srv.handleAccessoriesUpdate)
	r.Post("/inventory/accessories/{id}/delete", srv.handleAccessoriesDelete)

	r.Get("/expenses", srv.handleExpensesList)
	r.Post("/expenses", srv.handleExpensesCreate)
	r.Post("/expenses/purchase", srv.handleFilamentPurchase)
	r.Post("/expenses/{id}/delete", srv.handleExpensesDelete)

	r.Get("/quotes", srv.handleQuotesList)
	r.Get("/quotes/new", srv.handleQuoteForm)
	r.Post("/quotes/preview", srv.handleQuotePreview)
	r.Post("/quotes", srv.handleQuotesCreate)
	r.Get("/quotes/{id}", srv.handleQuoteDetail)
	r.Post("/quotes/{id}/status", srv.handleQuoteStatus)
	r.Post("/quotes/{id}/delete", srv.handleQuotesDelete)

	r.Get("/advisor", srv.handleAdvisor)

	r.Get("/trash", srv.handleTrashList)
	r.Post("/trash/{id}/restore", srv.handleTrashRestore)
	r.Post("/trash/{id}/purge", srv.handleTrashPurge)

	r.Get("/settings", srv.handleSettingsForm)
	r.Post("/settings", srv.handleSettingsSubmit)

	r.Get("/backup/download", srv.handleBackupDownload)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardViewData{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&data.ClientCount); err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM quotes`).Scan(&data.QuoteCount); err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM quotes WHERE status = 'pending'`).Scan(&data.PendingCount); err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	revenue, productionCost, err := s.quotes.DeliveredTotals()
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	expensesTotal, err := s.expenses.Total()
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	cfg, err := s.settings.Get()
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	data.Revenue = revenue
	data.ProductionCost = productionCost
	data.ExpensesTotal = expensesTotal
	data.NetProfit = revenue - productionCost - expensesTotal
	data.Currency = cfg.Currency

	lastBackup, err := s.settings.LastBackup()
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	data.BackupReminderDays = cfg.BackupReminderDays
	data.NeverBackedUp = lastBackup.IsZero()
	data.BackupOverdue, data.DaysSinceBackup = backupOverdue(lastBackup, cfg.BackupReminderDays, time.Now())

	s.renderTemplate(w, "home.html", data)
}

// backupOverdue reports whether the last backup is older than the configured
// threshold, and how many whole days have passed since it. A zero last time
// means no backup was ever taken, which is always overdue.
func backupOverdue(last time.Time, thresholdDays int, now time.Time) (bool, int) {
	if thresholdDays <= 0 {
		return false, 0
	}
	if last.IsZero() {
		return true, 0
	}
	days := int(now.Sub(last).Hours() / 24)
	return days >= thresholdDays, days
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if isAuthenticated(r, s.auth) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, "login.html", loginViewData{})
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	valid, err := s.auth.validateCredentials(email, password)
	if err != nil {
		http.Error(w, "authentication error", http.StatusInternalServerError)
		return
	}
	if !valid {
		w.WriteHeader(http.StatusUnauthorized)
		s.renderTemplate(w, "login.html", loginViewData{baseViewData: baseViewData{ErrorMessage: "Credenciales inválidas. Intenta de nuevo."}})
		return
	}

	s.auth.setSessionCookie(w, email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	templates, err := template.ParseFiles(
		"web/templates/layout.html",
		"web/templates/"+page,
	)
	if err != nil {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/login",
			r.URL.Path == "/health",
			r.URL.Path == "/metrics",
			r.URL.Path == "/static",
			strings.HasPrefix(r.URL.Path, "/static/"):
			next.ServeHTTP(w, r)
			return
		}

		if !isAuthenticated(r, s.auth) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isAuthenticated(r *http.Request, auth *authService) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}

	_, ok := auth.verifySessionValue(cookie.Value)
	return ok
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s debe ser numérico", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s debe ser mayor o igual a 0", field)
	}
	return value, nil
}

func parsePositiveFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s debe ser numérico", field)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s debe ser mayor a 0", field)
	}
	return value, nil
}

func parsePercent(raw, field string) (float64, error) {
	value, err := parseNonNegativeFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value > 100 {
		return 0, fmt.Errorf("%s debe estar entre 0 y 100", field)
	}
	return value, nil
}

func parseNonNegativeInt(raw, field string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s debe ser un entero", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s debe ser mayor o igual a 0", field)
	}
	return value, nil
}
