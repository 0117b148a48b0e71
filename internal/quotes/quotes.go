package quotes

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nordicastudio/gestion3d/internal/db"
	"github.com/nordicastudio/gestion3d/internal/inventory"
	"github.com/nordicastudio/gestion3d/internal/pricing"
	"github.com/nordicastudio/gestion3d/internal/settings"
	"github.com/nordicastudio/gestion3d/internal/trash"
)

// Collection tags quote snapshots in the trash.
const Collection = "quotes"

// Status is the lifecycle stage of a quote. Stock is consumed when the quote
// is created; pending is the only status from which that consumption is
// treated as reversible.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPrinting  Status = "printing"
	StatusDelivered Status = "delivered"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPrinting, StatusDelivered:
		return true
	}
	return false
}

// DisplayName returns the user-facing label.
func (s Status) DisplayName() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusPrinting:
		return "Imprimiendo"
	case StatusDelivered:
		return "Entregado"
	}
	return string(s)
}

var (
	// ErrNotFound indicates the quote does not exist.
	ErrNotFound = errors.New("quotes: quote not found")
	// ErrClientRequired indicates no client was selected.
	ErrClientRequired = errors.New("quotes: client is required")
	// ErrClientNotFound indicates the selected client does not exist.
	ErrClientNotFound = errors.New("quotes: client not found")
	// ErrEmptyQuote indicates the quote has no valid lines and no print time.
	ErrEmptyQuote = errors.New("quotes: no materials, accessories or print time")
	// ErrNotPriceable indicates the total cost is zero, so no sale price can
	// be derived and the quote cannot be confirmed.
	ErrNotPriceable = errors.New("quotes: total cost is zero")
	// ErrUnknownReference indicates a line points at a filament or accessory
	// that does not exist. Rejected rather than silently priced at zero.
	ErrUnknownReference = errors.New("quotes: line references unknown inventory item")
	// ErrInvalidStatus indicates an unrecognized status value.
	ErrInvalidStatus = errors.New("quotes: invalid status")
)

// Material is a filament line item: a reference by identity, not ownership.
type Material struct {
	FilamentID int64   `json:"filamentId"`
	Grams      float64 `json:"grams"`
}

// Accessory is an accessory line item.
type Accessory struct {
	AccessoryID int64 `json:"accessoryId"`
	Quantity    int64 `json:"quantity"`
}

// Quote is a priced print job. ClientName is joined at read time and never
// persisted, so it cannot go stale.
type Quote struct {
	ID                int64       `json:"id"`
	Code              string      `json:"code"`
	ClientID          int64       `json:"clientId"`
	ClientName        string      `json:"-"`
	Description       string      `json:"description"`
	Materials         []Material  `json:"materials"`
	Accessories       []Accessory `json:"accessories"`
	PrintingTimeHours float64     `json:"printingTimeHours"`
	MaterialCost      float64     `json:"materialCost"`
	AccessoryCost     float64     `json:"accessoryCost"`
	MachineCost       float64     `json:"machineCost"`
	ElectricityCost   float64     `json:"electricityCost"`
	Price             float64     `json:"price"`
	Status            Status      `json:"status"`
	Date              string      `json:"date"` // RFC 3339
}

// TotalCost is the production cost without margin.
func (q Quote) TotalCost() float64 {
	return q.MaterialCost + q.AccessoryCost + q.MachineCost + q.ElectricityCost
}

// Profit is the margin earned at the quoted price.
func (q Quote) Profit() float64 { return q.Price - q.TotalCost() }

// ReconcilePolicy decides when a deleted pending quote's consumption is
// credited back to inventory. Exactly one credit happens across the quote's
// whole lifecycle under either policy.
type ReconcilePolicy int

const (
	// ReconcileOnSoftDelete credits stock the moment a pending quote moves
	// to the trash; purging it later has no further stock effect.
	ReconcileOnSoftDelete ReconcilePolicy = iota
	// ReconcileOnPurge leaves stock untouched at soft-delete and credits it
	// only when a pending quote is purged from the trash. Kept for
	// installations that relied on the old behavior.
	ReconcileOnPurge
)

// CreateInput is the confirm-time form payload.
type CreateInput struct {
	ClientID          int64
	Description       string
	Materials         []Material
	Accessories       []Accessory
	PrintingTimeHours float64
}

// Service manages the quote lifecycle and coordinates stock debits and
// credits against inventory.
type Service struct {
	db     *sql.DB
	policy ReconcilePolicy
}

func NewService(database *sql.DB, policy ReconcilePolicy) *Service {
	return &Service{db: database, policy: policy}
}

// Policy returns the active stock reconciliation rule.
func (s *Service) Policy() ReconcilePolicy { return s.policy }

// Price computes the breakdown for the current form state without touching
// anything. Costs and settings are read fresh on every call. Unknown
// references are rejected so a quote is never silently underpriced.
func (s *Service) Price(in CreateInput) (pricing.Breakdown, error) {
	return price(s.db, in)
}

func price(q db.Queryer, in CreateInput) (pricing.Breakdown, error) {
	materials, accessories, err := resolveLines(q, in)
	if err != nil {
		return pricing.Breakdown{}, err
	}

	cfg, err := settings.Read(q)
	if err != nil {
		return pricing.Breakdown{}, err
	}

	return pricing.Calculate(materials, accessories, in.PrintingTimeHours, pricing.Params{
		ElectricityCost:         cfg.ElectricityCost,
		MachineCost:             cfg.MachineCost,
		PrinterConsumptionWatts: cfg.PrinterConsumptionWatts,
		ProfitMargin:            cfg.ProfitMargin,
	}), nil
}

func resolveLines(q db.Queryer, in CreateInput) ([]pricing.MaterialLine, []pricing.AccessoryLine, error) {
	materials := make([]pricing.MaterialLine, 0, len(in.Materials))
	for _, m := range filterMaterials(in.Materials) {
		f, err := inventory.GetFilament(q, m.FilamentID)
		if errors.Is(err, inventory.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: filament %d", ErrUnknownReference, m.FilamentID)
		}
		if err != nil {
			return nil, nil, err
		}
		materials = append(materials, pricing.MaterialLine{
			FilamentID: m.FilamentID,
			Grams:      m.Grams,
			CostPerKg:  f.CostPerKg,
		})
	}

	accessories := make([]pricing.AccessoryLine, 0, len(in.Accessories))
	for _, a := range filterAccessories(in.Accessories) {
		acc, err := inventory.GetAccessory(q, a.AccessoryID)
		if errors.Is(err, inventory.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: accessory %d", ErrUnknownReference, a.AccessoryID)
		}
		if err != nil {
			return nil, nil, err
		}
		accessories = append(accessories, pricing.AccessoryLine{
			AccessoryID: a.AccessoryID,
			Quantity:    a.Quantity,
			UnitCost:    acc.Cost,
		})
	}

	return materials, accessories, nil
}

func filterMaterials(lines []Material) []Material {
	out := make([]Material, 0, len(lines))
	for _, l := range lines {
		if l.FilamentID > 0 && l.Grams > 0 {
			out = append(out, l)
		}
	}
	return out
}

func filterAccessories(lines []Accessory) []Accessory {
	out := make([]Accessory, 0, len(lines))
	for _, l := range lines {
		if l.AccessoryID > 0 && l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Create confirms a quote. The quote insert and every stock decrement commit
// as one transaction: either the quote exists with all its consumption
// deducted, or nothing changed. Costs are resolved inside the transaction so
// the price reflects stock and settings at confirm time, not when the form
// was opened.
func (s *Service) Create(in CreateInput) (Quote, error) {
	if in.ClientID <= 0 {
		return Quote{}, ErrClientRequired
	}

	in.Materials = filterMaterials(in.Materials)
	in.Accessories = filterAccessories(in.Accessories)
	if len(in.Materials) == 0 && len(in.Accessories) == 0 && in.PrintingTimeHours <= 0 {
		return Quote{}, ErrEmptyQuote
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Quote{}, fmt.Errorf("begin quote transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var clientExists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM clients WHERE id = ?)`, in.ClientID).Scan(&clientExists); err != nil {
		return Quote{}, fmt.Errorf("check client existence: %w", err)
	}
	if !clientExists {
		return Quote{}, ErrClientNotFound
	}

	breakdown, err := price(tx, in)
	if err != nil {
		return Quote{}, err
	}
	if breakdown.Price <= 0 {
		return Quote{}, ErrNotPriceable
	}

	q := Quote{
		Code:              uuid.NewString(),
		ClientID:          in.ClientID,
		Description:       in.Description,
		Materials:         in.Materials,
		Accessories:       in.Accessories,
		PrintingTimeHours: in.PrintingTimeHours,
		MaterialCost:      breakdown.MaterialCost,
		AccessoryCost:     breakdown.AccessoryCost,
		MachineCost:       breakdown.MachineCost,
		ElectricityCost:   breakdown.ElectricityCost,
		Price:             breakdown.Price,
		Status:            StatusPending,
		Date:              time.Now().UTC().Format(time.RFC3339),
	}

	res, err := tx.Exec(`
		INSERT INTO quotes (
			code, client_id, description, printing_time_hours,
			material_cost, accessory_cost, machine_cost, electricity_cost,
			price, status, date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.Code, q.ClientID, q.Description, q.PrintingTimeHours,
		q.MaterialCost, q.AccessoryCost, q.MachineCost, q.ElectricityCost,
		q.Price, string(q.Status), q.Date)
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	q.ID, err = res.LastInsertId()
	if err != nil {
		return Quote{}, fmt.Errorf("quote id: %w", err)
	}

	for _, m := range q.Materials {
		if _, err := tx.Exec(`
			INSERT INTO quote_materials (quote_id, filament_id, grams)
			VALUES (?, ?, ?)
		`, q.ID, m.FilamentID, m.Grams); err != nil {
			return Quote{}, fmt.Errorf("insert quote material: %w", err)
		}
		if err := inventory.AdjustFilamentStock(tx, m.FilamentID, -m.Grams); err != nil {
			return Quote{}, err
		}
	}
	for _, a := range q.Accessories {
		if _, err := tx.Exec(`
			INSERT INTO quote_accessories (quote_id, accessory_id, quantity)
			VALUES (?, ?, ?)
		`, q.ID, a.AccessoryID, a.Quantity); err != nil {
			return Quote{}, fmt.Errorf("insert quote accessory: %w", err)
		}
		if err := inventory.AdjustAccessoryStock(tx, a.AccessoryID, -a.Quantity); err != nil {
			return Quote{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Quote{}, fmt.Errorf("commit quote transaction: %w", err)
	}
	return q, nil
}

// Get reads a quote with its line items and the joined client name.
func (s *Service) Get(id int64) (Quote, error) {
	q, err := getQuote(s.db, id)
	if err != nil {
		return Quote{}, err
	}
	err = s.db.QueryRow(`SELECT name FROM clients WHERE id = ?`, q.ClientID).Scan(&q.ClientName)
	if errors.Is(err, sql.ErrNoRows) {
		q.ClientName = "N/A"
	} else if err != nil {
		return Quote{}, fmt.Errorf("query quote client: %w", err)
	}
	return q, nil
}

func getQuote(q db.Queryer, id int64) (Quote, error) {
	var out Quote
	var status string
	err := q.QueryRow(`
		SELECT id, code, client_id, description, printing_time_hours,
			material_cost, accessory_cost, machine_cost, electricity_cost,
			price, status, date
		FROM quotes
		WHERE id = ?
	`, id).Scan(&out.ID, &out.Code, &out.ClientID, &out.Description, &out.PrintingTimeHours,
		&out.MaterialCost, &out.AccessoryCost, &out.MachineCost, &out.ElectricityCost,
		&out.Price, &status, &out.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote: %w", err)
	}
	out.Status = Status(status)

	out.Materials, out.Accessories, err = getLines(q, id)
	if err != nil {
		return Quote{}, err
	}
	return out, nil
}

func getLines(q db.Queryer, quoteID int64) ([]Material, []Accessory, error) {
	materials := make([]Material, 0)
	rows, err := q.Query(`
		SELECT filament_id, grams FROM quote_materials WHERE quote_id = ? ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, nil, fmt.Errorf("query quote materials: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.FilamentID, &m.Grams); err != nil {
			return nil, nil, fmt.Errorf("scan quote material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate quote materials: %w", err)
	}

	accessories := make([]Accessory, 0)
	accRows, err := q.Query(`
		SELECT accessory_id, quantity FROM quote_accessories WHERE quote_id = ? ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, nil, fmt.Errorf("query quote accessories: %w", err)
	}
	defer accRows.Close()
	for accRows.Next() {
		var a Accessory
		if err := accRows.Scan(&a.AccessoryID, &a.Quantity); err != nil {
			return nil, nil, fmt.Errorf("scan quote accessory: %w", err)
		}
		accessories = append(accessories, a)
	}
	if err := accRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate quote accessories: %w", err)
	}

	return materials, accessories, nil
}

// List returns quotes with joined client names, most recent first.
func (s *Service) List() ([]Quote, error) {
	rows, err := s.db.Query(`
		SELECT q.id, q.code, q.client_id, COALESCE(c.name, 'N/A'), q.description,
			q.printing_time_hours, q.material_cost, q.accessory_cost,
			q.machine_cost, q.electricity_cost, q.price, q.status, q.date
		FROM quotes q
		LEFT JOIN clients c ON c.id = q.client_id
		ORDER BY q.date DESC, q.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	out := make([]Quote, 0)
	for rows.Next() {
		var q Quote
		var status string
		if err := rows.Scan(&q.ID, &q.Code, &q.ClientID, &q.ClientName, &q.Description,
			&q.PrintingTimeHours, &q.MaterialCost, &q.AccessoryCost,
			&q.MachineCost, &q.ElectricityCost, &q.Price, &status, &q.Date); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Status = Status(status)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return out, nil
}

// ListWithLines returns every quote with its line items loaded, so an export
// carries full documents instead of headers.
func (s *Service) ListWithLines() ([]Quote, error) {
	out, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Materials, out[i].Accessories, err = getLines(s.db, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus changes only the status. Stock is never touched here: the
// materials were consumed when the quote was created, so even leaving
// pending releases nothing.
func (s *Service) UpdateStatus(id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	res, err := s.db.Exec(`UPDATE quotes SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeliveredTotals sums revenue and production cost over delivered quotes,
// for the dashboard.
func (s *Service) DeliveredTotals() (revenue, productionCost float64, err error) {
	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(price), 0),
			COALESCE(SUM(material_cost + accessory_cost + machine_cost + electricity_cost), 0)
		FROM quotes
		WHERE status = ?
	`, string(StatusDelivered)).Scan(&revenue, &productionCost)
	if err != nil {
		return 0, 0, fmt.Errorf("sum delivered quotes: %w", err)
	}
	return revenue, productionCost, nil
}

// SoftDelete archives the quote into the trash and removes the live record
// in one transaction. Under ReconcileOnSoftDelete, a pending quote's
// consumption is credited back here; delivered or printing quotes have spent
// their materials and keep stock as is.
func (s *Service) SoftDelete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin quote delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q, err := getQuote(tx, id)
	if err != nil {
		return err
	}

	if _, err := trash.ArchiveTx(tx, Collection, q.ID, q); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM quote_materials WHERE quote_id = ?`, id); err != nil {
		return fmt.Errorf("delete quote materials: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM quote_accessories WHERE quote_id = ?`, id); err != nil {
		return fmt.Errorf("delete quote accessories: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM quotes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}

	if s.policy == ReconcileOnSoftDelete && q.Status == StatusPending {
		if err := creditStock(tx, q.Materials, q.Accessories); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// creditStock returns a quote's consumption to inventory. Lines whose
// filament or accessory was itself deleted are skipped: there is nothing
// left to credit.
func creditStock(q db.Queryer, materials []Material, accessories []Accessory) error {
	for _, m := range materials {
		err := inventory.AdjustFilamentStock(q, m.FilamentID, m.Grams)
		if err != nil && !errors.Is(err, inventory.ErrNotFound) {
			return err
		}
	}
	for _, a := range accessories {
		err := inventory.AdjustAccessoryStock(q, a.AccessoryID, a.Quantity)
		if err != nil && !errors.Is(err, inventory.ErrNotFound) {
			return err
		}
	}
	return nil
}
