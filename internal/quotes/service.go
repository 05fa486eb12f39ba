package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/poliutech/cotizador/internal/catalog/clients"
	"github.com/poliutech/cotizador/internal/catalog/concepts"
	"github.com/poliutech/cotizador/internal/shared"
)

// Notifier pushes quote events to the notification pipeline. Implementations
// must not block; failures are logged and never abort the save.
type Notifier interface {
	QuoteCreated(ctx context.Context, q *Quote) error
	StatusChanged(ctx context.Context, q *Quote, previous Status) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) QuoteCreated(context.Context, *Quote) error          { return nil }
func (NopNotifier) StatusChanged(context.Context, *Quote, Status) error { return nil }

// Config carries the tunables of the quote pipeline.
type Config struct {
	DiscountMode DiscountMode
	FolioPrefix  string
	DefaultTax   float64
}

// Service runs the quote lifecycle: build the ledger from the form, compute
// totals, resolve catalog entries and persist everything in one transaction.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	clients  *clients.Service
	concepts *concepts.Service
	notifier Notifier
	audit    *shared.AuditLogger
	cfg      Config
}

func NewService(
	logger *slog.Logger,
	repo Repository,
	clientSvc *clients.Service,
	conceptSvc *concepts.Service,
	notifier Notifier,
	audit *shared.AuditLogger,
	cfg Config,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.FolioPrefix == "" {
		cfg.FolioPrefix = "PTCH-"
	}
	if cfg.DefaultTax == 0 {
		cfg.DefaultTax = 16
	}
	return &Service{
		logger:   logger,
		repo:     repo,
		clients:  clientSvc,
		concepts: conceptSvc,
		notifier: notifier,
		audit:    audit,
		cfg:      cfg,
	}
}

// Mode exposes the active discount configuration, for rendering the form.
func (s *Service) Mode() DiscountMode { return s.cfg.DiscountMode }

// Get loads a quote the actor may access.
func (s *Service) Get(ctx context.Context, id int64, actor Actor) (*Quote, []QuoteLine, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccess(q) {
		return nil, nil, shared.ErrForbidden
	}
	lines, err := s.repo.Lines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return q, lines, nil
}

// GetWithClient loads a quote joined to its client columns.
func (s *Service) GetWithClient(ctx context.Context, id int64, actor Actor) (*QuoteWithClient, []QuoteLine, error) {
	qc, err := s.repo.GetWithClient(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccess(&qc.Quote) {
		return nil, nil, shared.ErrForbidden
	}
	lines, err := s.repo.Lines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return qc, lines, nil
}

// List returns the actor's page of quotes, newest first.
func (s *Service) List(ctx context.Context, actor Actor, limit, offset int) ([]QuoteWithClient, int, error) {
	return s.repo.List(ctx, scopeOf(actor), limit, offset)
}

// Search runs the filtered quote search, scoped to the actor.
func (s *Service) Search(ctx context.Context, actor Actor, req SearchRequest) ([]QuoteWithClient, error) {
	req.Representante = scopeOf(actor)
	return s.repo.Search(ctx, req)
}

// Create builds a quote from the submitted form. The client and every
// concept referenced by the rows are found-or-created on the way, so the
// catalog grows with the quotes.
func (s *Service) Create(ctx context.Context, req SaveRequest, actor Actor) (*Quote, error) {
	representante := s.resolveRepresentante(req, actor, nil)

	estatus := Status(strings.ToUpper(strings.TrimSpace(req.Estatus)))
	if estatus == "" {
		estatus = StatusPendiente
	}
	if !ValidStatus(estatus) {
		return nil, shared.ErrInvalidStatus
	}

	ledger := req.BuildLedger(s.cfg.DiscountMode, s.cfg.DefaultTax)
	totals := ledger.Totals()

	var quote *Quote
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		clienteID, err := s.resolveClient(ctx, req, representante, actor)
		if err != nil {
			return err
		}

		folio, err := NextFolio(ctx, repo, s.cfg.FolioPrefix)
		if err != nil {
			return err
		}

		q := &Quote{
			Folio:          folio,
			ClienteID:      clienteID,
			Fecha:          time.Now().UTC(),
			Estatus:        estatus,
			Subtotal:       round2(totals.Subtotal),
			DescuentoTotal: round2(totals.DiscountAmount),
			IVAPorc:        round2(totals.TaxPct),
			IVAMonto:       round2(totals.TaxAmount),
			Total:          round2(totals.GrandTotal),
			Notas:          zoneNotes(req.Notas, req.Zona, totals.ZoneDiscountPct),
			Representante:  optional(representante),
		}
		if _, err := repo.Create(ctx, q); err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}

		if err := s.insertLines(ctx, repo, q.ID, ledger); err != nil {
			return err
		}

		quote = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.QuoteCreated(ctx, quote); err != nil {
		s.logger.Warn("quote created notification failed", "folio", quote.Folio, "error", err)
	}
	s.record(ctx, actor, "cotizacion.crear", fmt.Sprintf("Cotización %s creada (total %s)", quote.Folio, shared.FormatMoney(quote.Total)))
	return quote, nil
}

// Update replaces a quote's client, header and lines with the submitted
// form, recomputing every total from scratch.
func (s *Service) Update(ctx context.Context, id int64, req SaveRequest, actor Actor) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(existing) {
		return nil, shared.ErrForbidden
	}

	representante := s.resolveRepresentante(req, actor, existing.Representante)

	estatus := Status(strings.ToUpper(strings.TrimSpace(req.Estatus)))
	if estatus == "" {
		estatus = existing.Estatus
	}
	if !ValidStatus(estatus) {
		return nil, shared.ErrInvalidStatus
	}

	ledger := req.BuildLedger(s.cfg.DiscountMode, s.cfg.DefaultTax)
	totals := ledger.Totals()

	notas := req.Notas
	if strings.TrimSpace(notas) == "" && existing.Notas != nil {
		notas = *existing.Notas
	}

	var quote *Quote
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		clienteID, err := s.resolveClient(ctx, req, representante, actor)
		if err != nil {
			return err
		}
		if clienteID == nil {
			clienteID = existing.ClienteID
		}

		q := *existing
		q.ClienteID = clienteID
		q.Estatus = estatus
		q.Subtotal = round2(totals.Subtotal)
		q.DescuentoTotal = round2(totals.DiscountAmount)
		q.IVAPorc = round2(totals.TaxPct)
		q.IVAMonto = round2(totals.TaxAmount)
		q.Total = round2(totals.GrandTotal)
		q.Notas = zoneNotes(notas, req.Zona, totals.ZoneDiscountPct)
		q.Representante = optional(representante)

		if err := repo.Update(ctx, &q); err != nil {
			return err
		}
		// back to PENDIENTE restarts the reminder cycle
		if estatus == StatusPendiente && existing.Estatus != StatusPendiente {
			if err := repo.UpdateStatus(ctx, q.ID, estatus, true); err != nil {
				return err
			}
		}

		if err := repo.ReplaceLines(ctx, q.ID, nil); err != nil {
			return err
		}
		if err := s.insertLines(ctx, repo, q.ID, ledger); err != nil {
			return err
		}

		quote = &q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, "cotizacion.actualizar", fmt.Sprintf("Cotización %s actualizada (total %s)", quote.Folio, shared.FormatMoney(quote.Total)))
	return quote, nil
}

// UpdateStatus transitions a quote to a new status. A no-op transition is
// reported as changed=false and sends no notification.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, actor Actor) (*Quote, bool, error) {
	if !ValidStatus(status) {
		return nil, false, shared.ErrInvalidStatus
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !actor.CanAccess(q) {
		return nil, false, shared.ErrForbidden
	}
	if q.Estatus == status {
		return q, false, nil
	}

	previous := q.Estatus
	if err := s.repo.UpdateStatus(ctx, id, status, status == StatusPendiente); err != nil {
		return nil, false, err
	}
	q.Estatus = status

	if err := s.notifier.StatusChanged(ctx, q, previous); err != nil {
		s.logger.Warn("status change notification failed", "folio", q.Folio, "error", err)
	}
	s.record(ctx, actor, "cotizacion.estatus", fmt.Sprintf("Cotización %s: %s → %s", q.Folio, previous, status))
	return q, true, nil
}

// maxBulkDelete caps a single bulk delete request.
const maxBulkDelete = 500

// maxFilteredDelete caps a delete-by-filter sweep.
const maxFilteredDelete = 2000

// Delete removes quotes by id. Admin only.
func (s *Service) Delete(ctx context.Context, ids []int64, actor Actor) ([]int64, error) {
	if !actor.Admin {
		return nil, shared.ErrForbidden
	}
	ids = dedupeIDs(ids, maxBulkDelete)
	if len(ids) == 0 {
		return nil, errors.New("quotes: no valid ids")
	}

	var deleted []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		deleted, err = repo.Delete(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "cotizacion.eliminar", fmt.Sprintf("%d cotizaciones eliminadas", len(deleted)))
	return deleted, nil
}

// DeleteFiltered removes every quote matching the search filters. Admin
// only; refuses sweeps beyond the cap so a loose filter cannot wipe the
// table.
func (s *Service) DeleteFiltered(ctx context.Context, req SearchRequest, actor Actor) ([]int64, error) {
	if !actor.Admin {
		return nil, shared.ErrForbidden
	}

	req.Limit = maxFilteredDelete + 1
	ids, err := s.repo.SearchIDs(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(ids) > maxFilteredDelete {
		return nil, fmt.Errorf("quotes: too many matches (%d+), narrow the filters", maxFilteredDelete)
	}
	if len(ids) == 0 {
		return []int64{}, nil
	}

	var deleted []int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		deleted, err = repo.Delete(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "cotizacion.eliminar", fmt.Sprintf("%d cotizaciones eliminadas por filtro", len(deleted)))
	return deleted, nil
}

func (s *Service) insertLines(ctx context.Context, repo Repository, quoteID int64, ledger *Ledger) error {
	for _, li := range ledger.Lines() {
		concepto, err := s.concepts.FindOrCreate(ctx, concepts.Concept{
			Nombre:      li.Concept,
			Unidad:      optional(li.Unit),
			Precio:      li.UnitPrice,
			Descripcion: optional(li.Description),
		})
		if err != nil {
			return err
		}

		line := QuoteLine{
			QuoteID:     quoteID,
			ConceptoID:  &concepto.ID,
			Nombre:      li.Concept,
			Unidad:      li.Unit,
			Cantidad:    li.Quantity,
			Precio:      li.UnitPrice,
			Descuento:   li.DiscountPct,
			Sistema:     optional(li.SystemTag),
			Descripcion: li.Description,
			Subtotal:    round2(li.Subtotal()),
		}
		if err := repo.CreateLine(ctx, &line); err != nil {
			return fmt.Errorf("insert line %q: %w", li.Concept, err)
		}
	}
	return nil
}

func (s *Service) resolveClient(ctx context.Context, req SaveRequest, representante string, actor Actor) (*int64, error) {
	if req.Cliente == "" {
		return nil, nil
	}
	scope := representante
	if actor.Admin {
		scope = ""
	}
	c, err := s.clients.FindOrCreate(ctx, clients.Client{
		Nombre:        req.Cliente,
		Empresa:       optional(req.Empresa),
		Representante: optional(representante),
		Correo:        optional(req.Correo),
		Telefono:      optional(req.Telefono),
		Direccion:     optional(req.Direccion),
		RFC:           optional(req.RFC),
	}, scope)
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// resolveRepresentante decides who owns the quote: admins may assign anyone
// (or nobody) from the form, a representante always owns their own quotes.
func (s *Service) resolveRepresentante(req SaveRequest, actor Actor, existing *string) string {
	if actor.Admin {
		if v := strings.TrimSpace(req.Responsable); v != "" {
			return v
		}
		if existing != nil {
			return *existing
		}
		return ""
	}
	return actor.Representante
}

func (s *Service) record(ctx context.Context, actor Actor, action, detail string) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditEntry{
		Actor:  actor.Username,
		Action: action,
		Entity: "cotizacion",
		Meta:   map[string]any{"detalle": detail},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

// zoneNotes rewrites the notes with the zone traceability line: any previous
// "Zona:" line is removed, and when the zone discounts the quote a fresh one
// is appended.
func zoneNotes(notas, zona string, zonePct float64) *string {
	var kept []string
	for _, line := range strings.Split(notas, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(strings.ToLower(trimmed), "zona:") {
			continue
		}
		kept = append(kept, line)
	}

	zona = strings.TrimSpace(zona)
	if zona != "" && zonePct > 0 {
		kept = append(kept, fmt.Sprintf("Zona: %s (%d%% descuento)", zona, int(zonePct)))
	}

	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if out == "" {
		return nil
	}
	return &out
}

func scopeOf(actor Actor) string {
	if actor.Admin {
		return ""
	}
	return actor.Representante
}

func round2(n float64) float64 {
	return math.Round(n*100) / 100
}

func dedupeIDs(ids []int64, limit int) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	var out []int64
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
