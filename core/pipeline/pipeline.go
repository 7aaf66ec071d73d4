package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/enrichment"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// RowResult describes what happened to one ingested row
type RowResult int

const (
	RowIngested RowResult = iota
	RowSkipped
	RowDuplicate
)

// Ingestor processes tabular event rows into events, entities and
// connections. Rows are processed sequentially; the mentions of one row
// resolve concurrently.
type Ingestor struct {
	store    database.StoreDBHandlerFunctions
	lookup   enrichment.LookupFunctions
	config   model.IngestConfig
	matcher  *Matcher
	recorder *Recorder
	dedup    *Deduplicator

	// guard excludes entity creation while the merge engine commits a
	// cluster; creation takes the read side
	guard *sync.RWMutex

	log *slog.Logger
}

// NewIngestor creates a new row ingestor. The lookup may be nil, in which
// case entities are created without enrichment data.
func NewIngestor(store database.StoreDBHandlerFunctions, lookup enrichment.LookupFunctions, config model.IngestConfig, guard *sync.RWMutex, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:    store,
		lookup:   lookup,
		config:   config,
		matcher:  NewMatcher(store, logger),
		recorder: NewRecorder(store),
		dedup:    NewDeduplicator(store, logger),
		guard:    guard,
		log:      logger,
	}
}

// IngestRows drives one ingestion run over a batch of rows. Malformed
// rows are skipped with a warning; a failing row does not abort the run.
func (p *Ingestor) IngestRows(ctx context.Context, run *ResolutionContext, rows []*model.Row) (*model.IngestReport, error) {
	report := &model.IngestReport{}
	createdBefore := run.EntitiesCreated()

	for i, row := range rows {
		result, err := p.ProcessRow(ctx, run, row)
		if err != nil {
			p.log.Warn("Row ingestion failed",
				slog.Int("row", i),
				slog.Any("error", err))
		}

		switch result {
		case RowIngested:
			report.RowsProcessed++
		case RowDuplicate:
			report.DuplicateEvents++
		case RowSkipped:
			report.RowsSkipped++
		}

		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	report.EntitiesCreated = run.EntitiesCreated() - createdBefore

	p.log.Info("Ingestion run finished",
		slog.Int("rows_processed", report.RowsProcessed),
		slog.Int("rows_skipped", report.RowsSkipped),
		slog.Int("duplicate_events", report.DuplicateEvents),
		slog.Int("entities_created", report.EntitiesCreated))

	return report, nil
}

// ProcessRow validates one row, builds its event and resolves all its
// mentions. The row is fully ingested only once every mention task has
// completed.
func (p *Ingestor) ProcessRow(ctx context.Context, run *ResolutionContext, row *model.Row) (RowResult, error) {
	if err := row.Validate(); err != nil {
		p.log.Warn("Skipping invalid row", slog.Any("error", err))
		return RowSkipped, nil
	}

	date, err := row.ParseDate(p.config.DateLayouts)
	if err != nil {
		p.log.Warn("Skipping row with unparseable date",
			slog.String("date_received", row.DateReceived))
		return RowSkipped, nil
	}

	event := buildEvent(row, date)

	// A failed duplicate check is treated conservatively as "not a
	// duplicate" so the row is not silently dropped
	duplicate, err := p.dedup.IsDuplicate(event)
	if err != nil {
		p.log.Warn("Event duplicate check failed, treating event as new",
			slog.Any("error", err))
		duplicate = false
	}
	if duplicate {
		p.log.Debug("Skipping duplicate event",
			slog.String("actor", event.RawActor),
			slog.String("action", event.Action))
		return RowDuplicate, nil
	}

	if _, err := p.store.InsertRecord(model.CollectionEvents, event); err != nil {
		return RowSkipped, helper.NewError("insert event", err)
	}

	type mention struct {
		name string
		role model.Role
	}

	var mentions []mention
	for _, name := range event.Actors {
		mentions = append(mentions, mention{name: name, role: model.RoleActor})
	}
	for _, name := range event.Targets {
		mentions = append(mentions, mention{name: name, role: model.RoleTarget})
	}
	for _, name := range event.Locations {
		mentions = append(mentions, mention{name: name, role: model.RoleLocation})
	}

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var mentionErrs []error

	for _, m := range mentions {
		wg.Add(1)
		go func(m mention) {
			defer wg.Done()
			if err := p.resolveMention(ctx, run, m.name, event, m.role); err != nil {
				errMu.Lock()
				mentionErrs = append(mentionErrs, err)
				errMu.Unlock()
			}
		}(m)
	}
	wg.Wait()

	if len(mentionErrs) > 0 {
		return RowIngested, errors.Join(mentionErrs...)
	}
	return RowIngested, nil
}

// buildEvent creates the immutable event record for a valid row
func buildEvent(row *model.Row, date time.Time) *model.Event {
	return &model.Event{
		ID:           uuid.New(),
		RawActor:     strings.TrimSpace(row.Actor),
		Action:       strings.TrimSpace(row.Action),
		RawTarget:    strings.TrimSpace(row.Target),
		Sentence:     strings.TrimSpace(row.Sentence),
		DateReceived: date,
		Locations:    SplitMentionList(row.Locations),
		Actors:       SplitMentionList(row.Actor),
		Targets:      SplitMentionList(row.Target),
	}
}

// resolveMention resolves one name to an entity, creating and enriching it
// on first sight, and records the event connection. Resolution of the
// same case-folded name is serialized so concurrent first mentions create
// exactly one entity.
func (p *Ingestor) resolveMention(ctx context.Context, run *ResolutionContext, name string, event *model.Event, role model.Role) error {
	lock := run.NameLock(name)
	lock.Lock()

	entity, err := p.matcher.Resolve(run, name)
	if err == nil && entity == nil {
		entity, err = p.createEntity(ctx, run, name, role)
	}
	lock.Unlock()
	if err != nil {
		return err
	}

	_, err = p.recorder.Attach(entity, event, role)
	return err
}

// createEntity classifies and persists a previously-unseen entity
func (p *Ingestor) createEntity(ctx context.Context, run *ResolutionContext, name string, role model.Role) (*model.Entity, error) {
	enrich := p.lookupEnrichment(ctx, run, name)

	hint := role
	if role == model.RoleLocation {
		hint = ""
	}
	entityType := Classify(name, enrich, hint)

	entity := &model.Entity{
		ID:          uuid.New(),
		Name:        name,
		Aliases:     []string{name},
		Type:        entityType,
		Connections: []model.Connection{},
		CreatedAt:   time.Now(),
	}
	applyEnrichment(entity, enrich)

	p.guard.RLock()
	defer p.guard.RUnlock()

	record, err := p.store.InsertRecord(entityType.Collection(), entity)
	if err != nil {
		return nil, helper.NewError("insert entity", err)
	}
	entity.StoreLocation = &model.StoreLocation{
		Collection: record.Collection,
		RecordID:   record.ID,
	}

	run.CacheEntity(entity)
	run.CountEntityCreated()

	p.log.Debug("Created entity",
		slog.String("name", name),
		slog.String("entity_type", string(entityType)),
		slog.String("entity_id", entity.ID.String()))

	return entity, nil
}

// lookupEnrichment returns the memoized enrichment for a name, performing
// the external lookup at most once per run. Failures are memoized as
// absent and never fail the enclosing mention task.
func (p *Ingestor) lookupEnrichment(ctx context.Context, run *ResolutionContext, name string) *model.Enrichment {
	if !p.config.EnrichmentEnabled || p.lookup == nil {
		return nil
	}

	if enrich, looked := run.Enrichment(name); looked {
		return enrich
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.config.LookupTimeout())
	defer cancel()

	enrich, err := p.lookup.Search(lookupCtx, name)
	if err != nil {
		p.log.Warn("Enrichment lookup failed",
			slog.String("name", name),
			slog.Any("error", err))
		enrich = nil
	}

	run.MemoizeEnrichment(name, enrich)
	return enrich
}

// applyEnrichment populates the per-type payload and the shared
// enrichment fields. Exactly one payload matches the entity type.
func applyEnrichment(entity *model.Entity, enrich *model.Enrichment) {
	switch entity.Type {
	case model.EntityTypePerson:
		entity.Person = &model.PersonFields{}
	case model.EntityTypeOrganization:
		entity.Organization = &model.OrganizationFields{}
	case model.EntityTypePlace:
		entity.Place = &model.PlaceFields{}
		entity.Category = ClassifyPlaceCategory(entity.Name, enrich)
	}

	if enrich == nil {
		return
	}

	entity.ExternalID = enrich.ID
	entity.Description = enrich.Description

	switch entity.Type {
	case model.EntityTypePerson:
		entity.Person.Occupation = enrich.Occupation
		entity.Person.DateOfBirth = enrich.DateOfBirth
	case model.EntityTypeOrganization:
		entity.Organization.Founded = enrich.Founded
	case model.EntityTypePlace:
		entity.Place.Country = enrich.Country
		entity.Place.Population = enrich.Population
		entity.Place.Location = enrich.Coordinates
	}
}
