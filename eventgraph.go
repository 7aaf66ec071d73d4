package eventgraph

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/siherrmann/eventgraph/core/merge"
	"github.com/siherrmann/eventgraph/core/pipeline"
	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/enrichment"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
	loadSql "github.com/siherrmann/eventgraph/sql"
)

// EventGraph provides a unified interface to the entity knowledge base:
// row ingestion, entity resolution and the merge engine.
type EventGraph struct {
	DB     *helper.Database
	Store  *database.StoreDBHandler
	Lookup enrichment.LookupFunctions

	Ingestor *pipeline.Ingestor
	Merger   *merge.Engine

	// mergeGuard serializes cluster merges against entity creation
	mergeGuard sync.RWMutex

	// Logging
	log *slog.Logger
}

// NewEventGraph creates a new EventGraph instance with all handlers
// initialized. The lookup may be nil to disable enrichment entirely.
func NewEventGraph(config *helper.DatabaseConfiguration, ingestConfig model.IngestConfig, lookup enrichment.LookupFunctions) (*EventGraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("eventgraph", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	store, err := database.NewStoreDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create store handler", err)
	}

	g := &EventGraph{
		DB:     db,
		Store:  store,
		Lookup: lookup,
		log:    logger,
	}

	g.Ingestor = pipeline.NewIngestor(store, lookup, ingestConfig, &g.mergeGuard, logger)
	g.Merger = merge.NewEngine(store, &g.mergeGuard, logger)

	return g, nil
}

// Close closes the database connection
func (g *EventGraph) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// NewRun creates the resolution context for one ingestion run: a fresh
// session entity cache and enrichment cache
func (g *EventGraph) NewRun() *pipeline.ResolutionContext {
	return pipeline.NewResolutionContext()
}

// IngestRows ingests a batch of rows within one run context
func (g *EventGraph) IngestRows(ctx context.Context, run *pipeline.ResolutionContext, rows []*model.Row) (*model.IngestReport, error) {
	return g.Ingestor.IngestRows(ctx, run, rows)
}

// PreviewMerge reports the duplicate clusters a merge run would collapse
func (g *EventGraph) PreviewMerge() (*model.MergePreview, error) {
	return g.Merger.Preview()
}

// RunMerge collapses all duplicate clusters in the store
func (g *EventGraph) RunMerge(ctx context.Context) (*model.MergeReport, error) {
	return g.Merger.Run(ctx)
}
