package merge

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// Engine finds clusters of persisted entities that are the same
// real-world thing (same type, same nonempty external id) and collapses
// each cluster into one canonical entity.
type Engine struct {
	store database.StoreDBHandlerFunctions

	// guard excludes concurrent entity creation while a cluster commits;
	// the engine takes the write side
	guard *sync.RWMutex

	log *slog.Logger
}

// NewEngine creates a new merge engine sharing the creation guard with
// the ingestion pipeline
func NewEngine(store database.StoreDBHandlerFunctions, guard *sync.RWMutex, logger *slog.Logger) *Engine {
	return &Engine{
		store: store,
		guard: guard,
		log:   logger,
	}
}

// cluster is one group of same-typed entities sharing an external id,
// sorted canonical-first
type cluster struct {
	entityType model.EntityType
	externalID string
	members    []*model.Entity
}

// canonical returns the surviving member: the earliest created entity,
// ties broken by the smallest id string for determinism
func (c *cluster) canonical() *model.Entity {
	return c.members[0]
}

// Preview reports the clusters a merge run would collapse, without
// writing anything
func (e *Engine) Preview() (*model.MergePreview, error) {
	clusters, err := e.findClusters()
	if err != nil {
		return nil, err
	}

	preview := &model.MergePreview{Clusters: []model.ClusterSummary{}}
	for _, c := range clusters {
		canonical := c.canonical()
		summary := model.ClusterSummary{
			Type:          c.entityType,
			ExternalID:    c.externalID,
			Size:          len(c.members),
			CanonicalID:   canonical.ID,
			CanonicalName: canonical.Name,
		}
		for _, member := range c.members {
			summary.MemberNames = append(summary.MemberNames, member.Name)
		}
		preview.Clusters = append(preview.Clusters, summary)
		preview.TotalDuplicatesToRemove += len(c.members) - 1
	}

	return preview, nil
}

// Run collapses every cluster into its canonical entity. Each cluster
// commits as one transaction: the canonical update and all deletions
// happen together or not at all. A failing cluster is left unchanged and
// reported; the remaining clusters still merge. A second run immediately
// after a successful one finds no clusters and writes nothing.
func (e *Engine) Run(ctx context.Context) (*model.MergeReport, error) {
	clusters, err := e.findClusters()
	if err != nil {
		return nil, err
	}

	report := &model.MergeReport{}
	var clusterErrs []error

	for _, c := range clusters {
		report.DuplicateGroupsFound++

		if err := e.mergeCluster(ctx, c); err != nil {
			clusterErrs = append(clusterErrs, err)
			e.log.Warn("Cluster merge failed, cluster left unchanged",
				slog.String("external_id", c.externalID),
				slog.Any("error", err))
			continue
		}

		report.DuplicatesRemoved += len(c.members) - 1

		e.log.Info("Merged entity cluster",
			slog.String("entity_type", string(c.entityType)),
			slog.String("external_id", c.externalID),
			slog.Int("duplicates_removed", len(c.members)-1),
			slog.String("canonical", c.canonical().Name))
	}

	if len(clusterErrs) > 0 {
		return report, errors.Join(clusterErrs...)
	}
	return report, nil
}

// findClusters groups the persisted entities of each type bucket by
// nonempty external id and keeps the groups with more than one member
func (e *Engine) findClusters() ([]*cluster, error) {
	var clusters []*cluster

	for _, collection := range model.EntityCollections {
		records, err := e.store.SelectAllRecords(collection)
		if err != nil {
			return nil, helper.NewError("list entities", err)
		}
		entities, err := database.EntitiesFromRecords(records)
		if err != nil {
			return nil, err
		}

		grouped := map[string][]*model.Entity{}
		var order []string
		for _, entity := range entities {
			if entity.ExternalID == "" {
				continue
			}
			if _, seen := grouped[entity.ExternalID]; !seen {
				order = append(order, entity.ExternalID)
			}
			grouped[entity.ExternalID] = append(grouped[entity.ExternalID], entity)
		}

		for _, externalID := range order {
			members := grouped[externalID]
			if len(members) < 2 {
				continue
			}
			sort.Slice(members, func(i, j int) bool {
				if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
					return members[i].CreatedAt.Before(members[j].CreatedAt)
				}
				return members[i].ID.String() < members[j].ID.String()
			})
			clusters = append(clusters, &cluster{
				entityType: model.EntityTypeForCollection(collection),
				externalID: externalID,
				members:    members,
			})
		}
	}

	return clusters, nil
}

// mergeCluster absorbs every duplicate into the canonical entity and
// commits the canonical update together with all deletions in one
// transaction, excluding concurrent entity creation for the duration
func (e *Engine) mergeCluster(ctx context.Context, c *cluster) error {
	e.guard.Lock()
	defer e.guard.Unlock()

	canonical := c.canonical()
	for _, member := range c.members[1:] {
		canonical.AddAlias(member.Name)
		for _, alias := range member.Aliases {
			canonical.AddAlias(alias)
		}
		// AppendConnection drops connections equal to one the canonical
		// already carries, so shared events are not double counted
		for _, connection := range member.Connections {
			canonical.AppendConnection(connection)
		}
	}

	doc, err := model.NewDocument(canonical)
	if err != nil {
		return err
	}

	return e.store.WithinTransaction(ctx, func(tx database.StoreTxFunctions) error {
		if canonical.StoreLocation == nil {
			return helper.NewError("merge cluster", errors.New("canonical entity has no store location"))
		}
		if err := tx.UpdateRecord(canonical.StoreLocation.RecordID, doc); err != nil {
			return err
		}
		for _, member := range c.members[1:] {
			if member.StoreLocation == nil {
				return helper.NewError("merge cluster", errors.New("duplicate entity has no store location"))
			}
			if err := tx.DeleteRecord(member.StoreLocation.RecordID); err != nil {
				return err
			}
		}
		return nil
	})
}
