package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/siherrmann/eventgraph"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

const sampleRows = `actor,action,target,sentence,date_received,locations
Dr. Jane Goodall,visited,Gombe Research Institute,Dr. Jane Goodall visited the Gombe Research Institute.,2024-03-01,Tanzania
"John Smith, Washington, D.C.",met,Acme Corp,John Smith met Acme Corp representatives in Washington.,2024-03-02,"Washington, D.C."
Acme Corp,acquired,Globex Inc,Acme Corp acquired Globex Inc for an undisclosed sum.,2024-03-03,"New York City"
Dr. Jane Goodall,spoke at,United Nations,Dr. Jane Goodall spoke at the United Nations.,2024-03-04,"New York City"
Dr. Jane Goodall,spoke at,United Nations,Dr. Jane Goodall spoke at the United Nations.,2024-03-04,"New York City"
`

func main() {
	// Optional .env with DB_* overrides
	_ = godotenv.Load()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// No enrichment lookup in this example; entities are classified from
	// name patterns alone
	g, err := eventgraph.NewEventGraph(dbConfig, model.DefaultIngestConfig(), nil)
	if err != nil {
		log.Fatalf("Failed to create eventgraph: %v", err)
	}
	defer g.Close()

	rows, err := readRows(sampleRows)
	if err != nil {
		log.Fatalf("Failed to parse sample rows: %v", err)
	}

	fmt.Println("Ingesting rows...")
	run := g.NewRun()
	report, err := g.IngestRows(context.Background(), run, rows)
	if err != nil {
		log.Fatalf("Failed to ingest rows: %v", err)
	}
	fmt.Printf("Processed %d rows (%d skipped, %d duplicate events), created %d entities\n",
		report.RowsProcessed, report.RowsSkipped, report.DuplicateEvents, report.EntitiesCreated)

	// Show what a merge pass would do
	preview, err := g.PreviewMerge()
	if err != nil {
		log.Fatalf("Failed to preview merge: %v", err)
	}
	fmt.Printf("\nMerge preview: %d clusters, %d duplicates to remove\n",
		len(preview.Clusters), preview.TotalDuplicatesToRemove)
	for _, cluster := range preview.Clusters {
		fmt.Printf("  %s %q: %v\n", cluster.Type, cluster.ExternalID, cluster.MemberNames)
	}

	mergeReport, err := g.RunMerge(context.Background())
	if err != nil {
		log.Fatalf("Failed to run merge: %v", err)
	}
	fmt.Printf("\nMerge run: %d groups found, %d duplicates removed\n",
		mergeReport.DuplicateGroupsFound, mergeReport.DuplicatesRemoved)
}

// readRows parses CSV input with an actor,action,target,sentence,
// date_received,locations header into ingestion rows
func readRows(input string) ([]*model.Row, error) {
	reader := csv.NewReader(strings.NewReader(input))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in input")
	}

	var rows []*model.Row
	for _, record := range records[1:] {
		if len(record) < 6 {
			continue
		}
		rows = append(rows, &model.Row{
			Actor:        record[0],
			Action:       record[1],
			Target:       record[2],
			Sentence:     record[3],
			DateReceived: record[4],
			Locations:    record[5],
		})
	}
	return rows, nil
}
