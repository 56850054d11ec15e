package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/collect"
	"github.com/retroprint/labelforge/pkg/endpoints"
	"github.com/retroprint/labelforge/pkg/igdb"
	"github.com/retroprint/labelforge/pkg/record"
)

// API is the slice of the IGDB client a reference collection run needs.
type API interface {
	Count(countURL, body string) (int, error)
	Query(endpointURL, body string) ([]record.Record, error)
}

// EndpointStats records the outcome of one endpoint's collection.
type EndpointStats struct {
	EndpointName      string `json:"endpoint_name"`
	EndpointURL       string `json:"endpoint_url"`
	BatchesRequired   int    `json:"batches_required"`
	TotalRecords      int    `json:"total_records"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Error             string `json:"error,omitempty"`
}

// FailedEndpoint names an endpoint whose collection failed and why.
type FailedEndpoint struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// OverallStats summarizes a whole reference collection run.
type OverallStats struct {
	StartTime             string           `json:"start_time"`
	EndTime               string           `json:"end_time"`
	EndpointsProcessed    int              `json:"endpoints_processed"`
	TotalRecordsCollected int              `json:"total_records_collected"`
	SuccessfulEndpoints   []string         `json:"successful_endpoints"`
	FailedEndpoints       []FailedEndpoint `json:"failed_endpoints"`
	Warnings              []string         `json:"warnings"`
}

// Stats is the persisted collection_stats.json document.
type Stats struct {
	Overall   OverallStats             `json:"overall"`
	Endpoints map[string]EndpointStats `json:"endpoints"`
}

// Collector pulls lookup data (platforms, families, logos and the like) from
// every configured endpoint and writes one JSON file per endpoint plus
// collection statistics. One endpoint failing does not stop the others.
type Collector struct {
	Client     API
	OutputDir  string
	BatchLimit int

	now func() time.Time
}

func NewCollector(client API, outputDir string, batchLimit int) *Collector {
	return &Collector{
		Client:     client,
		OutputDir:  outputDir,
		BatchLimit: batchLimit,
		now:        time.Now,
	}
}

// Run collects every endpoint and writes <endpoint>.json files,
// collection_stats.json and collection_summary.txt under OutputDir.
func (c *Collector) Run(list []endpoints.Endpoint) (Stats, error) {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("reference: creating output directory: %w", err)
	}

	stats := Stats{
		Overall: OverallStats{
			StartTime:           c.now().Format(time.RFC3339),
			SuccessfulEndpoints: []string{},
			FailedEndpoints:     []FailedEndpoint{},
			Warnings:            []string{},
		},
		Endpoints: make(map[string]EndpointStats, len(list)),
	}

	utils.Log.Infof("Loaded %d endpoint configurations", len(list))

	for _, e := range list {
		utils.Log.Infof("Processing endpoint: %s", e.Name)

		data, es := c.collectEndpoint(e)
		stats.Endpoints[e.Name] = es

		if es.Error != "" {
			utils.Log.Errorf("Failed to process endpoint %q: %s", e.Name, es.Error)
			stats.Overall.FailedEndpoints = append(stats.Overall.FailedEndpoints,
				FailedEndpoint{Endpoint: e.Name, Error: es.Error})
			continue
		}

		stats.Overall.EndpointsProcessed++
		stats.Overall.TotalRecordsCollected += es.TotalRecords
		stats.Overall.SuccessfulEndpoints = append(stats.Overall.SuccessfulEndpoints, e.Name)
		utils.Log.Infof("Collected %d records from %s", es.TotalRecords, e.Name)

		if len(data) > 0 {
			path := filepath.Join(c.OutputDir, e.Name+".json")
			if err := writeJSON(path, data); err != nil {
				return stats, err
			}
		}
	}

	stats.Overall.EndTime = c.now().Format(time.RFC3339)

	if err := writeJSON(filepath.Join(c.OutputDir, "collection_stats.json"), stats); err != nil {
		return stats, err
	}
	if err := c.writeSummary(stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func (c *Collector) collectEndpoint(e endpoints.Endpoint) ([]record.Record, EndpointStats) {
	es := EndpointStats{
		EndpointName: e.Name,
		EndpointURL:  e.Properties.EndpointURL,
		StartTime:    c.now().Format(time.RFC3339),
	}

	fail := func(err error) ([]record.Record, EndpointStats) {
		es.Error = err.Error()
		es.EndTime = c.now().Format(time.RFC3339)
		return nil, es
	}

	if e.Properties.CountEndpointURL == "" {
		return fail(fmt.Errorf("no count_endpoint_url configured"))
	}

	total, err := c.Client.Count(e.Properties.CountEndpointURL, "")
	if err != nil {
		return fail(err)
	}

	records, batches, err := collect.Collect(total, c.BatchLimit,
		func(offset, limit int) ([]record.Record, error) {
			body := igdb.WithLimitOffset(e.Properties.Body, limit, offset)
			return c.Client.Query(e.Properties.EndpointURL, body)
		})
	if err != nil {
		return fail(err)
	}

	deduped, removed := collect.Dedupe(records)

	es.BatchesRequired = batches
	es.TotalRecords = len(deduped)
	es.DuplicatesRemoved = removed
	es.EndTime = c.now().Format(time.RFC3339)
	return deduped, es
}

func (c *Collector) writeSummary(stats Stats) error {
	path := filepath.Join(c.OutputDir, "collection_summary.txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reference: creating %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintln(f, "IGDB Reference Data Collection Summary")
	fmt.Fprintln(f, "========================================")
	fmt.Fprintln(f)
	fmt.Fprintf(f, "Collection started: %s\n", stats.Overall.StartTime)
	fmt.Fprintf(f, "Collection ended: %s\n\n", stats.Overall.EndTime)
	fmt.Fprintf(f, "Endpoints processed: %d\n", stats.Overall.EndpointsProcessed)
	fmt.Fprintf(f, "Total records collected: %d\n\n", stats.Overall.TotalRecordsCollected)

	fmt.Fprintf(f, "Successful endpoints (%d):\n", len(stats.Overall.SuccessfulEndpoints))
	for _, name := range stats.Overall.SuccessfulEndpoints {
		fmt.Fprintf(f, "  + %s\n", name)
	}

	if len(stats.Overall.FailedEndpoints) > 0 {
		fmt.Fprintf(f, "\nFailed endpoints (%d):\n", len(stats.Overall.FailedEndpoints))
		for _, failed := range stats.Overall.FailedEndpoints {
			fmt.Fprintf(f, "  - %s: %s\n", failed.Endpoint, failed.Error)
		}
	}

	if len(stats.Overall.Warnings) > 0 {
		fmt.Fprintf(f, "\nWarnings (%d):\n", len(stats.Overall.Warnings))
		for _, warning := range stats.Overall.Warnings {
			fmt.Fprintf(f, "  ! %s\n", warning)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("reference: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("reference: writing %s: %w", path, err)
	}
	return nil
}
