package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/endpoints"
	"github.com/retroprint/labelforge/pkg/igdb"
	"github.com/retroprint/labelforge/pkg/reference"
	"github.com/retroprint/labelforge/pkg/storage"
)

// referenceCmd represents the reference command
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Collect IGDB reference data",
	Long:  "Pulls lookup data (platforms, families, genres and the like) from every configured IGDB endpoint into JSON files.",
	Run: func(cmd *cobra.Command, args []string) {
		endpointsFile, _ := cmd.Flags().GetString("endpoints")
		outputDir, _ := cmd.Flags().GetString("output")
		batchLimit, _ := cmd.Flags().GetInt("batch-limit")
		if batchLimit <= 0 {
			batchLimit = viper.GetInt("igdb.batch_limit")
		}

		dir, err := configDir(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		tokens, err := igdb.NewTokenManager(dir, nil)
		if err != nil {
			utils.Log.Fatal(err)
		}
		client := igdb.NewClient(tokens, nil)

		list, err := endpoints.Load(endpointsFile, map[string]string{
			"batch_limit": strconv.Itoa(batchLimit),
		})
		if err != nil {
			utils.Log.Fatal(err)
		}

		started := time.Now()
		collector := reference.NewCollector(client, outputDir, batchLimit)
		stats, err := collector.Run(list)
		if err != nil {
			utils.Log.Fatal(err)
		}

		recordReferenceRun(cmd, started, stats)

		utils.Log.Infof("Reference data collection completed: %d endpoints, %d records",
			stats.Overall.EndpointsProcessed, stats.Overall.TotalRecordsCollected)
		utils.Log.Infof("Results saved to %s (see collection_summary.txt)", outputDir)
	},
}

func recordReferenceRun(cmd *cobra.Command, started time.Time, stats reference.Stats) {
	dbPath, err := historyDBPath(cmd)
	if err != nil {
		utils.Log.Warn("Run history unavailable: ", err)
		return
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		utils.Log.Warn("Run history unavailable: ", err)
		return
	}
	defer db.Close()

	pages := 0
	for _, es := range stats.Endpoints {
		pages += es.BatchesRequired
	}
	run := storage.CollectionRun{
		Kind:             "reference",
		StartedAt:        started,
		RecordsCollected: stats.Overall.TotalRecordsCollected,
		PagesFetched:     pages,
		EndpointsFailed:  len(stats.Overall.FailedEndpoints),
	}
	if err := db.RecordCollectionRun(context.Background(), run); err != nil {
		utils.Log.Warn("Could not record run history: ", err)
	}
}

func init() {
	rootCmd.AddCommand(referenceCmd)
	referenceCmd.Flags().StringP("endpoints", "e", "assets/endpoints/reference_endpoints.json", "Endpoint configuration file")
	referenceCmd.Flags().StringP("output", "o", "output/reference_data", "Output directory for reference data")
	referenceCmd.Flags().IntP("batch-limit", "b", 0, "Maximum records per API batch (0 uses the configured default)")
}
