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
	"github.com/retroprint/labelforge/pkg/images"
	"github.com/retroprint/labelforge/pkg/scrape"
	"github.com/retroprint/labelforge/pkg/storage"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect platform and game metadata",
	Long:  "Reads a platforms CSV and collects each platform's metadata, games and artwork into a per-platform folder tree.",
	Run: func(cmd *cobra.Command, args []string) {
		platformsFile, _ := cmd.Flags().GetString("platforms")
		gamesCount, _ := cmd.Flags().GetInt("count")
		outputDir, _ := cmd.Flags().GetString("output")
		platformEndpointFile, _ := cmd.Flags().GetString("platform-endpoint")
		gameEndpointFile, _ := cmd.Flags().GetString("game-endpoint")
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

		vars := map[string]string{"batch_limit": strconv.Itoa(batchLimit)}
		platformEndpoint, err := endpoints.LoadOne(platformEndpointFile, vars)
		if err != nil {
			utils.Log.Fatal(err)
		}
		gameEndpoint, err := endpoints.LoadOne(gameEndpointFile, vars)
		if err != nil {
			utils.Log.Fatal(err)
		}

		s := &scrape.Scraper{
			Client:           igdb.NewClient(tokens, nil),
			Downloader:       images.NewDownloader(),
			PlatformEndpoint: platformEndpoint,
			GameEndpoint:     gameEndpoint,
			OutputDir:        outputDir,
			BatchLimit:       batchLimit,
			GamesCount:       gamesCount,
		}

		started := time.Now()
		sum, err := s.Run(platformsFile)
		if err != nil {
			utils.Log.Fatal(err)
		}

		recordScrapeRun(cmd, started, sum)

		utils.Log.Infof("Scrape completed: %d/%d platforms, %d games written, %d duplicates removed",
			sum.PlatformsProcessed, sum.PlatformsRequested, sum.GamesWritten, sum.DuplicatesRemoved)
	},
}

func recordScrapeRun(cmd *cobra.Command, started time.Time, sum scrape.Summary) {
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

	run := storage.CollectionRun{
		Kind:               "scrape",
		StartedAt:          started,
		PlatformsRequested: sum.PlatformsRequested,
		PlatformsProcessed: sum.PlatformsProcessed,
		RecordsCollected:   sum.GamesWritten,
		DuplicatesRemoved:  sum.DuplicatesRemoved,
		PagesFetched:       sum.PagesFetched,
	}
	if err := db.RecordCollectionRun(context.Background(), run); err != nil {
		utils.Log.Warn("Could not record run history: ", err)
	}
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringP("platforms", "p", "assets/platforms.csv", "CSV file with platform id and name columns")
	scrapeCmd.Flags().IntP("count", "c", 20, "Number of games to collect per platform")
	scrapeCmd.Flags().StringP("output", "o", "output", "Output directory for the metadata tree")
	scrapeCmd.Flags().StringP("platform-endpoint", "", "assets/endpoints/platform_endpoint.json", "Platform endpoint configuration file")
	scrapeCmd.Flags().StringP("game-endpoint", "", "assets/endpoints/game_endpoint.json", "Game endpoint configuration file")
	scrapeCmd.Flags().IntP("batch-limit", "b", 0, "Maximum records per API batch (0 uses the configured default)")
}
