package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/render"
	"github.com/retroprint/labelforge/pkg/selection"
	"github.com/retroprint/labelforge/pkg/storage"
)

// catalogueCmd represents the catalogue command
var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Select games and render PDF catalogues",
	Long: `Resolves which platform owns each collected game, quota-selects the games
worth printing per platform, writes game_catalogue.json and renders one A4
PDF catalogue per platform.`,
	Run: func(cmd *cobra.Command, args []string) {
		treeDir, _ := cmd.Flags().GetString("tree")
		outputDir, _ := cmd.Flags().GetString("output")
		gamesCount, _ := cmd.Flags().GetInt("count")
		skipPDF, _ := cmd.Flags().GetBool("no-pdf")

		cat, err := selection.BuildCatalogue(treeDir, gamesCount)
		if err != nil {
			utils.Log.Fatal(err)
		}

		path, err := selection.WriteCatalogue(cat, treeDir)
		if err != nil {
			utils.Log.Fatal(err)
		}
		utils.Log.Infof("Wrote %s: %d games across %d platforms (%.0f%% first releases)",
			path, cat.Metadata.TotalSelectedGames, cat.Metadata.TotalPlatforms,
			cat.Metadata.FirstReleasePercent)

		recordSelectionRuns(cmd, cat)

		if skipPDF {
			return
		}
		rendered := 0
		for folder := range cat.Platforms {
			if _, err := render.CataloguePDF(filepath.Join(treeDir, folder), outputDir); err != nil {
				utils.Log.Warnf("Could not render catalogue for %s: %s", folder, err)
				continue
			}
			rendered++
		}
		utils.Log.Infof("Rendered %d catalogues into %s", rendered, outputDir)
	},
}

func recordSelectionRuns(cmd *cobra.Command, cat *selection.Catalogue) {
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

	for _, result := range cat.Platforms {
		run := storage.SelectionRun{
			PlatformName:      result.PlatformName,
			EligibleGames:     result.TotalEligibleGames,
			SelectedCount:     result.SelectedCount,
			FirstReleaseCount: result.FirstReleaseCount,
			DuplicateCount:    result.DuplicateCount,
		}
		if err := db.RecordSelectionRun(context.Background(), run); err != nil {
			utils.Log.Warn("Could not record run history: ", err)
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(catalogueCmd)
	catalogueCmd.Flags().StringP("tree", "t", "output", "Collected metadata tree directory")
	catalogueCmd.Flags().StringP("output", "o", "output/catalogues", "Output directory for PDF catalogues")
	catalogueCmd.Flags().IntP("count", "c", 20, "Number of games to select per platform")
	catalogueCmd.Flags().BoolP("no-pdf", "", false, "Only write game_catalogue.json, skip PDF rendering")
}
