package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/storage"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print collection and selection run history",
	Run: func(cmd *cobra.Command, args []string) {
		dbPath, err := historyDBPath(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			utils.Log.Fatal(err)
		}
		defer db.Close()

		ctx := context.Background()
		collection, err := db.GetCollectionStats(ctx)
		if err != nil {
			utils.Log.Fatal(err)
		}
		selection, err := db.GetSelectionStats(ctx)
		if err != nil {
			utils.Log.Fatal(err)
		}

		if len(collection) == 0 && len(selection) == 0 {
			fmt.Println("No run history recorded yet")
			return
		}

		if len(collection) > 0 {
			fmt.Println("Collection runs:")
			fmt.Printf("  %-12s %6s %10s %8s\n", "KIND", "RUNS", "RECORDS", "PAGES")
			for _, s := range collection {
				fmt.Printf("  %-12s %6d %10d %8d\n", s.Kind, s.Runs, s.RecordsCollected, s.PagesFetched)
			}
		}
		if len(selection) > 0 {
			fmt.Println("Selection runs:")
			fmt.Printf("  %-24s %6s %10s %14s\n", "PLATFORM", "RUNS", "SELECTED", "FIRST-RELEASE")
			for _, s := range selection {
				fmt.Printf("  %-24s %6d %10d %14d\n", s.PlatformName, s.Runs, s.SelectedCount, s.FirstReleaseCount)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
