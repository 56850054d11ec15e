package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/logo"
	"github.com/retroprint/labelforge/pkg/record"
	"github.com/retroprint/labelforge/pkg/render"
	"github.com/retroprint/labelforge/pkg/selection"
)

// labelsCmd represents the labels command
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Render labels for the catalogue-selected games",
	Long: `Reads game_catalogue.json and renders one label per selected game from the
SVG template, substituting each game's cover art and its platform's logo.`,
	Run: func(cmd *cobra.Command, args []string) {
		cataloguePath, _ := cmd.Flags().GetString("catalogue")
		treeDir, _ := cmd.Flags().GetString("tree")
		templatePath, _ := cmd.Flags().GetString("template")
		outputDir, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		if format != "svg" && format != "png" && format != "both" {
			utils.Log.Fatalf("Unknown label format %q, expected svg, png or both", format)
		}

		cat, err := selection.ReadCatalogue(cataloguePath)
		if err != nil {
			utils.Log.Fatal(err)
		}
		renderer, err := render.NewLabelRenderer(templatePath)
		if err != nil {
			utils.Log.Fatal(err)
		}

		rendered, skipped := 0, 0
		for folder, result := range cat.Platforms {
			logoPath := platformLogoPath(treeDir, folder)
			if logoPath == "" {
				utils.Log.Warnf("No logo found for %s, labels will carry the placeholder", result.PlatformName)
			}
			for _, game := range result.Games {
				coverPath := gameCoverPath(treeDir, game)
				if coverPath == "" {
					utils.Log.Warnf("No cover art for %s (%s), skipping label", game.GameName, result.PlatformName)
					skipped++
					continue
				}
				if err := renderLabel(renderer, format, coverPath, logoPath, game.GameName, result.PlatformName, outputDir); err != nil {
					utils.Log.Warnf("Could not render label for %s: %s", game.GameName, err)
					skipped++
					continue
				}
				rendered++
			}
		}
		utils.Log.Infof("Rendered %d labels into %s (%d skipped)", rendered, outputDir, skipped)
	},
}

// platformLogoPath resolves the downloaded logo file for a platform folder,
// or "" when the platform has no usable logo.
func platformLogoPath(treeDir, folder string) string {
	info, err := readJSONRecord(filepath.Join(treeDir, folder, "platform_info.json"))
	if err != nil {
		utils.Log.Warnf("Could not read platform info for %s: %s", folder, err)
		return ""
	}
	best := logo.SelectBest(logo.Flatten(info))
	if best == nil {
		return ""
	}
	local := best.Str("local_file_path")
	if local == "" {
		return ""
	}
	return filepath.Join(treeDir, folder, local)
}

// gameCoverPath resolves the downloaded cover for a selected game, or ""
// when the game has none.
func gameCoverPath(treeDir string, game selection.Item) string {
	rec, err := readJSONRecord(filepath.Join(treeDir, game.ReferenceJSONPath))
	if err != nil {
		utils.Log.Warnf("Could not read metadata for %s: %s", game.GameName, err)
		return ""
	}
	local := rec.Map("cover").Str("local_file_path")
	if local == "" {
		return ""
	}
	return filepath.Join(treeDir, game.GameFolderPath, local)
}

func renderLabel(r *render.LabelRenderer, format, coverPath, logoPath, gameName, platformName, outputDir string) error {
	if format == "svg" || format == "both" {
		if _, err := r.RenderSVG(coverPath, logoPath, gameName, platformName, outputDir); err != nil {
			return err
		}
	}
	if format == "png" || format == "both" {
		if _, err := r.RenderPNG(coverPath, logoPath, gameName, platformName, outputDir); err != nil {
			return err
		}
	}
	return nil
}

func readJSONRecord(path string) (record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.Flags().String("catalogue", "output/game_catalogue.json", "Path to game_catalogue.json")
	labelsCmd.Flags().StringP("tree", "t", "output", "Collected metadata tree directory")
	labelsCmd.Flags().StringP("template", "", "assets/label_template.svg", "SVG label template")
	labelsCmd.Flags().StringP("output", "o", "output/labels", "Output directory for rendered labels")
	labelsCmd.Flags().StringP("format", "f", "svg", "Label format to render: svg, png or both")
}
