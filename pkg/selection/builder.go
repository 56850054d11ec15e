package selection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/record"
	"github.com/retroprint/labelforge/pkg/release"
)

const selectionCriteria = "first-release games preferred, rating descending, ports as filler"

// platformData is one collected platform folder loaded into memory.
type platformData struct {
	folder string
	info   record.Record
	games  []gameData
}

type gameData struct {
	folder string
	rec    record.Record
}

// BuildCatalogue walks a collected metadata tree, resolves first-release
// ownership across all platforms in it and quota-selects gamesPerPlatform
// games for each. Paths inside the result are relative to treeDir.
func BuildCatalogue(treeDir string, gamesPerPlatform int) (*Catalogue, error) {
	platforms, err := loadTree(treeDir)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("selection: no collected platforms under %s", treeDir)
	}

	var ownershipInput []release.PlatformGames
	for _, p := range platforms {
		pg := release.PlatformGames{
			PlatformName: p.info.Name(),
		}
		if id, ok := p.info.ID(); ok {
			pg.PlatformID = id
		}
		for _, g := range p.games {
			pg.Games = append(pg.Games, g.rec)
		}
		ownershipInput = append(ownershipInput, pg)
	}
	ownership := release.Build(ownershipInput)

	cat := &Catalogue{
		Metadata: Metadata{
			GeneratedAt:       time.Now().Format(time.RFC3339),
			TotalPlatforms:    len(platforms),
			GamesPerPlatform:  gamesPerPlatform,
			SelectionCriteria: selectionCriteria,
		},
		Platforms: make(map[string]Result, len(platforms)),
	}

	for _, p := range platforms {
		platformID, _ := p.info.ID()
		pool := buildPool(p, platformID, ownership)

		selected, fromPreferred, fromOther := SelectQuota(pool, gamesPerPlatform)
		if len(selected) == 0 {
			utils.Log.Infof("No games selected for %s", p.info.Name())
		}

		result := Result{
			PlatformID:         platformID,
			PlatformName:       p.info.Name(),
			PlatformFolder:     p.folder,
			TotalEligibleGames: len(pool),
			SelectedCount:      len(selected),
			FirstReleaseCount:  fromPreferred,
			DuplicateCount:     fromOther,
			Games:              selected,
			SelectionDate:      time.Now().Format("2006-01-02"),
		}
		cat.Platforms[p.folder] = result

		cat.Metadata.TotalSelectedGames += result.SelectedCount
		cat.Metadata.TotalFirstReleases += result.FirstReleaseCount
		cat.Metadata.TotalDuplicates += result.DuplicateCount
	}

	if cat.Metadata.TotalSelectedGames > 0 {
		cat.Metadata.FirstReleasePercent =
			100 * float64(cat.Metadata.TotalFirstReleases) / float64(cat.Metadata.TotalSelectedGames)
	}
	return cat, nil
}

func buildPool(p platformData, platformID int64, ownership release.Map) []Item {
	var pool []Item
	for _, g := range p.games {
		gameKey, ok := g.rec.Key()
		if !ok {
			utils.Log.Warnf("Skipping game without id in %s/%s", p.folder, g.folder)
			continue
		}
		gameID, _ := g.rec.ID()
		item := Item{
			GameID:            gameID,
			GameName:          g.rec.Name(),
			Rating:            g.rec.Float("rating"),
			ReferenceJSONPath: filepath.Join(p.folder, g.folder, g.folder+".json"),
			GameFolderPath:    filepath.Join(p.folder, g.folder),
			PlatformFolder:    p.folder,
			FirstRelease:      ownership.IsFirstRelease(gameKey, platformID),
		}
		if date, has := release.EarliestDate(g.rec); has {
			item.ReleaseDate = date
		}
		pool = append(pool, item)
	}
	return pool
}

// loadTree reads every platform folder (anything holding a
// platform_info.json) and its game folders. Unreadable games are skipped
// with a warning.
func loadTree(treeDir string) ([]platformData, error) {
	entries, err := os.ReadDir(treeDir)
	if err != nil {
		return nil, fmt.Errorf("selection: reading tree %s: %w", treeDir, err)
	}

	var platforms []platformData
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		platformDir := filepath.Join(treeDir, entry.Name())
		info, err := readRecord(filepath.Join(platformDir, "platform_info.json"))
		if err != nil {
			continue
		}

		p := platformData{folder: entry.Name(), info: info}
		gameEntries, err := os.ReadDir(platformDir)
		if err != nil {
			utils.Log.Warnf("Skipping platform folder %s: %s", entry.Name(), err)
			continue
		}
		for _, ge := range gameEntries {
			if !ge.IsDir() {
				continue
			}
			rec, err := readRecord(filepath.Join(platformDir, ge.Name(), ge.Name()+".json"))
			if err != nil {
				utils.Log.Warnf("Skipping game folder %s/%s: %s", entry.Name(), ge.Name(), err)
				continue
			}
			p.games = append(p.games, gameData{folder: ge.Name(), rec: rec})
		}
		sort.Slice(p.games, func(i, j int) bool { return p.games[i].folder < p.games[j].folder })
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i].folder < platforms[j].folder })
	return platforms, nil
}

func readRecord(path string) (record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rec, nil
}

// WriteCatalogue persists the catalogue document as game_catalogue.json.
func WriteCatalogue(cat *Catalogue, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("selection: creating %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, "game_catalogue.json")
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return "", fmt.Errorf("selection: encoding catalogue: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("selection: writing %s: %w", path, err)
	}
	return path, nil
}

// ReadCatalogue loads a previously written catalogue document.
func ReadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("selection: reading catalogue %s: %w", path, err)
	}
	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("selection: parsing catalogue %s: %w", path, err)
	}
	return &cat, nil
}
