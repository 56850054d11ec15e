// Package selection fills each platform's catalogue quota: first-release
// games outrank ports, higher-rated games outrank lower-rated ones, and the
// quota is topped up with ports only when a platform's own launches run out.
package selection

import "sort"

// Item is one game eligible for catalogue selection.
type Item struct {
	GameID            int64   `json:"game_id"`
	GameName          string  `json:"game_name"`
	Rating            float64 `json:"rating"`
	ReleaseDate       string  `json:"release_date,omitempty"`
	ReferenceJSONPath string  `json:"reference_json_path"`
	GameFolderPath    string  `json:"game_folder_path"`
	PlatformFolder    string  `json:"platform_folder"`

	// FirstRelease marks games owned by this platform per the ownership map.
	FirstRelease bool `json:"-"`
}

// SelectQuota returns up to target items: first-release games sorted by
// rating descending, then the best-rated remainder until the quota is full.
// Ties keep input order. The result is never padded. The two counts report
// how many selected items came from each pool.
func SelectQuota(pool []Item, target int) (selected []Item, fromPreferred, fromOther int) {
	if target <= 0 {
		return nil, 0, 0
	}

	var preferred, other []Item
	for _, item := range pool {
		if item.FirstRelease {
			preferred = append(preferred, item)
		} else {
			other = append(other, item)
		}
	}
	byRatingDesc(preferred)
	byRatingDesc(other)

	for _, item := range preferred {
		if len(selected) >= target {
			break
		}
		selected = append(selected, item)
		fromPreferred++
	}
	for _, item := range other {
		if len(selected) >= target {
			break
		}
		selected = append(selected, item)
		fromOther++
	}
	return selected, fromPreferred, fromOther
}

func byRatingDesc(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rating > items[j].Rating
	})
}

// Result is the per-platform outcome persisted into the catalogue document.
type Result struct {
	PlatformID         int64  `json:"platform_id"`
	PlatformName       string `json:"platform_name"`
	PlatformFolder     string `json:"platform_folder"`
	TotalEligibleGames int    `json:"total_eligible_games"`
	SelectedCount      int    `json:"selected_count"`
	FirstReleaseCount  int    `json:"first_release_count"`
	DuplicateCount     int    `json:"duplicate_count"`
	Games              []Item `json:"games"`
	SelectionDate      string `json:"selection_date"`
}

// Metadata describes one whole catalogue run.
type Metadata struct {
	GeneratedAt          string  `json:"generated_at"`
	TotalPlatforms       int     `json:"total_platforms"`
	GamesPerPlatform     int     `json:"games_per_platform"`
	SelectionCriteria    string  `json:"selection_criteria"`
	TotalSelectedGames   int     `json:"total_selected_games"`
	TotalFirstReleases   int     `json:"total_first_releases"`
	TotalDuplicates      int     `json:"total_duplicates"`
	FirstReleasePercent  float64 `json:"first_release_percent"`
}

// Catalogue is the persisted catalogue file: run metadata plus one Result
// per platform folder.
type Catalogue struct {
	Metadata  Metadata          `json:"metadata"`
	Platforms map[string]Result `json:"platforms"`
}
