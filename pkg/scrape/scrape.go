package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/gocarina/gocsv"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/collect"
	"github.com/retroprint/labelforge/pkg/endpoints"
	"github.com/retroprint/labelforge/pkg/igdb"
	"github.com/retroprint/labelforge/pkg/images"
	"github.com/retroprint/labelforge/pkg/record"
)

// PlatformRow is one line of the platforms CSV that drives a collection run.
type PlatformRow struct {
	ID   int64  `csv:"id"`
	Name string `csv:"name"`
}

// Summary carries per-run diagnostics for the run history store.
type Summary struct {
	PlatformsRequested int
	PlatformsProcessed int
	GamesWritten       int
	DuplicatesRemoved  int
	PagesFetched       int
}

// Querier is the slice of the IGDB client a collection run needs.
type Querier interface {
	Query(endpointURL, body string) ([]record.Record, error)
}

// Scraper walks a platform list and writes the per-platform metadata tree:
// output/<Platform>/platform_info.json plus one <Game>/<Game>.json per game,
// with artwork downloaded alongside.
type Scraper struct {
	Client           Querier
	Downloader       *images.Downloader
	PlatformEndpoint endpoints.Endpoint
	GameEndpoint     endpoints.Endpoint
	OutputDir        string
	BatchLimit       int
	GamesCount       int
}

// ReadPlatforms loads the platforms CSV. Header names are matched
// case-insensitively.
func ReadPlatforms(path string) ([]PlatformRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scrape: opening platforms file %s: %w", path, err)
	}
	defer f.Close()

	gocsv.SetHeaderNormalizer(strings.ToLower)
	var rows []PlatformRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("scrape: parsing platforms file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("scrape: no platforms found in %s", path)
	}
	for i := range rows {
		rows[i].Name = strings.TrimSpace(rows[i].Name)
	}
	return rows, nil
}

// Run processes every platform in the CSV. A platform that yields no data or
// fails artwork download is skipped with a warning; query errors abort the
// run.
func (s *Scraper) Run(platformsFile string) (Summary, error) {
	rows, err := ReadPlatforms(platformsFile)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{PlatformsRequested: len(rows)}
	utils.Log.Infof("Found %d platforms to process", len(rows))

	for _, row := range rows {
		utils.Log.Infof("Processing platform: %s (ID: %d)", row.Name, row.ID)

		info, err := s.fetchPlatformInfo(row.ID)
		if err != nil {
			return sum, err
		}
		if info == nil {
			utils.Log.Warnf("No data found for platform %s (ID: %d), skipping", row.Name, row.ID)
			continue
		}

		games, pages, err := s.fetchGames(row.ID)
		if err != nil {
			return sum, err
		}
		sum.PagesFetched += pages

		deduped, removed := collect.Dedupe(games)
		sum.DuplicatesRemoved += removed

		written, err := s.writePlatform(info, deduped)
		if err != nil {
			utils.Log.Warnf("Skipping platform %s: %s", row.Name, err)
			continue
		}
		sum.PlatformsProcessed++
		sum.GamesWritten += written
	}
	return sum, nil
}

func (s *Scraper) fetchPlatformInfo(platformID int64) (record.Record, error) {
	body := fmt.Sprintf("%s where id = (%d); limit %d;",
		strings.TrimSpace(s.PlatformEndpoint.Properties.Body), platformID, s.BatchLimit)
	recs, err := s.Client.Query(s.PlatformEndpoint.Properties.EndpointURL, body)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	processed, ok := Postprocess(recs[0]).(record.Record)
	if !ok {
		return recs[0], nil
	}
	return processed, nil
}

func (s *Scraper) fetchGames(platformID int64) ([]record.Record, int, error) {
	base := igdb.WherePlatform(s.GameEndpoint.Properties.Body, platformID)
	fetch := func(offset, limit int) ([]record.Record, error) {
		return s.Client.Query(s.GameEndpoint.Properties.EndpointURL,
			igdb.WithLimitOffset(base, limit, offset))
	}
	return collect.Collect(s.GamesCount, s.BatchLimit, fetch)
}

// writePlatform lays out one platform's folder. Image trouble for the
// platform itself fails the platform; per-game trouble only costs that game.
func (s *Scraper) writePlatform(info record.Record, games []record.Record) (int, error) {
	folderName := platformFolderName(info)
	platformDir := filepath.Join(s.OutputDir, folderName)
	if err := os.MkdirAll(platformDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", platformDir, err)
	}

	downloaded, err := s.Downloader.DownloadAll(info, platformDir)
	if err != nil {
		return 0, err
	}
	withPaths := images.InjectLocalPaths(info, downloaded)
	if err := writeJSON(filepath.Join(platformDir, "platform_info.json"), withPaths); err != nil {
		return 0, err
	}

	written := 0
	for _, game := range games {
		processed, ok := Postprocess(game).(record.Record)
		if !ok {
			processed = game
		}
		name := processed.Name()
		if name == "" {
			name = "unknown_game"
		}
		gameName := utils.SanitizeName(name)
		gameDir := filepath.Join(platformDir, gameName)
		if err := os.MkdirAll(gameDir, 0o755); err != nil {
			utils.Log.Warnf("Skipping game %s: %s", name, err)
			continue
		}

		gameDownloads, err := s.Downloader.DownloadAll(processed, gameDir)
		if err != nil {
			utils.Log.Warnf("Skipping game %s: %s", name, err)
			continue
		}
		gameWithPaths := images.InjectLocalPaths(processed, gameDownloads)
		if err := writeJSON(filepath.Join(gameDir, gameName+".json"), gameWithPaths); err != nil {
			utils.Log.Warnf("Skipping game %s: %s", name, err)
			continue
		}
		written++
	}

	utils.Log.Infof("Created output for %s: %d games", folderName, written)
	return written, nil
}

// platformFolderName picks name, then abbreviation, then id.
func platformFolderName(info record.Record) string {
	name := info.Name()
	if name == "" {
		name = info.Str("abbreviation")
	}
	if name == "" {
		if id, ok := info.ID(); ok {
			name = fmt.Sprintf("%d", id)
		}
	}
	return utils.SanitizeName(name)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Postprocess returns a derived copy where unix timestamps in date fields
// become YYYY-MM-DD strings and numeric country codes become alpha-3. The
// input is never mutated.
func Postprocess(v any) any {
	switch val := v.(type) {
	case record.Record:
		return record.Record(postprocessMap(map[string]any(val)))
	case map[string]any:
		return postprocessMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Postprocess(item)
		}
		return out
	default:
		return v
	}
}

func postprocessMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		switch {
		case isDateField(key):
			out[key] = convertDate(value)
		case key == "country":
			out[key] = convertCountry(value)
		default:
			out[key] = Postprocess(value)
		}
	}
	return out
}

func isDateField(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// convertDate turns positive unix timestamps into YYYY-MM-DD. Anything else
// passes through unchanged, including dates already converted.
func convertDate(v any) any {
	var ts int64
	switch n := v.(type) {
	case float64:
		ts = int64(n)
	case int64:
		ts = n
	case int:
		ts = int64(n)
	default:
		return Postprocess(v)
	}
	if ts <= 0 {
		return v
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// convertCountry maps ISO 3166-1 numeric codes to alpha-3. Unknown codes pass
// through unchanged.
func convertCountry(v any) any {
	var code int
	switch n := v.(type) {
	case float64:
		code = int(n)
	case int64:
		code = int(n)
	case int:
		code = n
	default:
		return v
	}
	country := countries.CountryCode(code)
	if !country.IsValid() {
		return v
	}
	return country.Alpha3()
}
