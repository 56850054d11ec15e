package images

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/igdb"
	"github.com/retroprint/labelforge/pkg/record"
)

const fileFormat = ".webp"

// fieldAliases resolves the JSON keys artwork can hide under to a canonical
// field name. IGDB is inconsistent about singular vs plural, so every known
// variant is listed explicitly instead of guessing.
var fieldAliases = map[string]string{
	"cover":          "cover",
	"covers":         "cover",
	"screenshot":     "screenshots",
	"screenshots":    "screenshots",
	"artwork":        "artworks",
	"artworks":       "artworks",
	"platform_logo":  "platform_logo",
	"platform_logos": "platform_logo",
}

// sizeByField maps canonical field names to IGDB upload size buckets.
var sizeByField = map[string]string{
	"cover":         "t_cover_big",
	"screenshots":   "t_screenshot_big",
	"artworks":      "t_1080p",
	"platform_logo": "t_logo_med",
}

// Image is one downloadable artwork object found inside a record, tagged with
// the canonical field it was found under.
type Image struct {
	Field string
	Rec   record.Record
}

// Downloader fetches artwork from the IGDB image CDN. Downloads retry on
// transient failures; the metadata collection path never does.
type Downloader struct {
	client *retryablehttp.Client
}

func NewDownloader() *Downloader {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.HTTPClient.Timeout = 30 * time.Second
	c.Logger = nil
	return &Downloader{client: c}
}

// Find walks a record and returns every image object reachable under a known
// artwork key. An image object carries image_id, width and height.
func Find(rec record.Record) []Image {
	var found []Image
	walk(map[string]any(rec), "", &found)
	return found
}

func walk(v any, field string, found *[]Image) {
	switch val := v.(type) {
	case map[string]any:
		if field != "" && isImage(val) {
			*found = append(*found, Image{Field: field, Rec: record.Record(val)})
			return
		}
		for key, child := range val {
			canonical, known := fieldAliases[key]
			if !known {
				canonical = ""
			}
			walk(child, canonical, found)
		}
	case record.Record:
		walk(map[string]any(val), field, found)
	case []any:
		for _, item := range val {
			walk(item, field, found)
		}
	}
}

func isImage(m map[string]any) bool {
	_, hasID := m["image_id"]
	_, hasW := m["width"]
	_, hasH := m["height"]
	return hasID && hasW && hasH
}

// URL builds the CDN download URL for an image in its field's size bucket.
func URL(field, imageID string) (string, error) {
	size, ok := sizeByField[field]
	if !ok {
		return "", fmt.Errorf("images: no size mapping for field %q", field)
	}
	return fmt.Sprintf("%s/%s/%s%s", igdb.ImageBaseURL, size, imageID, fileFormat), nil
}

// Filename builds the on-disk name for an image object, keyed by its field,
// owning object id and image id.
func Filename(img Image) string {
	objID := "unknown"
	if id, ok := img.Rec.ID(); ok {
		objID = fmt.Sprintf("%d", id)
	}
	return utils.SanitizeName(fmt.Sprintf("%s_%s_%s", img.Field, objID, img.Rec.Str("image_id"))) + fileFormat
}

// DownloadAll fetches every image found in rec into dir and returns the
// image_id to filename mapping for local path injection. The first failed
// download aborts the whole record; callers treat that as a per-entity skip.
func (d *Downloader) DownloadAll(rec record.Record, dir string) (map[string]string, error) {
	found := Find(rec)
	if len(found) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("images: creating %s: %w", dir, err)
	}

	downloaded := make(map[string]string, len(found))
	for _, img := range found {
		imageID := img.Rec.Str("image_id")
		if imageID == "" {
			continue
		}

		url, err := URL(img.Field, imageID)
		if err != nil {
			return nil, err
		}
		name := Filename(img)
		if err := d.fetch(url, filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("images: downloading %s for %s: %w", imageID, img.Field, err)
		}
		downloaded[imageID] = name
	}
	return downloaded, nil
}

func (d *Downloader) fetch(url, path string) error {
	res, err := d.client.Get(url)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, url)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.ReadFrom(res.Body)
	return err
}

// InjectLocalPaths returns a copy of data where every image object whose
// image_id appears in downloaded gains a local_file_path sibling. The input
// is never mutated.
func InjectLocalPaths(data any, downloaded map[string]string) any {
	switch val := data.(type) {
	case record.Record:
		return record.Record(injectMap(map[string]any(val), downloaded))
	case map[string]any:
		return injectMap(val, downloaded)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = InjectLocalPaths(item, downloaded)
		}
		return out
	default:
		return data
	}
}

func injectMap(m map[string]any, downloaded map[string]string) map[string]any {
	out := make(map[string]any, len(m)+1)
	for key, value := range m {
		out[key] = InjectLocalPaths(value, downloaded)
	}
	if id, ok := m["image_id"].(string); ok {
		if name, hit := downloaded[id]; hit {
			out["local_file_path"] = name
		}
	}
	return out
}
