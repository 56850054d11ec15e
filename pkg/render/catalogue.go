package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/images"
	"github.com/retroprint/labelforge/pkg/logo"
	"github.com/retroprint/labelforge/pkg/record"
)

const (
	pageMargin   = 19.0
	contentWidth = 210.0 - 2*pageMargin
)

// CataloguePDF renders an A4 PDF catalogue for one collected platform folder
// and returns the path of the written file.
func CataloguePDF(platformDir, outputDir string) (string, error) {
	info, err := readRecord(filepath.Join(platformDir, "platform_info.json"))
	if err != nil {
		return "", err
	}

	name := info.Name()
	if name == "" {
		name = "Unknown Platform"
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("render: creating %s: %w", outputDir, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	addPlatformSection(pdf, tr, info, platformDir)
	addGamesSection(pdf, tr, platformDir)

	outPath := filepath.Join(outputDir, utils.SanitizeName(name)+"_Catalogue.pdf")
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return "", fmt.Errorf("render: writing %s: %w", outPath, err)
	}
	utils.Log.Infof("Generated catalogue: %s", filepath.Base(outPath))
	return outPath, nil
}

func addPlatformSection(pdf *fpdf.Fpdf, tr func(string) string, info record.Record, platformDir string) {
	name := info.Name()
	if name == "" {
		name = "Unknown Platform"
	}

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(0, 0, 128)
	pdf.CellFormat(contentWidth, 12, tr(name), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetTextColor(0, 0, 0)

	if best := logo.SelectBest(logo.Flatten(info)); best != nil {
		if local := best.Str("local_file_path"); local != "" {
			drawImage(pdf, filepath.Join(platformDir, local), best, 60, 40, true)
			pdf.Ln(6)
		}
	}

	type row struct{ label, value string }
	var rows []row
	if v := info.Str("abbreviation"); v != "" {
		rows = append(rows, row{"Abbreviation:", v})
	}
	if v := info.Str("alternative_name"); v != "" {
		rows = append(rows, row{"Alternative Name:", v})
	}
	if v := info.Map("platform_type").Name(); v != "" {
		rows = append(rows, row{"Type:", v})
	}
	if v := info.Str("url"); v != "" {
		rows = append(rows, row{"IGDB URL:", v})
	}
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, tr(r.label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentWidth-40, 6, tr(r.value), "", "L", false)
	}
	pdf.Ln(6)

	versions := logo.SortVersionsChronologically(info.Maps("versions"))
	if len(versions) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(139, 0, 0)
	pdf.CellFormat(contentWidth, 10, "Platform Versions", "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	for _, version := range versions {
		if vn := version.Name(); vn != "" {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(contentWidth, 7, tr(vn), "", 1, "L", false, 0, "")
		}

		releases := version.Maps("platform_version_release_dates")
		if len(releases) > 0 {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(contentWidth, 6, "Release Information:", "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			for _, release := range releases {
				date := humanizeDate(release.Str("date"))
				region := titleCase(release.Map("release_region").Str("region"))
				if region == "" {
					region = "Unknown Region"
				}
				pdf.CellFormat(contentWidth, 5.5, tr(fmt.Sprintf("- %s: %s", region, date)), "", 1, "L", false, 0, "")
			}
			pdf.Ln(2)
		}

		if summary := version.Str("summary"); summary != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(contentWidth, 5, tr(cleanText(summary)), "", "J", false)
		}
		pdf.Ln(4)
	}
}

func addGamesSection(pdf *fpdf.Fpdf, tr func(string) string, platformDir string) {
	gameDirs := listGameDirs(platformDir)
	if len(gameDirs) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentWidth, 6, "No games found for this platform.", "", 1, "L", false, 0, "")
		return
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(139, 0, 0)
	pdf.CellFormat(contentWidth, 10, "Games Library", "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	for _, dir := range gameDirs {
		game, err := readRecord(filepath.Join(dir, filepath.Base(dir)+".json"))
		if err != nil {
			utils.Log.Warnf("Could not process game %s: %s", filepath.Base(dir), err)
			continue
		}
		addGame(pdf, tr, game, dir)
	}
}

func addGame(pdf *fpdf.Fpdf, tr func(string) string, game record.Record, gameDir string) {
	name := game.Name()
	if name == "" {
		name = filepath.Base(gameDir)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 100, 0)
	pdf.CellFormat(contentWidth, 8, tr(name), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	textX := pageMargin
	cover := game.Map("cover")
	if local := cover.Str("local_file_path"); local != "" {
		top := pdf.GetY()
		drawImage(pdf, filepath.Join(gameDir, local), cover, 38, 50, false)
		pdf.SetY(top)
		textX = pageMargin + 44
	}
	textWidth := 210 - pageMargin - textX

	writeLine := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetX(textX)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pdf.GetStringWidth(label)+2, 5.5, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(textWidth-pdf.GetStringWidth(label)-2, 5.5, tr(value), "", "L", false)
	}

	writeLine("Release Date:", humanizeDate(game.Str("first_release_date")))
	writeLine("Genres:", joinNames(game.Maps("genres")))

	var developers, publishers []string
	for _, ic := range game.Maps("involved_companies") {
		companyName := ic.Map("company").Name()
		if companyName == "" {
			continue
		}
		if dev, _ := ic["developer"].(bool); dev {
			developers = append(developers, companyName)
		}
		if pub, _ := ic["publisher"].(bool); pub {
			publishers = append(publishers, companyName)
		}
	}
	writeLine("Developer:", strings.Join(developers, ", "))
	writeLine("Publisher:", strings.Join(publishers, ", "))
	writeLine("Game Modes:", joinNames(game.Maps("game_modes")))
	writeLine("Themes:", joinNames(game.Maps("themes")))

	if rating := game.Float("rating"); rating > 0 {
		writeLine("Rating:", fmt.Sprintf("%.1f/100", rating))
	}
	if summary := game.Str("summary"); summary != "" {
		pdf.SetX(textX)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(textWidth, 5, tr(cleanText(summary)), "", "J", false)
	}
	pdf.Ln(8)
}

// drawImage places a raster file on the page, aspect-fit inside a box. The
// source dimensions come from the record's width/height when present.
func drawImage(pdf *fpdf.Fpdf, path string, meta record.Record, maxW, maxH float64, centered bool) {
	img, err := images.LoadImage(path)
	if err != nil {
		utils.Log.Warnf("Could not load image %s: %s", path, err)
		return
	}

	srcW := meta.Float("width")
	srcH := meta.Float("height")
	if srcW <= 0 || srcH <= 0 {
		bounds := img.Bounds()
		srcW = float64(bounds.Dx())
		srcH = float64(bounds.Dy())
	}
	w, h := fitBox(srcW, srcH, maxW, maxH)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		utils.Log.Warnf("Could not encode image %s: %s", path, err)
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(path, opts, &buf)

	x := pdf.GetX()
	if centered {
		x = (210 - w) / 2
	}
	pdf.ImageOptions(path, x, pdf.GetY(), w, h, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + h)
}

func fitBox(srcW, srcH, maxW, maxH float64) (float64, float64) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	w := maxW
	h := srcH * maxW / srcW
	if h > maxH {
		h = maxH
		w = srcW * maxH / srcH
	}
	return w, h
}

func listGameDirs(platformDir string) []string {
	entries, err := os.ReadDir(platformDir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(platformDir, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs
}

func readRecord(path string) (record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: reading %s: %w", path, err)
	}
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("render: parsing %s: %w", path, err)
	}
	return rec, nil
}

// humanizeDate turns a YYYY-MM-DD string into "21st June 1991". Unparseable
// values pass through unchanged.
func humanizeDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return utils.HumanDate(t)
}

func joinNames(recs []record.Record) string {
	var names []string
	for _, r := range recs {
		if n := r.Name(); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
