package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<svg width="638" height="1011" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
  <rect width="638" height="1011" fill="#1a1a2e"/>
  <rect id="cover-placeholder" x="69" y="120" width="500" height="620" fill="#16213e"/>
  <rect id="platform_logo-placeholder" x="169" y="800" width="300" height="140" fill="#16213e"/>
</svg>`

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.svg")
	if err := os.WriteFile(path, []byte(testTemplate), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderSVGSubstitutesPlaceholders(t *testing.T) {
	r, err := NewLabelRenderer(writeTemplate(t))
	if err != nil {
		t.Fatal(err)
	}

	imgDir := t.TempDir()
	cover := writePNG(t, imgDir, "cover.png", 100, 200)
	logo := writePNG(t, imgDir, "logo.png", 300, 70)

	out := t.TempDir()
	path, err := r.RenderSVG(cover, logo, "Sonic the Hedgehog", "Mega Drive", out)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "Mega_Drive_Sonic_the_Hedgehog_label.svg" {
		t.Fatalf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)

	if strings.Contains(svg, "cover-placeholder") || strings.Contains(svg, "platform_logo-placeholder") {
		t.Fatal("placeholders were not replaced")
	}
	if !strings.Contains(svg, "data:image/png;base64,") {
		t.Fatal("no embedded image data")
	}
	// 100x200 cover in a 500x620 box scales to 310x620, centered at x=164.
	if !strings.Contains(svg, `width="310.00"`) || !strings.Contains(svg, `x="164.00"`) {
		t.Fatalf("cover not aspect-fit centered: %s", svg)
	}
}

func TestRenderSVGMissingLogoKeepsGoing(t *testing.T) {
	r, err := NewLabelRenderer(writeTemplate(t))
	if err != nil {
		t.Fatal(err)
	}
	cover := writePNG(t, t.TempDir(), "cover.png", 100, 200)

	path, err := r.RenderSVG(cover, "", "Tetris", "Game Boy", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// The untouched logo placeholder stays in place.
	if !strings.Contains(string(data), "platform_logo-placeholder") {
		t.Fatal("logo placeholder should remain when no logo is available")
	}
}

func TestRenderPNG(t *testing.T) {
	r, err := NewLabelRenderer(writeTemplate(t))
	if err != nil {
		t.Fatal(err)
	}
	imgDir := t.TempDir()
	cover := writePNG(t, imgDir, "cover.png", 100, 200)
	logo := writePNG(t, imgDir, "logo.png", 300, 70)

	path, err := r.RenderPNG(cover, logo, "Sonic the Hedgehog", "Mega Drive", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 638 || bounds.Dy() != 1011 {
		t.Fatalf("canvas = %dx%d, want 638x1011", bounds.Dx(), bounds.Dy())
	}
}

func TestCataloguePDF(t *testing.T) {
	platformDir := filepath.Join(t.TempDir(), "Mega_Drive")
	gameDir := filepath.Join(platformDir, "Sonic_the_Hedgehog")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatal(err)
	}

	writePNG(t, platformDir, "platform_logo_9_ijkl.png", 300, 70)
	writePNG(t, gameDir, "cover_7_abcd.png", 100, 140)

	platformInfo := `{
		"id": 29,
		"name": "Mega Drive",
		"abbreviation": "MD",
		"versions": [
			{
				"name": "Mega Drive",
				"summary": "16-bit home console.",
				"platform_logo": {"image_id": "ijkl", "width": 300, "height": 70, "local_file_path": "platform_logo_9_ijkl.png"},
				"platform_version_release_dates": [
					{"date": "1990-11-30", "release_region": {"region": "europe"}}
				]
			}
		]
	}`
	if err := os.WriteFile(filepath.Join(platformDir, "platform_info.json"), []byte(platformInfo), 0o600); err != nil {
		t.Fatal(err)
	}

	game := `{
		"id": 1,
		"name": "Sonic the Hedgehog",
		"first_release_date": "1991-06-21",
		"rating": 87.5,
		"summary": "Blue blur runs fast.",
		"genres": [{"name": "Platform"}],
		"involved_companies": [{"developer": true, "publisher": true, "company": {"name": "Sega"}}],
		"cover": {"image_id": "abcd", "width": 100, "height": 140, "local_file_path": "cover_7_abcd.png"}
	}`
	if err := os.WriteFile(filepath.Join(gameDir, "Sonic_the_Hedgehog.json"), []byte(game), 0o600); err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	path, err := CataloguePDF(platformDir, out)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "Mega_Drive_Catalogue.pdf" {
		t.Fatalf("path = %s", path)
	}
	stat, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if stat.Size() == 0 {
		t.Fatal("empty PDF written")
	}
}

func TestHumanizeDate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"1991-06-21", "21st June 1991"},
		{"1991-12-20", "20th December 1991"},
		{"unknown", "unknown"},
		{"", ""},
	}
	for _, c := range cases {
		if got := humanizeDate(c.in); got != c.want {
			t.Fatalf("humanizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("north_america"); got != "North America" {
		t.Fatalf("titleCase = %q", got)
	}
}
