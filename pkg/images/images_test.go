package images

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroprint/labelforge/pkg/record"
)

func sampleGame() record.Record {
	return record.Record{
		"id":   float64(42),
		"name": "Sonic the Hedgehog",
		"cover": map[string]any{
			"id": float64(7), "image_id": "abcd", "width": float64(264), "height": float64(352),
		},
		"screenshots": []any{
			map[string]any{"id": float64(8), "image_id": "efgh", "width": float64(640), "height": float64(480)},
		},
		"versions": []any{
			map[string]any{
				"name": "Mega Drive",
				"platform_logo": map[string]any{
					"id": float64(9), "image_id": "ijkl", "width": float64(100), "height": float64(50),
				},
			},
		},
		"genres": []any{map[string]any{"id": float64(1), "name": "Platform"}},
	}
}

func TestFind(t *testing.T) {
	found := Find(sampleGame())
	fields := map[string]int{}
	for _, img := range found {
		fields[img.Field]++
	}
	want := map[string]int{"cover": 1, "screenshots": 1, "platform_logo": 1}
	for field, n := range want {
		if fields[field] != n {
			t.Fatalf("field %s found %d times, want %d (all: %v)", field, fields[field], n, fields)
		}
	}
	if len(found) != 3 {
		t.Fatalf("found %d images, want 3", len(found))
	}
}

func TestURL(t *testing.T) {
	url, err := URL("cover", "abcd")
	if err != nil {
		t.Fatal(err)
	}
	want := "https://images.igdb.com/igdb/image/upload/t_cover_big/abcd.webp"
	if url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}

	if _, err := URL("videos", "abcd"); err == nil {
		t.Fatal("expected error for unmapped field")
	}
}

func TestFilename(t *testing.T) {
	img := Image{Field: "cover", Rec: record.Record{"id": float64(7), "image_id": "ab/cd"}}
	got := Filename(img)
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Fatalf("filename not sanitized: %q", got)
	}
	if !strings.HasPrefix(got, "cover_7_") || !strings.HasSuffix(got, ".webp") {
		t.Fatalf("filename = %q", got)
	}
}

func TestDownloadAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("imagedata"))
	}))
	defer srv.Close()

	game := record.Record{
		"id": float64(1),
		"cover": map[string]any{
			"id": float64(2), "image_id": "abcd", "width": float64(10), "height": float64(10),
		},
	}

	d := NewDownloader()
	d.client.HTTPClient = srv.Client()

	// Point the CDN at the stub by rewriting requests through a transport.
	d.client.HTTPClient.Transport = rewriteHost{target: srv.URL}

	dir := t.TempDir()
	downloaded, err := d.DownloadAll(game, dir)
	if err != nil {
		t.Fatal(err)
	}
	name, ok := downloaded["abcd"]
	if !ok {
		t.Fatalf("downloaded = %v", downloaded)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "imagedata" {
		t.Fatalf("file content = %q", data)
	}
}

type rewriteHost struct {
	target string
}

func (rw rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequest(req.Method, rw.target+req.URL.Path, req.Body)
	if err != nil {
		return nil, err
	}
	return http.DefaultTransport.RoundTrip(redirected)
}

func TestInjectLocalPaths(t *testing.T) {
	game := sampleGame()
	out := InjectLocalPaths(game, map[string]string{"abcd": "cover_7_abcd.webp"})

	result, ok := out.(record.Record)
	if !ok {
		t.Fatalf("result type %T", out)
	}
	cover := result.Map("cover")
	if got := cover.Str("local_file_path"); got != "cover_7_abcd.webp" {
		t.Fatalf("local_file_path = %q", got)
	}

	// Original must be untouched.
	if _, exists := game.Map("cover")["local_file_path"]; exists {
		t.Fatal("input was mutated")
	}
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		srcW, srcH, boxW, boxH, wantW, wantH int
	}{
		{264, 352, 100, 100, 75, 100},
		{640, 480, 100, 100, 100, 75},
		{100, 100, 50, 200, 50, 50},
		{0, 100, 50, 50, 0, 0},
	}
	for _, c := range cases {
		w, h := FitWithin(c.srcW, c.srcH, c.boxW, c.boxH)
		if w != c.wantW || h != c.wantH {
			t.Fatalf("FitWithin(%d,%d,%d,%d) = %d,%d want %d,%d",
				c.srcW, c.srcH, c.boxW, c.boxH, w, h, c.wantW, c.wantH)
		}
	}
}
