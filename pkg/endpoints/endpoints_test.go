package endpoints

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSubstitutesPlaceholders(t *testing.T) {
	path := writeConfig(t, `[
		{
			"name": "platforms",
			"properties": {
				"endpoint_url": "https://api.igdb.com/v4/platforms",
				"count_endpoint_url": "https://api.igdb.com/v4/platforms/count",
				"http_method": "POST",
				"body": "fields *; limit {{batch_limit}};"
			}
		}
	]`)

	list, err := Load(path, map[string]string{"batch_limit": "200"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(list))
	}
	if got := list[0].Properties.Body; got != "fields *; limit 200;" {
		t.Fatalf("body = %q", got)
	}
}

func TestLoadSkipsInvalidEndpoints(t *testing.T) {
	path := writeConfig(t, `[
		{"name": "broken", "properties": {"http_method": "POST", "body": "fields *;"}},
		{"name": "unresolved", "properties": {"endpoint_url": "u", "http_method": "POST", "body": "limit {{nope}};"}},
		{"name": "good", "properties": {"endpoint_url": "u", "http_method": "POST", "body": "fields *;"}}
	]`)

	list, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "good" {
		t.Fatalf("list = %v", list)
	}
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json"), nil); err == nil {
		t.Fatal("expected error for missing configuration file")
	}
}

func TestLoadMalformedJSONIsFatal(t *testing.T) {
	path := writeConfig(t, `{not json`)
	if _, err := Load(path, nil); err == nil {
		t.Fatal("expected error for malformed configuration")
	}
}

func TestLoadOne(t *testing.T) {
	path := writeConfig(t, `{
		"name": "games",
		"properties": {
			"endpoint_url": "https://api.igdb.com/v4/games",
			"http_method": "POST",
			"body": "fields *; limit {{batch_limit}};"
		}
	}`)

	e, err := LoadOne(path, map[string]string{"batch_limit": "100"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "games" || e.Properties.Body != "fields *; limit 100;" {
		t.Fatalf("e = %+v", e)
	}
}

func TestLoadOneInvalidIsFatal(t *testing.T) {
	path := writeConfig(t, `{"name": "games", "properties": {"http_method": "POST"}}`)
	if _, err := LoadOne(path, nil); err == nil {
		t.Fatal("expected error for invalid single endpoint")
	}
}

func TestByName(t *testing.T) {
	list := []Endpoint{{Name: "games"}, {Name: "platforms"}}
	e, err := ByName(list, "platforms")
	if err != nil || e.Name != "platforms" {
		t.Fatalf("e = %v, err = %v", e, err)
	}
	if _, err := ByName(list, "covers"); err == nil {
		t.Fatal("expected error for unknown endpoint")
	}
}
