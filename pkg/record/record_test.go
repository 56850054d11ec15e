package record

import "testing"

func TestID(t *testing.T) {
	cases := []struct {
		name   string
		rec    Record
		want   int64
		wantOK bool
	}{
		{"float64 id", Record{"id": float64(42)}, 42, true},
		{"int id", Record{"id": 7}, 7, true},
		{"missing id", Record{"name": "x"}, 0, false},
		{"nil id", Record{"id": nil}, 0, false},
		{"string id not numeric", Record{"id": "slug"}, 0, false},
	}

	for _, c := range cases {
		got, ok := c.rec.ID()
		if got != c.want || ok != c.wantOK {
			t.Fatalf("%s: ID() = (%d, %v), want (%d, %v)", c.name, got, ok, c.want, c.wantOK)
		}
	}
}

func TestKey(t *testing.T) {
	cases := []struct {
		name   string
		rec    Record
		want   string
		wantOK bool
	}{
		{"float64 id", Record{"id": float64(42)}, "42", true},
		{"string id", Record{"id": "sonic-the-hedgehog"}, "sonic-the-hedgehog", true},
		{"missing id", Record{"name": "x"}, "", false},
		{"empty string id", Record{"id": ""}, "", false},
	}

	for _, c := range cases {
		got, ok := c.rec.Key()
		if got != c.want || ok != c.wantOK {
			t.Fatalf("%s: Key() = (%q, %v), want (%q, %v)", c.name, got, ok, c.want, c.wantOK)
		}
	}
}

func TestNestedAccessors(t *testing.T) {
	rec := Record{
		"name":   "Sonic",
		"rating": float64(87.5),
		"cover":  map[string]any{"image_id": "abc"},
		"genres": []any{
			map[string]any{"name": "Platformer"},
			"not-an-object",
		},
	}

	if rec.Name() != "Sonic" {
		t.Fatalf("Name() = %q", rec.Name())
	}
	if rec.Float("rating") != 87.5 {
		t.Fatalf("Float(rating) = %v", rec.Float("rating"))
	}
	if rec.Map("cover").Str("image_id") != "abc" {
		t.Fatalf("Map(cover) = %v", rec.Map("cover"))
	}
	genres := rec.Maps("genres")
	if len(genres) != 1 || genres[0].Name() != "Platformer" {
		t.Fatalf("Maps(genres) = %v", genres)
	}
	if rec.Map("missing") != nil {
		t.Fatal("Map(missing) should be nil")
	}
}

func TestFromJSON(t *testing.T) {
	records, err := FromJSON([]byte(`[{"id": 1, "name": "a"}, {"id": 2}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if id, _ := records[1].ID(); id != 2 {
		t.Fatalf("second record id = %d", id)
	}

	if _, err := FromJSON([]byte(`{"count": 3}`)); err == nil {
		t.Fatal("expected error for non-array body")
	}
}
