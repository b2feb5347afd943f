package infra

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b7f3c1e-2f5a-4d3e-9c1b-6a2d8e4f7a10\nselect 1;\n"

	marker, body, err := ExtractMarker(query)
	if err != nil {
		t.Fatalf("ExtractMarker returned error: %v", err)
	}
	if marker != "0b7f3c1e-2f5a-4d3e-9c1b-6a2d8e4f7a10" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.TrimSpace(body) != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	for _, query := range []string{"select 1", "-- sql nope\nselect 1", "--sql 1234\nselect 1"} {
		if _, _, err := ExtractMarker(query); !errors.Is(err, ErrMissingMarker) {
			t.Fatalf("ExtractMarker(%q) err = %v, want ErrMissingMarker", query, err)
		}
	}
	if _, _, err := ExtractMarker("   "); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
