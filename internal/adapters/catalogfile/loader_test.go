package catalogfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write catalog fixture: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, strings.Join([]string{
		"catalog_id,title,writers,controlled_percentage",
		"CAT-001,Neon Dreams,R. Vega,100",
		"CAT-002,Velocity,R. Vega / T. Okafor,50.5",
	}, "\n"))

	catalog, err := NewLoader(path, nil).LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("catalog.Len() = %d, want 2", catalog.Len())
	}

	entry, ok := catalog.ByID("CAT-002")
	if !ok {
		t.Fatal("CAT-002 not indexed")
	}
	if entry.Title != "Velocity" {
		t.Errorf("Title = %q, want %q", entry.Title, "Velocity")
	}
	if entry.Writers != "R. Vega / T. Okafor" {
		t.Errorf("Writers = %q, want %q", entry.Writers, "R. Vega / T. Okafor")
	}
	if entry.ControlledPercentage != 50.5 {
		t.Errorf("ControlledPercentage = %v, want 50.5", entry.ControlledPercentage)
	}
}

func TestLoadCatalogExportQuirks(t *testing.T) {
	// The export wraps each full line in quotes and starts with a BOM.
	path := writeCatalog(t, strings.Join([]string{
		"﻿\"catalog_id,title,writers,controlled_percentage\"",
		"\"CAT-001,Neon Dreams,R. Vega,100\"",
		"",
		"'CAT-002,Velocity,T. Okafor,75'",
	}, "\n"))

	catalog, err := NewLoader(path, nil).LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("catalog.Len() = %d, want 2", catalog.Len())
	}
	if _, ok := catalog.ByID("CAT-001"); !ok {
		t.Error("CAT-001 lost to BOM or quote wrapping")
	}
	if _, ok := catalog.ByID("CAT-002"); !ok {
		t.Error("CAT-002 lost to single-quote wrapping")
	}
}

func TestLoadCatalogHeaderHandling(t *testing.T) {
	t.Run("case and spacing tolerated", func(t *testing.T) {
		path := writeCatalog(t, strings.Join([]string{
			"Catalog_ID, Title ,WRITERS,Controlled_Percentage",
			"CAT-001,Neon Dreams,R. Vega,100",
		}, "\n"))
		catalog, err := NewLoader(path, nil).LoadCatalog(context.Background())
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		if _, ok := catalog.ByID("CAT-001"); !ok {
			t.Error("row not loaded under normalized headers")
		}
	})

	t.Run("missing column rejected", func(t *testing.T) {
		path := writeCatalog(t, strings.Join([]string{
			"catalog_id,title,controlled_percentage",
			"CAT-001,Neon Dreams,100",
		}, "\n"))
		_, err := NewLoader(path, nil).LoadCatalog(context.Background())
		if err == nil {
			t.Fatal("LoadCatalog() error = nil, want missing column error")
		}
		if !strings.Contains(err.Error(), "writers") {
			t.Errorf("error %q does not name the missing column", err)
		}
	})

	t.Run("extra columns ignored", func(t *testing.T) {
		path := writeCatalog(t, strings.Join([]string{
			"catalog_id,title,writers,controlled_percentage,territory",
			"CAT-001,Neon Dreams,R. Vega,100,US",
		}, "\n"))
		catalog, err := NewLoader(path, nil).LoadCatalog(context.Background())
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		entry, _ := catalog.ByID("CAT-001")
		if entry.Title != "Neon Dreams" {
			t.Errorf("Title = %q, want %q", entry.Title, "Neon Dreams")
		}
	})
}

func TestLoadCatalogRowTolerance(t *testing.T) {
	path := writeCatalog(t, strings.Join([]string{
		"catalog_id,title,writers,controlled_percentage",
		"CAT-001,Neon Dreams,R. Vega,100",
		"CAT-BROKEN,Only Two",
		"CAT-002,Velocity,T. Okafor,not-a-number",
	}, "\n"))

	catalog, err := NewLoader(path, nil).LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("catalog.Len() = %d, want 2 (short row skipped)", catalog.Len())
	}
	if catalog.HasID("CAT-BROKEN") {
		t.Error("short row survived the load")
	}
	entry, _ := catalog.ByID("CAT-002")
	if entry.ControlledPercentage != 0 {
		t.Errorf("ControlledPercentage = %v, want 0 for unreadable value", entry.ControlledPercentage)
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		missing  bool
	}{
		{name: "file missing", missing: true},
		{name: "empty file", contents: ""},
		{name: "header only", contents: "catalog_id,title,writers,controlled_percentage\n"},
		{name: "blank lines only", contents: "\n\n\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.csv")
			if !tc.missing {
				path = writeCatalog(t, tc.contents)
			}
			if _, err := NewLoader(path, nil).LoadCatalog(context.Background()); err == nil {
				t.Fatal("LoadCatalog() error = nil, want error")
			}
		})
	}
}
