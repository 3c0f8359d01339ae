package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dealerdocs-index-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(id int, name string) DocRow {
	return DocRow{
		ID:               id,
		Filename:         "20250101_000000_" + name,
		OriginalFilename: name,
		FileType:         "pdf",
		Status:           "processed",
		UploadedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestReplaceAllUpsertsAndPrunes(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceAll([]DocRow{row(1, "a.pdf"), row(2, "b.pdf")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	// Document 2 dropped server-side, document 3 added.
	if err := db.ReplaceAll([]DocRow{row(1, "a.pdf"), row(3, "c.pdf")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if got, _ := db.Get(2); got != nil {
		t.Error("pruned document should be gone")
	}
	got, err := db.Get(3)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.OriginalFilename != "c.pdf" {
		t.Errorf("Get(3) = %+v", got)
	}
}

func TestReplaceAllEmptyClears(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceAll([]DocRow{row(1, "a.pdf")}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceAll(nil); err != nil {
		t.Fatalf("ReplaceAll(nil): %v", err)
	}
	if got, _ := db.Get(1); got != nil {
		t.Error("cache should be empty")
	}
}

func TestEnrichSurvivesRefresh(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceAll([]DocRow{row(1, "a.pdf")}); err != nil {
		t.Fatal(err)
	}
	if err := db.Enrich(DetailRow{ID: 1, VIN: "1HGCM82633A004352", BuyerName: "Pat Doe"}); err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	// A refresh reporting the same document keeps the OCR fields.
	if err := db.ReplaceAll([]DocRow{row(1, "a.pdf")}); err != nil {
		t.Fatal(err)
	}
	results, err := db.Search("1HGCM82633A004352", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("search after refresh = %+v", results)
	}
}

func TestGetAbsent(t *testing.T) {
	db := testDB(t)
	got, err := db.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get(42) = %+v, want nil", got)
	}
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceAll([]DocRow{row(1, "bill-of-sale.pdf"), row(2, "title.png")}); err != nil {
		t.Fatal(err)
	}
	if err := db.Enrich(DetailRow{ID: 2, BuyerName: "Jordan Smith", Notes: "odometer disputed"}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		query  string
		wantID int
	}{
		{"bill-of-sale", 1},
		{"Jordan", 2},
		{"odometer", 2},
	}
	for _, c := range cases {
		results, err := db.Search(c.query, 0)
		if err != nil {
			t.Fatalf("Search(%q): %v", c.query, err)
		}
		if len(results) != 1 || results[0].ID != c.wantID {
			t.Errorf("Search(%q) = %+v, want id %d", c.query, results, c.wantID)
		}
	}

	results, err := db.Search("nomatch", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("Search(nomatch) = %+v", results)
	}
}

func TestInboxLedger(t *testing.T) {
	db := testDB(t)

	seen, err := db.SeenUpload("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("fresh checksum should be unseen")
	}

	if err := db.RecordUpload("abc123", "scan.pdf"); err != nil {
		t.Fatalf("RecordUpload: %v", err)
	}
	// Recording the same checksum twice is a no-op.
	if err := db.RecordUpload("abc123", "scan-copy.pdf"); err != nil {
		t.Fatalf("RecordUpload twice: %v", err)
	}

	seen, err = db.SeenUpload("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("recorded checksum should be seen")
	}
}
