package hostaway_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"flex_reviews/internal/adapters/hostaway"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock-reviews.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestDataset_Load(t *testing.T) {
	path := writeDataset(t, `[
		{"id": 7453, "guestName": "Shane", "rating": 10},
		{"id": 7454, "guestName": "Maria"}
	]`)

	records, err := hostaway.NewDataset(path).Load(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: %+v", records)
	}
	if records[0]["guestName"] != "Shane" {
		t.Fatalf("first record: %+v", records[0])
	}
}

func TestDataset_MissingFile(t *testing.T) {
	_, err := hostaway.NewDataset(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDataset_MalformedJSON(t *testing.T) {
	path := writeDataset(t, `{"not": "an array"}`)
	_, err := hostaway.NewDataset(path).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed dataset")
	}
}
