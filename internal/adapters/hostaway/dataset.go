package hostaway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Dataset is the static fallback source: a local JSON file holding an
// array of provider-shaped records. Read-only input.
type Dataset struct{ path string }

func NewDataset(path string) *Dataset { return &Dataset{path: path} }

func (d *Dataset) Load(ctx context.Context) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read fallback dataset %s: %w", d.path, err)
	}
	var records []map[string]any
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse fallback dataset %s: %w", d.path, err)
	}
	return records, nil
}
