// Package metadata provides the ticket metadata store: an in-memory lookup
// table from indexed item IDs to category labels and display text, loaded
// once from the labeled-ticket CSV at startup and read-only afterward.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/supportstack/triage"
)

// DefaultCategoryAliases is the ordered list of header names recognized as
// the category column. The first alias present in the header wins; the
// choice is made once at load time, not per record.
var DefaultCategoryAliases = []string{"Ticket Type", "Type", "Category", "Issue Type"}

// DefaultTextColumns is the ordered list of columns combined into the
// display text, mirroring what the dataset loader embeds.
var DefaultTextColumns = []string{
	"Ticket Subject", "Subject", "Ticket Description", "Description",
	"Ticket Type", "Type", "Issue", "Problem", "Question",
	"Product Purchased", "Product", "Category",
}

// DefaultIDPrefix prefixes the row index to form the indexed item ID, the
// same scheme the dataset loader uses when inserting vectors.
const DefaultIDPrefix = "ticket_"

// Config controls how the CSV is interpreted.
type Config struct {
	CategoryAliases []string
	TextColumns     []string
	IDPrefix        string
}

func (c *Config) applyDefaults() {
	if len(c.CategoryAliases) == 0 {
		c.CategoryAliases = DefaultCategoryAliases
	}
	if len(c.TextColumns) == 0 {
		c.TextColumns = DefaultTextColumns
	}
	if c.IDPrefix == "" {
		c.IDPrefix = DefaultIDPrefix
	}
}

// Store is an immutable item-ID -> ticket metadata lookup table. Lookups
// are safe for unsynchronized concurrent use once the store is built.
type Store struct {
	records map[string]triage.TicketMetadata
}

// LoadCSV reads the labeled-ticket CSV at path into a Store.
func LoadCSV(path string, cfg Config) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata CSV: %w", err)
	}
	defer f.Close()

	store, err := NewStoreFromReader(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata from %s: %w", path, err)
	}
	return store, nil
}

// NewStoreFromReader builds a Store from CSV data. The first row must be a
// header containing one of the configured category aliases; its absence is
// a configuration error, detected here rather than per record.
func NewStoreFromReader(r io.Reader, cfg Config) (*Store, error) {
	cfg.applyDefaults()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	categoryCol := -1
	for _, alias := range cfg.CategoryAliases {
		if idx, ok := columns[alias]; ok {
			categoryCol = idx
			break
		}
	}
	if categoryCol < 0 {
		return nil, fmt.Errorf("no category column found: expected one of %v", cfg.CategoryAliases)
	}

	// Resolve the text columns present in this file, keeping alias order.
	var textCols []int
	for _, name := range cfg.TextColumns {
		if idx, ok := columns[name]; ok {
			textCols = append(textCols, idx)
		}
	}

	records := make(map[string]triage.TicketMetadata)
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row, err)
		}

		id := fmt.Sprintf("%s%d", cfg.IDPrefix, row)
		records[id] = triage.TicketMetadata{
			Category: cellAt(fields, categoryCol),
			Text:     combineText(fields, textCols),
		}
	}

	return &Store{records: records}, nil
}

// Lookup implements the triage.MetadataStore interface.
func (s *Store) Lookup(itemID string) (triage.TicketMetadata, bool) {
	meta, ok := s.records[itemID]
	return meta, ok
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// combineText joins the non-empty resolved text cells with " | ".
func combineText(fields []string, textCols []int) string {
	parts := make([]string, 0, len(textCols))
	for _, idx := range textCols {
		if cell := strings.TrimSpace(cellAt(fields, idx)); cell != "" {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, " | ")
}

// cellAt tolerates short rows.
func cellAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
