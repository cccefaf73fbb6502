package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreFromReader(t *testing.T) {
	csvData := `Ticket ID,Ticket Subject,Ticket Description,Ticket Type
101,Cannot log in,Password reset link broken,Account Access
102,Double charge,I was charged twice,Billing
103,App crash,Crashes when opening PDFs,Technical Issue
`
	store, err := NewStoreFromReader(strings.NewReader(csvData), Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	meta, ok := store.Lookup("ticket_0")
	require.True(t, ok)
	assert.Equal(t, "Account Access", meta.Category)
	assert.Equal(t, "Cannot log in | Password reset link broken | Account Access", meta.Text)

	meta, ok = store.Lookup("ticket_2")
	require.True(t, ok)
	assert.Equal(t, "Technical Issue", meta.Category)

	_, ok = store.Lookup("ticket_99")
	assert.False(t, ok)
}

func TestNewStoreFromReader_AliasOrder(t *testing.T) {
	// Both "Type" and "Category" are present; "Type" is earlier in the
	// alias list, so it must be chosen for every record.
	csvData := `Type,Category,Description
Billing,ShouldNotBeUsed,duplicate charge
`
	store, err := NewStoreFromReader(strings.NewReader(csvData), Config{})
	require.NoError(t, err)

	meta, ok := store.Lookup("ticket_0")
	require.True(t, ok)
	assert.Equal(t, "Billing", meta.Category)
}

func TestNewStoreFromReader_CustomConfig(t *testing.T) {
	csvData := `issue_kind,body
Bug Report,the export button does nothing
`
	store, err := NewStoreFromReader(strings.NewReader(csvData), Config{
		CategoryAliases: []string{"issue_kind"},
		TextColumns:     []string{"body"},
		IDPrefix:        "row_",
	})
	require.NoError(t, err)

	meta, ok := store.Lookup("row_0")
	require.True(t, ok)
	assert.Equal(t, "Bug Report", meta.Category)
	assert.Equal(t, "the export button does nothing", meta.Text)
}

func TestNewStoreFromReader_MissingCategoryColumn(t *testing.T) {
	csvData := `Subject,Description
hello,world
`
	_, err := NewStoreFromReader(strings.NewReader(csvData), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no category column")
}

func TestNewStoreFromReader_ShortRows(t *testing.T) {
	// Rows shorter than the header must not panic; missing cells read as empty.
	csvData := `Ticket Subject,Ticket Description,Ticket Type
only a subject
`
	store, err := NewStoreFromReader(strings.NewReader(csvData), Config{})
	require.NoError(t, err)

	meta, ok := store.Lookup("ticket_0")
	require.True(t, ok)
	assert.Equal(t, "", meta.Category)
	assert.Equal(t, "only a subject", meta.Text)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV("/nonexistent/tickets.csv", Config{})
	require.Error(t, err)
}
