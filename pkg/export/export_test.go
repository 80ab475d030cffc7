package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func auditDataset() Dataset {
	return Dataset{
		Headers: []string{"Date", "Actor", "Action", "Details"},
		Rows: []map[string]string{
			{"Date": "2024-01-01T00:00:00Z", "Actor": "John_Doe", "Action": "Penalty issued", "Details": "Target: Jane_Roe, Reason: absent"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(auditDataset(), "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "\ufeff"), "csv output starts with a byte order mark")
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(out), "\ufeff")), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Date,Actor,Action,Details", lines[0])
	require.Contains(t, lines[1], `"Target: Jane_Roe, Reason: absent"`)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(auditDataset(), "Audit log")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	require.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(3, 200)
	require.Equal(t, []float64{50, 50, 100}, widths)
}
