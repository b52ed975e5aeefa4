package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Class report cards",
		Headers: []string{"Roll", "Name", "Percentage", "Grade"},
		Rows: []map[string]string{
			{"Roll": "1", "Name": "Ada", "Percentage": "91.50", "Grade": "A+"},
			{"Roll": "2", "Name": "Linus", "Percentage": "39.00", "Grade": "F"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Roll,Name,Percentage,Grade\n1,Ada,91.50,A+\n2,Linus,39.00,F\n", string(out))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	value, err := file.GetCellValue("Class report cards", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Ada", value)
	grade, err := file.GetCellValue("Class report cards", "D3")
	require.NoError(t, err)
	assert.Equal(t, "F", grade)
}

func TestRendererFor(t *testing.T) {
	r, err := RendererFor(FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Extension())

	_, err = RendererFor("pdf")
	assert.Error(t, err)
}
