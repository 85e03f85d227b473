package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/models"
)

func TestWriteMEPsCSV(t *testing.T) {
	email := "jane@x.eu"
	birthDate := time.Date(1975, 4, 12, 0, 0, 0, 0, time.UTC)

	meps := []models.MEP{
		{ID: "1", FirstName: "Jane", LastName: "Doe", FullName: "Jane Doe", Country: "FR",
			PoliticalGroup: "Renew Europe Group", Email: &email, BirthDate: &birthDate, Active: true},
		{ID: "2", FirstName: "John", LastName: "Smith", FullName: "John Smith", Country: "DE", Active: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMEPsCSV(&buf, meps))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, mepHeader, records[0])
	assert.Equal(t, "jane@x.eu", records[1][8])
	assert.Equal(t, "1975-04-12", records[1][10])
	assert.Equal(t, "true", records[1][11])

	// Optional fields degrade to empty cells
	assert.Equal(t, "", records[2][8])
	assert.Equal(t, "false", records[2][11])
}

func TestWriteMEPsJSON(t *testing.T) {
	meps := []models.MEP{{ID: "1", FullName: "Jane Doe", Country: "FR", Active: true}}

	var buf bytes.Buffer
	require.NoError(t, WriteMEPsJSON(&buf, meps))

	var decoded []models.MEP
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Jane Doe", decoded[0].FullName)
}

func TestWriteCommitteesCSV(t *testing.T) {
	chair := "Jane Doe"
	committees := []models.Committee{
		{ID: "c1", Code: "ENVI", Name: "Environment", ChairName: &chair, Active: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCommitteesCSV(&buf, committees))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ENVI", records[1][1])
	assert.Equal(t, "Jane Doe", records[1][3])
}
