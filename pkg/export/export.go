// Package export renders MEP and committee lists as CSV or JSON downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/parlwatch/hemicycle/pkg/models"
)

var mepHeader = []string{
	"id", "firstName", "lastName", "fullName", "country",
	"politicalGroup", "politicalGroupAbbr", "nationalParty",
	"email", "profileUrl", "birthDate", "active",
}

// WriteMEPsCSV streams the records as CSV with a header row
func WriteMEPsCSV(w io.Writer, meps []models.MEP) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(mepHeader); err != nil {
		return err
	}

	for _, mep := range meps {
		record := []string{
			mep.ID,
			mep.FirstName,
			mep.LastName,
			mep.FullName,
			mep.Country,
			mep.PoliticalGroup,
			mep.PoliticalGroupAbbr,
			derefString(mep.NationalParty),
			derefString(mep.Email),
			derefString(mep.ProfileURL),
			formatDate(mep.BirthDate),
			formatBool(mep.Active),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteMEPsJSON streams the records as a JSON array
func WriteMEPsJSON(w io.Writer, meps []models.MEP) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meps)
}

var committeeHeader = []string{"id", "code", "name", "chairName", "chairGroup", "profileUrl", "active"}

// WriteCommitteesCSV streams the records as CSV with a header row
func WriteCommitteesCSV(w io.Writer, committees []models.Committee) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(committeeHeader); err != nil {
		return err
	}

	for _, committee := range committees {
		record := []string{
			committee.ID,
			committee.Code,
			committee.Name,
			derefString(committee.ChairName),
			derefString(committee.ChairGroup),
			derefString(committee.ProfileURL),
			formatBool(committee.Active),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
