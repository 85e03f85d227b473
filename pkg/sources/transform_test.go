package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/models"
)

func TestToMEP(t *testing.T) {
	raw := RawPerson{
		ID:             " 124936 ",
		FirstName:      "Jane",
		LastName:       "Doe",
		Country:        "fr",
		PoliticalGroup: "Renew Europe Group",
		Email:          "jane.doe@europarl.europa.eu",
		BirthDate:      "1975-04-12",
		Memberships: []RawMembership{
			{CommitteeCode: "envi", Role: "Chair"},
			{CommitteeCode: "", Role: "member"},
			{CommitteeCode: "ITRE", Role: "observer"},
		},
	}

	mep := ToMEP(raw)

	assert.Equal(t, "124936", mep.ID)
	assert.Equal(t, "Jane Doe", mep.FullName)
	assert.Equal(t, "FR", mep.Country)
	assert.True(t, mep.Active)
	require.NotNil(t, mep.Email)
	assert.Equal(t, "jane.doe@europarl.europa.eu", *mep.Email)
	require.NotNil(t, mep.BirthDate)
	assert.Equal(t, time.Date(1975, 4, 12, 0, 0, 0, 0, time.UTC), *mep.BirthDate)

	// Empty committee codes are dropped, unknown roles degrade to member
	require.Len(t, mep.Memberships, 2)
	assert.Equal(t, "ENVI", mep.Memberships[0].CommitteeCode)
	assert.Equal(t, models.RoleChair, mep.Memberships[0].Role)
	assert.Equal(t, "ITRE", mep.Memberships[1].CommitteeCode)
	assert.Equal(t, models.RoleMember, mep.Memberships[1].Role)
}

func TestToMEP_SparseRecord(t *testing.T) {
	mep := ToMEP(RawPerson{ID: "1", FirstName: "Ada", LastName: "Lovelace"})

	assert.Equal(t, "Ada Lovelace", mep.FullName)
	assert.Nil(t, mep.Email)
	assert.Nil(t, mep.BirthDate)
	assert.Nil(t, mep.PhotoURL)
	assert.Empty(t, mep.Memberships)
}

func TestToMEP_BadBirthDate(t *testing.T) {
	mep := ToMEP(RawPerson{ID: "1", FullName: "Jane Doe", BirthDate: "April 1975"})
	assert.Nil(t, mep.BirthDate)
}

func TestToCommittee(t *testing.T) {
	committee := ToCommittee(RawBody{
		Code:      "envi",
		Name:      "Committee on the Environment",
		ChairName: "Jane Doe",
	})

	assert.Equal(t, "ENVI", committee.Code)
	assert.Equal(t, "Committee on the Environment", committee.Name)
	require.NotNil(t, committee.ChairName)
	assert.Equal(t, "Jane Doe", *committee.ChairName)
	assert.Nil(t, committee.NameTranslated)
	assert.True(t, committee.Active)
}

func TestToEvent(t *testing.T) {
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	event := ToEvent(RawEvent{
		CommitteeCode: "ENVI",
		Title:         "Ordinary meeting",
		StartAt:       start,
	}, "committee-1")

	assert.Equal(t, "committee-1", event.CommitteeID)
	assert.Equal(t, "meeting", event.EventType)
	assert.Equal(t, start, event.StartAt)
	assert.Nil(t, event.EndAt)
	assert.Nil(t, event.Location)
}
