package sources

import (
	"strings"
	"time"

	"github.com/parlwatch/hemicycle/pkg/models"
)

// ToMEP converts a raw person into the stored MEP shape. It is total over the
// raw shape: missing optional fields degrade to nil, never an error, so one
// sparse upstream record cannot block a batch.
func ToMEP(raw RawPerson) models.MEP {
	firstName := strings.TrimSpace(raw.FirstName)
	lastName := strings.TrimSpace(raw.LastName)

	fullName := strings.TrimSpace(raw.FullName)
	if fullName == "" {
		fullName = strings.TrimSpace(firstName + " " + lastName)
	}

	mep := models.MEP{
		ID:                 strings.TrimSpace(raw.ID),
		FirstName:          firstName,
		LastName:           lastName,
		FullName:           fullName,
		Country:            strings.ToUpper(strings.TrimSpace(raw.Country)),
		PoliticalGroup:     strings.TrimSpace(raw.PoliticalGroup),
		PoliticalGroupAbbr: strings.TrimSpace(raw.PoliticalGroupAbbr),
		NationalParty:      optional(raw.NationalParty),
		Email:              optional(raw.Email),
		Twitter:            optional(raw.Twitter),
		Facebook:           optional(raw.Facebook),
		Website:            optional(raw.Website),
		PhotoURL:           optional(raw.PhotoURL),
		ProfileURL:         optional(raw.ProfileURL),
		BirthPlace:         optional(raw.BirthPlace),
		Active:             true,
	}

	if birthDate := strings.TrimSpace(raw.BirthDate); birthDate != "" {
		if parsed, err := time.Parse("2006-01-02", birthDate); err == nil {
			mep.BirthDate = &parsed
		}
	}

	for _, m := range raw.Memberships {
		code := strings.ToUpper(strings.TrimSpace(m.CommitteeCode))
		if code == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if !models.ValidRole(role) {
			role = models.RoleMember
		}
		mep.Memberships = append(mep.Memberships, models.Membership{
			MEPID:         mep.ID,
			CommitteeCode: code,
			Role:          role,
		})
	}

	return mep
}

// ToCommittee converts a raw corporate body into the stored committee shape
func ToCommittee(raw RawBody) models.Committee {
	return models.Committee{
		Code:           strings.ToUpper(strings.TrimSpace(raw.Code)),
		Name:           strings.TrimSpace(raw.Name),
		NameTranslated: optional(raw.NameTranslated),
		ChairName:      optional(raw.ChairName),
		ChairGroup:     optional(raw.ChairGroup),
		ProfileURL:     optional(raw.ProfileURL),
		Active:         true,
	}
}

// ToEvent converts a raw event into the stored event shape. The committee id
// is resolved by the caller since raw events only carry the committee code.
func ToEvent(raw RawEvent, committeeID string) models.Event {
	eventType := strings.ToLower(strings.TrimSpace(raw.EventType))
	if eventType == "" {
		eventType = "meeting"
	}

	return models.Event{
		CommitteeID: committeeID,
		Title:       strings.TrimSpace(raw.Title),
		EventType:   eventType,
		StartAt:     raw.StartAt,
		EndAt:       raw.EndAt,
		Location:    optional(raw.Location),
		URL:         optional(raw.URL),
	}
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
