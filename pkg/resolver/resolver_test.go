package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/models"
)

type fakeMEPStore struct {
	meps          []models.MEP
	deactivated   []string
	deactivateErr map[string]error
}

func (f *fakeMEPStore) ListActive(ctx context.Context) ([]models.MEP, error) {
	return f.meps, nil
}

func (f *fakeMEPStore) Deactivate(ctx context.Context, id string) error {
	if err := f.deactivateErr[id]; err != nil {
		return err
	}
	f.deactivated = append(f.deactivated, id)
	return nil
}

type fakeMembershipStore struct {
	byMEP map[string][]models.Membership
}

func (f *fakeMembershipStore) ListByMEP(ctx context.Context, mepID string) ([]models.Membership, error) {
	return f.byMEP[mepID], nil
}

func (f *fakeMembershipStore) Upsert(ctx context.Context, m models.Membership) error {
	for _, existing := range f.byMEP[m.MEPID] {
		if existing.CommitteeID == m.CommitteeID {
			return nil
		}
	}
	f.byMEP[m.MEPID] = append(f.byMEP[m.MEPID], m)
	return nil
}

func (f *fakeMembershipStore) DeleteByMEP(ctx context.Context, mepID string) error {
	delete(f.byMEP, mepID)
	return nil
}

func (f *fakeMembershipStore) total() int {
	count := 0
	for _, memberships := range f.byMEP {
		count += len(memberships)
	}
	return count
}

type fakeAuditStore struct {
	entries []*models.AuditEntry
}

func (f *fakeAuditStore) Append(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error) {
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)
	return entry, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestResolve_MergePreservesMemberships(t *testing.T) {
	old := time.Now().Add(-60 * 24 * time.Hour)

	meps := &fakeMEPStore{meps: []models.MEP{
		{ID: "A", FullName: "Jane Doe", CreatedAt: old},
		{ID: "B", FullName: "Jane Doe", Email: strPtr("jane@x.eu"), CreatedAt: old},
	}}
	memberships := &fakeMembershipStore{byMEP: map[string][]models.Membership{
		"A": {{MEPID: "A", CommitteeID: "c-envi", Role: models.RoleMember}},
		"B": {{MEPID: "B", CommitteeID: "c-itre", Role: models.RoleChair}},
	}}
	audit := &fakeAuditStore{}

	before := memberships.total()

	result, err := New(meps, memberships, audit, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	// B scores higher (email) and survives with the union of memberships
	assert.Equal(t, 1, result.GroupsMerged)
	assert.Equal(t, []string{"A"}, meps.deactivated)
	assert.Equal(t, 1, result.MembershipsTransferred)
	assert.Equal(t, before, memberships.total())

	survivorMemberships := memberships.byMEP["B"]
	require.Len(t, survivorMemberships, 2)
	committees := []string{survivorMemberships[0].CommitteeID, survivorMemberships[1].CommitteeID}
	assert.ElementsMatch(t, []string{"c-envi", "c-itre"}, committees)
	assert.Empty(t, memberships.byMEP["A"])
}

func TestResolve_MembershipTransferIdempotentByCommittee(t *testing.T) {
	old := time.Now().Add(-60 * 24 * time.Hour)

	meps := &fakeMEPStore{meps: []models.MEP{
		{ID: "A", FullName: "Jane Doe", Email: strPtr("jane@x.eu"), CreatedAt: old},
		{ID: "B", FullName: "Jane Doe", CreatedAt: old},
	}}
	// Both hold ENVI, with different roles. The survivor's role wins.
	memberships := &fakeMembershipStore{byMEP: map[string][]models.Membership{
		"A": {{MEPID: "A", CommitteeID: "c-envi", Role: models.RoleMember}},
		"B": {{MEPID: "B", CommitteeID: "c-envi", Role: models.RoleChair}},
	}}
	audit := &fakeAuditStore{}

	result, err := New(meps, memberships, audit, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.MembershipsTransferred)
	require.Len(t, memberships.byMEP["A"], 1)
	assert.Equal(t, models.RoleMember, memberships.byMEP["A"][0].Role)
}

func TestResolve_AuditEntryPerGroup(t *testing.T) {
	old := time.Now().Add(-60 * 24 * time.Hour)

	meps := &fakeMEPStore{meps: []models.MEP{
		{ID: "A", FullName: "Jane Doe", Email: strPtr("jane@x.eu"), CreatedAt: old},
		{ID: "B", FullName: "Jane Doe", CreatedAt: old},
		{ID: "C", FullName: "John Smith", CreatedAt: old},
	}}
	memberships := &fakeMembershipStore{byMEP: map[string][]models.Membership{}}
	audit := &fakeAuditStore{}

	result, err := New(meps, memberships, audit, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.GroupsFound)
	require.Len(t, audit.entries, 1)

	entry := audit.entries[0]
	assert.Equal(t, models.AuditEntityMEP, entry.EntityType)
	assert.Equal(t, "A", entry.EntityID)
	assert.Equal(t, models.ChangeMergeDuplicates, entry.ChangeType)

	var payload models.MergePayload
	require.NoError(t, json.Unmarshal(entry.NewValues, &payload))
	assert.Equal(t, []string{"B"}, payload.AbsorbedIDs)
}

func TestResolve_GroupErrorsAreIsolated(t *testing.T) {
	old := time.Now().Add(-60 * 24 * time.Hour)

	meps := &fakeMEPStore{
		meps: []models.MEP{
			{ID: "A", FullName: "Jane Doe", Email: strPtr("jane@x.eu"), CreatedAt: old},
			{ID: "B", FullName: "Jane Doe", CreatedAt: old},
			{ID: "C", FullName: "John Smith", Email: strPtr("john@x.eu"), CreatedAt: old},
			{ID: "D", FullName: "John Smith", CreatedAt: old},
		},
		deactivateErr: map[string]error{"B": errors.New("connection reset")},
	}
	memberships := &fakeMembershipStore{byMEP: map[string][]models.Membership{}}
	audit := &fakeAuditStore{}

	result, err := New(meps, memberships, audit, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	// Jane Doe's group fails, John Smith's group still merges
	assert.Equal(t, 2, result.GroupsFound)
	assert.Equal(t, 1, result.GroupsMerged)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Jane Doe")
	assert.Contains(t, meps.deactivated, "D")
}

func TestResolve_NoDuplicatesIsNoOp(t *testing.T) {
	meps := &fakeMEPStore{meps: []models.MEP{
		{ID: "A", FullName: "Jane Doe"},
		{ID: "B", FullName: "John Smith"},
	}}
	memberships := &fakeMembershipStore{byMEP: map[string][]models.Membership{}}
	audit := &fakeAuditStore{}

	result, err := New(meps, memberships, audit, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.GroupsFound)
	assert.Empty(t, meps.deactivated)
	assert.Empty(t, audit.entries)
}
