// Package resolver finds MEP records that describe the same person and
// merges them into a single canonical record.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

// MEPStore is the slice of the MEP repository the resolver needs
type MEPStore interface {
	ListActive(ctx context.Context) ([]models.MEP, error)
	Deactivate(ctx context.Context, id string) error
}

// MembershipStore is the slice of the membership repository the resolver needs
type MembershipStore interface {
	ListByMEP(ctx context.Context, mepID string) ([]models.Membership, error)
	Upsert(ctx context.Context, membership models.Membership) error
	DeleteByMEP(ctx context.Context, mepID string) error
}

// AuditStore records merge events
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error)
}

// Result summarizes one resolution pass
type Result struct {
	GroupsFound            int
	GroupsMerged           int
	RecordsDeactivated     int
	MembershipsTransferred int
	Errors                 []string
	AuditEntries           []*models.AuditEntry
}

// Resolver deduplicates MEP records by exact full-name grouping
type Resolver struct {
	meps        MEPStore
	memberships MembershipStore
	audit       AuditStore
	logger      ectologger.Logger
	now         func() time.Time
}

// New creates a new Resolver
func New(meps MEPStore, memberships MembershipStore, audit AuditStore, logger ectologger.Logger) *Resolver {
	return &Resolver{
		meps:        meps,
		memberships: memberships,
		audit:       audit,
		logger:      logger,
		now:         time.Now,
	}
}

// Resolve groups active MEPs by exact full name, merges each duplicate group
// into its highest-scoring record, and soft-deactivates the rest. A failure
// in one group is recorded and does not stop the remaining groups.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.Resolve")
	defer span.End()

	active, err := r.meps.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active MEPs: %w", err)
	}

	result := &Result{}

	// Group by exact full name, preserving query order within each group so
	// survivor tie-breaks stay deterministic.
	groups := make(map[string][]models.MEP)
	order := make([]string, 0)
	for _, mep := range active {
		if _, seen := groups[mep.FullName]; !seen {
			order = append(order, mep.FullName)
		}
		groups[mep.FullName] = append(groups[mep.FullName], mep)
	}

	for _, fullName := range order {
		group := groups[fullName]
		if len(group) < 2 {
			continue
		}
		result.GroupsFound++

		if err := r.mergeGroup(ctx, group, result); err != nil {
			msg := fmt.Sprintf("merge failed for %q: %v", fullName, err)
			r.logger.WithContext(ctx).WithError(err).Warnf("Merge failed for duplicate group %q", fullName)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.GroupsMerged++
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"groups_found":  result.GroupsFound,
		"groups_merged": result.GroupsMerged,
		"deactivated":   result.RecordsDeactivated,
		"transferred":   result.MembershipsTransferred,
	}).Info("Entity resolution completed")

	return result, nil
}

// mergeGroup folds every non-survivor into the survivor. Memberships move by
// (mep, committee) key: a pairing the survivor already holds is not copied,
// so re-running a partially applied merge stays idempotent.
func (r *Resolver) mergeGroup(ctx context.Context, group []models.MEP, result *Result) error {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.mergeGroup")
	defer span.End()

	survivorIdx := selectSurvivor(group, r.now())
	survivor := group[survivorIdx]

	held, err := r.memberships.ListByMEP(ctx, survivor.ID)
	if err != nil {
		return fmt.Errorf("failed to list survivor memberships: %w", err)
	}

	heldCommittees := make(map[string]bool, len(held))
	for _, m := range held {
		heldCommittees[m.CommitteeID] = true
	}

	absorbed := make([]string, 0, len(group)-1)
	transferred := 0

	for i, loser := range group {
		if i == survivorIdx {
			continue
		}

		loserMemberships, err := r.memberships.ListByMEP(ctx, loser.ID)
		if err != nil {
			return fmt.Errorf("failed to list memberships of %s: %w", loser.ID, err)
		}

		for _, m := range loserMemberships {
			if heldCommittees[m.CommitteeID] {
				continue
			}
			m.MEPID = survivor.ID
			if err := r.memberships.Upsert(ctx, m); err != nil {
				return fmt.Errorf("failed to transfer membership to %s: %w", survivor.ID, err)
			}
			heldCommittees[m.CommitteeID] = true
			transferred++
		}

		if err := r.memberships.DeleteByMEP(ctx, loser.ID); err != nil {
			return fmt.Errorf("failed to clear memberships of %s: %w", loser.ID, err)
		}

		if err := r.meps.Deactivate(ctx, loser.ID); err != nil {
			return fmt.Errorf("failed to deactivate %s: %w", loser.ID, err)
		}

		absorbed = append(absorbed, loser.ID)
		result.RecordsDeactivated++
	}

	result.MembershipsTransferred += transferred

	payload, err := json.Marshal(models.MergePayload{
		AbsorbedIDs:            absorbed,
		TransferredMemberships: transferred,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal merge payload: %w", err)
	}

	entry, err := r.audit.Append(ctx, &models.AuditEntry{
		EntityType: models.AuditEntityMEP,
		EntityID:   survivor.ID,
		ChangeType: models.ChangeMergeDuplicates,
		NewValues:  payload,
	})
	if err != nil {
		return fmt.Errorf("failed to append merge audit entry: %w", err)
	}
	result.AuditEntries = append(result.AuditEntries, entry)

	return nil
}
