// Package sync drives the fetch-transform-upsert pipeline against the
// upstream parliament data providers.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/resolver"
	"github.com/parlwatch/hemicycle/pkg/sources"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

// ErrRunInProgress is returned when a sync is requested while another run
// holds the run lock.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// MEPStore is the slice of the MEP repository the orchestrator needs
type MEPStore interface {
	Find(ctx context.Context, id string) (*models.MEP, error)
	Create(ctx context.Context, mep *models.MEP) (*models.MEP, error)
	Update(ctx context.Context, mep *models.MEP) (*models.MEP, error)
	CountActive(ctx context.Context) (int, error)
}

// CommitteeStore is the slice of the committee repository the orchestrator needs
type CommitteeStore interface {
	GetByCode(ctx context.Context, code string) (*models.Committee, error)
	Create(ctx context.Context, committee *models.Committee) (*models.Committee, error)
	Update(ctx context.Context, committee *models.Committee) (*models.Committee, error)
}

// MembershipStore writes junction rows reported by the sources
type MembershipStore interface {
	Upsert(ctx context.Context, membership models.Membership) error
}

// EventStore writes upcoming committee events
type EventStore interface {
	Upsert(ctx context.Context, event *models.Event) error
	DeletePast(ctx context.Context, retention time.Duration) (int64, error)
}

// RunStore tracks sync run state transitions
type RunStore interface {
	Create(ctx context.Context, runType string) (*models.SyncRun, error)
	MarkCompleted(ctx context.Context, run *models.SyncRun) error
	MarkFailed(ctx context.Context, run *models.SyncRun) error
}

// AuditStore appends change records
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error)
}

// Deduplicator runs the entity resolution pass
type Deduplicator interface {
	Resolve(ctx context.Context) (*resolver.Result, error)
}

// ChangeEmitter mirrors audit entries to downstream consumers. Emission
// failures never fail a run.
type ChangeEmitter interface {
	EmitAuditEntry(ctx context.Context, entry *models.AuditEntry, syncRunID string) error
}

// CacheInvalidator drops cached reads after writes
type CacheInvalidator interface {
	InvalidateContaining(substring string)
}

// UnlockFunc releases the run lock
type UnlockFunc func(ctx context.Context) error

// RunLock guards the single-active-run invariant across instances
type RunLock interface {
	Acquire(ctx context.Context) (UnlockFunc, error)
}

// Config holds orchestrator tuning
type Config struct {
	// ExpectedMaxMEPs triggers a resolution pass when the active record count
	// exceeds it after upserts. Parliament seats plus a margin.
	ExpectedMaxMEPs int
	// EventRetention bounds how long past events are kept
	EventRetention time.Duration
}

// Orchestrator drives one end-to-end sync run
type Orchestrator struct {
	adapters    []sources.Adapter
	meps        MEPStore
	committees  CommitteeStore
	memberships MembershipStore
	events      EventStore
	runs        RunStore
	audit       AuditStore
	dedup       Deduplicator
	emitter     ChangeEmitter
	cache       CacheInvalidator
	lock        RunLock
	logger      ectologger.Logger
	cfg         Config
}

// New creates a new Orchestrator
func New(
	adapters []sources.Adapter,
	meps MEPStore,
	committees CommitteeStore,
	memberships MembershipStore,
	events EventStore,
	runs RunStore,
	audit AuditStore,
	dedup Deduplicator,
	emitter ChangeEmitter,
	cache CacheInvalidator,
	lock RunLock,
	logger ectologger.Logger,
	cfg Config,
) *Orchestrator {
	if cfg.ExpectedMaxMEPs <= 0 {
		cfg.ExpectedMaxMEPs = 751
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = 30 * 24 * time.Hour
	}
	return &Orchestrator{
		adapters:    adapters,
		meps:        meps,
		committees:  committees,
		memberships: memberships,
		events:      events,
		runs:        runs,
		audit:       audit,
		dedup:       dedup,
		emitter:     emitter,
		cache:       cache,
		lock:        lock,
		logger:      logger,
		cfg:         cfg,
	}
}

// Run executes one full sync synchronously. Returns ErrRunInProgress when
// another run holds the lock.
func (o *Orchestrator) Run(ctx context.Context, runType string) (*models.SyncRun, error) {
	unlock, err := o.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return o.runLocked(ctx, runType, unlock)
}

// StartAsync acquires the run lock synchronously, so callers get an
// immediate ErrRunInProgress, then executes the run in the background.
func (o *Orchestrator) StartAsync(runType string) error {
	unlock, err := o.lock.Acquire(context.Background())
	if err != nil {
		return err
	}

	go func() {
		if _, err := o.runLocked(context.Background(), runType, unlock); err != nil {
			o.logger.WithError(err).Error("Background sync run failed")
		}
	}()

	return nil
}

func (o *Orchestrator) runLocked(ctx context.Context, runType string, unlock UnlockFunc) (*models.SyncRun, error) {
	defer func() {
		if err := unlock(ctx); err != nil {
			o.logger.WithContext(ctx).WithError(err).Warn("Failed to release run lock")
		}
	}()

	ctx, span := tracing.StartSpan(ctx, "sync.Orchestrator.Run")
	defer span.End()

	run, err := o.runs.Create(ctx, runType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := o.logger.WithContext(ctx).WithFields(map[string]any{"run_id": run.ID, "run_type": runType})

	if err := o.execute(ctx, run); err != nil {
		run.Errors = append(run.Errors, err.Error())
		if markErr := o.runs.MarkFailed(ctx, run); markErr != nil {
			log.WithError(markErr).Error("Failed to mark sync run failed")
		}
		log.WithError(err).Errorf("Sync run failed after %s", time.Since(start))
		return run, err
	}

	if err := o.runs.MarkCompleted(ctx, run); err != nil {
		return run, err
	}

	log.WithFields(map[string]any{
		"processed": run.RecordsProcessed,
		"created":   run.RecordsCreated,
		"updated":   run.RecordsUpdated,
		"errors":    len(run.Errors),
	}).Infof("Sync run completed in %s", time.Since(start))

	return run, nil
}

// execute runs the pipeline phases in their fixed order: persons, then
// committees, then memberships, then events. Source-level failures accumulate
// in run.Errors; only storage failures abort the run.
func (o *Orchestrator) execute(ctx context.Context, run *models.SyncRun) error {
	pending := make([]models.Membership, 0)

	for _, adapter := range o.adapters {
		persons, err := adapter.FetchPersons(ctx)
		if err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("%s: fetch persons: %v", adapter.Name(), err))
			o.logger.WithContext(ctx).WithError(err).Warnf("Skipping person sync for source %s", adapter.Name())
			continue
		}

		for _, raw := range persons {
			mep := sources.ToMEP(raw)
			if mep.ID == "" || mep.FullName == "" {
				run.Errors = append(run.Errors, fmt.Sprintf("%s: skipped person with missing id or name", adapter.Name()))
				continue
			}

			if err := o.upsertMEP(ctx, run, &mep); err != nil {
				return err
			}
			pending = append(pending, mep.Memberships...)
		}
	}

	for _, adapter := range o.adapters {
		bodies, err := adapter.FetchCorporateBodies(ctx)
		if err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("%s: fetch bodies: %v", adapter.Name(), err))
			o.logger.WithContext(ctx).WithError(err).Warnf("Skipping committee sync for source %s", adapter.Name())
			continue
		}

		for _, raw := range bodies {
			committee := sources.ToCommittee(raw)
			if committee.Code == "" || committee.Name == "" {
				run.Errors = append(run.Errors, fmt.Sprintf("%s: skipped body with missing code or name", adapter.Name()))
				continue
			}

			if err := o.upsertCommittee(ctx, run, &committee); err != nil {
				return err
			}
		}
	}

	o.applyMemberships(ctx, run, pending)

	if err := o.syncEvents(ctx, run); err != nil {
		return err
	}

	if err := o.maybeResolve(ctx, run); err != nil {
		return err
	}

	return nil
}

// mepSignificantChanges compares the allow-list of fields that count as a
// material update. Cosmetic differences outside the list never cause a write.
func mepSignificantChanges(existing, incoming *models.MEP) (map[string]any, map[string]any) {
	oldValues := make(map[string]any)
	newValues := make(map[string]any)

	compare := func(field string, oldVal, newVal any) {
		if fmt.Sprint(oldVal) != fmt.Sprint(newVal) {
			oldValues[field] = oldVal
			newValues[field] = newVal
		}
	}

	compare("firstName", existing.FirstName, incoming.FirstName)
	compare("lastName", existing.LastName, incoming.LastName)
	compare("fullName", existing.FullName, incoming.FullName)
	compare("country", existing.Country, incoming.Country)
	compare("politicalGroup", existing.PoliticalGroup, incoming.PoliticalGroup)
	compare("email", deref(existing.Email), deref(incoming.Email))
	compare("photoUrl", deref(existing.PhotoURL), deref(incoming.PhotoURL))
	compare("active", existing.Active, incoming.Active)

	return oldValues, newValues
}

func committeeSignificantChanges(existing, incoming *models.Committee) (map[string]any, map[string]any) {
	oldValues := make(map[string]any)
	newValues := make(map[string]any)

	compare := func(field string, oldVal, newVal any) {
		if fmt.Sprint(oldVal) != fmt.Sprint(newVal) {
			oldValues[field] = oldVal
			newValues[field] = newVal
		}
	}

	compare("name", existing.Name, incoming.Name)
	compare("nameTranslated", deref(existing.NameTranslated), deref(incoming.NameTranslated))
	compare("chairName", deref(existing.ChairName), deref(incoming.ChairName))
	compare("chairGroup", deref(existing.ChairGroup), deref(incoming.ChairGroup))
	compare("profileUrl", deref(existing.ProfileURL), deref(incoming.ProfileURL))
	compare("active", existing.Active, incoming.Active)

	return oldValues, newValues
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (o *Orchestrator) upsertMEP(ctx context.Context, run *models.SyncRun, mep *models.MEP) error {
	run.RecordsProcessed++

	existing, err := o.meps.Find(ctx, mep.ID)
	if err != nil {
		return fmt.Errorf("failed to look up MEP %s: %w", mep.ID, err)
	}

	if existing == nil {
		created, err := o.meps.Create(ctx, mep)
		if err != nil {
			return fmt.Errorf("failed to create MEP %s: %w", mep.ID, err)
		}
		run.RecordsCreated++

		payload, _ := json.Marshal(created)
		o.recordChange(ctx, run, &models.AuditEntry{
			EntityType: models.AuditEntityMEP,
			EntityID:   created.ID,
			ChangeType: models.ChangeCreated,
			NewValues:  payload,
		}, "meps")
		return nil
	}

	oldValues, newValues := mepSignificantChanges(existing, mep)
	if len(newValues) == 0 {
		// Unchanged: no write, no audit entry
		return nil
	}

	mep.CreatedAt = existing.CreatedAt
	if _, err := o.meps.Update(ctx, mep); err != nil {
		return fmt.Errorf("failed to update MEP %s: %w", mep.ID, err)
	}
	run.RecordsUpdated++

	oldPayload, _ := json.Marshal(oldValues)
	newPayload, _ := json.Marshal(newValues)
	o.recordChange(ctx, run, &models.AuditEntry{
		EntityType: models.AuditEntityMEP,
		EntityID:   mep.ID,
		ChangeType: models.ChangeUpdated,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}, "meps")

	return nil
}

func (o *Orchestrator) upsertCommittee(ctx context.Context, run *models.SyncRun, committee *models.Committee) error {
	run.RecordsProcessed++

	existing, err := o.committees.GetByCode(ctx, committee.Code)
	if err != nil {
		return fmt.Errorf("failed to look up committee %s: %w", committee.Code, err)
	}

	if existing == nil {
		created, err := o.committees.Create(ctx, committee)
		if err != nil {
			return fmt.Errorf("failed to create committee %s: %w", committee.Code, err)
		}
		run.RecordsCreated++

		payload, _ := json.Marshal(created)
		o.recordChange(ctx, run, &models.AuditEntry{
			EntityType: models.AuditEntityCommittee,
			EntityID:   created.ID,
			ChangeType: models.ChangeCreated,
			NewValues:  payload,
		}, "committees")
		return nil
	}

	oldValues, newValues := committeeSignificantChanges(existing, committee)
	if len(newValues) == 0 {
		return nil
	}

	committee.ID = existing.ID
	committee.CreatedAt = existing.CreatedAt
	if _, err := o.committees.Update(ctx, committee); err != nil {
		return fmt.Errorf("failed to update committee %s: %w", committee.Code, err)
	}
	run.RecordsUpdated++

	oldPayload, _ := json.Marshal(oldValues)
	newPayload, _ := json.Marshal(newValues)
	o.recordChange(ctx, run, &models.AuditEntry{
		EntityType: models.AuditEntityCommittee,
		EntityID:   existing.ID,
		ChangeType: models.ChangeUpdated,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}, "committees")

	return nil
}

// applyMemberships writes the junction rows collected during the person
// phase. It runs after the committee phase so both sides of every pairing
// exist. Rows naming unknown committee codes are recorded and skipped.
func (o *Orchestrator) applyMemberships(ctx context.Context, run *models.SyncRun, pending []models.Membership) {
	codeToID := make(map[string]string)

	for _, membership := range pending {
		committeeID, ok := codeToID[membership.CommitteeCode]
		if !ok {
			committee, err := o.committees.GetByCode(ctx, membership.CommitteeCode)
			if err != nil || committee == nil {
				run.Errors = append(run.Errors, fmt.Sprintf("membership references unknown committee %q", membership.CommitteeCode))
				codeToID[membership.CommitteeCode] = ""
				continue
			}
			committeeID = committee.ID
			codeToID[membership.CommitteeCode] = committeeID
		}
		if committeeID == "" {
			continue
		}

		membership.CommitteeID = committeeID
		if err := o.memberships.Upsert(ctx, membership); err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("failed to upsert membership %s/%s: %v", membership.MEPID, membership.CommitteeCode, err))
		}
	}
}

func (o *Orchestrator) syncEvents(ctx context.Context, run *models.SyncRun) error {
	for _, adapter := range o.adapters {
		rawEvents, err := adapter.FetchEvents(ctx)
		if err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("%s: fetch events: %v", adapter.Name(), err))
			o.logger.WithContext(ctx).WithError(err).Warnf("Skipping event sync for source %s", adapter.Name())
			continue
		}

		for _, raw := range rawEvents {
			committee, err := o.committees.GetByCode(ctx, raw.CommitteeCode)
			if err != nil {
				return fmt.Errorf("failed to look up committee %s for event: %w", raw.CommitteeCode, err)
			}
			if committee == nil {
				run.Errors = append(run.Errors, fmt.Sprintf("event references unknown committee %q", raw.CommitteeCode))
				continue
			}

			event := sources.ToEvent(raw, committee.ID)
			if event.Title == "" {
				continue
			}
			if err := o.events.Upsert(ctx, &event); err != nil {
				return fmt.Errorf("failed to upsert event %q: %w", event.Title, err)
			}
		}
	}

	deleted, err := o.events.DeletePast(ctx, o.cfg.EventRetention)
	if err != nil {
		run.Errors = append(run.Errors, fmt.Sprintf("failed to prune past events: %v", err))
	} else if deleted > 0 {
		o.logger.WithContext(ctx).Infof("Pruned %d past events", deleted)
	}

	return nil
}

// maybeResolve runs the deduplication pass when the active record count
// exceeds the expected chamber size, which is the signature of duplicate
// records arriving from two sources.
func (o *Orchestrator) maybeResolve(ctx context.Context, run *models.SyncRun) error {
	active, err := o.meps.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to count active MEPs: %w", err)
	}

	if active <= o.cfg.ExpectedMaxMEPs {
		return nil
	}

	o.logger.WithContext(ctx).Infof("Active MEP count %d exceeds expected %d, running entity resolution", active, o.cfg.ExpectedMaxMEPs)

	result, err := o.dedup.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("entity resolution failed: %w", err)
	}

	run.Errors = append(run.Errors, result.Errors...)
	if result.RecordsDeactivated > 0 {
		o.invalidate("meps")
		o.invalidate("dashboard")
	}
	for _, entry := range result.AuditEntries {
		o.emit(ctx, entry, run.ID)
	}

	return nil
}

// recordChange appends the audit entry, mirrors it to the emitter, and drops
// the affected cache keys. Audit failures are recorded but do not abort the
// run; the data write already happened.
func (o *Orchestrator) recordChange(ctx context.Context, run *models.SyncRun, entry *models.AuditEntry, cacheKey string) {
	appended, err := o.audit.Append(ctx, entry)
	if err != nil {
		run.Errors = append(run.Errors, fmt.Sprintf("failed to record audit entry for %s %s: %v", entry.EntityType, entry.EntityID, err))
		return
	}

	o.emit(ctx, appended, run.ID)
	o.invalidate(cacheKey)
	// Dashboard stats aggregate both entity types and the audit log, so they
	// go stale on any change
	o.invalidate("dashboard")
}

func (o *Orchestrator) emit(ctx context.Context, entry *models.AuditEntry, runID string) {
	if o.emitter == nil {
		return
	}
	if err := o.emitter.EmitAuditEntry(ctx, entry, runID); err != nil {
		o.logger.WithContext(ctx).WithError(err).Warn("Failed to emit change event")
	}
}

func (o *Orchestrator) invalidate(key string) {
	if o.cache != nil {
		o.cache.InvalidateContaining(key)
	}
}
