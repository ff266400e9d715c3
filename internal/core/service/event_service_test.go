package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubEventRepo struct {
	mu        sync.Mutex
	updateErr error
	failFirst int // number of leading UpdateShipmentStatus calls that fail with updateErr
	calls     int
	insertErr error
	// current, when set, holds the stored status per tracking id and makes
	// updates conditional on it, the way the Mongo filter does.
	current  map[string]domain.ShipmentStatus
	updated  []string // tracking ids updated
	froms    []domain.ShipmentStatus
	notes    []string
	inserted []*domain.StatusEvent
}

func (r *stubEventRepo) UpdateShipmentStatus(_ context.Context, tracking string, from, to domain.ShipmentStatus, _ time.Time, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.updateErr != nil && (r.failFirst == 0 || r.calls <= r.failFirst) {
		return r.updateErr
	}
	if r.current != nil {
		if r.current[tracking] != from {
			return domain.ErrInvalidTransition
		}
		r.current[tracking] = to
	}
	r.updated = append(r.updated, tracking)
	r.froms = append(r.froms, from)
	r.notes = append(r.notes, notes)
	return nil
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

type stubDedup struct {
	dupResult bool
	dupErr    error
	markErr   error
	marked    []string
}

func (d *stubDedup) IsDuplicate(_ context.Context, tracking, status string, _ time.Time) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, tracking, status string, _ time.Time) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.marked = append(d.marked, tracking+":"+status)
	return nil
}

// memDedup remembers marked updates, like the Redis store.
type memDedup struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (d *memDedup) key(tracking, status string, ts time.Time) string {
	return tracking + ":" + status + ":" + ts.UTC().Format(time.RFC3339Nano)
}

func (d *memDedup) IsDuplicate(_ context.Context, tracking, status string, ts time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys[d.key(tracking, status, ts)], nil
}

func (d *memDedup) Mark(_ context.Context, tracking, status string, ts time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = map[string]bool{}
	}
	d.keys[d.key(tracking, status, ts)] = true
	return nil
}

// ---------------------------------------------------------------------------
// Helper: build a service with a seeded shipment.
// ---------------------------------------------------------------------------

func newEventSvc(shipRepo *stubShipmentRepo, eventRepo *stubEventRepo, dedup *stubDedup) ports.EventService {
	return NewEventService(shipRepo, eventRepo, dedup, zerolog.Nop())
}

func seededRepo(tracking, clientID string, status domain.ShipmentStatus) *stubShipmentRepo {
	repo := newStubShipmentRepo()
	s := seedShipment(repo, tracking, clientID)
	s.Status = status
	return repo
}

func adminUpdate(tracking, status string) ports.StatusUpdateInput {
	return ports.StatusUpdateInput{
		TrackingID: tracking,
		Status:     status,
		Timestamp:  time.Now(),
		Source:     "branch_scanner",
		Role:       domain.RoleAdmin,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestEventService_Process_HappyPath(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{}
	dedup := &stubDedup{}

	svc := newEventSvc(repo, evRepo, dedup)
	err := svc.Process(context.Background(), adminUpdate("EX-SEP-05-001", "in_transit"))

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(evRepo.updated) != 1 || evRepo.updated[0] != "EX-SEP-05-001" {
		t.Errorf("expected shipment status updated, got: %v", evRepo.updated)
	}
	if evRepo.notes[0] != "branch_scanner" {
		t.Errorf("expected source as history notes, got %q", evRepo.notes[0])
	}
	if len(evRepo.inserted) != 1 {
		t.Errorf("expected audit event inserted")
	}
	if len(dedup.marked) != 1 {
		t.Errorf("expected dedup key marked")
	}
}

func TestEventService_Process_NotesOverrideSource(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{}

	in := adminUpdate("EX-SEP-05-001", "cancelled")
	in.Notes = "customer request"
	if err := newEventSvc(repo, evRepo, &stubDedup{}).Process(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if evRepo.notes[0] != "customer request" || evRepo.inserted[0].Notes != "customer request" {
		t.Errorf("notes not carried: %v", evRepo.notes)
	}
}

func TestEventService_Process_DefaultsTimestamp(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{}

	in := adminUpdate("EX-SEP-05-001", "in_transit")
	in.Timestamp = time.Time{}
	if err := newEventSvc(repo, evRepo, &stubDedup{}).Process(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if evRepo.inserted[0].Timestamp.IsZero() {
		t.Error("expected timestamp defaulted to now")
	}
}

func TestEventService_Process_DuplicateSkipped(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{}
	dedup := &stubDedup{dupResult: true} // simulate already processed

	svc := newEventSvc(repo, evRepo, dedup)
	err := svc.Process(context.Background(), adminUpdate("EX-SEP-05-001", "in_transit"))

	if err != nil {
		t.Fatalf("expected no error for duplicate, got: %v", err)
	}
	if len(evRepo.updated) != 0 {
		t.Errorf("expected no update for duplicate event")
	}
}

func TestEventService_Process_ShipmentNotFound(t *testing.T) {
	svc := newEventSvc(newStubShipmentRepo(), &stubEventRepo{}, &stubDedup{})
	err := svc.Process(context.Background(), adminUpdate("EX-SEP-05-404", "in_transit"))

	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Errorf("expected ErrShipmentNotFound, got: %v", err)
	}
}

func TestEventService_Process_ClientScopedToOwnShipments(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{}
	svc := newEventSvc(repo, evRepo, &stubDedup{})

	in := adminUpdate("EX-SEP-05-001", "cancelled")
	in.Role, in.ClientID = domain.RoleClient, "branch_2"
	if err := svc.Process(context.Background(), in); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound for another branch, got %v", err)
	}

	in.ClientID = "branch_1"
	if err := svc.Process(context.Background(), in); err != nil {
		t.Fatalf("owner should update, got %v", err)
	}
	if repo.lastFindFilter != "branch_1" {
		t.Errorf("expected client filter, got %q", repo.lastFindFilter)
	}
}

func TestEventService_Process_InvalidTransition(t *testing.T) {
	cases := []struct {
		from domain.ShipmentStatus
		to   string
	}{
		{domain.StatusBooked, "delivered"},
		{domain.StatusOutForDelivery, "cancelled"},
		{domain.StatusDelivered, "in_transit"},
		{domain.StatusCancelled, "booked"},
		{domain.StatusBooked, "lost"},
	}
	for _, tc := range cases {
		repo := seededRepo("EX-SEP-05-001", "branch_1", tc.from)
		evRepo := &stubEventRepo{}

		err := newEventSvc(repo, evRepo, &stubDedup{}).Process(context.Background(), adminUpdate("EX-SEP-05-001", tc.to))
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got: %v", tc.from, tc.to, err)
		}
		if len(evRepo.updated) != 0 {
			t.Errorf("%s -> %s: expected no update on invalid transition", tc.from, tc.to)
		}
	}
}

func TestEventService_Process_DedupCheckError_ProcessesAnyway(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{}
	dedup := &stubDedup{dupErr: errors.New("redis timeout")} // dedup check fails

	svc := newEventSvc(repo, evRepo, dedup)
	err := svc.Process(context.Background(), adminUpdate("EX-SEP-05-001", "in_transit"))

	// Should still process despite dedup check failure
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(evRepo.updated) != 1 {
		t.Errorf("expected update to proceed when dedup check errors")
	}
}

func TestEventService_Process_AuditFailureIsNonFatal(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{insertErr: errors.New("mongo unavailable")}

	svc := newEventSvc(repo, evRepo, &stubDedup{})
	err := svc.Process(context.Background(), adminUpdate("EX-SEP-05-001", "in_transit"))

	// InsertEvent failure must NOT fail the overall operation
	if err != nil {
		t.Fatalf("expected audit failure to be non-fatal, got: %v", err)
	}
	if len(evRepo.updated) != 1 {
		t.Error("expected shipment status to be updated")
	}
}

func TestEventService_Process_UpdateFailureIsReturned(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{updateErr: errors.New("write conflict")}
	dedup := &stubDedup{}

	err := newEventSvc(repo, evRepo, dedup).Process(context.Background(), adminUpdate("EX-SEP-05-001", "in_transit"))
	if err == nil {
		t.Fatal("expected update error")
	}
	if len(evRepo.inserted) != 0 {
		t.Error("audit must not be written when the update failed")
	}
	if len(dedup.marked) != 0 {
		t.Error("failed update must not be marked as processed")
	}
}

func TestEventService_Process_FailedWriteIsNotMarkedDuplicate(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{updateErr: errors.New("mongo timeout"), failFirst: 1}
	dedup := &memDedup{}
	svc := NewEventService(repo, evRepo, dedup, zerolog.Nop())

	in := adminUpdate("EX-SEP-05-001", "in_transit")
	if err := svc.Process(context.Background(), in); err == nil {
		t.Fatal("expected the first write to fail")
	}
	if err := svc.Process(context.Background(), in); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(evRepo.updated) != 1 {
		t.Fatalf("retry must reach storage, updates applied = %d", len(evRepo.updated))
	}

	// Only now is the same update a duplicate.
	if err := svc.Process(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if len(evRepo.updated) != 1 || evRepo.calls != 2 {
		t.Fatalf("third call should be skipped, calls = %d", evRepo.calls)
	}
}

func TestEventService_Process_WritesAgainstObservedStatus(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusInTransit)
	evRepo := &stubEventRepo{}

	if err := newEventSvc(repo, evRepo, &stubDedup{}).Process(context.Background(), adminUpdate("EX-SEP-05-001", "delivered")); err != nil {
		t.Fatal(err)
	}
	if evRepo.froms[0] != domain.StatusInTransit {
		t.Fatalf("expected write conditioned on in_transit, got %q", evRepo.froms[0])
	}
}

func TestEventService_Process_StaleReadLosesToStoredStatus(t *testing.T) {
	// The read still sees booked while another update already cancelled it.
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{current: map[string]domain.ShipmentStatus{"EX-SEP-05-001": domain.StatusCancelled}}
	dedup := &stubDedup{}

	err := newEventSvc(repo, evRepo, dedup).Process(context.Background(), adminUpdate("EX-SEP-05-001", "in_transit"))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if evRepo.current["EX-SEP-05-001"] != domain.StatusCancelled {
		t.Fatalf("stored status changed to %q", evRepo.current["EX-SEP-05-001"])
	}
	if len(dedup.marked) != 0 || len(evRepo.inserted) != 0 {
		t.Fatal("rejected update must not be marked or audited")
	}
}

func TestEventService_Process_ConcurrentUpdatesFromSameStatus(t *testing.T) {
	repo := seededRepo("EX-SEP-05-001", "branch_1", domain.StatusBooked)
	evRepo := &stubEventRepo{current: map[string]domain.ShipmentStatus{"EX-SEP-05-001": domain.StatusBooked}}
	svc := NewEventService(repo, evRepo, &memDedup{}, zerolog.Nop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, status := range []string{"cancelled", "in_transit"} {
		i, status := i, status
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.Process(context.Background(), adminUpdate("EX-SEP-05-001", status))
		}()
	}
	wg.Wait()

	applied := 0
	for _, err := range errs {
		switch {
		case err == nil:
			applied++
		case !errors.Is(err, domain.ErrInvalidTransition):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if applied != 1 || len(evRepo.updated) != 1 {
		t.Fatalf("exactly one update should land, applied = %d", applied)
	}
}

func TestEventService_ProcessBulk_ReportsEachShipment(t *testing.T) {
	repo := newStubShipmentRepo()
	seedShipment(repo, "EX-SEP-05-001", "branch_1")
	seedShipment(repo, "EX-SEP-05-002", "branch_2").Status = domain.StatusDelivered
	evRepo := &stubEventRepo{}

	res, err := newEventSvc(repo, evRepo, &stubDedup{}).ProcessBulk(context.Background(), ports.BulkStatusInput{
		TrackingIDs: []string{"EX-SEP-05-001", "EX-SEP-05-002", "EX-SEP-05-404", " EX-SEP-05-001 "},
		Action:      "mark_in_transit",
		Source:      "admin_console",
		Role:        domain.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "in_transit" || res.Updated != 1 || res.Failed != 2 {
		t.Fatalf("unexpected summary %+v", res)
	}
	if len(res.Items) != 3 {
		t.Fatalf("repeated ids must be processed once, got %d items", len(res.Items))
	}
	want := []ports.StatusUpdateOutcome{
		{TrackingID: "EX-SEP-05-001", Applied: true},
		{TrackingID: "EX-SEP-05-002", Reason: "invalid_transition"},
		{TrackingID: "EX-SEP-05-404", Reason: "shipment_not_found"},
	}
	for i, w := range want {
		got := res.Items[i]
		if got.TrackingID != w.TrackingID || got.Applied != w.Applied || got.Reason != w.Reason {
			t.Errorf("item %d = %+v, want %+v", i, got, w)
		}
		if !got.Applied && got.Error == "" {
			t.Errorf("item %d: failed item without message", i)
		}
	}
	if len(evRepo.updated) != 1 || evRepo.updated[0] != "EX-SEP-05-001" {
		t.Errorf("updated = %v", evRepo.updated)
	}
}

func TestEventService_ProcessBulk_MapsActions(t *testing.T) {
	cases := map[string]domain.ShipmentStatus{
		"mark_in_transit":       domain.StatusInTransit,
		"mark_out_for_delivery": domain.StatusOutForDelivery,
		"mark_delivered":        domain.StatusDelivered,
		"cancel":                domain.StatusCancelled,
	}
	for action, want := range cases {
		res, err := newEventSvc(newStubShipmentRepo(), &stubEventRepo{}, &stubDedup{}).ProcessBulk(context.Background(), ports.BulkStatusInput{
			TrackingIDs: []string{"EX-SEP-05-001"},
			Action:      action,
			Role:        domain.RoleAdmin,
		})
		if err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		if res.Status != string(want) {
			t.Errorf("%s -> %s, want %s", action, res.Status, want)
		}
	}
}

func TestEventService_ProcessBulk_RejectsRequest(t *testing.T) {
	svc := newEventSvc(newStubShipmentRepo(), &stubEventRepo{}, &stubDedup{})
	tooMany := make([]string, MaxBulkStatusItems+1)

	cases := []struct {
		name string
		in   ports.BulkStatusInput
		want error
	}{
		{"client role", ports.BulkStatusInput{TrackingIDs: []string{"x"}, Action: "cancel", Role: domain.RoleClient, ClientID: "b1"}, domain.ErrForbidden},
		{"unknown action", ports.BulkStatusInput{TrackingIDs: []string{"x"}, Action: "mark_lost", Role: domain.RoleAdmin}, domain.ErrInvalidInput},
		{"no ids", ports.BulkStatusInput{Action: "cancel", Role: domain.RoleAdmin}, domain.ErrInvalidInput},
		{"too many ids", ports.BulkStatusInput{TrackingIDs: tooMany, Action: "cancel", Role: domain.RoleAdmin}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := svc.ProcessBulk(context.Background(), tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
