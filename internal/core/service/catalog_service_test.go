package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub catalog
// ---------------------------------------------------------------------------

type stubCatalogRepo struct {
	mu           sync.Mutex
	destinations map[string]domain.Destination
	tiers        []domain.RateTier
	listErr      error
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{destinations: make(map[string]domain.Destination)}
}

// seededCatalog holds one active destination (US) with two tiers and one
// inactive destination (FR).
func seededCatalog() *stubCatalogRepo {
	r := newStubCatalogRepo()
	r.destinations["US"] = domain.Destination{Code: "US", Name: "United States", Currency: "USD", Active: true}
	r.destinations["FR"] = domain.Destination{Code: "FR", Name: "France", Currency: "EUR", Active: false}
	r.tiers = []domain.RateTier{
		{ID: "t-small", DestinationCode: "US", MinWeightKg: 0, MaxWeightKg: 5, PricePerKg: 10, BaseFee: 2, Active: true},
		{ID: "t-large", DestinationCode: "US", MinWeightKg: 5.01, MaxWeightKg: 30, PricePerKg: 8, BaseFee: 5, Active: true},
		{ID: "t-fr", DestinationCode: "FR", MinWeightKg: 0, MaxWeightKg: 30, PricePerKg: 9, BaseFee: 1, Active: true},
	}
	return r
}

func (r *stubCatalogRepo) CreateDestination(_ context.Context, d *domain.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.destinations[d.Code]; ok {
		return domain.ErrDestinationExists
	}
	r.destinations[d.Code] = *d
	return nil
}

func (r *stubCatalogRepo) FindDestination(_ context.Context, code string) (*domain.Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.destinations[code]
	if !ok {
		return nil, domain.ErrInvalidDestination
	}
	return &d, nil
}

func (r *stubCatalogRepo) ListDestinations(_ context.Context, activeOnly bool) ([]domain.Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Destination
	for _, d := range r.destinations {
		if activeOnly && !d.Active {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *stubCatalogRepo) SetDestinationActive(_ context.Context, code string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.destinations[code]
	if !ok {
		return domain.ErrInvalidDestination
	}
	d.Active = active
	r.destinations[code] = d
	return nil
}

func (r *stubCatalogRepo) ListTiers(_ context.Context, code string, activeOnly bool) ([]domain.RateTier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.RateTier
	for _, t := range r.tiers {
		if t.DestinationCode != code || (activeOnly && !t.Active) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *stubCatalogRepo) CreateTier(_ context.Context, t *domain.RateTier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers = append(r.tiers, *t)
	return nil
}

func (r *stubCatalogRepo) DeactivateTier(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tiers {
		if r.tiers[i].ID == id {
			r.tiers[i].Active = false
			return nil
		}
	}
	return domain.ErrTierNotFound
}

// ---------------------------------------------------------------------------
// Destination tests
// ---------------------------------------------------------------------------

func TestCatalogService_CreateDestination_Normalizes(t *testing.T) {
	repo := newStubCatalogRepo()
	svc := NewCatalogService(repo, discardLogger)

	d, err := svc.CreateDestination(context.Background(), ports.CreateDestinationInput{
		Code: " ae ", Name: " United Arab Emirates ", Currency: "aed", Active: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Code != "AE" || d.Currency != "AED" || d.Name != "United Arab Emirates" {
		t.Errorf("not normalized: %+v", d)
	}
	if _, ok := repo.destinations["AE"]; !ok {
		t.Error("destination not stored")
	}
}

func TestCatalogService_CreateDestination_Invalid(t *testing.T) {
	cases := map[string]ports.CreateDestinationInput{
		"code too long":  {Code: "USAX", Name: "x", Currency: "USD"},
		"code digits":    {Code: "U1", Name: "x", Currency: "USD"},
		"missing name":   {Code: "US", Currency: "USD"},
		"short currency": {Code: "US", Name: "x", Currency: "US"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewCatalogService(newStubCatalogRepo(), discardLogger)
			if _, err := svc.CreateDestination(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCatalogService_CreateDestination_Duplicate(t *testing.T) {
	svc := NewCatalogService(seededCatalog(), discardLogger)
	_, err := svc.CreateDestination(context.Background(), ports.CreateDestinationInput{Code: "us", Name: "Again", Currency: "USD"})
	if !errors.Is(err, domain.ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
}

func TestCatalogService_SetDestinationActive(t *testing.T) {
	repo := seededCatalog()
	svc := NewCatalogService(repo, discardLogger)

	if err := svc.SetDestinationActive(context.Background(), "fr", true); err != nil {
		t.Fatal(err)
	}
	if !repo.destinations["FR"].Active {
		t.Error("FR should be active")
	}
	if err := svc.SetDestinationActive(context.Background(), "ZZ", true); !errors.Is(err, domain.ErrInvalidDestination) {
		t.Errorf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestCatalogService_ListDestinations_ActiveOnly(t *testing.T) {
	svc := NewCatalogService(seededCatalog(), discardLogger)
	active, err := svc.ListDestinations(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Code != "US" {
		t.Errorf("expected only US, got %+v", active)
	}
}

// ---------------------------------------------------------------------------
// Tier tests
// ---------------------------------------------------------------------------

func TestCatalogService_AddTier_Success(t *testing.T) {
	repo := seededCatalog()
	svc := NewCatalogService(repo, discardLogger)

	tier, err := svc.AddTier(context.Background(), ports.AddTierInput{
		DestinationCode: "us", MinWeightKg: 30.01, MaxWeightKg: 70, PricePerKg: 6, BaseFee: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier.ID == "" || !tier.Active || tier.DestinationCode != "US" || tier.CreatedAt.IsZero() {
		t.Errorf("unexpected tier %+v", tier)
	}
	if len(repo.tiers) != 4 {
		t.Errorf("expected 4 tiers, got %d", len(repo.tiers))
	}
}

func TestCatalogService_AddTier_Overlap(t *testing.T) {
	svc := NewCatalogService(seededCatalog(), discardLogger)
	// Touching the inclusive upper bound of t-large counts as overlap.
	_, err := svc.AddTier(context.Background(), ports.AddTierInput{
		DestinationCode: "US", MinWeightKg: 30, MaxWeightKg: 50, PricePerKg: 6,
	})
	if !errors.Is(err, domain.ErrTierOverlap) {
		t.Fatalf("expected ErrTierOverlap, got %v", err)
	}
}

func TestCatalogService_AddTier_InactiveTierDoesNotBlock(t *testing.T) {
	repo := seededCatalog()
	svc := NewCatalogService(repo, discardLogger)

	if err := svc.DeactivateTier(context.Background(), "t-small"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddTier(context.Background(), ports.AddTierInput{
		DestinationCode: "US", MinWeightKg: 0, MaxWeightKg: 5, PricePerKg: 11, BaseFee: 2,
	}); err != nil {
		t.Fatalf("replacing a retired tier should succeed: %v", err)
	}
}

func TestCatalogService_AddTier_Invalid(t *testing.T) {
	cases := map[string]ports.AddTierInput{
		"max below min":  {DestinationCode: "US", MinWeightKg: 40, MaxWeightKg: 35},
		"negative price": {DestinationCode: "US", MinWeightKg: 40, MaxWeightKg: 50, PricePerKg: -1},
		"negative fee":   {DestinationCode: "US", MinWeightKg: 40, MaxWeightKg: 50, BaseFee: -1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewCatalogService(seededCatalog(), discardLogger)
			if _, err := svc.AddTier(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCatalogService_AddTier_UnknownDestination(t *testing.T) {
	svc := NewCatalogService(seededCatalog(), discardLogger)
	_, err := svc.AddTier(context.Background(), ports.AddTierInput{DestinationCode: "ZZ", MaxWeightKg: 1})
	if !errors.Is(err, domain.ErrInvalidDestination) {
		t.Fatalf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestCatalogService_DeactivateTier_NotFound(t *testing.T) {
	svc := NewCatalogService(seededCatalog(), discardLogger)
	if err := svc.DeactivateTier(context.Background(), "nope"); !errors.Is(err, domain.ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}
