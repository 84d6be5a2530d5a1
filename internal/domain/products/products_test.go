package products

import (
	"context"
	"errors"
	"testing"

	"github.com/nholik/admin-state/internal/domain/packages"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/storage"
	"github.com/rs/zerolog"
)

type bogus struct{}

type brokenMedium struct{}

func (brokenMedium) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("medium offline")
}
func (brokenMedium) Set(context.Context, string, string) error { return nil }
func (brokenMedium) Close() error { return nil }

func (bogus) Kind() string { return "Bogus" }

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string { return &v }

func newReducer(t *testing.T) *Reducer {
	t.Helper()
	medium := storage.NewMemoryMedium()
	persisted := packages.State{{ID: "core", Name: "Core", Version: "1.0.0"}, {ID: "extras", Name: "Extras", Version: "1.0.0"}}
	if err := storage.Save(context.Background(), medium, storage.NewKey("admin", packages.Domain), persisted); err != nil {
		t.Fatalf("seed packages: %v", err)
	}
	return NewReducer(medium, "admin", zerolog.Nop())
}

func seed() State {
	return State{{ID: "p1", Name: "Widget", SKU: "WID-1", Price: 9.5, PackageID: "core"}}
}

func TestAddProduct_RequiresPersistedPackage(t *testing.T) {
	r := newReducer(t)

	outcome, err := r.Reduce(context.Background(), seed(), AddProduct{
		Product: &Product{ID: "p2", Name: "Gadget", SKU: "GAD-2", Price: 12, PackageID: "core"},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || len(outcome.State) != 2 || outcome.State[1].ID != "p2" {
		t.Fatalf("unexpected outcome: %s %s %+v", outcome.Status, outcome.Reason, outcome.State)
	}

	outcome, err = r.Reduce(context.Background(), seed(), AddProduct{
		Product: &Product{ID: "p3", Name: "Orphan", SKU: "ORP-3", Price: 1, PackageID: "ghost"},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusRejected || outcome.Reason != reducer.ReasonNotFound {
		t.Fatalf("expected NotFound rejection, got %s %s", outcome.Status, outcome.Reason)
	}
}

func TestPackageLookupFailureIsUnavailable(t *testing.T) {
	r := NewReducer(brokenMedium{}, "admin", zerolog.Nop())

	outcome, err := r.Reduce(context.Background(), seed(), AddProduct{
		Product: &Product{ID: "p2", Name: "Gadget", SKU: "GAD-2", Price: 12, PackageID: "core"},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusRejected || outcome.Reason != reducer.ReasonUnavailable {
		t.Fatalf("expected Unavailable rejection for add, got %s %s", outcome.Status, outcome.Reason)
	}

	outcome, err = r.Reduce(context.Background(), seed(), UpdateProduct{
		ID:    "p1",
		Patch: &Patch{PackageID: strPtr("extras")},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusRejected || outcome.Reason != reducer.ReasonUnavailable {
		t.Fatalf("expected Unavailable rejection for update, got %s %s", outcome.Status, outcome.Reason)
	}
	if len(outcome.State) != 1 || outcome.State[0].PackageID != "core" {
		t.Fatalf("expected state untouched, got %+v", outcome.State)
	}
}

func TestAddProduct_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		product *Product
		want    reducer.Reason
	}{
		{"missing payload", nil, reducer.ReasonInvalidRequest},
		{"negative price", &Product{ID: "p2", Name: "G", SKU: "GAD-2", Price: -3, PackageID: "core"}, reducer.ReasonValidationFailed},
		{"lowercase sku", &Product{ID: "p2", Name: "G", SKU: "gad", Price: 3, PackageID: "core"}, reducer.ReasonValidationFailed},
		{"duplicate", &Product{ID: "p1", Name: "G", SKU: "GAD-2", Price: 3, PackageID: "core"}, reducer.ReasonAlreadyExists},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newReducer(t)
			current := seed()

			outcome, err := r.Reduce(context.Background(), current, AddProduct{Product: tc.product})
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}
			if outcome.Status != reducer.StatusRejected || outcome.Reason != tc.want {
				t.Fatalf("expected rejected %s, got %s %s", tc.want, outcome.Status, outcome.Reason)
			}
			if &outcome.State[0] != &current[0] {
				t.Fatalf("expected the current state to be returned")
			}
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	r := newReducer(t)

	outcome, err := r.Reduce(context.Background(), seed(), UpdateProduct{ID: "p1", Patch: &Patch{Price: floatPtr(11)}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || outcome.State[0].Price != 11 || outcome.State[0].SKU != "WID-1" {
		t.Fatalf("unexpected outcome: %s %+v", outcome.Status, outcome.State)
	}

	outcome, err = r.Reduce(context.Background(), seed(), UpdateProduct{ID: "p1", Patch: &Patch{PackageID: strPtr("extras")}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || outcome.State[0].PackageID != "extras" {
		t.Fatalf("expected move to extras, got %s %+v", outcome.Status, outcome.State)
	}

	outcome, err = r.Reduce(context.Background(), seed(), UpdateProduct{ID: "p1", Patch: &Patch{PackageID: strPtr("ghost")}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Reason != reducer.ReasonNotFound {
		t.Fatalf("expected NotFound for unknown package, got %s", outcome.Reason)
	}
}

func TestUpdateProduct_IntegralPriceUnchanged(t *testing.T) {
	r := newReducer(t)
	current := State{{ID: "p1", Name: "Widget", SKU: "WID-1", Price: 10, PackageID: "core"}}

	outcome, err := r.Reduce(context.Background(), current, UpdateProduct{ID: "p1", Patch: &Patch{Price: floatPtr(10.0)}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome.Status)
	}
}

func TestRemoveProduct(t *testing.T) {
	r := newReducer(t)

	outcome, err := r.Reduce(context.Background(), seed(), RemoveProduct{ID: "p1"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || len(outcome.State) != 0 {
		t.Fatalf("unexpected outcome: %s %+v", outcome.Status, outcome.State)
	}

	outcome, err = r.Reduce(context.Background(), seed(), RemoveProduct{})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Reason != reducer.ReasonInvalidRequest {
		t.Fatalf("expected InvalidRequest, got %s", outcome.Reason)
	}
}

func TestReduce_UnknownKind(t *testing.T) {
	_, err := newReducer(t).Reduce(context.Background(), seed(), bogus{})
	if !errors.Is(err, reducer.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
