package packages

import (
	"context"
	"errors"
	"testing"

	"github.com/nholik/admin-state/internal/reducer"
)

type bogus struct{}

func (bogus) Kind() string { return "Bogus" }

func strPtr(v string) *string { return &v }

func seed() State {
	return State{
		{ID: "core", Name: "Core", Version: "1.0.0"},
		{ID: "extras", Name: "Extras", Version: "0.3.1", Tags: []string{"addon"}},
	}
}

func TestAddPackage_AppendsInOrder(t *testing.T) {
	r := NewReducer()

	outcome, err := r.Reduce(context.Background(), seed(), AddPackage{
		Package: &Package{ID: "reports", Name: "Reports", Version: "2.1.0"},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	if outcome.Status != reducer.StatusAccepted {
		t.Fatalf("expected accepted, got %s %s %+v", outcome.Status, outcome.Reason, outcome.Fields)
	}
	ids := []string{}
	for _, pkg := range outcome.State {
		ids = append(ids, pkg.ID)
	}
	if len(ids) != 3 || ids[0] != "core" || ids[1] != "extras" || ids[2] != "reports" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestAddPackage_Rejections(t *testing.T) {
	cases := []struct {
		name       string
		pkg        *Package
		wantReason reducer.Reason
	}{
		{name: "missing payload", pkg: nil, wantReason: reducer.ReasonInvalidRequest},
		{name: "bad version", pkg: &Package{ID: "x", Name: "X", Version: "latest"}, wantReason: reducer.ReasonValidationFailed},
		{name: "missing name", pkg: &Package{ID: "x", Version: "1.0.0"}, wantReason: reducer.ReasonValidationFailed},
		{name: "duplicate id", pkg: &Package{ID: "core", Name: "Core", Version: "1.0.1"}, wantReason: reducer.ReasonAlreadyExists},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReducer()
			current := seed()

			outcome, err := r.Reduce(context.Background(), current, AddPackage{Package: tc.pkg})
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}

			if outcome.Status != reducer.StatusRejected || outcome.Reason != tc.wantReason {
				t.Fatalf("expected rejected %s, got %s %s", tc.wantReason, outcome.Status, outcome.Reason)
			}
			if &outcome.State[0] != &current[0] {
				t.Fatalf("expected the current state to be returned")
			}
		})
	}
}

func TestAddPackage_ValidationFieldsReported(t *testing.T) {
	r := NewReducer()

	outcome, err := r.Reduce(context.Background(), nil, AddPackage{Package: &Package{ID: "x", Name: "X", Version: "v1"}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	if len(outcome.Fields) != 1 || outcome.Fields[0].Field != "/version" {
		t.Fatalf("expected a /version field error, got %+v", outcome.Fields)
	}
}

func TestUpdatePackage_MergesFields(t *testing.T) {
	r := NewReducer()

	outcome, err := r.Reduce(context.Background(), seed(), UpdatePackage{
		ID:    "extras",
		Patch: &Patch{Version: strPtr("0.4.0")},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	if outcome.Status != reducer.StatusAccepted {
		t.Fatalf("expected accepted, got %s", outcome.Status)
	}
	pkg, ok := outcome.State.Find("extras")
	if !ok {
		t.Fatalf("expected extras to remain")
	}
	if pkg.Version != "0.4.0" || pkg.Name != "Extras" || len(pkg.Tags) != 1 {
		t.Fatalf("expected field-level merge, got %+v", pkg)
	}
}

func TestUpdatePackage_SameValuesUnchanged(t *testing.T) {
	r := NewReducer()
	current := seed()

	outcome, err := r.Reduce(context.Background(), current, UpdatePackage{
		ID:    "core",
		Patch: &Patch{Name: strPtr("Core")},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	if outcome.Status != reducer.StatusUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome.Status)
	}
	if &outcome.State[0] != &current[0] {
		t.Fatalf("expected the current state to be returned")
	}
}

func TestUpdatePackage_Rejections(t *testing.T) {
	r := NewReducer()

	cases := []struct {
		name   string
		action UpdatePackage
		want   reducer.Reason
	}{
		{"missing id", UpdatePackage{Patch: &Patch{}}, reducer.ReasonInvalidRequest},
		{"missing patch", UpdatePackage{ID: "core"}, reducer.ReasonInvalidRequest},
		{"unknown id", UpdatePackage{ID: "nope", Patch: &Patch{}}, reducer.ReasonNotFound},
		{"invalid version", UpdatePackage{ID: "core", Patch: &Patch{Version: strPtr("x")}}, reducer.ReasonValidationFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := r.Reduce(context.Background(), seed(), tc.action)
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}
			if outcome.Status != reducer.StatusRejected || outcome.Reason != tc.want {
				t.Fatalf("expected rejected %s, got %s %s", tc.want, outcome.Status, outcome.Reason)
			}
		})
	}
}

func TestRemovePackage(t *testing.T) {
	r := NewReducer()

	outcome, err := r.Reduce(context.Background(), seed(), RemovePackage{ID: "core"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || len(outcome.State) != 1 || outcome.State[0].ID != "extras" {
		t.Fatalf("unexpected outcome: %s %+v", outcome.Status, outcome.State)
	}

	outcome, err = r.Reduce(context.Background(), seed(), RemovePackage{ID: "nope"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Reason != reducer.ReasonNotFound {
		t.Fatalf("expected NotFound, got %s", outcome.Reason)
	}
}

func TestRemovePackage_PointerAction(t *testing.T) {
	outcome, err := NewReducer().Reduce(context.Background(), seed(), &RemovePackage{ID: "core"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || len(outcome.State) != 1 {
		t.Fatalf("expected pointer RemovePackage to be accepted, got %s %+v", outcome.Status, outcome.State)
	}
}

func TestReorderedListIsAChange(t *testing.T) {
	current := seed()
	reordered := State{current[1], current[0]}

	outcome, err := reducer.Accept(current, reordered)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted {
		t.Fatalf("expected reordered packages to count as a change, got %s", outcome.Status)
	}
}

func TestReduce_UnknownKind(t *testing.T) {
	_, err := NewReducer().Reduce(context.Background(), seed(), bogus{})
	if !errors.Is(err, reducer.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
