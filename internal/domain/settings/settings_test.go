package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/nholik/admin-state/internal/reducer"
)

type bogus struct{}

func (bogus) Kind() string { return "Bogus" }

func TestSetTheme(t *testing.T) {
	cases := []struct {
		input      Theme
		wantStatus reducer.Status
		wantTheme  Theme
	}{
		{"dark", reducer.StatusAccepted, ThemeDark},
		{" LIGHT ", reducer.StatusAccepted, ThemeLight},
		{"system", reducer.StatusUnchanged, ThemeSystem},
		{"", reducer.StatusRejected, ThemeSystem},
		{"neon", reducer.StatusRejected, ThemeSystem},
	}

	for _, tc := range cases {
		t.Run(string(tc.input), func(t *testing.T) {
			outcome, err := Reduce(context.Background(), Default(), SetTheme{Theme: tc.input})
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}
			if outcome.Status != tc.wantStatus || outcome.State.Theme != tc.wantTheme {
				t.Fatalf("got %s %s, want %s %s", outcome.Status, outcome.State.Theme, tc.wantStatus, tc.wantTheme)
			}
		})
	}
}

func TestSetLanguage(t *testing.T) {
	cases := []struct {
		input      string
		wantStatus reducer.Status
		wantLang   string
	}{
		{"pt-br", reducer.StatusAccepted, "pt-BR"},
		{"EN", reducer.StatusUnchanged, "en"},
		{"ja", reducer.StatusRejected, "en"},
		{"not a tag!!", reducer.StatusRejected, "en"},
		{"", reducer.StatusRejected, "en"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			outcome, err := Reduce(context.Background(), Default(), SetLanguage{Language: tc.input})
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}
			if outcome.Status != tc.wantStatus || outcome.State.Language != tc.wantLang {
				t.Fatalf("got %s %s, want %s %s", outcome.Status, outcome.State.Language, tc.wantStatus, tc.wantLang)
			}
			if outcome.Status == reducer.StatusRejected && outcome.Reason != reducer.ReasonInvalidRequest {
				t.Fatalf("expected InvalidRequest, got %s", outcome.Reason)
			}
		})
	}
}

func TestUpdatePreferences_TwoLevelMerge(t *testing.T) {
	current := Default()
	current.Preferences = map[string]string{"pageSize": "25", "density": "compact"}

	outcome, err := Reduce(context.Background(), current, UpdatePreferences{
		Preferences: map[string]string{"pageSize": "50", "density": "", "sidebar": "collapsed"},
	})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	if outcome.Status != reducer.StatusAccepted {
		t.Fatalf("expected accepted, got %s", outcome.Status)
	}
	want := map[string]string{"pageSize": "50", "sidebar": "collapsed"}
	if len(outcome.State.Preferences) != len(want) {
		t.Fatalf("unexpected preferences: %v", outcome.State.Preferences)
	}
	for key, value := range want {
		if outcome.State.Preferences[key] != value {
			t.Fatalf("preference %s = %q, want %q", key, outcome.State.Preferences[key], value)
		}
	}
	if current.Preferences["pageSize"] != "25" || current.Preferences["density"] != "compact" {
		t.Fatalf("expected current preferences not to be mutated, got %v", current.Preferences)
	}
	if outcome.State.Theme != current.Theme || outcome.State.Language != current.Language {
		t.Fatalf("expected top-level fields to survive")
	}
}

func TestUpdatePreferences_SameValuesUnchanged(t *testing.T) {
	current := Default()
	current.Preferences = map[string]string{"a": "1", "b": "2"}

	var success, failure int
	action := UpdatePreferences{
		Preferences: map[string]string{"b": "2", "a": "1"},
		Callbacks:   reducer.Callbacks{OnSuccess: func() { success++ }, OnError: func() { failure++ }},
	}
	outcome, err := Reduce(context.Background(), current, action)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	reducer.Notify(action, outcome)

	if outcome.Status != reducer.StatusUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome.Status)
	}
	if success != 0 || failure != 0 {
		t.Fatalf("expected no callbacks, got success=%d error=%d", success, failure)
	}
}

func TestUpdatePreferences_Rejections(t *testing.T) {
	for name, prefs := range map[string]map[string]string{
		"missing payload": nil,
		"blank key":       {" ": "x"},
	} {
		t.Run(name, func(t *testing.T) {
			outcome, err := Reduce(context.Background(), Default(), UpdatePreferences{Preferences: prefs})
			if err != nil {
				t.Fatalf("reduce: %v", err)
			}
			if outcome.Status != reducer.StatusRejected || outcome.Reason != reducer.ReasonInvalidRequest {
				t.Fatalf("expected InvalidRequest rejection, got %s %s", outcome.Status, outcome.Reason)
			}
		})
	}
}

func TestReduce_PointerAction(t *testing.T) {
	outcome, err := Reduce(context.Background(), Default(), &SetLanguage{Language: "fr"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if outcome.Status != reducer.StatusAccepted || outcome.State.Language != "fr" {
		t.Fatalf("expected pointer SetLanguage to be accepted, got %s %+v", outcome.Status, outcome.State)
	}
}

func TestReduce_UnknownKind(t *testing.T) {
	outcome, err := Reduce(context.Background(), Default(), bogus{})
	if !errors.Is(err, reducer.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if outcome.Status != "" {
		t.Fatalf("expected no outcome, got %+v", outcome)
	}
}

func TestSupportedReturnsCopy(t *testing.T) {
	tags := Supported()
	tags[0] = tags[1]
	if Supported()[0] == tags[1] {
		t.Fatalf("expected Supported to return a copy")
	}
}
