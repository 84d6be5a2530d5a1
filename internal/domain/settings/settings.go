// Package settings holds user interface preferences: theme, language and free-form
// preference keys.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/nholik/admin-state/internal/reducer"
	"golang.org/x/text/language"
)

// Domain is the name of this domain and of its storage slot.
const Domain = "settings"

// Theme names a color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var supportedTags = []language.Tag{
	language.English,
	language.MustParse("pt-BR"),
	language.Spanish,
	language.French,
	language.German,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Supported returns the languages settings accepts.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// State is the settings domain state.
type State struct {
	Theme       Theme             `json:"theme"`
	Language    string            `json:"language"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// Default returns the settings used before anything is persisted.
func Default() State {
	return State{Theme: ThemeSystem, Language: language.English.String()}
}

// SetTheme switches the color scheme.
type SetTheme struct {
	reducer.Callbacks
	Theme Theme
}

func (SetTheme) Kind() string { return "SetTheme" }

// SetLanguage switches the interface language to a BCP 47 tag.
type SetLanguage struct {
	reducer.Callbacks
	Language string
}

func (SetLanguage) Kind() string { return "SetLanguage" }

// UpdatePreferences merges keys into Preferences. Empty values delete keys.
type UpdatePreferences struct {
	reducer.Callbacks
	Preferences map[string]string
}

func (UpdatePreferences) Kind() string { return "UpdatePreferences" }

// Reduce implements reducer.Func for State.
func Reduce(_ context.Context, current State, action reducer.Action) (reducer.Outcome[State], error) {
	switch a := reducer.Deref(action).(type) {
	case SetTheme:
		return setTheme(current, a)
	case SetLanguage:
		return setLanguage(current, a)
	case UpdatePreferences:
		return updatePreferences(current, a)
	default:
		return reducer.Outcome[State]{}, reducer.Unknown(Domain, action)
	}
}

func setTheme(current State, a SetTheme) (reducer.Outcome[State], error) {
	theme := Theme(strings.ToLower(strings.TrimSpace(string(a.Theme))))
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	case "":
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "theme is required"), nil
	default:
		return reducer.Reject(current, reducer.ReasonInvalidRequest, fmt.Sprintf("unsupported theme %q", a.Theme)), nil
	}

	next := current
	next.Theme = theme
	return reducer.Accept(current, next)
}

func setLanguage(current State, a SetLanguage) (reducer.Outcome[State], error) {
	value := strings.TrimSpace(a.Language)
	if value == "" {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "language is required"), nil
	}
	tag, err := language.Parse(value)
	if err != nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, fmt.Sprintf("invalid language %q", value)), nil
	}
	_, index, confidence := tagMatcher.Match(tag)
	if confidence < language.High {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, fmt.Sprintf("unsupported language %q", value)), nil
	}

	next := current
	next.Language = supportedTags[index].String()
	return reducer.Accept(current, next)
}

func updatePreferences(current State, a UpdatePreferences) (reducer.Outcome[State], error) {
	if a.Preferences == nil {
		return reducer.Reject(current, reducer.ReasonInvalidRequest, "preferences are required"), nil
	}

	next := current
	next.Preferences = make(map[string]string, len(current.Preferences)+len(a.Preferences))
	for key, value := range current.Preferences {
		next.Preferences[key] = value
	}
	for key, value := range a.Preferences {
		key = strings.TrimSpace(key)
		if key == "" {
			return reducer.Reject(current, reducer.ReasonInvalidRequest, "preference keys must not be empty"), nil
		}
		if value == "" {
			delete(next.Preferences, key)
			continue
		}
		next.Preferences[key] = value
	}
	if len(next.Preferences) == 0 {
		next.Preferences = nil
	}
	return reducer.Accept(current, next)
}
