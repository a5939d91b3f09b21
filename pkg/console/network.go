package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"devconsole/pkg/models"
	"devconsole/pkg/resource"
)

// ErrInvalidForm is returned when the access point form cannot be saved.
var ErrInvalidForm = errors.New("invalid access point form")

// APForm is the user input of the access point edit form.
type APForm struct {
	ESSID    string
	Channel  int
	Hidden   bool
	AuthMode string
}

// FormFromModel fills a form with the model's current values.
func FormFromModel(m *resource.Model) APForm {
	raw := m.Raw()
	form := APForm{
		Channel:  int(Number(raw["channel"])),
		AuthMode: models.AuthOpen,
	}
	if s, ok := raw["essid"].(string); ok {
		form.ESSID = s
	}
	if b, ok := raw["hidden"].(bool); ok {
		form.Hidden = b
	}
	if s, ok := raw["authmode"].(string); ok && s != "" {
		form.AuthMode = s
	}
	return form
}

// Validate checks the form before it is sent.
func (f APForm) Validate() error {
	if strings.TrimSpace(f.ESSID) == "" {
		return fmt.Errorf("%w: essid is required", ErrInvalidForm)
	}
	if f.Channel < 1 || f.Channel > 14 {
		return fmt.Errorf("%w: channel must be between 1 and 14", ErrInvalidForm)
	}
	if !slices.Contains(models.AuthModes, f.AuthMode) {
		return fmt.Errorf("%w: unknown authmode %q", ErrInvalidForm, f.AuthMode)
	}
	return nil
}

// NextAuthMode returns the mode after current in the form's cycle order.
func NextAuthMode(current string) string {
	i := slices.Index(models.AuthModes, current)
	return models.AuthModes[(i+1)%len(models.AuthModes)]
}

// SaveAPConfig applies form to a clone of m, saves the clone and refetches m,
// so the displayed model only changes to what the server stored.
func SaveAPConfig(ctx context.Context, m *resource.Model, form APForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	draft := m.Clone()
	draft.SetAll(resource.Attributes{
		"essid":    strings.TrimSpace(form.ESSID),
		"channel":  form.Channel,
		"hidden":   form.Hidden,
		"authmode": form.AuthMode,
	})
	if err := draft.Save(ctx); err != nil {
		return err
	}
	return m.Fetch(ctx)
}
