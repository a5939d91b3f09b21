package console

import (
	"context"
	"errors"

	"devconsole/pkg/client"
	"devconsole/pkg/log"
	"devconsole/pkg/resource"
)

// Resources holds one model per console resource.
type Resources struct {
	System  *resource.Model
	Memory  *resource.Model
	Flash   *resource.Model
	Network *resource.Model
	AP      *resource.Model
	Todos   *resource.Collection
}

// NewResources binds every resource to t.
func NewResources(t resource.Transport) *Resources {
	return &Resources{
		System:  NewSystemModel(t),
		Memory:  NewMemoryModel(t),
		Flash:   NewFlashModel(t),
		Network: NewNetworkModel(t),
		AP:      NewAPConfigModel(t),
		Todos:   NewTodoList(t),
	}
}

type fetcher interface {
	Fetch(ctx context.Context) error
}

func (r *Resources) byPath() map[string]fetcher {
	return map[string]fetcher{
		SystemPath:   r.System,
		MemoryPath:   r.Memory,
		FlashPath:    r.Flash,
		NetworkPath:  r.Network,
		APConfigPath: r.AP,
		TodosPath:    r.Todos,
	}
}

// FetchAll loads every resource. Failures are logged and joined; resources
// that loaded keep their data. Resources the server does not serve (404)
// stay unloaded without failing the call.
func (r *Resources) FetchAll(ctx context.Context) error {
	var errs []error
	for path, source := range r.byPath() {
		if err := source.Fetch(ctx); err != nil {
			if client.IsNotFound(err) {
				log.Info().Str("resource", path).Msg("Resource not served")
				continue
			}
			log.Warn().Err(err).Str("resource", path).Msg("Fetch failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Refresh refetches the resource served at path. Unknown paths are ignored.
func (r *Resources) Refresh(ctx context.Context, path string) error {
	source, ok := r.byPath()[path]
	if !ok {
		log.Debug().Str("resource", path).Msg("Ignoring change of unbound resource")
		return nil
	}
	if err := source.Fetch(ctx); err != nil {
		log.Warn().Err(err).Str("resource", path).Msg("Refresh failed")
		return err
	}
	return nil
}
