package platforms

import "fmt"

// Registry maps platform ids to their adapters so the dispatcher never
// branches on provider names; adding a provider means registering one
// adapter here.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// DefaultRegistry wires every supported provider.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewTwitterAdapter(),
		NewInstagramAdapter(),
		NewThreadsAdapter(),
		NewYoutubeAdapter(),
	)
}

func (r *Registry) Get(platform string) (Adapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %s", platform)
	}
	return adapter, nil
}

func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Platform()] = adapter
}
