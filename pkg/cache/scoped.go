package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. Registries sharing one
// Redis database use it to keep their entries apart:
//
//	keys := cache.NewScopedKeyer(nil, "registry.example.com:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) ResolutionKey(registry, name, rng string) string {
	return k.prefix + k.inner.ResolutionKey(registry, name, rng)
}
