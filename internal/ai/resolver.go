package ai

import (
	"context"
	"log"
	"sync"
)

// PreferredModels is the candidate order for generation, most capable
// first. The same list drives the generator's fallback loop.
var PreferredModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
}

// LastResortModel is used when the catalog itself cannot be fetched.
const LastResortModel = "gemini-2.0-flash"

// CatalogFunc lists the generation-capable model ids for the configured
// credential.
type CatalogFunc func(ctx context.Context) ([]string, error)

// Resolver picks the generation model to use and caches the pick for
// the process lifetime. Resolve never fails: a broken catalog degrades
// to LastResortModel rather than an error.
type Resolver struct {
	catalog    CatalogFunc
	prefs      []string
	lastResort string

	mu       sync.Mutex
	resolved string
}

// NewResolver builds a resolver over a catalog source with the default
// preference policy.
func NewResolver(catalog CatalogFunc) *Resolver {
	return &Resolver{
		catalog:    catalog,
		prefs:      PreferredModels,
		lastResort: LastResortModel,
	}
}

// Resolve returns the model id to generate with. The catalog is fetched
// once; the result (including the degraded one) is cached. There is no
// retry here: downstream fallback lives in the generator's candidate
// loop.
func (r *Resolver) Resolve(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != "" {
		return r.resolved
	}

	available, err := r.catalog(ctx)
	if err != nil || len(available) == 0 {
		log.Printf("⚠️ Model catalog unavailable (%v), using last resort %s", err, r.lastResort)
		r.resolved = r.lastResort
		return r.resolved
	}

	catalog := make(map[string]bool, len(available))
	for _, name := range available {
		catalog[name] = true
	}

	for _, pref := range r.prefs {
		if catalog[pref] {
			r.resolved = pref
			log.Printf("✅ Resolved generation model: %s", pref)
			return r.resolved
		}
	}

	// Nothing from the preference list; any generation-capable model
	// beats the hard-coded fallback.
	r.resolved = available[0]
	log.Printf("⚠️ No preferred model in catalog, using %s", r.resolved)
	return r.resolved
}
