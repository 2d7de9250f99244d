// Package inventory is the read-only façade over the Site → Floor → Switch
// hierarchy. Writes (CRUD) happen through the same store but are exposed
// only to elevated roles at the router layer, not through this reader
// interface.
package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/switchdriver"
)

// Site is a unique, immutable-identity top-level grouping.
type Site struct {
	Name string
}

// Floor is unique within a Site.
type Floor struct {
	Site string
	Name string
}

// Switch is one managed Dell access switch.
type Switch struct {
	ID          string
	Site        string
	Floor       string
	DisplayName string
	Address     string
	Family      switchdriver.Family
	Enabled     bool
	Description string
}

// Reader is the read-only contract the engines depend on.
type Reader interface {
	Switches(ctx context.Context, site, floor string) ([]Switch, error)
	Switch(ctx context.Context, id string) (Switch, error)
	Sites(ctx context.Context) ([]Site, error)
	Floors(ctx context.Context, site string) ([]Floor, error)
}

// MemoryStore is an in-memory Reader (optionally seeded from YAML at
// startup) backing both the read path and the router's elevated-role CRUD
// operations.
type MemoryStore struct {
	mu       sync.RWMutex
	sites    map[string]Site
	floors   map[string]Floor // keyed by site+"/"+name
	switches map[string]Switch
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sites:    make(map[string]Site),
		floors:   make(map[string]Floor),
		switches: make(map[string]Switch),
	}
}

func floorKey(site, floor string) string { return site + "/" + floor }

// PutSite upserts a site (elevated-role CRUD path).
func (m *MemoryStore) PutSite(s Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[s.Name] = s
}

// PutFloor upserts a floor (elevated-role CRUD path).
func (m *MemoryStore) PutFloor(f Floor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.floors[floorKey(f.Site, f.Name)] = f
}

// PutSwitch upserts a switch (elevated-role CRUD path).
func (m *MemoryStore) PutSwitch(s Switch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switches[s.ID] = s
}

// DeleteSite cascades to its floors and switches.
func (m *MemoryStore) DeleteSite(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sites, name)
	for k, f := range m.floors {
		if f.Site == name {
			delete(m.floors, k)
		}
	}
	for k, sw := range m.switches {
		if sw.Site == name {
			delete(m.switches, k)
		}
	}
}

// DeleteFloor cascades to its switches.
func (m *MemoryStore) DeleteFloor(site, floor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.floors, floorKey(site, floor))
	for k, sw := range m.switches {
		if sw.Site == site && sw.Floor == floor {
			delete(m.switches, k)
		}
	}
}

// Switches returns enabled switches for (site, floor) in deterministic
// (display name, then id) order.
func (m *MemoryStore) Switches(_ context.Context, site, floor string) ([]Switch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Switch, 0)
	for _, sw := range m.switches {
		if sw.Site != site || sw.Floor != floor || !sw.Enabled {
			continue
		}
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Switch looks up a single switch by id regardless of its enabled flag, so
// callers can surface a clear "disabled" reason rather than "not found".
func (m *MemoryStore) Switch(_ context.Context, id string) (Switch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sw, ok := m.switches[id]
	if !ok {
		return Switch{}, apperr.New(apperr.SwitchUnknown, "no switch with id "+id)
	}
	return sw, nil
}

// Sites returns all sites in name order.
func (m *MemoryStore) Sites(_ context.Context) ([]Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Site, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Floors returns site's floors in name order.
func (m *MemoryStore) Floors(_ context.Context, site string) ([]Floor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Floor, 0)
	for _, f := range m.floors {
		if f.Site == site {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
