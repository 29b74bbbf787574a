package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry resolves tool_ref strings ("pack/tool@version") to a registered
// Interface. It is a map guarded by a mutex while open, and read-only once
// Freeze is called — the same shape as the teacher's graph.Engine.Add.
type Registry struct {
	mu     sync.RWMutex
	byRef  map[string]Interface
	frozen bool
}

// NewRegistry returns an empty, open Registry.
func NewRegistry() *Registry {
	return &Registry{byRef: make(map[string]Interface)}
}

// Register adds a tool under "packID/iface.ID@iface.Version". It returns an
// error if the registry is frozen or the ref is already registered.
func (r *Registry) Register(packID string, iface Interface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("tool: registry is frozen")
	}
	ref := iface.FullRef(packID)
	if _, exists := r.byRef[ref]; exists {
		return fmt.Errorf("tool: %s already registered", ref)
	}
	r.byRef[ref] = iface
	return nil
}

// Freeze makes the registry read-only. Subsequent Register calls fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Resolve looks up a tool_ref exactly, e.g. "core/http@1.0.0".
func (r *Registry) Resolve(ref string) (Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	iface, ok := r.byRef[ref]
	return iface, ok
}

// ResolveRange resolves "pack/tool@version" where version may be a bare
// major ("1") acting as a prefix match against all registered versions of
// pack/tool, returning the highest matching version. This backs the
// required_packs version-range matching described in spec.md §3.
func (r *Registry) ResolveRange(packID, toolID, versionRange string) (Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := packID + "/" + toolID + "@"
	var candidates []string
	for ref := range r.byRef {
		if strings.HasPrefix(ref, prefix) {
			version := strings.TrimPrefix(ref, prefix)
			if versionMatches(version, versionRange) {
				candidates = append(candidates, version)
			}
		}
	}
	if len(candidates) == 0 {
		return Interface{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := strings.Split(candidates[i], "."), strings.Split(candidates[j], ".")
		for k := 0; k < len(a) && k < len(b); k++ {
			if len(a[k]) != len(b[k]) {
				return len(a[k]) > len(b[k])
			}
			if a[k] != b[k] {
				return a[k] > b[k]
			}
		}
		return len(a) > len(b)
	})
	return r.byRef[prefix+candidates[0]], true
}

// versionMatches reports whether version satisfies rangeSpec, where
// rangeSpec is either an exact version or a bare major/minor prefix
// ("1", "1.2") matched against the leading dot-segments of version.
func versionMatches(version, rangeSpec string) bool {
	if version == rangeSpec {
		return true
	}
	return strings.HasPrefix(version, rangeSpec+".")
}

// ByCapability returns every registered Interface that carries the given
// capability tag, or a tag with the given prefix followed by a dot (e.g.
// capability "llm" matches tag "llm.chat").
func (r *Registry) ByCapability(tag string) []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Interface
	for _, iface := range r.byRef {
		for _, c := range iface.Capabilities {
			if c == tag || strings.HasPrefix(c, tag+".") {
				out = append(out, iface)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Refs returns every registered tool_ref, sorted.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.byRef))
	for ref := range r.byRef {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
