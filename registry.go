// Copyright 2024 The hookline Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hookline

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/hookline/hookline/entrypoint"
)

// blockedPlugin is the tombstone value name2plugin maps a blocked name to.
type blockedPlugin struct{}

// PluginManager is the central registry (C4): the plugin<->name mapping,
// the blocked-name set, the dict of HookCallers, pending-validation
// bookkeeping, the monitor chain, and the shared trace root. It is an
// ordinary value the host constructs and owns; there is no package-level
// global state.
//
// Registration is safe for concurrent use; dispatch itself is not —
// single-threaded cooperative dispatch is the host's responsibility to
// serialize.
type PluginManager struct {
	mu sync.RWMutex

	plugin2name map[any]string
	name2plugin map[string]any
	blocked     map[string]struct{}
	hooks       map[string]*HookCaller
	unverified  []ImplDecl
	distinfo    []distInfoEntry

	introspector Introspector
	warner       Warner
	implPrefix   string
	prefixWarned bool
	loader       entrypoint.Provider

	monitors []monitorPair
	trace    *traceRoot
}

type distInfoEntry struct {
	plugin Plugin
	dist   any
}

// NewPluginManager returns a ready-to-use, empty registry.
func NewPluginManager(opts ...ManagerOption) *PluginManager {
	pm := &PluginManager{
		plugin2name:  map[any]string{},
		name2plugin:  map[string]any{},
		blocked:      map[string]struct{}{},
		hooks:        map[string]*HookCaller{},
		introspector: InterfaceIntrospector{},
		warner:       DiscardWarner{},
		trace:        &traceRoot{},
	}
	for _, o := range opts {
		o(pm)
	}
	return pm
}

// getOrCreateHookCaller returns the HookCaller for name, creating it (with
// no spec yet) if this is the first time the registry has heard of it.
func (pm *PluginManager) getOrCreateHookCaller(name string) *HookCaller {
	hc, ok := pm.hooks[name]
	if !ok {
		hc = &HookCaller{name: name, manager: pm}
		pm.hooks[name] = hc
	}
	return hc
}

// Hook returns the HookCaller for name, creating it if necessary. Use its
// Call/CallExtra/CallHistoric methods to dispatch.
func (pm *PluginManager) Hook(name string) *HookCaller {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.getOrCreateHookCaller(name)
}

// Register assigns plugin a canonical name (name, if given and not blocked)
// and attaches every ImplDecl the introspector extracts from it to the
// matching HookCaller, validating each against its spec if one is already
// known. When the manager was built with WithImplPrefix and the interface-
// based introspection contributes nothing, it falls back to matching
// exported method names against that prefix (the deprecated discovery mode),
// firing a single Deprecated warning the first time this actually happens.
// It returns the canonical name, whether registration actually happened
// (false only when name is blocked), and an error for every other failure.
func (pm *PluginManager) Register(plugin Plugin, name string) (string, bool, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("%v", plugin)
	}
	if _, blocked := pm.blocked[name]; blocked {
		return "", false, nil
	}
	if _, ok := pm.plugin2name[plugin]; ok {
		return "", false, ErrDuplicateRegistration
	}
	if existing, ok := pm.name2plugin[name]; ok {
		if _, tomb := existing.(blockedPlugin); !tomb {
			return "", false, ErrDuplicateRegistration
		}
	}

	decls, err := pm.introspector.ExtractImpls(plugin)
	if err != nil {
		return "", false, err
	}
	if len(decls) == 0 && pm.implPrefix != "" {
		prefixDecls, err := (PrefixIntrospector{Prefix: pm.implPrefix}).ExtractImpls(plugin)
		if err != nil {
			return "", false, err
		}
		if len(prefixDecls) > 0 {
			decls = prefixDecls
			if !pm.prefixWarned {
				pm.warner.Deprecated("hookline: plugin discovered via deprecated prefix-matching introspection (WithImplPrefix); implement PluginImpls instead")
				pm.prefixWarned = true
			}
		}
	}
	for i := range decls {
		decls[i].Plugin = plugin
		decls[i].PluginName = name
		if decls[i].HookName == "" {
			continue
		}
	}

	for _, d := range decls {
		hc := pm.getOrCreateHookCaller(d.HookName)
		unverified := hc.spec == nil
		if err := hc.addImpl(d); err != nil {
			return "", false, err
		}
		if unverified {
			pm.unverified = append(pm.unverified, d)
		}
	}

	pm.plugin2name[plugin] = name
	pm.name2plugin[name] = plugin
	return name, true, nil
}

// Unregister removes plugin (looked up by handle if non-nil, else by name)
// and strips all of its ImplDecls from every HookCaller. Historic replay
// state is not rewound.
func (pm *PluginManager) Unregister(plugin Plugin, name string) (Plugin, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.unregisterLocked(plugin, name)
}

func (pm *PluginManager) unregisterLocked(plugin Plugin, name string) (Plugin, error) {
	if plugin == nil {
		p, ok := pm.name2plugin[name]
		if !ok {
			return nil, nil
		}
		if _, tomb := p.(blockedPlugin); tomb {
			return nil, nil
		}
		plugin = p
	} else {
		n, ok := pm.plugin2name[plugin]
		if !ok {
			return nil, nil
		}
		name = n
	}

	for _, hc := range pm.hooks {
		hc.removeImpls(plugin)
	}
	pm.unverified = slices.DeleteFunc(pm.unverified, func(d ImplDecl) bool {
		return d.Plugin == plugin
	})
	delete(pm.plugin2name, plugin)
	delete(pm.name2plugin, name)
	return plugin, nil
}

// SetBlocked adds name to the blocked set, first unregistering any current
// occupant. Future Register calls targeting name will return (_, false, nil).
func (pm *PluginManager) SetBlocked(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p, ok := pm.name2plugin[name]; ok {
		if _, tomb := p.(blockedPlugin); !tomb {
			_, _ = pm.unregisterLocked(p, "")
		}
	}
	pm.blocked[name] = struct{}{}
	pm.name2plugin[name] = blockedPlugin{}
}

// IsBlocked reports whether name is blocked.
func (pm *PluginManager) IsBlocked(name string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	_, ok := pm.blocked[name]
	return ok
}

// IsRegistered reports whether plugin is currently registered.
func (pm *PluginManager) IsRegistered(plugin Plugin) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	_, ok := pm.plugin2name[plugin]
	return ok
}

// HasPlugin reports whether name currently names a (non-blocked) plugin.
func (pm *PluginManager) HasPlugin(name string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.name2plugin[name]
	if !ok {
		return false
	}
	_, tomb := p.(blockedPlugin)
	return !tomb
}

// GetPlugin returns the plugin registered under name, or nil.
func (pm *PluginManager) GetPlugin(name string) Plugin {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.name2plugin[name]
	if !ok {
		return nil
	}
	if _, tomb := p.(blockedPlugin); tomb {
		return nil
	}
	return p
}

// GetPlugins returns every currently registered plugin.
func (pm *PluginManager) GetPlugins() []Plugin {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]Plugin, 0, len(pm.plugin2name))
	for p := range pm.plugin2name {
		out = append(out, p)
	}
	return out
}

// NamePlugin pairs a canonical name with its plugin, returned by
// ListNamePlugin.
type NamePlugin struct {
	Name   string
	Plugin Plugin
}

// ListNamePlugin returns every (name, plugin) pair currently registered.
func (pm *PluginManager) ListNamePlugin() []NamePlugin {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]NamePlugin, 0, len(pm.plugin2name))
	for p, n := range pm.plugin2name {
		out = append(out, NamePlugin{Name: n, Plugin: p})
	}
	return out
}

// AddHookSpecs registers every SpecDecl extracted from namespace: for each,
// it locates or creates the HookCaller, binds the spec, and re-validates
// every already-attached implementation, including those still queued in
// unverified.
func (pm *PluginManager) AddHookSpecs(namespace any) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	specs, err := pm.introspector.ExtractSpecs(namespace)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return ErrNoSpecs
	}

	for i := range specs {
		spec := specs[i]
		hc := pm.getOrCreateHookCaller(spec.HookName)
		hc.spec = &spec

		// Re-validate every already-attached impl now that a spec is
		// known: drop and re-insert through addImpl so validation (and,
		// for a historic spec, replay) runs.
		kept := hc.impls
		hc.impls = nil
		for _, d := range kept {
			if err := hc.addImpl(d); err != nil {
				return err
			}
		}

		// Any impl still queued as unverified for this same hook name was
		// already reprocessed above via kept/hc.impls (addImpl was called
		// for it at Register time too) — just drop it from the pending
		// set, don't attach it a second time.
		var remaining []ImplDecl
		for _, d := range pm.unverified {
			if d.HookName != spec.HookName {
				remaining = append(remaining, d)
			}
		}
		pm.unverified = remaining
	}
	return nil
}

// CheckPending fails if any still-unverified implementation is not
// optional, i.e. it was registered against a hook name that has never
// received a matching spec.
func (pm *PluginManager) CheckPending() error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	for _, d := range pm.unverified {
		if d.Opts.OptionalHook {
			continue
		}
		return &ValidationError{
			Kind:       MissingSpec,
			Plugin:     d.Plugin,
			PluginName: d.PluginName,
			HookName:   d.HookName,
		}
	}
	return nil
}

// GetHookCallers returns every HookCaller with at least one ImplDecl
// belonging to plugin.
func (pm *PluginManager) GetHookCallers(plugin Plugin) []*HookCaller {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	var out []*HookCaller
	for _, hc := range pm.hooks {
		for _, d := range hc.impls {
			if d.Plugin == plugin {
				out = append(out, hc)
				break
			}
		}
	}
	return out
}

// GetHookImpl returns the implementations registered for hookName, in
// dispatch order.
func (pm *PluginManager) GetHookImpl(hookName string) []ImplDecl {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	hc, ok := pm.hooks[hookName]
	if !ok {
		return nil
	}
	// Dispatch walks impls from the tail backwards, so report them reversed.
	var out []ImplDecl
	for i := len(hc.impls) - 1; i >= 0; i-- {
		out = append(out, hc.impls[i])
	}
	return out
}

// SubsetHookCaller returns a HookCaller view over hookName that behaves
// like the full caller but excludes any implementation whose plugin is in
// removePlugins. The view stays live with respect to later registrations
// and unregistrations on pm.
func (pm *PluginManager) SubsetHookCaller(hookName string, removePlugins []Plugin) *HookCaller {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	parent := pm.getOrCreateHookCaller(hookName)
	excluded := make(map[any]bool, len(removePlugins))
	for _, p := range removePlugins {
		excluded[p] = true
	}
	return &HookCaller{
		name:     parent.name,
		spec:     parent.spec,
		manager:  pm,
		parent:   parent,
		excluded: excluded,
	}
}

// LoadEntrypoints asks the configured entrypoint.Provider (see
// WithEntrypointProvider) for every candidate plugin in group, loads and
// registers each in turn, and returns how many were newly registered. A
// Load failure is wrapped as a ValidationError of Kind EntrypointLoadFailed
// and aborts the remaining candidates in group, matching Register's own
// fail-fast behavior.
func (pm *PluginManager) LoadEntrypoints(group string) (int, error) {
	pm.mu.RLock()
	loader := pm.loader
	pm.mu.RUnlock()
	if loader == nil {
		return 0, errors.New("hookline: no entrypoint provider configured (see WithEntrypointProvider)")
	}

	records, err := loader.Iter(group)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range records {
		plugin, err := r.Load()
		if err != nil {
			return count, &ValidationError{
				Kind:       EntrypointLoadFailed,
				PluginName: r.Name,
				Err:        err,
			}
		}
		_, ok, err := pm.Register(plugin, r.Name)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}
		pm.mu.Lock()
		pm.distinfo = append(pm.distinfo, distInfoEntry{plugin: plugin, dist: r.Dist})
		pm.mu.Unlock()
		count++
	}
	return count, nil
}

// ListPluginDistinfo returns the distribution descriptor recorded for every
// plugin that was registered through LoadEntrypoints.
func (pm *PluginManager) ListPluginDistinfo() []DistInfo {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]DistInfo, 0, len(pm.distinfo))
	for _, e := range pm.distinfo {
		out = append(out, DistInfo{Plugin: e.plugin, Dist: e.dist})
	}
	return out
}

// DistInfo pairs a registered plugin with the distribution descriptor its
// entrypoint.Record reported, as returned by ListPluginDistinfo.
type DistInfo struct {
	Plugin Plugin
	Dist   any
}
