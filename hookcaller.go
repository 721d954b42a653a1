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
	"sync"

	"golang.org/x/exp/slices"
)

// HookCaller is the per-hook-name object holding the optional spec, the
// ordered implementations, and (for historic hooks) the replay history. It
// implements the multi-call dispatch protocol: collect every matching
// implementation's result, in order, honoring wrappers and historic replay.
type HookCaller struct {
	mu      sync.Mutex
	name    string
	spec    *SpecDecl
	impls   []ImplDecl
	history []historyEntry
	manager *PluginManager

	// parent/excluded are set only for subset views (SubsetHookCaller):
	// a subset view never owns impls directly, it filters parent's live
	// list on every call, so it stays in sync with later registrations
	// and unregistrations on the underlying registry.
	parent   *HookCaller
	excluded map[any]bool
}

// Name returns the hook name this caller dispatches.
func (hc *HookCaller) Name() string {
	return hc.name
}

// Spec returns the hook's specification, or nil if none has been added yet.
func (hc *HookCaller) Spec() *SpecDecl {
	return hc.spec
}

// computeInsertIndex returns where a new ImplDecl with the given opts
// belongs in impls, per the three-band ordering algorithm: trylast entries
// are prepended, tryfirst entries are appended, and plain entries are
// inserted immediately before the first tryfirst entry (i.e. at the end of
// the already-established trylast+normal run). Dispatch then walks impls
// from the tail backwards, so tryfirst executes first (most recently added
// first), then normal (most recently added first), then trylast (earliest
// added first, since each new trylast entry is prepended).
func computeInsertIndex(impls []ImplDecl, opts ImplOpts) int {
	switch {
	case opts.TryLast:
		return 0
	case opts.TryFirst:
		return len(impls)
	default:
		i := len(impls) - 1
		for i >= 0 && impls[i].Opts.TryFirst {
			i--
		}
		return i + 1
	}
}

// effectiveImpls returns the implementations this caller dispatches right
// now: the full ordered list for a plain caller, or the parent's current
// list minus the excluded plugins for a subset view.
func (hc *HookCaller) effectiveImpls() []ImplDecl {
	if hc.parent == nil {
		return hc.impls
	}
	all := hc.parent.effectiveImpls()
	out := make([]ImplDecl, 0, len(all))
	for _, d := range all {
		if !hc.excluded[d.Plugin] {
			out = append(out, d)
		}
	}
	return out
}

// addImpl inserts d into the ordered implementation list, validates it
// against the spec (if any is known), and — for historic hooks — replays
// the recorded call history to d immediately.
func (hc *HookCaller) addImpl(d ImplDecl) error {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if hc.spec != nil {
		if err := hc.validate(d); err != nil {
			return err
		}
	}
	idx := computeInsertIndex(hc.impls, d.Opts)
	hc.impls = slices.Insert(hc.impls, idx, d)
	if hc.spec != nil && hc.spec.Opts.Historic {
		hc.replay(d)
	}
	return nil
}

// removeImpls strips every ImplDecl belonging to plugin from this caller.
func (hc *HookCaller) removeImpls(plugin Plugin) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.impls = slices.DeleteFunc(hc.impls, func(d ImplDecl) bool {
		return d.Plugin == plugin
	})
}

// validate checks d against hc.spec.
func (hc *HookCaller) validate(d ImplDecl) error {
	spec := hc.spec
	for _, a := range d.Argnames {
		if !slices.Contains(spec.Argnames, a) {
			return &ValidationError{
				Kind:       SignatureMismatch,
				Plugin:     d.Plugin,
				PluginName: d.PluginName,
				HookName:   d.HookName,
			}
		}
	}
	if spec.Opts.Historic && d.Opts.HookWrapper {
		return &ValidationError{
			Kind:       HistoricWrapperForbidden,
			Plugin:     d.Plugin,
			PluginName: d.PluginName,
			HookName:   d.HookName,
		}
	}
	if spec.Opts.WarnOnImpl && hc.manager != nil {
		hc.manager.warner.Deprecated("hook " + d.HookName + ": implementing a warn_on_impl hook")
	}
	return nil
}

// replay invokes d, and only d, with every recorded historic call, in
// insertion order, exactly as they stood when this method was entered.
func (hc *HookCaller) replay(d ImplDecl) {
	entries := hc.history
	for _, he := range entries {
		res, err := hc.invokeOne(d, he.kwargs)
		if err != nil {
			continue
		}
		if res != nil && he.resultCallback != nil {
			he.resultCallback(res)
		}
	}
}

func (hc *HookCaller) invokeOne(d ImplDecl, kwargs Kwargs) (any, error) {
	if d.Wrapper != nil {
		return nil, nil
	}
	return d.Func(kwargs)
}

// checkArgs validates kwargs against impls' and the spec's argnames,
// reporting extra keys as warnings rather than errors.
func (hc *HookCaller) checkArgs(impls []ImplDecl, kwargs Kwargs) error {
	for _, d := range impls {
		for _, a := range d.Argnames {
			if _, ok := kwargs[a]; !ok {
				return &CallError{Kind: MissingArgument, HookName: hc.name, ArgName: a}
			}
		}
	}
	if hc.spec != nil && hc.manager != nil {
		for k := range kwargs {
			if !slices.Contains(hc.spec.Argnames, k) {
				hc.manager.warner.Warn("hook " + hc.name + ": extra argument " + k + " not declared by spec")
			}
		}
	}
	return nil
}

// dispatch runs impls (wrappers nested around leaves) against kwargs and
// returns the resulting Outcome.
func (hc *HookCaller) dispatch(impls []ImplDecl, kwargs Kwargs) *Outcome {
	var wrappers, leaves []ImplDecl
	for _, d := range impls {
		if d.Opts.HookWrapper {
			wrappers = append(wrappers, d)
		} else {
			leaves = append(leaves, d)
		}
	}
	firstResult := hc.spec != nil && hc.spec.Opts.FirstResult
	run := func() *Outcome {
		o := &Outcome{}
		for i := len(leaves) - 1; i >= 0; i-- {
			res, err := leaves[i].Func(kwargs)
			if err != nil {
				o.err = err
				return o
			}
			if res == nil {
				continue
			}
			o.results = append(o.results, res)
			if firstResult {
				return o
			}
		}
		return o
	}
	// Nest wrappers list-order first (innermost) to list-order last
	// (outermost): a wrapper appearing later in the list brackets every
	// wrapper before it.
	for _, w := range wrappers {
		inner := run
		wrapper := w.Wrapper
		run = func() *Outcome {
			return wrapper(kwargs, inner)
		}
	}
	return run()
}

// Call dispatches a normal hook call: every matching implementation runs
// once, in three-band order, and non-nil results are collected (or, for a
// firstresult hook, the first non-nil result is returned alone).
func (hc *HookCaller) Call(kwargs Kwargs) ([]any, error) {
	impls := hc.effectiveImpls()
	if err := hc.checkArgs(impls, kwargs); err != nil {
		return nil, err
	}
	if hc.manager != nil {
		hc.manager.reportBefore(hc.name, impls, kwargs)
	}
	outcome := hc.dispatch(impls, kwargs)
	if hc.manager != nil {
		hc.manager.reportAfter(outcome, hc.name, impls, kwargs)
	}
	return outcome.results, outcome.err
}

// ExtraFunc is a function dispatched alongside the regular implementations
// of a hook, for the duration of a single CallExtra invocation only.
type ExtraFunc = HookFunc

// CallExtra dispatches kwargs against the regular implementations plus one
// synthesized, normal-band implementation per function in fns. The
// underlying caller is not mutated.
func (hc *HookCaller) CallExtra(fns []ExtraFunc, kwargs Kwargs) ([]any, error) {
	impls := append([]ImplDecl(nil), hc.effectiveImpls()...)
	for _, fn := range fns {
		d := ImplDecl{HookName: hc.name, Func: fn}
		idx := computeInsertIndex(impls, d.Opts)
		impls = slices.Insert(impls, idx, d)
	}
	if err := hc.checkArgs(impls, kwargs); err != nil {
		return nil, err
	}
	if hc.manager != nil {
		hc.manager.reportBefore(hc.name, impls, kwargs)
	}
	outcome := hc.dispatch(impls, kwargs)
	if hc.manager != nil {
		hc.manager.reportAfter(outcome, hc.name, impls, kwargs)
	}
	return outcome.results, outcome.err
}

// CallHistoric requires a historic spec. It appends (kwargs, resultCallback)
// to the recorded history before dispatching, so implementations registered
// afterwards will have this call replayed to them (see addImpl/replay).
// resultCallback, if non-nil, is invoked once per non-nil leaf result.
func (hc *HookCaller) CallHistoric(kwargs Kwargs, resultCallback func(any)) error {
	if hc.spec == nil || !hc.spec.Opts.Historic {
		return &ValidationError{Kind: MissingSpec, HookName: hc.name}
	}
	hc.mu.Lock()
	hc.history = append(hc.history, historyEntry{kwargs: kwargs, resultCallback: resultCallback})
	hc.mu.Unlock()

	impls := hc.effectiveImpls()
	if err := hc.checkArgs(impls, kwargs); err != nil {
		return err
	}
	if hc.manager != nil {
		hc.manager.reportBefore(hc.name, impls, kwargs)
	}
	outcome := hc.dispatch(impls, kwargs)
	if hc.manager != nil {
		hc.manager.reportAfter(outcome, hc.name, impls, kwargs)
	}
	if outcome.err != nil {
		return outcome.err
	}
	if resultCallback != nil {
		for _, r := range outcome.results {
			resultCallback(r)
		}
	}
	return nil
}
