// Copyright 2019, 2022 Harald Albrecht.
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

// Plugin is an opaque, host-supplied reference to whatever value was
// registered. It must be comparable, as it is used as a map key throughout
// the registry.
type Plugin = any

// Kwargs carries the named arguments of a single hook call. Implementations
// and specs alike describe, by name, which of these keys they consume.
type Kwargs map[string]any

// HookFunc is a hook implementation's callable. It receives the call's full
// Kwargs (an implementation only ever reads the keys listed in its own
// Argnames) and returns a single result value, or an error that aborts the
// remaining leaf implementations for this dispatch.
type HookFunc func(args Kwargs) (any, error)

// WrapperFunc is a hookwrapper implementation. Everything before calling
// next runs before the leaf implementations; everything after runs after,
// with the Outcome of the inner leaves/wrappers available for inspection or
// replacement.
type WrapperFunc func(args Kwargs, next func() *Outcome) *Outcome

// ImplOpts are the recognized option flags of a hook implementation.
type ImplOpts struct {
	HookWrapper  bool // brackets execution of all other impls for this hook.
	TryFirst     bool // placed in the tryfirst band.
	TryLast      bool // placed in the trylast band.
	OptionalHook bool // register(spec) does not fail check_pending if unmatched.
}

// ImplDecl describes one hook implementation contributed by a plugin.
type ImplDecl struct {
	HookName   string
	Plugin     Plugin
	PluginName string
	Func       HookFunc
	Wrapper    WrapperFunc // set instead of Func when Opts.HookWrapper.
	Argnames   []string
	Opts       ImplOpts
}

// SpecOpts are the recognized option flags of a hook specification.
type SpecOpts struct {
	Historic    bool // calls are memoized and replayed to impls registered later.
	FirstResult bool // dispatch stops at, and returns, the first non-nil result.
	WarnOnImpl  bool // registering any impl for this hook emits a deprecation notice.
}

// SpecDecl describes the specification (extension point declaration) of one
// hook name.
type SpecDecl struct {
	HookName  string
	Argnames  []string
	Opts      SpecOpts
	Namespace any // the module/object owning the spec, for diagnostics.
}

// historyEntry is one recorded call_historic invocation, kept on a historic
// HookCaller so it can be replayed to implementations registered afterwards.
type historyEntry struct {
	kwargs         Kwargs
	resultCallback func(any)
}
