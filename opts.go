// Copyright 2022 Harald Albrecht.
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

import "github.com/hookline/hookline/entrypoint"

// ImplOption configures an ImplDecl built with Impl or WrapperImpl.
type ImplOption func(*ImplDecl)

// TryFirst places the implementation in the tryfirst band, so it runs
// before implementations in the normal and trylast bands.
func TryFirst() ImplOption {
	return func(d *ImplDecl) {
		d.Opts.TryFirst = true
	}
}

// TryLast places the implementation in the trylast band, so it runs after
// implementations in the normal and tryfirst bands.
func TryLast() ImplOption {
	return func(d *ImplDecl) {
		d.Opts.TryLast = true
	}
}

// OptionalHook marks the implementation as not requiring a matching spec;
// CheckPending will not fail for it when no spec is ever registered.
func OptionalHook() ImplOption {
	return func(d *ImplDecl) {
		d.Opts.OptionalHook = true
	}
}

// Impl builds an ImplDecl for a plain (non-wrapper) implementation of hook
// name, consuming the named args in argnames, in order.
func Impl(name string, fn HookFunc, argnames []string, opts ...ImplOption) ImplDecl {
	d := ImplDecl{
		HookName: name,
		Func:     fn,
		Argnames: argnames,
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// WrapperImpl builds a hookwrapper ImplDecl for hook name.
func WrapperImpl(name string, fn WrapperFunc, argnames []string, opts ...ImplOption) ImplDecl {
	d := ImplDecl{
		HookName: name,
		Wrapper:  fn,
		Argnames: argnames,
	}
	d.Opts.HookWrapper = true
	for _, o := range opts {
		o(&d)
	}
	return d
}

// SpecOption configures a SpecDecl built with Spec.
type SpecOption func(*SpecDecl)

// Historic marks the hook as historic: calls are memoized and replayed to
// implementations registered after the fact. Historic specs cannot accept
// hookwrapper implementations.
func Historic() SpecOption {
	return func(d *SpecDecl) {
		d.Opts.Historic = true
	}
}

// FirstResult marks the hook as firstresult: dispatch stops at, and returns,
// the first non-nil leaf result instead of collecting all of them.
func FirstResult() SpecOption {
	return func(d *SpecDecl) {
		d.Opts.FirstResult = true
	}
}

// WarnOnImpl marks the hook so that registering any implementation for it
// emits a deprecation notice through the manager's Warner.
func WarnOnImpl() SpecOption {
	return func(d *SpecDecl) {
		d.Opts.WarnOnImpl = true
	}
}

// Spec builds a SpecDecl for hook name, owned by namespace, consuming the
// named args in argnames.
func Spec(name string, argnames []string, namespace any, opts ...SpecOption) SpecDecl {
	d := SpecDecl{
		HookName:  name,
		Argnames:  argnames,
		Namespace: namespace,
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// ManagerOption configures a PluginManager built with NewPluginManager.
type ManagerOption func(*PluginManager)

// WithImplPrefix enables the deprecated prefix-discovery introspection mode:
// attributes of a registered plugin whose name starts with prefix are
// treated as implementations with empty Opts, unless the (authoritative)
// introspector already extracts at least one implementation from the plugin.
func WithImplPrefix(prefix string) ManagerOption {
	return func(pm *PluginManager) {
		pm.implPrefix = prefix
	}
}

// WithIntrospector overrides the default InterfaceIntrospector used to
// extract declarations from registered plugins and spec namespaces.
func WithIntrospector(in Introspector) ManagerOption {
	return func(pm *PluginManager) {
		pm.introspector = in
	}
}

// WithWarner overrides where deprecation notices and non-fatal dispatch
// warnings (extra-kwarg notices, deprecated-API usage) are sent.
func WithWarner(w Warner) ManagerOption {
	return func(pm *PluginManager) {
		pm.warner = w
	}
}

// WithEntrypointProvider configures the entrypoint.Provider LoadEntrypoints
// consults. Without one, LoadEntrypoints fails immediately.
func WithEntrypointProvider(p entrypoint.Provider) ManagerOption {
	return func(pm *PluginManager) {
		pm.loader = p
	}
}
