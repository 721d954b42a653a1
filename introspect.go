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
	"reflect"
	"strings"
)

// Introspector is the host-supplied contract that turns a
// registered plugin value into the ImplDecls it contributes, and a spec
// namespace value into the SpecDecls it declares. Two calls on the same
// plugin must return equal declarations (idempotency).
type Introspector interface {
	ExtractImpls(plugin Plugin) ([]ImplDecl, error)
	ExtractSpecs(namespace any) ([]SpecDecl, error)
}

// PluginImpls is satisfied by a plugin value that declares its own hook
// implementations. This is the authoritative, non-deprecated discovery
// path: the plugin is its own adapter, so dynamic/synthesized attributes on
// unrelated plugin types can never be mistaken for implementations.
type PluginImpls interface {
	PluginImpls() []ImplDecl
}

// HookSpecs is satisfied by a spec namespace value that declares the hooks
// it specifies.
type HookSpecs interface {
	HookSpecs() []SpecDecl
}

// InterfaceIntrospector is the default Introspector. It requires plugins
// and spec namespaces to implement PluginImpls / HookSpecs respectively.
type InterfaceIntrospector struct{}

func (InterfaceIntrospector) ExtractImpls(plugin Plugin) ([]ImplDecl, error) {
	if p, ok := plugin.(PluginImpls); ok {
		return p.PluginImpls(), nil
	}
	return nil, nil
}

func (InterfaceIntrospector) ExtractSpecs(namespace any) ([]SpecDecl, error) {
	s, ok := namespace.(HookSpecs)
	if !ok {
		return nil, nil
	}
	specs := s.HookSpecs()
	if len(specs) == 0 {
		return nil, ErrNoSpecs
	}
	return specs, nil
}

// PrefixIntrospector is a deprecated legacy discovery mode: every exported
// method of plugin whose name starts with Prefix is treated as an
// implementation with empty Opts. Attributes whose Kind is Struct — the
// analogue of a "module-typed" attribute — are skipped regardless of name,
// even if they happen to start with Prefix.
type PrefixIntrospector struct {
	Prefix string
}

func (p PrefixIntrospector) ExtractImpls(plugin Plugin) ([]ImplDecl, error) {
	v := reflect.ValueOf(plugin)
	t := v.Type()
	var decls []ImplDecl
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.HasPrefix(m.Name, p.Prefix) {
			continue
		}
		mv := v.Method(i)
		if mv.Kind() == reflect.Struct {
			continue
		}
		if mv.Kind() != reflect.Func {
			continue
		}
		decls = append(decls, ImplDecl{
			HookName: m.Name,
			Func: func(mv reflect.Value) HookFunc {
				return func(args Kwargs) (any, error) {
					return callViaReflect(mv, args)
				}
			}(mv),
		})
	}
	return decls, nil
}

func (p PrefixIntrospector) ExtractSpecs(namespace any) ([]SpecDecl, error) {
	return InterfaceIntrospector{}.ExtractSpecs(namespace)
}

// callViaReflect invokes a zero-argument method discovered via prefix
// matching: these implementations carry no declared argnames, so they are
// called with no arguments; any return value is passed through as the
// result.
func callViaReflect(mv reflect.Value, _ Kwargs) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = &CallError{Kind: MissingArgument, ArgName: "(reflect panic)"}
			}
		}
	}()
	out := mv.Call(nil)
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}
