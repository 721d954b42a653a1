//go:build plugger_dynamic

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

package entrypoint

import "plugin"

// PluginSymbol is the exported symbol name FSProvider looks up in every
// ".so" it opens. It must be a package-level variable of a type satisfying
// hookline's PluginImpls interface (or any type, if the caller only wants
// the raw plugin value introspected some other way).
const PluginSymbol = "Plugin"

// installOpener wires the real dynamic loader only when this binary was
// built with -tags plugger_dynamic: the plugin package refuses to link into
// binaries that were themselves built as plugins or without cgo, so keeping
// this behind a build tag prevents it from poisoning static consumers of
// this package.
func installOpener(p *FSProvider) {
	p.open = func(path string) (any, error) {
		plug, err := plugin.Open(path)
		if err != nil {
			return nil, err
		}
		sym, err := plug.Lookup(PluginSymbol)
		if err != nil {
			return nil, err
		}
		if v, ok := sym.(*any); ok {
			return *v, nil
		}
		return sym, nil
	}
}
