//go:build !plugger_dynamic

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

import "fmt"

// installOpener wires an opener that always fails. This is the default for
// statically linked binaries: it keeps the plugin package's linker
// requirements (and its refusal to work in non-cgo, non-ELF builds) out of
// consumers that never ask for dynamic loading.
func installOpener(p *FSProvider) {
	p.open = func(path string) (any, error) {
		return nil, fmt.Errorf("entrypoint: dynamic plugin loading disabled for %q; rebuild with -tags plugger_dynamic", path)
	}
}
