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

import (
	"fmt"
	"os"
	"path/filepath"
)

// FSProvider is a Provider that walks a directory tree looking for Go
// plugin shared objects (.so files) and reports one Record per file found.
// group selects the root directory to walk; Recursive controls whether
// subdirectories are descended into.
//
// Opening the shared object is deferred to Record.Load, so a file that
// merely looks like a plugin but fails to open only fails its own Load,
// never the rest of the walk.
type FSProvider struct {
	Recursive bool

	// open is set by NewFSProvider through installOpener, whose variant is
	// chosen by the plugger_dynamic build tag: this keeps the plugin.Open
	// symbol out of statically linked binaries.
	open func(path string) (any, error)
}

// Dist is the distribution descriptor FSProvider attaches to each Record:
// the absolute path the shared object was loaded from.
type Dist struct {
	Path string
}

// Iter walks dir (the group argument) and returns one Record per ".so"
// file encountered.
func (p FSProvider) Iter(dir string) ([]Record, error) {
	if p.open == nil {
		return nil, fmt.Errorf("entrypoint: FSProvider has no plugin opener; construct it with NewFSProvider")
	}
	var records []Record
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		return p.walked(dir, &records, path, info, err)
	})
	if err != nil {
		return records, err
	}
	return records, nil
}

// walked is factored out of Iter so it can be exercised directly by tests
// without touching the real filesystem.
func (p FSProvider) walked(root string, records *[]Record, path string, info os.FileInfo, err error) error {
	if info == nil {
		return err
	}
	if info.IsDir() {
		if path != root && !p.Recursive {
			return filepath.SkipDir
		}
		return nil
	}
	if filepath.Ext(info.Name()) != ".so" {
		return nil
	}
	name := info.Name()
	loadPath := path
	*records = append(*records, Record{
		Name: name,
		Dist: Dist{Path: loadPath},
		Load: func() (any, error) {
			return p.open(loadPath)
		},
	})
	return nil
}

// NewFSProvider returns an FSProvider ready to load real ".so" files. Only
// a build with the plugger_dynamic build tag wires in the actual plugin.Open
// call (see opendynamic.go); without it, Iter still reports every ".so" file
// but each Record's Load fails. This keeps the plugin package's linker
// requirements out of statically linked consumers that never exercise
// dynamic loading.
func NewFSProvider(recursive bool) *FSProvider {
	p := &FSProvider{Recursive: recursive}
	installOpener(p)
	return p
}
