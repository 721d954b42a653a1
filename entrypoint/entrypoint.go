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

// Package entrypoint adapts externally discovered plugins into hookline's
// Register path: it iterates candidate plugins from an injected Provider
// and hands them to the registry, translating load failures into the
// core's error taxonomy. Discovering candidates (scanning a package index,
// walking a filesystem) is left to concrete Provider implementations; only
// the provider contract and a filesystem reference Provider live here.
package entrypoint

// Record describes one candidate plugin as reported by a Provider: a name,
// an opaque distribution descriptor, and a Load function that either
// returns the plugin object or fails (e.g. a version conflict).
type Record struct {
	Name string
	Dist any
	Load func() (any, error)
}

// Provider iterates the candidate plugins belonging to group. group is an
// opaque selector meaningful only to the provider (an entry-point group
// name, a directory, ...).
type Provider interface {
	Iter(group string) ([]Record, error)
}
