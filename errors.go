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
)

// ErrDuplicateRegistration is returned by Register when either the plugin
// object is already registered, or the requested name is held by a
// different plugin.
var ErrDuplicateRegistration = errors.New("plugin or name already registered")

// ErrNoSpecs is returned by AddHookSpecs when namespace contributes zero
// hook specifications.
var ErrNoSpecs = errors.New("namespace contributes no hook specifications")

// ValidationKind classifies a ValidationError.
type ValidationKind int

const (
	// SignatureMismatch: an impl's Argnames is not a subset of its spec's.
	SignatureMismatch ValidationKind = iota
	// MissingSpec: an impl exists for a hook with no spec and is not optional.
	MissingSpec
	// HistoricWrapperForbidden: a hookwrapper was registered for a historic hook.
	HistoricWrapperForbidden
	// EntrypointLoadFailed: the C6 loader's Load() returned an error.
	EntrypointLoadFailed
)

func (k ValidationKind) String() string {
	switch k {
	case SignatureMismatch:
		return "signature-mismatch"
	case MissingSpec:
		return "missing-spec"
	case HistoricWrapperForbidden:
		return "historic-wrapper-forbidden"
	case EntrypointLoadFailed:
		return "entrypoint-load-failed"
	default:
		return "unknown"
	}
}

// ValidationError reports a plugin or hook validation failure. Plugin and
// PluginName identify the offending plugin where one is known; they are
// empty when CallHistoric rejects a non-historic hook, and an
// EntrypointLoadFailed error carries only the entry's name.
type ValidationError struct {
	Kind       ValidationKind
	Plugin     Plugin
	PluginName string
	HookName   string
	Err        error // wrapped cause, set for EntrypointLoadFailed.
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin %q: %s: %v", e.PluginName, e.Kind, e.Err)
	}
	return fmt.Sprintf("plugin %q: %s (hook %q)", e.PluginName, e.Kind, e.HookName)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// CallKind classifies a CallError.
type CallKind int

const (
	// MissingArgument: a required kwarg was not supplied to Call.
	MissingArgument CallKind = iota
	// ExtraArgument: kwargs supplied a key the spec does not list. This kind
	// is normally surfaced as a warning (via Warner), not returned as a call
	// error.
	ExtraArgument
)

func (k CallKind) String() string {
	switch k {
	case MissingArgument:
		return "missing-argument"
	case ExtraArgument:
		return "extra-argument"
	default:
		return "unknown"
	}
}

// CallError reports a problem matching a dispatch's Kwargs against the
// hook's implementations or spec.
type CallError struct {
	Kind     CallKind
	HookName string
	ArgName  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("hook %q: %s: %q", e.HookName, e.Kind, e.ArgName)
}
