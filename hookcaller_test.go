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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type specNamespace struct {
	decls []SpecDecl
}

func (s specNamespace) HookSpecs() []SpecDecl { return s.decls }

// implPlugin is always registered by pointer: Plugin values are used as map
// keys throughout the registry, and a struct holding a slice field is not
// comparable, so only *implPlugin (pointer identity) may serve as a Plugin.
type implPlugin struct {
	decls []ImplDecl
}

func (p *implPlugin) PluginImpls() []ImplDecl { return p.decls }

var _ = Describe("HookCaller dispatch", func() {

	It("dispatches most-recently-registered-first within the normal band (S1)", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("he_method1", []string{"arg"}, nil),
		}})).To(Succeed())

		p1 := &implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) {
				return a["arg"], nil
			}, []string{"arg"}),
		}}
		p2 := &implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) {
				return a["arg"].(int) * 10, nil
			}, []string{"arg"}),
		}}
		_, _, err := pm.Register(p1, "p1")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = pm.Register(p2, "p2")
		Expect(err).NotTo(HaveOccurred())

		results, err := pm.Hook("he_method1").Call(Kwargs{"arg": 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]any{10, 1}))
	})

	It("orders tryfirst before normal before trylast", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("order", nil, nil),
		}})).To(Succeed())

		record := func(tag string) HookFunc {
			return func(Kwargs) (any, error) { return tag, nil }
		}
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{Impl("order", record("normal1"), nil)}}, "normal1")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{Impl("order", record("last"), nil, TryLast())}}, "last")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{Impl("order", record("first"), nil, TryFirst())}}, "first")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{Impl("order", record("normal2"), nil)}}, "normal2")

		results, err := pm.Hook("order").Call(Kwargs{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]any{"first", "normal2", "normal1", "last"}))
	})

	It("replays historic calls to plugins registered afterward (S2)", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("he_method1", []string{"arg"}, nil, Historic()),
		}})).To(Succeed())

		var got []any
		Expect(pm.Hook("he_method1").CallHistoric(Kwargs{"arg": 1}, func(v any) {
			got = append(got, v)
		})).To(Succeed())
		Expect(got).To(BeEmpty())

		_, _, err := pm.Register(&implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) {
				return a["arg"], nil
			}, []string{"arg"}),
		}}, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]any{1}))

		_, _, err = pm.Register(&implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) {
				return a["arg"].(int) * 10, nil
			}, []string{"arg"}),
		}}, "p2")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]any{1, 10}))

		Expect(pm.Hook("he_method1").CallHistoric(Kwargs{"arg": 12}, func(v any) {
			got = append(got, v)
		})).To(Succeed())
		Expect(got).To(Equal([]any{1, 10, 120, 12}))
	})

	It("invokes the result callback again when a new plugin replays (S3)", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("he_method1", []string{"arg"}, nil, Historic()),
		}})).To(Succeed())

		_, _, err := pm.Register(&implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) {
				return a["arg"].(int) * 10, nil
			}, []string{"arg"}),
		}}, "p1")
		Expect(err).NotTo(HaveOccurred())

		var got []any
		Expect(pm.Hook("he_method1").CallHistoric(Kwargs{"arg": 1}, func(v any) {
			got = append(got, v)
		})).To(Succeed())
		Expect(got).To(Equal([]any{10}))

		_, _, err = pm.Register(&implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) {
				return a["arg"].(int) * 10, nil
			}, []string{"arg"}),
		}}, "p2")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]any{10, 10}))
	})

	It("fails duplicate registration by plugin handle or by name (S4)", func() {
		pm := NewPluginManager()
		name, ok, err := pm.Register(42, "abc")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("abc"))

		_, _, err = pm.Register(42, "abc")
		Expect(err).To(MatchError(ErrDuplicateRegistration))

		_, _, err = pm.Register(42, "def")
		Expect(err).To(MatchError(ErrDuplicateRegistration))
	})

	It("blocks a name across registration attempts and unregistration (S5)", func() {
		pm := NewPluginManager()
		name, ok, err := pm.Register("a1value", "a1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("a1"))

		pm.SetBlocked("a1")
		Expect(pm.IsBlocked("a1")).To(BeTrue())
		Expect(pm.IsRegistered("a1value")).To(BeFalse())

		_, ok, err = pm.Register("somethingelse", "a1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		_, _ = pm.Unregister(nil, "a1")
		Expect(pm.IsBlocked("a1")).To(BeTrue())
	})

	It("rejects an impl whose argnames are not a subset of the spec's (S6)", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("he_method1", []string{"arg"}, nil),
		}})).To(Succeed())

		_, _, err := pm.Register(&implPlugin{[]ImplDecl{
			Impl("he_method1", func(Kwargs) (any, error) { return nil, nil }, []string{"qlwkje"}),
		}}, "badplugin")
		Expect(err).To(HaveOccurred())
		var verr *ValidationError
		Expect(err).To(BeAssignableToTypeOf(verr))
		ve := err.(*ValidationError)
		Expect(ve.Kind).To(Equal(SignatureMismatch))
		Expect(ve.PluginName).To(Equal("badplugin"))
	})

	It("dispatches a subset view that stays live across unregistration (S7)", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("he_method1", []string{"arg"}, nil),
		}})).To(Succeed())

		p1 := &implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) { return a["arg"], nil }, []string{"arg"}),
		}}
		p2 := &implPlugin{[]ImplDecl{
			Impl("he_method1", func(a Kwargs) (any, error) { return a["arg"].(int) * 10, nil }, []string{"arg"}),
		}}
		_, _, err := pm.Register(p1, "p1")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = pm.Register(p2, "p2")
		Expect(err).NotTo(HaveOccurred())

		view := pm.SubsetHookCaller("he_method1", []Plugin{p1})
		results, err := view.Call(Kwargs{"arg": 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]any{20}))

		_, err = pm.Unregister(p1, "")
		Expect(err).NotTo(HaveOccurred())

		results, err = view.Call(Kwargs{"arg": 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]any{20}))
	})

	It("short-circuits at the first non-nil result for a firstresult hook", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("pick", nil, nil, FirstResult()),
		}})).To(Succeed())

		called := false
		// Dispatch runs most-recently-registered-first, so the "winner"
		// plugin must be registered last in order to run (and short-circuit)
		// before the earlier-registered "loser".
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			Impl("pick", func(Kwargs) (any, error) { return nil, nil }, nil),
		}}, "nil-plugin")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			Impl("pick", func(Kwargs) (any, error) { called = true; return "loser", nil }, nil),
		}}, "loser-plugin")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			Impl("pick", func(Kwargs) (any, error) { return "winner", nil }, nil),
		}}, "winner-plugin")

		results, err := pm.Hook("pick").Call(Kwargs{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]any{"winner"}))
		Expect(called).To(BeFalse())
	})

	It("nests hookwrappers outermost-last", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("wrap", nil, nil),
		}})).To(Succeed())

		var trace []string
		wrap := func(tag string) WrapperFunc {
			return func(_ Kwargs, next func() *Outcome) *Outcome {
				trace = append(trace, tag+"-before")
				o := next()
				trace = append(trace, tag+"-after")
				return o
			}
		}
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			WrapperImpl("wrap", wrap("inner"), nil),
		}}, "inner")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			WrapperImpl("wrap", wrap("outer"), nil),
		}}, "outer")
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			Impl("wrap", func(Kwargs) (any, error) { trace = append(trace, "leaf"); return nil, nil }, nil),
		}}, "leaf")

		_, err := pm.Hook("wrap").Call(Kwargs{})
		Expect(err).NotTo(HaveOccurred())
		Expect(trace).To(Equal([]string{"outer-before", "inner-before", "leaf", "inner-after", "outer-after"}))
	})

	It("dispatches extra functions alongside the regular implementations", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("extra", nil, nil),
		}})).To(Succeed())
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			Impl("extra", func(Kwargs) (any, error) { return "regular", nil }, nil),
		}}, "regular")

		results, err := pm.Hook("extra").CallExtra([]ExtraFunc{
			func(Kwargs) (any, error) { return "extra", nil },
		}, Kwargs{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(ConsistOf("regular", "extra"))

		// The underlying caller is unaffected by the ephemeral extra func.
		results, err = pm.Hook("extra").Call(Kwargs{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]any{"regular"}))
	})

	It("fails a call missing a required argument", func() {
		pm := NewPluginManager()
		Expect(pm.AddHookSpecs(specNamespace{[]SpecDecl{
			Spec("needs_arg", []string{"path"}, nil),
		}})).To(Succeed())
		_, _, _ = pm.Register(&implPlugin{[]ImplDecl{
			Impl("needs_arg", func(Kwargs) (any, error) { return nil, nil }, []string{"path"}),
		}}, "p")

		_, err := pm.Hook("needs_arg").Call(Kwargs{})
		Expect(err).To(HaveOccurred())
		var cerr *CallError
		Expect(err).To(BeAssignableToTypeOf(cerr))
	})
})
