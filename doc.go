/*
Package hookline is a hook-based plugin dispatch runtime: named hook
specifications, plugin-contributed implementations, and a PluginManager that
dispatches a call to every matching implementation in a deterministic order.

A host declares the hooks it offers by registering a spec namespace:

    type Hooks struct{}

    func (Hooks) HookSpecs() []hookline.SpecDecl {
        return []hookline.SpecDecl{
            hookline.Spec("collect_items", []string{"path"}, nil),
        }
    }

    pm := hookline.NewPluginManager()
    pm.AddHookSpecs(Hooks{})

A plugin contributes implementations by declaring its own PluginImpls:

    type myPlugin struct{}

    func (myPlugin) PluginImpls() []hookline.ImplDecl {
        return []hookline.ImplDecl{
            hookline.Impl("collect_items", func(args hookline.Kwargs) (any, error) {
                return listDir(args["path"].(string))
            }, []string{"path"}),
        }
    }

    pm.Register(myPlugin{}, "myplugin")

Dispatching a hook call runs every registered implementation band by band
(tryfirst, normal, trylast — see TryFirst/TryLast), most recently registered
first within the tryfirst and normal bands and earliest registered first
within the trylast band, and collects their non-nil results:

    results, err := pm.Hook("collect_items").Call(hookline.Kwargs{"path": "."})

Hook Wrappers

A hookwrapper implementation brackets the execution of every other
implementation for the same hook, in the style of a middleware: it receives
a next function to invoke the inner implementations and inspect or replace
their combined Outcome.

    hookline.WrapperImpl("collect_items", func(args hookline.Kwargs, next func() *hookline.Outcome) *hookline.Outcome {
        started := time.Now()
        o := next()
        log.Printf("collect_items took %s", time.Since(started))
        return o
    }, nil)

Historic Hooks

A hook declared with the Historic spec option memoizes every call; a plugin
registered after calls have already happened receives a replay of that
history against its own implementation alone, so registration order never
starves a late-arriving plugin of earlier calls.

Introspection

By default, a plugin or spec namespace declares its own contributions by
implementing PluginImpls or HookSpecs. WithImplPrefix additionally enables a
deprecated, reflection-based discovery mode: when the configured
introspector extracts no implementation from a registered plugin (for
instance because it does not implement PluginImpls), Register falls back to
treating every exported
method whose name starts with the given prefix as an implementation, for
plugins that cannot be changed to implement the interface directly. The
first time this fallback actually contributes an implementation, the
configured Warner receives a single Deprecated notice.

External Plugins

The entrypoint subpackage adapts externally discovered plugins — for
example Go plugins loaded from ".so" files at runtime — into the same
Register path via PluginManager.LoadEntrypoints.
*/
package hookline
