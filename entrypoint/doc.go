/*
Package entrypoint adapts externally discovered plugins into hookline's
Register path. A Provider enumerates candidate plugins as a group of named
Records; PluginManager.LoadEntrypoints loads and registers each in turn.

# Important

FSProvider's real ".so" loader is only wired in when this module is built
with the "plugger_dynamic" build tag; without it, every Load call fails with
a descriptive error instead of pulling the "plugin" package's linker
requirements into a static binary that never uses dynamic loading.
*/
package entrypoint
