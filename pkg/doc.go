// Package pkg provides the core libraries for the Bannerman load-order manager.
//
// # Overview
//
// Bannerman keeps a Mount & Blade II: Bannerlord module set in a consistent,
// launchable state: it resolves which descriptor wins for each module id,
// orders modules by their declared constraints, persists the result to
// LauncherData.xml, and mirrors per-profile configuration files against the
// live game configuration directory.
//
// # Architecture
//
// The typical data flow through Bannerman:
//
//	SubModule.xml descriptors (native / add-on / override roots)
//	         ↓
//	    [modules] package (parse, cache, pick winning candidates)
//	         ↓
//	    [modgraph] package (constraint graph + topological order)
//	         ↓
//	    [launcherdata] package (persisted order/state document)
//
// Profile switches and launch lifecycle events additionally drive the
// [configsync] package, which mirrors configuration files between the live
// directory and the profile shadow directory.
//
// # Main Packages
//
// [modules] - Descriptor store with an mtime-invalidated cache, the loose
// Bannerlord version grammar, source-precedence resolution and modlist.txt
// parsing.
//
// [modgraph] - Directed constraint graph built from descriptors, advisory
// issue collection (missing dependencies, version mismatches,
// incompatibilities), the three-tier topological sort and DOT/SVG export.
//
// [launcherdata] - Single-writer LauncherData.xml persistence with debounced
// writes, capped timestamped backups and a best-effort mirror copy.
//
// [configsync] - Live/shadow configuration mirroring driven by modification
// times, with content validation and force-sync support.
//
// [manager] - Trigger orchestration tying the pieces together: refresh,
// sort, profile change, pre-launch and post-run.
//
// [config] - TOML settings with compiled-in Bannerlord defaults (roots,
// tier membership, pinned modules, debounce and backup policy).
//
// [modules]: https://pkg.go.dev/github.com/knightfall-dh/bannerman/pkg/modules
// [modgraph]: https://pkg.go.dev/github.com/knightfall-dh/bannerman/pkg/modgraph
// [launcherdata]: https://pkg.go.dev/github.com/knightfall-dh/bannerman/pkg/launcherdata
// [configsync]: https://pkg.go.dev/github.com/knightfall-dh/bannerman/pkg/configsync
// [manager]: https://pkg.go.dev/github.com/knightfall-dh/bannerman/pkg/manager
// [config]: https://pkg.go.dev/github.com/knightfall-dh/bannerman/pkg/config
package pkg
