// Package taskboard provides a composable multi-user task and board
// management core for Go. It offers an explicit task mutation engine with
// status audit history and priority collision resolution, a periodic email
// report scheduler, and pluggable persistence backends.
//
// Taskboard is designed as a library, not a service. Import it, configure a
// store, and drive mutations through the engine:
//
//	st := memory.New()
//	eng := engine.New(st, engine.WithLogger(logger))
//	t, err := eng.CreateTask(ctx, ownerID, engine.Draft{
//	    Title:    "Write quarterly summary",
//	    Priority: 1,
//	})
//
// # Architecture
//
// Taskboard follows a composable store pattern where each subsystem (user,
// board, task, report) defines its own store interface. A single backend
// implements all of them. Backends: Postgres (via Bun) and Memory.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers. Tasks additionally carry an opaque, stable
// external UUID for use in URLs and API payloads.
//
// # Soft deletion
//
// No entity is ever hard-deleted through the engine. Deletion sets a flag,
// and every default store read excludes flagged rows: a soft-deleted or
// foreign-owned row surfaces as not-found, never as permission-denied.
package taskboard
