/*
Package session implements simulation session management and persistence
orchestration.

It provides high-level abstractions for handling concurrent access to
session snapshots across multiple replicas, combining per-session in-memory
locks with optional distributed locking and a pluggable snapshot store.
*/
package session
