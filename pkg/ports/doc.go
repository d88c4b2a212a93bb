/*
Package ports defines the driven ports (interfaces) for the simulation
engine.

These interfaces decouple the core from external implementations, allowing
sessions to persist to various storage backends and plans to come from
external planner processes.

# Key Interfaces

  - SnapshotStore: persists and loads session snapshots.
  - DistributedLocker: distributed locking for concurrent session access
    across replicas.
  - Planner: an external plan producer streaming candidate plans.
*/
package ports
