/*
Package ports defines the driven ports (interfaces) of the registry.

These interfaces decouple the session and adapters from concrete backends, so the
same tree logic runs against memory, a JSON file, Redis or SQLite.

# Key Interfaces

  - SnapshotStore: persists the whole tree as one opaque value under a key.
  - Watchable: signals that the backing data changed outside this process.
  - DistributedLocker: serialises writers across replicas.
  - Suggester: the generative collaborator that proposes new children.
*/
package ports
