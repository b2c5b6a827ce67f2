/*
Package observability turns session lifecycle events into logs and Prometheus
metrics.

Metrics live on a private registry so several registries (and tests) can run in
one process. Hooks returns domain.LifecycleHooks for the session manager;
Combine merges it with any other hook set such as LoggingHooks.
*/
package observability
