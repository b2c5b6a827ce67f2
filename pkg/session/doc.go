/*
Package session holds the mutable state around an immutable registry tree.

A Manager owns the published snapshot of one registry key, the user's selection
and search text. It serialises additions with a local mutex plus an optional
distributed lock, persists every accepted change before publishing it, and
reconciles the selection when another process replaces the tree.
*/
package session
