/*
Package domain contains the core domain models of the OID registry.

It defines the entities shared by every other package and stays free of I/O,
following Hexagonal Architecture principles.

# Key Entities

  - Node: one entry in the identifier tree (root, branch or leaf).
  - Namespace: the organization constants (root prefix, display name, header prefix).
  - Snapshot: one published, versioned value of the whole tree.
  - Suggestion: a candidate child proposed by the generative collaborator.
  - IdentifierInfo: the decoded view of a dotted identifier.
*/
package domain
