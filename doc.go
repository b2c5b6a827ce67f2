/*
Package oidtree is a registry viewer and editor for an enterprise Object
Identifier (OID) namespace.

The registry is a tree of named nodes under one IANA Private Enterprise Number.
Every node has a dotted identifier, a kind (root, branch or leaf), a status and
optional use cases. Users browse and search the tree, append children (the next
free arc is assigned automatically) and generate integration snippets for a
node: a FHIR extension, an MCP tool document, an OpenSSL extension section, an
HTTP header set, a PostgreSQL schema and an asset-tagging payload.

# Architecture

The core is pure and synchronous:

  - pkg/tree holds the traversal, search and copy-on-write append operations.
  - pkg/snippet renders the generators from embedded templates.
  - pkg/session owns the published snapshot and serialises writers.

Persistence, suggestions and transports are ports with swappable adapters
(memory, file, Redis, SQLite; HTTP and MCP servers).

# Usage

	reg := oidtree.New(oidtree.WithStore(file.New(".oidtree/registry")))
	if err := reg.Open(ctx); err != nil {
		log.Fatal(err)
	}

	node, err := reg.AddChild(ctx, "root", tree.Draft{Name: "Test Module", Description: "x"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(node.Identifier) // 1.3.6.1.4.1.61026.5

	name, bundle, _ := reg.Export(node.ID)
	_ = os.WriteFile(name, []byte(bundle), 0644)
*/
package oidtree
