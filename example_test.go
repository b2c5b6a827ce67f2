package oidtree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/oidtree"
	"github.com/aretw0/oidtree/pkg/tree"
)

// ExampleNew shows the library flow: open the registry, append a child and
// read the identifier it was assigned.
func ExampleNew() {
	ctx := context.Background()

	reg := oidtree.New()
	if err := reg.Open(ctx); err != nil {
		log.Fatal(err)
	}

	node, err := reg.AddChild(ctx, "root", tree.Draft{Name: "Test Module", Description: "x"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(node.ID, node.Identifier)
	// Output: test-module 1.3.6.1.4.1.61026.5
}
