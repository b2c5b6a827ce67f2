package cli

import (
	"testing"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/seed"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTree_SeedIsClean(t *testing.T) {
	ns := domain.DefaultNamespace()
	assert.Empty(t, CheckTree(ns, seed.Default(ns)))
}

func TestCheckTree_ReportsProblems(t *testing.T) {
	ns := domain.DefaultNamespace()
	root := tree.Clone(seed.Default(ns))

	infra := tree.FindByID(root, "infrastructure")
	require.NotNil(t, infra)
	infra.Children = append(infra.Children,
		&domain.Node{ID: "docker", Identifier: infra.Identifier + ".9", Kind: domain.KindLeaf},
		&domain.Node{ID: "stray", Identifier: "1.2.3", Kind: domain.KindLeaf},
		&domain.Node{ID: "deep", Identifier: infra.Identifier + ".1.7", Kind: domain.KindLeaf},
		&domain.Node{ID: "twin", Identifier: infra.Children[0].Identifier, Kind: domain.KindLeaf},
	)

	problems := CheckTree(ns, root)
	byNode := map[string]string{}
	for _, p := range problems {
		byNode[p.NodeID] = p.Message
	}
	assert.Len(t, problems, 4)
	assert.Equal(t, "duplicate id", byNode["docker"])
	assert.Contains(t, byNode["stray"], "outside namespace")
	assert.Contains(t, byNode["deep"], "not one arc below")
	assert.Contains(t, byNode["twin"], "already used by")
}

func TestIsDirectChild(t *testing.T) {
	assert.True(t, isDirectChild("1.2", "1.2.3"))
	assert.False(t, isDirectChild("1.2", "1.23"))
	assert.False(t, isDirectChild("1.2", "1.2.3.4"))
	assert.False(t, isDirectChild("1.2", "1.2."))
}
