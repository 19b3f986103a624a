package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psbr27/compare-yamls/pkg/diff"
)

func TestMerge_AppendStrategy(t *testing.T) {
	t.Parallel()

	source := mustParse(t, "b: [1, 2]\n")
	target := mustParse(t, "b: [3, 4]\n")

	merged, records, err := Merge(source, target, Config{ListStrategy: ListAppend})
	require.NoError(t, err)

	requireTreeEqual(t, mustParse(t, "b: [3, 4, 1, 2]\n"), merged)
	assert.Equal(t, []string{"list-merged b"}, kinds(records))
}

func TestMerge_AppendLengthProperty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		source, target string
	}{
		{name: "both populated", source: "l: [1, 2, 3]\n", target: "l: [4, 5]\n"},
		{name: "empty source", source: "l: []\n", target: "l: [1]\n"},
		{name: "empty target", source: "l: [1]\n", target: "l: []\n"},
		{name: "duplicates kept", source: "l: [1, 1]\n", target: "l: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := mustParse(t, tt.source)
			target := mustParse(t, tt.target)
			merged, _, err := Merge(source, target, Config{ListStrategy: ListAppend})
			require.NoError(t, err)

			srcList, _ := source.Get("l")
			tgtList, _ := target.Get("l")
			out, _ := merged.Get("l")
			assert.Equal(t, srcList.Len()+tgtList.Len(), out.Len())
		})
	}
}

func TestMerge_ReplaceEqualListsRecordNothing(t *testing.T) {
	t.Parallel()

	source := mustParse(t, "l: [1, 2]\n")
	target := mustParse(t, "l: [1, 2]\n")

	_, records, err := Merge(source, target, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMerge_IntelligentMatchedElements(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `users:
  - name: admin
    role: administrator
`)
	target := mustParse(t, `users:
  - name: admin
    role: user
    shell: /bin/bash
`)

	merged, records, err := Merge(source, target, Config{ListStrategy: ListIntelligent})
	require.NoError(t, err)

	// matched by the shared name=admin pair: one merged element, not two
	requireTreeEqual(t, mustParse(t, `users:
  - name: admin
    role: administrator
    shell: /bin/bash
`), merged)
	assert.Equal(t, []string{"list-merged users", "changed users[0].role"}, kinds(records))
}

func TestMerge_IntelligentNoSharedPair(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `users:
  - name: admin
    role: administrator
`)
	target := mustParse(t, `users:
  - name: user1
    role: user
`)

	merged, records, err := Merge(source, target, Config{ListStrategy: ListIntelligent})
	require.NoError(t, err)

	// no shared key/value pair: both elements, source first
	requireTreeEqual(t, mustParse(t, `users:
  - name: admin
    role: administrator
  - name: user1
    role: user
`), merged)
	users, _ := merged.Get("users")
	first, _ := users.Items[0].Get("name")
	assert.Equal(t, "admin", first.Value)
	assert.Equal(t, []string{"list-merged users"}, kinds(records))
}

func TestMerge_IntelligentFirstMatchWins(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `hosts:
  - env: prod
    port: 443
`)
	// both targets share env=prod; the first one in target order is merged
	target := mustParse(t, `hosts:
  - env: prod
    host: a.example.com
  - env: prod
    host: b.example.com
`)

	merged, _, err := Merge(source, target, Config{ListStrategy: ListIntelligent})
	require.NoError(t, err)

	hosts, _ := merged.Get("hosts")
	require.Len(t, hosts.Items, 2)
	first := hosts.Items[0]
	host, _ := first.Get("host")
	assert.Equal(t, "a.example.com", host.Value)
	port, _ := first.Get("port")
	assert.Equal(t, int64(443), port.Value)
	// the second prod host stays untouched
	second := hosts.Items[1]
	assert.False(t, second.Has("port"))
}

func TestMerge_IntelligentScalarDedup(t *testing.T) {
	t.Parallel()

	source := mustParse(t, "tags: [a, b, b]\n")
	target := mustParse(t, "tags: [b, c]\n")

	merged, _, err := Merge(source, target, Config{ListStrategy: ListIntelligent})
	require.NoError(t, err)

	// union, source order first then unmatched target
	requireTreeEqual(t, mustParse(t, "tags: [a, b, c]\n"), merged)
}

func TestMerge_IntelligentRemoveDropsUnmatchedTargets(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `users:
  - name: admin
`)
	target := mustParse(t, `users:
  - name: admin
    shell: /bin/sh
  - name: stale
`)

	cfg := Config{ListStrategy: ListIntelligent, DeletionPolicy: DeletionRemove}
	merged, _, err := Merge(source, target, cfg)
	require.NoError(t, err)

	users, _ := merged.Get("users")
	require.Len(t, users.Items, 1)
	name, _ := users.Items[0].Get("name")
	assert.Equal(t, "admin", name.Value)
}

func TestMerge_IntelligentMixedElements(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `items:
  - plain
  - id: 1
    v: new
`)
	target := mustParse(t, `items:
  - id: 1
    v: old
  - plain
  - extra
`)

	merged, records, err := Merge(source, target, Config{ListStrategy: ListIntelligent})
	require.NoError(t, err)

	items, _ := merged.Get("items")
	require.Len(t, items.Items, 3)
	assert.Equal(t, "plain", items.Items[0].Value)
	v, _ := items.Items[1].Get("v")
	assert.Equal(t, "new", v.Value)
	assert.Equal(t, "extra", items.Items[2].Value)

	assert.Equal(t, diff.ListMerged, records[0].Kind)
	assert.Equal(t, []string{"list-merged items", "changed items[1].v"}, kinds(records))
}

func TestMerge_NestedListStrategyOverride(t *testing.T) {
	t.Parallel()

	source := mustParse(t, "a:\n  l: [1]\nb:\n  l: [1]\n")
	target := mustParse(t, "a:\n  l: [2]\nb:\n  l: [2]\n")

	cfg := Config{
		ListStrategy: ListReplace,
		Overrides:    map[string]Override{"b.l": {ListStrategy: ListAppend}},
	}
	merged, _, err := Merge(source, target, cfg)
	require.NoError(t, err)

	requireTreeEqual(t, mustParse(t, "a:\n  l: [1]\nb:\n  l: [2, 1]\n"), merged)
}

func TestMerge_IntelligentNestedLists(t *testing.T) {
	t.Parallel()

	// matched elements recurse through the mapping rule, so nested lists
	// inside them follow the strategy resolved for their own path
	source := mustParse(t, `services:
  - name: api
    ports: [80]
`)
	target := mustParse(t, `services:
  - name: api
    ports: [443]
`)

	cfg := Config{
		ListStrategy: ListIntelligent,
		Overrides:    map[string]Override{"services[0].ports": {ListStrategy: ListAppend}},
	}
	merged, _, err := Merge(source, target, cfg)
	require.NoError(t, err)

	requireTreeEqual(t, mustParse(t, `services:
  - name: api
    ports: [443, 80]
`), merged)
}
