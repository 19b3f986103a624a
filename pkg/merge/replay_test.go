package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/psbr27/compare-yamls/pkg/tree"
)

// checkReplay merges and then replays the records over the target, requiring
// the replayed tree to reproduce the merged tree.
func checkReplay(t *testing.T, source, target *tree.Node, cfg Config) {
	t.Helper()
	merged, records, err := Merge(source, target, cfg)
	require.NoError(t, err)
	replayed, err := Replay(target, records, cfg)
	require.NoError(t, err)
	requireTreeEqual(t, merged, replayed)
}

func TestReplay_Property(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `app:
  name: api
  env: prod
  limits:
    cpu: 2
ports: [80, 443]
added:
  fresh: true
`)
	target := mustParse(t, `app:
  name: api
  env: staging
  debug: true
ports: [8080]
stale: gone
`)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "replace ignore", cfg: Config{ListStrategy: ListReplace, DeletionPolicy: DeletionIgnore}},
		{name: "replace remove", cfg: Config{ListStrategy: ListReplace, DeletionPolicy: DeletionRemove}},
		{name: "append ignore", cfg: Config{ListStrategy: ListAppend}},
		{name: "intelligent ignore", cfg: Config{ListStrategy: ListIntelligent}},
		{name: "intelligent remove", cfg: Config{ListStrategy: ListIntelligent, DeletionPolicy: DeletionRemove}},
		{name: "kept records included", cfg: Config{RecordKept: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkReplay(t, source, target, tt.cfg)
		})
	}
}

func TestReplay_IntelligentListWithNestedChanges(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `users:
  - name: admin
    role: administrator
  - name: new
    role: guest
tags: [a, b]
`)
	target := mustParse(t, `users:
  - name: admin
    role: user
    shell: /bin/sh
  - name: stale
    role: old
tags: [b, c]
`)

	for _, policy := range []DeletionPolicy{DeletionIgnore, DeletionRemove} {
		t.Run(string(policy), func(t *testing.T) {
			checkReplay(t, source, target, Config{ListStrategy: ListIntelligent, DeletionPolicy: policy})
		})
	}
}

func TestReplay_PerPathOverrides(t *testing.T) {
	t.Parallel()

	source := mustParse(t, "a:\n  l: [1]\nb:\n  l: [1]\nc:\n  l: [1]\n")
	target := mustParse(t, "a:\n  l: [2]\nb:\n  l: [2]\nc:\n  l: [2]\n")

	cfg := Config{
		ListStrategy: ListReplace,
		Overrides: map[string]Override{
			"b.l": {ListStrategy: ListAppend},
			"c.l": {ListStrategy: ListIntelligent},
		},
	}
	checkReplay(t, source, target, cfg)
}

func TestReplay_NonMappingRoot(t *testing.T) {
	t.Parallel()

	checkReplay(t, tree.Scalar("new"), tree.Scalar("old"), DefaultConfig())
	checkReplay(t, mustParse(t, "- 1\n- 2\n"), mustParse(t, "- 3\n"), Config{ListStrategy: ListAppend})
}

func TestReplay_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Replay(tree.NewMapping(), nil, Config{ListStrategy: "bogus"})
	require.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestReplay_NestedAppendInsideIntelligentList(t *testing.T) {
	t.Parallel()

	source := mustParse(t, `services:
  - name: web
    ports: [80]
`)
	target := mustParse(t, `services:
  - name: web
    ports: [443]
`)

	cfg := Config{
		ListStrategy: ListIntelligent,
		Overrides: map[string]Override{
			"services[0].ports": {ListStrategy: ListAppend},
		},
	}
	merged, records, err := Merge(source, target, cfg)
	require.NoError(t, err)
	requireTreeEqual(t, mustParse(t, "services:\n  - name: web\n    ports: [443, 80]\n"), merged)

	// the inner list-merged record must not append a second time
	replayed, err := Replay(target, records, cfg)
	require.NoError(t, err)
	requireTreeEqual(t, merged, replayed)
}
