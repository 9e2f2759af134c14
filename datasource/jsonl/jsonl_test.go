package jsonl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sheaf "github.com/go-sheaf/sheaf"
	sheaferrors "github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/graph"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.jsonl")
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFromFile(t *testing.T) {
	path := writeTempFile(t, `{"name":"ada","score":10}
{"name":"grace","score":20}
{"name":"edsger","score":15}
`)
	records, err := FromFile(path, 32)
	require.Nil(t, err)
	names := sheaf.Map(records, func(r Record) string { return r.Get("name").String() })
	out, err := names.Run(context.Background(), &graph.Greedy{})
	require.Nil(t, err)
	require.Equal(t, []string{"ada", "grace", "edsger"}, out)
}

func TestFromFileAggregates(t *testing.T) {
	path := writeTempFile(t, `{"team":"red","score":1}
{"team":"blue","score":2}
{"team":"red","score":3}
`)
	records, err := FromFile(path, 1<<20)
	require.Nil(t, err)
	totals, err := sheaf.FoldBy(records,
		func(r Record) string { return r.Get("team").String() },
		func() int64 { return 0 },
		func(acc int64, r Record) int64 { return acc + r.Get("score").Int() },
		func(x, y int64) int64 { return x + y },
		2)
	require.Nil(t, err)
	out, err := totals.Run(context.Background(), &graph.Serial{})
	require.Nil(t, err)
	got := make(map[string]int64)
	for _, pr := range out {
		got[pr.Key] = pr.Value
	}
	require.Equal(t, map[string]int64{"red": 4, "blue": 2}, got)
}

func TestFromFileMissingInput(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "absent.jsonl"), 64)
	require.NotNil(t, err)
	mie := sheaferrors.MissingInputError{}
	require.ErrorAs(t, err, &mie)
}

func TestFromFileMalformedLineFailsRun(t *testing.T) {
	path := writeTempFile(t, `{"ok":true}
not json at all
`)
	records, err := FromFile(path, 1<<20)
	require.Nil(t, err)
	_, err = records.Run(context.Background(), &graph.Serial{})
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "malformed JSON line")
}
