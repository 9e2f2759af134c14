package sheaf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/graph"
)

func TestEmitToDiskRoundTrip(t *testing.T) {
	lines := FromPartitions([][]string{
		{"the quick brown fox", ""},
		{"jumps over the lazy dog"},
	})
	words, err := EmitToDisk(lines, t.TempDir(), func(line string, sink Sink[string]) error {
		for _, w := range strings.Fields(line) {
			if err := sink.Add(w); err != nil {
				return err
			}
		}
		return nil
	})
	require.Nil(t, err)
	require.Equal(t, Disk, words.Storage())
	require.Equal(t, lines.NumPartitions(), words.NumPartitions())
	out := runBoth(t, words)
	require.ElementsMatch(t,
		[]string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"},
		out)
}

func TestEmitToDiskThenAggregate(t *testing.T) {
	nums := FromPartitions([][]int{{1, 2}, {3}})
	fanned, err := EmitToDisk(nums, t.TempDir(), func(v int, sink Sink[int]) error {
		for i := 0; i < v; i++ {
			if err := sink.Add(v); err != nil {
				return err
			}
		}
		return nil
	})
	require.Nil(t, err)
	freqs, err := Frequencies(fanned, 2)
	require.Nil(t, err)
	out, err := freqs.Run(context.Background(), &graph.Greedy{})
	require.Nil(t, err)
	require.Equal(t, map[int]int{1: 1, 2: 2, 3: 3}, pairsToMap(t, out))
}

func TestEmitToDiskCollectionScopedLayout(t *testing.T) {
	base := t.TempDir()
	nums := FromPartitions([][]int{{1, 2}, {3}})
	emit := func(v int, sink Sink[int]) error { return sink.Add(v) }
	a, err := EmitToDisk(nums, base, emit)
	require.Nil(t, err)
	b, err := EmitToDisk(nums, base, emit)
	require.Nil(t, err)
	require.NotEqual(t, a.ID(), b.ID())
	require.ElementsMatch(t, []int{1, 2, 3}, runBoth(t, a))
	require.ElementsMatch(t, []int{1, 2, 3}, runBoth(t, b))

	// each Collection spills under its own ID, never flat into the base path
	entries, err := os.ReadDir(base)
	require.Nil(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		require.True(t, e.IsDir())
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{a.ID(), b.ID()}, names)
}

func TestEmitToDiskErrorDiscardsPartialSpill(t *testing.T) {
	base := t.TempDir()
	c := FromValues([]int{1, 2})
	emitted, err := EmitToDisk(c, base, func(v int, sink Sink[int]) error {
		if v == 2 {
			panic("unemittable record")
		}
		return sink.Add(v)
	})
	require.Nil(t, err)
	_, err = emitted.Run(context.Background(), &graph.Serial{})
	require.NotNil(t, err)
	entries, err := os.ReadDir(filepath.Join(base, emitted.ID()))
	require.Nil(t, err)
	require.Empty(t, entries)
}

func TestEmitToDiskEmptyBasePath(t *testing.T) {
	c := FromValues([]int{1})
	_, err := EmitToDisk(c, "", func(int, Sink[int]) error { return nil })
	require.NotNil(t, err)
	require.IsType(t, errors.InvalidBasePathError{}, err)
}

func TestEmitToDiskEmitterErrorFailsRun(t *testing.T) {
	c := FromValues([]int{1, 2})
	emitted, err := EmitToDisk(c, t.TempDir(), func(v int, sink Sink[int]) error {
		if v == 2 {
			panic("unemittable record")
		}
		return sink.Add(v)
	})
	require.Nil(t, err)
	_, err = emitted.Run(context.Background(), &graph.Serial{})
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "unemittable record")
}

func TestToDiskToMemoryObservationalEquality(t *testing.T) {
	orig := FromPartitions([][]string{{"a", "b"}, {"c"}, {"d", "e", "f"}})
	spilled, err := orig.ToDisk(t.TempDir())
	require.Nil(t, err)
	require.Equal(t, Disk, spilled.Storage())
	require.Equal(t, orig.NumPartitions(), spilled.NumPartitions())
	restored := spilled.ToMemory()
	require.Equal(t, Memory, restored.Storage())
	require.Equal(t, orig.NumPartitions(), restored.NumPartitions())
	require.Equal(t, runBoth(t, orig), runBoth(t, restored))
	// a second round trip is still observationally equal
	again, err := restored.ToDisk(t.TempDir())
	require.Nil(t, err)
	require.Equal(t, runBoth(t, orig), runBoth(t, again.ToMemory()))
}

func TestToDiskCollectionScopedLayout(t *testing.T) {
	base := t.TempDir()
	spilled, err := FromValues([]string{"a", "b"}).ToDisk(base)
	require.Nil(t, err)
	require.Equal(t, []string{"a", "b"}, runBoth(t, spilled))
	entries, err := os.ReadDir(filepath.Join(base, spilled.ID()))
	require.Nil(t, err)
	require.NotEmpty(t, entries)
}

func TestToDiskEmptyBasePath(t *testing.T) {
	_, err := FromValues([]int{1}).ToDisk("")
	require.NotNil(t, err)
	require.IsType(t, errors.InvalidBasePathError{}, err)
}

func TestToMemoryOnMemoryCollection(t *testing.T) {
	c := FromValues([]int{1, 2})
	require.Equal(t, c, c.ToMemory())
}

func TestDiskBackedOperatorsStayOnDisk(t *testing.T) {
	orig := FromPartitions([][]int{{3, 1, 4}, {1, 5, 9}})
	spilled, err := orig.ToDisk(t.TempDir())
	require.Nil(t, err)
	doubled := Map(spilled, func(v int) int { return v * 2 })
	require.Equal(t, Disk, doubled.Storage())
	sorted := SortBy(doubled, func(v int) int { return v })
	require.Equal(t, Disk, sorted.Storage())
	require.Equal(t, []int{2, 2, 6, 8, 10, 18}, runBoth(t, sorted))
}

func TestSinkTextEmptyBasePath(t *testing.T) {
	_, err := SinkText(FromValues([]string{"a"}), "")
	require.NotNil(t, err)
	require.IsType(t, errors.InvalidBasePathError{}, err)
}

func TestSinkText(t *testing.T) {
	dir := t.TempDir()
	c := FromPartitions([][]string{{"alpha", "beta"}, {"gamma"}})
	counts, err := SinkText(c, dir)
	require.Nil(t, err)
	require.Equal(t, []int{2, 1}, runBoth(t, counts))
	first, err := os.ReadFile(dir + "/00000")
	require.Nil(t, err)
	require.Equal(t, "alpha\nbeta\n", string(first))
	second, err := os.ReadFile(dir + "/00001")
	require.Nil(t, err)
	require.Equal(t, "gamma\n", string(second))
}
