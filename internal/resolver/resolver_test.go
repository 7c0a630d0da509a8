package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowsync/internal/workflow"
)

func rec(name string, deps ...string) *workflow.Record {
	return &workflow.Record{Name: name, Dependencies: deps}
}

func names(records []*workflow.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func indexOf(t *testing.T, list []string, name string) int {
	t.Helper()
	for i, n := range list {
		if n == name {
			return i
		}
	}
	t.Fatalf("%s not in %v", name, list)
	return -1
}

func TestOrderDependencyBeforeDependent(t *testing.T) {
	ordered, warnings := Order([]*workflow.Record{
		rec("Main", "login"),
		rec("Login"),
	})

	require.Empty(t, warnings)
	got := names(ordered)
	assert.Less(t, indexOf(t, got, "Login"), indexOf(t, got, "Main"))
}

func TestOrderEmitsEveryRecordExactlyOnce(t *testing.T) {
	ordered, _ := Order([]*workflow.Record{
		rec("A", "b", "c"),
		rec("B", "c"),
		rec("C"),
		rec("D"),
	})
	assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, names(ordered))
}

func TestOrderIsDeterministic(t *testing.T) {
	build := func() []*workflow.Record {
		return []*workflow.Record{rec("Zeta"), rec("Alpha", "zeta"), rec("Mid", "zeta")}
	}
	first, _ := Order(build())
	for i := 0; i < 5; i++ {
		again, _ := Order(build())
		assert.Equal(t, names(first), names(again))
	}
}

func TestOrderIgnoresUnknownDependencies(t *testing.T) {
	// Dependencies satisfied purely by pre-existing remote workflows are
	// not the resolver's problem.
	ordered, warnings := Order([]*workflow.Record{rec("Main", "remote only")})
	require.Empty(t, warnings)
	assert.Equal(t, []string{"Main"}, names(ordered))
}

func TestOrderCycleToleratedWithWarning(t *testing.T) {
	ordered, warnings := Order([]*workflow.Record{
		rec("A", "b"),
		rec("B", "a"),
	})

	assert.Len(t, names(ordered), 2)
	assert.ElementsMatch(t, []string{"A", "B"}, names(ordered))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "cycle")
	assert.GreaterOrEqual(t, len(warnings[0].Path), 2)
}

func TestOrderLongerCycle(t *testing.T) {
	ordered, warnings := Order([]*workflow.Record{
		rec("A", "b"),
		rec("B", "c"),
		rec("C", "a"),
		rec("D"),
	})
	assert.Len(t, ordered, 4)
	require.Len(t, warnings, 1)
	assert.Equal(t, warnings[0].Path[0], warnings[0].Path[len(warnings[0].Path)-1])
}

func TestOrderDiamond(t *testing.T) {
	ordered, warnings := Order([]*workflow.Record{
		rec("Top", "left", "right"),
		rec("Left", "base"),
		rec("Right", "base"),
		rec("Base"),
	})

	require.Empty(t, warnings)
	got := names(ordered)
	assert.Less(t, indexOf(t, got, "Base"), indexOf(t, got, "Left"))
	assert.Less(t, indexOf(t, got, "Base"), indexOf(t, got, "Right"))
	assert.Less(t, indexOf(t, got, "Left"), indexOf(t, got, "Top"))
	assert.Less(t, indexOf(t, got, "Right"), indexOf(t, got, "Top"))
}

func TestOrderEmptyInput(t *testing.T) {
	ordered, warnings := Order(nil)
	assert.Empty(t, ordered)
	assert.Empty(t, warnings)
}
