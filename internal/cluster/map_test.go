package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignAndOwnsSlot(t *testing.T) {
	m := NewMap("node-a")
	require.NoError(t, m.AssignSlot(5, "node-a"))
	require.True(t, m.OwnsSlot(5))
	require.Equal(t, "node-a", m.Owner(5))
}

func TestRouteSingleSlotOwnedLocally(t *testing.T) {
	m := NewMap("node-a")
	require.NoError(t, m.AssignSlot(KeySlot("k"), "node-a"))
	require.NoError(t, m.Route([]string{"k"}))
}

func TestRouteReturnsMovedForRemoteSlot(t *testing.T) {
	m := NewMap("node-a")
	require.NoError(t, m.AssignSlot(KeySlot("k"), "node-b"))
	err := m.Route([]string{"k"})
	require.Error(t, err)
}

func TestRouteCrossSlotRejected(t *testing.T) {
	m := NewMap("node-a")
	err := m.Route([]string{"a", "totally-different-key-xyz"})
	require.Error(t, err)
}

func TestMigrationHandshake(t *testing.T) {
	src := NewMap("node-a")
	dst := NewMap("node-b")
	slot := uint16(42)
	require.NoError(t, src.AssignSlot(slot, "node-a"))

	require.NoError(t, src.BeginMigration(slot, "node-b"))
	require.Equal(t, StateMigrating, src.State(slot))

	require.NoError(t, dst.BeginImport(slot, "node-a"))
	require.Equal(t, StateImporting, dst.State(slot))

	require.NoError(t, src.CompleteMigration(slot))
	require.Equal(t, "node-b", src.Owner(slot))
	require.False(t, src.OwnsSlot(slot))

	require.NoError(t, dst.CompleteMigration(slot))
	require.True(t, dst.OwnsSlot(slot))
}

func TestBeginMigrationRejectsDoubleMigration(t *testing.T) {
	m := NewMap("node-a")
	slot := uint16(1)
	require.NoError(t, m.AssignSlot(slot, "node-a"))
	require.NoError(t, m.BeginMigration(slot, "node-b"))
	require.Error(t, m.BeginMigration(slot, "node-c"))
}

func TestCompleteMigrationWithNoActiveMigrationErrors(t *testing.T) {
	m := NewMap("node-a")
	require.Error(t, m.CompleteMigration(7))
}

func TestOwnedSlotsReflectsAssignments(t *testing.T) {
	m := NewMap("node-a")
	require.NoError(t, m.AssignSlot(1, "node-a"))
	require.NoError(t, m.AssignSlot(2, "node-a"))
	require.NoError(t, m.AssignSlot(3, "node-b"))

	owned := m.OwnedSlots()
	require.ElementsMatch(t, []uint16{1, 2}, owned)
}
