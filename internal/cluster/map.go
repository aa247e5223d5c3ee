package cluster

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"

	"github.com/emberkv/emberkv/kverrors"
)

// MigrationState tracks a slot's position in the migrate/import
// handshake, per spec.md §4.12.
type MigrationState int

const (
	// StateStable means the slot isn't involved in any migration.
	StateStable MigrationState = iota
	// StateMigrating means this node owns the slot but is exporting
	// its keys to another node.
	StateMigrating
	// StateImporting means this node is receiving the slot's keys
	// from another node but doesn't yet own it for routing purposes.
	StateImporting
)

// slotInfo is one slot's ownership and migration bookkeeping.
type slotInfo struct {
	owner    string // node ID
	state    MigrationState
	peer     string // migration target (Migrating) or source (Importing)
}

// Map is a node's view of the full 16384-slot space: which node owns
// each slot, and which slots it owns itself (tracked redundantly in a
// bitset.BitSet for O(1) "do I own this slot" checks).
type Map struct {
	selfID string
	slots  [NumSlots]slotInfo
	owned  *bitset.BitSet
}

// NewMap creates an empty map for a node identified by selfID; every
// slot starts unassigned (owner "").
func NewMap(selfID string) *Map {
	return &Map{selfID: selfID, owned: bitset.New(NumSlots)}
}

// AssignSlot sets slot's owner unconditionally (used during initial
// cluster bootstrap or after a completed migration).
func (m *Map) AssignSlot(slot uint16, node string) error {
	if slot >= NumSlots {
		return kverrors.ClusterError(kverrors.KindClusterInvalidSlot, "cluster: invalid slot")
	}
	m.slots[slot].owner = node
	m.slots[slot].state = StateStable
	m.slots[slot].peer = ""
	if node == m.selfID {
		m.owned.Set(uint(slot))
	} else {
		m.owned.Clear(uint(slot))
	}
	return nil
}

// Owner returns the node ID that currently owns slot for routing
// purposes (the pre-migration owner while StateMigrating is active).
func (m *Map) Owner(slot uint16) string {
	if slot >= NumSlots {
		return ""
	}
	return m.slots[slot].owner
}

// OwnsSlot reports whether this node is the routing owner of slot.
func (m *Map) OwnsSlot(slot uint16) bool {
	return slot < NumSlots && m.owned.Test(uint(slot))
}

// BeginMigration marks slot as migrating away from this node to
// target. Fails if a migration is already active for the slot or if
// this node doesn't own it.
func (m *Map) BeginMigration(slot uint16, target string) error {
	if slot >= NumSlots {
		return kverrors.ClusterError(kverrors.KindClusterInvalidSlot, "cluster: invalid slot")
	}
	info := &m.slots[slot]
	if info.owner != m.selfID {
		return kverrors.ClusterError(kverrors.KindClusterInvalidSlot, "cluster: cannot migrate a slot this node does not own")
	}
	if info.state != StateStable {
		return kverrors.ClusterError(kverrors.KindClusterMigrating, "cluster: migration already active for slot")
	}
	info.state = StateMigrating
	info.peer = target
	return nil
}

// BeginImport marks slot as being imported from source. The slot's
// owner doesn't change until CompleteMigration is called on the other
// side and this node calls AssignSlot for itself.
func (m *Map) BeginImport(slot uint16, source string) error {
	if slot >= NumSlots {
		return kverrors.ClusterError(kverrors.KindClusterInvalidSlot, "cluster: invalid slot")
	}
	info := &m.slots[slot]
	if info.state != StateStable {
		return kverrors.ClusterError(kverrors.KindClusterMigrating, "cluster: migration already active for slot")
	}
	info.state = StateImporting
	info.peer = source
	return nil
}

// CompleteMigration finalizes a migration: slot's ownership moves to
// its migration peer and its state returns to Stable.
func (m *Map) CompleteMigration(slot uint16) error {
	if slot >= NumSlots {
		return kverrors.ClusterError(kverrors.KindClusterInvalidSlot, "cluster: invalid slot")
	}
	info := &m.slots[slot]
	if info.state == StateStable {
		return kverrors.ClusterError(kverrors.KindClusterMigrating, "cluster: no active migration for slot")
	}
	newOwner := info.peer
	if info.state == StateImporting {
		newOwner = m.selfID
	}
	return m.AssignSlot(slot, newOwner)
}

// State returns a slot's current migration state.
func (m *Map) State(slot uint16) MigrationState {
	if slot >= NumSlots {
		return StateStable
	}
	return m.slots[slot].state
}

// Route resolves where a request touching keys should go. It returns
// a kverrors.KindClusterCrossSlot error if keys span more than one
// slot, a KindClusterMovedSlot error naming the owning node if this
// node doesn't own the (single) slot, and nil when the request can be
// served locally.
func (m *Map) Route(keys []string) error {
	slots := SlotsForKeys(keys)
	if len(slots) > 1 {
		return kverrors.ClusterError(kverrors.KindClusterCrossSlot, "cluster: operation spans multiple slots")
	}
	if len(slots) == 0 {
		return nil
	}
	slot := slots[0]
	if m.OwnsSlot(slot) {
		return nil
	}
	owner := m.Owner(slot)
	if owner == "" {
		return kverrors.ClusterError(kverrors.KindClusterDown, "cluster: slot has no assigned owner")
	}
	return kverrors.ClusterError(kverrors.KindClusterMovedSlot, "cluster: "+owner).WithField("slot", strconv.Itoa(int(slot))).WithField("target_node", owner)
}

// OwnedSlots returns every slot number this node currently owns.
func (m *Map) OwnedSlots() []uint16 {
	var out []uint16
	for i, e := m.owned.NextSet(0); e; i, e = m.owned.NextSet(i + 1) {
		out = append(out, uint16(i))
	}
	return out
}
