// Package board is the state-reconciliation core of the corkboard collaborative
// whiteboard: the board data model, a pure reducer that applies board events and
// derives their inverses, and a history log folded so undo works per logical edit.
//
// # Overview
//
// A Board holds an ordered list of items (notes, texts, images and containers).
// Clients and the collaboration server exchange events ("item.add", "item.move",
// ...) over a single ordered stream per board. Every event goes through Reduce,
// which returns a new board and the event that undoes it:
//
//	next, undo := board.Reduce(b, board.MoveItem{
//		BoardID: b.ID,
//		Items:   []board.ItemPosition{{ID: noteID, X: 10, Y: 0}},
//	})
//	if next == b {
//		// nothing changed
//	}
//
// ReduceWithHistory also keeps the history log. Consecutive moves or updates of
// the same items fold into one entry, so dragging a note across the board is a
// single undo step from the pre-drag to the final position:
//
//	state := board.BoardWithHistory{Board: b}
//	state, _ = board.ReduceWithHistory(state, move1)
//	state, _ = board.ReduceWithHistory(state, move2)
//	// len(state.History) == 1
//
// Lock events ("item.lock", "item.unlock", "board.locks") never change the board
// or the history; ReduceLocks folds them into an ItemLocks table.
//
// # Containers
//
// Containment is a weak back-reference: a Note, Text or Image may carry the id
// of a Container. Deleting a container clears the references on its contents
// (and the inverse restores them); deleting a contained item leaves the container
// alone. Board.ContainerOf resolves a reference through the board's items.
//
// # Loading documents
//
// Stored documents may predate the current format. Migrate (and DecodeBoard,
// Board.UnmarshalJSON, Client.GetBoard) normalize them: default sizes and types,
// legacy container item lists turned into back-references, duplicate ids dropped
// with a warning.
//
// # Redis Schema
//
// Client persists boards in Redis and relays events over Pub/Sub. All keys are
// namespaced by instance name:
//
// Board: corkboard:{instance_name}:board:{board_id}
// History: corkboard:{instance_name}:board:{board_id}:history
// Locks: corkboard:{instance_name}:board:{board_id}:locks
//
// Event channel: corkboard:{instance_name}:board:{board_id}:events
//
// # Ordering
//
// The core assumes events for one board arrive in the order the server
// sequenced them. Nothing here reorders events; out-of-order delivery is
// applied as received.
package board
