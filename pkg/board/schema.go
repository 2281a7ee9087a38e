package board

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so several
// corkboard deployments can share one Redis server.
//
// Key pattern: corkboard:{instance_name}:board:{board_id}[:{part}]

// BoardKey returns the Redis key for a board hash.
// Pattern: corkboard:{instance_name}:board:{board_id}
func BoardKey(instanceName, boardID string) string {
	return fmt.Sprintf("corkboard:%s:board:%s", instanceName, boardID)
}

// BoardKeyPattern returns the SCAN pattern matching board hashes whose id
// starts with prefix.
func BoardKeyPattern(instanceName, prefix string) string {
	return fmt.Sprintf("corkboard:%s:board:%s*", instanceName, prefix)
}

// HistoryKey returns the Redis key for a board's history list.
// Pattern: corkboard:{instance_name}:board:{board_id}:history
func HistoryKey(instanceName, boardID string) string {
	return fmt.Sprintf("corkboard:%s:board:%s:history", instanceName, boardID)
}

// LocksKey returns the Redis key for a board's lock hash (item id -> user id).
// Pattern: corkboard:{instance_name}:board:{board_id}:locks
func LocksKey(instanceName, boardID string) string {
	return fmt.Sprintf("corkboard:%s:board:%s:locks", instanceName, boardID)
}

// BoardEventsChannel returns the Pub/Sub channel carrying a board's events.
// Pattern: corkboard:{instance_name}:board:{board_id}:events
func BoardEventsChannel(instanceName, boardID string) string {
	return fmt.Sprintf("corkboard:%s:board:%s:events", instanceName, boardID)
}
