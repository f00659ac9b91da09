package redis

import "strconv"

const (
	// KeyPrefixSnapshot is the prefix for persisted snapshot slices
	KeyPrefixSnapshot = "tally:snapshot:"
	// KeyPrefixThumbnail is the prefix for cached input thumbnails
	KeyPrefixThumbnail = "tally:thumbnail:"
	// KeyActions is the list of recent operator actions
	KeyActions = "tally:actions"
)

// Snapshot parts stored under their own key.
const (
	PartChannels = "channels"
	PartAlerts   = "alerts"
	PartInputs   = "inputs"
	PartHealth   = "health"
	PartMeta     = "meta"
)

// snapshotParts lists every part in the order LoadSnapshot reads them.
var snapshotParts = []string{PartMeta, PartChannels, PartAlerts, PartInputs, PartHealth}

// SnapshotKey returns the Redis key for one part of the snapshot
func SnapshotKey(part string) string {
	return KeyPrefixSnapshot + part
}

// ThumbnailKey returns the Redis key for an input thumbnail
func ThumbnailKey(inputID int) string {
	return KeyPrefixThumbnail + strconv.Itoa(inputID)
}

// ActionsKey returns the key for the operator action list
func ActionsKey() string {
	return KeyActions
}
