package realtime

import "strings"

const rowsStreamPrefix = "rows."

// Events emitted on realtime streams.
const (
	EventRowChanged = "row.changed"
	EventSubscribed = "subscribed"
	EventPong       = "pong"
)

// RowsStream names the stream carrying changes of table.
func RowsStream(table string) string {
	return rowsStreamPrefix + normalizeStream(table)
}

func allowedStream(stream string) bool {
	return strings.HasPrefix(stream, rowsStreamPrefix) && len(stream) > len(rowsStreamPrefix)
}
