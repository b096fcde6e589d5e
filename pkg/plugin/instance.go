package plugin

import "context"

// MetadataSymbol is the export every plugin provides to describe its commands.
const MetadataSymbol = "get_metadata"

// Instance is a loaded plugin backend. Implementations are not safe for
// concurrent use; the host serializes calls per plugin.
type Instance interface {
	// Call invokes an exported function with a JSON or UTF-8 payload.
	// MetadataSymbol is called with a nil payload.
	Call(ctx context.Context, symbol string, payload []byte) ([]byte, error)
	// Exports reports whether symbol can be called.
	Exports(symbol string) bool
	Close(ctx context.Context) error
}
