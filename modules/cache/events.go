package cache

// Event type constants for cache module events.
const (
	EventTypeCacheConnected    = "com.modkit.cache.connected"
	EventTypeCacheDisconnected = "com.modkit.cache.disconnected"
)

// EngineEventData is the payload of the connection events.
type EngineEventData struct {
	Engine string `json:"engine"`
	Error  string `json:"error,omitempty"`
}
