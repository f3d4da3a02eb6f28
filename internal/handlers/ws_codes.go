// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the gateway. These give clients a
// more specific reason for closure than the standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidRoomError      = 3003 // Target room does not exist.
)
