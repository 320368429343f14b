package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Session binds an opaque token to a display name and room for the
// lifetime of a participant. It survives socket churn: a dropped client
// presents the token again to rebind a fresh socket.
type Session struct {
	ID       string
	Name     string
	RoomCode string
}

// newSessionID generates an unguessable session token.
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
