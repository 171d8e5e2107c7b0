package presence

import (
	"sync"

	"github.com/google/uuid"
)

type presenceLocator struct {
	hiveID uuid.UUID
	userID uuid.UUID
}

// connIndex maps a live connectionID to the Presence record it belongs
// to, mirroring the teacher's Hub.conns map keyed the other direction
// (userID -> connections); here it is keyed by connection since
// OnHeartbeat/OnDisconnect are addressed by connectionID alone.
type connIndex struct {
	mu   sync.RWMutex
	byID map[string]presenceLocator
}

func newConnIndex() *connIndex {
	return &connIndex{byID: make(map[string]presenceLocator)}
}

func (c *connIndex) put(connectionID string, hiveID, userID uuid.UUID) {
	c.mu.Lock()
	c.byID[connectionID] = presenceLocator{hiveID: hiveID, userID: userID}
	c.mu.Unlock()
}

func (c *connIndex) get(connectionID string) (presenceLocator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.byID[connectionID]
	return loc, ok
}

func (c *connIndex) delete(connectionID string) {
	c.mu.Lock()
	delete(c.byID, connectionID)
	c.mu.Unlock()
}

// all returns a snapshot of every tracked connection, used by StaleSweep
// to find DeviceSessions whose heartbeat has lapsed.
func (c *connIndex) all() map[string]presenceLocator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]presenceLocator, len(c.byID))
	for k, v := range c.byID {
		out[k] = v
	}
	return out
}
