package models

import (
	"time"

	"github.com/google/uuid"
)

// PresenceStatus is the observable state of a user within a single Hive.
type PresenceStatus string

const (
	StatusOnline   PresenceStatus = "ONLINE"
	StatusAway     PresenceStatus = "AWAY"
	StatusFocusing PresenceStatus = "FOCUSING"
	StatusOffline  PresenceStatus = "OFFLINE"
)

// ClientKind identifies what kind of client opened a DeviceSession.
type ClientKind string

const (
	ClientWeb     ClientKind = "WEB"
	ClientMobile  ClientKind = "MOBILE"
	ClientDesktop ClientKind = "DESKTOP"
)

// DeviceSession is one live connection. It is owned by exactly one
// Presence record and is removed on disconnect or stale sweep.
type DeviceSession struct {
	DeviceID      string     `json:"deviceId"`
	ConnectionID  string     `json:"connectionId"`
	ConnectedAt   time.Time  `json:"connectedAt"`
	LastHeartbeat time.Time  `json:"lastHeartbeat"`
	ClientKind    ClientKind `json:"clientKind"`
}

// Presence is the keyed-by-(UserID,HiveID) record held in the
// distributed key-value store. It is created on first connect and
// destroyed after the configured retention window following the last
// device disappearing.
type Presence struct {
	UserID           uuid.UUID       `json:"userId"`
	HiveID           uuid.UUID       `json:"hiveId"`
	Status           PresenceStatus  `json:"status"`
	Devices          []DeviceSession `json:"devices"`
	LastHeartbeat    time.Time       `json:"lastHeartbeat"`
	CurrentSessionID *uuid.UUID      `json:"currentSessionId,omitempty"`

	// Version is incremented on every mutation of this record. Mutations
	// are serialized by presence.Core's per-record lock and written with
	// an unconditional Set; the store performs no compare-and-set on it.
	Version int64 `json:"version"`
}

// HasDevice reports whether connectionID is currently attached.
func (p *Presence) HasDevice(connectionID string) bool {
	for _, d := range p.Devices {
		if d.ConnectionID == connectionID {
			return true
		}
	}
	return false
}

// RemoveDevice removes the session with the given connectionID, reporting
// whether anything was removed.
func (p *Presence) RemoveDevice(connectionID string) bool {
	for i, d := range p.Devices {
		if d.ConnectionID == connectionID {
			p.Devices = append(p.Devices[:i], p.Devices[i+1:]...)
			return true
		}
	}
	return false
}
