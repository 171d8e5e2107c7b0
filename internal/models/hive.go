package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visibility controls discoverability of a Hive.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// MembershipRole is a member's standing within a single Hive. It is
// distinct from Role, which is a global credential claim.
type MembershipRole string

const (
	MembershipOwner      MembershipRole = "OWNER"
	MembershipModerator  MembershipRole = "MODERATOR"
	MembershipMember     MembershipRole = "MEMBER"
)

// Hive is a focus room that members join to co-work. Invariant: the
// member identified by OwnerUserID always holds a Membership with role
// OWNER for as long as the Hive exists.
type Hive struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Slug        string     `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"ownerUserId"`
	Visibility  Visibility `gorm:"size:16;not null;default:PRIVATE" json:"visibility"`
	MaxMembers  int        `gorm:"not null;default:25" json:"maxMembers"`
	Description string     `gorm:"size:500" json:"description"`
	TagsCSV     string     `gorm:"column:tags;size:300" json:"-"`

	Memberships []Membership `gorm:"foreignKey:HiveID" json:"-"`
}

// Tags splits the stored comma-separated tag list into a slice, for
// discovery filtering per SPEC_FULL.md §3.
func (h *Hive) Tags() []string {
	if h.TagsCSV == "" {
		return nil
	}
	return strings.Split(h.TagsCSV, ",")
}

// SetTags joins tags into the stored comma-separated column.
func (h *Hive) SetTags(tags []string) {
	h.TagsCSV = strings.Join(tags, ",")
}

// Membership binds a user to a Hive with a role. Invariants: exactly one
// OWNER membership per hive, and (HiveID, UserID) is unique.
type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HiveID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_hive_user" json:"hiveId"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_hive_user" json:"userId"`
	Role      MembershipRole `gorm:"size:16;not null;default:MEMBER" json:"role"`
	JoinedAt  time.Time      `json:"joinedAt"`
}
