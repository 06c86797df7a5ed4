package group

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a ranked capability level. Reader < writer < admin form a chain;
// writeOnly sits outside the chain: it grants write, denies read, and is
// never implied by or implies the ranked roles.
type Role string

const (
	RoleReader    Role = "reader"
	RoleWriter    Role = "writer"
	RoleAdmin     Role = "admin"
	RoleWriteOnly Role = "writeOnly"
)

func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleWriter, RoleAdmin, RoleWriteOnly:
		return true
	}
	return false
}

// rank returns the position in the reader<writer<admin chain, 0 for
// writeOnly and unknown roles.
func (r Role) rank() int {
	switch r {
	case RoleReader:
		return 1
	case RoleWriter:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

func (r Role) CanRead() bool {
	return r.rank() >= RoleReader.rank()
}

func (r Role) CanWrite() bool {
	return r.rank() >= RoleWriter.rank() || r == RoleWriteOnly
}

func (r Role) CanAdmin() bool {
	return r == RoleAdmin
}

// Permission is what an operation requires of the caller.
type Permission int

const (
	PermRead Permission = iota
	PermWrite
	PermAdmin
)

func (r Role) Satisfies(p Permission) bool {
	switch p {
	case PermRead:
		return r.CanRead()
	case PermWrite:
		return r.CanWrite()
	case PermAdmin:
		return r.CanAdmin()
	}
	return false
}

// maxRole combines two grants: the higher ranked role wins; writeOnly only
// surfaces when no ranked role is present. A ranked grant therefore
// supersedes writeOnly outright — writeOnly combined with an inherited
// reader resolves to reader, and the write capability is dropped rather
// than promoted to a writer grant nobody issued.
func maxRole(a, b Role) Role {
	if a.rank() == 0 && b.rank() == 0 {
		if a == RoleWriteOnly || b == RoleWriteOnly {
			return RoleWriteOnly
		}
		return ""
	}
	if a.rank() >= b.rank() {
		return a
	}
	return b
}

// Invite is a bearer grant bound to one group and one role. Only the SHA-256
// hash of the secret is stored.
type Invite struct {
	SecretHash string             `bson:"secret_hash" json:"-"`
	Role       Role               `bson:"role" json:"role"`
	SingleUse  bool               `bson:"single_use" json:"single_use"`
	Consumed   bool               `bson:"consumed" json:"consumed"`
	Revoked    bool               `bson:"revoked" json:"revoked"`
	ExpiresAt  time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// GroupRecord is the unit of sharing. Every domain entity is owned by exactly
// one group; extension makes the extending group inherit the extended group's
// grants for present and future members.
type GroupRecord struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Members   map[string]Role      `bson:"members" json:"members"` // keyed by user ID hex
	Extends   []primitive.ObjectID `bson:"extends" json:"extends"`
	Invites   map[string]Invite    `bson:"invites" json:"-"` // keyed by secret hash
	Deleted   bool                 `bson:"deleted" json:"deleted"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}
