package group

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	common_models "github.com/garden-co/locality/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entity kinds an invite link can point at.
const (
	InviteEntityOrganization = "organization"
	InviteEntityTeam         = "team"
)

// NewInviteSecret returns a high-entropy bearer token (32 random bytes,
// base64url without padding).
func NewInviteSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret returns the hex SHA-256 of a secret; only hashes are persisted.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// EncodeInviteLink renders the interop link format:
// {baseURL}#/invite/{entityType}/{entityId}/{secret}
func EncodeInviteLink(baseURL, entityType string, entityID primitive.ObjectID, secret string) string {
	return fmt.Sprintf("%s#/invite/%s/%s/%s", baseURL, entityType, entityID.Hex(), secret)
}

// ParseInviteLink strips the '#' and parses the three positional path
// segments out of an invite link or its fragment path.
func ParseInviteLink(link string) (entityType string, entityID primitive.ObjectID, secret string, err error) {
	path := link
	if i := strings.Index(path, "#"); i >= 0 {
		path = path[i+1:]
	}
	path = strings.TrimPrefix(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) != 4 || parts[0] != "invite" {
		return "", primitive.NilObjectID, "", common_models.ErrInvalidInvite
	}

	entityType = parts[1]
	if entityType != InviteEntityOrganization && entityType != InviteEntityTeam {
		return "", primitive.NilObjectID, "", common_models.ErrInvalidInvite
	}

	entityID, err = primitive.ObjectIDFromHex(parts[2])
	if err != nil {
		return "", primitive.NilObjectID, "", common_models.ErrInvalidInvite
	}

	secret = parts[3]
	if secret == "" {
		return "", primitive.NilObjectID, "", common_models.ErrInvalidInvite
	}
	return entityType, entityID, secret, nil
}
