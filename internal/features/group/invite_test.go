package group

import (
	"errors"
	"strings"
	"testing"

	common_models "github.com/garden-co/locality/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestInviteLinkRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	secret, err := NewInviteSecret()
	if err != nil {
		t.Fatalf("NewInviteSecret: %v", err)
	}

	link := EncodeInviteLink("https://app.example.com/", InviteEntityTeam, id, secret)

	entityType, entityID, parsedSecret, err := ParseInviteLink(link)
	if err != nil {
		t.Fatalf("ParseInviteLink(%q): %v", link, err)
	}
	if entityType != InviteEntityTeam {
		t.Errorf("entityType = %q, want team", entityType)
	}
	if entityID != id {
		t.Errorf("entityID = %s, want %s", entityID.Hex(), id.Hex())
	}
	if parsedSecret != secret {
		t.Errorf("secret = %q, want %q", parsedSecret, secret)
	}
}

func TestParseInviteLinkFragmentOnly(t *testing.T) {
	id := primitive.NewObjectID()

	_, entityID, _, err := ParseInviteLink("/invite/organization/" + id.Hex() + "/s3cret")
	if err != nil {
		t.Fatalf("ParseInviteLink: %v", err)
	}
	if entityID != id {
		t.Errorf("entityID = %s, want %s", entityID.Hex(), id.Hex())
	}
}

func TestParseInviteLinkRejectsMalformed(t *testing.T) {
	valid := primitive.NewObjectID().Hex()

	links := []string{
		"",
		"https://app.example.com/#/invite",
		"#/invite/organization/" + valid,
		"#/invite/project/" + valid + "/secret",
		"#/invite/team/not-an-id/secret",
		"#/invite/team/" + valid + "/",
		"#/welcome/team/" + valid + "/secret",
	}

	for _, link := range links {
		if _, _, _, err := ParseInviteLink(link); !errors.Is(err, common_models.ErrInvalidInvite) {
			t.Errorf("ParseInviteLink(%q): err = %v, want ErrInvalidInvite", link, err)
		}
	}
}

func TestInviteSecretsAreUniqueAndUnpadded(t *testing.T) {
	a, _ := NewInviteSecret()
	b, _ := NewInviteSecret()
	if a == b {
		t.Error("two secrets collided")
	}
	if strings.Contains(a, "=") {
		t.Errorf("secret %q contains padding", a)
	}
	if HashSecret(a) == HashSecret(b) {
		t.Error("hashes collided")
	}
	if len(HashSecret(a)) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(HashSecret(a)))
	}
}
