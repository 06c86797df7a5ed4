package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserProfile is the public identity attached to every account. Other
// entities reference profiles by ID only.
type UserProfile struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	AvatarURL    string             `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

func ValidateProfile(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("please enter a name")
	}
	if strings.TrimSpace(email) == "" {
		return errors.New("please enter an email")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("please enter a valid email address")
	}
	return nil
}
