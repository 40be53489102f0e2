package user

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxDisplayNameLength = 40

// User is a player known to the identity provider. ID is the provider subject.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name returns the display name, falling back to the e-mail local part.
func (u User) Name() string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.ID
}

func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name is required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("display name must be at most %d characters", MaxDisplayNameLength)
	}
	return nil
}
