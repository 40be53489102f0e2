package team

import (
	"fmt"
	"strings"
	"time"
)

// Team is a football club that appears in fixtures.
type Team struct {
	ID        string
	Name      string
	ShortName string
	LogoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if n := len(strings.TrimSpace(t.ShortName)); n == 0 || n > 5 {
		return fmt.Errorf("team short name must be 1-5 characters")
	}

	return nil
}
