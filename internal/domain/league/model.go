package league

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

const (
	InviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	minNameLength      = 3
	maxNameLength      = 50
)

var (
	ErrNotMember        = errors.New("not a member of this league")
	ErrNotOwner         = errors.New("only the league owner can do this")
	ErrOwnerCannotLeave = errors.New("league owner cannot leave; delete the league instead")
)

// League is a private group of users ranked against each other.
type League struct {
	ID          string
	Name        string
	OwnerUserID string
	InviteCode  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time

	// MemberCount is filled by listings.
	MemberCount int
}

type Member struct {
	LeagueID string
	UserID   string
	Role     string
	JoinedAt time.Time

	DisplayName string
}

func (l League) IsOwner(userID string) bool {
	return userID != "" && l.OwnerUserID == userID
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < minNameLength || n > maxNameLength {
		return fmt.Errorf("league name must be %d-%d characters", minNameLength, maxNameLength)
	}
	return nil
}

// NewInviteCode draws an unambiguous upper-case code from crypto/rand.
func NewInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	var b strings.Builder
	b.Grow(InviteCodeLength)
	for i := 0; i < InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeInviteCode upper-cases and strips spaces and dashes users tend to type.
func NormalizeInviteCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.NewReplacer(" ", "", "-", "").Replace(code)
}
