package domain

type (
	GroupID   string
	GroupName string
)

type Group struct {
	ID              GroupID   `json:"id"`
	Name            GroupName `json:"name"`
	Subject         string    `json:"subject,omitempty"`
	OwnerID         UserID    `json:"owner_id"`
	IsPrivate       bool      `json:"is_private"`
	MaxParticipants int       `json:"max_participants,omitempty"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership is one (user, group, role) row from the external store.
type Membership struct {
	UserID  UserID  `json:"user_id"`
	GroupID GroupID `json:"study_group_id"`
	Role    Role    `json:"role"`
}
