package model

// Role is the closed set of participant roles in a worship session.
type Role string

const (
	RoleSession Role = "session"
	RoleLeader  Role = "leader"
	RolePastor  Role = "pastor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSession, RoleLeader, RolePastor:
		return true
	}
	return false
}

// Profile is the in-session identity a participant registers over the
// WebSocket. It is set as a whole; re-registering replaces it, never merges.
type Profile struct {
	Nickname         string   `json:"nickname"`
	Role             Role     `json:"role"`
	Icon             string   `json:"icon"`
	FavoriteCommands []string `json:"favoriteCommands,omitempty"`
}

// StoredProfile is a saved profile in profiles.json (REST surface).
type StoredProfile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Icon     string   `json:"icon,omitempty"`
	Commands []string `json:"commands,omitempty"`
}

// CreateProfileRequest is the body of POST /profiles.
type CreateProfileRequest struct {
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Icon     string   `json:"icon"`
	Commands []string `json:"commands"`
}
