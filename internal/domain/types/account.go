package types

// Profile is the small amount of client state remembered per relay between
// runs: the user id to present and the last session joined. Keys and
// messages are never part of it.
type Profile struct {
	RelayURL    string    `json:"relay_url"`
	UserID      UserID    `json:"user_id"`
	LastSession SessionID `json:"last_session,omitempty"`
}
