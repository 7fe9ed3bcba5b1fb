package interfaces

import domaintypes "nexus/internal/domain/types"

// ProfileStore persists one client profile per relay between runs.
type ProfileStore interface {
	SaveProfile(p domaintypes.Profile) error
	LoadProfile(relayURL string) (domaintypes.Profile, bool, error)
}
