package domain

// Participant is one user's presence inside a voice room.
// PeerID is the peer-signaling address clients use to set up a
// direct media path; the media itself never passes through here.
type Participant struct {
	User   User   `json:"user"`
	PeerID string `json:"peerId"`
}
