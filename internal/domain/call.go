package domain

type CallKind string

const (
	CallVoice CallKind = "voice"
	CallVideo CallKind = "video"
)

// PeerState is the negotiation state of one peer connection.
// Keep values stable because they travel through logs and APIs.
type PeerState string

const (
	PeerNew            PeerState = "new"
	PeerOfferSent      PeerState = "offer-sent"
	PeerAnswerReceived PeerState = "answer-received"
	PeerConnected      PeerState = "connected"
	PeerClosed         PeerState = "closed"
	PeerFailed         PeerState = "failed"
)

// Terminal reports whether no further transition may leave the state.
func (s PeerState) Terminal() bool {
	return s == PeerClosed || s == PeerFailed
}
