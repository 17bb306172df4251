// Package signal defines the signaling wire format and the client transport.
// Envelopes travel over a WebSocket relay; the server delivers targeted
// envelopes in order per participant pair.
package signal

import "encoding/json"

type Kind string

const (
	KindJoin         Kind = "join"
	KindLeave        Kind = "leave"
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindICECandidate Kind = "ice-candidate"
	KindPing         Kind = "ping"
	KindPong         Kind = "pong"
	KindRename       Kind = "rename"
	KindWhoAmI       Kind = "whoami"
	KindError        Kind = "error"

	// Server-originated notifications.
	KindChannelState Kind = "channel_state"
	KindPeerJoined   Kind = "peer_joined"
	KindPeerLeft     Kind = "peer_left"
)

// Envelope is one signaling message. From is stamped by the server; To
// selects the target participant for offer/answer/candidate routing.
type Envelope struct {
	Type    Kind            `json:"type"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Group   string          `json:"group,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type SDPPayload struct {
	SDP string `json:"sdp"`
}

type CandidatePayload struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid,omitempty"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`
}

type PeerPayload struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
}

type ChannelStatePayload struct {
	Group string        `json:"group"`
	Peers []PeerPayload `json:"peers"`
	Count int           `json:"count"`
}

// NewEnvelope marshals payload into an envelope of the given kind.
func NewEnvelope(kind Kind, to, group string, payload any) (Envelope, error) {
	env := Envelope{Type: kind, To: to, Group: group}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		env.Payload = b
	}
	return env, nil
}
