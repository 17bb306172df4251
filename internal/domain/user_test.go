package domain

import (
	"strings"
	"testing"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		wantErr  error
	}{
		{"ok", "Alice M", nil},
		{"empty", "", ErrFullNameEmpty},
		{"too long", strings.Repeat("a", MaxFullNameLen+1), ErrFullNameTooLong},
		{"at limit", strings.Repeat("a", MaxFullNameLen), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser("a@b.c", tt.fullName)
			if err != tt.wantErr {
				t.Fatalf("NewUser() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && u.ID == "" {
				t.Error("NewUser() produced empty id")
			}
		})
	}
}

func TestSetFullName(t *testing.T) {
	u := &User{ID: "u1", FullName: "old"}
	if err := u.SetFullName(""); err != ErrFullNameEmpty {
		t.Errorf("SetFullName(\"\") error = %v", err)
	}
	if u.FullName != "old" {
		t.Error("rejected rename mutated the user")
	}
	if err := u.SetFullName("new"); err != nil || u.FullName != "new" {
		t.Errorf("SetFullName(new) = %v, name %q", err, u.FullName)
	}
}

func TestPeerStateTerminal(t *testing.T) {
	tests := []struct {
		state PeerState
		want  bool
	}{
		{PeerNew, false},
		{PeerOfferSent, false},
		{PeerAnswerReceived, false},
		{PeerConnected, false},
		{PeerClosed, true},
		{PeerFailed, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
