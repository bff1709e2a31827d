package domain

import (
	"strings"
	"testing"
	"time"
)

func TestTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusRinging, false},
		{StatusActive, false},
		{StatusDeclined, true},
		{StatusMissed, true},
		{StatusEnded, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusRinging, StatusActive}:   true,
		{StatusRinging, StatusDeclined}: true,
		{StatusRinging, StatusMissed}:   true,
		{StatusActive, StatusEnded}:     true,
	}
	all := []Status{StatusRinging, StatusActive, StatusDeclined, StatusMissed, StatusEnded}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestDuration(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	answered := created.Add(5 * time.Second)
	ended := answered.Add(42 * time.Second)

	s := &CallSession{CreatedAt: created, AnsweredAt: &answered, UpdatedAt: ended}
	if got := s.Duration(); got != 42 {
		t.Errorf("Duration = %d, want 42", got)
	}

	never := &CallSession{CreatedAt: created, UpdatedAt: ended}
	if got := never.Duration(); got != 0 {
		t.Errorf("Duration without answer = %d, want 0", got)
	}
}

func TestNewSessionID(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	id := NewSessionID(now, "a1b2c3")
	if !strings.HasPrefix(id, "call_") {
		t.Errorf("id = %q, want call_ prefix", id)
	}
	if !strings.HasSuffix(id, "_a1b2c3") {
		t.Errorf("id = %q, want random suffix at the end", id)
	}
	if id != NewSessionID(now, "a1b2c3") {
		t.Error("same inputs must produce the same id")
	}
	if id == NewSessionID(now, "d4e5f6") {
		t.Error("different suffixes must produce different ids")
	}
}
