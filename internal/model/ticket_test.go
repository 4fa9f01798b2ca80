package model

import "testing"

func TestTicketStatusTransitions(t *testing.T) {
	cases := []struct {
		from TicketStatus
		to   TicketStatus
		want bool
	}{
		{TicketValid, TicketUsed, true},
		{TicketValid, TicketCancelled, true},
		{TicketValid, TicketValid, false},
		{TicketUsed, TicketValid, false},
		{TicketUsed, TicketCancelled, false},
		{TicketCancelled, TicketUsed, false},
		{TicketCancelled, TicketValid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTicketStatusValid(t *testing.T) {
	for _, s := range []TicketStatus{TicketValid, TicketUsed, TicketCancelled} {
		if !s.Valid() {
			t.Errorf("%s should be a known status", s)
		}
	}
	if TicketStatus("refunded").Valid() {
		t.Error("unknown status accepted")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAdmin} {
		if !r.Valid() {
			t.Errorf("%s should be a known role", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("unknown role accepted")
	}
}
