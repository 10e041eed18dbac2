package models

import "testing"

func TestElectionPhaseNext(t *testing.T) {
	cases := []struct {
		phase    ElectionPhase
		wantNext ElectionPhase
		wantOK   bool
	}{
		{PhaseDraft, PhaseOpenForCandidacy, true},
		{PhaseOpenForCandidacy, PhaseVotingOpen, true},
		{PhaseVotingOpen, PhaseVotingClosed, true},
		{PhaseVotingClosed, PhaseResultsPublished, true},
		{PhaseResultsPublished, "", false},
	}

	for _, tc := range cases {
		next, ok := tc.phase.Next()
		if ok != tc.wantOK || next != tc.wantNext {
			t.Errorf("Next(%s) = (%s, %v), want (%s, %v)", tc.phase, next, ok, tc.wantNext, tc.wantOK)
		}
	}
}

func TestElectionPhaseCanTransitionTo(t *testing.T) {
	phases := []ElectionPhase{
		PhaseDraft, PhaseOpenForCandidacy, PhaseVotingOpen, PhaseVotingClosed, PhaseResultsPublished,
	}

	for i, from := range phases {
		for j, to := range phases {
			got := from.CanTransitionTo(to)
			want := j == i+1 // только шаг вперёд на одну фазу
			if got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestElectionPhaseValid(t *testing.T) {
	if !PhaseVotingOpen.Valid() {
		t.Errorf("expected voting_open to be a valid phase")
	}
	for _, bad := range []ElectionPhase{"", "archived", "VOTING_OPEN"} {
		if bad.Valid() {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestUserRoleAndStatusValid(t *testing.T) {
	for _, role := range []UserRole{RoleAdmin, RoleCandidate, RoleVoter, RoleSpectator} {
		if !role.Valid() {
			t.Errorf("expected role %q to be valid", role)
		}
	}
	if UserRole("superuser").Valid() {
		t.Errorf("expected unknown role to be rejected")
	}
	if UserStatus("disabled").Valid() {
		t.Errorf("expected unknown status to be rejected")
	}
}
