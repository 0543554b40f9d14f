package services

import (
	"testing"

	"github.com/example/tiffin/internal/models"
)

var allTransitions = []models.Transition{
	models.TransitionInitiate,
	models.TransitionPartnerConfirm,
	models.TransitionStartDelivery,
	models.TransitionComplete,
	models.TransitionOperatorCancel,
}

func TestSubOrderTransitionFlowExhaustive(t *testing.T) {
	// Every non-initial transition must be an event in the table; the
	// initial state is never applied as an event.
	for _, tr := range allTransitions {
		if tr == models.TransitionInitiate {
			if _, ok := subOrderTransitionFlow[tr]; ok {
				t.Fatalf("%s is the initial state, not an applicable event", tr)
			}
			continue
		}
		if _, ok := subOrderTransitionFlow[tr]; !ok {
			t.Fatalf("transition %s missing from flow table", tr)
		}
	}

	for event, froms := range subOrderTransitionFlow {
		for _, from := range froms {
			if !containsTransition(allTransitions, from) {
				t.Fatalf("flow table for %s references unknown state %s", event, from)
			}
		}
	}
}

func containsTransition(list []models.Transition, tr models.Transition) bool {
	for _, t := range list {
		if t == tr {
			return true
		}
	}
	return false
}

func TestCanApplyTransition(t *testing.T) {
	t.Run("linear workflow in order", func(t *testing.T) {
		steps := []struct {
			from, event models.Transition
		}{
			{models.TransitionInitiate, models.TransitionPartnerConfirm},
			{models.TransitionPartnerConfirm, models.TransitionStartDelivery},
			{models.TransitionStartDelivery, models.TransitionComplete},
		}
		for _, s := range steps {
			if !CanApplyTransition(s.from, s.event) {
				t.Fatalf("%s should be applicable from %s", s.event, s.from)
			}
		}
	})

	t.Run("skipping ahead is rejected", func(t *testing.T) {
		if CanApplyTransition(models.TransitionInitiate, models.TransitionComplete) {
			t.Fatal("COMPLETE_DELIVERY must not apply from INITIATE_TRANSACTION")
		}
		if CanApplyTransition(models.TransitionInitiate, models.TransitionStartDelivery) {
			t.Fatal("START_DELIVERY must not apply from INITIATE_TRANSACTION")
		}
	})

	t.Run("going backwards is rejected", func(t *testing.T) {
		if CanApplyTransition(models.TransitionComplete, models.TransitionStartDelivery) {
			t.Fatal("workflow must not move backwards")
		}
	})

	t.Run("cancel reachable from every non-terminal state", func(t *testing.T) {
		for _, from := range []models.Transition{
			models.TransitionInitiate,
			models.TransitionPartnerConfirm,
			models.TransitionStartDelivery,
		} {
			if !CanApplyTransition(from, models.TransitionOperatorCancel) {
				t.Fatalf("cancel should be applicable from %s", from)
			}
		}
	})

	t.Run("terminal states accept nothing", func(t *testing.T) {
		for _, terminal := range []models.Transition{models.TransitionComplete, models.TransitionOperatorCancel} {
			for _, event := range allTransitions {
				if CanApplyTransition(terminal, event) {
					t.Fatalf("%s should be terminal, but %s applies", terminal, event)
				}
			}
		}
	})
}

func TestParticipantStatusFor(t *testing.T) {
	cases := map[models.Transition]string{
		models.TransitionInitiate:       "",
		models.TransitionPartnerConfirm: "",
		models.TransitionStartDelivery:  "DELIVERING",
		models.TransitionComplete:       "DELIVERED",
		models.TransitionOperatorCancel: "CANCELED",
	}
	for event, want := range cases {
		if got := participantStatusFor(event); got != want {
			t.Fatalf("participantStatusFor(%s) = %q, want %q", event, got, want)
		}
	}
}

func TestTransitionNotificationTypes(t *testing.T) {
	// Every transition except the default emits exactly one notification
	// type.
	for _, tr := range allTransitions {
		notifType, ok := transitionNotificationTypes[tr]
		if tr == models.TransitionInitiate {
			if ok {
				t.Fatal("initial transition must not emit a notification")
			}
			continue
		}
		if !ok || notifType == "" {
			t.Fatalf("transition %s has no notification type", tr)
		}
	}
}

func TestParticipantStatusKey(t *testing.T) {
	got := ParticipantStatusKey("p1", "plan-9", 1700000000000)
	want := "p1 - plan-9 - 1700000000000"
	if got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}
