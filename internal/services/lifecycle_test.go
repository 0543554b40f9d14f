package services

import (
	"testing"

	"gorm.io/datatypes"

	"github.com/example/tiffin/internal/models"
)

var allOrderStates = []models.OrderState{
	models.OrderStateDraft,
	models.OrderStatePendingApproval,
	models.OrderStatePicking,
	models.OrderStateInProgress,
	models.OrderStateCompleted,
	models.OrderStateCanceled,
	models.OrderStateCanceledByBooker,
}

func TestOrderStateFlowExhaustive(t *testing.T) {
	for _, state := range allOrderStates {
		if _, ok := orderStateFlow[state]; !ok {
			t.Fatalf("state %s missing from flow table", state)
		}
	}
	if len(orderStateFlow) != len(allOrderStates) {
		t.Fatalf("flow table has %d entries, enum has %d", len(orderStateFlow), len(allOrderStates))
	}
	for state, targets := range orderStateFlow {
		for _, target := range targets {
			if _, ok := orderStateFlow[target]; !ok {
				t.Fatalf("flow for %s references unknown state %s", state, target)
			}
		}
	}
}

func TestCanReachOrderState(t *testing.T) {
	t.Run("picking reaches inProgress and canceled only", func(t *testing.T) {
		if !CanReachOrderState(models.OrderStatePicking, models.OrderStateInProgress) {
			t.Fatal("picking -> inProgress should be reachable")
		}
		if !CanReachOrderState(models.OrderStatePicking, models.OrderStateCanceled) {
			t.Fatal("picking -> canceled should be reachable")
		}
		if CanReachOrderState(models.OrderStatePicking, models.OrderStateDraft) {
			t.Fatal("picking -> draft must be rejected")
		}
	})

	t.Run("terminal states reach nothing", func(t *testing.T) {
		for _, terminal := range []models.OrderState{
			models.OrderStateCompleted,
			models.OrderStateCanceled,
			models.OrderStateCanceledByBooker,
		} {
			for _, target := range allOrderStates {
				if CanReachOrderState(terminal, target) {
					t.Fatalf("%s should be terminal, but reaches %s", terminal, target)
				}
			}
		}
	})
}

func TestCanCancelOrder(t *testing.T) {
	cancelable := map[models.OrderState]bool{
		models.OrderStateDraft:            false,
		models.OrderStatePendingApproval:  true,
		models.OrderStatePicking:          true,
		models.OrderStateInProgress:       true,
		models.OrderStateCompleted:        false,
		models.OrderStateCanceled:         false,
		models.OrderStateCanceledByBooker: false,
	}
	for state, want := range cancelable {
		order := &models.Order{OrderState: state}
		if got := CanCancelOrder(order); got != want {
			t.Fatalf("CanCancelOrder(%s) = %v, want %v", state, got, want)
		}
	}
}

func TestCanEditOrder(t *testing.T) {
	t.Run("group order in picking is still editable", func(t *testing.T) {
		order := &models.Order{OrderState: models.OrderStatePicking, OrderType: models.OrderTypeGroup}
		if !CanEditOrder(order) {
			t.Fatal("group order in picking should be editable")
		}
	})

	t.Run("normal order in picking is not", func(t *testing.T) {
		order := &models.Order{OrderState: models.OrderStatePicking, OrderType: models.OrderTypeNormal}
		if CanEditOrder(order) {
			t.Fatal("normal order in picking must not be editable")
		}
	})

	t.Run("in progress is locked for both types", func(t *testing.T) {
		for _, typ := range []models.OrderType{models.OrderTypeGroup, models.OrderTypeNormal} {
			order := &models.Order{OrderState: models.OrderStateInProgress, OrderType: typ}
			if CanEditOrder(order) {
				t.Fatalf("%s order in progress must not be editable", typ)
			}
		}
	})
}

func pickingOrder(typ models.OrderType) *models.Order {
	return &models.Order{OrderState: models.OrderStatePicking, OrderType: typ}
}

func subWithMembers(members map[string]models.MemberOrder) models.SubOrder {
	return models.SubOrder{
		MemberOrders:   datatypes.NewJSONType(members),
		LastTransition: models.TransitionInitiate,
	}
}

func TestCanStartOrder(t *testing.T) {
	confirmed := map[string]models.MemberOrder{"p1": {FoodID: "f1"}}
	pending := map[string]models.MemberOrder{"p1": {FoodID: ""}}
	mixed := map[string]models.MemberOrder{"p1": {FoodID: "f1"}, "p2": {FoodID: ""}}

	t.Run("requires picking state", func(t *testing.T) {
		order := &models.Order{OrderState: models.OrderStateDraft, OrderType: models.OrderTypeGroup}
		if CanStartOrder(order, []models.SubOrder{subWithMembers(confirmed)}) {
			t.Fatal("draft order must not start")
		}
	})

	t.Run("requires at least one sub-order", func(t *testing.T) {
		if CanStartOrder(pickingOrder(models.OrderTypeGroup), nil) {
			t.Fatal("order with no sub-orders must not start")
		}
	})

	t.Run("group needs one confirmed selection per sub-order", func(t *testing.T) {
		order := pickingOrder(models.OrderTypeGroup)
		if !CanStartOrder(order, []models.SubOrder{subWithMembers(mixed)}) {
			t.Fatal("group sub-order with one confirmed selection should pass")
		}
		if CanStartOrder(order, []models.SubOrder{subWithMembers(pending)}) {
			t.Fatal("group sub-order with no confirmed selection must fail")
		}
	})

	t.Run("normal needs every selection resolved", func(t *testing.T) {
		order := pickingOrder(models.OrderTypeNormal)
		if CanStartOrder(order, []models.SubOrder{subWithMembers(mixed)}) {
			t.Fatal("normal sub-order with an unresolved selection must fail")
		}
		if !CanStartOrder(order, []models.SubOrder{subWithMembers(confirmed)}) {
			t.Fatal("normal sub-order with all selections resolved should pass")
		}
	})

	t.Run("one incomplete sub-order blocks the whole order", func(t *testing.T) {
		order := pickingOrder(models.OrderTypeGroup)
		subs := []models.SubOrder{subWithMembers(confirmed), subWithMembers(pending)}
		if CanStartOrder(order, subs) {
			t.Fatal("an incomplete sub-order must block the start")
		}
	})
}

func TestShouldManagePicking(t *testing.T) {
	inProgress := &models.Order{OrderState: models.OrderStateInProgress}

	t.Run("true while a sub-order lags behind", func(t *testing.T) {
		subs := []models.SubOrder{
			{LastTransition: models.TransitionComplete},
			{LastTransition: models.TransitionPartnerConfirm},
		}
		if !ShouldManagePicking(inProgress, subs) {
			t.Fatal("picking management should remain relevant")
		}
	})

	t.Run("false once every sub-order moved past confirmation", func(t *testing.T) {
		subs := []models.SubOrder{
			{LastTransition: models.TransitionStartDelivery},
			{LastTransition: models.TransitionComplete},
		}
		if ShouldManagePicking(inProgress, subs) {
			t.Fatal("picking management should be over")
		}
	})

	t.Run("false outside inProgress", func(t *testing.T) {
		order := &models.Order{OrderState: models.OrderStatePicking}
		subs := []models.SubOrder{{LastTransition: models.TransitionInitiate}}
		if ShouldManagePicking(order, subs) {
			t.Fatal("only inProgress orders manage picking")
		}
	})
}
