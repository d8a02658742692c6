package service

import (
	"errors"

	"p2p_trade/internal/models"
)

// 客戶端可請求的訂單動作
const (
	ActionAccept       = "accept"
	ActionMarkPaid     = "mark_paid"
	ActionMarkReceived = "mark_received"
	ActionCancel       = "cancel"
	ActionAppeal       = "appeal"
)

var (
	ErrUnknownAction  = errors.New("unknown order action")
	ErrRoleNotAllowed = errors.New("role not allowed to perform this action")
	ErrInvalidPhase   = errors.New("action not allowed in current phase")
)

// transition 描述一條轉移規則：必要角色（空值代表雙方皆可）、
// 允許的起始狀態與目標狀態
type transition struct {
	role models.Role
	from []models.OrderStatus
	to   models.OrderStatus
}

var transitions = map[string]transition{
	ActionAccept: {
		role: models.RoleSeller,
		from: []models.OrderStatus{models.StatusAwaitingCounterparty},
		to:   models.StatusAwaitingPayment,
	},
	ActionMarkPaid: {
		role: models.RoleBuyer,
		from: []models.OrderStatus{models.StatusAwaitingPayment},
		to:   models.StatusBuyerPaid,
	},
	ActionMarkReceived: {
		role: models.RoleSeller,
		from: []models.OrderStatus{models.StatusBuyerPaid},
		to:   models.StatusSellerConfirmed,
	},
	ActionCancel: {
		from: []models.OrderStatus{
			models.StatusAwaitingCounterparty,
			models.StatusAwaitingPayment,
			models.StatusBuyerPaid,
		},
		to: models.StatusCancelled,
	},
	ActionAppeal: {
		from: []models.OrderStatus{models.StatusBuyerPaid, models.StatusSellerConfirmed},
		to:   models.StatusAppealed,
	},
}

// actionOrder 固定 AvailableActions 的輸出順序
var actionOrder = []string{ActionAccept, ActionMarkPaid, ActionMarkReceived, ActionCancel, ActionAppeal}

// Transition 是純粹的狀態轉移函數：先檢查角色、再檢查當前階段，
// 任一不符即拒絕且不改變狀態。角色檢查無條件優先，
// 因此買方的 accept 在任何階段都會被拒絕
//
// 賣方的 mark_received 成功後會在同一個動作內立刻級聯到 completed，
// 不需要任何外部確認
func Transition(status models.OrderStatus, role models.Role, action string) (models.OrderStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return status, ErrUnknownAction
	}
	if t.role != "" && t.role != role {
		return status, ErrRoleNotAllowed
	}
	for _, from := range t.from {
		if from == status {
			next := t.to
			if next == models.StatusSellerConfirmed {
				next = models.StatusCompleted
			}
			return next, nil
		}
	}
	return status, ErrInvalidPhase
}

// AvailableActions 計算指定角色在當前狀態下可執行的動作
func AvailableActions(status models.OrderStatus, role models.Role) []string {
	if !models.ValidParticipantRole(role) {
		return nil
	}
	var out []string
	for _, action := range actionOrder {
		t := transitions[action]
		if t.role != "" && t.role != role {
			continue
		}
		for _, from := range t.from {
			if from == status {
				out = append(out, action)
				break
			}
		}
	}
	return out
}
