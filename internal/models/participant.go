package models

// Role 定義房間內的參與者角色
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleSystem Role = "system"
)

// ValidParticipantRole 檢查角色是否為可識別的交易方（system 不算）
func ValidParticipantRole(r Role) bool {
	return r == RoleBuyer || r == RoleSeller
}

// Participant 表示一位交易參與者的摘要，只攜帶顯示用資訊與錢包地址
type Participant struct {
	DisplayName string `json:"displayName"`
	Address     string `json:"address,omitempty"`
}
