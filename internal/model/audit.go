package model

import "time"

const (
	AuditActionApprove = "identity.approve"
	AuditActionReject  = "identity.reject"
)

// MaxActorIPLength is the width of the stored actor address.
const MaxActorIPLength = 64

type AuditActor struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	IP       string `json:"ip,omitempty"`
}

// AuditEntry records one approval-workflow decision.
type AuditEntry struct {
	Action       string         `json:"action"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Actor        AuditActor     `json:"actor"`
	TargetID     string         `json:"target_id"`
	TargetRole   Role           `json:"target_role"`
	TargetName   string         `json:"target_username"`
	StatusBefore ApprovalStatus `json:"status_before"`
	StatusAfter  ApprovalStatus `json:"status_after,omitempty"`
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
