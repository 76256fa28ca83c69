package model

import (
	"time"

	"gorm.io/datatypes"
)

// Ledger entry kinds.
const (
	LedgerCashOut  = "cash_out"
	LedgerAdPayout = "ad_payout"
	LedgerPotEmpty = "pot_empty"
	LedgerRigBuilt = "rig_built"
)

// LedgerEntry records one economic event with the balances right after it.
type LedgerEntry struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID      string         `gorm:"index:idx_ledger_trace;size:36" json:"trace_id"`
	Kind         string         `gorm:"index:idx_ledger_kind;size:32;not null" json:"kind"`
	Amount       float64        `json:"amount"`
	GlobalPot    float64        `json:"global_pot"`
	OwnerBalance float64        `json:"owner_balance"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `gorm:"index:idx_ledger_created;autoCreateTime:milli" json:"created_at"`
}
