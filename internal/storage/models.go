package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertRecord captures an emitted alert event for auditing.
type AlertRecord struct {
	ID             int64
	Token          string
	ReferencePrice decimal.Decimal
	NewPrice       decimal.Decimal
	ChangePct      decimal.Decimal
	Direction      string
	TriggeredAt    time.Time
	CreatedAt      time.Time
}
