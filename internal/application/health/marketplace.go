package health

import (
	"context"

	"givehub-backend/internal/domain"

	"gorm.io/gorm"
)

// MarketplaceSnapshot summarizes the bidding lifecycle for the status page.
type MarketplaceSnapshot struct {
	OpenRequests         int64            `json:"openRequests"`
	PendingQuotations    int64            `json:"pendingQuotations"`
	TransactionsByStatus map[string]int64 `json:"transactionsByStatus"`
	Donations            int64            `json:"donations"`
}

// Snapshot counts open requests, unaccepted quotations on them, transactions per status
// and recorded donations.
func Snapshot(ctx context.Context, db *gorm.DB) (MarketplaceSnapshot, error) {
	snap := MarketplaceSnapshot{TransactionsByStatus: map[string]int64{}}
	db = db.WithContext(ctx)

	if err := db.Model(&domain.Request{}).Where("status = ?", domain.RequestStatusOpen).Count(&snap.OpenRequests).Error; err != nil {
		return snap, err
	}
	if err := db.Model(&domain.Quotation{}).
		Joins("JOIN requests ON requests.id = quotations.request_id").
		Where("requests.status = ? AND quotations.is_accepted = ?", domain.RequestStatusOpen, false).
		Count(&snap.PendingQuotations).Error; err != nil {
		return snap, err
	}

	var rows []struct {
		Status string
		N      int64
	}
	if err := db.Model(&domain.Transaction{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return snap, err
	}
	for _, s := range domain.AllTransactionStatuses() {
		snap.TransactionsByStatus[s.String()] = 0
	}
	for _, r := range rows {
		snap.TransactionsByStatus[r.Status] = r.N
	}

	if err := db.Model(&domain.Donation{}).Count(&snap.Donations).Error; err != nil {
		return snap, err
	}
	return snap, nil
}
