package lsv

import (
	"context"
	"net/http"
	"time"
)

// Usage summarizes resource consumption for the current billing period.
type Usage struct {
	Documents    int       `json:"documents"`
	StorageBytes int64     `json:"storageBytes"`
	APIRequests  int64     `json:"apiRequests"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`
}

// Subscription describes the account's plan.
type Subscription struct {
	Plan     string    `json:"plan"`
	Seats    int       `json:"seats"`
	Status   string    `json:"status"`
	RenewsAt time.Time `json:"renewsAt"`
}

// BillingService reads account usage and subscription state.
type BillingService struct {
	client *Client
}

// Usage retrieves consumption figures for the current period.
func (s *BillingService) Usage(ctx context.Context) (*Usage, error) {
	var usage Usage
	if err := s.client.do(ctx, http.MethodGet, usagePath, nil, nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// Subscription retrieves the account's current plan.
func (s *BillingService) Subscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := s.client.do(ctx, http.MethodGet, subscriptionPath, nil, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
