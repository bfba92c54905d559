package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrMalformedReferral = errors.New("malformed referral record")

// Referral is a person credited with bringing in orders.
type Referral struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferralID string             `bson:"referral_id" json:"referral_id"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone" json:"phone"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (r *Referral) Validate() error {
	if strings.TrimSpace(r.ReferralID) == "" {
		return fmt.Errorf("%w: empty referral_id", ErrMalformedReferral)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrMalformedReferral)
	}
	return nil
}

// CreateReferralRequest is the payload for registering a referrer.
type CreateReferralRequest struct {
	ReferralID string `json:"referral_id" binding:"required,min=2,max=64"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

// ReferralContact is the contact info surfaced for an order.
type ReferralContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ReferralLookupStatus string

const (
	ReferralFound    ReferralLookupStatus = "found"
	ReferralNotFound ReferralLookupStatus = "not_found"
	ReferralDegraded ReferralLookupStatus = "degraded"
)

// ReferralLookup is the result of joining an order to its referral.
// Referral is nil unless Status is found.
type ReferralLookup struct {
	Status   ReferralLookupStatus `json:"status"`
	Referral *ReferralContact     `json:"referral"`
	Reason   string               `json:"reason,omitempty"`
}
