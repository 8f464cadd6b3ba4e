package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// FundType classifies where the money for a request or transaction comes from.
type FundType string

const (
	FundTypeGeneral  FundType = "general"
	FundTypeCampaign FundType = "campaign"
)

func (f FundType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FundType.
func (f FundType) IsValid() bool {
	return f == FundTypeGeneral || f == FundTypeCampaign
}

// ParseFundType converts raw input into a FundType. Empty input means general.
func ParseFundType(value string) (FundType, error) {
	if value == "" {
		return FundTypeGeneral, nil
	}
	f := FundType(value)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid fund_type %q", value)
	}
	return f, nil
}

var (
	ErrCampaignIDRequired  = errors.New("campaign_id is required when fund_type is campaign")
	ErrCampaignIDForbidden = errors.New("campaign_id must be empty when fund_type is general")
)

// ValidateFundAttribution checks the shape of a fund attribution. Existence of the
// campaign is resolved separately.
func ValidateFundAttribution(fundType FundType, campaignID *uuid.UUID) error {
	switch fundType {
	case FundTypeCampaign:
		if campaignID == nil || *campaignID == uuid.Nil {
			return ErrCampaignIDRequired
		}
	case FundTypeGeneral:
		if campaignID != nil {
			return ErrCampaignIDForbidden
		}
	default:
		return fmt.Errorf("invalid fund_type %q", fundType)
	}
	return nil
}

// FundTypeFor derives the classification carried by a transaction from its campaign id.
func FundTypeFor(campaignID *uuid.UUID) FundType {
	if campaignID == nil {
		return FundTypeGeneral
	}
	return FundTypeCampaign
}
