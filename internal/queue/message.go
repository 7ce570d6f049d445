package queue

import (
	"fmt"
	"strings"
)

// DispatchMessage is the broker payload for one campaign send job.
type DispatchMessage struct {
	CampaignID    string `json:"campaignId"`
	UserID        string `json:"userId"`
	CorrelationID string `json:"correlationId,omitempty"`
	TestMode      bool   `json:"testMode,omitempty"`
}

func (m DispatchMessage) Validate() error {
	if strings.TrimSpace(m.CampaignID) == "" {
		return fmt.Errorf("campaignId is required")
	}
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	return nil
}
