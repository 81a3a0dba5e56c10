package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RecentActivityRequest asks for an owner's latest entries.
type RecentActivityRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// RecentActivityResponse holds entries, newest first.
type RecentActivityResponse struct {
	Entries []Entry `json:"entries"`
}

// ActivityPort reads the activity trail.
type ActivityPort interface {
	Recent(ctx context.Context, ownerID string, limit int) ([]Entry, error)
}

type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates an ActivityPort over the activity module's
// service container.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	return &activityAdapter{container: container}
}

func (a *activityAdapter) Recent(ctx context.Context, ownerID string, limit int) ([]Entry, error) {
	req := RecentActivityRequest{UserID: ownerID, Limit: limit}
	var resp RecentActivityResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"recent-activity",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("recent-activity service call failed: %w", err)
	}
	if resp.Entries == nil {
		resp.Entries = []Entry{}
	}
	return resp.Entries, nil
}
