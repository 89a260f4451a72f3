package basecamp

import (
	"context"
	"encoding/json"
	"fmt"
)

func (c *Client) Overview(ctx context.Context, clubID string) ([]OverviewResult, error) {
	raws, err := c.FetchPaginated(ctx, ResourceOverview, map[string]string{"club": clubID})
	if err != nil {
		return nil, err
	}
	return DecodeAll[OverviewResult](raws)
}

func (c *Client) Progress(ctx context.Context, clubID string) ([]ProgressResult, error) {
	raws, err := c.FetchPaginated(ctx, ResourceProgress, map[string]string{"club": clubID})
	if err != nil {
		return nil, err
	}
	return DecodeAll[ProgressResult](raws)
}

func (c *Client) ProgressDetail(ctx context.Context, courseID, username string) (ProgressDetail, error) {
	raw, err := c.Fetch(ctx, ResourceProgressDetail, map[string]string{
		"course": courseID,
		"user":   username,
	})
	if err != nil {
		return ProgressDetail{}, err
	}

	var detail ProgressDetail
	err = json.Unmarshal(raw, &detail)
	if err != nil {
		return ProgressDetail{}, fmt.Errorf("decode progress detail: %w", err)
	}
	return detail, nil
}

func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	raw, err := c.Fetch(ctx, ResourceProfile, map[string]string{"user": userID})
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	err = json.Unmarshal(raw, &profile)
	if err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}
