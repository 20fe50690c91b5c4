package itinerary

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func (c *Client) SavePlan(ctx context.Context, plan *Plan) (*Plan, error) {
	body, err := sonic.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}
	raw, err := c.do(ctx, consts.MethodPost, endpointPlans, body, true)
	if err != nil {
		return nil, err
	}
	var saved Plan
	if err := sonic.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &saved, nil
}

func (c *Client) ListPlans(ctx context.Context) ([]PlanSummary, error) {
	raw, err := c.do(ctx, consts.MethodGet, endpointPlans, nil, true)
	if err != nil {
		return nil, err
	}
	var plans []PlanSummary
	if err := sonic.Unmarshal(raw, &plans); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plans: %w", err)
	}
	return plans, nil
}

func (c *Client) GetPlan(ctx context.Context, id string) (*Plan, error) {
	raw, err := c.do(ctx, consts.MethodGet, endpointPlans+"/"+url.PathEscape(id), nil, true)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := sonic.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

func (c *Client) DeletePlan(ctx context.Context, id string) error {
	_, err := c.do(ctx, consts.MethodDelete, endpointPlans+"/"+url.PathEscape(id), nil, true)
	return err
}
