package gateway

import (
	"context"
	"fmt"
)

// RecommendationGateway suggests posts and accounts for a user.
type RecommendationGateway interface {
	SuggestedPosts(ctx context.Context, userID uint) ([]uint, error)
	SuggestedFollows(ctx context.Context, userID uint) ([]uint, error)
}

func (c *Client) SuggestedPosts(ctx context.Context, userID uint) ([]uint, error) {
	return c.ids(ctx, "suggestedposts", userID)
}

func (c *Client) SuggestedFollows(ctx context.Context, userID uint) ([]uint, error) {
	return c.ids(ctx, "suggestedfollows", userID)
}

func (c *Client) ids(ctx context.Context, endpoint string, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := c.call(ctx, endpoint, "GET", fmt.Sprintf("/%s/%d", endpoint, userID), nil, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}
