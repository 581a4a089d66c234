package gateway

import "context"

// ModerationGateway classifies user text.
type ModerationGateway interface {
	CheckSpam(ctx context.Context, text string) (bool, error)
}

type checkSpamRequest struct {
	Text string `json:"text"`
}

type checkSpamResponse struct {
	IsSpam bool   `json:"isSpam"`
	Text   string `json:"text"`
}

// CheckSpam posts text to /checkspam.
func (c *Client) CheckSpam(ctx context.Context, text string) (bool, error) {
	var resp checkSpamResponse
	if err := c.call(ctx, "checkspam", "POST", "/checkspam", checkSpamRequest{Text: text}, &resp); err != nil {
		return false, err
	}
	return resp.IsSpam, nil
}
