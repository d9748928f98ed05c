package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPNotifier posts the confirmation trigger to the email service.
type HTTPNotifier struct {
	client *resty.Client
	url    string
}

func NewHTTPNotifier(url string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json"),
		url: url,
	}
}

func (n *HTTPNotifier) SendConfirmation(ctx context.Context, msg ConfirmationMessage) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post confirmation for booking %s: %w", msg.BookingID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("email service returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
