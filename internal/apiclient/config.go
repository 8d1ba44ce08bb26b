package apiclient

import (
	"context"
	"net/http"

	"github.com/spark-heimdall/heimdall/internal/settings"
)

// GetConfig fetches the backend configuration.
func (c *Client) GetConfig(ctx context.Context, opts ...CallOption) (settings.AppConfig, error) {
	raw, err := c.do(ctx, http.MethodGet, "config", nil, resolveOptions("Failed to fetch config", opts))
	if err != nil {
		return settings.AppConfig{}, err
	}
	return decodeData[settings.AppConfig](raw)
}

// UpdateConfig sends a partial configuration. Only the fields set in u are
// changed on the backend.
func (c *Client) UpdateConfig(ctx context.Context, u settings.Update, opts ...CallOption) error {
	_, err := c.do(ctx, http.MethodPut, "config", u, resolveOptions("Failed to update config", opts))
	return err
}
