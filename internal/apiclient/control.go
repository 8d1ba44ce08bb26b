package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// ConnectToDevice asks the backend to open a viewer for the device.
func (c *Client) ConnectToDevice(ctx context.Context, id string, opts ...CallOption) error {
	_, err := c.do(ctx, http.MethodPost, "connect/"+url.PathEscape(id), nil, resolveOptions("Failed to connect to device", opts))
	return err
}

// Disconnect closes the active viewer, if any.
func (c *Client) Disconnect(ctx context.Context, opts ...CallOption) error {
	_, err := c.do(ctx, http.MethodPost, "disconnect", nil, resolveOptions("Failed to disconnect", opts))
	return err
}
