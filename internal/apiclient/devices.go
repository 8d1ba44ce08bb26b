package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spark-heimdall/heimdall/internal/device"
)

// ListDevices fetches every device. An envelope without data is an empty
// list. The order is the backend's; callers sort.
func (c *Client) ListDevices(ctx context.Context, opts ...CallOption) ([]device.Device, error) {
	raw, err := c.do(ctx, http.MethodGet, "devices", nil, resolveOptions("Failed to fetch devices", opts))
	if err != nil {
		return nil, err
	}
	if isAbsent(raw) {
		return []device.Device{}, nil
	}
	return decodeData[[]device.Device](raw)
}

// AddDevice creates a device and returns it with its server-assigned ID.
func (c *Client) AddDevice(ctx context.Context, d device.NewDevice, opts ...CallOption) (device.Device, error) {
	raw, err := c.do(ctx, http.MethodPost, "devices", d, resolveOptions("Failed to add device", opts))
	if err != nil {
		return device.Device{}, err
	}
	return decodeData[device.Device](raw)
}

// UpdateDevice replaces the device with d.ID and returns the stored record.
func (c *Client) UpdateDevice(ctx context.Context, d device.Device, opts ...CallOption) (device.Device, error) {
	raw, err := c.do(ctx, http.MethodPut, "devices/"+url.PathEscape(d.ID), d, resolveOptions("Failed to update device", opts))
	if err != nil {
		return device.Device{}, err
	}
	return decodeData[device.Device](raw)
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string, opts ...CallOption) error {
	_, err := c.do(ctx, http.MethodDelete, "devices/"+url.PathEscape(id), nil, resolveOptions("Failed to delete device", opts))
	return err
}
