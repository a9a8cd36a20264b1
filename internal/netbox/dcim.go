package netbox

import (
	"context"
	"fmt"
	"net/http"
)

// ListDevices returns all device records.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	return list[Device](ctx, c, "/api/dcim/devices/")
}

// UpdateDeviceStatus sets a device's status (active/offline).
func (c *Client) UpdateDeviceStatus(ctx context.Context, id int, status string) error {
	body := map[string]any{"status": status}
	return c.patch(ctx, fmt.Sprintf("/api/dcim/devices/%d/", id), body, nil)
}

// ListDeviceRoles returns all device role records.
func (c *Client) ListDeviceRoles(ctx context.Context) ([]DeviceRole, error) {
	return list[DeviceRole](ctx, c, "/api/dcim/device-roles/")
}

// DeviceRoleParams are the writable fields of a device role.
type DeviceRoleParams struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Color       string `json:"color,omitempty"`
	VMRole      bool   `json:"vm_role"`
	Description string `json:"description,omitempty"`
}

// CreateDeviceRole creates a device role.
func (c *Client) CreateDeviceRole(ctx context.Context, params DeviceRoleParams) (*DeviceRole, error) {
	var role DeviceRole
	if err := c.create(ctx, "/api/dcim/device-roles/", params, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// ListMACAddresses returns all MAC address records.
func (c *Client) ListMACAddresses(ctx context.Context) ([]MACAddress, error) {
	return list[MACAddress](ctx, c, "/api/dcim/mac-addresses/")
}

// GetMACAddress fetches one MAC address record by id.
func (c *Client) GetMACAddress(ctx context.Context, id int) (*MACAddress, error) {
	var mac MACAddress
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/dcim/mac-addresses/%d/", id), nil, &mac); err != nil {
		return nil, err
	}
	return &mac, nil
}

// CreateMACAddress creates a MAC address record assigned to a VM interface.
func (c *Client) CreateMACAddress(ctx context.Context, address string, interfaceID int) (*MACAddress, error) {
	body := map[string]any{
		"mac_address":          address,
		"assigned_object_type": VMInterfaceObjectType,
		"assigned_object_id":   interfaceID,
	}
	var mac MACAddress
	if err := c.create(ctx, "/api/dcim/mac-addresses/", body, &mac); err != nil {
		return nil, err
	}
	return &mac, nil
}

// ReassignMACAddress rebinds an existing MAC address record to another VM
// interface.
func (c *Client) ReassignMACAddress(ctx context.Context, id, interfaceID int) (*MACAddress, error) {
	body := map[string]any{
		"assigned_object_type": VMInterfaceObjectType,
		"assigned_object_id":   interfaceID,
	}
	var mac MACAddress
	if err := c.patch(ctx, fmt.Sprintf("/api/dcim/mac-addresses/%d/", id), body, &mac); err != nil {
		return nil, err
	}
	return &mac, nil
}
