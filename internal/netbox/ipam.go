package netbox

import (
	"context"
	"fmt"
)

// ListPrefixes returns all prefix records.
func (c *Client) ListPrefixes(ctx context.Context) ([]Prefix, error) {
	return list[Prefix](ctx, c, "/api/ipam/prefixes/")
}

// CreatePrefix creates a prefix container for the given CIDR.
func (c *Client) CreatePrefix(ctx context.Context, cidr string) (*Prefix, error) {
	body := map[string]any{"prefix": cidr}
	var prefix Prefix
	if err := c.create(ctx, "/api/ipam/prefixes/", body, &prefix); err != nil {
		return nil, err
	}
	return &prefix, nil
}

// SetPrefixVLAN associates a VLAN with a prefix.
func (c *Client) SetPrefixVLAN(ctx context.Context, id, vlanID int) error {
	body := map[string]any{"vlan": vlanID}
	return c.patch(ctx, fmt.Sprintf("/api/ipam/prefixes/%d/", id), body, nil)
}

// IPAddressParams are the writable fields of an IP address record. VRF is
// a pointer so the global table (nil) stays distinguishable from a VRF id.
type IPAddressParams struct {
	Address            string `json:"address,omitempty"`
	AssignedObjectType string `json:"assigned_object_type,omitempty"`
	AssignedObjectID   int    `json:"assigned_object_id,omitempty"`
	DNSName            string `json:"dns_name,omitempty"`
	VRF                *int   `json:"vrf,omitempty"`
}

// ListIPAddresses returns all IP address records.
func (c *Client) ListIPAddresses(ctx context.Context) ([]IPAddress, error) {
	return list[IPAddress](ctx, c, "/api/ipam/ip-addresses/")
}

// IPAddressesForVM returns the IP addresses assigned to one virtual
// machine's interfaces.
func (c *Client) IPAddressesForVM(ctx context.Context, vmID int) ([]IPAddress, error) {
	path := fmt.Sprintf("/api/ipam/ip-addresses/?virtual_machine_id=%d", vmID)
	return list[IPAddress](ctx, c, path)
}

// CreateIPAddress creates an IP address record.
func (c *Client) CreateIPAddress(ctx context.Context, params IPAddressParams) (*IPAddress, error) {
	var ip IPAddress
	if err := c.create(ctx, "/api/ipam/ip-addresses/", params, &ip); err != nil {
		return nil, err
	}
	return &ip, nil
}

// UpdateIPAddress applies a partial update to an IP address record.
func (c *Client) UpdateIPAddress(ctx context.Context, id int, params IPAddressParams) (*IPAddress, error) {
	var ip IPAddress
	if err := c.patch(ctx, fmt.Sprintf("/api/ipam/ip-addresses/%d/", id), params, &ip); err != nil {
		return nil, err
	}
	return &ip, nil
}

// ListVLANs returns all VLAN records.
func (c *Client) ListVLANs(ctx context.Context) ([]VLAN, error) {
	return list[VLAN](ctx, c, "/api/ipam/vlans/")
}

// CreateVLAN creates a VLAN record.
func (c *Client) CreateVLAN(ctx context.Context, vid int, name string) (*VLAN, error) {
	body := map[string]any{"vid": vid, "name": name}
	var vlan VLAN
	if err := c.create(ctx, "/api/ipam/vlans/", body, &vlan); err != nil {
		return nil, err
	}
	return &vlan, nil
}
