package netbox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// VirtualMachineParams are the writable fields of a virtual machine record.
// Zero values are omitted; Tags is a pointer so an explicit empty list can
// replace the record's tag set.
type VirtualMachineParams struct {
	Name         string         `json:"name,omitempty"`
	Serial       string         `json:"serial,omitempty"`
	Site         int            `json:"site,omitempty"`
	Cluster      int            `json:"cluster,omitempty"`
	Device       int            `json:"device,omitempty"`
	Role         int            `json:"role,omitempty"`
	VCPUs        int            `json:"vcpus,omitempty"`
	Memory       int            `json:"memory,omitempty"`
	Status       string         `json:"status,omitempty"`
	Tags         *[]int         `json:"tags,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// ListVirtualMachines returns all virtual machine records.
func (c *Client) ListVirtualMachines(ctx context.Context) ([]VirtualMachine, error) {
	return list[VirtualMachine](ctx, c, "/api/virtualization/virtual-machines/")
}

// VirtualMachinesBySerial returns the virtual machines whose serial equals
// the given value. At most one should exist; the slice form mirrors the
// filter endpoint.
func (c *Client) VirtualMachinesBySerial(ctx context.Context, serial string) ([]VirtualMachine, error) {
	path := "/api/virtualization/virtual-machines/?serial=" + url.QueryEscape(serial)
	return list[VirtualMachine](ctx, c, path)
}

// GetVirtualMachine fetches one virtual machine record by id.
func (c *Client) GetVirtualMachine(ctx context.Context, id int) (*VirtualMachine, error) {
	var vm VirtualMachine
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/virtualization/virtual-machines/%d/", id), nil, &vm); err != nil {
		return nil, err
	}
	return &vm, nil
}

// CreateVirtualMachine creates a virtual machine record.
func (c *Client) CreateVirtualMachine(ctx context.Context, params VirtualMachineParams) (*VirtualMachine, error) {
	var vm VirtualMachine
	if err := c.create(ctx, "/api/virtualization/virtual-machines/", params, &vm); err != nil {
		return nil, err
	}
	return &vm, nil
}

// UpdateVirtualMachine applies a partial update to a virtual machine
// record.
func (c *Client) UpdateVirtualMachine(ctx context.Context, id int, params VirtualMachineParams) (*VirtualMachine, error) {
	var vm VirtualMachine
	if err := c.patch(ctx, fmt.Sprintf("/api/virtualization/virtual-machines/%d/", id), params, &vm); err != nil {
		return nil, err
	}
	return &vm, nil
}

// DeleteVirtualMachine deletes a virtual machine record.
func (c *Client) DeleteVirtualMachine(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("/api/virtualization/virtual-machines/%d/", id))
}

// SetVirtualMachinePrimaryIP4 sets or clears (nil) a virtual machine's
// primary IPv4 reference.
func (c *Client) SetVirtualMachinePrimaryIP4(ctx context.Context, id int, ipID *int) error {
	body := map[string]any{"primary_ip4": ipID}
	return c.patch(ctx, fmt.Sprintf("/api/virtualization/virtual-machines/%d/", id), body, nil)
}

// InterfaceParams are the writable fields of a VM interface.
type InterfaceParams struct {
	VirtualMachine int    `json:"virtual_machine,omitempty"`
	Name           string `json:"name,omitempty"`
	MTU            int    `json:"mtu,omitempty"`
}

// ListInterfaces returns all VM interface records.
func (c *Client) ListInterfaces(ctx context.Context) ([]VMInterface, error) {
	return list[VMInterface](ctx, c, "/api/virtualization/interfaces/")
}

// InterfacesForVM returns the interfaces owned by one virtual machine.
func (c *Client) InterfacesForVM(ctx context.Context, vmID int) ([]VMInterface, error) {
	path := fmt.Sprintf("/api/virtualization/interfaces/?virtual_machine_id=%d", vmID)
	return list[VMInterface](ctx, c, path)
}

// GetInterface fetches one VM interface by id.
func (c *Client) GetInterface(ctx context.Context, id int) (*VMInterface, error) {
	var iface VMInterface
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/virtualization/interfaces/%d/", id), nil, &iface); err != nil {
		return nil, err
	}
	return &iface, nil
}

// CreateInterface creates a VM interface.
func (c *Client) CreateInterface(ctx context.Context, params InterfaceParams) (*VMInterface, error) {
	var iface VMInterface
	if err := c.create(ctx, "/api/virtualization/interfaces/", params, &iface); err != nil {
		return nil, err
	}
	return &iface, nil
}

// UpdateInterface applies a partial update to a VM interface.
func (c *Client) UpdateInterface(ctx context.Context, id int, params InterfaceParams) (*VMInterface, error) {
	var iface VMInterface
	if err := c.patch(ctx, fmt.Sprintf("/api/virtualization/interfaces/%d/", id), params, &iface); err != nil {
		return nil, err
	}
	return &iface, nil
}

// SetInterfacePrimaryMAC sets or clears (nil) an interface's primary MAC
// address reference.
func (c *Client) SetInterfacePrimaryMAC(ctx context.Context, id int, macID *int) error {
	body := map[string]any{"primary_mac_address": macID}
	return c.patch(ctx, fmt.Sprintf("/api/virtualization/interfaces/%d/", id), body, nil)
}

// DiskParams are the writable fields of a virtual disk.
type DiskParams struct {
	VirtualMachine int            `json:"virtual_machine,omitempty"`
	Name           string         `json:"name,omitempty"`
	Size           int            `json:"size,omitempty"`
	CustomFields   map[string]any `json:"custom_fields,omitempty"`
}

// ListVirtualDisks returns all virtual disk records.
func (c *Client) ListVirtualDisks(ctx context.Context) ([]VirtualDisk, error) {
	return list[VirtualDisk](ctx, c, "/api/virtualization/virtual-disks/")
}

// DisksForVM returns the virtual disks owned by one virtual machine.
func (c *Client) DisksForVM(ctx context.Context, vmID int) ([]VirtualDisk, error) {
	path := fmt.Sprintf("/api/virtualization/virtual-disks/?virtual_machine_id=%d", vmID)
	return list[VirtualDisk](ctx, c, path)
}

// CreateDisk creates a virtual disk record.
func (c *Client) CreateDisk(ctx context.Context, params DiskParams) (*VirtualDisk, error) {
	var disk VirtualDisk
	if err := c.create(ctx, "/api/virtualization/virtual-disks/", params, &disk); err != nil {
		return nil, err
	}
	return &disk, nil
}

// UpdateDisk applies a partial update to a virtual disk record.
func (c *Client) UpdateDisk(ctx context.Context, id int, params DiskParams) (*VirtualDisk, error) {
	var disk VirtualDisk
	if err := c.patch(ctx, fmt.Sprintf("/api/virtualization/virtual-disks/%d/", id), params, &disk); err != nil {
		return nil, err
	}
	return &disk, nil
}
