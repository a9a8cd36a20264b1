// Package sync implements the reconciliation core: snapshot loading,
// identity resolution, conflict arbitration, upserts, incremental diffing
// and pass orchestration.
package sync

import (
	"context"

	"github.com/provirt/pve2netbox/internal/netbox"
	"github.com/provirt/pve2netbox/internal/proxmox"
)

// Source is the Proxmox API surface the reconciliation core consumes.
// *proxmox.Client satisfies it; tests substitute an in-memory fake.
type Source interface {
	ListNodes(ctx context.Context) ([]proxmox.Node, error)
	ListQEMU(ctx context.Context, node string) ([]proxmox.GuestListing, error)
	ListLXC(ctx context.Context, node string) ([]proxmox.GuestListing, error)
	QEMUConfig(ctx context.Context, node string, vmid int) (proxmox.GuestConfig, error)
	LXCConfig(ctx context.Context, node string, vmid int) (proxmox.GuestConfig, error)
	AgentNetworkInterfaces(ctx context.Context, node string, vmid int) ([]proxmox.AgentInterface, error)
	ListPools(ctx context.Context) ([]proxmox.Pool, error)
	ClusterVMResources(ctx context.Context) ([]proxmox.ClusterResource, error)
	NodeReplicationGuests(ctx context.Context, node string) ([]int, error)
	HAServiceIDs(ctx context.Context) ([]int, error)
}

// Store is the NetBox API surface the reconciliation core consumes. All
// downstream mutations flow through it; *netbox.Client satisfies it.
type Store interface {
	ListDevices(ctx context.Context) ([]netbox.Device, error)
	UpdateDeviceStatus(ctx context.Context, id int, status string) error

	ListVirtualMachines(ctx context.Context) ([]netbox.VirtualMachine, error)
	VirtualMachinesBySerial(ctx context.Context, serial string) ([]netbox.VirtualMachine, error)
	GetVirtualMachine(ctx context.Context, id int) (*netbox.VirtualMachine, error)
	CreateVirtualMachine(ctx context.Context, params netbox.VirtualMachineParams) (*netbox.VirtualMachine, error)
	UpdateVirtualMachine(ctx context.Context, id int, params netbox.VirtualMachineParams) (*netbox.VirtualMachine, error)
	DeleteVirtualMachine(ctx context.Context, id int) error
	SetVirtualMachinePrimaryIP4(ctx context.Context, id int, ipID *int) error

	ListInterfaces(ctx context.Context) ([]netbox.VMInterface, error)
	InterfacesForVM(ctx context.Context, vmID int) ([]netbox.VMInterface, error)
	GetInterface(ctx context.Context, id int) (*netbox.VMInterface, error)
	CreateInterface(ctx context.Context, params netbox.InterfaceParams) (*netbox.VMInterface, error)
	UpdateInterface(ctx context.Context, id int, params netbox.InterfaceParams) (*netbox.VMInterface, error)
	SetInterfacePrimaryMAC(ctx context.Context, id int, macID *int) error

	ListMACAddresses(ctx context.Context) ([]netbox.MACAddress, error)
	GetMACAddress(ctx context.Context, id int) (*netbox.MACAddress, error)
	CreateMACAddress(ctx context.Context, address string, interfaceID int) (*netbox.MACAddress, error)
	ReassignMACAddress(ctx context.Context, id, interfaceID int) (*netbox.MACAddress, error)

	ListPrefixes(ctx context.Context) ([]netbox.Prefix, error)
	CreatePrefix(ctx context.Context, cidr string) (*netbox.Prefix, error)
	SetPrefixVLAN(ctx context.Context, id, vlanID int) error

	ListIPAddresses(ctx context.Context) ([]netbox.IPAddress, error)
	IPAddressesForVM(ctx context.Context, vmID int) ([]netbox.IPAddress, error)
	CreateIPAddress(ctx context.Context, params netbox.IPAddressParams) (*netbox.IPAddress, error)
	UpdateIPAddress(ctx context.Context, id int, params netbox.IPAddressParams) (*netbox.IPAddress, error)

	ListVLANs(ctx context.Context) ([]netbox.VLAN, error)
	CreateVLAN(ctx context.Context, vid int, name string) (*netbox.VLAN, error)

	ListVirtualDisks(ctx context.Context) ([]netbox.VirtualDisk, error)
	DisksForVM(ctx context.Context, vmID int) ([]netbox.VirtualDisk, error)
	CreateDisk(ctx context.Context, params netbox.DiskParams) (*netbox.VirtualDisk, error)
	UpdateDisk(ctx context.Context, id int, params netbox.DiskParams) (*netbox.VirtualDisk, error)

	ListTags(ctx context.Context) ([]netbox.Tag, error)
	CreateTag(ctx context.Context, name, slug, description string) (*netbox.Tag, error)

	ListDeviceRoles(ctx context.Context) ([]netbox.DeviceRole, error)
	CreateDeviceRole(ctx context.Context, params netbox.DeviceRoleParams) (*netbox.DeviceRole, error)

	ListCustomFields(ctx context.Context) ([]netbox.CustomField, error)
	CreateCustomField(ctx context.Context, params netbox.CustomFieldParams) (*netbox.CustomField, error)
}
