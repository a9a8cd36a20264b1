package netbox

// Ref is a nested reference to another NetBox object as it appears inside
// API responses. Optional relationships are modeled as *Ref: nil means the
// relationship is absent, never a zero-valued object.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// Status is NetBox's choice-field representation, e.g.
// {"value": "active", "label": "Active"}.
type Status struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// NestedTag is a tag as embedded in other objects' tag lists.
type NestedTag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Device is a physical host record (a Proxmox node maps to one device).
// Devices must pre-exist in NetBox; the sync only flips their status.
type Device struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Site   *Ref   `json:"site"`
}

// VMCustomFields are the custom attributes this tool maintains on virtual
// machine records. Pointers distinguish "unset in NetBox" from false.
type VMCustomFields struct {
	Autostart  *bool `json:"autostart"`
	Replicated *bool `json:"replicated"`
	HA         *bool `json:"ha"`
}

// VirtualMachine is the downstream record of one Proxmox guest. Serial
// carries the source vmid and is immutable once created.
type VirtualMachine struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Serial       string         `json:"serial"`
	Status       Status         `json:"status"`
	Site         *Ref           `json:"site"`
	Cluster      *Ref           `json:"cluster"`
	Device       *Ref           `json:"device"`
	Role         *Ref           `json:"role"`
	VCPUs        float64        `json:"vcpus"`
	Memory       int            `json:"memory"`
	PrimaryIP4   *Ref           `json:"primary_ip4"`
	PrimaryIP6   *Ref           `json:"primary_ip6"`
	Tags         []NestedTag    `json:"tags"`
	CustomFields VMCustomFields `json:"custom_fields"`
}

// IsOffline reports whether the record's status is offline. Used by the
// conflict arbiter to decide whether an address donor is safe to rob.
func (vm *VirtualMachine) IsOffline() bool {
	return vm.Status.Value == "offline"
}

// VMInterface is a virtual machine network interface.
type VMInterface struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	VirtualMachine    Ref    `json:"virtual_machine"`
	MTU               *int   `json:"mtu"`
	PrimaryMACAddress *Ref   `json:"primary_mac_address"`
}

// MACAddress is a globally unique MAC record, bound to at most one
// interface at a time.
type MACAddress struct {
	ID                 int    `json:"id"`
	MACAddress         string `json:"mac_address"`
	AssignedObjectType string `json:"assigned_object_type"`
	AssignedObjectID   *int   `json:"assigned_object_id"`
}

// IPAddress is an address+mask record, unique per (address, VRF) pair.
type IPAddress struct {
	ID                 int    `json:"id"`
	Address            string `json:"address"`
	Status             Status `json:"status"`
	AssignedObjectType string `json:"assigned_object_type"`
	AssignedObjectID   *int   `json:"assigned_object_id"`
	DNSName            string `json:"dns_name"`
	VRF                *Ref   `json:"vrf"`
}

// PrefixCustomFields carries the dns_name custom field used to derive
// hostnames for addresses inside the prefix.
type PrefixCustomFields struct {
	DNSName *string `json:"dns_name"`
}

// Prefix is a network prefix container.
type Prefix struct {
	ID           int                `json:"id"`
	Prefix       string             `json:"prefix"`
	VLAN         *Ref               `json:"vlan"`
	VRF          *Ref               `json:"vrf"`
	CustomFields PrefixCustomFields `json:"custom_fields"`
}

// VLAN is a layer 2 VLAN record.
type VLAN struct {
	ID   int    `json:"id"`
	VID  int    `json:"vid"`
	Name string `json:"name"`
}

// DiskCustomFields carries the backup custom field on virtual disks.
type DiskCustomFields struct {
	Backup *bool `json:"backup"`
}

// VirtualDisk is a guest block device, identified by its storage-assigned
// volume name within the owning guest.
type VirtualDisk struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	VirtualMachine Ref              `json:"virtual_machine"`
	Size           int              `json:"size"`
	CustomFields   DiskCustomFields `json:"custom_fields"`
}

// Tag is a free-form label; Proxmox pools surface as "Pool/<poolid>" tags.
type Tag struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// DeviceRole classifies devices and virtual machines.
type DeviceRole struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Color  string `json:"color"`
	VMRole bool   `json:"vm_role"`
}

// CustomField is a schema-level custom field definition.
type CustomField struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        Status   `json:"type"`
	ObjectTypes []string `json:"object_types"`
	Description string   `json:"description"`
}

// VMInterfaceObjectType is the content type NetBox uses for MAC and IP
// assignment to virtual machine interfaces.
const VMInterfaceObjectType = "virtualization.vminterface"
