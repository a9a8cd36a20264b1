package proxmox

import (
	"encoding/json"
	"strconv"
	"strings"
)

// GuestKind distinguishes the two Proxmox guest types.
type GuestKind string

const (
	KindQEMU GuestKind = "qemu"
	KindLXC  GuestKind = "lxc"
)

// Node is one cluster member as returned by /nodes.
type Node struct {
	Node   string `json:"node"`
	Status string `json:"status"` // online / offline
}

// GuestListing is the cheap per-guest row returned by the node-level QEMU
// and LXC listings. These are the only fields the incremental differ may
// rely on.
type GuestListing struct {
	VMID    int    `json:"vmid"`
	Name    string `json:"name"`
	Status  string `json:"status"` // running / stopped
	MaxMem  int64  `json:"maxmem"`
	MaxDisk int64  `json:"maxdisk"`
}

// Pool is a Proxmox resource pool.
type Pool struct {
	PoolID string `json:"poolid"`
}

// ClusterResource is one row of /cluster/resources?type=vm. The Tags field
// carries Proxmox native free-form tags; they are intentionally not applied
// downstream.
type ClusterResource struct {
	VMID int    `json:"vmid"`
	Pool string `json:"pool"`
	Tags string `json:"tags"`
	Type string `json:"type"`
}

// ReplicationJob is one row of a node's replication job listing.
type ReplicationJob struct {
	Guest int `json:"guest"`
}

// HAResource is one row of /cluster/ha/status/current.
type HAResource struct {
	Type string `json:"type"` // quorum / master / service
	SID  string `json:"sid"`  // e.g. "vm:100", "ct:101"
}

// AgentIPAddress is one address reported by the QEMU guest agent.
type AgentIPAddress struct {
	Address string `json:"ip-address"`
	Type    string `json:"ip-address-type"` // ipv4 / ipv6
	Prefix  int    `json:"prefix"`
}

// AgentInterface is one OS-level interface reported by the QEMU guest
// agent.
type AgentInterface struct {
	Name            string           `json:"name"`
	HardwareAddress string           `json:"hardware-address"`
	IPAddresses     []AgentIPAddress `json:"ip-addresses"`
}

// GuestConfig is the full configuration of one guest, a flat map of config
// keys to values. The Proxmox API mixes numbers and strings freely here, so
// the typed accessors below own all coercion.
type GuestConfig map[string]json.RawMessage

func (c GuestConfig) str(key string) string {
	raw, ok := c[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (c GuestConfig) num(key string) (int, bool) {
	s := c.str(key)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// Has reports whether the config carries the given key.
func (c GuestConfig) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Hostname returns the LXC hostname setting, or "" when unset.
func (c GuestConfig) Hostname() string { return c.str("hostname") }

// Memory returns the configured memory in MB, or def when unset or
// unparseable.
func (c GuestConfig) Memory(def int) int {
	if n, ok := c.num("memory"); ok {
		return n
	}
	return def
}

// OnBoot reports whether the guest autostarts with its node.
func (c GuestConfig) OnBoot() bool {
	n, ok := c.num("onboot")
	return ok && n == 1
}

// AgentEnabled reports whether the QEMU guest agent option is on. Proxmox
// stores either "1" or an option string like "1,fstrim_cloned_disks=1".
func (c GuestConfig) AgentEnabled() bool {
	s := c.str("agent")
	return s == "1" || strings.HasPrefix(s, "1")
}

// VCPUs returns the guest's vCPU count: the explicit vcpus setting when
// present, otherwise cores times sockets with each defaulting to 1.
func (c GuestConfig) VCPUs() int {
	if n, ok := c.num("vcpus"); ok {
		return n
	}
	cores, ok := c.num("cores")
	if !ok {
		cores = 1
	}
	sockets, ok := c.num("sockets")
	if !ok {
		sockets = 1
	}
	return cores * sockets
}

// Cores returns the configured core count, or def when unset. LXC
// containers have no sockets dimension.
func (c GuestConfig) Cores(def int) int {
	if n, ok := c.num("cores"); ok {
		return n
	}
	return def
}

// NetworkSlots returns the net0..netN config entries as slot → raw
// definition string, e.g. "net0" → "virtio=AA:BB:...,bridge=vmbr0".
func (c GuestConfig) NetworkSlots() map[string]string {
	slots := make(map[string]string)
	for key := range c {
		if strings.HasPrefix(key, "net") {
			slots[key] = c.str(key)
		}
	}
	return slots
}

// DiskSlots returns the QEMU block device entries (scsi0, ide0, sata0,
// virtio0, efidisk0, ...) as slot → raw definition string, excluding
// CD-ROM, controller and TPM keys.
func (c GuestConfig) DiskSlots() map[string]string {
	slots := make(map[string]string)
	for key := range c {
		if IsDiskSlot(key) {
			slots[key] = c.str(key)
		}
	}
	return slots
}

// MountSlots returns the LXC filesystem entries: rootfs plus mp0..mpN.
func (c GuestConfig) MountSlots() map[string]string {
	slots := make(map[string]string)
	if c.Has("rootfs") {
		slots["rootfs"] = c.str("rootfs")
	}
	for key := range c {
		if strings.HasPrefix(key, "mp") {
			slots[key] = c.str(key)
		}
	}
	return slots
}
