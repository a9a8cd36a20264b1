package proxmox

import (
	"strconv"
	"strings"
)

// SizeUnknown is returned by ParseDiskSize when the size string cannot be
// parsed. Callers must skip the disk rather than write a garbage size.
const SizeUnknown = -1

// qemuNICModels are the network definition keys that carry the MAC address
// for QEMU guests ("virtio=AA:BB:...", "e1000=AA:BB:..."). LXC containers
// use the explicit "hwaddr" key instead.
var qemuNICModels = []string{"virtio", "e1000"}

// diskSlotPrefixes are the config keys that describe QEMU block devices.
var diskSlotPrefixes = []string{"scsi", "ide", "sata", "virtio", "efidisk"}

// ParseNetworkDefinition parses a Proxmox network interface definition
// string into a key/value map.
//
// Example: "virtio=AA:BB:CC:DD:EE:FF,bridge=vmbr0,tag=100,mtu=9000"
// becomes {"virtio": "AA:BB:CC:DD:EE:FF", "bridge": "vmbr0", "tag": "100",
// "mtu": "9000"}. Components without exactly one "=" are dropped.
func ParseNetworkDefinition(raw string) map[string]string {
	def := make(map[string]string)
	for _, component := range strings.Split(raw, ",") {
		parts := strings.Split(component, "=")
		if len(parts) == 2 {
			def[parts[0]] = parts[1]
		}
	}
	return def
}

// MACFromNetworkDefinition extracts the MAC address from a parsed network
// definition. QEMU models (virtio, e1000) are checked first, then the LXC
// hwaddr key. Returns "" when the definition carries no MAC.
func MACFromNetworkDefinition(def map[string]string) string {
	for _, model := range qemuNICModels {
		if mac, ok := def[model]; ok {
			return mac
		}
	}
	if mac, ok := def["hwaddr"]; ok {
		return mac
	}
	return ""
}

// ParseDiskDefinition parses a Proxmox disk definition string into a
// key/value map. The bare leading component is the storage-assigned volume
// name and is stored under "name".
//
// Example: "local-lvm:vm-100-disk-0,size=32G,backup=1" becomes
// {"name": "local-lvm:vm-100-disk-0", "size": "32G", "backup": "1"}.
func ParseDiskDefinition(raw string) map[string]string {
	def := make(map[string]string)
	for _, component := range strings.Split(raw, ",") {
		parts := strings.Split(component, "=")
		switch len(parts) {
		case 1:
			def["name"] = parts[0]
		case 2:
			def[parts[0]] = parts[1]
		}
	}
	return def
}

// ParseDiskSize converts a Proxmox disk size string ("32G", "1024M",
// "528K", "2T") to whole megabytes. Kilobyte sizes round down but never
// below 1 MB, the NetBox minimum. Returns SizeUnknown when the unit suffix
// is unrecognized or the magnitude is not numeric.
func ParseDiskSize(raw string) int {
	if len(raw) < 2 {
		return SizeUnknown
	}
	magnitude := raw[:len(raw)-1]
	unit := raw[len(raw)-1]

	switch unit {
	case 'K':
		f, err := strconv.ParseFloat(magnitude, 64)
		if err != nil {
			return SizeUnknown
		}
		mb := int(f / 1024)
		if mb < 1 {
			return 1
		}
		return mb
	case 'M':
		n, err := strconv.Atoi(magnitude)
		if err != nil {
			return SizeUnknown
		}
		return n
	case 'G':
		n, err := strconv.Atoi(magnitude)
		if err != nil {
			return SizeUnknown
		}
		return n * 1_000
	case 'T':
		n, err := strconv.Atoi(magnitude)
		if err != nil {
			return SizeUnknown
		}
		return n * 1_000_000
	}
	return SizeUnknown
}

// IsDiskSlot reports whether a QEMU config key describes a block device to
// sync. CD-ROM (ide2), the SCSI controller setting (scsihw) and TPM state
// volumes are excluded.
func IsDiskSlot(key string) bool {
	switch key {
	case "scsihw", "ide2":
		return false
	}
	if strings.HasPrefix(key, "tpm") {
		return false
	}
	for _, prefix := range diskSlotPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
