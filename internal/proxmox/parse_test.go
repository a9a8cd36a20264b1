package proxmox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDiskSize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"gigabytes", "32G", 32000},
		{"megabytes", "1024M", 1024},
		{"kilobytes round down", "528K", 1},
		{"kilobytes below minimum clamp to 1MB", "4K", 1},
		{"terabytes", "2T", 2000000},
		{"large kilobytes", "2048000K", 2000},
		{"unknown unit", "32X", SizeUnknown},
		{"non-numeric magnitude", "xxG", SizeUnknown},
		{"empty", "", SizeUnknown},
		{"single char", "G", SizeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDiskSize(tt.raw))
		})
	}
}

func TestParseNetworkDefinition(t *testing.T) {
	def := ParseNetworkDefinition("virtio=AA:BB:CC:DD:EE:FF,bridge=vmbr0,tag=100,mtu=9000")
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", def["virtio"])
	assert.Equal(t, "vmbr0", def["bridge"])
	assert.Equal(t, "100", def["tag"])
	assert.Equal(t, "9000", def["mtu"])
}

func TestParseNetworkDefinitionDropsMalformedComponents(t *testing.T) {
	def := ParseNetworkDefinition("bridge=vmbr0,bare,key=val=extra")
	assert.Equal(t, "vmbr0", def["bridge"])
	assert.NotContains(t, def, "bare")
	assert.NotContains(t, def, "key")
}

func TestMACFromNetworkDefinition(t *testing.T) {
	tests := []struct {
		name     string
		def      map[string]string
		expected string
	}{
		{"virtio model", map[string]string{"virtio": "AA:BB:CC:DD:EE:01"}, "AA:BB:CC:DD:EE:01"},
		{"e1000 model", map[string]string{"e1000": "AA:BB:CC:DD:EE:02"}, "AA:BB:CC:DD:EE:02"},
		{"lxc hwaddr", map[string]string{"hwaddr": "AA:BB:CC:DD:EE:03", "name": "eth0"}, "AA:BB:CC:DD:EE:03"},
		{"virtio wins over hwaddr", map[string]string{"virtio": "AA:BB:CC:DD:EE:04", "hwaddr": "AA:BB:CC:DD:EE:05"}, "AA:BB:CC:DD:EE:04"},
		{"no mac", map[string]string{"bridge": "vmbr0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MACFromNetworkDefinition(tt.def))
		})
	}
}

func TestParseDiskDefinition(t *testing.T) {
	def := ParseDiskDefinition("local-lvm:vm-100-disk-0,size=32G,backup=1")
	assert.Equal(t, "local-lvm:vm-100-disk-0", def["name"])
	assert.Equal(t, "32G", def["size"])
	assert.Equal(t, "1", def["backup"])
}

func TestParseDiskDefinitionWithoutBackupFlag(t *testing.T) {
	def := ParseDiskDefinition("local-zfs:subvol-101-disk-0,size=8G")
	assert.Equal(t, "local-zfs:subvol-101-disk-0", def["name"])
	assert.Equal(t, "8G", def["size"])
	_, ok := def["backup"]
	assert.False(t, ok)
}

func TestIsDiskSlot(t *testing.T) {
	tests := []struct {
		key      string
		expected bool
	}{
		{"scsi0", true},
		{"scsi12", true},
		{"ide0", true},
		{"sata1", true},
		{"virtio0", true},
		{"efidisk0", true},
		{"ide2", false},   // CD-ROM
		{"scsihw", false}, // controller setting
		{"tpmstate0", false},
		{"net0", false},
		{"memory", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDiskSlot(tt.key))
		})
	}
}
