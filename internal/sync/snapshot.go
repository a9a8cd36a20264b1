package sync

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/netbox"
)

// Scope selects what the snapshot loader fetches: the full inventory or
// only the records belonging to a set of source guest ids.
type Scope struct {
	All   bool
	VMIDs []int
}

// ScopeAll loads the full downstream inventory.
func ScopeAll() Scope { return Scope{All: true} }

// ScopeGuests loads only the records related to the given source vmids.
func ScopeGuests(vmids []int) Scope { return Scope{VMIDs: vmids} }

// Snapshot is the in-memory index of downstream records one pass works
// against. It is owned by the single sync goroutine; upserts keep it
// current as they write.
type Snapshot struct {
	// Devices by lowercased name.
	Devices map[string]*netbox.Device
	// Guests by serial (the source vmid as a string).
	Guests map[string]*netbox.VirtualMachine
	// Interfaces by owning guest id, then by both config-slot name and
	// OS-reported name.
	Interfaces map[int]map[string]*netbox.VMInterface
	// MACs by normalized (uppercased) address.
	MACs map[string]*netbox.MACAddress
	// Prefixes by CIDR string.
	Prefixes map[string]*netbox.Prefix
	// IPs by address string (with mask).
	IPs map[string]*netbox.IPAddress
	// VLANs by numeric id, as string.
	VLANs map[string]*netbox.VLAN
	// Disks by owning guest id, then disk name.
	Disks map[int]map[string]*netbox.VirtualDisk
	// Tags by name.
	Tags map[string]*netbox.Tag
	// Roles by name and by id string.
	Roles map[string]*netbox.DeviceRole
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Devices:    make(map[string]*netbox.Device),
		Guests:     make(map[string]*netbox.VirtualMachine),
		Interfaces: make(map[int]map[string]*netbox.VMInterface),
		MACs:       make(map[string]*netbox.MACAddress),
		Prefixes:   make(map[string]*netbox.Prefix),
		IPs:        make(map[string]*netbox.IPAddress),
		VLANs:      make(map[string]*netbox.VLAN),
		Disks:      make(map[int]map[string]*netbox.VirtualDisk),
		Tags:       make(map[string]*netbox.Tag),
		Roles:      make(map[string]*netbox.DeviceRole),
	}
}

// NormalizeMAC canonicalizes a MAC address for index lookups. Proxmox
// config strings carry uppercase MACs, the guest agent lowercase, NetBox
// uppercase; one spelling must win.
func NormalizeMAC(address string) string {
	return strings.ToUpper(address)
}

// MACByAddress looks up a MAC binding by address in any case.
func (s *Snapshot) MACByAddress(address string) *netbox.MACAddress {
	return s.MACs[NormalizeMAC(address)]
}

// AddMAC indexes a MAC binding.
func (s *Snapshot) AddMAC(mac *netbox.MACAddress) {
	s.MACs[NormalizeMAC(mac.MACAddress)] = mac
}

// InterfaceFor looks up a guest's interface by either key.
func (s *Snapshot) InterfaceFor(vmID int, name string) *netbox.VMInterface {
	return s.Interfaces[vmID][name]
}

// AddInterface indexes an interface under the given lookup keys.
func (s *Snapshot) AddInterface(iface *netbox.VMInterface, keys ...string) {
	vmID := iface.VirtualMachine.ID
	if s.Interfaces[vmID] == nil {
		s.Interfaces[vmID] = make(map[string]*netbox.VMInterface)
	}
	for _, key := range keys {
		s.Interfaces[vmID][key] = iface
	}
}

// AddDisk indexes a disk under its owning guest.
func (s *Snapshot) AddDisk(disk *netbox.VirtualDisk) {
	vmID := disk.VirtualMachine.ID
	if s.Disks[vmID] == nil {
		s.Disks[vmID] = make(map[string]*netbox.VirtualDisk)
	}
	s.Disks[vmID][disk.Name] = disk
}

// RoleID resolves a device role by name or numeric id string. Returns 0
// when the role is unknown; a guest is then synced without a role.
func (s *Snapshot) RoleID(nameOrID string) int {
	if nameOrID == "" {
		return 0
	}
	if role, ok := s.Roles[nameOrID]; ok {
		return role.ID
	}
	return 0
}

// Load builds a snapshot for the given scope. The loader is resilient by
// design: a failure loading one collection is logged and leaves that
// collection partially populated without aborting the load, so downstream
// records from a failed collection are treated as absent. For a guest
// scope, a lookup miss for a vmid simply omits that guest (it is new).
func Load(ctx context.Context, store Store, scope Scope) *Snapshot {
	snap := NewSnapshot()
	if scope.All {
		log.Info("Loading NetBox objects...")
	} else {
		log.WithField("guests", len(scope.VMIDs)).Info("Loading NetBox objects for changed guests...")
	}

	log.Debug("  - Loading devices...")
	devices, err := store.ListDevices(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to load devices, proceeding without")
	}
	for i := range devices {
		snap.Devices[strings.ToLower(devices[i].Name)] = &devices[i]
	}

	log.Debug("  - Loading virtual machines...")
	if scope.All {
		vms, err := store.ListVirtualMachines(ctx)
		if err != nil {
			log.WithError(err).Warn("⚠️ Failed to load virtual machines, proceeding without")
		}
		for i := range vms {
			snap.Guests[vms[i].Serial] = &vms[i]
		}
	} else {
		for _, vmid := range scope.VMIDs {
			vms, err := store.VirtualMachinesBySerial(ctx, strconv.Itoa(vmid))
			if err != nil {
				log.WithError(err).WithField("vmid", vmid).Warn("⚠️ Failed to load virtual machine")
				continue
			}
			for i := range vms {
				snap.Guests[vms[i].Serial] = &vms[i]
			}
		}
	}

	vmIDs := make([]int, 0, len(snap.Guests))
	for _, vm := range snap.Guests {
		vmIDs = append(vmIDs, vm.ID)
	}

	log.Debug("  - Loading interfaces...")
	if scope.All {
		interfaces, err := store.ListInterfaces(ctx)
		if err != nil {
			log.WithError(err).Warn("⚠️ Failed to load interfaces, proceeding without")
		}
		for i := range interfaces {
			snap.AddInterface(&interfaces[i], interfaces[i].Name)
		}
	} else {
		for _, vmID := range vmIDs {
			interfaces, err := store.InterfacesForVM(ctx, vmID)
			if err != nil {
				log.WithError(err).WithField("vm_id", vmID).Warn("⚠️ Failed to load interfaces")
				continue
			}
			for i := range interfaces {
				snap.AddInterface(&interfaces[i], interfaces[i].Name)
			}
		}
	}

	log.Debug("  - Loading MAC addresses...")
	if scope.All {
		macs, err := store.ListMACAddresses(ctx)
		if err != nil {
			log.WithError(err).Warn("⚠️ Failed to load MAC addresses, proceeding without")
		}
		for i := range macs {
			snap.AddMAC(&macs[i])
		}
	} else {
		// Narrow load: only the primary MACs of the loaded interfaces.
		for _, byName := range snap.Interfaces {
			for _, iface := range byName {
				if iface.PrimaryMACAddress == nil {
					continue
				}
				mac, err := store.GetMACAddress(ctx, iface.PrimaryMACAddress.ID)
				if err != nil {
					log.WithError(err).WithField("interface_id", iface.ID).Warn("⚠️ Failed to load MAC address")
					continue
				}
				snap.AddMAC(mac)
			}
		}
	}

	log.Debug("  - Loading prefixes...")
	prefixes, err := store.ListPrefixes(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to load prefixes, proceeding without")
	}
	for i := range prefixes {
		snap.Prefixes[prefixes[i].Prefix] = &prefixes[i]
	}

	log.Debug("  - Loading IP addresses...")
	if scope.All {
		ips, err := store.ListIPAddresses(ctx)
		if err != nil {
			log.WithError(err).Warn("⚠️ Failed to load IP addresses, proceeding without")
		}
		for i := range ips {
			snap.IPs[ips[i].Address] = &ips[i]
		}
	} else {
		for _, vmID := range vmIDs {
			ips, err := store.IPAddressesForVM(ctx, vmID)
			if err != nil {
				log.WithError(err).WithField("vm_id", vmID).Warn("⚠️ Failed to load IP addresses")
				continue
			}
			for i := range ips {
				snap.IPs[ips[i].Address] = &ips[i]
			}
		}
	}

	log.Debug("  - Loading VLANs...")
	vlans, err := store.ListVLANs(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to load VLANs, proceeding without")
	}
	for i := range vlans {
		snap.VLANs[strconv.Itoa(vlans[i].VID)] = &vlans[i]
	}

	log.Debug("  - Loading virtual disks...")
	if scope.All {
		disks, err := store.ListVirtualDisks(ctx)
		if err != nil {
			log.WithError(err).Warn("⚠️ Failed to load virtual disks, proceeding without")
		}
		for i := range disks {
			snap.AddDisk(&disks[i])
		}
	} else {
		for _, vmID := range vmIDs {
			disks, err := store.DisksForVM(ctx, vmID)
			if err != nil {
				log.WithError(err).WithField("vm_id", vmID).Warn("⚠️ Failed to load virtual disks")
				continue
			}
			for i := range disks {
				snap.AddDisk(&disks[i])
			}
		}
	}

	log.Debug("  - Loading tags...")
	tags, err := store.ListTags(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to load tags, proceeding without")
	}
	for i := range tags {
		snap.Tags[tags[i].Name] = &tags[i]
	}

	log.Debug("  - Loading device roles...")
	roles, err := store.ListDeviceRoles(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to load device roles, proceeding without")
	}
	for i := range roles {
		snap.Roles[roles[i].Name] = &roles[i]
		snap.Roles[strconv.Itoa(roles[i].ID)] = &roles[i]
	}

	log.Info("NetBox objects loaded.")
	return snap
}
