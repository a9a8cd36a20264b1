package sync

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/config"
	"github.com/provirt/pve2netbox/internal/netbox"
	"github.com/provirt/pve2netbox/internal/proxmox"
)

// agentEntry is the guest-agent view of one NIC, indexed by lowercased
// MAC address.
type agentEntry struct {
	name string
	ips  []proxmox.AgentIPAddress
}

// Engine applies create-or-update operations for guests, interfaces,
// MAC and IP bindings, and disks. It is the only component that writes
// downstream records; the snapshot is kept current as it writes so one
// pass never re-fetches what it just created.
type Engine struct {
	source   Source
	store    Store
	snap     *Snapshot
	resolver *Resolver
	arbiter  *Arbiter
	cfg      *config.Config
}

// NewEngine returns an engine writing through store against the given
// snapshot.
func NewEngine(source Source, store Store, snap *Snapshot, cfg *config.Config) *Engine {
	return &Engine{
		source:   source,
		store:    store,
		snap:     snap,
		resolver: NewResolver(store, snap),
		arbiter:  NewArbiter(store),
		cfg:      cfg,
	}
}

// SyncGuest reconciles one source guest: the guest record itself, then
// its network interfaces with MAC/IP bindings, then its disks. The
// returned error aborts the pass; recovered conflicts do not surface
// here.
func (e *Engine) SyncGuest(ctx context.Context, kind proxmox.GuestKind, device *netbox.Device, listing proxmox.GuestListing, tagNames []string, replicated, ha bool) error {
	node := strings.ToLower(device.Name)

	var guestCfg proxmox.GuestConfig
	var err error
	switch kind {
	case proxmox.KindQEMU:
		guestCfg, err = e.source.QEMUConfig(ctx, node, listing.VMID)
	case proxmox.KindLXC:
		guestCfg, err = e.source.LXCConfig(ctx, node, listing.VMID)
	}
	if err != nil {
		return fmt.Errorf("fetching config for guest %d on %s: %w", listing.VMID, node, err)
	}

	var agent map[string]agentEntry
	if kind == proxmox.KindQEMU {
		agent = e.fetchAgentData(ctx, node, listing, guestCfg)
	}

	vm, err := e.upsertGuest(ctx, kind, device, listing, guestCfg, tagNames, replicated, ha)
	if err != nil {
		return err
	}
	if err := e.syncInterfaces(ctx, kind, guestCfg, vm, agent); err != nil {
		return err
	}
	return e.syncDisks(ctx, kind, guestCfg, vm)
}

// fetchAgentData queries the QEMU guest agent for OS-level interface
// names and addresses. Agent failures degrade to a config-only sync.
func (e *Engine) fetchAgentData(ctx context.Context, node string, listing proxmox.GuestListing, guestCfg proxmox.GuestConfig) map[string]agentEntry {
	switch {
	case !guestCfg.AgentEnabled():
		log.Debug("      QEMU guest agent not enabled, skipping agent data")
		return nil
	case listing.Status != "running":
		log.Debug("      QEMU guest agent enabled but VM is not running, skipping agent data")
		return nil
	}

	log.Debug("      QEMU guest agent enabled, fetching network data...")
	interfaces, err := e.source.AgentNetworkInterfaces(ctx, node, listing.VMID)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to get QEMU agent data")
		return nil
	}
	agent := make(map[string]agentEntry, len(interfaces))
	for _, iface := range interfaces {
		agent[iface.HardwareAddress] = agentEntry{name: iface.Name, ips: iface.IPAddresses}
		log.Debugf("        Agent: %s (%s) - %d IP(s)", iface.Name, iface.HardwareAddress, len(iface.IPAddresses))
	}
	return agent
}

// upsertGuest creates or updates the guest record. The update is issued
// on every pass regardless of whether a field changed; only interface
// writes are diffed.
func (e *Engine) upsertGuest(ctx context.Context, kind proxmox.GuestKind, device *netbox.Device, listing proxmox.GuestListing, guestCfg proxmox.GuestConfig, tagNames []string, replicated, ha bool) (*netbox.VirtualMachine, error) {
	name := listing.Name
	vcpus := guestCfg.VCPUs()
	memory := guestCfg.Memory(0)
	roleName := e.cfg.VMRole
	if kind == proxmox.KindLXC {
		if hostname := guestCfg.Hostname(); hostname != "" {
			name = hostname
		}
		vcpus = guestCfg.Cores(1)
		memory = guestCfg.Memory(512)
		roleName = e.cfg.LXCRole
	}

	status := "offline"
	if listing.Status == "running" {
		status = "active"
	}

	tagIDs := e.resolveTagIDs(tagNames)
	siteID := 0
	if device.Site != nil {
		siteID = device.Site.ID
	}

	params := netbox.VirtualMachineParams{
		Name:    name,
		Site:    siteID,
		Cluster: e.cfg.ClusterID,
		Device:  device.ID,
		Role:    e.snap.RoleID(roleName),
		VCPUs:   vcpus,
		Memory:  memory,
		Status:  status,
		Tags:    &tagIDs,
		CustomFields: map[string]any{
			"autostart":  guestCfg.OnBoot(),
			"replicated": replicated,
			"ha":         ha,
		},
	}

	serial := strconv.Itoa(listing.VMID)
	existing := e.snap.Guests[serial]
	if existing == nil {
		params.Serial = serial
		created, err := e.store.CreateVirtualMachine(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("creating guest %s (ID: %s): %w", name, serial, err)
		}
		e.snap.Guests[serial] = created
		return created, nil
	}

	updated, err := e.store.UpdateVirtualMachine(ctx, existing.ID, params)
	if err != nil {
		return nil, fmt.Errorf("updating guest %s (ID: %s): %w", name, serial, err)
	}
	e.snap.Guests[serial] = updated
	return updated, nil
}

// resolveTagIDs maps pool tag names to downstream tag ids. A missing
// tag is skipped with a warning rather than failing the guest.
func (e *Engine) resolveTagIDs(names []string) []int {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		tag := e.snap.Tags[name]
		if tag == nil {
			log.WithField("tag", name).Warn("⚠️ Tag not found in NetBox, skipping")
			continue
		}
		ids = append(ids, tag.ID)
	}
	return ids
}

func (e *Engine) syncInterfaces(ctx context.Context, kind proxmox.GuestKind, guestCfg proxmox.GuestConfig, vm *netbox.VirtualMachine, agent map[string]agentEntry) error {
	slots := guestCfg.NetworkSlots()
	total := 0
	matched := 0
	for _, slot := range sortedKeys(slots) {
		def := proxmox.ParseNetworkDefinition(slots[slot])
		mac := proxmox.MACFromNetworkDefinition(def)
		if mac == "" {
			log.Debugf("      Interface %s: no MAC address found, skipping", slot)
			continue
		}
		total++

		name := slot
		var ips []proxmox.AgentIPAddress
		if kind == proxmox.KindQEMU {
			if entry, ok := agent[strings.ToLower(mac)]; ok {
				matched++
				if entry.name != "" {
					name = entry.name
				}
				ips = entry.ips
				log.Debugf("      Interface %s (%s) → %s: matched with guest agent, %d IP(s)", slot, mac, name, len(ips))
			} else {
				log.Debugf("      Interface %s (%s): no guest agent data, will sync without IPs", slot, mac)
			}
		} else if osName := def["name"]; osName != "" {
			name = osName
		}

		if err := e.syncInterface(ctx, vm, slot, name, mac, def["tag"], def["mtu"], ips); err != nil {
			return err
		}
	}
	log.Infof("      Synced %d interface(s) from config, %d matched with guest agent", total, matched)
	return nil
}

// syncInterface reconciles one NIC: the interface record (diffed before
// writing), its MAC binding and its IP binding.
func (e *Engine) syncInterface(ctx context.Context, vm *netbox.VirtualMachine, slot, name, mac, vlanTag, mtuRaw string, ips []proxmox.AgentIPAddress) error {
	mtu := 0
	if mtuRaw != "" {
		if n, err := strconv.Atoi(mtuRaw); err == nil {
			mtu = n
		}
	}

	iface := e.resolver.Resolve(ctx, vm.ID, slot, name, mac)
	if iface == nil {
		created, err := e.store.CreateInterface(ctx, netbox.InterfaceParams{
			VirtualMachine: vm.ID,
			Name:           name,
			MTU:            mtu,
		})
		if err != nil {
			return fmt.Errorf("creating interface %s for %s: %w", name, vm.Name, err)
		}
		iface = created
	} else {
		params := netbox.InterfaceParams{}
		changed := false
		if iface.Name != name {
			params.Name = name
			changed = true
		}
		if mtu != 0 && (iface.MTU == nil || *iface.MTU != mtu) {
			params.MTU = mtu
			changed = true
		}
		if changed {
			updated, err := e.store.UpdateInterface(ctx, iface.ID, params)
			if err != nil {
				return fmt.Errorf("updating interface %s for %s: %w", name, vm.Name, err)
			}
			iface = updated
		}
	}
	e.snap.AddInterface(iface, slot, name)

	if err := e.applyMACBinding(ctx, vm, iface, mac); err != nil {
		return err
	}
	return e.applyIPBinding(ctx, vm, iface, vlanTag, ips)
}

// applyMACBinding ensures the MAC record exists, is assigned to iface,
// and is iface's primary MAC. A contested binding goes through the
// arbiter; a skipped binding is not an error.
func (e *Engine) applyMACBinding(ctx context.Context, vm *netbox.VirtualMachine, iface *netbox.VMInterface, mac string) error {
	record := e.snap.MACByAddress(mac)
	if record == nil {
		created, err := e.store.CreateMACAddress(ctx, mac, iface.ID)
		if err != nil {
			return fmt.Errorf("creating MAC %s: %w", mac, err)
		}
		e.snap.AddMAC(created)
		record = created
	} else if record.AssignedObjectID == nil || *record.AssignedObjectID != iface.ID {
		ruling := e.arbiter.ArbitrateMAC(ctx, record, vm, iface)
		switch ruling.Disposition {
		case DispositionConflict:
			log.Warnf("      Skipping MAC address assignment for VM %s", vm.Name)
			return nil
		case DispositionReassign:
			if holder := ruling.Holder; holder != nil && holder.PrimaryMACAddress != nil && holder.PrimaryMACAddress.ID == record.ID {
				if err := e.store.SetInterfacePrimaryMAC(ctx, holder.ID, nil); err != nil {
					log.WithError(err).WithField("interface", holder.Name).Warn("⚠️ Failed to clear primary MAC on old interface")
				} else {
					log.Debugf("      Removed primary MAC from old interface %s", holder.Name)
				}
			}
			moved, err := e.store.ReassignMACAddress(ctx, record.ID, iface.ID)
			if err != nil {
				log.WithError(err).Errorf("❌ Failed to re-assign MAC %s, skipping assignment for this interface", mac)
				return nil
			}
			*record = *moved
			log.Infof("      Re-assigned MAC %s to interface %s", mac, iface.Name)
		}
	}

	if iface.PrimaryMACAddress == nil || iface.PrimaryMACAddress.ID != record.ID {
		if err := e.store.SetInterfacePrimaryMAC(ctx, iface.ID, &record.ID); err != nil {
			return fmt.Errorf("setting primary MAC on interface %s: %w", iface.Name, err)
		}
		iface.PrimaryMACAddress = &netbox.Ref{ID: record.ID}
	}
	return nil
}

// applyIPBinding syncs the first agent-reported IPv4 address: its
// containing prefix, the address record with a derived DNS name, and the
// guest's primary IPv4 pointer. Without an IPv4, a configured VLAN tag
// still gets its VLAN record ensured.
func (e *Engine) applyIPBinding(ctx context.Context, vm *netbox.VirtualMachine, iface *netbox.VMInterface, vlanTag string, ips []proxmox.AgentIPAddress) error {
	var primary *proxmox.AgentIPAddress
	v4, v6 := 0, 0
	for i := range ips {
		switch ips[i].Type {
		case "ipv4":
			v4++
			if primary == nil {
				primary = &ips[i]
			}
		case "ipv6":
			v6++
		}
	}
	if len(ips) > 0 {
		log.Debugf("        Interface %s: %d IPv4, %d IPv6 from guest agent", iface.Name, v4, v6)
	}

	if primary == nil {
		log.Debugf("        Interface %s: no IPv4 address found from guest agent", iface.Name)
		if vlanTag != "" {
			if _, err := e.ensureVLAN(ctx, vlanTag); err != nil {
				return err
			}
		}
		return nil
	}

	full := fmt.Sprintf("%s/%d", primary.Address, primary.Prefix)
	cidr, err := prefixCIDR(primary.Address, primary.Prefix)
	if err != nil {
		log.WithError(err).Warnf("⚠️ Could not derive prefix for %s, skipping IP sync", full)
		return nil
	}

	nbPrefix := e.snap.Prefixes[cidr]
	if nbPrefix == nil {
		created, err := e.store.CreatePrefix(ctx, cidr)
		if err != nil {
			return fmt.Errorf("creating prefix %s: %w", cidr, err)
		}
		nbPrefix = created
		e.snap.Prefixes[nbPrefix.Prefix] = nbPrefix
	}
	if vlanTag != "" && nbPrefix.VLAN == nil {
		vlan, err := e.ensureVLAN(ctx, vlanTag)
		if err != nil {
			return err
		}
		if vlan != nil {
			if err := e.store.SetPrefixVLAN(ctx, nbPrefix.ID, vlan.ID); err != nil {
				return fmt.Errorf("binding VLAN %d to prefix %s: %w", vlan.VID, cidr, err)
			}
			nbPrefix.VLAN = &netbox.Ref{ID: vlan.ID, Name: vlan.Name}
		}
	}

	dnsName := ""
	if nbPrefix.CustomFields.DNSName != nil && *nbPrefix.CustomFields.DNSName != "" {
		dnsName = vm.Name + "." + *nbPrefix.CustomFields.DNSName
	}
	var vrfID *int
	if nbPrefix.VRF != nil {
		vrfID = &nbPrefix.VRF.ID
	}

	record := e.snap.IPs[full]
	switch {
	case record == nil:
		created, err := e.store.CreateIPAddress(ctx, netbox.IPAddressParams{
			Address:            full,
			AssignedObjectType: netbox.VMInterfaceObjectType,
			AssignedObjectID:   iface.ID,
			DNSName:            dnsName,
		})
		if err != nil {
			return fmt.Errorf("creating IP %s: %w", full, err)
		}
		record = created
		e.snap.IPs[record.Address] = record
		log.Infof("        ✓ Created IP %s on interface %s", full, iface.Name)

	case record.AssignedObjectID == nil || *record.AssignedObjectID != iface.ID:
		ruling := e.arbiter.ArbitrateIP(ctx, record, vm, iface, vrfID)
		switch ruling.Disposition {
		case DispositionConflict:
			log.Warnf("      Skipping IP address assignment for VM %s", vm.Name)
			return nil
		case DispositionSplitVRF:
			created, err := e.store.CreateIPAddress(ctx, netbox.IPAddressParams{
				Address:            full,
				AssignedObjectType: netbox.VMInterfaceObjectType,
				AssignedObjectID:   iface.ID,
				DNSName:            dnsName,
				VRF:                vrfID,
			})
			if err != nil {
				return fmt.Errorf("creating IP %s in VRF: %w", full, err)
			}
			record = created
			e.snap.IPs[record.Address] = record
		case DispositionReassign:
			if owner := ruling.Owner; owner != nil && owner.PrimaryIP4 != nil && owner.PrimaryIP4.ID == record.ID {
				if err := e.store.SetVirtualMachinePrimaryIP4(ctx, owner.ID, nil); err != nil {
					log.WithError(err).WithField("vm", owner.Name).Warn("⚠️ Failed to clear primary IPv4 on old guest")
				} else {
					log.Debugf("      Removed primary IPv4 from old VM %s", owner.Name)
				}
			}
			updated, err := e.store.UpdateIPAddress(ctx, record.ID, netbox.IPAddressParams{
				AssignedObjectType: netbox.VMInterfaceObjectType,
				AssignedObjectID:   iface.ID,
				DNSName:            dnsName,
			})
			if err != nil {
				log.WithError(err).Errorf("❌ Failed to re-assign IP %s, skipping assignment for this interface", full)
				return nil
			}
			record = updated
			e.snap.IPs[record.Address] = record
			log.Infof("      Re-assigned IP %s to interface %s", full, iface.Name)
		}

	default:
		updated, err := e.store.UpdateIPAddress(ctx, record.ID, netbox.IPAddressParams{DNSName: dnsName})
		if err != nil {
			return fmt.Errorf("updating IP %s: %w", full, err)
		}
		record = updated
		e.snap.IPs[record.Address] = record
		log.Debugf("        ✓ Updated IP %s on interface %s", full, iface.Name)
	}

	if err := e.store.SetVirtualMachinePrimaryIP4(ctx, vm.ID, &record.ID); err != nil {
		return fmt.Errorf("setting primary IPv4 on %s: %w", vm.Name, err)
	}
	vm.PrimaryIP4 = &netbox.Ref{ID: record.ID}
	log.Infof("        ✓ Set primary IPv4: %s", full)
	return nil
}

// ensureVLAN creates the VLAN record for a numeric tag when absent. A
// non-numeric tag is logged and ignored.
func (e *Engine) ensureVLAN(ctx context.Context, tag string) (*netbox.VLAN, error) {
	vid, err := strconv.Atoi(tag)
	if err != nil {
		log.WithField("tag", tag).Warn("⚠️ Non-numeric VLAN tag, skipping")
		return nil, nil
	}
	if vlan := e.snap.VLANs[tag]; vlan != nil {
		return vlan, nil
	}
	vlan, err := e.store.CreateVLAN(ctx, vid, fmt.Sprintf("VLAN %d", vid))
	if err != nil {
		return nil, fmt.Errorf("creating VLAN %d: %w", vid, err)
	}
	e.snap.VLANs[strconv.Itoa(vlan.VID)] = vlan
	return vlan, nil
}

func (e *Engine) syncDisks(ctx context.Context, kind proxmox.GuestKind, guestCfg proxmox.GuestConfig, vm *netbox.VirtualMachine) error {
	var slots map[string]string
	if kind == proxmox.KindQEMU {
		slots = guestCfg.DiskSlots()
	} else {
		slots = guestCfg.MountSlots()
	}
	for _, slot := range sortedKeys(slots) {
		def := proxmox.ParseDiskDefinition(slots[slot])
		name, size := def["name"], def["size"]
		if name == "" || size == "" {
			continue
		}
		sizeMB := proxmox.ParseDiskSize(size)
		if sizeMB == proxmox.SizeUnknown {
			log.Warnf("      Skipping disk %s: unknown size format %q", slot, size)
			continue
		}
		backupFlag, ok := def["backup"]
		if !ok {
			backupFlag = "1"
		}
		if err := e.upsertDisk(ctx, vm, name, sizeMB, backupFlag == "1"); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) upsertDisk(ctx context.Context, vm *netbox.VirtualMachine, name string, size int, backup bool) error {
	custom := map[string]any{"backup": backup}
	existing := e.snap.Disks[vm.ID][name]
	if existing == nil {
		created, err := e.store.CreateDisk(ctx, netbox.DiskParams{
			VirtualMachine: vm.ID,
			Name:           name,
			Size:           size,
			CustomFields:   custom,
		})
		if err != nil {
			return fmt.Errorf("creating disk %s for %s: %w", name, vm.Name, err)
		}
		e.snap.AddDisk(created)
		return nil
	}
	updated, err := e.store.UpdateDisk(ctx, existing.ID, netbox.DiskParams{
		Size:         size,
		CustomFields: custom,
	})
	if err != nil {
		return fmt.Errorf("updating disk %s for %s: %w", name, vm.Name, err)
	}
	e.snap.AddDisk(updated)
	return nil
}

// prefixCIDR derives the containing network for an address by masking it
// with its reported prefix length.
func prefixCIDR(address string, bits int) (string, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return "", err
	}
	p, err := addr.Prefix(bits)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
