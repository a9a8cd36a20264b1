package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/provirt/pve2netbox/internal/config"
	"github.com/provirt/pve2netbox/internal/netbox"
	"github.com/provirt/pve2netbox/internal/proxmox"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
func strPtr(v string) *string {
	return &v
}

func testConfig() *config.Config {
	return &config.Config{
		ClusterID: 1,
		SyncVMs:   true,
		SyncLXC:   true,
		VMRole:    "Virtual Machine",
		LXCRole:   "Container",
	}
}

// guestConfig builds a GuestConfig from string values, the way the
// Proxmox API serializes most config keys.
func guestConfig(fields map[string]string) proxmox.GuestConfig {
	cfg := make(proxmox.GuestConfig, len(fields))
	for key, value := range fields {
		raw, _ := json.Marshal(value)
		cfg[key] = json.RawMessage(raw)
	}
	return cfg
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	nodes       []proxmox.Node
	qemu        map[string][]proxmox.GuestListing
	lxc         map[string][]proxmox.GuestListing
	qemuCfg     map[int]proxmox.GuestConfig
	lxcCfg      map[int]proxmox.GuestConfig
	agent       map[int][]proxmox.AgentInterface
	pools       []proxmox.Pool
	resources   []proxmox.ClusterResource
	replication map[string][]int
	ha          []int
	fail        map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		qemu:        make(map[string][]proxmox.GuestListing),
		lxc:         make(map[string][]proxmox.GuestListing),
		qemuCfg:     make(map[int]proxmox.GuestConfig),
		lxcCfg:      make(map[int]proxmox.GuestConfig),
		agent:       make(map[int][]proxmox.AgentInterface),
		replication: make(map[string][]int),
		fail:        make(map[string]error),
	}
}

func (f *fakeSource) ListNodes(context.Context) ([]proxmox.Node, error) {
	if err := f.fail["ListNodes"]; err != nil {
		return nil, err
	}
	return f.nodes, nil
}

func (f *fakeSource) ListQEMU(_ context.Context, node string) ([]proxmox.GuestListing, error) {
	if err := f.fail["ListQEMU/"+node]; err != nil {
		return nil, err
	}
	return f.qemu[node], nil
}

func (f *fakeSource) ListLXC(_ context.Context, node string) ([]proxmox.GuestListing, error) {
	if err := f.fail["ListLXC/"+node]; err != nil {
		return nil, err
	}
	return f.lxc[node], nil
}

func (f *fakeSource) QEMUConfig(_ context.Context, _ string, vmid int) (proxmox.GuestConfig, error) {
	cfg, ok := f.qemuCfg[vmid]
	if !ok {
		return nil, fmt.Errorf("no QEMU config for %d", vmid)
	}
	return cfg, nil
}

func (f *fakeSource) LXCConfig(_ context.Context, _ string, vmid int) (proxmox.GuestConfig, error) {
	cfg, ok := f.lxcCfg[vmid]
	if !ok {
		return nil, fmt.Errorf("no LXC config for %d", vmid)
	}
	return cfg, nil
}

func (f *fakeSource) AgentNetworkInterfaces(_ context.Context, _ string, vmid int) ([]proxmox.AgentInterface, error) {
	if err := f.fail["AgentNetworkInterfaces"]; err != nil {
		return nil, err
	}
	return f.agent[vmid], nil
}

func (f *fakeSource) ListPools(context.Context) ([]proxmox.Pool, error) {
	if err := f.fail["ListPools"]; err != nil {
		return nil, err
	}
	return f.pools, nil
}

func (f *fakeSource) ClusterVMResources(context.Context) ([]proxmox.ClusterResource, error) {
	if err := f.fail["ClusterVMResources"]; err != nil {
		return nil, err
	}
	return f.resources, nil
}

func (f *fakeSource) NodeReplicationGuests(_ context.Context, node string) ([]int, error) {
	if err := f.fail["NodeReplicationGuests"]; err != nil {
		return nil, err
	}
	return f.replication[node], nil
}

func (f *fakeSource) HAServiceIDs(context.Context) ([]int, error) {
	if err := f.fail["HAServiceIDs"]; err != nil {
		return nil, err
	}
	return f.ha, nil
}

// fakeStore is an in-memory Store. It keeps canonical records in maps
// and hands out copies, like the HTTP client does, so caller-side
// mutation never leaks into the store.
type fakeStore struct {
	devices  map[int]*netbox.Device
	vms      map[int]*netbox.VirtualMachine
	ifaces   map[int]*netbox.VMInterface
	macs     map[int]*netbox.MACAddress
	prefixes map[int]*netbox.Prefix
	ips      map[int]*netbox.IPAddress
	vlans    map[int]*netbox.VLAN
	disks    map[int]*netbox.VirtualDisk
	tags     map[int]*netbox.Tag
	roles    map[int]*netbox.DeviceRole
	fields   map[int]*netbox.CustomField

	nextID     int
	calls      map[string]int
	fail       map[string]error
	deletedVMs []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		devices:  make(map[int]*netbox.Device),
		vms:      make(map[int]*netbox.VirtualMachine),
		ifaces:   make(map[int]*netbox.VMInterface),
		macs:     make(map[int]*netbox.MACAddress),
		prefixes: make(map[int]*netbox.Prefix),
		ips:      make(map[int]*netbox.IPAddress),
		vlans:    make(map[int]*netbox.VLAN),
		disks:    make(map[int]*netbox.VirtualDisk),
		tags:     make(map[int]*netbox.Tag),
		roles:    make(map[int]*netbox.DeviceRole),
		fields:   make(map[int]*netbox.CustomField),
		nextID:   1000,
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
}

func (f *fakeStore) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) op(name string) error {
	f.calls[name]++
	return f.fail[name]
}

// Seeding helpers with explicit ids, for tests that set up existing
// downstream state.

func (f *fakeStore) addDevice(id int, name string) *netbox.Device {
	d := &netbox.Device{ID: id, Name: name, Status: netbox.Status{Value: "active"}, Site: &netbox.Ref{ID: 1, Name: "dc1"}}
	f.devices[id] = d
	return d
}

func (f *fakeStore) addVM(id int, serial, name, status string) *netbox.VirtualMachine {
	vm := &netbox.VirtualMachine{ID: id, Serial: serial, Name: name, Status: netbox.Status{Value: status}}
	f.vms[id] = vm
	return vm
}

func (f *fakeStore) addInterface(id, vmID int, name string) *netbox.VMInterface {
	iface := &netbox.VMInterface{ID: id, Name: name, VirtualMachine: netbox.Ref{ID: vmID}}
	f.ifaces[id] = iface
	return iface
}

func (f *fakeStore) addMAC(id int, address string, ifaceID *int) *netbox.MACAddress {
	mac := &netbox.MACAddress{ID: id, MACAddress: address}
	if ifaceID != nil {
		mac.AssignedObjectType = netbox.VMInterfaceObjectType
		mac.AssignedObjectID = ifaceID
	}
	f.macs[id] = mac
	return mac
}

func (f *fakeStore) addIP(id int, address string, ifaceID *int) *netbox.IPAddress {
	ip := &netbox.IPAddress{ID: id, Address: address, Status: netbox.Status{Value: "active"}}
	if ifaceID != nil {
		ip.AssignedObjectType = netbox.VMInterfaceObjectType
		ip.AssignedObjectID = ifaceID
	}
	f.ips[id] = ip
	return ip
}

func (f *fakeStore) addPrefix(id int, cidr string) *netbox.Prefix {
	p := &netbox.Prefix{ID: id, Prefix: cidr}
	f.prefixes[id] = p
	return p
}

// Store implementation.

func (f *fakeStore) ListDevices(context.Context) ([]netbox.Device, error) {
	if err := f.op("ListDevices"); err != nil {
		return nil, err
	}
	out := make([]netbox.Device, 0, len(f.devices))
	for _, d := range f.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeStore) UpdateDeviceStatus(_ context.Context, id int, status string) error {
	if err := f.op("UpdateDeviceStatus"); err != nil {
		return err
	}
	d, ok := f.devices[id]
	if !ok {
		return fmt.Errorf("device %d not found", id)
	}
	d.Status = netbox.Status{Value: status}
	return nil
}

func (f *fakeStore) applyVMParams(vm *netbox.VirtualMachine, params netbox.VirtualMachineParams) {
	if params.Name != "" {
		vm.Name = params.Name
	}
	if params.Serial != "" {
		vm.Serial = params.Serial
	}
	if params.Status != "" {
		vm.Status = netbox.Status{Value: params.Status}
	}
	if params.Site != 0 {
		vm.Site = &netbox.Ref{ID: params.Site}
	}
	if params.Cluster != 0 {
		vm.Cluster = &netbox.Ref{ID: params.Cluster}
	}
	if params.Device != 0 {
		vm.Device = &netbox.Ref{ID: params.Device}
	}
	if params.Role != 0 {
		vm.Role = &netbox.Ref{ID: params.Role}
	}
	if params.VCPUs != 0 {
		vm.VCPUs = float64(params.VCPUs)
	}
	if params.Memory != 0 {
		vm.Memory = params.Memory
	}
	if params.Tags != nil {
		vm.Tags = nil
		for _, id := range *params.Tags {
			name := ""
			if tag, ok := f.tags[id]; ok {
				name = tag.Name
			}
			vm.Tags = append(vm.Tags, netbox.NestedTag{ID: id, Name: name})
		}
	}
	if params.CustomFields != nil {
		if v, ok := params.CustomFields["autostart"].(bool); ok {
			vm.CustomFields.Autostart = boolPtr(v)
		}
		if v, ok := params.CustomFields["replicated"].(bool); ok {
			vm.CustomFields.Replicated = boolPtr(v)
		}
		if v, ok := params.CustomFields["ha"].(bool); ok {
			vm.CustomFields.HA = boolPtr(v)
		}
	}
}

func (f *fakeStore) ListVirtualMachines(context.Context) ([]netbox.VirtualMachine, error) {
	if err := f.op("ListVirtualMachines"); err != nil {
		return nil, err
	}
	out := make([]netbox.VirtualMachine, 0, len(f.vms))
	for _, vm := range f.vms {
		out = append(out, *vm)
	}
	return out, nil
}

func (f *fakeStore) VirtualMachinesBySerial(_ context.Context, serial string) ([]netbox.VirtualMachine, error) {
	if err := f.op("VirtualMachinesBySerial"); err != nil {
		return nil, err
	}
	var out []netbox.VirtualMachine
	for _, vm := range f.vms {
		if vm.Serial == serial {
			out = append(out, *vm)
		}
	}
	return out, nil
}

func (f *fakeStore) GetVirtualMachine(_ context.Context, id int) (*netbox.VirtualMachine, error) {
	if err := f.op("GetVirtualMachine"); err != nil {
		return nil, err
	}
	vm, ok := f.vms[id]
	if !ok {
		return nil, fmt.Errorf("virtual machine %d not found", id)
	}
	out := *vm
	return &out, nil
}

func (f *fakeStore) CreateVirtualMachine(_ context.Context, params netbox.VirtualMachineParams) (*netbox.VirtualMachine, error) {
	if err := f.op("CreateVirtualMachine"); err != nil {
		return nil, err
	}
	vm := &netbox.VirtualMachine{ID: f.id()}
	f.applyVMParams(vm, params)
	f.vms[vm.ID] = vm
	out := *vm
	return &out, nil
}

func (f *fakeStore) UpdateVirtualMachine(_ context.Context, id int, params netbox.VirtualMachineParams) (*netbox.VirtualMachine, error) {
	if err := f.op("UpdateVirtualMachine"); err != nil {
		return nil, err
	}
	vm, ok := f.vms[id]
	if !ok {
		return nil, fmt.Errorf("virtual machine %d not found", id)
	}
	f.applyVMParams(vm, params)
	out := *vm
	return &out, nil
}

func (f *fakeStore) DeleteVirtualMachine(_ context.Context, id int) error {
	if err := f.op("DeleteVirtualMachine"); err != nil {
		return err
	}
	if _, ok := f.vms[id]; !ok {
		return fmt.Errorf("virtual machine %d not found", id)
	}
	delete(f.vms, id)
	f.deletedVMs = append(f.deletedVMs, id)
	return nil
}

func (f *fakeStore) SetVirtualMachinePrimaryIP4(_ context.Context, id int, ipID *int) error {
	if err := f.op("SetVirtualMachinePrimaryIP4"); err != nil {
		return err
	}
	vm, ok := f.vms[id]
	if !ok {
		return fmt.Errorf("virtual machine %d not found", id)
	}
	if ipID == nil {
		vm.PrimaryIP4 = nil
	} else {
		vm.PrimaryIP4 = &netbox.Ref{ID: *ipID}
	}
	return nil
}

func (f *fakeStore) ListInterfaces(context.Context) ([]netbox.VMInterface, error) {
	if err := f.op("ListInterfaces"); err != nil {
		return nil, err
	}
	out := make([]netbox.VMInterface, 0, len(f.ifaces))
	for _, iface := range f.ifaces {
		out = append(out, *iface)
	}
	return out, nil
}

func (f *fakeStore) InterfacesForVM(_ context.Context, vmID int) ([]netbox.VMInterface, error) {
	if err := f.op("InterfacesForVM"); err != nil {
		return nil, err
	}
	var out []netbox.VMInterface
	for _, iface := range f.ifaces {
		if iface.VirtualMachine.ID == vmID {
			out = append(out, *iface)
		}
	}
	return out, nil
}

func (f *fakeStore) GetInterface(_ context.Context, id int) (*netbox.VMInterface, error) {
	if err := f.op("GetInterface"); err != nil {
		return nil, err
	}
	iface, ok := f.ifaces[id]
	if !ok {
		return nil, fmt.Errorf("interface %d not found", id)
	}
	out := *iface
	return &out, nil
}

func (f *fakeStore) CreateInterface(_ context.Context, params netbox.InterfaceParams) (*netbox.VMInterface, error) {
	if err := f.op("CreateInterface"); err != nil {
		return nil, err
	}
	iface := &netbox.VMInterface{
		ID:             f.id(),
		Name:           params.Name,
		VirtualMachine: netbox.Ref{ID: params.VirtualMachine},
	}
	if params.MTU != 0 {
		mtu := params.MTU
		iface.MTU = &mtu
	}
	f.ifaces[iface.ID] = iface
	out := *iface
	return &out, nil
}

func (f *fakeStore) UpdateInterface(_ context.Context, id int, params netbox.InterfaceParams) (*netbox.VMInterface, error) {
	if err := f.op("UpdateInterface"); err != nil {
		return nil, err
	}
	iface, ok := f.ifaces[id]
	if !ok {
		return nil, fmt.Errorf("interface %d not found", id)
	}
	if params.Name != "" {
		iface.Name = params.Name
	}
	if params.MTU != 0 {
		mtu := params.MTU
		iface.MTU = &mtu
	}
	out := *iface
	return &out, nil
}

func (f *fakeStore) SetInterfacePrimaryMAC(_ context.Context, id int, macID *int) error {
	if err := f.op("SetInterfacePrimaryMAC"); err != nil {
		return err
	}
	iface, ok := f.ifaces[id]
	if !ok {
		return fmt.Errorf("interface %d not found", id)
	}
	if macID == nil {
		iface.PrimaryMACAddress = nil
	} else {
		iface.PrimaryMACAddress = &netbox.Ref{ID: *macID}
	}
	return nil
}

func (f *fakeStore) ListMACAddresses(context.Context) ([]netbox.MACAddress, error) {
	if err := f.op("ListMACAddresses"); err != nil {
		return nil, err
	}
	out := make([]netbox.MACAddress, 0, len(f.macs))
	for _, mac := range f.macs {
		out = append(out, *mac)
	}
	return out, nil
}

func (f *fakeStore) GetMACAddress(_ context.Context, id int) (*netbox.MACAddress, error) {
	if err := f.op("GetMACAddress"); err != nil {
		return nil, err
	}
	mac, ok := f.macs[id]
	if !ok {
		return nil, fmt.Errorf("MAC %d not found", id)
	}
	out := *mac
	return &out, nil
}

func (f *fakeStore) CreateMACAddress(_ context.Context, address string, interfaceID int) (*netbox.MACAddress, error) {
	if err := f.op("CreateMACAddress"); err != nil {
		return nil, err
	}
	mac := &netbox.MACAddress{
		ID:                 f.id(),
		MACAddress:         strings.ToUpper(address),
		AssignedObjectType: netbox.VMInterfaceObjectType,
		AssignedObjectID:   intPtr(interfaceID),
	}
	f.macs[mac.ID] = mac
	out := *mac
	return &out, nil
}

func (f *fakeStore) ReassignMACAddress(_ context.Context, id, interfaceID int) (*netbox.MACAddress, error) {
	if err := f.op("ReassignMACAddress"); err != nil {
		return nil, err
	}
	mac, ok := f.macs[id]
	if !ok {
		return nil, fmt.Errorf("MAC %d not found", id)
	}
	mac.AssignedObjectType = netbox.VMInterfaceObjectType
	mac.AssignedObjectID = intPtr(interfaceID)
	out := *mac
	return &out, nil
}

func (f *fakeStore) ListPrefixes(context.Context) ([]netbox.Prefix, error) {
	if err := f.op("ListPrefixes"); err != nil {
		return nil, err
	}
	out := make([]netbox.Prefix, 0, len(f.prefixes))
	for _, p := range f.prefixes {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) CreatePrefix(_ context.Context, cidr string) (*netbox.Prefix, error) {
	if err := f.op("CreatePrefix"); err != nil {
		return nil, err
	}
	p := &netbox.Prefix{ID: f.id(), Prefix: cidr}
	f.prefixes[p.ID] = p
	out := *p
	return &out, nil
}

func (f *fakeStore) SetPrefixVLAN(_ context.Context, id, vlanID int) error {
	if err := f.op("SetPrefixVLAN"); err != nil {
		return err
	}
	p, ok := f.prefixes[id]
	if !ok {
		return fmt.Errorf("prefix %d not found", id)
	}
	p.VLAN = &netbox.Ref{ID: vlanID}
	return nil
}

func (f *fakeStore) ListIPAddresses(context.Context) ([]netbox.IPAddress, error) {
	if err := f.op("ListIPAddresses"); err != nil {
		return nil, err
	}
	out := make([]netbox.IPAddress, 0, len(f.ips))
	for _, ip := range f.ips {
		out = append(out, *ip)
	}
	return out, nil
}

func (f *fakeStore) IPAddressesForVM(_ context.Context, vmID int) ([]netbox.IPAddress, error) {
	if err := f.op("IPAddressesForVM"); err != nil {
		return nil, err
	}
	var out []netbox.IPAddress
	for _, ip := range f.ips {
		if ip.AssignedObjectID == nil {
			continue
		}
		iface, ok := f.ifaces[*ip.AssignedObjectID]
		if ok && iface.VirtualMachine.ID == vmID {
			out = append(out, *ip)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateIPAddress(_ context.Context, params netbox.IPAddressParams) (*netbox.IPAddress, error) {
	if err := f.op("CreateIPAddress"); err != nil {
		return nil, err
	}
	ip := &netbox.IPAddress{
		ID:      f.id(),
		Address: params.Address,
		Status:  netbox.Status{Value: "active"},
		DNSName: params.DNSName,
	}
	if params.AssignedObjectType != "" {
		ip.AssignedObjectType = params.AssignedObjectType
		ip.AssignedObjectID = intPtr(params.AssignedObjectID)
	}
	if params.VRF != nil {
		ip.VRF = &netbox.Ref{ID: *params.VRF}
	}
	f.ips[ip.ID] = ip
	out := *ip
	return &out, nil
}

func (f *fakeStore) UpdateIPAddress(_ context.Context, id int, params netbox.IPAddressParams) (*netbox.IPAddress, error) {
	if err := f.op("UpdateIPAddress"); err != nil {
		return nil, err
	}
	ip, ok := f.ips[id]
	if !ok {
		return nil, fmt.Errorf("IP %d not found", id)
	}
	if params.Address != "" {
		ip.Address = params.Address
	}
	if params.AssignedObjectType != "" {
		ip.AssignedObjectType = params.AssignedObjectType
		ip.AssignedObjectID = intPtr(params.AssignedObjectID)
	}
	if params.DNSName != "" {
		ip.DNSName = params.DNSName
	}
	if params.VRF != nil {
		ip.VRF = &netbox.Ref{ID: *params.VRF}
	}
	out := *ip
	return &out, nil
}

func (f *fakeStore) ListVLANs(context.Context) ([]netbox.VLAN, error) {
	if err := f.op("ListVLANs"); err != nil {
		return nil, err
	}
	out := make([]netbox.VLAN, 0, len(f.vlans))
	for _, v := range f.vlans {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeStore) CreateVLAN(_ context.Context, vid int, name string) (*netbox.VLAN, error) {
	if err := f.op("CreateVLAN"); err != nil {
		return nil, err
	}
	v := &netbox.VLAN{ID: f.id(), VID: vid, Name: name}
	f.vlans[v.ID] = v
	out := *v
	return &out, nil
}

func (f *fakeStore) ListVirtualDisks(context.Context) ([]netbox.VirtualDisk, error) {
	if err := f.op("ListVirtualDisks"); err != nil {
		return nil, err
	}
	out := make([]netbox.VirtualDisk, 0, len(f.disks))
	for _, d := range f.disks {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeStore) DisksForVM(_ context.Context, vmID int) ([]netbox.VirtualDisk, error) {
	if err := f.op("DisksForVM"); err != nil {
		return nil, err
	}
	var out []netbox.VirtualDisk
	for _, d := range f.disks {
		if d.VirtualMachine.ID == vmID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateDisk(_ context.Context, params netbox.DiskParams) (*netbox.VirtualDisk, error) {
	if err := f.op("CreateDisk"); err != nil {
		return nil, err
	}
	d := &netbox.VirtualDisk{
		ID:             f.id(),
		Name:           params.Name,
		VirtualMachine: netbox.Ref{ID: params.VirtualMachine},
		Size:           params.Size,
	}
	if v, ok := params.CustomFields["backup"].(bool); ok {
		d.CustomFields.Backup = boolPtr(v)
	}
	f.disks[d.ID] = d
	out := *d
	return &out, nil
}

func (f *fakeStore) UpdateDisk(_ context.Context, id int, params netbox.DiskParams) (*netbox.VirtualDisk, error) {
	if err := f.op("UpdateDisk"); err != nil {
		return nil, err
	}
	d, ok := f.disks[id]
	if !ok {
		return nil, fmt.Errorf("disk %d not found", id)
	}
	if params.Size != 0 {
		d.Size = params.Size
	}
	if v, ok := params.CustomFields["backup"].(bool); ok {
		d.CustomFields.Backup = boolPtr(v)
	}
	out := *d
	return &out, nil
}

func (f *fakeStore) ListTags(context.Context) ([]netbox.Tag, error) {
	if err := f.op("ListTags"); err != nil {
		return nil, err
	}
	out := make([]netbox.Tag, 0, len(f.tags))
	for _, tag := range f.tags {
		out = append(out, *tag)
	}
	return out, nil
}

func (f *fakeStore) CreateTag(_ context.Context, name, slug, description string) (*netbox.Tag, error) {
	if err := f.op("CreateTag"); err != nil {
		return nil, err
	}
	tag := &netbox.Tag{ID: f.id(), Name: name, Slug: slug, Description: description}
	f.tags[tag.ID] = tag
	out := *tag
	return &out, nil
}

func (f *fakeStore) ListDeviceRoles(context.Context) ([]netbox.DeviceRole, error) {
	if err := f.op("ListDeviceRoles"); err != nil {
		return nil, err
	}
	out := make([]netbox.DeviceRole, 0, len(f.roles))
	for _, role := range f.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (f *fakeStore) CreateDeviceRole(_ context.Context, params netbox.DeviceRoleParams) (*netbox.DeviceRole, error) {
	if err := f.op("CreateDeviceRole"); err != nil {
		return nil, err
	}
	role := &netbox.DeviceRole{
		ID:     f.id(),
		Name:   params.Name,
		Slug:   params.Slug,
		Color:  params.Color,
		VMRole: params.VMRole,
	}
	f.roles[role.ID] = role
	out := *role
	return &out, nil
}

func (f *fakeStore) ListCustomFields(context.Context) ([]netbox.CustomField, error) {
	if err := f.op("ListCustomFields"); err != nil {
		return nil, err
	}
	out := make([]netbox.CustomField, 0, len(f.fields))
	for _, field := range f.fields {
		out = append(out, *field)
	}
	return out, nil
}

func (f *fakeStore) CreateCustomField(_ context.Context, params netbox.CustomFieldParams) (*netbox.CustomField, error) {
	if err := f.op("CreateCustomField"); err != nil {
		return nil, err
	}
	field := &netbox.CustomField{
		ID:          f.id(),
		Name:        params.Name,
		Label:       params.Label,
		Type:        netbox.Status{Value: params.Type},
		ObjectTypes: params.ObjectTypes,
		Description: params.Description,
	}
	f.fields[field.ID] = field
	out := *field
	return &out, nil
}

var _ Source = (*fakeSource)(nil)
var _ Store = (*fakeStore)(nil)
