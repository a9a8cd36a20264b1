package sync

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/netbox"
)

// Resolver finds the existing downstream interface for a source NIC. A
// NIC has up to three identities: the config slot name ("net0"), the
// OS-reported name from the guest agent ("eth0"), and its MAC address.
// Renames on either name axis must converge on the same record instead
// of spawning duplicates.
type Resolver struct {
	store Store
	snap  *Snapshot
}

// NewResolver returns a resolver over the given snapshot.
func NewResolver(store Store, snap *Snapshot) *Resolver {
	return &Resolver{store: store, snap: snap}
}

// Resolve returns the downstream interface for the NIC identified by
// slot, OS name (may be empty) and MAC, or nil when no record matches
// and a new one should be created. Lookup order: slot name, OS name,
// then recovery through the MAC binding. A MAC bound to an interface of
// a different guest is NOT a match here; that situation is the conflict
// arbiter's problem, at the MAC-binding stage.
func (r *Resolver) Resolve(ctx context.Context, vmID int, slot, osName, mac string) *netbox.VMInterface {
	if iface := r.snap.InterfaceFor(vmID, slot); iface != nil {
		return iface
	}
	if osName != "" {
		if iface := r.snap.InterfaceFor(vmID, osName); iface != nil {
			return iface
		}
	}
	return r.resolveByMAC(ctx, vmID, mac)
}

// resolveByMAC recovers an interface through its MAC binding. This is
// what keeps a simultaneous slot and OS rename from duplicating the
// record. Probe failures are logged and treated as no match.
func (r *Resolver) resolveByMAC(ctx context.Context, vmID int, mac string) *netbox.VMInterface {
	record := r.snap.MACByAddress(mac)
	if record == nil || record.AssignedObjectID == nil {
		return nil
	}
	if record.AssignedObjectType != netbox.VMInterfaceObjectType {
		return nil
	}
	iface, err := r.store.GetInterface(ctx, *record.AssignedObjectID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"mac":          mac,
			"interface_id": *record.AssignedObjectID,
		}).Warn("⚠️ Failed to probe interface behind MAC binding, treating as no match")
		return nil
	}
	if iface.VirtualMachine.ID != vmID {
		return nil
	}
	log.WithFields(log.Fields{
		"mac":          mac,
		"interface_id": iface.ID,
	}).Debug("Recovered renamed interface through MAC binding")
	return iface
}
