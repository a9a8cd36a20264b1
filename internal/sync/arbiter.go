package sync

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/netbox"
)

// Disposition is the arbiter's verdict on a contested address binding.
type Disposition int

const (
	// DispositionNoop: the record already points at the target.
	DispositionNoop Disposition = iota
	// DispositionReassign: the record may be moved to the target.
	DispositionReassign
	// DispositionConflict: a live guest holds the record; leave it alone
	// and skip the binding.
	DispositionConflict
	// DispositionSplitVRF: the record lives in a different VRF and is a
	// different address entirely; create a new one.
	DispositionSplitVRF
)

func (d Disposition) String() string {
	switch d {
	case DispositionNoop:
		return "noop"
	case DispositionReassign:
		return "reassign"
	case DispositionConflict:
		return "conflict"
	case DispositionSplitVRF:
		return "split-vrf"
	}
	return "unknown"
}

// Arbitration is the arbiter's full ruling. Holder is the interface the
// record is currently bound to and Owner its guest, when they could be
// probed; a reassignment must clear any stale primary pointer on them.
type Arbitration struct {
	Disposition Disposition
	Holder      *netbox.VMInterface
	Owner       *netbox.VirtualMachine
}

// Arbiter decides who keeps a MAC or IP record when the sync wants to
// bind it to one interface and finds it already bound to another. The
// deciding fact is whether the current holder is a live guest: stale
// bindings left behind by destroyed or recreated guests are reclaimed,
// bindings held by an online guest are never stolen.
type Arbiter struct {
	store Store
}

// NewArbiter returns an arbiter backed by the given store.
func NewArbiter(store Store) *Arbiter {
	return &Arbiter{store: store}
}

// ArbitrateMAC rules on a MAC record that claimant wants bound to target.
func (a *Arbiter) ArbitrateMAC(ctx context.Context, record *netbox.MACAddress, claimant *netbox.VirtualMachine, target *netbox.VMInterface) Arbitration {
	return a.arbitrate(ctx, "MAC", record.MACAddress, record.AssignedObjectType, record.AssignedObjectID, claimant, target)
}

// ArbitrateIP rules on an IP record that claimant wants bound to target.
// vrfID is the VRF of the prefix the address belongs to (nil for the
// global table); an existing record in a different VRF is a different
// address space entirely and gets a fresh record instead of a fight.
func (a *Arbiter) ArbitrateIP(ctx context.Context, record *netbox.IPAddress, claimant *netbox.VirtualMachine, target *netbox.VMInterface, vrfID *int) Arbitration {
	if !sameVRF(record.VRF, vrfID) {
		log.WithFields(log.Fields{
			"address": record.Address,
			"ip_id":   record.ID,
		}).Info("🔍 Address exists in a different VRF, creating a separate record")
		return Arbitration{Disposition: DispositionSplitVRF}
	}
	return a.arbitrate(ctx, "IP", record.Address, record.AssignedObjectType, record.AssignedObjectID, claimant, target)
}

func (a *Arbiter) arbitrate(ctx context.Context, kind, address, assignedType string, assignedID *int, claimant *netbox.VirtualMachine, target *netbox.VMInterface) Arbitration {
	if assignedID == nil || assignedType != netbox.VMInterfaceObjectType {
		return Arbitration{Disposition: DispositionReassign}
	}
	if *assignedID == target.ID {
		return Arbitration{Disposition: DispositionNoop}
	}

	holder, err := a.store.GetInterface(ctx, *assignedID)
	if err != nil {
		// A binding whose holder cannot even be fetched is treated as
		// stale and reclaimed.
		log.WithError(err).WithFields(log.Fields{
			"address":   address,
			"holder_if": *assignedID,
		}).Warnf("⚠️ Could not verify holder of %s, attempting re-assignment anyway", kind)
		return Arbitration{Disposition: DispositionReassign}
	}
	if holder.VirtualMachine.ID == claimant.ID {
		// Same guest, different slot. The NIC moved, follow it.
		return Arbitration{Disposition: DispositionReassign, Holder: holder}
	}

	owner, err := a.store.GetVirtualMachine(ctx, holder.VirtualMachine.ID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"address":   address,
			"holder_vm": holder.VirtualMachine.Name,
		}).Warnf("⚠️ Could not verify guest holding %s, attempting re-assignment anyway", kind)
		return Arbitration{Disposition: DispositionReassign, Holder: holder}
	}
	if owner.IsOffline() {
		log.WithFields(log.Fields{
			"address":   address,
			"holder_vm": owner.Name,
			"holder_id": owner.Serial,
		}).Infof("🔍 %s held by offline guest, safely re-assigning to %s (ID: %s)", kind, claimant.Name, claimant.Serial)
		return Arbitration{Disposition: DispositionReassign, Holder: holder, Owner: owner}
	}

	log.Errorf("❌ %s address conflict detected!", kind)
	log.Errorf("   %s is used by:", address)
	log.Errorf("      - VM %s (ID: %s, status: %s)", owner.Name, owner.Serial, owner.Status.Value)
	log.Errorf("      - VM %s (ID: %s, status: %s)", claimant.Name, claimant.Serial, claimant.Status.Value)
	log.Errorf("   ⚠️ ACTION REQUIRED: change the %s address upstream for one of the guests", kind)
	return Arbitration{Disposition: DispositionConflict, Holder: holder, Owner: owner}
}

func sameVRF(ref *netbox.Ref, vrfID *int) bool {
	if ref == nil {
		return vrfID == nil
	}
	return vrfID != nil && ref.ID == *vrfID
}
