package sync

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/config"
	"github.com/provirt/pve2netbox/internal/proxmox"
)

// Fingerprint is the cheap per-guest state used for change detection.
// It is built from listing fields only; full guest configuration is
// never fetched here, and the fingerprint is never written downstream.
type Fingerprint struct {
	Kind    proxmox.GuestKind
	Status  string
	Name    string
	Node    string
	MaxMem  int64
	MaxDisk int64
}

// Differ detects guest changes between quick-check ticks by comparing
// fingerprints. A guest counts as changed when it is new, removed, or
// any fingerprint field differs from the previous tick.
type Differ struct {
	source Source
	cfg    *config.Config
	last   map[int]Fingerprint
}

// NewDiffer returns a differ with an empty baseline; the first Check
// reports every guest as changed unless Rebaseline runs first.
func NewDiffer(source Source, cfg *config.Config) *Differ {
	return &Differ{source: source, cfg: cfg, last: make(map[int]Fingerprint)}
}

// Check fingerprints the current inventory and returns the changed
// guest ids, sorted, replacing the baseline. Listing failures for one
// host are logged and that host's guests are absent from this tick's
// fingerprints. Only a failure to list the hosts themselves is an error.
func (d *Differ) Check(ctx context.Context) ([]int, error) {
	current, err := d.fingerprints(ctx)
	if err != nil {
		return nil, err
	}

	var changed []int
	for vmid, fp := range current {
		if prev, ok := d.last[vmid]; !ok || prev != fp {
			changed = append(changed, vmid)
		}
	}
	for vmid := range d.last {
		if _, ok := current[vmid]; !ok {
			changed = append(changed, vmid)
		}
	}
	sort.Ints(changed)

	d.last = current
	return changed, nil
}

// Rebaseline replaces the baseline with the current inventory without
// reporting changes. Run after every full pass, including failed ones,
// so drift detection keeps working from the latest known state.
func (d *Differ) Rebaseline(ctx context.Context) error {
	current, err := d.fingerprints(ctx)
	if err != nil {
		return err
	}
	d.last = current
	return nil
}

// Tracked returns the number of guests in the current baseline.
func (d *Differ) Tracked() int {
	return len(d.last)
}

func (d *Differ) fingerprints(ctx context.Context) (map[int]Fingerprint, error) {
	nodes, err := d.source.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	current := make(map[int]Fingerprint)
	for _, node := range nodes {
		if d.cfg.SyncVMs {
			vms, err := d.source.ListQEMU(ctx, node.Node)
			if err != nil {
				log.WithError(err).WithField("node", node.Node).Warn("⚠️ Failed to list QEMU guests")
			}
			for _, vm := range vms {
				current[vm.VMID] = listingFingerprint(proxmox.KindQEMU, node.Node, vm)
			}
		}
		if d.cfg.SyncLXC {
			cts, err := d.source.ListLXC(ctx, node.Node)
			if err != nil {
				log.WithError(err).WithField("node", node.Node).Warn("⚠️ Failed to list LXC containers")
			}
			for _, ct := range cts {
				current[ct.VMID] = listingFingerprint(proxmox.KindLXC, node.Node, ct)
			}
		}
	}
	return current, nil
}

func listingFingerprint(kind proxmox.GuestKind, node string, listing proxmox.GuestListing) Fingerprint {
	return Fingerprint{
		Kind:    kind,
		Status:  listing.Status,
		Name:    listing.Name,
		Node:    node,
		MaxMem:  listing.MaxMem,
		MaxDisk: listing.MaxDisk,
	}
}
