package sync

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/config"
	"github.com/provirt/pve2netbox/internal/metrics"
	"github.com/provirt/pve2netbox/internal/netbox"
	"github.com/provirt/pve2netbox/internal/proxmox"
)

// Orchestrator drives reconciliation passes in one of three modes
// selected by the configured intervals: a single full pass, a fixed-rate
// full-pass loop, or a combined loop of cheap quick checks with periodic
// full passes. All reconciliation runs on the calling goroutine;
// downstream writes sharing the global MAC/IP spaces must stay
// serialized for the arbiter's owner checks to hold.
type Orchestrator struct {
	source  Source
	store   Store
	cfg     *config.Config
	metrics *metrics.SyncMetrics
}

// NewOrchestrator wires an orchestrator over the given clients.
func NewOrchestrator(source Source, store Store, cfg *config.Config, m *metrics.SyncMetrics) *Orchestrator {
	return &Orchestrator{source: source, store: store, cfg: cfg, metrics: m}
}

// Run executes the mode selected by configuration until ctx is cancelled
// (looping modes) or the pass finishes (single-run).
func (o *Orchestrator) Run(ctx context.Context) error {
	switch o.cfg.Mode() {
	case config.ModeSimpleLoop:
		return o.runSimpleLoop(ctx)
	case config.ModeCombined:
		return o.runCombinedLoop(ctx)
	}

	logSection("Running single sync (no intervals configured)")
	if err := o.FullPass(ctx); err != nil {
		o.metrics.RecordError()
		return err
	}
	return nil
}

// FullPass reconciles the entire inventory: provisioning, a full
// snapshot load, every node and guest, then stale-guest cleanup.
func (o *Orchestrator) FullPass(ctx context.Context) error {
	runLog := log.WithField("run_id", uuid.New().String())
	logSection("Starting full sync")
	runLog.Info("🚀 Full reconciliation pass starting")
	if o.cfg.DryRun {
		log.Warn("DRY RUN MODE: No changes will be made to NetBox")
	}
	start := o.metrics.RecordFullSyncStart()

	ProvisionCustomFields(ctx, o.store, o.cfg)
	ProvisionRoles(ctx, o.store, o.cfg)

	snap := Load(ctx, o.store, ScopeAll())
	engine := NewEngine(o.source, o.store, snap, o.cfg)

	log.Info("Processing Proxmox tags...")
	if err := EnsurePoolTags(ctx, o.source, o.store, snap); err != nil {
		return err
	}

	log.Info("Fetching VM metadata from Proxmox...")
	poolTags, err := o.guestPoolTags(ctx, nil)
	if err != nil {
		return err
	}
	haSet, err := o.haGuests(ctx)
	if err != nil {
		return err
	}

	log.Info("Processing Proxmox nodes...")
	nodes, err := o.source.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("listing nodes: %w", err)
	}

	vmCount, lxcCount := 0, 0
	current := make(map[int]bool)
	for _, node := range nodes {
		log.Infof("  Processing node: %s", node.Node)
		repSet, err := o.replicatedGuests(ctx, node.Node)
		if err != nil {
			return err
		}

		device := snap.Devices[strings.ToLower(node.Node)]
		if device == nil {
			return fmt.Errorf("the device %s is not created in NetBox", node.Node)
		}
		if err := o.updateDeviceStatus(ctx, device, node); err != nil {
			return err
		}

		if o.cfg.SyncVMs {
			listings, err := o.source.ListQEMU(ctx, node.Node)
			if err != nil {
				return fmt.Errorf("listing QEMU guests on %s: %w", node.Node, err)
			}
			for _, listing := range listings {
				log.Infof("    Processing VM: %s (ID: %d)", listing.Name, listing.VMID)
				current[listing.VMID] = true
				vmCount++
				o.metrics.RecordVMSync()
				if err := engine.SyncGuest(ctx, proxmox.KindQEMU, device, listing, poolTags[listing.VMID], repSet[listing.VMID], haSet[listing.VMID]); err != nil {
					return err
				}
			}
		}
		if o.cfg.SyncLXC {
			listings, err := o.source.ListLXC(ctx, node.Node)
			if err != nil {
				return fmt.Errorf("listing LXC containers on %s: %w", node.Node, err)
			}
			for _, listing := range listings {
				log.Infof("    Processing LXC: %s (ID: %d)", listing.Name, listing.VMID)
				current[listing.VMID] = true
				lxcCount++
				o.metrics.RecordLXCSync()
				if err := engine.SyncGuest(ctx, proxmox.KindLXC, device, listing, poolTags[listing.VMID], repSet[listing.VMID], haSet[listing.VMID]); err != nil {
					return err
				}
			}
		}
	}

	if o.cfg.EnableCleanup {
		o.cleanupStaleGuests(ctx, snap, current)
	}
	o.metrics.RecordFullSyncEnd(start, vmCount, lxcCount)

	logSection("Sync completed successfully!")
	runLog.Infof("Synchronized %d VMs and %d LXC containers", vmCount, lxcCount)
	log.Infof("Duration: %.2fs", time.Since(start).Seconds())
	return nil
}

// QuickPass reconciles only the given changed guests with a scoped
// snapshot. A missing node device record skips that node's guests
// instead of failing; the next full pass surfaces it fatally.
func (o *Orchestrator) QuickPass(ctx context.Context, changed []int) error {
	if len(changed) == 0 {
		log.Info("No changes detected, skipping sync.")
		return nil
	}
	log.Infof("Quick sync: processing %d changed VMs...", len(changed))
	changedSet := make(map[int]bool, len(changed))
	for _, vmid := range changed {
		changedSet[vmid] = true
	}

	snap := Load(ctx, o.store, ScopeGuests(changed))
	engine := NewEngine(o.source, o.store, snap, o.cfg)

	if err := EnsurePoolTags(ctx, o.source, o.store, snap); err != nil {
		return err
	}

	log.Info("Fetching VM metadata from Proxmox...")
	poolTags, err := o.guestPoolTags(ctx, changedSet)
	if err != nil {
		return err
	}
	haSet, err := o.haGuests(ctx)
	if err != nil {
		return err
	}

	nodes, err := o.source.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("listing nodes: %w", err)
	}

	for _, node := range nodes {
		var qemu, lxc []proxmox.GuestListing
		if o.cfg.SyncVMs {
			listings, err := o.source.ListQEMU(ctx, node.Node)
			if err != nil {
				return fmt.Errorf("listing QEMU guests on %s: %w", node.Node, err)
			}
			for _, listing := range listings {
				if changedSet[listing.VMID] {
					qemu = append(qemu, listing)
				}
			}
		}
		if o.cfg.SyncLXC {
			listings, err := o.source.ListLXC(ctx, node.Node)
			if err != nil {
				return fmt.Errorf("listing LXC containers on %s: %w", node.Node, err)
			}
			for _, listing := range listings {
				if changedSet[listing.VMID] {
					lxc = append(lxc, listing)
				}
			}
		}
		if len(qemu) == 0 && len(lxc) == 0 {
			continue
		}

		log.Infof("  Processing node: %s", node.Node)
		repSet, err := o.replicatedGuests(ctx, node.Node)
		if err != nil {
			return err
		}
		device := snap.Devices[strings.ToLower(node.Node)]
		if device == nil {
			log.Warnf("⚠️ Device %s not found in NetBox, skipping.", node.Node)
			continue
		}
		if err := o.updateDeviceStatus(ctx, device, node); err != nil {
			return err
		}

		for _, listing := range qemu {
			log.Infof("    Quick sync VM: %s (ID: %d)", listing.Name, listing.VMID)
			if err := engine.SyncGuest(ctx, proxmox.KindQEMU, device, listing, poolTags[listing.VMID], repSet[listing.VMID], haSet[listing.VMID]); err != nil {
				return err
			}
		}
		for _, listing := range lxc {
			log.Infof("    Quick sync LXC: %s (ID: %d)", listing.Name, listing.VMID)
			if err := engine.SyncGuest(ctx, proxmox.KindLXC, device, listing, poolTags[listing.VMID], repSet[listing.VMID], haSet[listing.VMID]); err != nil {
				return err
			}
		}
	}

	log.Info("Quick sync completed successfully!")
	return nil
}

func (o *Orchestrator) runSimpleLoop(ctx context.Context) error {
	interval := o.cfg.FullSyncInterval
	logSection(fmt.Sprintf("Running in simple mode: full sync every %s", interval))
	for {
		if err := o.FullPass(ctx); err != nil {
			log.WithError(err).Error("❌ Error during sync")
			o.metrics.RecordError()
		}
		log.Infof("Next full sync in %s...", interval)
		if !sleepCtx(ctx, interval) {
			log.Info("🛑 Shutdown requested, stopping sync loop")
			return nil
		}
	}
}

func (o *Orchestrator) runCombinedLoop(ctx context.Context) error {
	quickInterval := o.cfg.QuickCheckInterval
	fullInterval := o.cfg.EffectiveFullSyncInterval()
	logSection("Running in combined mode")
	log.Infof("  - Quick check every %s", quickInterval)
	log.Infof("  - Full sync every %s", fullInterval)

	differ := NewDiffer(o.source, o.cfg)

	logSection("Initial full sync")
	var lastFull time.Time
	if err := o.FullPass(ctx); err != nil {
		log.WithError(err).Error("❌ Error during initial sync")
		o.metrics.RecordError()
	} else {
		lastFull = time.Now()
	}

	logSubsection("Initializing quick check state")
	// The baseline is established even when the full pass failed so
	// drift detection starts from the latest known inventory.
	if err := differ.Rebaseline(ctx); err != nil {
		log.WithError(err).Warn("⚠️ Failed to initialize change tracking")
	}
	log.Infof("Tracking %d VMs for changes", differ.Tracked())
	if lastFull.IsZero() {
		log.Warn("Initial full sync failed; scheduled full sync retry will run on next cycle.")
	}

	for {
		if !sleepCtx(ctx, quickInterval) {
			log.Info("🛑 Shutdown requested, stopping sync loop")
			return nil
		}

		if time.Since(lastFull) >= fullInterval {
			logSection("Running scheduled full sync")
			if err := o.FullPass(ctx); err != nil {
				log.WithError(err).Error("❌ Error during full sync")
				o.metrics.RecordError()
			}
			lastFull = time.Now()
			if err := differ.Rebaseline(ctx); err != nil {
				log.WithError(err).Warn("⚠️ Failed to refresh change tracking")
			}
			log.Infof("Full sync completed. Tracking %d VMs.", differ.Tracked())
			continue
		}

		logSubsection(fmt.Sprintf("Quick check (%ds since last full sync)", int(time.Since(lastFull).Seconds())))
		changed, err := differ.Check(ctx)
		if err != nil {
			log.WithError(err).Error("❌ Error during quick check")
			log.Info("Will retry on next check cycle.")
			o.metrics.RecordError()
			continue
		}
		o.metrics.RecordQuickCheck(len(changed))
		if len(changed) == 0 {
			log.Info("No changes detected.")
			continue
		}
		log.Infof("Changes detected in %d VM(s): %v", len(changed), changed)
		if err := o.QuickPass(ctx, changed); err != nil {
			log.WithError(err).Error("❌ Error during quick sync")
			o.metrics.RecordError()
		}
	}
}

// guestPoolTags maps guest ids to their pool-derived tag names. Native
// Proxmox free-form tags are visible here but deliberately not applied.
func (o *Orchestrator) guestPoolTags(ctx context.Context, filter map[int]bool) (map[int][]string, error) {
	resources, err := o.source.ClusterVMResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cluster resources: %w", err)
	}
	tags := make(map[int][]string)
	for _, res := range resources {
		if filter != nil && !filter[res.VMID] {
			continue
		}
		var names []string
		if res.Pool != "" {
			names = append(names, "Pool/"+res.Pool)
		}
		tags[res.VMID] = names
	}
	return tags, nil
}

func (o *Orchestrator) haGuests(ctx context.Context) (map[int]bool, error) {
	ids, err := o.source.HAServiceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing HA services: %w", err)
	}
	return toSet(ids), nil
}

func (o *Orchestrator) replicatedGuests(ctx context.Context, node string) (map[int]bool, error) {
	ids, err := o.source.NodeReplicationGuests(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("listing replication jobs on %s: %w", node, err)
	}
	return toSet(ids), nil
}

func (o *Orchestrator) updateDeviceStatus(ctx context.Context, device *netbox.Device, node proxmox.Node) error {
	if o.cfg.DryRun {
		return nil
	}
	status := "offline"
	if node.Status == "online" {
		status = "active"
	}
	if err := o.store.UpdateDeviceStatus(ctx, device.ID, status); err != nil {
		return fmt.Errorf("updating device %s status: %w", device.Name, err)
	}
	return nil
}

// cleanupStaleGuests deletes downstream guest records whose serial has
// no corresponding source guest. Dry-run only logs the candidates.
func (o *Orchestrator) cleanupStaleGuests(ctx context.Context, snap *Snapshot, current map[int]bool) {
	log.Info("Checking for stale VMs in NetBox...")

	type staleGuest struct {
		vmid int
		vm   *netbox.VirtualMachine
	}
	var stale []staleGuest
	for serial, vm := range snap.Guests {
		vmid, err := strconv.Atoi(serial)
		if err != nil {
			continue
		}
		if !current[vmid] {
			stale = append(stale, staleGuest{vmid: vmid, vm: vm})
		}
	}
	if len(stale) == 0 {
		log.Info("No stale VMs found.")
		return
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].vmid < stale[j].vmid })

	log.Warnf("⚠️ Found %d stale VM(s) that exist in NetBox but not in Proxmox:", len(stale))
	for _, s := range stale {
		log.Warnf("  - VM %s (ID: %d)", s.vm.Name, s.vmid)
	}
	if o.cfg.DryRun {
		log.Info("[DRY RUN] Would delete these VMs from NetBox")
		return
	}
	for _, s := range stale {
		log.Infof("Deleting stale VM: %s (ID: %d)", s.vm.Name, s.vmid)
		if err := o.store.DeleteVirtualMachine(ctx, s.vm.ID); err != nil {
			log.WithError(err).Errorf("❌ Failed to delete VM %s", s.vm.Name)
		}
	}
}

// sleepCtx waits for d and reports false when ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func logSection(title string) {
	line := strings.Repeat("=", 60)
	log.Info(line)
	log.Info(title)
	log.Info(line)
}

func logSubsection(title string) {
	log.Info(strings.Repeat("-", 60))
	log.Info(title)
	log.Info(strings.Repeat("-", 60))
}
