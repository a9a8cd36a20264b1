package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"

	"github.com/provirt/pve2netbox/internal/config"
	"github.com/provirt/pve2netbox/internal/netbox"
)

// requiredCustomFields are the schema extensions every pass depends on.
var requiredCustomFields = []netbox.CustomFieldParams{
	{
		Name:        "autostart",
		Label:       "Autostart",
		Type:        "boolean",
		ObjectTypes: []string{"virtualization.virtualmachine"},
		Description: "VM autostart on boot",
	},
	{
		Name:        "replicated",
		Label:       "Replicated",
		Type:        "boolean",
		ObjectTypes: []string{"virtualization.virtualmachine"},
		Description: "VM replication enabled",
	},
	{
		Name:        "ha",
		Label:       "Failover",
		Type:        "boolean",
		ObjectTypes: []string{"virtualization.virtualmachine"},
		Description: "VM high availability enabled",
	},
	{
		Name:        "backup",
		Label:       "Backup",
		Type:        "boolean",
		ObjectTypes: []string{"virtualization.virtualdisk"},
		Description: "Disk backup enabled",
	},
	{
		Name:        "dns_name",
		Label:       "DNS Name",
		Type:        "text",
		ObjectTypes: []string{"ipam.prefix"},
		Description: "DNS domain name for the prefix",
	},
}

// ProvisionCustomFields creates the custom fields the sync writes to,
// when they do not exist yet. Creation failures are logged with
// manual-action guidance and do not fail the pass; the field may be
// restricted by downstream permissions.
func ProvisionCustomFields(ctx context.Context, store Store, cfg *config.Config) {
	if cfg.DryRun {
		log.Info("[DRY RUN] Would provision custom fields")
		return
	}

	log.Info("Provisioning custom fields...")
	existing := make(map[string]bool)
	fields, err := store.ListCustomFields(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to list custom fields, skipping provisioning")
		return
	}
	for _, field := range fields {
		existing[field.Name] = true
	}

	for _, field := range requiredCustomFields {
		if existing[field.Name] {
			log.Infof("  ✓ Custom field %q already exists", field.Name)
			continue
		}
		if _, err := store.CreateCustomField(ctx, field); err != nil {
			log.WithError(err).Errorf("  ❌ Failed to create custom field %q", field.Name)
			log.Errorf("     Please create it manually in NetBox: Name=%q, Type=%s, Object Types=%s",
				field.Name, field.Type, strings.Join(field.ObjectTypes, ", "))
			continue
		}
		log.Infof("  + Created custom field %q", field.Name)
	}
}

// ProvisionRoles creates the configured VM and LXC device roles when
// absent. Both are vm_role=true; colors distinguish them in the UI.
func ProvisionRoles(ctx context.Context, store Store, cfg *config.Config) {
	log.Info("Provisioning device roles...")
	if cfg.VMRole == "" && cfg.LXCRole == "" {
		log.Info("  No VM or LXC role configured, skipping")
		return
	}
	if cfg.DryRun {
		log.Info("[DRY RUN] Would provision device roles")
		return
	}

	existing := make(map[string]bool)
	roles, err := store.ListDeviceRoles(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Failed to list device roles, skipping provisioning")
		return
	}
	for _, role := range roles {
		existing[role.Name] = true
	}

	var toCreate []netbox.DeviceRoleParams
	if cfg.VMRole != "" && !existing[cfg.VMRole] {
		toCreate = append(toCreate, netbox.DeviceRoleParams{
			Name:        cfg.VMRole,
			Slug:        slug.Make(cfg.VMRole),
			Color:       "2196f3",
			VMRole:      true,
			Description: "QEMU/KVM Virtual Machine",
		})
	}
	if cfg.LXCRole != "" && cfg.LXCRole != cfg.VMRole && !existing[cfg.LXCRole] {
		toCreate = append(toCreate, netbox.DeviceRoleParams{
			Name:        cfg.LXCRole,
			Slug:        slug.Make(cfg.LXCRole),
			Color:       "4caf50",
			VMRole:      true,
			Description: "LXC Container",
		})
	}

	for _, role := range toCreate {
		if _, err := store.CreateDeviceRole(ctx, role); err != nil {
			log.WithError(err).Errorf("  ❌ Failed to create role %q", role.Name)
			continue
		}
		log.Infof("  + Created role %q", role.Name)
	}
	for _, name := range []string{cfg.VMRole, cfg.LXCRole} {
		if name != "" && existing[name] {
			log.Infof("  ✓ Role %q already exists", name)
		}
	}
}

// EnsurePoolTags makes every source resource pool exist downstream as a
// "Pool/<poolid>" tag and records them in the snapshot.
func EnsurePoolTags(ctx context.Context, source Source, store Store, snap *Snapshot) error {
	pools, err := source.ListPools(ctx)
	if err != nil {
		return fmt.Errorf("listing pools: %w", err)
	}
	for _, pool := range pools {
		name := "Pool/" + pool.PoolID
		if snap.Tags[name] != nil {
			continue
		}
		tag, err := store.CreateTag(ctx, name,
			strings.ToLower("pool-"+pool.PoolID),
			fmt.Sprintf("Proxmox pool %s", pool.PoolID))
		if err != nil {
			return fmt.Errorf("creating tag %s: %w", name, err)
		}
		snap.Tags[tag.Name] = tag
	}
	return nil
}
