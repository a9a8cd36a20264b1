// Package proxmox implements the Proxmox VE API client used as the source
// inventory provider, plus the config-string parsers shared by all callers.
package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Client talks to the Proxmox VE REST API using API token authentication.
type Client struct {
	baseURL    string
	authHeader string
	client     *http.Client
}

// NewClient creates a Proxmox API client. host may carry an explicit port;
// the Proxmox default 8006 is used otherwise. Token auth never needs the
// CSRF ticket dance, a single header covers all requests.
func NewClient(host, user, tokenName, tokenValue string, verifySSL bool) *Client {
	if !strings.Contains(host, ":") {
		host += ":8006"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !verifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:    fmt.Sprintf("https://%s/api2/json", host),
		authHeader: fmt.Sprintf("PVEAPIToken=%s!%s=%s", user, tokenName, tokenValue),
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

// get performs a GET request and unwraps the {"data": ...} envelope every
// Proxmox response uses.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create Proxmox request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Proxmox API %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Proxmox response for %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Proxmox API %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode Proxmox response for %s: %w", path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode Proxmox data for %s: %w", path, err)
	}
	return nil
}

// ListNodes returns all cluster members.
func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.get(ctx, "/nodes", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// ListQEMU returns the QEMU guest listing for one node.
func (c *Client) ListQEMU(ctx context.Context, node string) ([]GuestListing, error) {
	var guests []GuestListing
	if err := c.get(ctx, fmt.Sprintf("/nodes/%s/qemu", node), &guests); err != nil {
		return nil, err
	}
	return guests, nil
}

// ListLXC returns the LXC container listing for one node.
func (c *Client) ListLXC(ctx context.Context, node string) ([]GuestListing, error) {
	var guests []GuestListing
	if err := c.get(ctx, fmt.Sprintf("/nodes/%s/lxc", node), &guests); err != nil {
		return nil, err
	}
	return guests, nil
}

// QEMUConfig fetches the full configuration of one QEMU guest.
func (c *Client) QEMUConfig(ctx context.Context, node string, vmid int) (GuestConfig, error) {
	var cfg GuestConfig
	if err := c.get(ctx, fmt.Sprintf("/nodes/%s/qemu/%d/config", node, vmid), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LXCConfig fetches the full configuration of one LXC container.
func (c *Client) LXCConfig(ctx context.Context, node string, vmid int) (GuestConfig, error) {
	var cfg GuestConfig
	if err := c.get(ctx, fmt.Sprintf("/nodes/%s/lxc/%d/config", node, vmid), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AgentNetworkInterfaces queries the QEMU guest agent for OS-level
// interfaces. Loopback and interfaces without a hardware address are
// filtered out; MAC addresses are lowercased for stable matching against
// config-declared MACs.
func (c *Client) AgentNetworkInterfaces(ctx context.Context, node string, vmid int) ([]AgentInterface, error) {
	var result struct {
		Result []AgentInterface `json:"result"`
	}
	path := fmt.Sprintf("/nodes/%s/qemu/%d/agent/network-get-interfaces", node, vmid)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}

	interfaces := make([]AgentInterface, 0, len(result.Result))
	for _, iface := range result.Result {
		if iface.Name == "lo" || iface.HardwareAddress == "" {
			continue
		}
		iface.HardwareAddress = strings.ToLower(iface.HardwareAddress)
		interfaces = append(interfaces, iface)
	}
	return interfaces, nil
}

// ListPools returns all resource pools.
func (c *Client) ListPools(ctx context.Context) ([]Pool, error) {
	var pools []Pool
	if err := c.get(ctx, "/pools", &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// ClusterVMResources returns the cluster-wide VM resource rows, which carry
// pool membership for every guest.
func (c *Client) ClusterVMResources(ctx context.Context) ([]ClusterResource, error) {
	var resources []ClusterResource
	if err := c.get(ctx, "/cluster/resources?type=vm", &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// NodeReplicationGuests returns the vmids that have replication jobs
// configured on the given node.
func (c *Client) NodeReplicationGuests(ctx context.Context, node string) ([]int, error) {
	var jobs []ReplicationJob
	if err := c.get(ctx, fmt.Sprintf("/nodes/%s/replication", node), &jobs); err != nil {
		return nil, err
	}
	guests := make([]int, 0, len(jobs))
	for _, job := range jobs {
		guests = append(guests, job.Guest)
	}
	return guests, nil
}

// HAServiceIDs returns the vmids of HA-managed guests, parsed from service
// SIDs like "vm:100" or "ct:101". Malformed SIDs are logged and skipped.
func (c *Client) HAServiceIDs(ctx context.Context) ([]int, error) {
	var resources []HAResource
	if err := c.get(ctx, "/cluster/ha/status/current", &resources); err != nil {
		return nil, err
	}

	var vmids []int
	for _, res := range resources {
		if res.Type != "service" {
			continue
		}
		_, id, ok := strings.Cut(res.SID, ":")
		if !ok {
			log.WithField("sid", res.SID).Warn("Skipping HA service with malformed SID")
			continue
		}
		vmid, err := strconv.Atoi(id)
		if err != nil {
			log.WithField("sid", res.SID).Warn("Skipping HA service with non-numeric vmid")
			continue
		}
		vmids = append(vmids, vmid)
	}
	return vmids, nil
}
