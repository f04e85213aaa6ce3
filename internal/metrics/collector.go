/*
 * Package metrics implements host information collection for the hostlink
 * client.
 *
 * The collector reads the operating system identity and memory figures
 * reported by STATUS. It is a thin cross-platform layer over gopsutil.
 */
package metrics

import (
	"fmt"

	"github.com/ZerkerEOD/hostlink/pkg/debug"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// HostSnapshot holds one reading of host information. Memory figures are in
// bytes. An empty OSName or OSVersion means the value could not be determined.
type HostSnapshot struct {
	OSName      string
	OSVersion   string
	TotalMemory uint64
	UsedMemory  uint64
	TotalSwap   uint64
	UsedSwap    uint64
}

// Collector gathers host snapshots from the operating system
type Collector struct {
	hostInfo      func() (*host.InfoStat, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	swapMemory    func() (*mem.SwapMemoryStat, error)
}

// New creates a new collector backed by gopsutil
func New() *Collector {
	return &Collector{
		hostInfo:      host.Info,
		virtualMemory: mem.VirtualMemory,
		swapMemory:    mem.SwapMemory,
	}
}

// Collect gathers the current host snapshot. Missing OS identity is not an
// error, but memory and swap figures are required.
func (c *Collector) Collect() (*HostSnapshot, error) {
	snapshot := &HostSnapshot{}

	if err := c.collectHostInfo(snapshot); err != nil {
		debug.Warning("Failed to collect host info: %v", err)
		// Continue without OS name and version
	}

	if err := c.collectMemoryMetrics(snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (c *Collector) collectHostInfo(snapshot *HostSnapshot) error {
	info, err := c.hostInfo()
	if err != nil {
		return fmt.Errorf("failed to get host info: %v", err)
	}
	if info == nil {
		return fmt.Errorf("host info unavailable")
	}

	snapshot.OSName = info.Platform
	snapshot.OSVersion = info.PlatformVersion
	return nil
}

func (c *Collector) collectMemoryMetrics(snapshot *HostSnapshot) error {
	vmem, err := c.virtualMemory()
	if err != nil {
		return fmt.Errorf("failed to get memory info: %w", err)
	}
	swap, err := c.swapMemory()
	if err != nil {
		return fmt.Errorf("failed to get swap info: %w", err)
	}

	snapshot.TotalMemory = vmem.Total
	snapshot.UsedMemory = vmem.Used
	snapshot.TotalSwap = swap.Total
	snapshot.UsedSwap = swap.Used
	return nil
}

// Close cleans up any resources used by the collector
func (c *Collector) Close() error {
	// No resources to clean up in this implementation
	return nil
}
