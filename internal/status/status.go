// Package status renders the host status report sent in reply to STATUS.
package status

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZerkerEOD/hostlink/internal/metrics"
	"github.com/ZerkerEOD/hostlink/internal/protocol"
)

// Unknown replaces an OS name or version the host could not report.
const Unknown = "Unknown"

// ErrProvider marks a failure to read host information.
var ErrProvider = errors.New("host information unavailable")

// Provider supplies host snapshots. metrics.Collector is the production
// implementation.
type Provider interface {
	Collect() (*metrics.HostSnapshot, error)
}

// Record is one status report with memory figures in kB.
type Record struct {
	OSName        string
	OSVersion     string
	TotalMemoryKB uint64
	UsedMemoryKB  uint64
	TotalSwapKB   uint64
	UsedSwapKB    uint64
}

// Build converts a snapshot into a record, applying the Unknown fallbacks.
func Build(s *metrics.HostSnapshot) Record {
	r := Record{
		OSName:        orUnknown(s.OSName),
		OSVersion:     orUnknown(s.OSVersion),
		TotalMemoryKB: s.TotalMemory / 1024,
		UsedMemoryKB:  s.UsedMemory / 1024,
		TotalSwapKB:   s.TotalSwap / 1024,
		UsedSwapKB:    s.UsedSwap / 1024,
	}
	return r
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unknown
	}
	return v
}

// Lines returns the six report lines without terminators.
func (r Record) Lines() []string {
	return []string{
		"Operating System Name: " + r.OSName,
		"Operating System Version: " + r.OSVersion,
		fmt.Sprintf("Total Memory: %d kB", r.TotalMemoryKB),
		fmt.Sprintf("Used Memory: %d kB", r.UsedMemoryKB),
		fmt.Sprintf("Total Swap: %d kB", r.TotalSwapKB),
		fmt.Sprintf("Used Swap: %d kB", r.UsedSwapKB),
	}
}

// WriteTo writes the report as newline-terminated lines in a single write.
func (r Record) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, line := range r.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Report collects a fresh snapshot from p and writes it to w. Provider
// failures wrap ErrProvider and write failures wrap protocol.ErrConnection.
// Nothing is written unless the snapshot was collected.
func Report(p Provider, w io.Writer) (Record, error) {
	snapshot, err := p.Collect()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if snapshot == nil {
		return Record{}, ErrProvider
	}

	record := Build(snapshot)
	if _, err := record.WriteTo(w); err != nil {
		return record, fmt.Errorf("%w: write status: %v", protocol.ErrConnection, err)
	}
	return record, nil
}
