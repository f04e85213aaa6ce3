package status

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ZerkerEOD/hostlink/internal/metrics"
	"github.com/ZerkerEOD/hostlink/internal/mocks"
	"github.com/ZerkerEOD/hostlink/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		snapshot metrics.HostSnapshot
		want     Record
	}{
		{
			name: "full snapshot",
			snapshot: metrics.HostSnapshot{
				OSName:      "debian",
				OSVersion:   "12.5",
				TotalMemory: 2048 * 1024,
				UsedMemory:  1024 * 1024,
				TotalSwap:   512 * 1024,
				UsedSwap:    1536,
			},
			want: Record{
				OSName:        "debian",
				OSVersion:     "12.5",
				TotalMemoryKB: 2048,
				UsedMemoryKB:  1024,
				TotalSwapKB:   512,
				UsedSwapKB:    1,
			},
		},
		{
			name:     "missing identity",
			snapshot: metrics.HostSnapshot{OSVersion: "  "},
			want:     Record{OSName: Unknown, OSVersion: Unknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(&tt.snapshot))
		})
	}
}

func TestRecord_WriteTo(t *testing.T) {
	r := Record{
		OSName:        "ubuntu",
		OSVersion:     "22.04",
		TotalMemoryKB: 100,
		UsedMemoryKB:  50,
		TotalSwapKB:   10,
		UsedSwapKB:    0,
	}

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)

	want := "Operating System Name: ubuntu\n" +
		"Operating System Version: 22.04\n" +
		"Total Memory: 100 kB\n" +
		"Used Memory: 50 kB\n" +
		"Total Swap: 10 kB\n" +
		"Used Swap: 0 kB\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, int64(len(want)), n)
	assert.Len(t, r.Lines(), 6)
}

func TestReport(t *testing.T) {
	provider := mocks.NewMockHostProvider()
	var buf bytes.Buffer

	record, err := Report(provider, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.CollectCalls)
	assert.Equal(t, "ubuntu", record.OSName)
	assert.Equal(t, uint64(16<<20), record.TotalMemoryKB)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Operating System Name: ubuntu", lines[0])
	assert.Equal(t, "Total Memory: 16777216 kB", lines[2])
	assert.Equal(t, "Used Swap: 0 kB", lines[5])
}

func TestReport_UnknownFallback(t *testing.T) {
	provider := mocks.NewMockHostProvider()
	provider.Snapshot.OSName = ""
	provider.Snapshot.OSVersion = ""

	var buf bytes.Buffer
	_, err := Report(provider, &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(),
		"Operating System Name: Unknown\nOperating System Version: Unknown\n"))
}

func TestReport_FreshSnapshotEachCall(t *testing.T) {
	provider := mocks.NewMockHostProvider()
	used := uint64(0)
	provider.CollectFunc = func() (*metrics.HostSnapshot, error) {
		used += 1024
		return &metrics.HostSnapshot{UsedMemory: used}, nil
	}

	first, err := Report(provider, &bytes.Buffer{})
	require.NoError(t, err)
	second, err := Report(provider, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.UsedMemoryKB)
	assert.Equal(t, uint64(2), second.UsedMemoryKB)
	assert.Equal(t, 2, provider.CollectCalls)
}

func TestReport_ProviderError(t *testing.T) {
	provider := mocks.NewMockHostProvider()
	provider.CollectFunc = func() (*metrics.HostSnapshot, error) {
		return nil, errors.New("meminfo unreadable")
	}

	var buf bytes.Buffer
	_, err := Report(provider, &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Empty(t, buf.String())
}

func TestReport_WriteError(t *testing.T) {
	conn := mocks.NewMockConn()
	conn.WriteError = errors.New("broken pipe")

	_, err := Report(mocks.NewMockHostProvider(), conn)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrConnection)
}
