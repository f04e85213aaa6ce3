package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	defer func() { Version, Commit, BuildDate = origVersion, origCommit, origDate }()

	Version, Commit, BuildDate = "dev", "", ""
	assert.Equal(t, "dev", GetVersion())
	assert.True(t, strings.HasPrefix(String(), "hostlink dev "+runtime.GOOS+"/"))

	Version, Commit, BuildDate = "v1.2.0", "abc1234", "2024-05-01"
	assert.True(t, strings.HasPrefix(String(), "hostlink v1.2.0 (commit abc1234) built 2024-05-01 "))
	assert.Contains(t, String(), runtime.Version())
}
