package isolate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

func TestExecuteKillsLeftoverProcesses(t *testing.T) {
	killed := recordKills(t)
	pidFile := filepath.Join(t.TempDir(), "pid")

	var pid int
	b := helperBoundary("spawn", "HELPER_PIDFILE="+pidFile)
	b.OnStart = func(p int) { pid = p }

	start := time.Now()
	outcome := b.Execute(context.Background(), testpdf.Simple(), common.Params{Text: "X", FontSize: 12})
	assert.Equal(t, Success, outcome.Kind, outcome.Detail)
	assert.Less(t, time.Since(start), 30*time.Second)
	assert.Equal(t, []int{pid}, *killed)

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	child, err := strconv.Atoi(string(data))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return exited(child) }, 10*time.Second, 50*time.Millisecond)
}

// exited reports whether pid is gone or a zombie waiting to be reaped.
func exited(pid int) bool {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	// The state follows the parenthesized command name.
	i := bytes.LastIndexByte(stat, ')')
	return i >= 0 && i+2 < len(stat) && stat[i+2] == 'Z'
}
