//go:build !windows

package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/core-tools/hsu-ros-launch/pkg/apriltag"
	"github.com/core-tools/hsu-ros-launch/pkg/config"
	"github.com/core-tools/hsu-ros-launch/pkg/errors"
	"github.com/core-tools/hsu-ros-launch/pkg/launch"
	"github.com/core-tools/hsu-ros-launch/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) logger() logging.Logger {
	record := func(format string, args ...interface{}) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.lines = append(r.lines, fmt.Sprintf(format, args...))
	}
	return logging.NewLogger("", logging.LogFuncs{Debugf: record, Infof: record, Warnf: record, Errorf: record})
}

func (r *lineRecorder) find(substr string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.lines {
		if strings.Contains(line, substr) {
			return line, true
		}
	}
	return "", false
}

func TestRun_StartsNodeWithResolvedArguments(t *testing.T) {
	prefix := installWorkspace(t, `#!/bin/sh
echo "argv: $*"
i=0
while [ ! -f "$PID_PROBE" ] && [ $i -lt 50 ]; do sleep 0.1; i=$((i+1)); done
[ -f "$PID_PROBE" ] && echo pid-file-present
exit 0
`)
	pidDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Launcher.PIDDirectory = pidDir
	cfg.Environment = []string{"PID_PROBE=" + filepath.Join(pidDir, "hsu-ros-launch", "robot1", "apriltag_node.pid")}

	rec := &lineRecorder{}
	l, err := New(Options{
		Description: apriltag.GenerateLaunchDescription(),
		Config:      cfg,
		Environment: launch.NewEnvironment(map[string]string{"ROBOT_NAMESPACE": "robot1"}),
		Packages:    launch.NewAmentIndex([]string{prefix}),
		RunID:       "test-run",
	}, rec.logger())
	require.NoError(t, err)

	plan, err := l.Plan(map[string]string{
		"use_sim":              "True",
		"apriltag_config_path": "/cfg/<robot_namespace>/apriltag.yaml",
	})
	require.NoError(t, err)
	require.NoError(t, l.Run(context.Background(), plan))

	line, ok := rec.find("[apriltag_node-1] argv:")
	require.True(t, ok)
	assert.Contains(t, line, "--ros-args -r __ns:=/robot1 -p use_sim_time:=True --params-file /cfg/robot1/apriltag.yaml")
	assert.Contains(t, line, "-r camera_info:=/camera/color/camera_info -r image_rect:=/camera/color/image_raw -r detections:=/docking/april_tags")

	_, ok = rec.find("[apriltag_node-1] pid-file-present")
	assert.True(t, ok, "PID file must exist while the node runs")
	_, err = os.Stat(filepath.Join(pidDir, "hsu-ros-launch", "robot1", "apriltag_node.pid"))
	assert.True(t, os.IsNotExist(err), "PID file must be removed after the node exits")
}

func TestRun_NodeFailure(t *testing.T) {
	prefix := installWorkspace(t, "#!/bin/sh\necho 'failed to load parameters file' >&2\nexit 1\n")
	l := newTestLauncher(t, prefix, nil, nil)

	plan, err := l.Plan(map[string]string{"apriltag_config_path": "/does/not/exist.yaml"})
	require.NoError(t, err)

	err = l.Run(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, errors.IsProcessError(err))
	code, ok := errors.ContextValue(err, "exit_code")
	require.True(t, ok)
	assert.Equal(t, 1, code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	prefix := installWorkspace(t, "#!/bin/sh\ntrap 'exit 0' INT TERM\necho spinning\nwhile true; do sleep 0.1; done\n")
	rec := &lineRecorder{}

	cfg := config.DefaultConfig()
	cfg.Launcher.WaitDelay = 2 * time.Second
	l, err := New(Options{
		Description: apriltag.GenerateLaunchDescription(),
		Config:      cfg,
		Environment: launch.NewEnvironment(nil),
		Packages:    launch.NewAmentIndex([]string{prefix}),
	}, rec.logger())
	require.NoError(t, err)

	plan, err := l.Plan(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, plan) }()

	require.Eventually(t, func() bool {
		_, ok := rec.find("spinning")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "a requested shutdown is not a failure")
	case <-time.After(10 * time.Second):
		t.Fatal("launcher did not stop")
	}
}

func TestRun_RefusesWhenNodeAlreadyRunning(t *testing.T) {
	prefix := installWorkspace(t, "#!/bin/sh\necho started\n")
	pidDir := t.TempDir()
	pidFile := filepath.Join(pidDir, "hsu-ros-launch", "apriltag_node.pid")
	require.NoError(t, os.MkdirAll(filepath.Dir(pidFile), 0755))
	require.NoError(t, os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644))

	cfg := config.DefaultConfig()
	cfg.Launcher.PIDDirectory = pidDir
	rec := &lineRecorder{}
	l, err := New(Options{
		Description: apriltag.GenerateLaunchDescription(),
		Config:      cfg,
		Environment: launch.NewEnvironment(nil),
		Packages:    launch.NewAmentIndex([]string{prefix}),
	}, rec.logger())
	require.NoError(t, err)

	plan, err := l.Plan(nil)
	require.NoError(t, err)

	err = l.Run(context.Background(), plan)
	assert.True(t, errors.IsProcessError(err))
	_, started := rec.find("started")
	assert.False(t, started)
	_, err = os.Stat(pidFile)
	assert.NoError(t, err, "a live node's PID file is left alone")
}
