package busbridge

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionLogName = regexp.MustCompile(`^busbridge_\d{8}_\d{6}\.log$`)

func cleanupSessionLog(t *testing.T) {
	t.Helper()
	if sessionLogFile != nil {
		_ = sessionLogFile.Close()
	}
	sessionLogFile = nil
	sessionLogPath = ""
	setSessionOutput(nil)
}

// inTempDir runs the test from a fresh working directory.
func inTempDir(t *testing.T) string {
	t.Helper()
	origDir, err := os.Getwd()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		cleanupSessionLog(t)
		_ = os.Chdir(origDir)
	})
	return dir
}

func readSessionLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path) //nolint:gosec // path comes from InitSessionLog
	require.NoError(t, err)
	return string(content)
}

func TestInitSessionLog_CreatesNamedFile(t *testing.T) {
	inTempDir(t)

	path, err := InitSessionLog()
	require.NoError(t, err)

	assert.True(t, sessionLogName.MatchString(path), "unexpected name: %s", path)
	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, GetSessionLogPath())
	assert.NotNil(t, sessionLogFile)
	assert.NotNil(t, sessionLogWriter)
	assert.NotNil(t, sessionLogger)
}

func TestSessionLog_HeaderMessagesFooter(t *testing.T) {
	inTempDir(t)

	path, err := InitSessionLog()
	require.NoError(t, err)

	Debugf("i2c 0x%02X: %s", 0x50, "address nack")
	require.NoError(t, CloseSessionLog())

	content := readSessionLog(t, path)
	for _, want := range []string{
		"=== Bus Bridge Debug Session Log ===",
		"Started:",
		"PID:",
		"OS:",
		"Go Version:",
		"Command Line:",
		"DEBUG: i2c 0x50: address nack",
		"=== Session ended ===",
	} {
		assert.Contains(t, content, want)
	}
	assert.Less(t, strings.Index(content, "DEBUG:"), strings.Index(content, "Session ended"))
}

func TestCloseSessionLog_ResetsState(t *testing.T) {
	inTempDir(t)

	_, err := InitSessionLog()
	require.NoError(t, err)
	require.NoError(t, CloseSessionLog())

	assert.Empty(t, GetSessionLogPath())
	assert.Nil(t, sessionLogFile)
	assert.Nil(t, sessionLogWriter)
	assert.Nil(t, sessionLogger)

	// A second close is a no-op.
	assert.NoError(t, CloseSessionLog())
}

func TestInitSessionLogIn_Directory(t *testing.T) {
	t.Cleanup(func() { cleanupSessionLog(t) })
	dir := t.TempDir()

	path, err := InitSessionLogIn(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, sessionLogName.MatchString(filepath.Base(path)))
	require.NoError(t, CloseSessionLog())
}

func TestInitSessionLogIn_MissingDirectory(t *testing.T) {
	t.Cleanup(func() { cleanupSessionLog(t) })

	_, err := InitSessionLogIn(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create session log")
	assert.Empty(t, GetSessionLogPath())
}

func TestSessionLog_RepeatedCycles(t *testing.T) {
	inTempDir(t)

	for i := range 3 {
		path, err := InitSessionLog()
		require.NoError(t, err, "init cycle %d", i)

		Debugf("cycle %d", i)
		require.NoError(t, CloseSessionLog(), "close cycle %d", i)

		assert.Contains(t, readSessionLog(t, path), "DEBUG: cycle")
		assert.Nil(t, sessionLogWriter)
	}
}

func TestWriteSessionHeader_ContentFormat(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	writeSessionHeader(&buf)

	content := buf.String()
	assert.True(t, strings.HasPrefix(content, "=== Bus Bridge Debug Session Log ==="))
	assert.True(t, strings.HasSuffix(content, "====================================\n\n"))
}
