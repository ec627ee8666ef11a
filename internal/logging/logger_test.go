package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("world", &buf, DEBUG)

	l.Trace("скрыто")
	l.Debug("ячейка %d", 7)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[DEBUG] [world] ячейка 7")
	assert.Contains(t, out, "[ERROR] [world] ошибка")
}

func TestNewLogger_File(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, MinConsoleLevel: ERROR, MinFileLevel: TRACE})
	defer Configure(Options{MinConsoleLevel: INFO, MinFileLevel: DEBUG})

	l, err := NewLogger("catalog")
	require.NoError(t, err)
	l.Trace("запись")
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "catalog_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TRACE] [catalog] запись")
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	Configure(Options{Dir: "", MinConsoleLevel: INFO, MinFileLevel: DEBUG})
	defer Configure(Options{MinConsoleLevel: INFO, MinFileLevel: DEBUG})

	l, err := NewLogger("api")
	require.NoError(t, err)
	assert.Nil(t, l.file)
	assert.NoError(t, l.Close())
}

func TestLoggerManager_SetLogLevel(t *testing.T) {
	Configure(Options{Dir: "", MinConsoleLevel: INFO, MinFileLevel: DEBUG})
	lm := NewLoggerManager()

	t.Run("до создания логгера", func(t *testing.T) {
		lm.SetLogLevel("world", TRACE, ERROR)
		l, err := lm.GetLogger("world")
		require.NoError(t, err)
		console, file := l.Levels()
		assert.Equal(t, TRACE, console)
		assert.Equal(t, ERROR, file)
	})

	t.Run("после создания логгера", func(t *testing.T) {
		l, err := lm.GetLogger("api")
		require.NoError(t, err)
		console, _ := l.Levels()
		assert.Equal(t, INFO, console)

		lm.SetLogLevel("api", WARN, WARN)
		console, file := l.Levels()
		assert.Equal(t, WARN, console)
		assert.Equal(t, WARN, file)
	})
}

func TestLoggerManager_CloseAll(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, MinConsoleLevel: ERROR, MinFileLevel: TRACE})
	defer Configure(Options{MinConsoleLevel: INFO, MinFileLevel: DEBUG})

	lm := NewLoggerManager()
	first, err := lm.GetLogger("eventbus")
	require.NoError(t, err)
	require.NotNil(t, first.file)

	require.NoError(t, lm.CloseAll())
	assert.Nil(t, first.file)

	// После закрытия менеджер выдаёт новый логгер
	second, err := lm.GetLogger("eventbus")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	require.NoError(t, lm.CloseAll())
}
