package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	f.ColorOutput = false
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	str := string(out)
	if !strings.Contains(str, "INFO") {
		t.Error("Expected level INFO")
	}
	if !strings.Contains(str, "[Test]") {
		t.Error("Expected category [Test]")
	}
	if !strings.Contains(str, "Hello") {
		t.Error("Expected message Hello")
	}
	if !strings.Contains(str, "key=val") {
		t.Error("Expected field key=val")
	}
}

func TestJsonFormatter(t *testing.T) {
	f := NewJsonFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelWarn,
		Category: "di",
		Message:  "绑定失败",
		Fields: []Field{
			{Key: "ref", Value: "*gorm.DB"},
			{Key: "error", Value: errors.New("boom")},
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(out, &data))

	assert.Equal(t, "WARN", data["level"])
	assert.Equal(t, "di", data["category"])
	fields, ok := data["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "*gorm.DB", fields["ref"])
	assert.Equal(t, "boom", fields["error"])
}

type qualifiedName struct{ typ, name string }

func (q qualifiedName) String() string { return q.typ + " @Named(" + q.name + ")" }

func TestJsonFormatterRendersStringers(t *testing.T) {
	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	out, err := NewJsonFormatter().Format(&LogEntry{
		Time:    at,
		Level:   LogLevelDebug,
		Message: "组件已绑定",
		Fields: []Field{
			{Key: "ref", Value: qualifiedName{typ: "*gorm.DB", name: "master"}},
			{Key: "at", Value: at},
			{Key: "count", Value: 2},
		},
	})
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(out, &data))
	assert.NotContains(t, data, "category")

	fields := data["fields"].(map[string]any)
	assert.Equal(t, "*gorm.DB @Named(master)", fields["ref"])
	assert.Equal(t, "2025-01-02T15:04:05Z", fields["at"], "实现了 json.Marshaler 的值保持原样")
	assert.Equal(t, float64(2), fields["count"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   LogLevelTrace,
		"Debug":   LogLevelDebug,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		"ERROR":   LogLevelError,
		"off":     LogLevelNone,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		assert.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestMinimumLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", Field{Key: "n", Value: 1})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN shown {n=1}")
}

func TestWithCategoryAndFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, LogLevelTrace)

	scoped := base.WithCategory("di").WithFields(Field{Key: "a", Value: 1})
	scoped.Debug("first")
	scoped.WithFields(Field{Key: "b", Value: 2}).Debug("second")
	scoped.Debug("third")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[di] first {a=1}")
	assert.Contains(t, lines[1], "[di] second {a=1, b=2}")
	assert.Contains(t, lines[2], "[di] third {a=1}")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.WithCategory("x").WithFields(Field{Key: "k", Value: "v"}).Error("nothing")
	})
}

func TestAsyncWriter(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex

	writer := &lockedWriter{buf: &buf, mu: &mu}
	asyncWriter := NewAsyncWriter(writer, NewJsonFormatter(), 10)

	entry := &LogEntry{
		Time:    time.Now(),
		Level:   LogLevelInfo,
		Message: "Async",
	}
	for i := 0; i < 5; i++ {
		asyncWriter.WriteLog(entry)
	}
	asyncWriter.Close()

	lines := strings.Split(strings.TrimSpace(writer.String()), "\n")
	assert.Len(t, lines, 5, "JSON 输出也应逐行写入")
}

func TestFileLoggerFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	builder := NewLoggingBuilder().SetMinimumLevel(LogLevelDebug)
	require.NoError(t, builder.AddFile(path, FileLoggerOptions{Json: true, BufferSize: 4}))
	factory := builder.Build()

	logger := factory.CreateLogger("students")
	for i := 0; i < 10; i++ {
		logger.Debug("tick", Field{Key: "i", Value: i})
	}
	require.NoError(t, factory.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 10)
	assert.Contains(t, lines[0], `"category":"students"`)
}

func TestApplyOptions(t *testing.T) {
	builder := NewLoggingBuilder()
	require.NoError(t, builder.Apply(Options{Level: "error", Format: "json"}))
	assert.Equal(t, LogLevelError, builder.minimumLevel)
	assert.Len(t, builder.providers, 1)

	assert.Error(t, NewLoggingBuilder().Apply(Options{Level: "chatty"}))
}

type lockedWriter struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *lockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func BenchmarkAsyncLogging(b *testing.B) {
	asyncWriter := NewAsyncWriter(io.Discard, NewTextFormatter(), 10000)
	defer asyncWriter.Close()

	entry := &LogEntry{
		Time:    time.Now(),
		Level:   LogLevelInfo,
		Message: "Benchmark",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		asyncWriter.WriteLog(entry)
	}
}

func TestCustomFormatterProvider(t *testing.T) {
	var buf bytes.Buffer
	formatter := FormatterFunc(func(entry *LogEntry) ([]byte, error) {
		return []byte(entry.Level.String() + ":" + entry.Message), nil
	})

	factory := NewLoggingBuilder().
		AddProvider(NewWriterLoggerProvider(&buf, formatter)).
		Build()
	factory.CreateLogger("x").Info("ready")

	assert.Equal(t, "INFO:ready\n", buf.String())
}
