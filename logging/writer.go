package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// entrySink 接收格式化前的日志条目
type entrySink interface {
	WriteLog(entry *LogEntry)
}

// syncWriter 同步写入：加锁后格式化并写入
type syncWriter struct {
	writer    io.Writer
	formatter Formatter
	mu        sync.Mutex
}

func (w *syncWriter) WriteLog(entry *LogEntry) {
	data, err := w.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Write(appendNewline(data))
}

func appendNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return append(data, '\n')
	}
	return data
}

// WriterLoggerProvider 把日志写入 io.Writer 的提供者，控制台与文件日志都基于它
type WriterLoggerProvider struct {
	sink         entrySink
	closer       io.Closer
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewWriterLoggerProvider 创建同步写入的提供者
func NewWriterLoggerProvider(w io.Writer, formatter Formatter) *WriterLoggerProvider {
	return &WriterLoggerProvider{
		sink:         &syncWriter{writer: w, formatter: formatter},
		minimumLevel: LogLevelInfo,
	}
}

// NewAsyncWriterLoggerProvider 创建异步写入的提供者，Close 时刷新缓冲并关闭 w（如果可关闭）
func NewAsyncWriterLoggerProvider(w io.Writer, formatter Formatter, bufferSize int) *WriterLoggerProvider {
	async := NewAsyncWriter(w, formatter, bufferSize)
	p := &WriterLoggerProvider{
		sink:         async,
		minimumLevel: LogLevelInfo,
	}
	p.closer = closerFunc(func() error {
		async.Close()
		if c, ok := w.(io.Closer); ok {
			return c.Close()
		}
		return nil
	})
	return p
}

func (p *WriterLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{provider: p, category: category}
}

func (p *WriterLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

func (p *WriterLoggerProvider) level() LogLevel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.minimumLevel
}

// Close 实现 io.Closer
func (p *WriterLoggerProvider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// writerLogger 写入提供者的日志实现
type writerLogger struct {
	provider *WriterLoggerProvider
	category string
	fields   []Field
}

func (l *writerLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *writerLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *writerLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *writerLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *writerLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *writerLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	l.provider.Close()
	os.Exit(1)
}

func (l *writerLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.provider.level() {
		return
	}

	l.provider.sink.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   joinFields(l.fields, fields),
	})
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	return &writerLogger{
		provider: l.provider,
		category: l.category,
		fields:   joinFields(l.fields, fields),
	}
}

func (l *writerLogger) WithCategory(category string) Logger {
	return &writerLogger{
		provider: l.provider,
		category: category,
		fields:   l.fields,
	}
}

// colorize 为日志级别添加颜色
func colorize(level LogLevel, text string) string {
	const (
		reset   = "\033[0m"
		gray    = "\033[90m"
		cyan    = "\033[36m"
		green   = "\033[32m"
		yellow  = "\033[33m"
		red     = "\033[31m"
		magenta = "\033[35m"
	)

	switch level {
	case LogLevelTrace:
		return gray + text + reset
	case LogLevelDebug:
		return cyan + text + reset
	case LogLevelInfo:
		return green + text + reset
	case LogLevelWarn:
		return yellow + text + reset
	case LogLevelError:
		return red + text + reset
	case LogLevelFatal:
		return magenta + text + reset
	default:
		return text
	}
}
