package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		providers:    make([]LoggerProvider, 0),
		minimumLevel: LogLevelInfo,
	}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = append(b.providers, provider)
	return b
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Json             bool
	Output           io.Writer
}

// AddConsole 添加控制台日志
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      true,
		Output:           os.Stdout,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var formatter Formatter = &TextFormatter{
		IncludeTimestamp: opts.IncludeTimestamp,
		TimestampFormat:  opts.TimestampFormat,
		ColorOutput:      opts.ColorOutput,
	}
	if opts.Json {
		formatter = NewJsonFormatter()
	}
	return b.AddProvider(NewWriterLoggerProvider(opts.Output, formatter))
}

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Json       bool
	BufferSize int
}

// AddFile 添加文件日志（追加写入，异步刷新）
func (b *LoggingBuilder) AddFile(path string, options ...FileLoggerOptions) error {
	opts := FileLoggerOptions{BufferSize: 1024}
	if len(options) > 0 {
		opts = options[0]
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("logging: 打开日志文件 %s 失败: %w", path, err)
	}

	var formatter Formatter = NewTextFormatter()
	if opts.Json {
		formatter = NewJsonFormatter()
	}
	b.AddProvider(NewAsyncWriterLoggerProvider(file, formatter, opts.BufferSize))
	return nil
}

// Options 可从配置绑定的日志选项
//
//	logging:
//	  level: debug
//	  format: json
//	  file: app.log
type Options struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// Apply 按选项配置构建器：设置级别，添加控制台输出，并按需添加文件输出
func (b *LoggingBuilder) Apply(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	b.SetMinimumLevel(level)

	json := opts.Format == "json"
	b.AddConsole(ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      !json,
		Json:             json,
	})

	if opts.File != "" {
		return b.AddFile(opts.File, FileLoggerOptions{Json: json, BufferSize: 1024})
	}
	return nil
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{
		providers:    make([]LoggerProvider, 0, len(b.providers)),
		minimumLevel: b.minimumLevel,
	}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory
}
