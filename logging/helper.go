package logging

import "io"

// NewLogger 创建一个默认的控制台 Logger
func NewLogger() Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole()
	return builder.Build().CreateLogger("default")
}

// NewWriterLogger 创建写入 w 的无颜色文本 Logger（便于测试断言输出）
func NewWriterLogger(w io.Writer, level LogLevel) Logger {
	builder := NewLoggingBuilder().SetMinimumLevel(level)
	builder.AddConsole(ConsoleLoggerOptions{Output: w})
	return builder.Build().CreateLogger("")
}
