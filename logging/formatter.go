package logging

import (
	"time"
)

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// Formatter 把日志条目格式化为一行输出
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// FormatterFunc 函数形式的 Formatter
type FormatterFunc func(entry *LogEntry) ([]byte, error)

// Format 实现 Formatter
func (f FormatterFunc) Format(entry *LogEntry) ([]byte, error) {
	return f(entry)
}
