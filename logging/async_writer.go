package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncWriter 异步日志写入器：后台协程负责格式化与写入
type AsyncWriter struct {
	writer     io.Writer
	formatter  Formatter
	entryCh    chan *LogEntry
	wg         sync.WaitGroup
	closeOnce  sync.Once
	errHandler func(error)
}

// NewAsyncWriter 创建新的异步写入器
func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		entryCh:   make(chan *LogEntry, bufferSize),
	}

	w.wg.Add(1)
	go w.process()

	return w
}

// WriteLog 写入日志条目。队列满时阻塞，不丢日志。
func (w *AsyncWriter) WriteLog(entry *LogEntry) {
	w.entryCh <- entry
}

// Close 关闭写入器并等待队列中的日志写完
func (w *AsyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.entryCh)
	})
	w.wg.Wait()
	return nil
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()

	for entry := range w.entryCh {
		data, err := w.formatter.Format(entry)
		if err != nil {
			w.report(fmt.Errorf("format: %w", err))
			continue
		}
		if _, err := w.writer.Write(appendNewline(data)); err != nil {
			w.report(fmt.Errorf("write: %w", err))
		}
	}
}

func (w *AsyncWriter) report(err error) {
	if w.errHandler != nil {
		w.errHandler(err)
		return
	}
	fmt.Fprintf(os.Stderr, "logging: async writer %v\n", err)
}

// SetErrorHandler 设置错误处理函数
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.errHandler = handler
}
