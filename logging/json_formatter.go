package logging

import (
	"encoding/json"
	"fmt"
)

// JsonFormatter 每条日志输出一行 JSON：
//
//	{"time":"...","level":"DEBUG","category":"di","msg":"组件已绑定","fields":{"ref":"*gorm.DB @Named(master)"}}
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
}

type jsonRecord struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	record := jsonRecord{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}
	if len(entry.Fields) > 0 {
		record.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			record.Fields[field.Key] = jsonValue(field.Value)
		}
	}
	return json.Marshal(record)
}

// jsonValue error 与 fmt.Stringer（di.Ref、reflect.Type 等）按文本输出，
// 否则它们会被序列化为 {}
func jsonValue(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case json.Marshaler:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}
