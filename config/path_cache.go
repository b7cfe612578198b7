package config

import (
	"strings"
	"sync"
)

// pathSegments 缓存配置键的拆分结果，"a:b.c" 与 "a.b:c" 都拆成 [a b c]
var pathSegments sync.Map

func splitPath(path string) []string {
	if v, ok := pathSegments.Load(path); ok {
		return v.([]string)
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == ':' || r == '.' })
	pathSegments.Store(path, parts)
	return parts
}
