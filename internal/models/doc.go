package models

// Помощники чтения полей документа. Значения приходят либо в исходных
// Go-типах (хранилище в памяти), либо после JSON-раунд-трипа (PostgreSQL),
// поэтому числа обрабатываются для обоих представлений.

func docString(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func docBool(data map[string]any, key string) bool {
	if b, ok := data[key].(bool); ok {
		return b
	}
	return false
}

func docInt64(data map[string]any, key string) int64 {
	switch n := data[key].(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func docFloat64(data map[string]any, key string) float64 {
	switch n := data[key].(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func docStringSlice(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func docMap(data map[string]any, key string) map[string]any {
	if m, ok := data[key].(map[string]any); ok {
		return m
	}
	return nil
}
