package aggregate

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Extract resolves a dot path against a JSON value. Arrays met along the way are walked
// element by element, so "items.price" yields the price of every item.
func Extract(root gjson.Result, path string) []gjson.Result {
	return walk(root, strings.Split(path, "."))
}

func walk(node gjson.Result, parts []string) []gjson.Result {
	if len(parts) == 0 {
		if node.IsArray() {
			return node.Array()
		}
		return []gjson.Result{node}
	}

	switch {
	case node.IsArray():
		var out []gjson.Result
		node.ForEach(func(_, el gjson.Result) bool {
			out = append(out, walk(el, parts)...)
			return true
		})
		return out
	case node.IsObject():
		// keys are matched literally so dots, wildcards and pipes in a key need no escaping
		var child gjson.Result
		found := false
		node.ForEach(func(key, value gjson.Result) bool {
			if key.String() == parts[0] {
				child, found = value, true
				return false
			}
			return true
		})
		if !found {
			return nil
		}
		return walk(child, parts[1:])
	}
	return nil
}

// matches reports whether every filter field has at least one value equal to the wanted one.
func matches(root gjson.Result, filter map[string]any) bool {
	for field, want := range filter {
		ok := false
		for _, got := range Extract(root, field) {
			if equal(got, want) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func equal(got gjson.Result, want any) bool {
	switch w := want.(type) {
	case nil:
		return got.Type == gjson.Null
	case string:
		return got.Type == gjson.String && got.Str == w
	case bool:
		return (got.Type == gjson.True && w) || (got.Type == gjson.False && !w)
	}
	if n, ok := toFloat(want); ok {
		return got.Type == gjson.Number && got.Num == n
	}
	return false
}

func toFloat(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
