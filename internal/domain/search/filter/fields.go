package filter

import "sort"

// excludedAttributes are top-level point attributes never offered as
// filterable field paths.
var excludedAttributes = map[string]struct{}{
	"id":          {},
	"payload":     {},
	"vector":      {},
	"shard_key":   {},
	"order_value": {},
	"score":       {},
}

// CollectFieldPaths walks the payloads of sampled points and returns
// the sorted set of dot-joined field paths, including intermediate
// object paths, plus any non-standard top-level point attributes.
// The result only feeds field pickers; it is advisory, not a schema.
func CollectFieldPaths(points []map[string]any) []string {
	set := make(map[string]struct{})

	for _, point := range points {
		if payload, ok := point["payload"].(map[string]any); ok {
			collectPaths(payload, "", set)
		}
		for attr := range point {
			if _, excluded := excludedAttributes[attr]; !excluded {
				set[attr] = struct{}{}
			}
		}
	}

	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func collectPaths(obj map[string]any, prefix string, set map[string]struct{}) {
	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		set[path] = struct{}{}
		if nested, ok := value.(map[string]any); ok {
			collectPaths(nested, path, set)
		}
	}
}
