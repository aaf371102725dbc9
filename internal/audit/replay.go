package audit

import "fmt"

// Replay rebuilds the per-payload occurrence counts from every record in src,
// starting at sequence 0. It depends on nothing but the log contents, so
// replaying the same log always yields the same map.
func Replay(src Source) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	it := src.Iter()
	for it.Next() {
		counts[string(it.Value())]++
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("replay events: %w", err)
	}
	return counts, nil
}
