package token

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Normalize converts raw address inputs into the canonical working set:
// lower-case 0x-prefixed hex, deduplicated, sorted. Entries may themselves be
// comma-separated lists. Malformed entries are dropped, not reported; a bad
// address in a batch must not fail the batch.
func Normalize(inputs []string) []string {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		for _, part := range strings.Split(input, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !common.IsHexAddress(part) {
				continue
			}
			canon := Canonical(common.HexToAddress(part))
			if _, ok := seen[canon]; ok {
				continue
			}
			seen[canon] = struct{}{}
			out = append(out, canon)
		}
	}
	sort.Strings(out)
	return out
}

// Canonical returns the canonical string form of an address.
func Canonical(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
