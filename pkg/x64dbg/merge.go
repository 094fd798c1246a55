package x64dbg

import (
	"github.com/samber/lo"

	"github.com/utkonos/lst2x64dbg/pkg/address"
	"github.com/utkonos/lst2x64dbg/pkg/label"
)

// Merge appends to existing every record of fresh whose address is not
// already labelled. Existing records are never modified or removed, even
// when a fresh record at the same address carries a different text.
func Merge(existing, fresh []label.Record) []label.Record {
	merged := make([]label.Record, len(existing), len(existing)+len(fresh))
	copy(merged, existing)

	known := lo.SliceToMap(existing, func(r label.Record) (address.Offset, struct{}) {
		return r.Address, struct{}{}
	})
	for _, r := range fresh {
		if _, ok := known[r.Address]; ok {
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Conflicts returns the fresh records that Merge discards because an
// existing record holds their address under a different text.
func Conflicts(existing, fresh []label.Record) []label.Record {
	texts := lo.SliceToMap(existing, func(r label.Record) (address.Offset, string) {
		return r.Address, r.Text
	})
	return lo.Filter(fresh, func(r label.Record, _ int) bool {
		text, ok := texts[r.Address]
		return ok && text != r.Text
	})
}
