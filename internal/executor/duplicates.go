package executor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"

	"github.com/datagroom/datagroom/pkg/types"
)

// removeDuplicates drops rows whose cells match an earlier row over the
// target columns. The first occurrence is kept. An explicit column list
// that resolves to nothing leaves the table unchanged.
func removeDuplicates(tbl types.Table, rule *types.RemoveDuplicates) (types.Table, string) {
	target := rule.Columns.Resolve(&tbl)
	if len(target) == 0 {
		return tbl, "Removed 0 duplicate rows"
	}

	idx := make([]int, len(target))
	for i, name := range target {
		idx[i] = tbl.ColumnIndex(name)
	}

	type rowKey struct{ h1, h2 uint64 }
	seen := make(map[rowKey]struct{}, tbl.NumRows())
	keep := make([]int, 0, tbl.NumRows())
	buf := make([]byte, 0, 64)
	for row := 0; row < tbl.NumRows(); row++ {
		buf = buf[:0]
		for _, ci := range idx {
			buf = appendCellKey(buf, tbl.Cols[ci].Cells[row])
		}
		h1, h2 := murmur3.Sum128(buf)
		key := rowKey{h1, h2}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, row)
	}

	removed := tbl.NumRows() - len(keep)
	if removed == 0 {
		return tbl, "Removed 0 duplicate rows"
	}
	return selectRows(tbl, keep), fmt.Sprintf("Removed %d duplicate rows", removed)
}

// appendCellKey appends a canonical byte encoding of the cell. Cells that
// compare equal under Value.Equal encode identically: ints and floats are
// normalized to float64 bits, so 5 and 5.0 hash the same. A leading tag
// byte keeps values of different kind classes from colliding.
func appendCellKey(buf []byte, v types.Value) []byte {
	switch v.Kind {
	case types.KindMissing:
		return append(buf, 0)
	case types.KindInt:
		buf = append(buf, 1)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(float64(v.Int)))
	case types.KindFloat:
		buf = append(buf, 1)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.Float))
	case types.KindBool:
		if v.Bool {
			return append(buf, 2, 1)
		}
		return append(buf, 2, 0)
	case types.KindTime:
		buf = append(buf, 3)
		return binary.LittleEndian.AppendUint64(buf, uint64(v.Time.UnixNano()))
	default:
		buf = append(buf, 4)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Str)))
		return append(buf, v.Str...)
	}
}
