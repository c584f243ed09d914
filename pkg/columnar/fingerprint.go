package columnar

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes column names, types, validity and values in table order.
// Two tables with equal fingerprints hold the same data; the table name is
// not part of the hash.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	var buf [8]byte

	putUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	putUint(uint64(t.rowCount))
	for i, name := range t.names {
		_, _ = h.WriteString(name)
		col := t.columns[i]
		putUint(uint64(col.Type()))

		switch c := col.(type) {
		case *FloatColumn:
			for _, v := range c.values {
				if math.IsNaN(v) {
					v = math.NaN() // canonical NaN bits
				}
				putUint(math.Float64bits(v))
			}
		case *IntColumn:
			for j, v := range c.values {
				if !c.valid[j] {
					putUint(0)
					_, _ = h.Write([]byte{0})
					continue
				}
				putUint(uint64(v))
				_, _ = h.Write([]byte{1})
			}
		case *StringColumn:
			for j, v := range c.values {
				putUint(uint64(len(v)))
				_, _ = h.WriteString(v)
				if c.valid[j] {
					_, _ = h.Write([]byte{1})
				} else {
					_, _ = h.Write([]byte{0})
				}
			}
		case *BoolColumn:
			for _, w := range c.values {
				putUint(w)
			}
			for _, w := range c.nulls {
				putUint(w)
			}
		}
	}
	return h.Sum64()
}
