package mdbxkv

import "bytes"

// PoisonByte overwrites borrowed values in borrow check mode once they are
// no longer valid.
const PoisonByte = 0xDB

// borrowSet tracks the views handed out by a transaction and its nested
// children. Only allocated in borrow check mode.
type borrowSet struct {
	views [][]byte
}

func (b *borrowSet) track(v []byte) []byte {
	if v == nil {
		return nil
	}
	c := bytes.Clone(v)
	b.views = append(b.views, c)
	return c
}

// invalidate poisons every outstanding view.
func (b *borrowSet) invalidate() {
	for _, v := range b.views {
		for i := range v {
			v[i] = PoisonByte
		}
	}
	clear(b.views)
	b.views = b.views[:0]
}
