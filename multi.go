package mdbxkv

// Multi splits a GetMultiple page into its fixed-size values.
type Multi struct {
	page   []byte
	stride int
}

// WrapMulti wraps a multi-value page.
func WrapMulti(page []byte, stride int) *Multi {
	return &Multi{page: page, stride: stride}
}

// Vals returns all values.
func (m *Multi) Vals() [][]byte {
	n := m.Len()
	if n == 0 {
		return nil
	}
	vals := make([][]byte, n)
	for i := range vals {
		vals[i] = m.page[i*m.stride : (i+1)*m.stride : (i+1)*m.stride]
	}
	return vals
}

// Val returns value at index i, or nil when out of range.
func (m *Multi) Val(i int) []byte {
	if i < 0 || i >= m.Len() {
		return nil
	}
	return m.page[i*m.stride : (i+1)*m.stride : (i+1)*m.stride]
}

// Len returns the number of whole values in the page.
func (m *Multi) Len() int {
	if m.stride <= 0 {
		return 0
	}
	return len(m.page) / m.stride
}

// Stride returns the value size.
func (m *Multi) Stride() int {
	return m.stride
}

// Size returns the page size in bytes.
func (m *Multi) Size() int {
	return len(m.page)
}

// Page returns the raw page data.
func (m *Multi) Page() []byte {
	return m.page
}
