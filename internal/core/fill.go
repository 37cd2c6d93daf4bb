package core

// Fill consumes one object from r, materializing its cells into m, and
// returns the untyped reference to it. Children of a block are parsed
// depth-first, left to right, in the order the typed layer will read
// them back.
func Fill(m *Memory, r *Reader) (Data, error) {
	repr, err := DecodeObject(r)
	if err != nil {
		return Data{}, err
	}
	switch v := repr.(type) {
	case ReprInt:
		return IntData(v.N), nil
	case ReprString:
		return m.AddString(v.Bytes), nil
	case ReprInt63:
		return m.AddInt63(v.N), nil
	case ReprPointer:
		d, err := m.PointBack(v.Offset)
		if err != nil {
			return Data{}, Failf(r.Remaining(), "%v", err)
		}
		return d, nil
	case ReprBlock:
		if v.Len == 0 {
			return AtmData(v.Tag), nil
		}
		addr := m.Reserve()
		fields := make([]Data, 0, v.Len)
		for i := 0; i < v.Len; i++ {
			d, err := Fill(m, r)
			if err != nil {
				return Data{}, err
			}
			fields = append(fields, d)
		}
		return m.Backfill(addr, v.Tag, fields), nil
	case ReprCode:
		return Data{}, Failf(r.Remaining(), "closures are not serialized (code pointer 0x%x)", v.Addr)
	default:
		panic("core: unreachable repr")
	}
}
