package kv

type Prefix byte

func PrefixedKey(p Prefix, key ...[]byte) []byte {
	n := 1
	for _, k := range key {
		n += len(k)
	}
	b := make([]byte, 0, n)
	b = append(b, byte(p))
	for _, k := range key {
		b = append(b, k...)
	}
	return b
}

// UpperBound returns the smallest key greater than every key starting with prefix, or
// nil if no such key exists.
func UpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
