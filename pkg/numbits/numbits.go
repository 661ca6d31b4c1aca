// Package numbits implements the compact variable-length bitset codec
// used to store sets of executed line numbers.
//
// A numbits value is a byte string where bit i of byte k is set iff the
// integer 8*k+i is a member of the encoded set. The canonical form has
// no trailing zero bytes; decode tolerates non-canonical input.
package numbits

// Encode returns the canonical numbits encoding of nums.
func Encode(nums []int) []byte {
	maxNum := -1
	for _, n := range nums {
		if n > maxNum {
			maxNum = n
		}
	}
	if maxNum < 0 {
		return nil
	}
	out := make([]byte, maxNum/8+1)
	for _, n := range nums {
		out[n/8] |= 1 << uint(n%8)
	}
	return trim(out)
}

// Decode returns the set of non-negative integers encoded in b.
// Non-canonical trailing zero bytes are tolerated.
func Decode(b []byte) []int {
	var nums []int
	for k, byt := range b {
		if byt == 0 {
			continue
		}
		for i := 0; i < 8; i++ {
			if byt&(1<<uint(i)) != 0 {
				nums = append(nums, k*8+i)
			}
		}
	}
	return nums
}

// Union returns the canonical numbits encoding of the union of the sets
// encoded by a and b.
func Union(a, b []byte) []byte {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < len(a); i++ {
		out[i] |= a[i]
	}
	for i := 0; i < len(b); i++ {
		out[i] |= b[i]
	}
	return trim(out)
}

// trim drops trailing zero bytes so the result is canonical.
func trim(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}
