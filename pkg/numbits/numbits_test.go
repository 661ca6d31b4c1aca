package numbits_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gocoverage/covdata/pkg/numbits"
)

func toSet(nums []int) map[int]bool {
	s := make(map[int]bool, len(nums))
	for _, n := range nums {
		s[n] = true
	}
	return s
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	cases := [][]int{
		nil,
		{0},
		{1, 2, 5},
		{0, 8, 16, 24},
		{7, 15, 23, 31, 39},
		{1000, 2000, 2999},
	}
	for _, nums := range cases {
		encoded := numbits.Encode(nums)
		decoded := numbits.Decode(encoded)
		assert.Equal(t, toSet(nums), toSet(decoded))
	}
}

func TestEncodeIsCanonical(t *testing.T) {
	encoded := numbits.Encode([]int{1, 2, 5})
	assert.NotEqual(t, byte(0), encoded[len(encoded)-1], "canonical form has no trailing zero byte")
}

func TestDecodeToleratesNonCanonicalTrailingZeros(t *testing.T) {
	encoded := numbits.Encode([]int{1, 2, 5})
	padded := append(append([]byte{}, encoded...), 0, 0, 0)
	assert.Equal(t, toSet(numbits.Decode(encoded)), toSet(numbits.Decode(padded)))
}

func TestUnion(t *testing.T) {
	a := numbits.Encode([]int{1, 2, 5})
	b := numbits.Encode([]int{2, 3, 100})
	union := numbits.Union(a, b)

	want := toSet([]int{1, 2, 3, 5, 100})
	assert.Equal(t, want, toSet(numbits.Decode(union)))
}

func TestUnionOfDifferentLengths(t *testing.T) {
	short := numbits.Encode([]int{1})
	long := numbits.Encode([]int{1, 500})
	union := numbits.Union(short, long)
	assert.Equal(t, toSet([]int{1, 500}), toSet(numbits.Decode(union)))
}

func TestRoundtripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(50)
		seen := map[int]bool{}
		var nums []int
		for j := 0; j < n; j++ {
			v := rng.Intn(4000)
			if !seen[v] {
				seen[v] = true
				nums = append(nums, v)
			}
		}
		encoded := numbits.Encode(nums)
		assert.Equal(t, seen, toSet(numbits.Decode(encoded)))
	}
}

func TestUnionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		var a, b []int
		union := map[int]bool{}
		for j := 0; j < rng.Intn(30); j++ {
			v := rng.Intn(2000)
			a = append(a, v)
			union[v] = true
		}
		for j := 0; j < rng.Intn(30); j++ {
			v := rng.Intn(2000)
			b = append(b, v)
			union[v] = true
		}
		got := numbits.Decode(numbits.Union(numbits.Encode(a), numbits.Encode(b)))
		assert.Equal(t, union, toSet(got))
	}
}
