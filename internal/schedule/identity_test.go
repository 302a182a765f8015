package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIdentities(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		ids, err := SampleIdentities(newRand(seed))
		require.NoError(t, err, "seed %d", seed)
		require.Len(t, ids, identityCount)

		assert.Equal(t, 4, countIdentity(ids, 1), "seed %d: %v", seed, ids)
		assert.Equal(t, 4, countIdentity(ids, 2), "seed %d: %v", seed, ids)
		assert.Equal(t, 2, countIdentity(ids[:learningWindow], 1), "seed %d: %v", seed, ids)
	}
}

func TestSampleIdentities_Deterministic(t *testing.T) {
	a, err := SampleIdentities(newRand(7))
	require.NoError(t, err)
	b, err := SampleIdentities(newRand(7))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want bool
	}{
		{"empty", nil, true},
		{"single", []int{2}, true},
		{"even split", []int{1, 2, 2, 1}, true},
		{"uneven", []int{1, 1, 1, 2}, false},
		{"odd within one", []int{1, 2, 1}, true},
		{"odd off by three", []int{2, 2, 2}, false},
		{"eight", []int{1, 2, 1, 2, 2, 1, 1, 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, balanced(tt.ids))
		})
	}
}
