package store

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddSubtractScenario(t *testing.T) {
	cart := Cart{}

	cart = cart.Add(5)
	assert.Equal(t, []Line{{ProductID: 5, Quantity: 1}}, cart.Lines())

	cart = cart.Add(5)
	assert.Equal(t, []Line{{ProductID: 5, Quantity: 2}}, cart.Lines())

	cart = cart.Subtract(5)
	assert.Equal(t, []Line{{ProductID: 5, Quantity: 1}}, cart.Lines())

	cart = cart.Subtract(5)
	assert.Empty(t, cart.Lines())
	assert.True(t, cart.IsEmpty())
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		initial  Cart
		intent   Intent
		expected []Line
	}{
		{
			name:     "given empty cart when add should append line with quantity 1",
			initial:  Cart{},
			intent:   Add(1),
			expected: []Line{{ProductID: 1, Quantity: 1}},
		},
		{
			name:     "given new id when add should append at the end",
			initial:  New(Line{ProductID: 2, Quantity: 3}),
			intent:   Add(1),
			expected: []Line{{ProductID: 2, Quantity: 3}, {ProductID: 1, Quantity: 1}},
		},
		{
			name:     "given existing id when add should keep position",
			initial:  New(Line{ProductID: 1, Quantity: 1}, Line{ProductID: 2, Quantity: 1}),
			intent:   Add(1),
			expected: []Line{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		},
		{
			name:     "given missing id when subtract should be no-op",
			initial:  New(Line{ProductID: 1, Quantity: 1}),
			intent:   Subtract(9),
			expected: []Line{{ProductID: 1, Quantity: 1}},
		},
		{
			name:     "given quantity 1 when subtract should remove line",
			initial:  New(Line{ProductID: 1, Quantity: 1}, Line{ProductID: 2, Quantity: 4}),
			intent:   Subtract(1),
			expected: []Line{{ProductID: 2, Quantity: 4}},
		},
		{
			name:     "given missing id when remove should be no-op",
			initial:  New(Line{ProductID: 1, Quantity: 1}),
			intent:   Remove(9),
			expected: []Line{{ProductID: 1, Quantity: 1}},
		},
		{
			name:     "given existing id when remove should delete line keeping order",
			initial:  New(Line{ProductID: 1, Quantity: 1}, Line{ProductID: 2, Quantity: 2}, Line{ProductID: 3, Quantity: 3}),
			intent:   Remove(2),
			expected: []Line{{ProductID: 1, Quantity: 1}, {ProductID: 3, Quantity: 3}},
		},
		{
			name:     "given missing id when set quantity should append line",
			initial:  New(Line{ProductID: 1, Quantity: 1}),
			intent:   SetQuantity(2, 7),
			expected: []Line{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 7}},
		},
		{
			name:     "given existing id when set quantity should set exactly",
			initial:  New(Line{ProductID: 1, Quantity: 1}),
			intent:   SetQuantity(1, 12),
			expected: []Line{{ProductID: 1, Quantity: 12}},
		},
		{
			name:     "given zero quantity when set quantity should remove line",
			initial:  New(Line{ProductID: 1, Quantity: 4}),
			intent:   SetQuantity(1, 0),
			expected: []Line{},
		},
		{
			name:     "given negative quantity when set quantity on missing id should be no-op",
			initial:  New(Line{ProductID: 1, Quantity: 4}),
			intent:   SetQuantity(2, -3),
			expected: []Line{{ProductID: 1, Quantity: 4}},
		},
		{
			name:     "given quantity at max when add should saturate",
			initial:  New(Line{ProductID: 1, Quantity: MaxQuantity}),
			intent:   Add(1),
			expected: []Line{{ProductID: 1, Quantity: MaxQuantity}},
		},
		{
			name:     "given huge quantity when set quantity should clamp to max",
			initial:  New(Line{ProductID: 1, Quantity: 2}),
			intent:   SetQuantity(1, math.MaxInt),
			expected: []Line{{ProductID: 1, Quantity: MaxQuantity}},
		},
		{
			name:     "given missing id when set huge quantity should append clamped line",
			initial:  Cart{},
			intent:   SetQuantity(3, MaxQuantity+1),
			expected: []Line{{ProductID: 3, Quantity: MaxQuantity}},
		},
		{
			name:     "given unknown intent should be no-op",
			initial:  New(Line{ProductID: 1, Quantity: 4}),
			intent:   Intent{Kind: "checkout", ProductID: 1},
			expected: []Line{{ProductID: 1, Quantity: 4}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := test.initial.Lines()

			actual := test.initial.Apply(test.intent)

			assert.Equal(t, test.expected, actual.Lines())
			assert.Equal(t, before, test.initial.Lines(), "transition must not mutate its input")
		})
	}
}

func TestQuantityNeverBelowOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	kinds := []IntentKind{IntentAdd, IntentSubtract, IntentRemove, IntentSetQuantity}

	for run := range 200 {
		cart := Cart{}
		for range 100 {
			intent := Intent{
				Kind:      kinds[rng.IntN(len(kinds))],
				ProductID: int64(rng.IntN(6)),
				Quantity:  rng.IntN(7) - 3,
			}
			if rng.IntN(10) == 0 {
				intent.Quantity = []int{math.MinInt, MaxQuantity - 1, MaxQuantity, math.MaxInt}[rng.IntN(4)]
			}
			cart = cart.Apply(intent)

			seen := map[int64]bool{}
			for _, line := range cart.Lines() {
				assert.GreaterOrEqual(t, line.Quantity, 1, "run=%d intent=%+v", run, intent)
				assert.LessOrEqual(t, line.Quantity, MaxQuantity, "run=%d intent=%+v", run, intent)
				assert.False(t, seen[line.ProductID], "duplicate productId=%d", line.ProductID)
				seen[line.ProductID] = true
			}
		}
	}
}

func TestQuantityIsClampedAfterHugeSetQuantity(t *testing.T) {
	cart := Cart{}.Apply(SetQuantity(1, math.MaxInt)).Apply(Add(1)).Apply(Add(1))

	quantity, ok := cart.Quantity(1)
	assert.True(t, ok)
	assert.Equal(t, MaxQuantity, quantity)
	assert.Equal(t, MaxQuantity, cart.ItemCount())

	cart = cart.Apply(Subtract(1))
	quantity, _ = cart.Quantity(1)
	assert.Equal(t, MaxQuantity-1, quantity)
}

func TestAddThenSubtractIsInverse(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for range 100 {
		cart := Cart{}
		for range rng.IntN(8) {
			cart = cart.SetQuantity(int64(rng.IntN(10)), rng.IntN(5)+1)
		}
		id := int64(rng.IntN(12))

		actual := cart.Add(id).Subtract(id)

		assert.Equal(t, cart.Lines(), actual.Lines())
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	base := New(Line{ProductID: 1, Quantity: 1}, Line{ProductID: 2, Quantity: 1})
	snapshot := base.Lines()

	_ = base.Add(1)
	_ = base.Remove(2)
	_ = base.Add(3)

	assert.Equal(t, snapshot, base.Lines())

	lines := base.Lines()
	lines[0].Quantity = 99
	qty, ok := base.Quantity(1)
	assert.True(t, ok)
	assert.Equal(t, 1, qty)
}

func TestItemCount(t *testing.T) {
	cart := New(Line{ProductID: 1, Quantity: 2}, Line{ProductID: 2, Quantity: 3})
	assert.Equal(t, 5, cart.ItemCount())
	assert.Equal(t, 2, cart.Len())
	assert.Equal(t, 0, Cart{}.ItemCount())
}
