// internal/scoring/field/registry_test.go
package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func baseField(id string, weight float64) Definition {
	return Definition{
		ID:         id,
		Label:      id,
		Kind:       KindNumeric,
		Membership: MembershipBase,
		Weight:     weight,
		Enabled:    true,
	}
}

func derivedField(id, formula string, deps ...string) Definition {
	return Definition{
		ID:           id,
		Label:        id,
		Kind:         KindDerived,
		Membership:   MembershipDerived,
		Weight:       1,
		Enabled:      true,
		Formula:      formula,
		Dependencies: deps,
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(baseField("annualIncome", 8)))

	def, ok := reg.Get("annualIncome")
	assert.True(t, ok)
	assert.Equal(t, 8.0, def.Weight)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(baseField("age", 5)))
	err := reg.Register(baseField("age", 7))
	assert.Error(t, err)

	// Original definition is untouched.
	def, _ := reg.Get("age")
	assert.Equal(t, 5.0, def.Weight)
}

func TestRegistry_RejectsInvalidDefinitions(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		def  Definition
	}{
		{"empty id", Definition{Weight: 1}},
		{"negative weight", Definition{ID: "x", Weight: -1}},
		{"derived without formula", Definition{ID: "x", Kind: KindDerived, Weight: 1}},
		{"self dependency", derivedField("x", "x * 2", "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, reg.Register(tt.def))
		})
	}
}

func TestRegistry_RejectsDependencyCycles(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(derivedField("a", "b + 1", "b")))
	require.NoError(t, reg.Register(derivedField("c", "a + 1", "a")))

	// b -> c would close the cycle a -> b -> c -> a.
	err := reg.Register(derivedField("b", "c + 1", "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")

	// The rejected field must not be left behind.
	_, ok := reg.Get("b")
	assert.False(t, ok)
}

func TestRegistry_UpdateRollsBackOnCycle(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(derivedField("ratio", "debt / income", "debt", "income")))
	require.NoError(t, reg.Register(derivedField("estimate", "ratio * 100", "ratio")))

	err := reg.Update(derivedField("ratio", "estimate / 2", "estimate"))
	require.Error(t, err)

	def, ok := reg.Get("ratio")
	require.True(t, ok)
	assert.Equal(t, "debt / income", def.Formula)
}

func TestRegistry_EvaluationOrder(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(baseField("monthlyDebtPayments", 0)))
	require.NoError(t, reg.Register(baseField("annualIncome", 8)))

	// Registered before its derived dependencies exist.
	require.NoError(t, reg.Register(derivedField(
		"estimatedCreditScore",
		"300 + (1 - debtToIncomeRatio) * 200 + (1 - creditUtilization) * 150",
		"debtToIncomeRatio", "creditUtilization",
	)))
	require.NoError(t, reg.Register(derivedField(
		"debtToIncomeRatio",
		"(monthlyDebtPayments * 12) / annualIncome",
		"monthlyDebtPayments", "annualIncome",
	)))
	require.NoError(t, reg.Register(derivedField(
		"creditUtilization",
		"creditCardBalances / totalCreditLimit",
		"creditCardBalances", "totalCreditLimit",
	)))

	order := reg.EvaluationOrder()
	require.Len(t, order, 3)

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["debtToIncomeRatio"], pos["estimatedCreditScore"])
	assert.Less(t, pos["creditUtilization"], pos["estimatedCreditScore"])
}

func TestRegistry_EvaluationOrderDeterministic(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(derivedField("z", "1 + 1")))
	require.NoError(t, reg.Register(derivedField("a", "2 + 2")))
	require.NoError(t, reg.Register(derivedField("m", "3 + 3")))

	first := reg.EvaluationOrder()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, reg.EvaluationOrder())
	}
}

func TestRegistry_RemoveAndList(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(baseField("age", 5)))
	require.NoError(t, reg.Register(baseField("annualIncome", 8)))

	require.NoError(t, reg.Remove("age"))
	assert.Error(t, reg.Remove("age"))

	list := reg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "annualIncome", list[0].ID)
}

func TestNewRegistryWith_RejectsCycles(t *testing.T) {
	_, err := NewRegistryWith([]Definition{
		derivedField("a", "b", "b"),
		derivedField("b", "a", "a"),
	})
	assert.Error(t, err)
}

func TestSnapshot_Number(t *testing.T) {
	snap := Snapshot{
		"int":    42,
		"float":  0.3,
		"string": "nope",
		"nil":    nil,
	}

	v, ok := snap.Number("int")
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, ok = snap.Number("float")
	assert.True(t, ok)
	assert.Equal(t, 0.3, v)

	_, ok = snap.Number("string")
	assert.False(t, ok)
	_, ok = snap.Number("nil")
	assert.False(t, ok)
	_, ok = snap.Number("absent")
	assert.False(t, ok)
}

func TestSnapshot_CloneDoesNotAlias(t *testing.T) {
	snap := Snapshot{"age": 30}
	clone := snap.Clone()
	clone["extra"] = 1.0

	_, ok := snap["extra"]
	assert.False(t, ok)
}
