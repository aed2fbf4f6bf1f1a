package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/estimator/internal/domain"
)

func TestClampQuantityInput(t *testing.T) {
	tests := []struct {
		raw       string
		want      int
		corrected bool
	}{
		{raw: "3", want: 3, corrected: false},
		{raw: " 4 ", want: 4, corrected: false},
		{raw: "1", want: 1, corrected: false},
		{raw: "", want: 1, corrected: true},
		{raw: "abc", want: 1, corrected: true},
		{raw: "0", want: 1, corrected: true},
		{raw: "-2", want: 1, corrected: true},
		{raw: "2.6", want: 3, corrected: true},
		{raw: "NaN", want: 1, corrected: true},
		{raw: "Inf", want: 1, corrected: true},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, corrected := ClampQuantityInput(tc.raw)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.corrected, corrected)
		})
	}
}

type fixedSurfaces []domain.Surface

func (f fixedSurfaces) SurfacesFor(string) []domain.Surface { return f }

func stateOf(t *testing.T, res domain.SyncResult, s domain.Surface) domain.SurfaceState {
	t.Helper()
	for _, st := range res.Surfaces {
		if st.Surface == s {
			return st
		}
	}
	t.Fatalf("surface %s missing from %+v", s, res.Surfaces)
	return domain.SurfaceState{}
}

func TestViewSynchronizer_SelectUpdatesEverySurface(t *testing.T) {
	_, store := scenarioStore(t)
	vs := ViewSynchronizer{Store: store, Surfaces: fixedSurfaces{domain.SurfaceGrid, domain.SurfaceModal}}

	res := vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationSelect, Value: "2", Surface: domain.SurfaceModal})

	assert.True(t, res.Applied)
	assert.False(t, res.Corrected)
	assert.Equal(t, "40.00", res.Total)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Surfaces, 2)
	for _, st := range res.Surfaces {
		assert.True(t, st.Checked)
		assert.True(t, st.QuantityEnabled)
		assert.Equal(t, 2, st.Quantity)
		assert.Equal(t, "40.00", st.ItemTotal)
	}
}

func TestViewSynchronizer_DeselectClearsSurfaces(t *testing.T) {
	_, store := scenarioStore(t)
	vs := ViewSynchronizer{Store: store, Surfaces: fixedSurfaces{domain.SurfaceGrid}}
	vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationSelect, Value: "3", Surface: domain.SurfaceGrid})

	res := vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationDeselect, Value: "3", Surface: domain.SurfaceGrid})

	st := stateOf(t, res, domain.SurfaceGrid)
	assert.False(t, st.Checked)
	assert.False(t, st.QuantityEnabled)
	assert.Equal(t, 3, st.Quantity, "input keeps the typed value")
	assert.Equal(t, "0.00", st.ItemTotal)
	assert.Equal(t, "0.00", res.Total)
	assert.Zero(t, res.Count)
}

func TestViewSynchronizer_CorrectedQuantity(t *testing.T) {
	_, store := scenarioStore(t)
	vs := ViewSynchronizer{Store: store}
	vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationSelect, Value: "2", Surface: domain.SurfaceGrid})

	res := vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationQuantityChange, Value: "-5", Surface: domain.SurfaceGrid})

	assert.True(t, res.Applied)
	assert.True(t, res.Corrected)
	assert.Equal(t, 1, res.Quantity)
	assert.Equal(t, "20.00", res.Total)
	st := stateOf(t, res, domain.SurfaceGrid)
	assert.Equal(t, 1, st.Quantity)
	assert.Equal(t, "20.00", st.ItemTotal)
}

func TestViewSynchronizer_QuantityChangeOnUnselected(t *testing.T) {
	_, store := scenarioStore(t)
	vs := ViewSynchronizer{Store: store}

	res := vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationQuantityChange, Value: "4", Surface: domain.SurfaceGrid})

	assert.False(t, res.Applied)
	assert.False(t, store.IsSelected("p1"))
	st := stateOf(t, res, domain.SurfaceGrid)
	assert.False(t, st.Checked)
	assert.Equal(t, 4, st.Quantity)
	assert.Equal(t, "0.00", st.ItemTotal)
}

func TestViewSynchronizer_OriginAlwaysReported(t *testing.T) {
	_, store := scenarioStore(t)
	vs := ViewSynchronizer{Store: store, Surfaces: fixedSurfaces{domain.SurfaceGrid}}

	res := vs.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationSelect, Value: "1", Surface: domain.SurfaceModal})

	require.Len(t, res.Surfaces, 2)
	stateOf(t, res, domain.SurfaceGrid)
	stateOf(t, res, domain.SurfaceModal)
}

func TestViewSynchronizer_NonQuotableProduct(t *testing.T) {
	_, store := scenarioStore(t)
	vs := ViewSynchronizer{Store: store}

	res := vs.Apply(domain.Mutation{ProductID: "p2", Kind: domain.MutationSelect, Value: "1", Surface: domain.SurfaceGrid})

	assert.False(t, res.Applied)
	assert.False(t, stateOf(t, res, domain.SurfaceGrid).Checked)
	assert.Equal(t, "0.00", res.Total)
}
