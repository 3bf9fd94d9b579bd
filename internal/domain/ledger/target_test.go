package ledger

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTargetRef(t *testing.T) {
	id := uuid.New()

	ref, err := NewTargetRef(TargetVariation, id)
	require.NoError(t, err)
	assert.Equal(t, TargetVariation, ref.Kind())
	assert.Equal(t, id, ref.ID())

	_, err = NewTargetRef("warehouse", id)
	assert.ErrorIs(t, err, shared.ErrInvalidTarget)

	_, err = NewTargetRef(TargetProduct, uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrInvalidTarget)

	assert.ErrorIs(t, TargetRef{}.Validate(), shared.ErrInvalidTarget)
	assert.True(t, TargetRef{}.IsZero())
}

func TestParseTargetKind(t *testing.T) {
	kind, err := ParseTargetKind(" Accessory ")
	require.NoError(t, err)
	assert.Equal(t, TargetAccessory, kind)

	_, err = ParseTargetKind("bundle")
	assert.ErrorIs(t, err, shared.ErrInvalidTarget)
}

func TestTargetRef_Columns(t *testing.T) {
	id := uuid.New()
	p, v, a := AccessoryTarget(id).Columns()
	assert.Nil(t, p)
	assert.Nil(t, v)
	require.NotNil(t, a)
	assert.Equal(t, id, *a)

	ref, err := TargetFromColumns(p, v, a)
	require.NoError(t, err)
	assert.Equal(t, AccessoryTarget(id), ref)
}

func TestTargetFromColumns_RequiresExactlyOne(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	_, err := TargetFromColumns(nil, nil, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidTarget)

	_, err = TargetFromColumns(&a, &b, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidTarget)
}

func TestTargetRef_LockKeyOrdersByKindThenID(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	keys := []string{
		AccessoryTarget(low).LockKey(),
		VariationTarget(high).LockKey(),
		ProductTarget(high).LockKey(),
		VariationTarget(low).LockKey(),
	}
	sort.Strings(keys)

	assert.Equal(t, []string{
		ProductTarget(high).LockKey(),
		VariationTarget(low).LockKey(),
		VariationTarget(high).LockKey(),
		AccessoryTarget(low).LockKey(),
	}, keys)
}

func TestTargetRef_String(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "product:"+id.String(), ProductTarget(id).String())
	assert.Equal(t, "<none>", TargetRef{}.String())
}
