package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorsProduceNonEmptyUniqueValues(t *testing.T) {
	a, b := NewRowID(), NewRowID()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)

	v1, v2 := NewViewID(), NewViewID()
	require.NotEmpty(t, v1)
	require.NotEqual(t, v1, v2)
}

func TestViewLayoutClassification(t *testing.T) {
	assert.True(t, ViewLayoutDocument.IsDocument())
	assert.False(t, ViewLayoutGrid.IsDocument())

	assert.True(t, ViewLayoutGrid.IsDatabaseView())
	assert.True(t, ViewLayoutCalendar.IsDatabaseView())
	assert.False(t, ViewLayoutDocument.IsDatabaseView())
	assert.False(t, ViewLayoutChat.IsDatabaseView())
}

func TestFieldTypeIsSelectType(t *testing.T) {
	assert.True(t, FieldTypeSingleSelect.IsSelectType())
	assert.True(t, FieldTypeMultiSelect.IsSelectType())
	assert.False(t, FieldTypeRichText.IsSelectType())
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Now().UTC().Round(time.Millisecond)
	ts := TimestampFromTime(now)
	assert.Equal(t, now, ts.Time())
}
