package typeoption

import (
	"testing"

	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNumberParseAndFormat(t *testing.T) {
	o := NewNumber()
	o.Format = NumberFormatUSD
	o.Scale = 2

	require.Equal(t, "1234.5", o.ConvertRawCellData("1234.5abc"))
	require.Equal(t, "$1,234.5", o.StringifyCell("1234.5"))

	require.Equal(t, "0.5", o.ConvertRawCellData(".5"))
}

func TestNumberPercentFormat(t *testing.T) {
	o := NewNumber()
	o.Format = NumberFormatPercent
	require.Equal(t, "42%", o.StringifyCell("42"))
}

// S8
func TestNumberFormatMatchesSpecScenario(t *testing.T) {
	o := NewNumber()
	o.Format = NumberFormatUSD

	require.Equal(t, "$99,999,999,999", o.StringifyCell("99999999999"))
	require.Equal(t, "-$0.2", o.StringifyCell("-€0.2"))
	require.Equal(t, "", o.StringifyCell("abc"))
}

func TestCheckboxParse(t *testing.T) {
	o := NewCheckbox()
	require.Equal(t, "Yes", o.ConvertRawCellData("true"))
	require.Equal(t, "No", o.ConvertRawCellData("0"))
	v, ok := o.JSONCell("Yes").(bool)
	require.True(t, ok)
	require.True(t, v)
}

func TestSelectRoundTrip(t *testing.T) {
	o := NewSelect(types.FieldTypeSingleSelect)
	opt := o.AddOption("Done", "green")
	require.NotEmpty(t, opt.ID)
	require.Equal(t, "Done", o.StringifyCell(opt.ID))
}

func TestChecklistRatio(t *testing.T) {
	o := NewChecklist()
	a := o.AddOption("a")
	o.AddOption("b")
	require.Equal(t, "1/2", o.StringifyCell(a.ID))
	ratio, ok := o.NumericCell(a.ID)
	require.True(t, ok)
	require.InDelta(t, 0.5, ratio, 0.001)
}

func TestRegistryFallsBackToRichTextForUnknown(t *testing.T) {
	opt := New(types.FieldType(99))
	require.Equal(t, types.FieldTypeRichText, opt.FieldType())
}
