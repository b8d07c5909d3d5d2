package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githubledger/ledgerflow/internal/profile"
)

func strPtr(s string) *string { return &s }

func TestClassify_Flat(t *testing.T) {
	c := New(profile.CategorySystem{
		Type: profile.SystemFlat,
		Mapping: map[string]profile.CategoryMapping{
			"餐饮": {CategoryMain: "Food & Dining"},
			"咖啡": {CategoryMain: "Food & Dining", CategorySub: strPtr("Coffee")},
		},
	})

	res, err := c.Classify("餐饮")
	require.NoError(t, err)
	require.NotNil(t, res.CategoryMain)
	assert.Equal(t, "Food & Dining", *res.CategoryMain)
	assert.Nil(t, res.CategorySub)

	res, err = c.Classify("咖啡")
	require.NoError(t, err)
	require.NotNil(t, res.CategorySub)
	assert.Equal(t, "Coffee", *res.CategorySub)

	res, err = c.Classify(" 餐饮 ")
	require.NoError(t, err, "raw category should be trimmed before lookup")
	assert.Equal(t, "Food & Dining", *res.CategoryMain)
}

func TestClassify_Hierarchical(t *testing.T) {
	c := New(profile.CategorySystem{
		Type: profile.SystemHierarchical,
		Mapping: map[string]profile.CategoryMapping{
			"Food":        {CategoryMain: "Food & Dining"},
			"Food.Coffee": {CategoryMain: "Food & Dining", CategorySub: strPtr("Specialty Coffee")},
			"Transport":   {CategoryMain: "Transportation", CategorySub: strPtr("General")},
		},
	})

	tests := []struct {
		name     string
		raw      string
		wantMain string
		wantSub  *string
	}{
		{
			name:     "exact compound entry beats split lookup",
			raw:      "Food.Coffee",
			wantMain: "Food & Dining",
			wantSub:  strPtr("Specialty Coffee"),
		},
		{
			name:     "split fallback carries the sub component",
			raw:      "Food.Takeout",
			wantMain: "Food & Dining",
			wantSub:  strPtr("Takeout"),
		},
		{
			name:     "mapped sub is not overwritten by the split component",
			raw:      "Transport.Taxi",
			wantMain: "Transportation",
			wantSub:  strPtr("General"),
		},
		{
			name:     "plain main component",
			raw:      "Food",
			wantMain: "Food & Dining",
			wantSub:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Classify(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, res.CategoryMain)
			assert.Equal(t, tt.wantMain, *res.CategoryMain)
			assert.Equal(t, tt.wantSub, res.CategorySub)
		})
	}

	_, err := c.Classify("Entertainment.Movies")
	var miss *Miss
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, "Entertainment.Movies", miss.RawCategory)
}

func TestClassify_DimensionalSplit(t *testing.T) {
	// Relational labels route into a generic category plus a tag so the
	// category axis stays mutually exclusive.
	c := New(profile.CategorySystem{
		Type: profile.SystemDimensionalSplit,
		Mapping: map[string]profile.CategoryMapping{
			"daughter's expenses": {CategoryMain: "Uncategorized", Tags: []string{"daughter"}},
			"餐饮":                  {CategoryMain: "Food & Dining"},
		},
	})

	res, err := c.Classify("daughter's expenses")
	require.NoError(t, err)
	require.NotNil(t, res.CategoryMain)
	assert.Equal(t, "Uncategorized", *res.CategoryMain)
	assert.Equal(t, []string{"daughter"}, res.Tags)

	res, err = c.Classify("餐饮")
	require.NoError(t, err)
	assert.Equal(t, "Food & Dining", *res.CategoryMain)
	assert.Empty(t, res.Tags)
}

func TestClassify_Miss(t *testing.T) {
	c := New(profile.CategorySystem{Type: profile.SystemFlat, Mapping: map[string]profile.CategoryMapping{}})

	_, err := c.Classify("unmapped")
	var miss *Miss
	require.ErrorAs(t, err, &miss)

	_, err = c.Classify("")
	require.ErrorAs(t, err, &miss, "empty raw category is a miss, not a hit")
}

func TestClassify_ResultTagsAreCopies(t *testing.T) {
	mapping := profile.CategoryMapping{CategoryMain: "Uncategorized", Tags: []string{"daughter"}}
	c := New(profile.CategorySystem{
		Type:    profile.SystemDimensionalSplit,
		Mapping: map[string]profile.CategoryMapping{"x": mapping},
	})

	res, err := c.Classify("x")
	require.NoError(t, err)
	res.Tags[0] = "mutated"

	again, err := c.Classify("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"daughter"}, again.Tags)
}
