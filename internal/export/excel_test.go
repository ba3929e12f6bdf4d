package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"surf-market/internal/model"
)

func TestListings(t *testing.T) {
	created := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	f, err := Listings([]model.Listing{
		{
			ID: "l1", Title: "Twin fish", Brand: "Lost", Category: model.CategoryFish, LengthInches: 64,
			Price: 400, Condition: model.ConditionGood, Location: "Pacifica, California",
			Status: model.StatusSold, CreatedAt: created,
		},
	}, map[string]int{"l1": 3})
	require.NoError(t, err)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	saved, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer saved.Close()

	assert.Equal(t, []string{SheetName}, saved.GetSheetList())

	rows, err := saved.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, []string{
		"Twin fish", "Lost", "fish", `5'4"`, "400", "good", "Pacifica, California", "sold", "3", "2024-03-09",
	}, rows[1])
}
