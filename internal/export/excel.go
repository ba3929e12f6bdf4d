package export

import (
	"github.com/xuri/excelize/v2"

	"surf-market/internal/model"
)

const SheetName = "Listings"

var headers = []interface{}{
	"Title", "Brand", "Category", "Length", "Price", "Condition", "Location", "Status", "Favorites", "Created",
}

// Listings writes a seller's boards into a new workbook. favorites maps listing id to favorite count.
func Listings(listings []model.Listing, favorites map[string]int) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return nil, err
	}

	for i, l := range listings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			l.Title, l.Brand, string(l.Category), l.Length(), l.Price, string(l.Condition),
			l.Location, string(l.Status), favorites[l.ID], l.CreatedAt.Format("2006-01-02"),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}
