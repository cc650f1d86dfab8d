// Package export writes the filtered listings and chart summaries as an
// Excel workbook.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/models"
)

const (
	SheetData    = "Dados"
	SheetSummary = "Resumo"
)

var dataHeader = []any{
	models.ColSeason,
	models.ColPrice,
	models.ColRating,
	models.ColDiscount,
	models.ColGender,
	models.ColSoldQuantityCode,
	models.ColSoldQuantity,
}

// WriteWorkbook writes rows and the dashboard summaries to w as XLSX.
// Missing numeric values are left as empty cells.
func WriteWorkbook(w io.Writer, rows []models.Product, dash charts.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, dash); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, rows []models.Product) error {
	sw, err := f.NewStreamWriter(SheetData)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", dataHeader); err != nil {
		return err
	}

	for i, p := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			p.Season,
			number(p.Price),
			number(p.Rating),
			number(p.Discount),
			p.Gender,
			p.SoldQuantityCode,
			number(p.SoldQuantity),
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeSummary(f *excelize.File, dash charts.Dashboard) error {
	row := 1
	set := func(values ...any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(SheetSummary, cell, &values)
	}

	if err := set("Linhas filtradas", dash.Rows); err != nil {
		return err
	}
	row++

	if err := set(dash.Bar.Title); err != nil {
		return err
	}
	if err := set(dash.Bar.XLabel, dash.Bar.YLabel); err != nil {
		return err
	}
	for _, s := range dash.Bar.Series {
		if err := set(s.Name, s.Y[0]); err != nil {
			return err
		}
	}
	row++

	if err := set(dash.Pie.Title); err != nil {
		return err
	}
	if err := set(models.ColSeason, "Produtos", "Proporção"); err != nil {
		return err
	}
	if len(dash.Pie.Series) > 0 {
		fractions := dash.Pie.Fractions()
		for i, label := range dash.Pie.Series[0].Labels {
			if err := set(label, dash.Pie.Series[0].Y[i], fractions[i]); err != nil {
				return err
			}
		}
	}
	row++

	if m := dash.Heatmap.Matrix; m != nil {
		if err := set(dash.Heatmap.Title); err != nil {
			return err
		}
		header := []any{""}
		for _, l := range m.Labels {
			header = append(header, l)
		}
		if err := set(header...); err != nil {
			return err
		}
		for i, l := range m.Labels {
			values := []any{l}
			for _, v := range m.Values[i] {
				values = append(values, number(float64(v)))
			}
			if err := set(values...); err != nil {
				return err
			}
		}
	}
	return nil
}

// number maps NaN to nil so excelize leaves the cell empty.
func number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
