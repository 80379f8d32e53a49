package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"medpulse/internal/analysis"
	"medpulse/internal/dataset"
)

// Fixed sheet names; grouped tables add one sheet each after these.
const (
	sheetRawData     = "Raw_Data"
	sheetDescriptive = "Descriptive_Statistics"
	sheetAdditional  = "Additional_Statistics"
	sheetCorrelation = "Correlation_Matrix"
	sheetFactors     = "Top_Factors"
	sheetTests       = "Statistical_Tests"
	sheetInsights    = "Key_Insights"
)

// writeExcel renders the workbook. Sheet order mirrors reading order:
// raw data, descriptive and headline statistics, correlations, one
// sheet per grouped table, then tests and insights.
func writeExcel(res *analysis.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return err
	}
	w := &workbook{f: f, headerStyle: header}

	if err := w.rawData(res.Frame); err != nil {
		return err
	}
	if err := w.descriptive(res); err != nil {
		return err
	}
	if err := w.additional(res); err != nil {
		return err
	}
	if err := w.correlation(res); err != nil {
		return err
	}
	for _, table := range res.Tables {
		if err := w.grouped(table); err != nil {
			return err
		}
	}
	if len(res.Factors) > 0 {
		if err := w.factors(res); err != nil {
			return err
		}
	}
	if len(res.Tests) > 0 {
		if err := w.tests(res); err != nil {
			return err
		}
	}
	if err := w.insights(res); err != nil {
		return err
	}

	// The workbook starts with a default sheet we never wrote to.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(sheetRawData)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	return f.SaveAs(path)
}

type workbook struct {
	f           *excelize.File
	headerStyle int
}

// sheet creates a named sheet and writes its styled header row.
func (w *workbook) sheet(name string, headers []interface{}) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	if err := w.f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(name, "A1", end, w.headerStyle)
}

// row writes one data row at the given 1-based row number.
func (w *workbook) row(name string, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(name, cell, &cells)
}

func (w *workbook) rawData(frame *dataset.Frame) error {
	columns := frame.Columns()
	headers := make([]interface{}, len(columns))
	for i, c := range columns {
		headers[i] = c
	}
	if err := w.sheet(sheetRawData, headers); err != nil {
		return err
	}

	// Materialize each column once, then emit row-wise.
	numeric := make(map[string][]float64)
	text := make(map[string][]string)
	dates := make(map[string][]time.Time)
	for _, c := range columns {
		kind, _ := frame.Kind(c)
		switch kind {
		case dataset.KindString:
			vals, err := frame.Strings(c)
			if err != nil {
				return err
			}
			text[c] = vals
		case dataset.KindDate:
			vals, err := frame.Dates(c)
			if err != nil {
				return err
			}
			dates[c] = vals
		default:
			vals, err := frame.Floats(c)
			if err != nil {
				return err
			}
			numeric[c] = vals
		}
	}

	for i := 0; i < frame.Len(); i++ {
		cells := make([]interface{}, len(columns))
		for j, c := range columns {
			switch {
			case text[c] != nil:
				cells[j] = text[c][i]
			case dates[c] != nil:
				cells[j] = dates[c][i].Format("2006-01-02")
			default:
				cells[j] = numeric[c][i]
			}
		}
		if err := w.row(sheetRawData, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) descriptive(res *analysis.Result) error {
	headers := []interface{}{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	if err := w.sheet(sheetDescriptive, headers); err != nil {
		return err
	}
	for i, cs := range res.Descriptive {
		s := cs.Summary
		cells := []interface{}{cs.Column, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max}
		if err := w.row(sheetDescriptive, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) additional(res *analysis.Result) error {
	if err := w.sheet(sheetAdditional, []interface{}{"Metric", "Value"}); err != nil {
		return err
	}
	for i, kv := range res.Extras {
		if err := w.row(sheetAdditional, i+2, []interface{}{kv.Name, kv.Value}); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) correlation(res *analysis.Result) error {
	m := res.Correlation
	headers := make([]interface{}, 0, len(m.Columns)+1)
	headers = append(headers, "")
	for _, c := range m.Columns {
		headers = append(headers, c)
	}
	if err := w.sheet(sheetCorrelation, headers); err != nil {
		return err
	}
	for i, name := range m.Columns {
		cells := make([]interface{}, 0, len(m.Columns)+1)
		cells = append(cells, name)
		for _, v := range m.Data[i] {
			cells = append(cells, v)
		}
		if err := w.row(sheetCorrelation, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) grouped(table *analysis.Table) error {
	headers := make([]interface{}, 0, len(table.Headers)+1)
	headers = append(headers, dimHeader(table.Dims))
	for _, h := range table.Headers {
		headers = append(headers, h)
	}
	if err := w.sheet(table.Name, headers); err != nil {
		return err
	}
	for i, r := range table.Rows {
		cells := make([]interface{}, 0, len(r.Cells)+1)
		cells = append(cells, r.Key)
		for _, v := range r.Cells {
			cells = append(cells, v)
		}
		if err := w.row(table.Name, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func dimHeader(dims []string) string {
	out := ""
	for i, d := range dims {
		if i > 0 {
			out += "-"
		}
		out += d
	}
	return out
}

func (w *workbook) factors(res *analysis.Result) error {
	headers := []interface{}{
		"Factor", "Positive_Group_Mean", "Negative_Group_Mean", "Difference",
		"T_Statistic", "P_Value", "Significant",
	}
	if err := w.sheet(sheetFactors, headers); err != nil {
		return err
	}
	for i, fa := range res.Factors {
		cells := []interface{}{
			fa.Name, fa.PositiveMean, fa.NegativeMean, fa.Difference,
			fa.Test.Statistic, fa.Test.PValue, fa.Test.Significant,
		}
		if err := w.row(sheetFactors, i+2, cells); err != nil {
			return err
		}
	}

	// Outcome correlations below the factor block, one blank row apart.
	start := len(res.Factors) + 3
	if err := w.row(sheetFactors, start, []interface{}{"Factor", "Outcome_Correlation"}); err != nil {
		return err
	}
	for i, c := range res.OutcomeCorrelations {
		if err := w.row(sheetFactors, start+1+i, []interface{}{c.Column, c.R}); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) tests(res *analysis.Result) error {
	headers := []interface{}{"Test", "Correlation", "T_Statistic", "P_Value", "Significant"}
	if err := w.sheet(sheetTests, headers); err != nil {
		return err
	}
	for i, t := range res.Tests {
		r := interface{}("")
		if t.HasR {
			r = t.R
		}
		cells := []interface{}{t.Name, r, t.Test.Statistic, t.Test.PValue, t.Test.Significant}
		if err := w.row(sheetTests, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) insights(res *analysis.Result) error {
	if err := w.sheet(sheetInsights, []interface{}{"Insight", "Value"}); err != nil {
		return err
	}
	n := 2
	write := func(name, value string) error {
		err := w.row(sheetInsights, n, []interface{}{name, value})
		n++
		return err
	}

	if err := write("Rows_Analyzed", fmt.Sprintf("%d", res.Frame.Len())); err != nil {
		return err
	}
	if err := write("Significant_Tests", fmt.Sprintf("%d", res.SignificantCount())); err != nil {
		return err
	}
	for _, table := range res.Tables {
		if len(table.Rows) == 0 {
			continue
		}
		top, err := table.Top(table.Headers[0])
		if err != nil {
			return err
		}
		if err := write("Top_"+table.Name, top); err != nil {
			return err
		}
	}
	for _, kv := range res.Extras {
		if err := write(kv.Name, kv.Value); err != nil {
			return err
		}
	}
	return nil
}
