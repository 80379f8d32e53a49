package analysis

import (
	"fmt"
	"sort"
	"time"

	"medpulse/internal/dataset"
	"medpulse/internal/stats"
)

// GroupingSpec names one grouped summary table of a profile.
type GroupingSpec struct {
	Name        string
	Dims        []string
	AgeBucketed bool
	Aggs        []Agg
}

// PearsonPair names a standalone correlation test between two numeric
// columns.
type PearsonPair struct {
	Name string
	X    string
	Y    string
}

// TTestSpec names a two-group t-test of a numeric column split by a
// text column's two values.
type TTestSpec struct {
	Name        string
	SplitColumn string
	GroupA      string
	GroupB      string
	ValueColumn string
}

// ChartKind selects a panel type in the report's chart grid.
type ChartKind string

const (
	ChartBar     ChartKind = "bar"     // grouped aggregate as vertical bars
	ChartBarH    ChartKind = "barh"    // grouped aggregate, ascending, horizontal feel
	ChartHist    ChartKind = "hist"    // histogram of a numeric column
	ChartShare   ChartKind = "share"   // group shares of row count (pie replacement)
	ChartLine    ChartKind = "line"    // aggregate across an ordered dimension
	ChartScatter ChartKind = "scatter" // two numeric columns
	ChartBox     ChartKind = "box"     // numeric column split by a binary outcome
)

// ChartSpec describes one panel of the PNG grid.
type ChartSpec struct {
	Title string
	Kind  ChartKind

	// Dim/Value/Fn drive bar, barh, share and line panels.
	Dim   string
	Value string
	Fn    AggFn

	// X/Y drive scatter panels; X also names the column for hist and
	// box panels.
	X string
	Y string

	Bins int

	// WeekdayOrder reorders a day_of_week dimension Monday..Sunday.
	WeekdayOrder bool

	// AgeBucketed groups by the profile's age buckets instead of a
	// frame column.
	AgeBucketed bool
}

// Profile binds a named dataset to its schema, groupings, tests and
// report layout. The three shipped profiles replace what used to be
// three copy-pasted analysis scripts that drifted apart over time.
type Profile struct {
	Name     string
	Title    string
	Artifact string // base name for the three report files

	Schema      dataset.Schema
	CorrColumns []string

	// Outcome names a binary (0/1) column driving per-predictor factor
	// analysis and t-tests. Empty for profiles without one.
	Outcome string

	AgeColumn string

	Groupings    []GroupingSpec
	PearsonPairs []PearsonPair
	TTests       []TTestSpec
	Charts       []ChartSpec

	// Extras computes the profile's headline metrics for the
	// Additional_Statistics and Key_Insights sheets.
	Extras func(f *dataset.Frame) ([]KV, error)
}

// Profiles returns every registered dataset profile keyed by name.
func Profiles() map[string]*Profile {
	return map[string]*Profile{
		"students": StudentsProfile(),
		"istanbul": IstanbulProfile(),
		"retail":   RetailProfile(),
	}
}

// Lookup returns the named profile.
func Lookup(name string) (*Profile, error) {
	p, ok := Profiles()[name]
	if !ok {
		names := make([]string, 0)
		for n := range Profiles() {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("analysis: unknown profile %q (have %v)", name, names)
	}
	return p, nil
}

// StudentsProfile analyses the college placement dataset: which
// academic and skill factors separate placed from unplaced students.
func StudentsProfile() *Profile {
	return &Profile{
		Name:     "students",
		Title:    "College Student Analysis",
		Artifact: "college_student_analysis",
		Schema: dataset.Schema{
			Columns: []dataset.Column{
				{Name: "College_ID", Kind: dataset.KindString},
				{Name: "IQ", Kind: dataset.KindInt},
				{Name: "Prev_Sem_Result", Kind: dataset.KindFloat},
				{Name: "CGPA", Kind: dataset.KindFloat},
				{Name: "Academic_Performance", Kind: dataset.KindInt},
				{Name: "Internship_Experience", Kind: dataset.KindBinary},
				{Name: "Extra_Curricular_Score", Kind: dataset.KindInt},
				{Name: "Communication_Skills", Kind: dataset.KindInt},
				{Name: "Projects_Completed", Kind: dataset.KindInt},
				{Name: "Placement", Kind: dataset.KindBinary},
			},
		},
		Outcome: "Placement",
		Charts: []ChartSpec{
			{Title: "Placement Distribution", Kind: ChartShare, Dim: "Placement"},
			{Title: "IQ by Placement Status", Kind: ChartBox, X: "IQ"},
			{Title: "CGPA by Placement Status", Kind: ChartBox, X: "CGPA"},
			{Title: "Academic Performance by Placement Status", Kind: ChartBox, X: "Academic_Performance"},
			{Title: "Communication Skills by Placement Status", Kind: ChartBox, X: "Communication_Skills"},
			{Title: "Projects Completed by Placement Status", Kind: ChartBox, X: "Projects_Completed"},
		},
		Extras: studentExtras,
	}
}

func studentExtras(f *dataset.Frame) ([]KV, error) {
	out := []KV{{Name: "Total_Students", Value: fmt.Sprintf("%d", f.Len())}}
	rates := []struct {
		name   string
		column string
	}{
		{"Placement_Rate", "Placement"},
		{"Internship_Rate", "Internship_Experience"},
	}
	for _, r := range rates {
		vals, err := f.Floats(r.column)
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Name: r.name, Value: fmt.Sprintf("%.1f%%", stats.Mean(vals)*100)})
	}
	means := []struct {
		name   string
		column string
		format string
	}{
		{"IQ_Mean", "IQ", "%.1f"},
		{"CGPA_Mean", "CGPA", "%.2f"},
		{"Academic_Performance_Mean", "Academic_Performance", "%.1f"},
		{"Communication_Skills_Mean", "Communication_Skills", "%.1f"},
		{"Projects_Completed_Mean", "Projects_Completed", "%.1f"},
		{"Extra_Curricular_Score_Mean", "Extra_Curricular_Score", "%.1f"},
	}
	for _, m := range means {
		vals, err := f.Floats(m.column)
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Name: m.name, Value: fmt.Sprintf(m.format, stats.Mean(vals))})
	}
	return out, nil
}

// IstanbulProfile analyses the Istanbul shopping-mall transaction
// dataset across category, mall, payment method, time and demographics.
func IstanbulProfile() *Profile {
	amountAggs := []Agg{
		{Column: "total_amount", Fn: AggSum},
		{Column: "total_amount", Fn: AggMean},
		{Column: "total_amount", Fn: AggCount},
		{Column: "quantity", Fn: AggSum},
		{Column: "quantity", Fn: AggMean},
	}
	return &Profile{
		Name:     "istanbul",
		Title:    "Istanbul Sales Data Analysis",
		Artifact: "istanbul_sales_analysis",
		Schema: dataset.Schema{
			Columns: []dataset.Column{
				{Name: "invoice_no", Kind: dataset.KindString},
				{Name: "customer_id", Kind: dataset.KindString},
				{Name: "gender", Kind: dataset.KindString},
				{Name: "age", Kind: dataset.KindInt},
				{Name: "category", Kind: dataset.KindString},
				{Name: "quantity", Kind: dataset.KindInt},
				{Name: "price", Kind: dataset.KindFloat},
				{Name: "payment_method", Kind: dataset.KindString},
				{Name: "invoice_date", Kind: dataset.KindDate},
				{Name: "shopping_mall", Kind: dataset.KindString},
			},
			DateColumn: "invoice_date",
			DateLayout: "2/1/2006",
			Products:   []dataset.Product{{Name: "total_amount", Left: "quantity", Right: "price"}},
		},
		CorrColumns: []string{"age", "quantity", "price", "total_amount"},
		AgeColumn:   "age",
		Groupings: []GroupingSpec{
			{Name: "Category_Analysis", Dims: []string{"category"}, Aggs: append(amountAggs[:5:5],
				Agg{Column: "price", Fn: AggMean},
				Agg{Column: "price", Fn: AggMin},
				Agg{Column: "price", Fn: AggMax})},
			{Name: "Mall_Analysis", Dims: []string{"shopping_mall"}, Aggs: append(amountAggs[:5:5],
				Agg{Column: "customer_id", Fn: AggDistinct})},
			{Name: "Payment_Analysis", Dims: []string{"payment_method"}, Aggs: amountAggs},
			{Name: "Monthly_Analysis", Dims: []string{"year", "month"}, Aggs: amountAggs},
			{Name: "Day_of_Week_Analysis", Dims: []string{"day_of_week"}, Aggs: amountAggs},
			{Name: "Quarter_Analysis", Dims: []string{"year", "quarter"}, Aggs: amountAggs},
			{Name: "Age_Analysis", AgeBucketed: true, Aggs: append(amountAggs[:5:5],
				Agg{Column: "customer_id", Fn: AggDistinct})},
			{Name: "Gender_Analysis", Dims: []string{"gender"}, Aggs: append(amountAggs[:5:5],
				Agg{Column: "customer_id", Fn: AggDistinct})},
		},
		Charts: []ChartSpec{
			{Title: "Total Sales by Category", Kind: ChartBarH, Dim: "category", Value: "total_amount", Fn: AggSum},
			{Title: "Total Sales by Shopping Mall", Kind: ChartBarH, Dim: "shopping_mall", Value: "total_amount", Fn: AggSum},
			{Title: "Payment Method Distribution", Kind: ChartShare, Dim: "payment_method"},
			{Title: "Customer Age Distribution", Kind: ChartHist, X: "age", Bins: 20},
			{Title: "Average Transaction Value by Gender", Kind: ChartBar, Dim: "gender", Value: "total_amount", Fn: AggMean},
			{Title: "Monthly Sales Trend", Kind: ChartLine, Dim: "month", Value: "total_amount", Fn: AggSum},
			{Title: "Sales by Day of Week", Kind: ChartBar, Dim: "day_of_week", Value: "total_amount", Fn: AggSum, WeekdayOrder: true},
			{Title: "Price vs Quantity Relationship", Kind: ChartScatter, X: "price", Y: "quantity"},
			{Title: "Average Price by Category", Kind: ChartBarH, Dim: "category", Value: "price", Fn: AggMean},
		},
		Extras: istanbulExtras,
	}
}

func istanbulExtras(f *dataset.Frame) ([]KV, error) {
	amount, err := f.Floats("total_amount")
	if err != nil {
		return nil, err
	}
	quantity, err := f.Floats("quantity")
	if err != nil {
		return nil, err
	}
	age, err := f.Floats("age")
	if err != nil {
		return nil, err
	}
	customers, err := f.DistinctCount("customer_id")
	if err != nil {
		return nil, err
	}
	categories, err := f.DistinctCount("category")
	if err != nil {
		return nil, err
	}
	malls, err := f.DistinctCount("shopping_mall")
	if err != nil {
		return nil, err
	}
	start, end, err := dateRange(f, "invoice_date")
	if err != nil {
		return nil, err
	}
	malePct, femalePct, err := genderSplit(f, "gender")
	if err != nil {
		return nil, err
	}
	return []KV{
		{Name: "Total_Transactions", Value: fmt.Sprintf("%d", f.Len())},
		{Name: "Total_Revenue", Value: fmt.Sprintf("%.2f", stats.Sum(amount))},
		{Name: "Average_Transaction_Value", Value: fmt.Sprintf("%.2f", stats.Mean(amount))},
		{Name: "Total_Quantity_Sold", Value: fmt.Sprintf("%.0f", stats.Sum(quantity))},
		{Name: "Unique_Customers", Value: fmt.Sprintf("%d", customers)},
		{Name: "Unique_Products", Value: fmt.Sprintf("%d", categories)},
		{Name: "Unique_Malls", Value: fmt.Sprintf("%d", malls)},
		{Name: "Date_Range_Start", Value: start.Format("2006-01-02")},
		{Name: "Date_Range_End", Value: end.Format("2006-01-02")},
		{Name: "Average_Age", Value: fmt.Sprintf("%.1f", stats.Mean(age))},
		{Name: "Male_Customers_Percentage", Value: fmt.Sprintf("%.1f%%", malePct)},
		{Name: "Female_Customers_Percentage", Value: fmt.Sprintf("%.1f%%", femalePct)},
	}, nil
}

// RetailProfile analyses the retail transaction dataset by product
// category, gender, time and customer behaviour.
func RetailProfile() *Profile {
	amountAggs := []Agg{
		{Column: "Total Amount", Fn: AggSum},
		{Column: "Total Amount", Fn: AggMean},
		{Column: "Total Amount", Fn: AggCount},
		{Column: "Quantity", Fn: AggSum},
		{Column: "Quantity", Fn: AggMean},
	}
	return &Profile{
		Name:     "retail",
		Title:    "Retail Sales Analysis",
		Artifact: "retail_sales_analysis",
		Schema: dataset.Schema{
			Columns: []dataset.Column{
				{Name: "Transaction ID", Kind: dataset.KindString},
				{Name: "Date", Kind: dataset.KindDate},
				{Name: "Customer ID", Kind: dataset.KindString},
				{Name: "Gender", Kind: dataset.KindString},
				{Name: "Age", Kind: dataset.KindInt},
				{Name: "Product Category", Kind: dataset.KindString},
				{Name: "Quantity", Kind: dataset.KindInt},
				{Name: "Price per Unit", Kind: dataset.KindFloat},
				{Name: "Total Amount", Kind: dataset.KindFloat},
			},
			DateColumn: "Date",
			DateLayout: "2006-01-02",
		},
		CorrColumns: []string{"Age", "Quantity", "Price per Unit", "Total Amount"},
		AgeColumn:   "Age",
		Groupings: []GroupingSpec{
			{Name: "Category_Analysis", Dims: []string{"Product Category"}, Aggs: append(amountAggs[:5:5],
				Agg{Column: "Price per Unit", Fn: AggMean},
				Agg{Column: "Price per Unit", Fn: AggMin},
				Agg{Column: "Price per Unit", Fn: AggMax})},
			{Name: "Gender_Analysis", Dims: []string{"Gender"}, Aggs: append(amountAggs[:5:5],
				Agg{Column: "Customer ID", Fn: AggDistinct})},
			{Name: "Monthly_Analysis", Dims: []string{"year", "month"}, Aggs: amountAggs},
			{Name: "Day_of_Week_Analysis", Dims: []string{"day_of_week"}, Aggs: amountAggs},
			{Name: "Quarter_Analysis", Dims: []string{"year", "quarter"}, Aggs: amountAggs},
			{Name: "Age_Analysis", AgeBucketed: true, Aggs: append(amountAggs[:5:5],
				Agg{Column: "Customer ID", Fn: AggDistinct})},
			{Name: "Customer_Frequency", Dims: []string{"Customer ID"}, Aggs: []Agg{
				{Column: "Transaction ID", Fn: AggCount},
				{Column: "Total Amount", Fn: AggSum},
				{Column: "Total Amount", Fn: AggMean},
				{Column: "Quantity", Fn: AggSum},
				{Column: "Quantity", Fn: AggMean},
			}},
			{Name: "Customer_Category_Prefs", Dims: []string{"Customer ID", "Product Category"}, Aggs: []Agg{
				{Column: "Total Amount", Fn: AggSum},
				{Column: "Quantity", Fn: AggSum},
			}},
		},
		PearsonPairs: []PearsonPair{
			{Name: "Age_Spending_Correlation", X: "Age", Y: "Total Amount"},
			{Name: "Quantity_Price_Correlation", X: "Quantity", Y: "Price per Unit"},
		},
		TTests: []TTestSpec{
			{
				Name:        "Gender_Spending_Difference",
				SplitColumn: "Gender",
				GroupA:      "Male",
				GroupB:      "Female",
				ValueColumn: "Total Amount",
			},
		},
		Charts: []ChartSpec{
			{Title: "Total Sales by Product Category", Kind: ChartBarH, Dim: "Product Category", Value: "Total Amount", Fn: AggSum},
			{Title: "Customer Age Distribution", Kind: ChartHist, X: "Age", Bins: 20},
			{Title: "Average Transaction Value by Gender", Kind: ChartBar, Dim: "Gender", Value: "Total Amount", Fn: AggMean},
			{Title: "Monthly Sales Trend", Kind: ChartLine, Dim: "month", Value: "Total Amount", Fn: AggSum},
			{Title: "Sales by Day of Week", Kind: ChartBar, Dim: "day_of_week", Value: "Total Amount", Fn: AggSum, WeekdayOrder: true},
			{Title: "Price vs Quantity Relationship", Kind: ChartScatter, X: "Price per Unit", Y: "Quantity"},
			{Title: "Sales by Age Group", Kind: ChartBar, Value: "Total Amount", Fn: AggSum, AgeBucketed: true},
			{Title: "Average Price by Category", Kind: ChartBarH, Dim: "Product Category", Value: "Price per Unit", Fn: AggMean},
			{Title: "Quantity Distribution", Kind: ChartHist, X: "Quantity", Bins: 10},
		},
		Extras: retailExtras,
	}
}

func retailExtras(f *dataset.Frame) ([]KV, error) {
	amount, err := f.Floats("Total Amount")
	if err != nil {
		return nil, err
	}
	quantity, err := f.Floats("Quantity")
	if err != nil {
		return nil, err
	}
	age, err := f.Floats("Age")
	if err != nil {
		return nil, err
	}
	price, err := f.Floats("Price per Unit")
	if err != nil {
		return nil, err
	}
	customers, err := f.DistinctCount("Customer ID")
	if err != nil {
		return nil, err
	}
	categories, err := f.DistinctCount("Product Category")
	if err != nil {
		return nil, err
	}
	start, end, err := dateRange(f, "Date")
	if err != nil {
		return nil, err
	}
	malePct, femalePct, err := genderSplit(f, "Gender")
	if err != nil {
		return nil, err
	}
	return []KV{
		{Name: "Total_Transactions", Value: fmt.Sprintf("%d", f.Len())},
		{Name: "Total_Revenue", Value: fmt.Sprintf("%.2f", stats.Sum(amount))},
		{Name: "Average_Transaction_Value", Value: fmt.Sprintf("%.2f", stats.Mean(amount))},
		{Name: "Total_Quantity_Sold", Value: fmt.Sprintf("%.0f", stats.Sum(quantity))},
		{Name: "Unique_Customers", Value: fmt.Sprintf("%d", customers)},
		{Name: "Unique_Products", Value: fmt.Sprintf("%d", categories)},
		{Name: "Date_Range_Start", Value: start.Format("2006-01-02")},
		{Name: "Date_Range_End", Value: end.Format("2006-01-02")},
		{Name: "Average_Age", Value: fmt.Sprintf("%.1f", stats.Mean(age))},
		{Name: "Male_Customers_Percentage", Value: fmt.Sprintf("%.1f%%", malePct)},
		{Name: "Female_Customers_Percentage", Value: fmt.Sprintf("%.1f%%", femalePct)},
		{Name: "Average_Price_per_Unit", Value: fmt.Sprintf("%.2f", stats.Mean(price))},
	}, nil
}

func dateRange(f *dataset.Frame, column string) (time.Time, time.Time, error) {
	dates, err := f.Dates(column)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("analysis: no dates in column %s", column)
	}
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, nil
}

func genderSplit(f *dataset.Frame, column string) (malePct, femalePct float64, err error) {
	vals, err := f.Strings(column)
	if err != nil {
		return 0, 0, err
	}
	var male, female int
	for _, v := range vals {
		switch v {
		case "Male":
			male++
		case "Female":
			female++
		}
	}
	n := float64(len(vals))
	if n == 0 {
		return 0, 0, nil
	}
	return float64(male) / n * 100, float64(female) / n * 100, nil
}
