package medical

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LocalAnalytics computes every view over an in-memory dataset. Used
// for development and tests, and as the fallback when no BigQuery
// project is configured.
type LocalAnalytics struct {
	data *Dataset
}

// NewLocalAnalytics wraps an already loaded dataset.
func NewLocalAnalytics(data *Dataset) *LocalAnalytics {
	return &LocalAnalytics{data: data}
}

// LoadDataset reads a JSON dataset written by SaveDataset.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var data Dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return &data, nil
}

// SaveDataset writes the dataset as indented JSON.
func SaveDataset(path string, data *Dataset) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

func pct(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func avg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Overview computes the facility headline figures.
func (a *LocalAnalytics) Overview(ctx context.Context) (*FacilityOverview, error) {
	o := &FacilityOverview{
		TotalPatients:    len(a.data.Patients),
		TotalDoctors:     len(a.data.Doctors),
		TotalDepartments: len(a.data.Departments),
		TotalTreatments:  len(a.data.Treatments),
		TotalVisits:      len(a.data.Visits),
	}
	var satisfaction, stay float64
	var readmissions, complications int
	for _, v := range a.data.Visits {
		o.TotalRevenue += v.TreatmentCost
		satisfaction += float64(v.Satisfaction)
		stay += float64(v.LengthOfStayHours)
		if v.Readmission30Days {
			readmissions++
		}
		if v.Complications {
			complications++
		}
	}
	o.AvgSatisfaction = avg(satisfaction, o.TotalVisits)
	o.AvgLengthOfStay = avg(stay, o.TotalVisits)
	o.ReadmissionRate = pct(readmissions, o.TotalVisits)
	o.ComplicationRate = pct(complications, o.TotalVisits)
	return o, nil
}

// DepartmentPerformance aggregates visits per department, sorted by
// revenue descending. Departments with no visits still appear.
func (a *LocalAnalytics) DepartmentPerformance(ctx context.Context) ([]*DepartmentPerformance, error) {
	type acc struct {
		perf         *DepartmentPerformance
		satisfaction float64
		stay         float64
	}
	byID := make(map[int]*acc, len(a.data.Departments))
	out := make([]*DepartmentPerformance, 0, len(a.data.Departments))
	for _, d := range a.data.Departments {
		p := &DepartmentPerformance{Department: d.Name, Location: d.Location, Capacity: d.Capacity}
		byID[d.ID] = &acc{perf: p}
		out = append(out, p)
	}
	for _, v := range a.data.Visits {
		acc, ok := byID[v.DeptID]
		if !ok {
			continue
		}
		acc.perf.TotalVisits++
		acc.perf.TotalRevenue += v.TreatmentCost
		acc.satisfaction += float64(v.Satisfaction)
		acc.stay += float64(v.LengthOfStayHours)
	}
	for _, acc := range byID {
		p := acc.perf
		p.AvgSatisfaction = avg(acc.satisfaction, p.TotalVisits)
		p.AvgLengthOfStay = avg(acc.stay, p.TotalVisits)
		if p.Capacity > 0 {
			p.UtilizationRate = float64(p.TotalVisits) * 100 / float64(p.Capacity)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out, nil
}

// DoctorPerformance aggregates visits per doctor, visited doctors
// only, sorted by visit count descending and capped at limit.
func (a *LocalAnalytics) DoctorPerformance(ctx context.Context, limit int) ([]*DoctorPerformance, error) {
	type acc struct {
		perf         *DoctorPerformance
		satisfaction float64
		readmissions int
	}
	byID := make(map[int]*acc, len(a.data.Doctors))
	for _, d := range a.data.Doctors {
		byID[d.ID] = &acc{perf: &DoctorPerformance{
			Doctor:          d.Name,
			Specialty:       d.Specialty,
			YearsExperience: d.YearsExperience,
		}}
	}
	for _, v := range a.data.Visits {
		acc, ok := byID[v.DoctorID]
		if !ok {
			continue
		}
		acc.perf.TotalVisits++
		acc.perf.TotalRevenue += v.TreatmentCost
		acc.satisfaction += float64(v.Satisfaction)
		if v.Readmission30Days {
			acc.readmissions++
		}
	}
	var out []*DoctorPerformance
	for _, acc := range byID {
		p := acc.perf
		if p.TotalVisits == 0 {
			continue
		}
		p.AvgSatisfaction = avg(acc.satisfaction, p.TotalVisits)
		p.ReadmissionRate = pct(acc.readmissions, p.TotalVisits)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalVisits != out[j].TotalVisits {
			return out[i].TotalVisits > out[j].TotalVisits
		}
		return out[i].Doctor < out[j].Doctor
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Demographics aggregates visits per gender and insurance provider,
// sorted by revenue descending.
func (a *LocalAnalytics) Demographics(ctx context.Context) ([]*DemographicSlice, error) {
	patientByID := make(map[int]*Patient, len(a.data.Patients))
	for _, p := range a.data.Patients {
		patientByID[p.ID] = p
	}
	type key struct{ gender, insurance string }
	type acc struct {
		slice    *DemographicSlice
		patients map[int]struct{}
	}
	groups := make(map[key]*acc)
	var order []key
	for _, p := range a.data.Patients {
		k := key{p.Gender, p.InsuranceProvider}
		g, ok := groups[k]
		if !ok {
			g = &acc{
				slice:    &DemographicSlice{Gender: p.Gender, Insurance: p.InsuranceProvider},
				patients: make(map[int]struct{}),
			}
			groups[k] = g
			order = append(order, k)
		}
		g.patients[p.ID] = struct{}{}
	}
	for _, v := range a.data.Visits {
		p, ok := patientByID[v.PatientID]
		if !ok {
			continue
		}
		g := groups[key{p.Gender, p.InsuranceProvider}]
		g.slice.TotalVisits++
		g.slice.TotalRevenue += v.TreatmentCost
	}
	out := make([]*DemographicSlice, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.slice.PatientCount = len(g.patients)
		g.slice.AvgTreatmentCost = avg(g.slice.TotalRevenue, g.slice.TotalVisits)
		out = append(out, g.slice)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out, nil
}

// TreatmentAnalysis aggregates visits per treatment type, sorted by
// frequency descending.
func (a *LocalAnalytics) TreatmentAnalysis(ctx context.Context) ([]*TreatmentAnalysis, error) {
	treatmentByID := make(map[int]*Treatment, len(a.data.Treatments))
	for _, t := range a.data.Treatments {
		treatmentByID[t.ID] = t
	}
	type acc struct {
		ta            *TreatmentAnalysis
		baseCost      float64
		satisfaction  float64
		complications int
	}
	groups := make(map[string]*acc)
	var order []string
	for _, v := range a.data.Visits {
		t, ok := treatmentByID[v.TreatmentID]
		if !ok {
			continue
		}
		g, ok := groups[t.Type]
		if !ok {
			g = &acc{ta: &TreatmentAnalysis{TreatmentType: t.Type}}
			groups[t.Type] = g
			order = append(order, t.Type)
		}
		g.ta.Frequency++
		g.ta.TotalRevenue += v.TreatmentCost
		g.baseCost += t.Cost
		g.satisfaction += float64(v.Satisfaction)
		if v.Complications {
			g.complications++
		}
	}
	out := make([]*TreatmentAnalysis, 0, len(order))
	for _, kind := range order {
		g := groups[kind]
		g.ta.AvgBaseCost = avg(g.baseCost, g.ta.Frequency)
		g.ta.AvgActualCost = avg(g.ta.TotalRevenue, g.ta.Frequency)
		g.ta.AvgSatisfaction = avg(g.satisfaction, g.ta.Frequency)
		g.ta.ComplicationRate = pct(g.complications, g.ta.Frequency)
		out = append(out, g.ta)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	return out, nil
}

// MonthlyTrends aggregates visits per calendar month, ascending.
func (a *LocalAnalytics) MonthlyTrends(ctx context.Context) ([]*MonthlyTrend, error) {
	type acc struct {
		trend        *MonthlyTrend
		satisfaction float64
	}
	groups := make(map[int]*acc)
	for _, v := range a.data.Visits {
		k := v.VisitDate.Year()*100 + int(v.VisitDate.Month())
		g, ok := groups[k]
		if !ok {
			g = &acc{trend: &MonthlyTrend{Year: v.VisitDate.Year(), Month: int(v.VisitDate.Month())}}
			groups[k] = g
		}
		g.trend.VisitCount++
		g.trend.MonthlyRevenue += v.TreatmentCost
		g.satisfaction += float64(v.Satisfaction)
	}
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]*MonthlyTrend, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		g.trend.AvgSatisfaction = avg(g.satisfaction, g.trend.VisitCount)
		out = append(out, g.trend)
	}
	return out, nil
}

// AgeGroups buckets visits into age bands, sorted by visit count
// descending.
func (a *LocalAnalytics) AgeGroups(ctx context.Context) ([]*AgeGroupStats, error) {
	type acc struct {
		stats        *AgeGroupStats
		satisfaction float64
	}
	groups := make(map[string]*acc)
	var order []string
	for _, v := range a.data.Visits {
		band := AgeGroup(v.AgeAtVisit)
		g, ok := groups[band]
		if !ok {
			g = &acc{stats: &AgeGroupStats{AgeGroup: band}}
			groups[band] = g
			order = append(order, band)
		}
		g.stats.VisitCount++
		g.stats.TotalRevenue += v.TreatmentCost
		g.satisfaction += float64(v.Satisfaction)
	}
	out := make([]*AgeGroupStats, 0, len(order))
	for _, band := range order {
		g := groups[band]
		g.stats.AvgSatisfaction = avg(g.satisfaction, g.stats.VisitCount)
		out = append(out, g.stats)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitCount > out[j].VisitCount })
	return out, nil
}
