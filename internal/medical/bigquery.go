package medical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"medpulse/internal/config"
)

// BigQueryAnalytics pushes the dashboard aggregations into SQL.
// Queries take only fixed literals and named parameters.
type BigQueryAnalytics struct {
	client       *bigquery.Client
	dataset      string
	queryTimeout time.Duration
}

// NewBigQueryAnalytics opens a client against the configured project.
func NewBigQueryAnalytics(ctx context.Context, cfg config.BigQueryConfig) (*BigQueryAnalytics, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQueryAnalytics{
		client:       client,
		dataset:      cfg.Dataset,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// Close releases the underlying client.
func (a *BigQueryAnalytics) Close() error { return a.client.Close() }

// Upload streams a generated dataset into the five dimension and fact
// tables. Tables must already exist with matching schemas.
func (a *BigQueryAnalytics) Upload(ctx context.Context, data *Dataset) error {
	ds := a.client.Dataset(a.dataset)
	batches := []struct {
		table string
		rows  interface{}
	}{
		{"patients", data.Patients},
		{"doctors", data.Doctors},
		{"departments", data.Departments},
		{"treatments", data.Treatments},
		{"visits", data.Visits},
	}
	for _, b := range batches {
		if err := ds.Table(b.table).Inserter().Put(ctx, b.rows); err != nil {
			return fmt.Errorf("insert %s: %w", b.table, err)
		}
	}
	return nil
}

func (a *BigQueryAnalytics) run(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	q := a.client.Query(sql)
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery query: %w", err)
	}
	return it, nil
}

func queryAll[T any](it *bigquery.RowIterator) ([]*T, error) {
	var out []*T
	for {
		row := new(T)
		err := it.Next(row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery scan: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}

// Overview computes the facility headline figures.
func (a *BigQueryAnalytics) Overview(ctx context.Context) (*FacilityOverview, error) {
	sql := fmt.Sprintf(`SELECT
		(SELECT COUNT(*) FROM %[1]s.patients) AS total_patients,
		(SELECT COUNT(*) FROM %[1]s.doctors) AS total_doctors,
		(SELECT COUNT(*) FROM %[1]s.departments) AS total_departments,
		(SELECT COUNT(*) FROM %[1]s.treatments) AS total_treatments,
		COUNT(*) AS total_visits,
		ROUND(SUM(treatment_cost), 2) AS total_revenue,
		ROUND(AVG(patient_satisfaction), 1) AS avg_satisfaction,
		ROUND(AVG(length_of_stay_hours), 1) AS avg_length_of_stay,
		ROUND(AVG(IF(readmission_30_days, 1, 0)) * 100, 1) AS readmission_rate,
		ROUND(AVG(IF(complications, 1, 0)) * 100, 1) AS complication_rate
	FROM %[1]s.visits`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	var row struct {
		TotalPatients    int     `bigquery:"total_patients"`
		TotalDoctors     int     `bigquery:"total_doctors"`
		TotalDepartments int     `bigquery:"total_departments"`
		TotalTreatments  int     `bigquery:"total_treatments"`
		TotalVisits      int     `bigquery:"total_visits"`
		TotalRevenue     float64 `bigquery:"total_revenue"`
		AvgSatisfaction  float64 `bigquery:"avg_satisfaction"`
		AvgLengthOfStay  float64 `bigquery:"avg_length_of_stay"`
		ReadmissionRate  float64 `bigquery:"readmission_rate"`
		ComplicationRate float64 `bigquery:"complication_rate"`
	}
	if err := it.Next(&row); err != nil {
		return nil, fmt.Errorf("bigquery scan: %w", err)
	}
	return &FacilityOverview{
		TotalPatients:    row.TotalPatients,
		TotalDoctors:     row.TotalDoctors,
		TotalDepartments: row.TotalDepartments,
		TotalTreatments:  row.TotalTreatments,
		TotalVisits:      row.TotalVisits,
		TotalRevenue:     row.TotalRevenue,
		AvgSatisfaction:  row.AvgSatisfaction,
		AvgLengthOfStay:  row.AvgLengthOfStay,
		ReadmissionRate:  row.ReadmissionRate,
		ComplicationRate: row.ComplicationRate,
	}, nil
}

// DepartmentPerformance aggregates visits per department.
func (a *BigQueryAnalytics) DepartmentPerformance(ctx context.Context) ([]*DepartmentPerformance, error) {
	sql := fmt.Sprintf(`SELECT
		d.dept_name, d.location, d.capacity,
		COUNT(v.visit_id) AS total_visits,
		ROUND(IFNULL(SUM(v.treatment_cost), 0), 2) AS total_revenue,
		ROUND(IFNULL(AVG(v.patient_satisfaction), 0), 1) AS avg_satisfaction,
		ROUND(IFNULL(AVG(v.length_of_stay_hours), 0), 1) AS avg_length_of_stay,
		ROUND(COUNT(v.visit_id) * 100.0 / d.capacity, 1) AS utilization_rate
	FROM %[1]s.departments d
	LEFT JOIN %[1]s.visits v ON d.dept_id = v.dept_id
	GROUP BY d.dept_name, d.location, d.capacity
	ORDER BY total_revenue DESC`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	type row struct {
		Department      string  `bigquery:"dept_name"`
		Location        string  `bigquery:"location"`
		Capacity        int     `bigquery:"capacity"`
		TotalVisits     int     `bigquery:"total_visits"`
		TotalRevenue    float64 `bigquery:"total_revenue"`
		AvgSatisfaction float64 `bigquery:"avg_satisfaction"`
		AvgLengthOfStay float64 `bigquery:"avg_length_of_stay"`
		UtilizationRate float64 `bigquery:"utilization_rate"`
	}
	rows, err := queryAll[row](it)
	if err != nil {
		return nil, err
	}
	out := make([]*DepartmentPerformance, 0, len(rows))
	for _, r := range rows {
		out = append(out, &DepartmentPerformance{
			Department:      r.Department,
			Location:        r.Location,
			Capacity:        r.Capacity,
			TotalVisits:     r.TotalVisits,
			TotalRevenue:    r.TotalRevenue,
			AvgSatisfaction: r.AvgSatisfaction,
			AvgLengthOfStay: r.AvgLengthOfStay,
			UtilizationRate: r.UtilizationRate,
		})
	}
	return out, nil
}

// DoctorPerformance aggregates visits per doctor, capped at limit.
func (a *BigQueryAnalytics) DoctorPerformance(ctx context.Context, limit int) ([]*DoctorPerformance, error) {
	if limit <= 0 {
		limit = 20
	}
	sql := fmt.Sprintf(`SELECT
		doc.doctor_name, doc.specialty, doc.years_experience,
		COUNT(v.visit_id) AS total_visits,
		ROUND(AVG(v.patient_satisfaction), 1) AS avg_satisfaction,
		ROUND(SUM(v.treatment_cost), 2) AS total_revenue,
		ROUND(AVG(IF(v.readmission_30_days, 1, 0)) * 100, 1) AS readmission_rate
	FROM %[1]s.doctors doc
	LEFT JOIN %[1]s.visits v ON doc.doctor_id = v.doctor_id
	GROUP BY doc.doctor_name, doc.specialty, doc.years_experience
	HAVING total_visits > 0
	ORDER BY total_visits DESC
	LIMIT @limit`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, []bigquery.QueryParameter{{Name: "limit", Value: int64(limit)}})
	if err != nil {
		return nil, err
	}
	type row struct {
		Doctor          string  `bigquery:"doctor_name"`
		Specialty       string  `bigquery:"specialty"`
		YearsExperience int     `bigquery:"years_experience"`
		TotalVisits     int     `bigquery:"total_visits"`
		AvgSatisfaction float64 `bigquery:"avg_satisfaction"`
		TotalRevenue    float64 `bigquery:"total_revenue"`
		ReadmissionRate float64 `bigquery:"readmission_rate"`
	}
	rows, err := queryAll[row](it)
	if err != nil {
		return nil, err
	}
	out := make([]*DoctorPerformance, 0, len(rows))
	for _, r := range rows {
		out = append(out, &DoctorPerformance{
			Doctor:          r.Doctor,
			Specialty:       r.Specialty,
			YearsExperience: r.YearsExperience,
			TotalVisits:     r.TotalVisits,
			AvgSatisfaction: r.AvgSatisfaction,
			TotalRevenue:    r.TotalRevenue,
			ReadmissionRate: r.ReadmissionRate,
		})
	}
	return out, nil
}

// Demographics aggregates visits per gender and insurance provider.
func (a *BigQueryAnalytics) Demographics(ctx context.Context) ([]*DemographicSlice, error) {
	sql := fmt.Sprintf(`SELECT
		p.gender, p.insurance_provider,
		COUNT(DISTINCT p.patient_id) AS patient_count,
		COUNT(v.visit_id) AS total_visits,
		ROUND(IFNULL(AVG(v.treatment_cost), 0), 2) AS avg_treatment_cost,
		ROUND(IFNULL(SUM(v.treatment_cost), 0), 2) AS total_revenue
	FROM %[1]s.patients p
	LEFT JOIN %[1]s.visits v ON p.patient_id = v.patient_id
	GROUP BY p.gender, p.insurance_provider
	ORDER BY total_revenue DESC`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	type row struct {
		Gender           string  `bigquery:"gender"`
		Insurance        string  `bigquery:"insurance_provider"`
		PatientCount     int     `bigquery:"patient_count"`
		TotalVisits      int     `bigquery:"total_visits"`
		AvgTreatmentCost float64 `bigquery:"avg_treatment_cost"`
		TotalRevenue     float64 `bigquery:"total_revenue"`
	}
	rows, err := queryAll[row](it)
	if err != nil {
		return nil, err
	}
	out := make([]*DemographicSlice, 0, len(rows))
	for _, r := range rows {
		out = append(out, &DemographicSlice{
			Gender:           r.Gender,
			Insurance:        r.Insurance,
			PatientCount:     r.PatientCount,
			TotalVisits:      r.TotalVisits,
			AvgTreatmentCost: r.AvgTreatmentCost,
			TotalRevenue:     r.TotalRevenue,
		})
	}
	return out, nil
}

// TreatmentAnalysis aggregates visits per treatment type.
func (a *BigQueryAnalytics) TreatmentAnalysis(ctx context.Context) ([]*TreatmentAnalysis, error) {
	sql := fmt.Sprintf(`SELECT
		t.treatment_type,
		COUNT(v.visit_id) AS frequency,
		ROUND(AVG(t.cost), 2) AS avg_base_cost,
		ROUND(AVG(v.treatment_cost), 2) AS avg_actual_cost,
		ROUND(SUM(v.treatment_cost), 2) AS total_revenue,
		ROUND(AVG(v.patient_satisfaction), 1) AS avg_satisfaction,
		ROUND(AVG(IF(v.complications, 1, 0)) * 100, 1) AS complication_rate
	FROM %[1]s.treatments t
	JOIN %[1]s.visits v ON t.treatment_id = v.treatment_id
	GROUP BY t.treatment_type
	ORDER BY frequency DESC`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	type row struct {
		TreatmentType    string  `bigquery:"treatment_type"`
		Frequency        int     `bigquery:"frequency"`
		AvgBaseCost      float64 `bigquery:"avg_base_cost"`
		AvgActualCost    float64 `bigquery:"avg_actual_cost"`
		TotalRevenue     float64 `bigquery:"total_revenue"`
		AvgSatisfaction  float64 `bigquery:"avg_satisfaction"`
		ComplicationRate float64 `bigquery:"complication_rate"`
	}
	rows, err := queryAll[row](it)
	if err != nil {
		return nil, err
	}
	out := make([]*TreatmentAnalysis, 0, len(rows))
	for _, r := range rows {
		out = append(out, &TreatmentAnalysis{
			TreatmentType:    r.TreatmentType,
			Frequency:        r.Frequency,
			AvgBaseCost:      r.AvgBaseCost,
			AvgActualCost:    r.AvgActualCost,
			TotalRevenue:     r.TotalRevenue,
			AvgSatisfaction:  r.AvgSatisfaction,
			ComplicationRate: r.ComplicationRate,
		})
	}
	return out, nil
}

// MonthlyTrends aggregates visits per calendar month.
func (a *BigQueryAnalytics) MonthlyTrends(ctx context.Context) ([]*MonthlyTrend, error) {
	sql := fmt.Sprintf(`SELECT
		EXTRACT(YEAR FROM visit_date) AS year,
		EXTRACT(MONTH FROM visit_date) AS month,
		COUNT(*) AS visit_count,
		ROUND(SUM(treatment_cost), 2) AS monthly_revenue,
		ROUND(AVG(patient_satisfaction), 1) AS avg_satisfaction
	FROM %s.visits
	GROUP BY year, month
	ORDER BY year, month`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	type row struct {
		Year            int     `bigquery:"year"`
		Month           int     `bigquery:"month"`
		VisitCount      int     `bigquery:"visit_count"`
		MonthlyRevenue  float64 `bigquery:"monthly_revenue"`
		AvgSatisfaction float64 `bigquery:"avg_satisfaction"`
	}
	rows, err := queryAll[row](it)
	if err != nil {
		return nil, err
	}
	out := make([]*MonthlyTrend, 0, len(rows))
	for _, r := range rows {
		out = append(out, &MonthlyTrend{
			Year:            r.Year,
			Month:           r.Month,
			VisitCount:      r.VisitCount,
			MonthlyRevenue:  r.MonthlyRevenue,
			AvgSatisfaction: r.AvgSatisfaction,
		})
	}
	return out, nil
}

// AgeGroups buckets visits into age bands. The band boundaries are
// fixed literals, not user input.
func (a *BigQueryAnalytics) AgeGroups(ctx context.Context) ([]*AgeGroupStats, error) {
	sql := fmt.Sprintf(`SELECT
		CASE
			WHEN age_at_visit < 18 THEN 'Pediatric'
			WHEN age_at_visit BETWEEN 18 AND 65 THEN 'Adult'
			ELSE 'Senior'
		END AS age_group,
		COUNT(*) AS visit_count,
		ROUND(AVG(patient_satisfaction), 1) AS avg_satisfaction,
		ROUND(SUM(treatment_cost), 2) AS total_revenue
	FROM %s.visits
	GROUP BY age_group
	ORDER BY visit_count DESC`, "`"+a.dataset+"`")
	it, err := a.run(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	type row struct {
		AgeGroup        string  `bigquery:"age_group"`
		VisitCount      int     `bigquery:"visit_count"`
		AvgSatisfaction float64 `bigquery:"avg_satisfaction"`
		TotalRevenue    float64 `bigquery:"total_revenue"`
	}
	rows, err := queryAll[row](it)
	if err != nil {
		return nil, err
	}
	out := make([]*AgeGroupStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, &AgeGroupStats{
			AgeGroup:        r.AgeGroup,
			VisitCount:      r.VisitCount,
			AvgSatisfaction: r.AvgSatisfaction,
			TotalRevenue:    r.TotalRevenue,
		})
	}
	return out, nil
}
