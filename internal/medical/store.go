package medical

import "context"

// Analytics serves the dashboard views. The local implementation
// computes them in memory; the BigQuery implementation pushes the
// aggregation into SQL.
type Analytics interface {
	Overview(ctx context.Context) (*FacilityOverview, error)
	DepartmentPerformance(ctx context.Context) ([]*DepartmentPerformance, error)
	DoctorPerformance(ctx context.Context, limit int) ([]*DoctorPerformance, error)
	Demographics(ctx context.Context) ([]*DemographicSlice, error)
	TreatmentAnalysis(ctx context.Context) ([]*TreatmentAnalysis, error)
	MonthlyTrends(ctx context.Context) ([]*MonthlyTrend, error)
	AgeGroups(ctx context.Context) ([]*AgeGroupStats, error)
}
