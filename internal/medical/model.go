// Package medical models the hospital star schema and the analytics
// views computed over it. Four dimension tables (patients, doctors,
// departments, treatments) hang off one visits fact table.
package medical

import "time"

// Dimension value sets used by the seeder and accepted by the schema.
var (
	Genders            = []string{"Male", "Female", "Other"}
	InsuranceProviders = []string{"HealthCare Plus", "MediCare", "BlueCross", "Aetna", "Cigna", "Uninsured"}
	BloodTypes         = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	DoctorSpecialties  = []string{
		"Cardiology", "Neurology", "Orthopedics", "Pediatrics", "Dermatology",
		"Psychiatry", "Oncology", "Radiology", "Emergency Medicine", "Internal Medicine",
	}
	TreatmentTypes = []string{
		"Consultation", "Surgery", "Diagnostic Test", "Therapy", "Vaccination",
		"Emergency Care", "Preventive Care", "Rehabilitation", "Medication", "Monitoring",
	}
	VisitTypes = []string{"Emergency", "Scheduled", "Follow-up", "Walk-in"}
	Severities = []string{"Low", "Medium", "High", "Critical"}
)

// Patient is one row of the patient dimension.
type Patient struct {
	ID                int       `json:"patient_id" bigquery:"patient_id"`
	Name              string    `json:"patient_name" bigquery:"patient_name"`
	DateOfBirth       time.Time `json:"date_of_birth" bigquery:"date_of_birth"`
	Gender            string    `json:"gender" bigquery:"gender"`
	Phone             string    `json:"phone" bigquery:"phone"`
	Email             string    `json:"email" bigquery:"email"`
	Address           string    `json:"address" bigquery:"address"`
	InsuranceProvider string    `json:"insurance_provider" bigquery:"insurance_provider"`
	BloodType         string    `json:"blood_type" bigquery:"blood_type"`
	Allergies         string    `json:"allergies" bigquery:"allergies"`
}

// Doctor is one row of the doctor dimension.
type Doctor struct {
	ID              int    `json:"doctor_id" bigquery:"doctor_id"`
	Name            string `json:"doctor_name" bigquery:"doctor_name"`
	Specialty       string `json:"specialty" bigquery:"specialty"`
	YearsExperience int    `json:"years_experience" bigquery:"years_experience"`
	LicenseNumber   string `json:"license_number" bigquery:"license_number"`
	Department      string `json:"department" bigquery:"department"`
	Shift           string `json:"shift" bigquery:"shift"`
}

// Department is one row of the department dimension.
type Department struct {
	ID         int    `json:"dept_id" bigquery:"dept_id"`
	Name       string `json:"dept_name" bigquery:"dept_name"`
	Location   string `json:"location" bigquery:"location"`
	HeadDoctor string `json:"head_doctor" bigquery:"head_doctor"`
	Capacity   int    `json:"capacity" bigquery:"capacity"`
}

// Treatment is one row of the treatment dimension.
type Treatment struct {
	ID                int     `json:"treatment_id" bigquery:"treatment_id"`
	Name              string  `json:"treatment_name" bigquery:"treatment_name"`
	Type              string  `json:"treatment_type" bigquery:"treatment_type"`
	DurationMinutes   int     `json:"duration_minutes" bigquery:"duration_minutes"`
	Cost              float64 `json:"cost" bigquery:"cost"`
	RequiresAdmission bool    `json:"requires_admission" bigquery:"requires_admission"`
	EquipmentNeeded   string  `json:"equipment_needed" bigquery:"equipment_needed"`
}

// Visit is one row of the visits fact table.
type Visit struct {
	ID                int       `json:"visit_id" bigquery:"visit_id"`
	PatientID         int       `json:"patient_id" bigquery:"patient_id"`
	DoctorID          int       `json:"doctor_id" bigquery:"doctor_id"`
	DeptID            int       `json:"dept_id" bigquery:"dept_id"`
	TreatmentID       int       `json:"treatment_id" bigquery:"treatment_id"`
	VisitDate         time.Time `json:"visit_date" bigquery:"visit_date"`
	VisitType         string    `json:"visit_type" bigquery:"visit_type"`
	Diagnosis         string    `json:"diagnosis" bigquery:"diagnosis"`
	Severity          string    `json:"severity" bigquery:"severity"`
	TreatmentCost     float64   `json:"treatment_cost" bigquery:"treatment_cost"`
	InsuranceCovered  float64   `json:"insurance_covered" bigquery:"insurance_covered"`
	Satisfaction      int       `json:"patient_satisfaction" bigquery:"patient_satisfaction"`
	LengthOfStayHours int       `json:"length_of_stay_hours" bigquery:"length_of_stay_hours"`
	Readmission30Days bool      `json:"readmission_30_days" bigquery:"readmission_30_days"`
	Complications     bool      `json:"complications" bigquery:"complications"`
	AgeAtVisit        int       `json:"age_at_visit" bigquery:"age_at_visit"`
}

// Dataset bundles the full star schema.
type Dataset struct {
	Patients    []*Patient    `json:"patients"`
	Doctors     []*Doctor     `json:"doctors"`
	Departments []*Department `json:"departments"`
	Treatments  []*Treatment  `json:"treatments"`
	Visits      []*Visit      `json:"visits"`
}

// FacilityOverview is the dashboard headline view.
type FacilityOverview struct {
	TotalPatients    int     `json:"total_patients"`
	TotalDoctors     int     `json:"total_doctors"`
	TotalDepartments int     `json:"total_departments"`
	TotalTreatments  int     `json:"total_treatments"`
	TotalVisits      int     `json:"total_visits"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgSatisfaction  float64 `json:"avg_satisfaction"`
	AvgLengthOfStay  float64 `json:"avg_length_of_stay"`
	ReadmissionRate  float64 `json:"readmission_rate"`
	ComplicationRate float64 `json:"complication_rate"`
}

// DepartmentPerformance aggregates visits per department. Utilization
// is visits per bed of capacity, as a percentage.
type DepartmentPerformance struct {
	Department      string  `json:"dept_name"`
	Location        string  `json:"location"`
	Capacity        int     `json:"capacity"`
	TotalVisits     int     `json:"total_visits"`
	TotalRevenue    float64 `json:"total_revenue"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	AvgLengthOfStay float64 `json:"avg_length_of_stay"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// DoctorPerformance aggregates visits per doctor.
type DoctorPerformance struct {
	Doctor          string  `json:"doctor_name"`
	Specialty       string  `json:"specialty"`
	YearsExperience int     `json:"years_experience"`
	TotalVisits     int     `json:"total_visits"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	TotalRevenue    float64 `json:"total_revenue"`
	ReadmissionRate float64 `json:"readmission_rate"`
}

// DemographicSlice aggregates visits per gender and insurance pair.
type DemographicSlice struct {
	Gender           string  `json:"gender"`
	Insurance        string  `json:"insurance_provider"`
	PatientCount     int     `json:"patient_count"`
	TotalVisits      int     `json:"total_visits"`
	AvgTreatmentCost float64 `json:"avg_treatment_cost"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// TreatmentAnalysis aggregates visits per treatment type.
type TreatmentAnalysis struct {
	TreatmentType    string  `json:"treatment_type"`
	Frequency        int     `json:"frequency"`
	AvgBaseCost      float64 `json:"avg_base_cost"`
	AvgActualCost    float64 `json:"avg_actual_cost"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgSatisfaction  float64 `json:"avg_satisfaction"`
	ComplicationRate float64 `json:"complication_rate"`
}

// MonthlyTrend is one calendar month of visit volume.
type MonthlyTrend struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	VisitCount      int     `json:"visit_count"`
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
}

// AgeGroupStats buckets visits into pediatric, adult and senior bands.
type AgeGroupStats struct {
	AgeGroup        string  `json:"age_group"`
	VisitCount      int     `json:"visit_count"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// AgeGroup maps an age at visit to its band.
func AgeGroup(age int) string {
	switch {
	case age < 18:
		return "Pediatric"
	case age <= 65:
		return "Adult"
	default:
		return "Senior"
	}
}
