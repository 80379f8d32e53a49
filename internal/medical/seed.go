package medical

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// DefaultSeed makes repeated runs produce the same dataset.
const DefaultSeed int64 = 42

// Seed dataset sizes.
const (
	seedPatients   = 1000
	seedDoctors    = 100
	seedTreatments = 200
	seedVisits     = 5000
)

// GenerateDataset produces a reproducible synthetic hospital dataset.
// The same seed always yields the same rows.
func GenerateDataset(seed int64) *Dataset {
	faker := gofakeit.New(uint64(seed))
	rng := rand.New(rand.NewSource(seed))
	pick := func(options []string) string { return options[rng.Intn(len(options))] }
	now := time.Now().UTC().Truncate(24 * time.Hour)

	patients := make([]*Patient, 0, seedPatients)
	for i := 1; i <= seedPatients; i++ {
		age := rng.Intn(91)
		dob := now.AddDate(-age, 0, -rng.Intn(365))
		patients = append(patients, &Patient{
			ID:                i,
			Name:              faker.Name(),
			DateOfBirth:       dob,
			Gender:            pick(Genders),
			Phone:             faker.Phone(),
			Email:             faker.Email(),
			Address:           faker.Address().Address,
			InsuranceProvider: pick(InsuranceProviders),
			BloodType:         pick(BloodTypes),
			Allergies:         pick([]string{"None", "Penicillin", "Peanuts", "Shellfish", "Latex", "Multiple"}),
		})
	}

	doctors := make([]*Doctor, 0, seedDoctors)
	for i := 1; i <= seedDoctors; i++ {
		doctors = append(doctors, &Doctor{
			ID:              i,
			Name:            "Dr. " + faker.Name(),
			Specialty:       pick(DoctorSpecialties),
			YearsExperience: 1 + rng.Intn(35),
			LicenseNumber:   fmt.Sprintf("MD%06d", 100000+rng.Intn(900000)),
			Department:      pick([]string{"Emergency", "ICU", "Surgery", "Outpatient", "Pediatrics", "Maternity"}),
			Shift:           pick([]string{"Day", "Night", "Rotating"}),
		})
	}

	departments := []*Department{
		{ID: 1, Name: "Emergency", Location: "Ground Floor", HeadDoctor: "Dr. Smith", Capacity: 50},
		{ID: 2, Name: "ICU", Location: "3rd Floor", HeadDoctor: "Dr. Johnson", Capacity: 30},
		{ID: 3, Name: "Surgery", Location: "2nd Floor", HeadDoctor: "Dr. Williams", Capacity: 20},
		{ID: 4, Name: "Outpatient", Location: "1st Floor", HeadDoctor: "Dr. Brown", Capacity: 100},
		{ID: 5, Name: "Pediatrics", Location: "4th Floor", HeadDoctor: "Dr. Davis", Capacity: 40},
		{ID: 6, Name: "Maternity", Location: "5th Floor", HeadDoctor: "Dr. Miller", Capacity: 25},
		{ID: 7, Name: "Radiology", Location: "Basement", HeadDoctor: "Dr. Wilson", Capacity: 15},
		{ID: 8, Name: "Laboratory", Location: "Basement", HeadDoctor: "Dr. Moore", Capacity: 10},
	}

	treatments := make([]*Treatment, 0, seedTreatments)
	for i := 1; i <= seedTreatments; i++ {
		kind := pick(TreatmentTypes)
		treatments = append(treatments, &Treatment{
			ID:                i,
			Name:              fmt.Sprintf("%s - %s", kind, faker.ProductName()),
			Type:              kind,
			DurationMinutes:   15 + rng.Intn(466),
			Cost:              round2(50 + rng.Float64()*4950),
			RequiresAdmission: rng.Intn(2) == 0,
			EquipmentNeeded:   pick([]string{"None", "X-Ray", "MRI", "CT Scan", "Ultrasound", "ECG", "Blood Test"}),
		})
	}

	visits := make([]*Visit, 0, seedVisits)
	for i := 1; i <= seedVisits; i++ {
		patient := patients[rng.Intn(len(patients))]
		doctor := doctors[rng.Intn(len(doctors))]
		dept := departments[rng.Intn(len(departments))]
		treatment := treatments[rng.Intn(len(treatments))]

		// Visit date inside the last two years.
		visitDate := now.AddDate(0, 0, -rng.Intn(730))
		age := visitDate.Year() - patient.DateOfBirth.Year()
		if visitDate.YearDay() < patient.DateOfBirth.YearDay() {
			age--
		}

		stay := 1 + rng.Intn(8)
		if treatment.RequiresAdmission {
			stay = 1 + rng.Intn(168)
		}
		visits = append(visits, &Visit{
			ID:                i,
			PatientID:         patient.ID,
			DoctorID:          doctor.ID,
			DeptID:            dept.ID,
			TreatmentID:       treatment.ID,
			VisitDate:         visitDate,
			VisitType:         pick(VisitTypes),
			Diagnosis:         faker.Sentence(4),
			Severity:          pick(Severities),
			TreatmentCost:     round2(treatment.Cost * (0.8 + rng.Float64()*0.7)),
			InsuranceCovered:  round2(rng.Float64() * treatment.Cost),
			Satisfaction:      1 + rng.Intn(10),
			LengthOfStayHours: stay,
			Readmission30Days: rng.Float64() < 0.05,
			Complications:     rng.Float64() < 0.025,
			AgeAtVisit:        age,
		})
	}

	return &Dataset{
		Patients:    patients,
		Doctors:     doctors,
		Departments: departments,
		Treatments:  treatments,
		Visits:      visits,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
