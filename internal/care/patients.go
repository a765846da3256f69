package care

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

// PatientInput is the registration payload.
type PatientInput struct {
	Name                  string     `json:"name"`
	Age                   *int64     `json:"age"`
	Type                  string     `json:"type"`
	PregnancyWeek         *int64     `json:"pregnancyWeek"`
	ContactNumber         string     `json:"contactNumber"`
	EmergencyContact      string     `json:"emergencyContact"`
	Address               string     `json:"address"`
	Weight                *float64   `json:"weight"`
	Height                *float64   `json:"height"`
	BloodPressure         string     `json:"bloodPressure"`
	Temperature           *float64   `json:"temperature"`
	Hemoglobin            *float64   `json:"hemoglobin"`
	NutritionStatus       string     `json:"nutritionStatus"`
	MedicalHistory        []string   `json:"medicalHistory"`
	Symptoms              []string   `json:"symptoms"`
	Remarks               string     `json:"remarks"`
	RiskScore             *int64     `json:"riskScore"`
	NutritionalDeficiency []string   `json:"nutritionalDeficiency"`
	RegisteredBy          string     `json:"registeredBy"`
	AadhaarNumber         string     `json:"aadhaarNumber"`
	LastVisitDate         *time.Time `json:"lastVisitDate"`
	NextVisitDate         *time.Time `json:"nextVisitDate"`
}

// PatientUpdate carries the mutable patient fields; nil means unchanged.
type PatientUpdate struct {
	Name                  *string    `json:"name,omitempty"`
	Age                   *int64     `json:"age,omitempty"`
	Type                  *string    `json:"type,omitempty"`
	PregnancyWeek         *int64     `json:"pregnancyWeek,omitempty"`
	ContactNumber         *string    `json:"contactNumber,omitempty"`
	EmergencyContact      *string    `json:"emergencyContact,omitempty"`
	Address               *string    `json:"address,omitempty"`
	Weight                *float64   `json:"weight,omitempty"`
	Height                *float64   `json:"height,omitempty"`
	BloodPressure         *string    `json:"bloodPressure,omitempty"`
	Temperature           *float64   `json:"temperature,omitempty"`
	Hemoglobin            *float64   `json:"hemoglobin,omitempty"`
	NutritionStatus       *string    `json:"nutritionStatus,omitempty"`
	MedicalHistory        []string   `json:"medicalHistory,omitempty"`
	Symptoms              []string   `json:"symptoms,omitempty"`
	Remarks               *string    `json:"remarks,omitempty"`
	RiskScore             *int64     `json:"riskScore,omitempty"`
	NutritionalDeficiency []string   `json:"nutritionalDeficiency,omitempty"`
	LastVisitDate         *time.Time `json:"lastVisitDate,omitempty"`
	NextVisitDate         *time.Time `json:"nextVisitDate,omitempty"`
	BedID                 *string    `json:"bedId,omitempty"`
}

// PatientFilter narrows a patient listing. Empty fields match everything.
type PatientFilter struct {
	RegisteredBy string
	Type         string
	Page
}

type PatientService struct {
	store Store
	now   func() time.Time
	log   logger.Component
}

func NewPatientService(s Store) *PatientService {
	return &PatientService{store: s, now: time.Now, log: logger.Named("patients")}
}

// registrationAttempts bounds the retries when two registrations land in the
// same millisecond.
const registrationAttempts = 3

// Register stores a new active patient with a REG-<unix ms> registration
// number.
func (s *PatientService) Register(ctx context.Context, in PatientInput) (*models.Patient, error) {
	now := s.now().UTC()
	p := &models.Patient{
		Name:                  in.Name,
		Age:                   in.Age,
		Type:                  in.Type,
		PregnancyWeek:         in.PregnancyWeek,
		ContactNumber:         in.ContactNumber,
		EmergencyContact:      in.EmergencyContact,
		Address:               in.Address,
		Weight:                in.Weight,
		Height:                in.Height,
		BloodPressure:         in.BloodPressure,
		Temperature:           in.Temperature,
		Hemoglobin:            in.Hemoglobin,
		NutritionStatus:       in.NutritionStatus,
		MedicalHistory:        in.MedicalHistory,
		Symptoms:              in.Symptoms,
		Remarks:               in.Remarks,
		RiskScore:             in.RiskScore,
		NutritionalDeficiency: in.NutritionalDeficiency,
		RegisteredBy:          in.RegisteredBy,
		RegistrationDate:      &now,
		AadhaarNumber:         in.AadhaarNumber,
		LastVisitDate:         in.LastVisitDate,
		NextVisitDate:         in.NextVisitDate,
		IsActive:              true,
	}
	if p.RiskScore == nil {
		var zero int64
		p.RiskScore = &zero
	}

	var lastErr error
	for i := 0; i < registrationAttempts; i++ {
		p.RegistrationNumber = fmt.Sprintf("REG-%d", now.UnixMilli()+int64(i))
		row, err := models.ToRow(models.PatientSchema, p)
		if err != nil {
			return nil, err
		}
		saved, err := s.store.Insert(ctx, models.CollectionPatients, row)
		if err == nil {
			s.log.Infof("patient registered: %s", saved.ID())
			return decodeRow[models.Patient](saved)
		}
		var ce *apperr.ConflictError
		if !errors.As(err, &ce) || ce.Field != "registration_number" {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *PatientService) Get(ctx context.Context, id string) (*models.Patient, error) {
	row, err := s.store.Query(ctx, models.CollectionPatients, store.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	return decodeRow[models.Patient](row)
}

// List returns active patients, most recently registered first.
func (s *PatientService) List(ctx context.Context, f PatientFilter) (*List[models.Patient], error) {
	filter := store.Filter{"is_active": true}
	if f.RegisteredBy != "" {
		filter["registered_by"] = f.RegisteredBy
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	rows, err := s.store.QueryAll(ctx, models.CollectionPatients, filter)
	if err != nil {
		return nil, err
	}
	all, err := decodeRows[models.Patient](rows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return newer(all[i].RegistrationDate, all[j].RegistrationDate)
	})
	lo, hi := f.Page.apply(len(all))
	return &List[models.Patient]{Data: all[lo:hi], Total: len(all), Count: hi - lo}, nil
}

func (s *PatientService) Update(ctx context.Context, id string, in PatientUpdate) (*models.Patient, error) {
	patch, err := patchFrom(in)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, &apperr.FieldError{Field: "body", Message: "no updatable fields"}
	}
	row, err := s.store.Update(ctx, models.CollectionPatients, id, patch)
	if err != nil {
		return nil, err
	}
	return decodeRow[models.Patient](row)
}

// Delete soft-deletes the patient.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, models.CollectionPatients, id); err != nil {
		return err
	}
	s.log.Infof("patient deactivated: %s", id)
	return nil
}

// newer orders timestamps descending with unset values last.
func newer(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	return a.After(*b)
}
