package care

import (
	"context"
	"sort"
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

type BedInput struct {
	HospitalID      string     `json:"hospitalId"`
	HospitalName    string     `json:"hospitalName"`
	BedNumber       string     `json:"bedNumber"`
	Ward            string     `json:"ward"`
	Status          string     `json:"status"`
	PatientID       string     `json:"patientId"`
	PatientName     string     `json:"patientName"`
	PatientType     string     `json:"patientType"`
	NutritionStatus string     `json:"nutritionStatus"`
	AdmissionDate   *time.Time `json:"admissionDate"`
}

// BedUpdate replaces the occupancy of a bed. Occupant fields left empty are
// cleared, matching a discharge.
type BedUpdate struct {
	Status          string     `json:"status"`
	HospitalName    string     `json:"hospitalName"`
	PatientID       string     `json:"patientId"`
	PatientName     string     `json:"patientName"`
	PatientType     string     `json:"patientType"`
	NutritionStatus string     `json:"nutritionStatus"`
	AdmissionDate   *time.Time `json:"admissionDate"`
}

type BedFilter struct {
	HospitalID string
	Status     string
	Page
}

func validBedStatus(s string) bool {
	switch s {
	case models.BedAvailable, models.BedOccupied, models.BedMaintenance:
		return true
	}
	return false
}

type BedService struct {
	store Store
	log   logger.Component
}

func NewBedService(s Store) *BedService {
	return &BedService{store: s, log: logger.Named("beds")}
}

// Create adds a bed; status defaults to available.
func (s *BedService) Create(ctx context.Context, in BedInput) (*models.Bed, error) {
	if in.Status == "" {
		in.Status = models.BedAvailable
	}
	if !validBedStatus(in.Status) {
		return nil, &apperr.FieldError{Field: "status", Message: "must be available, occupied or maintenance"}
	}
	b := &models.Bed{
		HospitalID:      in.HospitalID,
		HospitalName:    in.HospitalName,
		BedNumber:       in.BedNumber,
		Ward:            in.Ward,
		Status:          in.Status,
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		PatientType:     in.PatientType,
		NutritionStatus: in.NutritionStatus,
		AdmissionDate:   in.AdmissionDate,
	}
	row, err := models.ToRow(models.BedSchema, b)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Insert(ctx, models.CollectionBeds, row)
	if err != nil {
		return nil, err
	}
	s.log.Infof("bed created: %s", saved.ID())
	return decodeRow[models.Bed](saved)
}

// List returns beds ordered by bed number.
func (s *BedService) List(ctx context.Context, f BedFilter) (*List[models.Bed], error) {
	filter := store.Filter{}
	if f.HospitalID != "" {
		filter["hospital_id"] = f.HospitalID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	rows, err := s.store.QueryAll(ctx, models.CollectionBeds, filter)
	if err != nil {
		return nil, err
	}
	all, err := decodeRows[models.Bed](rows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].BedNumber < all[j].BedNumber })
	lo, hi := f.Page.apply(len(all))
	return &List[models.Bed]{Data: all[lo:hi], Total: len(all), Count: hi - lo}, nil
}

func (s *BedService) Update(ctx context.Context, id string, in BedUpdate) (*models.Bed, error) {
	if !validBedStatus(in.Status) {
		return nil, &apperr.FieldError{Field: "status", Message: "must be available, occupied or maintenance"}
	}
	patch := store.Row{
		"status":           in.Status,
		"hospital_name":    in.HospitalName,
		"patient_id":       in.PatientID,
		"patient_name":     in.PatientName,
		"patient_type":     in.PatientType,
		"nutrition_status": in.NutritionStatus,
		"admission_date":   nil,
	}
	if in.AdmissionDate != nil {
		patch["admission_date"] = *in.AdmissionDate
	}
	row, err := s.store.Update(ctx, models.CollectionBeds, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Infof("bed updated: %s status=%s", id, in.Status)
	return decodeRow[models.Bed](row)
}
