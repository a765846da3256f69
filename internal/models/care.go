package models

import (
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// Patient is a registered beneficiary (child, pregnant or lactating woman).
type Patient struct {
	ID                    string     `json:"id"`
	RegistrationNumber    string     `json:"registration_number"`
	Name                  string     `json:"name"`
	Age                   *int64     `json:"age"`
	Type                  string     `json:"type"`
	PregnancyWeek         *int64     `json:"pregnancy_week"`
	ContactNumber         string     `json:"contact_number"`
	EmergencyContact      string     `json:"emergency_contact"`
	Address               string     `json:"address"`
	Weight                *float64   `json:"weight"`
	Height                *float64   `json:"height"`
	BloodPressure         string     `json:"blood_pressure"`
	Temperature           *float64   `json:"temperature"`
	Hemoglobin            *float64   `json:"hemoglobin"`
	NutritionStatus       string     `json:"nutrition_status"`
	MedicalHistory        []string   `json:"medical_history"`
	Symptoms              []string   `json:"symptoms"`
	Remarks               string     `json:"remarks"`
	RiskScore             *int64     `json:"risk_score"`
	NutritionalDeficiency []string   `json:"nutritional_deficiency"`
	RegisteredBy          string     `json:"registered_by"`
	RegistrationDate      *time.Time `json:"registration_date"`
	AadhaarNumber         string     `json:"aadhaar_number"`
	LastVisitDate         *time.Time `json:"last_visit_date"`
	NextVisitDate         *time.Time `json:"next_visit_date"`
	BedID                 string     `json:"bed_id"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             *time.Time `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at"`
}

var PatientSchema = &store.Schema{
	Collection: CollectionPatients,
	Fields: []store.Field{
		{Name: "id", Kind: store.KindString},
		{Name: "registration_number", Kind: store.KindString},
		{Name: "name", Kind: store.KindString},
		{Name: "age", Kind: store.KindInt},
		{Name: "type", Kind: store.KindString},
		{Name: "pregnancy_week", Kind: store.KindInt},
		{Name: "contact_number", Kind: store.KindString},
		{Name: "emergency_contact", Kind: store.KindString},
		{Name: "address", Kind: store.KindString},
		{Name: "weight", Kind: store.KindFloat},
		{Name: "height", Kind: store.KindFloat},
		{Name: "blood_pressure", Kind: store.KindString},
		{Name: "temperature", Kind: store.KindFloat},
		{Name: "hemoglobin", Kind: store.KindFloat},
		{Name: "nutrition_status", Kind: store.KindString},
		{Name: "medical_history", Kind: store.KindStringList},
		{Name: "symptoms", Kind: store.KindStringList},
		{Name: "remarks", Kind: store.KindString},
		{Name: "risk_score", Kind: store.KindInt},
		{Name: "nutritional_deficiency", Kind: store.KindStringList},
		{Name: "registered_by", Kind: store.KindString},
		{Name: "registration_date", Kind: store.KindTime},
		{Name: "aadhaar_number", Kind: store.KindString},
		{Name: "last_visit_date", Kind: store.KindTime},
		{Name: "next_visit_date", Kind: store.KindTime},
		{Name: "bed_id", Kind: store.KindString},
		{Name: "is_active", Kind: store.KindBool},
		{Name: "created_at", Kind: store.KindTime},
		{Name: "updated_at", Kind: store.KindTime},
	},
	Required: []string{"name", "type"},
	Unique:   []string{"registration_number"},
}

// Bed statuses.
const (
	BedAvailable   = "available"
	BedOccupied    = "occupied"
	BedMaintenance = "maintenance"
)

// Bed is one hospital bed and, when occupied, who is in it.
type Bed struct {
	ID              string     `json:"id"`
	HospitalID      string     `json:"hospital_id"`
	HospitalName    string     `json:"hospital_name"`
	BedNumber       string     `json:"bed_number"`
	Ward            string     `json:"ward"`
	Status          string     `json:"status"`
	PatientID       string     `json:"patient_id"`
	PatientName     string     `json:"patient_name"`
	PatientType     string     `json:"patient_type"`
	NutritionStatus string     `json:"nutrition_status"`
	AdmissionDate   *time.Time `json:"admission_date"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

var BedSchema = &store.Schema{
	Collection: CollectionBeds,
	Fields: []store.Field{
		{Name: "id", Kind: store.KindString},
		{Name: "hospital_id", Kind: store.KindString},
		{Name: "hospital_name", Kind: store.KindString},
		{Name: "bed_number", Kind: store.KindString},
		{Name: "ward", Kind: store.KindString},
		{Name: "status", Kind: store.KindString},
		{Name: "patient_id", Kind: store.KindString},
		{Name: "patient_name", Kind: store.KindString},
		{Name: "patient_type", Kind: store.KindString},
		{Name: "nutrition_status", Kind: store.KindString},
		{Name: "admission_date", Kind: store.KindTime},
		{Name: "created_at", Kind: store.KindTime},
		{Name: "updated_at", Kind: store.KindTime},
	},
	Required: []string{"hospital_id", "bed_number"},
}

// Notification is addressed to a role and optionally to a single user.
type Notification struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	UserRole          string     `json:"user_role"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Priority          string     `json:"priority"`
	ActionRequired    bool       `json:"action_required"`
	IsRead            bool       `json:"is_read"`
	ActionURL         string     `json:"action_url"`
	RelatedEntityID   string     `json:"related_entity_id"`
	RelatedEntityType string     `json:"related_entity_type"`
	CreatedAt         *time.Time `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

var NotificationSchema = &store.Schema{
	Collection: CollectionNotifications,
	Fields: []store.Field{
		{Name: "id", Kind: store.KindString},
		{Name: "user_id", Kind: store.KindString},
		{Name: "user_role", Kind: store.KindString},
		{Name: "type", Kind: store.KindString},
		{Name: "title", Kind: store.KindString},
		{Name: "message", Kind: store.KindString},
		{Name: "priority", Kind: store.KindString},
		{Name: "action_required", Kind: store.KindBool},
		{Name: "is_read", Kind: store.KindBool},
		{Name: "action_url", Kind: store.KindString},
		{Name: "related_entity_id", Kind: store.KindString},
		{Name: "related_entity_type", Kind: store.KindString},
		{Name: "created_at", Kind: store.KindTime},
		{Name: "updated_at", Kind: store.KindTime},
	},
	Required: []string{"user_role", "title", "message"},
}
