package repo

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Account roles stored in users.role.
const (
	RolePatient  = "patient"
	RoleDoctor   = "doctor"
	RoleHospital = "hospital"
	RoleAdmin    = "admin"
)

const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// Onboarding steps for doctors and hospitals.
const (
	StepSectionA  = "section_a"
	StepSectionB  = "section_b"
	StepSectionC  = "section_c"
	StepCompleted = "completed"
)

const (
	VerificationIncomplete = "incomplete"
	VerificationPending    = "pending"
	VerificationApproved   = "approved"
	VerificationRejected   = "rejected"
)

const (
	AppointmentBooked      = "booked"
	AppointmentCancelled   = "cancelled"
	AppointmentCompleted   = "completed"
	AppointmentRescheduled = "rescheduled"
)

const (
	EstablishmentClinic   = "clinic"
	EstablishmentHospital = "hospital"
)

// Master data kinds.
const (
	KindSpecialization   = "specialization"
	KindQualification    = "qualification"
	KindService          = "service"
	KindLanguage         = "language"
	KindState            = "state"
	KindCity             = "city"
	KindFeedbackQuestion = "feedback_question"
)

// MasterKinds lists every valid master_items.kind.
var MasterKinds = []string{
	KindSpecialization, KindQualification, KindService, KindLanguage,
	KindState, KindCity, KindFeedbackQuestion,
}

// JSONMap maps a jsonb column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("JSONMap: unsupported source type")
	}
	return json.Unmarshal(b, m)
}

type User struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	Phone               string     `db:"phone" json:"phone"`
	Email               *string    `db:"email" json:"email,omitempty"`
	Role                string     `db:"role" json:"role"`
	Status              string     `db:"status" json:"status"`
	PhoneVerified       bool       `db:"phone_verified" json:"phone_verified"`
	PasswordHash        *string    `db:"password_hash" json:"-"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at" json:"-"`
}

type Session struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	DeviceID         string     `db:"device_id" json:"device_id"`
	DeviceType       string     `db:"device_type" json:"device_type"`
	DeviceName       string     `db:"device_name" json:"device_name"`
	RefreshTokenHash string     `db:"refresh_token_hash" json:"-"`
	IP               string     `db:"ip" json:"ip"`
	UserAgent        string     `db:"user_agent" json:"user_agent"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	LastSeenAt       time.Time  `db:"last_seen_at" json:"last_seen_at"`
	ExpiresAt        time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt        *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

type DoctorProfile struct {
	UserID              uuid.UUID      `db:"user_id" json:"user_id"`
	Step                string         `db:"step" json:"step"`
	VerificationStatus  string         `db:"verification_status" json:"verification_status"`
	VerificationNote    string         `db:"verification_note" json:"verification_note,omitempty"`
	FullName            string         `db:"full_name" json:"full_name"`
	Gender              string         `db:"gender" json:"gender"`
	DateOfBirth         *time.Time     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Email               string         `db:"email" json:"email"`
	CityID              *uuid.UUID     `db:"city_id" json:"city_id,omitempty"`
	SpecializationIDs   pq.StringArray `db:"specialization_ids" json:"specialization_ids"`
	QualificationIDs    pq.StringArray `db:"qualification_ids" json:"qualification_ids"`
	ExperienceYears     int            `db:"experience_years" json:"experience_years"`
	RegistrationNumber  string         `db:"registration_number" json:"registration_number"`
	RegistrationCouncil string         `db:"registration_council" json:"registration_council"`
	RegistrationYear    int            `db:"registration_year" json:"registration_year"`
	ConsultationFee     int64          `db:"consultation_fee" json:"consultation_fee"`
	Bio                 string         `db:"bio" json:"bio"`
	LanguageIDs         pq.StringArray `db:"language_ids" json:"language_ids"`
	ServiceIDs          pq.StringArray `db:"service_ids" json:"service_ids"`
	AvgRating           float64        `db:"avg_rating" json:"avg_rating"`
	RatingCount         int            `db:"rating_count" json:"rating_count"`
	CompletedAt         *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	VerifiedAt          *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

type HospitalProfile struct {
	UserID             uuid.UUID      `db:"user_id" json:"user_id"`
	Step               string         `db:"step" json:"step"`
	VerificationStatus string         `db:"verification_status" json:"verification_status"`
	VerificationNote   string         `db:"verification_note" json:"verification_note,omitempty"`
	Name               string         `db:"name" json:"name"`
	HospitalType       string         `db:"hospital_type" json:"hospital_type"`
	RegistrationNumber string         `db:"registration_number" json:"registration_number"`
	Address            string         `db:"address" json:"address"`
	CityID             *uuid.UUID     `db:"city_id" json:"city_id,omitempty"`
	Pincode            string         `db:"pincode" json:"pincode"`
	ContactEmail       string         `db:"contact_email" json:"contact_email"`
	ContactPhone       string         `db:"contact_phone" json:"contact_phone"`
	BedCount           int            `db:"bed_count" json:"bed_count"`
	SpecializationIDs  pq.StringArray `db:"specialization_ids" json:"specialization_ids"`
	EmergencyAvailable bool           `db:"emergency_available" json:"emergency_available"`
	Website            string         `db:"website" json:"website"`
	AvgRating          float64        `db:"avg_rating" json:"avg_rating"`
	RatingCount        int            `db:"rating_count" json:"rating_count"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	VerifiedAt         *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

type PatientProfile struct {
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	FullName         string     `db:"full_name" json:"full_name"`
	Gender           string     `db:"gender" json:"gender"`
	DateOfBirth      *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	BloodGroup       string     `db:"blood_group" json:"blood_group"`
	CityID           *uuid.UUID `db:"city_id" json:"city_id,omitempty"`
	EmergencyContact string     `db:"emergency_contact" json:"emergency_contact"`
	Completed        bool       `db:"completed" json:"completed"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type Establishment struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OwnerID   uuid.UUID  `db:"owner_id" json:"owner_id"`
	Kind      string     `db:"kind" json:"kind"`
	Name      string     `db:"name" json:"name"`
	Address   string     `db:"address" json:"address"`
	CityID    *uuid.UUID `db:"city_id" json:"city_id,omitempty"`
	Latitude  *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64   `db:"longitude" json:"longitude,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Timing is a weekly working window. Minutes count from local midnight.
type Timing struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	EstablishmentID     uuid.UUID `db:"establishment_id" json:"establishment_id"`
	DoctorID            uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek           int       `db:"day_of_week" json:"day_of_week"`
	StartMinute         int       `db:"start_minute" json:"start_minute"`
	EndMinute           int       `db:"end_minute" json:"end_minute"`
	SlotDurationMinutes int       `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	ConsultationFee     *int64    `db:"consultation_fee" json:"consultation_fee,omitempty"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

type Appointment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID          uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	EstablishmentID   uuid.UUID  `db:"establishment_id" json:"establishment_id"`
	StartTime         time.Time  `db:"start_time" json:"start_time"`
	EndTime           time.Time  `db:"end_time" json:"end_time"`
	Status            string     `db:"status" json:"status"`
	Reason            string     `db:"reason" json:"reason,omitempty"`
	ConsultationFee   int64      `db:"consultation_fee" json:"consultation_fee"`
	CancelReason      *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy       *uuid.UUID `db:"cancelled_by" json:"cancelled_by,omitempty"`
	RescheduledFromID *uuid.UUID `db:"rescheduled_from_id" json:"rescheduled_from_id,omitempty"`
	RescheduledToID   *uuid.UUID `db:"rescheduled_to_id" json:"rescheduled_to_id,omitempty"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt       *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

type PlatformFeedback struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Rating    int       `db:"rating" json:"rating"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type AppointmentFeedback struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Rating        int       `db:"rating" json:"rating"`
	Answers       JSONMap   `db:"answers" json:"answers"`
	Comment       string    `db:"comment" json:"comment"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID            uuid.UUID `db:"id" json:"id"`
	RecipientID   uuid.UUID `db:"recipient_id" json:"recipient_id"`
	RecipientRole string    `db:"recipient_role" json:"recipient_role"`
	Type          string    `db:"type" json:"type"`
	Title         string    `db:"title" json:"title"`
	Body          string    `db:"body" json:"body"`
	Data          JSONMap   `db:"data" json:"data"`
	IsRead        bool      `db:"is_read" json:"is_read"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type MasterItem struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Kind      string     `db:"kind" json:"kind"`
	Name      string     `db:"name" json:"name"`
	Code      *string    `db:"code" json:"code,omitempty"`
	ParentID  *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

type FAQ struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Audience  string    `db:"audience" json:"audience"`
	Question  string    `db:"question" json:"question"`
	Answer    string    `db:"answer" json:"answer"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
