package donor

import (
	"strings"
	"time"

	"blood_connect_backend/internal/common"
	"blood_connect_backend/internal/shared"

	"github.com/google/uuid"
)

// Status is the donor's operational availability state. It is distinct from
// the admin-controlled IsVerified flag.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusBlocked     Status = "blocked"
)

// ValidBloodGroups is the closed set of accepted blood group values.
var ValidBloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// NormalizeBloodGroup upper-cases the input and reports whether it is one of
// the eight accepted values. Anything else is rejected at write time, never
// silently coerced.
func NormalizeBloodGroup(raw string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	for _, bg := range ValidBloodGroups {
		if normalized == bg {
			return normalized, true
		}
	}
	return normalized, false
}

// Donor represents the donor model in the database.
type Donor struct {
	common.BaseModel              // Embeds ID, CreatedAt, UpdatedAt
	Name             string       `gorm:"type:varchar(100);not null"`
	Email            string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash     string       `gorm:"type:varchar(255);not null" json:"-"`
	BloodGroup       string       `gorm:"type:varchar(3);not null"`
	City             string       `gorm:"type:varchar(100);not null"`
	Phone            string       `gorm:"type:varchar(20);not null"`
	Status           Status       `gorm:"type:varchar(20);not null;default:'available'"`
	IsAvailable      bool         `gorm:"not null;default:true"`
	Role             shared.Role  `gorm:"type:varchar(20);not null;default:'donor'"`
	IsVerified       bool         `gorm:"not null;default:false"`
	LastDonationDate *time.Time
}

// TableName specifies the table name for the Donor model.
func (Donor) TableName() string {
	return "donors"
}

func (d *Donor) GetID() uuid.UUID {
	return d.ID
}

func (d *Donor) GetEmail() string {
	return d.Email
}

func (d *Donor) GetRole() shared.Role {
	return d.Role
}

// ToShared converts the database model into the sanitized identity used by
// the auth middleware and request context. The password hash never crosses
// this boundary.
func (d *Donor) ToShared() *shared.Donor {
	return &shared.Donor{
		ID:               d.ID,
		Name:             d.Name,
		Email:            d.Email,
		BloodGroup:       d.BloodGroup,
		City:             d.City,
		Phone:            d.Phone,
		Status:           string(d.Status),
		IsAvailable:      d.IsAvailable,
		Role:             d.Role,
		IsVerified:       d.IsVerified,
		LastDonationDate: d.LastDonationDate,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// RegisterRequest defines the structure for donor registration.
// Blood group is validated against the closed set in the service, after
// upper-casing, so lower-case input like "o+" is accepted.
type RegisterRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
	BloodGroup string `json:"bloodGroup" binding:"required"`
	City       string `json:"city" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"required,min=10,max=20"`
}

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfilePatch is the explicit allow-list of fields a donor may change on
// their own profile. Everything else (name, email, role, status,
// verification) is server-controlled or has a dedicated operation.
type ProfilePatch struct {
	City       *string `json:"city" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,min=10,max=20"`
	BloodGroup *string `json:"bloodGroup" binding:"omitempty"`
}

// AvailabilityRequest toggles the donor's availability. A pointer is used so
// an explicit false is distinguishable from a missing field.
type AvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}

// VerifyRequest sets the admin-controlled verification flag.
type VerifyRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required"`
}

// SearchQuery holds the optional public search filters. Filters combine
// conjunctively when both are present.
type SearchQuery struct {
	BloodGroup string `form:"bloodGroup"`
	City       string `form:"city"`
}

// Response defines the donor data sent in API responses. The password hash is
// excluded unconditionally.
type Response struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	BloodGroup       string      `json:"bloodGroup"`
	City             string      `json:"city"`
	Phone            string      `json:"phone"`
	Status           Status      `json:"status"`
	IsAvailable      bool        `json:"isAvailable"`
	Role             shared.Role `json:"role"`
	IsVerified       bool        `json:"isVerified"`
	LastDonationDate *time.Time  `json:"lastDonationDate,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// SearchResponse is the public search result shape. It additionally omits the
// donor's email so the public endpoint never exposes contact addresses.
type SearchResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	BloodGroup       string     `json:"bloodGroup"`
	City             string     `json:"city"`
	Phone            string     `json:"phone"`
	Status           Status     `json:"status"`
	IsVerified       bool       `json:"isVerified"`
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ToResponse converts a Donor model to a Response DTO.
func ToResponse(d *Donor) Response {
	return Response{
		ID:               d.ID,
		Name:             d.Name,
		Email:            d.Email,
		BloodGroup:       d.BloodGroup,
		City:             d.City,
		Phone:            d.Phone,
		Status:           d.Status,
		IsAvailable:      d.IsAvailable,
		Role:             d.Role,
		IsVerified:       d.IsVerified,
		LastDonationDate: d.LastDonationDate,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ToSearchResponse converts a Donor model to the public search shape.
func ToSearchResponse(d *Donor) SearchResponse {
	return SearchResponse{
		ID:               d.ID,
		Name:             d.Name,
		BloodGroup:       d.BloodGroup,
		City:             d.City,
		Phone:            d.Phone,
		Status:           d.Status,
		IsVerified:       d.IsVerified,
		LastDonationDate: d.LastDonationDate,
		CreatedAt:        d.CreatedAt,
	}
}
