package donor

import (
	"context"
	"errors"
	"strings"

	"blood_connect_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for donor data operations.
type Repository interface {
	Create(ctx context.Context, donor *Donor) error
	FindByEmail(ctx context.Context, email string) (*Donor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Donor, error)
	Update(ctx context.Context, donor *Donor) error
	Search(ctx context.Context, query SearchQuery) ([]Donor, error)
	FindAll(ctx context.Context) ([]Donor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM donor repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new donor record. The unique index on email is the final
// authority on duplicates; the service-level pre-check only exists for a
// friendlier error on the common path.
func (r *gormRepository) Create(ctx context.Context, donor *Donor) error {
	donor.Email = strings.ToLower(strings.TrimSpace(donor.Email))
	err := r.db.WithContext(ctx).Create(donor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return common.ErrConflict.WithDetails("Donor with this email already exists.")
		}
		return err
	}
	return nil
}

// FindByEmail retrieves a donor by their email address, case-insensitively.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*Donor, error) {
	var donorModel Donor
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	err := r.db.WithContext(ctx).Where("email = ?", normalizedEmail).First(&donorModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Donor not found with this email.")
		}
		return nil, err
	}
	return &donorModel, nil
}

// FindByID retrieves a donor by their ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Donor, error) {
	var donorModel Donor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&donorModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Donor not found with this ID.")
		}
		return nil, err
	}
	return &donorModel, nil
}

// Update persists the full donor record.
func (r *gormRepository) Update(ctx context.Context, donor *Donor) error {
	donor.Email = strings.ToLower(strings.TrimSpace(donor.Email))
	err := r.db.WithContext(ctx).Save(donor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") {
			return common.ErrConflict.WithDetails("Update failed: email already taken.")
		}
		return err
	}
	return nil
}

// Search returns donors matching the public search filters. Only donors with
// status available are ever surfaced, regardless of filter values.
func (r *gormRepository) Search(ctx context.Context, query SearchQuery) ([]Donor, error) {
	dbQuery := r.db.WithContext(ctx).Model(&Donor{}).Where("status = ?", StatusAvailable)

	if query.BloodGroup != "" {
		dbQuery = dbQuery.Where("blood_group = ?", strings.ToUpper(strings.TrimSpace(query.BloodGroup)))
	}
	if query.City != "" {
		city := "%" + strings.ToLower(strings.TrimSpace(query.City)) + "%"
		dbQuery = dbQuery.Where("LOWER(city) LIKE ?", city)
	}

	var donors []Donor
	if err := dbQuery.Find(&donors).Error; err != nil {
		return nil, err
	}
	return donors, nil
}

// FindAll returns every donor record, newest-created first.
func (r *gormRepository) FindAll(ctx context.Context) ([]Donor, error) {
	var donors []Donor
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&donors).Error
	if err != nil {
		return nil, err
	}
	return donors, nil
}

// Delete permanently removes a donor record. Deleting a nonexistent id is not
// an error, which makes the admin delete operation idempotent.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&Donor{}).Error
}
