package donor

import (
	"context"
	"errors"
	"fmt"

	"blood_connect_backend/internal/common"
	"blood_connect_backend/internal/config"
	"blood_connect_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the donor business logic and the shared.DonorProvider
// lookup used by the auth middleware.
type Service struct {
	repo         Repository
	tokenService shared.TokenService
	cfg          *config.Config
	logger       *zap.Logger
}

var _ shared.DonorProvider = (*Service)(nil)

// NewService creates a new donor service.
func NewService(
	repo Repository,
	tokenService shared.TokenService,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:         repo,
		tokenService: tokenService,
		cfg:          cfg,
		logger:       logger,
	}
}

// Register creates a new donor account and issues an access token.
// Role, status, and verification are server-forced regardless of the request
// body: every new account starts as an unverified, available donor.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Donor, string, error) {
	bloodGroup, ok := NormalizeBloodGroup(req.BloodGroup)
	if !ok {
		return nil, "", common.NewValidationAPIError(map[string]string{
			"bloodGroup": "Invalid blood group. Must be one of: A+, A-, B+, B-, AB+, AB-, O+, O-.",
		})
	}

	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, "", common.ErrConflict.WithDetails("Donor with this email already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing donor by email: %w", err)
	}

	hashedPassword, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	dbDonor := &Donor{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		BloodGroup:   bloodGroup,
		City:         req.City,
		Phone:        req.Phone,
		Status:       StatusAvailable,
		IsAvailable:  true,
		Role:         shared.RoleDonor,
		IsVerified:   false,
	}

	if err := s.repo.Create(ctx, dbDonor); err != nil {
		s.logger.Error("Failed to create donor in repository", zap.Error(err), zap.String("email", req.Email))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, "", apiErr
		}
		return nil, "", fmt.Errorf("failed to create donor: %w", err)
	}

	token, _, err := s.tokenService.GenerateAccessToken(dbDonor)
	if err != nil {
		s.logger.Error("Failed to generate access token after registration", zap.Error(err), zap.String("donorID", dbDonor.ID.String()))
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Info("Donor registered successfully", zap.String("donorID", dbDonor.ID.String()))
	return dbDonor, token, nil
}

// Login authenticates a donor by email and password and issues an access
// token. Unknown email and wrong password deliberately produce the same
// error, so the endpoint cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Donor, string, error) {
	dbDonor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("Donor not found during login", zap.String("email", email))
			return nil, "", common.ErrInvalidCredentials
		}
		s.logger.Error("Error finding donor by email during login", zap.Error(err), zap.String("email", email))
		return nil, "", common.ErrInternalServer
	}

	if !common.CheckPasswordHash(password, dbDonor.PasswordHash) {
		s.logger.Warn("Invalid password attempt", zap.String("donorID", dbDonor.ID.String()))
		return nil, "", common.ErrInvalidCredentials
	}

	token, _, err := s.tokenService.GenerateAccessToken(dbDonor)
	if err != nil {
		s.logger.Error("Failed to generate access token on login", zap.Error(err), zap.String("donorID", dbDonor.ID.String()))
		return nil, "", common.ErrInternalServer
	}

	s.logger.Info("Donor logged in successfully", zap.String("donorID", dbDonor.ID.String()))
	return dbDonor, token, nil
}

// GetDonorByID returns the sanitized donor identity. The auth middleware
// calls this on every protected request so that role changes, blocking, or
// deletion take effect immediately.
func (s *Service) GetDonorByID(ctx context.Context, id uuid.UUID) (*shared.Donor, error) {
	dbDonor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dbDonor.ToShared(), nil
}

// Search returns available donors matching the optional blood group and city
// filters. An empty result set is not an error.
func (s *Service) Search(ctx context.Context, query SearchQuery) ([]Donor, error) {
	return s.repo.Search(ctx, query)
}

// UpdateProfile applies the allow-listed profile patch to the donor's own
// record. Fields outside the patch cannot be changed through this operation.
func (s *Service) UpdateProfile(ctx context.Context, donorID uuid.UUID, patch ProfilePatch) (*Donor, error) {
	dbDonor, err := s.repo.FindByID(ctx, donorID)
	if err != nil {
		return nil, err
	}

	if patch.BloodGroup != nil {
		bloodGroup, ok := NormalizeBloodGroup(*patch.BloodGroup)
		if !ok {
			return nil, common.NewValidationAPIError(map[string]string{
				"bloodGroup": "Invalid blood group. Must be one of: A+, A-, B+, B-, AB+, AB-, O+, O-.",
			})
		}
		dbDonor.BloodGroup = bloodGroup
	}
	if patch.City != nil {
		dbDonor.City = *patch.City
	}
	if patch.Phone != nil {
		dbDonor.Phone = *patch.Phone
	}

	if err := s.repo.Update(ctx, dbDonor); err != nil {
		s.logger.Error("Failed to update donor profile", zap.Error(err), zap.String("donorID", donorID.String()))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to update donor profile: %w", err)
	}
	return dbDonor, nil
}

// SetAvailability maps the raw toggle onto the status field and persists
// both. A blocked donor flipping the toggle moves to available/unavailable
// like anyone else; blocking is not re-applied here because no endpoint sets
// it in the first place.
func (s *Service) SetAvailability(ctx context.Context, donorID uuid.UUID, isAvailable bool) (*Donor, error) {
	dbDonor, err := s.repo.FindByID(ctx, donorID)
	if err != nil {
		return nil, err
	}

	if isAvailable {
		dbDonor.Status = StatusAvailable
	} else {
		dbDonor.Status = StatusUnavailable
	}
	dbDonor.IsAvailable = isAvailable

	if err := s.repo.Update(ctx, dbDonor); err != nil {
		s.logger.Error("Failed to update donor availability", zap.Error(err), zap.String("donorID", donorID.String()))
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}
	return dbDonor, nil
}

// ListAll returns every donor, newest-created first. Admin only.
func (s *Service) ListAll(ctx context.Context) ([]Donor, error) {
	return s.repo.FindAll(ctx)
}

// DeleteByID permanently removes a donor. Deleting an id that does not exist
// succeeds, so clients can safely retry.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete donor", zap.Error(err), zap.String("donorID", id.String()))
		return fmt.Errorf("failed to delete donor: %w", err)
	}
	s.logger.Info("Donor deleted", zap.String("donorID", id.String()))
	return nil
}

// SetVerified sets the admin-controlled verification flag on the target
// donor. Unlike delete, verifying a nonexistent donor is an error.
func (s *Service) SetVerified(ctx context.Context, id uuid.UUID, isVerified bool) (*Donor, error) {
	dbDonor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dbDonor.IsVerified = isVerified
	if err := s.repo.Update(ctx, dbDonor); err != nil {
		s.logger.Error("Failed to update verification status", zap.Error(err), zap.String("donorID", id.String()))
		return nil, fmt.Errorf("failed to update verification status: %w", err)
	}

	s.logger.Info("Donor verification updated",
		zap.String("donorID", id.String()),
		zap.Bool("isVerified", isVerified),
	)
	return dbDonor, nil
}
