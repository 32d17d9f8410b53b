package donor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"blood_connect_backend/internal/common"
	"blood_connect_backend/internal/config"
	"blood_connect_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")
	require.NoError(t, db.AutoMigrate(&Donor{}), "Failed to migrate test database")
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		JWTSecretKey:         "service-test-secret",
		JWTAccessTokenExpiry: time.Hour,
	}
	tokenService := newStubTokenService()
	svc := NewService(NewGORMRepository(db), tokenService, cfg, zap.NewNop())
	return svc, db
}

// stubTokenService avoids depending on the auth package from here; token
// behavior has its own tests.
type stubTokenService struct{}

func newStubTokenService() shared.TokenService { return &stubTokenService{} }

func (s *stubTokenService) GenerateAccessToken(donorData shared.DonorDataForToken) (string, time.Time, error) {
	return "token-for-" + donorData.GetID().String(), time.Now().Add(time.Hour), nil
}

func (s *stubTokenService) ValidateToken(tokenString string) (*shared.Claims, error) {
	return nil, fmt.Errorf("not implemented in stub")
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Name:       "Asha Donor",
		Email:      "asha@example.com",
		Password:   "secret123",
		BloodGroup: "o+",
		City:       "Pokhara",
		Phone:      "9800000000",
	}
}

func TestRegister_ForcesDefaultsAndNormalizes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, token, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, token)

	// Server-controlled defaults hold no matter what a client sends.
	assert.Equal(t, shared.RoleDonor, created.Role)
	assert.Equal(t, StatusAvailable, created.Status)
	assert.True(t, created.IsAvailable)
	assert.False(t, created.IsVerified)
	assert.Nil(t, created.LastDonationDate)

	// Lower-case blood group input is stored upper-cased.
	assert.Equal(t, "O+", created.BloodGroup)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "secret123", created.PasswordHash)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	dup := validRegisterRequest()
	dup.Email = "ASHA@Example.COM"
	_, _, err = svc.Register(ctx, dup)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
}

func TestRegister_InvalidBloodGroup(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRegisterRequest()
	req.BloodGroup = "X+"
	_, _, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	_, _, unknownErr := svc.Login(ctx, "nobody@example.com", "secret123")
	_, _, wrongPassErr := svc.Login(ctx, "asha@example.com", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongPassErr)

	unknownAPI, ok := common.IsAPIError(unknownErr)
	require.True(t, ok)
	wrongAPI, ok := common.IsAPIError(wrongPassErr)
	require.True(t, ok)

	// Identical code and message, so the endpoint cannot be used to
	// enumerate registered emails.
	assert.Equal(t, unknownAPI.Code, wrongAPI.Code)
	assert.Equal(t, unknownAPI.Message, wrongAPI.Message)
	assert.Equal(t, common.ErrInvalidCredentials.Code, unknownAPI.Code)
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	loggedIn, token, err := svc.Login(ctx, "asha@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
}

func TestSearch_ScenarioAvailabilityToggle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, RegisterRequest{
		Name:       "Donor A",
		Email:      "a@x.com",
		Password:   "secret123",
		BloodGroup: "a+",
		City:       "Pokhara",
		Phone:      "9811111111",
	})
	require.NoError(t, err)

	results, err := svc.Search(ctx, SearchQuery{BloodGroup: "A+"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, created.ID, results[0].ID)

	_, err = svc.SetAvailability(ctx, created.ID, false)
	require.NoError(t, err)

	results, err = svc.Search(ctx, SearchQuery{BloodGroup: "A+"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_FiltersCombineConjunctively(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seed := []RegisterRequest{
		{Name: "One", Email: "one@x.com", Password: "secret123", BloodGroup: "A+", City: "Pokhara", Phone: "9810000001"},
		{Name: "Two", Email: "two@x.com", Password: "secret123", BloodGroup: "A+", City: "Kathmandu", Phone: "9810000002"},
		{Name: "Three", Email: "three@x.com", Password: "secret123", BloodGroup: "B-", City: "Pokhara", Phone: "9810000003"},
	}
	for _, req := range seed {
		_, _, err := svc.Register(ctx, req)
		require.NoError(t, err)
	}

	results, err := svc.Search(ctx, SearchQuery{BloodGroup: "a+", City: "pokh"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "One", results[0].Name)

	// No filters returns every available donor.
	results, err = svc.Search(ctx, SearchQuery{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearch_BlockedDonorNeverSurfaces(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	require.NoError(t, db.Model(&Donor{}).
		Where("id = ?", created.ID).
		Update("status", StatusBlocked).Error)

	results, err := svc.Search(ctx, SearchQuery{BloodGroup: "O+"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpdateProfile_AllowListedFieldsOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	city := "Butwal"
	phone := "9847000000"
	bloodGroup := "ab-"
	updated, err := svc.UpdateProfile(ctx, created.ID, ProfilePatch{
		City:       &city,
		Phone:      &phone,
		BloodGroup: &bloodGroup,
	})
	require.NoError(t, err)

	assert.Equal(t, "Butwal", updated.City)
	assert.Equal(t, "9847000000", updated.Phone)
	assert.Equal(t, "AB-", updated.BloodGroup)
	// Untouched fields survive the patch.
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, shared.RoleDonor, updated.Role)
	assert.Equal(t, StatusAvailable, updated.Status)
}

func TestUpdateProfile_RejectsInvalidBloodGroup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	bad := "C+"
	_, err = svc.UpdateProfile(ctx, created.ID, ProfilePatch{BloodGroup: &bad})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestSetAvailability_PersistsStatusAndFlag(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	updated, err := svc.SetAvailability(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusUnavailable, updated.Status)
	assert.False(t, updated.IsAvailable)

	var stored Donor
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, StatusUnavailable, stored.Status)
	assert.False(t, stored.IsAvailable)

	updated, err = svc.SetAvailability(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, updated.Status)
	assert.True(t, updated.IsAvailable)
}

func TestListAll_NewestFirst(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	older, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Older", Email: "older@x.com", Password: "secret123",
		BloodGroup: "A+", City: "Pokhara", Phone: "9810000001",
	})
	require.NoError(t, err)
	newer, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Newer", Email: "newer@x.com", Password: "secret123",
		BloodGroup: "B+", City: "Kathmandu", Phone: "9810000002",
	})
	require.NoError(t, err)

	// Force distinct creation timestamps; sqlite's clock granularity can
	// make back-to-back inserts tie.
	require.NoError(t, db.Model(&Donor{}).
		Where("id = ?", older.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	donors, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, donors, 2)
	assert.Equal(t, newer.ID, donors[0].ID)
	assert.Equal(t, older.ID, donors[1].ID)
}

func TestDeleteByID_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, created.ID))
	// Second delete of the same id is still a success.
	require.NoError(t, svc.DeleteByID(ctx, created.ID))
	// As is deleting an id that never existed.
	require.NoError(t, svc.DeleteByID(ctx, uuid.New()))

	_, err = svc.GetDonorByID(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetVerified(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)
	assert.False(t, created.IsVerified)

	updated, err := svc.SetVerified(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)

	updated, err = svc.SetVerified(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsVerified)
}

func TestSetVerified_UnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SetVerified(context.Background(), uuid.New(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetDonorByID_SanitizedIdentity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, validRegisterRequest())
	require.NoError(t, err)

	identity, err := svc.GetDonorByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.ID)
	assert.Equal(t, created.Email, identity.Email)
	assert.Equal(t, shared.RoleDonor, identity.Role)
}
