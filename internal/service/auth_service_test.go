package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type mockAccountRepo struct {
	accounts  map[string]*models.Account
	auditLogs []*models.AuditLog
}

func newMockAccountRepo(accounts ...*models.Account) *mockAccountRepo {
	m := &mockAccountRepo{accounts: map[string]*models.Account{}}
	for _, a := range accounts {
		m.accounts[string(a.Role)+":"+a.ID] = a
	}
	return m
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, role models.UserRole, email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Role == role && a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find account: %w", appErrors.ErrNoRecord)
}

func (m *mockAccountRepo) FindStudent(ctx context.Context, rollNum int, name string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Role == models.RoleStudent && a.RollNum == rollNum && a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find student: %w", appErrors.ErrNoRecord)
}

func (m *mockAccountRepo) FindByID(ctx context.Context, role models.UserRole, id string) (*models.Account, error) {
	if a, ok := m.accounts[string(role)+":"+id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, fmt.Errorf("find account: %w", appErrors.ErrNoRecord)
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, role models.UserRole, id, hash string) error {
	a, ok := m.accounts[string(role)+":"+id]
	if !ok {
		return appErrors.ErrNoRecord
	}
	a.PasswordHash = hash
	return nil
}

func (m *mockAccountRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func mustHash(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(repo *mockAccountRepo) *AuthService {
	return NewAuthService(repo, repo, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
}

func TestAuthServiceLoginTeacher(t *testing.T) {
	repo := newMockAccountRepo(&models.Account{ID: "t1", Name: "Rina", Email: "rina@school.test", School: "admin-1", PasswordHash: mustHash(t, "password"), Role: models.RoleTeacher})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "rina@school.test", Password: "password", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "admin-1", res.User.SchoolID)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "admin-1", claims.SchoolID)
}

func TestAuthServiceAdminIsOwnSchool(t *testing.T) {
	repo := newMockAccountRepo(&models.Account{ID: "admin-1", Email: "owner@school.test", PasswordHash: mustHash(t, "password"), Role: models.RoleAdmin})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@school.test", Password: "password", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", res.User.SchoolID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAccountRepo(&models.Account{ID: "p1", Email: "parent@school.test", PasswordHash: mustHash(t, "password"), Role: models.RoleParent})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "parent@school.test", Password: "nope", Role: models.RoleParent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.test", Password: "password", Role: models.RoleParent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	inactive := false
	repo := newMockAccountRepo(&models.Account{ID: "t1", Email: "t@school.test", PasswordHash: mustHash(t, "password"), IsActive: &inactive, Role: models.RoleTeacher})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "t@school.test", Password: "password", Role: models.RoleTeacher})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginStudent(t *testing.T) {
	repo := newMockAccountRepo(&models.Account{ID: "s1", Name: "Budi", RollNum: 7, School: "admin-1", PasswordHash: mustHash(t, "password"), Role: models.RoleStudent})
	svc := newTestAuthService(repo)

	res, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{RollNum: 7, Name: "Budi", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)

	_, err = svc.LoginStudent(context.Background(), models.StudentLoginRequest{RollNum: 8, Name: "Budi", Password: "password"})
	require.Error(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAccountRepo(&models.Account{ID: "p1", Email: "p@school.test", PasswordHash: mustHash(t, "old"), Role: models.RoleParent})
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), models.RoleParent, "p1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), models.RoleParent, "p1", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	require.NoError(t, err)
	stored := repo.accounts["Parent:p1"].PasswordHash
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("newpassword")))
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := newTestAuthService(newMockAccountRepo())
	token, _, err := svc.generateAccessToken(&models.Account{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
