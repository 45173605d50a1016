package testutil

import (
	"fmt"
	"testing"

	"curaconnect_backend/internal/auth"
	"curaconnect_backend/internal/config"
	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const TestJWTSecret = "test_secret_for_curaconnect_12345"

// NewTestDB поднимает отдельную in-memory SQLite базу на каждый тест.
// Одно соединение: in-memory база живет, пока открыто хотя бы одно соединение,
// а транзакции не пересекаются.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetLogger(zap.NewNop().Sugar())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Не удалось открыть тестовую БД")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.PatientProfile{},
		&models.ResearcherProfile{},
		&models.Connection{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.MeetingRequest{},
		&models.Notification{},
		&models.OutboxEvent{},
	)
	require.NoError(t, err, "AutoMigrate для тестовой БД не должен падать")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// TestConfig - конфигурация с дефолтами и известным секретом
func TestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.JWT.Secret = TestJWTSecret
	cfg.ApplyDefaults()
	return cfg
}

// CreateUser создает пользователя с уникальным email
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:  name,
		Email: fmt.Sprintf("%s_%s@test.com", role, uuid.NewString()[:8]),
		Role:  role,
	}
	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя")
	return user
}

func CreatePatient(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := CreateUser(t, db, name, models.UserRolePatient)
	profile := &models.PatientProfile{UserID: user.ID}
	require.NoError(t, db.Create(profile).Error, "Не удалось создать профиль пациента")
	user.PatientProfile = profile
	return user
}

// CreateResearcher - available управляет прямой маршрутизацией встреч
func CreateResearcher(t *testing.T, db *gorm.DB, name string, available bool) *models.User {
	t.Helper()
	user := CreateUser(t, db, name, models.UserRoleResearcher)
	profile := &models.ResearcherProfile{
		UserID:               user.ID,
		Institution:          "Test Institute",
		AvailableForMeetings: available,
	}
	require.NoError(t, db.Create(profile).Error, "Не удалось создать профиль исследователя")
	user.ResearcherProfile = profile
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	return CreateUser(t, db, name, models.UserRoleAdmin)
}

// TokenFor выпускает токен так же, как его выпустил бы внешний auth-сервис
func TokenFor(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(cfg.JWT.Secret, user.ID, user.Email, string(user.Role), cfg.TokenTTL())
	require.NoError(t, err)
	return token
}

// Notifications возвращает все уведомления получателя, новые первыми
func Notifications(t *testing.T, db *gorm.DB, recipientID string) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, db.Where("recipient_id = ?", recipientID).Order("created_at DESC").Find(&out).Error)
	return out
}

// CountOutbox - количество outbox событий в статусе
func CountOutbox(t *testing.T, db *gorm.DB, status models.OutboxStatus) int64 {
	t.Helper()
	count, err := repositories.NewOutboxRepository().CountByStatus(db, status)
	require.NoError(t, err)
	return count
}
