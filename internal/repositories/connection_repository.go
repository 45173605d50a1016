package repositories

import (
	"errors"
	"time"

	"curaconnect_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionExists   = errors.New("connection already exists for this pair")
)

type ConnectionRepository interface {
	Create(db *gorm.DB, connection *models.Connection) error
	FindByID(db *gorm.DB, id string) (*models.Connection, error)
	FindByPair(db *gorm.DB, userA, userB string) (*models.Connection, error)
	AcceptPending(db *gorm.DB, id string, acceptedAt time.Time) (bool, error)
	FindForUser(db *gorm.DB, userID string, status models.ConnectionStatus) ([]models.Connection, error)
}

type ConnectionRepositoryImpl struct{}

func NewConnectionRepository() ConnectionRepository {
	return &ConnectionRepositoryImpl{}
}

// Create выставляет PairKey сам; дубликат пары в любом порядке -> ErrConnectionExists
func (r *ConnectionRepositoryImpl) Create(db *gorm.DB, connection *models.Connection) error {
	connection.PairKey = models.ConnectionPairKey(connection.RequesterID, connection.RecipientID)
	if connection.Status == "" {
		connection.Status = models.ConnectionStatusPending
	}

	if err := db.Create(connection).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConnectionExists
		}
		return err
	}
	return nil
}

func (r *ConnectionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Connection, error) {
	if !models.IsUUID(id) {
		return nil, ErrConnectionNotFound
	}
	var connection models.Connection
	if err := db.First(&connection, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return &connection, nil
}

func (r *ConnectionRepositoryImpl) FindByPair(db *gorm.DB, userA, userB string) (*models.Connection, error) {
	var connection models.Connection
	err := db.First(&connection, "pair_key = ?", models.ConnectionPairKey(userA, userB)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return &connection, nil
}

// AcceptPending - условный UPDATE: false, если строка уже не в pending
func (r *ConnectionRepositoryImpl) AcceptPending(db *gorm.DB, id string, acceptedAt time.Time) (bool, error) {
	result := db.Model(&models.Connection{}).
		Where("id = ? AND status = ?", id, models.ConnectionStatusPending).
		Updates(map[string]interface{}{
			"status":      models.ConnectionStatusAccepted,
			"accepted_at": acceptedAt,
			"updated_at":  acceptedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ConnectionRepositoryImpl) FindForUser(db *gorm.DB, userID string, status models.ConnectionStatus) ([]models.Connection, error) {
	var connections []models.Connection
	query := db.Where("requester_id = ? OR recipient_id = ?", userID, userID)
	if status != "" {
		query = db.Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, status)
	}
	err := query.Order("created_at DESC").Find(&connections).Error
	return connections, err
}
