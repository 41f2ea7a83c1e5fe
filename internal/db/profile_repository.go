package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/fertility/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUnsupportedSnapshotVersion = errors.New("unsupported snapshot version")

type profileSnapshotRow struct {
	ProfileID        string `gorm:"column:profile_id;primaryKey"`
	Name             string `gorm:"column:name;not null"`
	Version          int    `gorm:"column:version;not null"`
	Data             string `gorm:"column:data;not null"`
	LastNotifiedDate *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (profileSnapshotRow) TableName() string {
	return "profile_snapshots"
}

// ProfileRepository is the durable key-value store for profile snapshots.
type ProfileRepository struct {
	database *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{database: database}
}

func (repo *ProfileRepository) Save(profileID string, snapshot models.ProfileSnapshot) error {
	data, err := models.EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", profileID, err)
	}

	name := ""
	if snapshot.Name != nil {
		name = *snapshot.Name
	}

	row := profileSnapshotRow{
		ProfileID:        profileID,
		Name:             name,
		Version:          models.SnapshotVersion,
		Data:             string(data),
		LastNotifiedDate: snapshot.LastNotifiedDate,
	}
	return repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "version", "data", "last_notified_date", "updated_at"}),
	}).Create(&row).Error
}

// Load reports found=false without error when nothing is stored for the id.
func (repo *ProfileRepository) Load(profileID string) (models.ProfileSnapshot, bool, error) {
	rows := make([]profileSnapshotRow, 0, 1)
	if err := repo.database.Where("profile_id = ?", profileID).Limit(1).Find(&rows).Error; err != nil {
		return models.ProfileSnapshot{}, false, err
	}
	if len(rows) == 0 {
		return models.ProfileSnapshot{}, false, nil
	}

	snapshot, err := decodeRow(rows[0])
	if err != nil {
		return models.ProfileSnapshot{}, false, err
	}
	return snapshot, true, nil
}

// ListIDs returns stored profile ids in creation order.
func (repo *ProfileRepository) ListIDs() ([]string, error) {
	ids := make([]string, 0)
	if err := repo.database.Model(&profileSnapshotRow{}).
		Order("created_at ASC, profile_id ASC").
		Pluck("profile_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (repo *ProfileRepository) Delete(profileID string) (bool, error) {
	result := repo.database.Where("profile_id = ?", profileID).Delete(&profileSnapshotRow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func decodeRow(row profileSnapshotRow) (models.ProfileSnapshot, error) {
	if row.Version > models.SnapshotVersion {
		return models.ProfileSnapshot{}, fmt.Errorf("profile %s: %w %d", row.ProfileID, ErrUnsupportedSnapshotVersion, row.Version)
	}
	snapshot, err := models.DecodeSnapshot([]byte(row.Data))
	if err != nil {
		return models.ProfileSnapshot{}, fmt.Errorf("profile %s: %w", row.ProfileID, err)
	}
	return snapshot, nil
}
