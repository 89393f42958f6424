package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sgamb/yatut/models"
)

// Groups provides access to topic groups.
type Groups struct {
	db *gorm.DB
}

// NewGroups creates a Groups repository.
func NewGroups(db *gorm.DB) *Groups {
	return &Groups{db: db}
}

// Create persists a new group.
func (r *Groups) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

// GetBySlug loads a group by its unique slug.
func (r *Groups) GetBySlug(slug string) (models.Group, error) {
	var group models.Group
	if err := r.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, err
	}
	return group, nil
}

// GetByID loads a group by primary key.
func (r *Groups) GetByID(id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, err
	}
	return group, nil
}

// List returns all groups ordered by title, paginated.
func (r *Groups) List(page int) ([]models.Group, Pagination, error) {
	var groups []models.Group
	query := r.db.Order("title ASC")
	p, err := paginate(query, &models.Group{}, page, &groups)
	if err != nil {
		return nil, Pagination{}, err
	}
	return groups, p, nil
}

// All returns every group, used to populate the post form select.
func (r *Groups) All() ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.Order("title ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Delete removes a group. Its posts survive with the group reference cleared,
// SET NULL semantics enforced here rather than by the schema.
func (r *Groups) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
