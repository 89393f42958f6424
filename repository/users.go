package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sgamb/yatut/models"
)

// Users provides access to user records.
type Users struct {
	db *gorm.DB
}

// NewUsers creates a Users repository.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create persists a new user.
func (r *Users) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID loads a user by primary key.
func (r *Users) GetByID(id uint) (models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByUsername loads a user by their unique username.
func (r *Users) GetByUsername(username string) (models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// UsernameTaken reports whether a username is already registered.
func (r *Users) UsernameTaken(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// Save updates an existing user record.
func (r *Users) Save(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete removes a user together with everything they own: their posts (and
// the comments under those posts), their comments elsewhere, and their follow
// edges in both directions. Cascades are applied here explicitly instead of
// relying on database foreign keys.
func (r *Users) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
