package repository

import (
	"gorm.io/gorm"

	"github.com/sgamb/yatut/models"
)

// Follows manages the directed follow graph between users.
type Follows struct {
	db *gorm.DB
}

// NewFollows creates a Follows repository.
func NewFollows(db *gorm.DB) *Follows {
	return &Follows{db: db}
}

// Follow inserts the edge user -> author. Self-follow and duplicate edges are
// rejected here so no handler can bypass the invariant.
func (r *Follows) Follow(userID, authorID uint) error {
	if userID == authorID {
		return ErrSelfFollow
	}
	following, err := r.IsFollowing(userID, authorID)
	if err != nil {
		return err
	}
	if following {
		return ErrDuplicateFollow
	}
	return r.db.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error
}

// Unfollow removes the edge user -> author. A missing edge is ErrNotFound;
// callers that want idempotent unfollow treat that as success.
func (r *Follows) Unfollow(userID, authorID uint) error {
	res := r.db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFollowing reports whether the edge user -> author exists.
func (r *Follows) IsFollowing(userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// FollowerCount returns how many users follow the author.
func (r *Follows) FollowerCount(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// FollowingCount returns how many authors the user follows.
func (r *Follows) FollowingCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListAuthors returns the authors the user follows, most recent edge first.
func (r *Follows) ListAuthors(userID uint) ([]models.User, error) {
	var authors []models.User
	err := r.db.Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Find(&authors).Error
	if err != nil {
		return nil, err
	}
	return authors, nil
}
