package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sgamb/yatut/models"
)

// Comments provides access to post comments.
type Comments struct {
	db *gorm.DB
}

// NewComments creates a Comments repository.
func NewComments(db *gorm.DB) *Comments {
	return &Comments{db: db}
}

// Create validates and persists a comment. The referenced post must exist.
func (r *Comments) Create(comment *models.Comment) error {
	if strings.TrimSpace(comment.Text) == "" {
		return ErrEmptyText
	}
	var count int64
	if err := r.db.Model(&models.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return r.db.Create(comment).Error
}

// GetByID loads a comment with its author.
func (r *Comments) GetByID(id uint) (models.Comment, error) {
	var comment models.Comment
	if err := r.db.Preload("Author").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, err
	}
	return comment, nil
}

// ListByPost returns a post's comments oldest-first with their authors.
func (r *Comments) ListByPost(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Update rewrites the comment text. Text stays mandatory.
func (r *Comments) Update(comment *models.Comment, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	comment.Text = text
	return r.db.Model(comment).Select("Text", "UpdatedAt").Updates(comment).Error
}

// Delete removes a comment.
func (r *Comments) Delete(id uint) error {
	res := r.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
