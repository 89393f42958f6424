package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sgamb/yatut/models"
)

// Posts provides access to post records with the listing variants the pages
// and the API are built from.
type Posts struct {
	db *gorm.DB
}

// NewPosts creates a Posts repository.
func NewPosts(db *gorm.DB) *Posts {
	return &Posts{db: db}
}

// Create validates and persists a new post. A blank text is rejected with
// ErrEmptyText and nothing is written.
func (r *Posts) Create(post *models.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return ErrEmptyText
	}
	return r.db.Create(post).Error
}

// GetByID loads a post with its author and group.
func (r *Posts) GetByID(id uint) (models.Post, error) {
	var post models.Post
	err := r.db.Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

// GetByAuthorAndID loads a post only when it belongs to the named author.
// Used by the web routes where the post id is scoped under the username.
func (r *Posts) GetByAuthorAndID(username string, id uint) (models.Post, error) {
	var post models.Post
	err := r.db.Preload("Author").Preload("Group").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.id = ? AND users.username = ?", id, username).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

// Update rewrites the mutable fields of a post. Text stays mandatory.
func (r *Posts) Update(post *models.Post, text string, groupID *uint, image string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	post.Text = text
	post.GroupID = groupID
	if image != "" {
		post.Image = image
	}
	return r.db.Model(post).Select("Text", "GroupID", "Image", "UpdatedAt").Updates(post).Error
}

// Delete removes a post and its comments.
func (r *Posts) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListAll returns every post newest-first, paginated.
func (r *Posts) ListAll(page int) ([]models.Post, Pagination, error) {
	var posts []models.Post
	query := r.db.Preload("Author").Preload("Group").Order("created_at DESC, id DESC")
	p, err := paginate(query, &models.Post{}, page, &posts)
	if err != nil {
		return nil, Pagination{}, err
	}
	return posts, p, nil
}

// ListByGroup returns the group's posts newest-first. Unknown slugs surface
// ErrNotFound before any listing happens.
func (r *Posts) ListByGroup(slug string, page int) (models.Group, []models.Post, Pagination, error) {
	var group models.Group
	if err := r.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, nil, Pagination{}, ErrNotFound
		}
		return models.Group{}, nil, Pagination{}, err
	}
	var posts []models.Post
	query := r.db.Preload("Author").Preload("Group").
		Where("group_id = ?", group.ID).
		Order("created_at DESC, id DESC")
	p, err := paginate(query, &models.Post{}, page, &posts)
	if err != nil {
		return models.Group{}, nil, Pagination{}, err
	}
	return group, posts, p, nil
}

// ListByAuthor returns the author's posts newest-first. Unknown usernames
// surface ErrNotFound.
func (r *Posts) ListByAuthor(username string, page int) (models.User, []models.Post, Pagination, error) {
	var author models.User
	if err := r.db.Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, nil, Pagination{}, ErrNotFound
		}
		return models.User{}, nil, Pagination{}, err
	}
	var posts []models.Post
	query := r.db.Preload("Author").Preload("Group").
		Where("author_id = ?", author.ID).
		Order("created_at DESC, id DESC")
	p, err := paginate(query, &models.Post{}, page, &posts)
	if err != nil {
		return models.User{}, nil, Pagination{}, err
	}
	return author, posts, p, nil
}

// ListFeed returns posts authored by everyone the user follows, newest-first.
// A user who follows no one gets an empty first page.
func (r *Posts) ListFeed(userID uint, page int) ([]models.Post, Pagination, error) {
	var posts []models.Post
	query := r.db.Preload("Author").Preload("Group").
		Where("author_id IN (?)", r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)).
		Order("created_at DESC, id DESC")
	p, err := paginate(query, &models.Post{}, page, &posts)
	if err != nil {
		return nil, Pagination{}, err
	}
	return posts, p, nil
}

// CountByAuthor returns how many posts an author has published.
func (r *Posts) CountByAuthor(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}
