package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/config"
	"github.com/sgamb/yatut/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret", LogLevel: "silent"})
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := config.OpenDatabase(sqlite.Open(dsn),
		&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return db
}

func mkUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x"}
	if err := NewUsers(db).Create(&user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func mkPost(t *testing.T, db *gorm.DB, author models.User, text string, groupID *uint, created time.Time) models.Post {
	t.Helper()
	post := models.Post{AuthorID: author.ID, Text: text, GroupID: groupID, CreatedAt: created}
	if err := NewPosts(db).Create(&post); err != nil {
		t.Fatalf("create post %q: %v", text, err)
	}
	return post
}

func postCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Post{}).Count(&count).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	return count
}

func TestPostsCreateRejectsBlankText(t *testing.T) {
	db := newTestDB(t)
	author := mkUser(t, db, "leo")
	repo := NewPosts(db)

	for _, text := range []string{"", "   ", "\n\t "} {
		post := models.Post{AuthorID: author.ID, Text: text}
		if err := repo.Create(&post); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("text %q: want ErrEmptyText, got %v", text, err)
		}
	}
	if n := postCount(t, db); n != 0 {
		t.Fatalf("blank posts were persisted: count=%d", n)
	}

	post := models.Post{AuthorID: author.ID, Text: "настоящий текст"}
	if err := repo.Create(&post); err != nil {
		t.Fatalf("valid post rejected: %v", err)
	}
	if n := postCount(t, db); n != 1 {
		t.Fatalf("want 1 post after create, got %d", n)
	}
}

func TestPostsPagination(t *testing.T) {
	db := newTestDB(t)
	author := mkUser(t, db, "leo")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		mkPost(t, db, author, fmt.Sprintf("запись %d", i+1), nil, base.Add(time.Duration(i)*time.Minute))
	}
	repo := NewPosts(db)

	posts, p, err := repo.ListAll(1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(posts) != PageSize {
		t.Fatalf("page 1: want %d posts, got %d", PageSize, len(posts))
	}
	if posts[0].Text != "запись 13" {
		t.Fatalf("page 1 should start with the newest post, got %q", posts[0].Text)
	}
	if p.Page != 1 || p.Total != 13 || p.TotalPages != 2 {
		t.Fatalf("page 1 pagination wrong: %+v", p)
	}
	if !p.HasNext() || p.HasPrev() {
		t.Fatalf("page 1 navigation wrong: %+v", p)
	}

	posts, p, err = repo.ListAll(2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("page 2: want 3 posts, got %d", len(posts))
	}
	if posts[len(posts)-1].Text != "запись 1" {
		t.Fatalf("page 2 should end with the oldest post, got %q", posts[len(posts)-1].Text)
	}
	if p.HasNext() || !p.HasPrev() {
		t.Fatalf("page 2 navigation wrong: %+v", p)
	}
}

func TestPostsPageClamping(t *testing.T) {
	db := newTestDB(t)
	author := mkUser(t, db, "leo")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		mkPost(t, db, author, fmt.Sprintf("запись %d", i+1), nil, base.Add(time.Duration(i)*time.Minute))
	}
	repo := NewPosts(db)

	for _, page := range []int{0, -5} {
		posts, p, err := repo.ListAll(page)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if p.Page != 1 || len(posts) != PageSize {
			t.Fatalf("page %d should clamp to first page, got page=%d len=%d", page, p.Page, len(posts))
		}
	}

	posts, p, err := repo.ListAll(99)
	if err != nil {
		t.Fatalf("page 99: %v", err)
	}
	if p.Page != 2 || len(posts) != 3 {
		t.Fatalf("page 99 should clamp to last page, got page=%d len=%d", p.Page, len(posts))
	}
}

func TestPaginationOnEmptyTable(t *testing.T) {
	db := newTestDB(t)
	repo := NewPosts(db)

	posts, p, err := repo.ListAll(7)
	if err != nil {
		t.Fatalf("empty listing: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("want empty slice, got %d posts", len(posts))
	}
	if p.Page != 1 || p.TotalPages != 1 || p.HasNext() || p.HasPrev() {
		t.Fatalf("empty pagination wrong: %+v", p)
	}
}

func TestPostsListByGroup(t *testing.T) {
	db := newTestDB(t)
	author := mkUser(t, db, "leo")
	groups := NewGroups(db)
	cats := models.Group{Title: "Коты", Slug: "cats"}
	dogs := models.Group{Title: "Собаки", Slug: "dogs"}
	if err := groups.Create(&cats); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := groups.Create(&dogs); err != nil {
		t.Fatalf("create group: %v", err)
	}
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mkPost(t, db, author, "про котов", &cats.ID, base)
	mkPost(t, db, author, "про собак", &dogs.ID, base.Add(time.Minute))
	mkPost(t, db, author, "без группы", nil, base.Add(2*time.Minute))

	repo := NewPosts(db)
	group, posts, _, err := repo.ListByGroup("cats", 1)
	if err != nil {
		t.Fatalf("list by group: %v", err)
	}
	if group.Slug != "cats" {
		t.Fatalf("wrong group loaded: %+v", group)
	}
	if len(posts) != 1 || posts[0].Text != "про котов" {
		t.Fatalf("group listing leaked other posts: %+v", posts)
	}

	if _, _, _, err := repo.ListByGroup("birds", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown slug: want ErrNotFound, got %v", err)
	}
}

func TestPostsGetByAuthorAndID(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	anna := mkUser(t, db, "anna")
	post := mkPost(t, db, leo, "моя запись", nil, time.Now())

	repo := NewPosts(db)
	got, err := repo.GetByAuthorAndID("leo", post.ID)
	if err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if got.Author.Username != "leo" {
		t.Fatalf("author not preloaded: %+v", got.Author)
	}

	if _, err := repo.GetByAuthorAndID(anna.Username, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mismatched author/id pair: want ErrNotFound, got %v", err)
	}
}

func TestPostsFeed(t *testing.T) {
	db := newTestDB(t)
	reader := mkUser(t, db, "reader")
	followed := mkUser(t, db, "followed")
	other := mkUser(t, db, "other")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mkPost(t, db, followed, "первая", nil, base)
	mkPost(t, db, followed, "вторая", nil, base.Add(time.Minute))
	mkPost(t, db, other, "чужая", nil, base.Add(2*time.Minute))

	if err := NewFollows(db).Follow(reader.ID, followed.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	repo := NewPosts(db)
	posts, _, err := repo.ListFeed(reader.ID, 1)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("feed should only contain followed authors, got %d posts", len(posts))
	}
	for _, p := range posts {
		if p.AuthorID != followed.ID {
			t.Fatalf("feed leaked post by author %d", p.AuthorID)
		}
	}
	if posts[0].Text != "вторая" {
		t.Fatalf("feed should be newest-first, got %q", posts[0].Text)
	}

	// A reader following nobody gets an empty first page.
	posts, p, err := repo.ListFeed(other.ID, 1)
	if err != nil {
		t.Fatalf("empty feed: %v", err)
	}
	if len(posts) != 0 || p.Page != 1 {
		t.Fatalf("empty feed wrong: len=%d page=%d", len(posts), p.Page)
	}
}

func TestPostsUpdate(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	post := mkPost(t, db, leo, "старый текст", nil, time.Now())
	repo := NewPosts(db)

	if err := repo.Update(&post, "  ", nil, ""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("blank update: want ErrEmptyText, got %v", err)
	}

	if err := repo.Update(&post, "новый текст", nil, ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetByID(post.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Text != "новый текст" {
		t.Fatalf("update not persisted, text=%q", got.Text)
	}
}

func TestPostsDeleteCascadesComments(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	post := mkPost(t, db, leo, "с комментариями", nil, time.Now())
	comments := NewComments(db)
	if err := comments.Create(&models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "раз"}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := comments.Create(&models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "два"}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	if err := NewPosts(db).Delete(post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	var count int64
	if err := db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if count != 0 {
		t.Fatalf("comments survived post deletion: %d", count)
	}

	if err := NewPosts(db).Delete(post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestGroupsDeleteClearsPostGroup(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	groups := NewGroups(db)
	cats := models.Group{Title: "Коты", Slug: "cats"}
	if err := groups.Create(&cats); err != nil {
		t.Fatalf("create group: %v", err)
	}
	post := mkPost(t, db, leo, "про котов", &cats.ID, time.Now())

	if err := groups.Delete(cats.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	got, err := NewPosts(db).GetByID(post.ID)
	if err != nil {
		t.Fatalf("post should survive group deletion: %v", err)
	}
	if got.GroupID != nil {
		t.Fatalf("group reference not cleared: %v", *got.GroupID)
	}
}

func TestUsersDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	anna := mkUser(t, db, "anna")
	post := mkPost(t, db, leo, "запись Льва", nil, time.Now())
	annaPost := mkPost(t, db, anna, "запись Анны", nil, time.Now())

	comments := NewComments(db)
	// Anna comments on Leo's post, Leo comments on Anna's.
	if err := comments.Create(&models.Comment{PostID: post.ID, AuthorID: anna.ID, Text: "от Анны"}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := comments.Create(&models.Comment{PostID: annaPost.ID, AuthorID: leo.ID, Text: "от Льва"}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	follows := NewFollows(db)
	if err := follows.Follow(anna.ID, leo.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	if err := NewUsers(db).Delete(leo.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var posts, cmts, edges int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&cmts)
	db.Model(&models.Follow{}).Count(&edges)
	if posts != 1 {
		t.Fatalf("want only Anna's post to remain, got %d posts", posts)
	}
	if cmts != 0 {
		t.Fatalf("want no comments to remain, got %d", cmts)
	}
	if edges != 0 {
		t.Fatalf("follow edges survived user deletion: %d", edges)
	}
}

func TestFollowsInvariants(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	anna := mkUser(t, db, "anna")
	repo := NewFollows(db)

	if err := repo.Follow(leo.ID, leo.ID); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("self-follow: want ErrSelfFollow, got %v", err)
	}

	if err := repo.Follow(leo.ID, anna.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := repo.Follow(leo.ID, anna.ID); !errors.Is(err, ErrDuplicateFollow) {
		t.Fatalf("duplicate follow: want ErrDuplicateFollow, got %v", err)
	}

	following, err := repo.IsFollowing(leo.ID, anna.ID)
	if err != nil || !following {
		t.Fatalf("IsFollowing: want true, got %v %v", following, err)
	}
	if n, _ := repo.FollowerCount(anna.ID); n != 1 {
		t.Fatalf("follower count: want 1, got %d", n)
	}
	if n, _ := repo.FollowingCount(leo.ID); n != 1 {
		t.Fatalf("following count: want 1, got %d", n)
	}

	if err := repo.Unfollow(leo.ID, anna.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := repo.Unfollow(leo.ID, anna.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unfollow missing edge: want ErrNotFound, got %v", err)
	}
}

func TestFollowsListAuthors(t *testing.T) {
	db := newTestDB(t)
	reader := mkUser(t, db, "reader")
	first := mkUser(t, db, "first")
	second := mkUser(t, db, "second")
	repo := NewFollows(db)
	if err := repo.Follow(reader.ID, first.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := repo.Follow(reader.ID, second.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	authors, err := repo.ListAuthors(reader.ID)
	if err != nil {
		t.Fatalf("list authors: %v", err)
	}
	if len(authors) != 2 {
		t.Fatalf("want 2 authors, got %d", len(authors))
	}
}

func TestCommentsCreate(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	post := mkPost(t, db, leo, "запись", nil, time.Now())
	repo := NewComments(db)

	if err := repo.Create(&models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "  "}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("blank comment: want ErrEmptyText, got %v", err)
	}
	if err := repo.Create(&models.Comment{PostID: post.ID + 1000, AuthorID: leo.ID, Text: "куда?"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("comment on missing post: want ErrNotFound, got %v", err)
	}
	if err := repo.Create(&models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "норм"}); err != nil {
		t.Fatalf("valid comment: %v", err)
	}
}

func TestCommentsListByPostOrder(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	post := mkPost(t, db, leo, "запись", nil, time.Now())
	repo := NewComments(db)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"первый", "второй", "третий"} {
		c := models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(&c); err != nil {
			t.Fatalf("comment %q: %v", text, err)
		}
	}

	comments, err := repo.ListByPost(post.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("want 3 comments, got %d", len(comments))
	}
	if comments[0].Text != "первый" || comments[2].Text != "третий" {
		t.Fatalf("comments not oldest-first: %q ... %q", comments[0].Text, comments[2].Text)
	}
	if comments[0].Author.Username != "leo" {
		t.Fatalf("comment author not preloaded: %+v", comments[0].Author)
	}
}

func TestUserAuthoredAssociations(t *testing.T) {
	db := newTestDB(t)
	leo := mkUser(t, db, "leo")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	post := mkPost(t, db, leo, "первая", nil, base)
	mkPost(t, db, leo, "вторая", nil, base.Add(time.Minute))
	if err := NewComments(db).Create(&models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "своя"}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	// Posts and Comments hang off the author id, not a conventional user_id
	// column; preloading through the association exercises that mapping.
	var user models.User
	if err := db.Preload("Posts").Preload("Comments").First(&user, leo.ID).Error; err != nil {
		t.Fatalf("preload author associations: %v", err)
	}
	if len(user.Posts) != 2 {
		t.Fatalf("want 2 authored posts, got %d", len(user.Posts))
	}
	if len(user.Comments) != 1 {
		t.Fatalf("want 1 authored comment, got %d", len(user.Comments))
	}
}

func TestUsersUsernameTaken(t *testing.T) {
	db := newTestDB(t)
	mkUser(t, db, "leo")
	repo := NewUsers(db)

	taken, err := repo.UsernameTaken("leo")
	if err != nil || !taken {
		t.Fatalf("want taken=true, got %v %v", taken, err)
	}
	taken, err = repo.UsernameTaken("anna")
	if err != nil || taken {
		t.Fatalf("want taken=false, got %v %v", taken, err)
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page      int
		total     int64
		wantPage  int
		wantPages int
	}{
		{1, 0, 1, 1},
		{0, 25, 1, 3},
		{-3, 25, 1, 3},
		{2, 25, 2, 3},
		{99, 25, 3, 3},
		{1, 10, 1, 1},
		{2, 11, 2, 2},
	}
	for _, c := range cases {
		p := clampPage(c.page, c.total)
		if p.Page != c.wantPage || p.TotalPages != c.wantPages {
			t.Errorf("clampPage(%d, %d) = page %d of %d, want page %d of %d",
				c.page, c.total, p.Page, p.TotalPages, c.wantPage, c.wantPages)
		}
	}
}
