package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanberk/blogforum/internal/cache"
	"github.com/ozanberk/blogforum/internal/models"
)

func TestCreatePostWithTags(t *testing.T) {
	e := newEnv(t)
	e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	// Prime the home cache so invalidation is observable.
	w := e.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, cached := e.store.Get(cache.HomeKey(1))
	require.True(t, cached, "home page not cached after read")

	w = e.do(t, http.MethodPost, "/new_post", gin.H{
		"title":   "Launch day",
		"content": "We **shipped** it",
		"tags":    "News, Tech",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tags []models.Tag
	require.NoError(t, e.db.Order("slug").Find(&tags).Error)
	require.Len(t, tags, 2)
	assert.Equal(t, "news", tags[0].Slug)
	assert.Equal(t, "tech", tags[1].Slug)

	// The mutation must have dropped the cached home page...
	_, cached = e.store.Get(cache.HomeKey(1))
	assert.False(t, cached, "home cache survived post creation")

	// ...so the very next read reflects the new post.
	w = e.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Launch day")
	assert.Contains(t, w.Body.String(), "<strong>shipped</strong>")
}

func TestCreatePostSanitizesContent(t *testing.T) {
	e := newEnv(t)
	e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	w := e.do(t, http.MethodPost, "/new_post", gin.H{
		"title":   "<script>alert(1)</script>Safe title",
		"content": "hello <script>alert(1)</script> world",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var post models.Post
	require.NoError(t, e.db.First(&post).Error)
	assert.Equal(t, "Safe title", post.Title)
	assert.NotContains(t, post.Content, "<script")
}

func TestCreatePostRequiresLogin(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/new_post", gin.H{
		"title":   "anon",
		"content": "body",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePostRateLimited(t *testing.T) {
	e := newEnv(t)
	e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	for i := 0; i < 2; i++ {
		w := e.do(t, http.MethodPost, "/new_post", gin.H{
			"title":   "post",
			"content": "body",
		}, cookies)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	// Budget is 2/minute: the third create within the window is
	// rejected before the persistence layer is touched.
	w := e.do(t, http.MethodPost, "/new_post", gin.H{
		"title":   "over budget",
		"content": "body",
	}, cookies)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "rate-limited request left a row behind")
}

func TestUpdatePostForbiddenForStrangers(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	e.createUser(t, "bob", models.RoleUser)

	post := models.Post{Title: "Alice's post", Content: "<p>hi</p>", DatePosted: time.Now(), AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&post).Error)

	cookies := e.login(t, "bob")
	w := e.do(t, http.MethodPost, postPath(post.ID, "update"), gin.H{
		"title":   "Bob's now",
		"content": "mine",
	}, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var got models.Post
	require.NoError(t, e.db.First(&got, post.ID).Error)
	assert.Equal(t, "Alice's post", got.Title)
}

func TestUpdatePostByAdmin(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	e.createUser(t, "root", models.RoleAdmin)

	post := models.Post{Title: "Original", Content: "<p>hi</p>", DatePosted: time.Now(), AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&post).Error)

	cookies := e.login(t, "root")
	w := e.do(t, http.MethodPost, postPath(post.ID, "update"), gin.H{
		"title":   "Moderated",
		"content": "cleaned up",
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Post
	require.NoError(t, e.db.First(&got, post.ID).Error)
	assert.Equal(t, "Moderated", got.Title)
	// DatePosted is immutable on update.
	assert.WithinDuration(t, post.DatePosted, got.DatePosted, time.Second)
}

func TestDeletePostForbiddenLeavesCacheAlone(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	e.createUser(t, "bob", models.RoleUser)

	post := models.Post{Title: "Keep me", Content: "<p>hi</p>", DatePosted: time.Now(), AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&post).Error)

	// Prime the post-detail cache.
	w := e.do(t, http.MethodGet, postPath(post.ID, ""), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, cached := e.store.Get(cache.PostKey(post.ID))
	require.True(t, cached)

	cookies := e.login(t, "bob")
	// Login flushes the cache; re-prime before the forbidden attempt.
	w = e.do(t, http.MethodGet, postPath(post.ID, ""), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, postPath(post.ID, "delete"), nil, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "post deleted despite forbidden response")

	_, cached = e.store.Get(cache.PostKey(post.ID))
	assert.True(t, cached, "cache invalidated by a rejected mutation")
}

func TestDeletePostCascades(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	w := e.do(t, http.MethodPost, "/new_post", gin.H{
		"title":   "Doomed",
		"content": "body",
		"tags":    "Tech",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var post models.Post
	require.NoError(t, e.db.First(&post).Error)

	comment := models.Comment{Content: "<p>nice</p>", DatePosted: time.Now(), PostID: post.ID, AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&comment).Error)
	reaction := models.Reaction{UserID: alice.ID, PostID: post.ID, Kind: models.ReactionLike}
	require.NoError(t, e.db.Create(&reaction).Error)

	w = e.do(t, http.MethodPost, postPath(post.ID, "delete"), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var posts, comments, reactions, tagCount int64
	e.db.Model(&models.Post{}).Count(&posts)
	e.db.Model(&models.Comment{}).Count(&comments)
	e.db.Model(&models.Reaction{}).Count(&reactions)
	e.db.Model(&models.Tag{}).Count(&tagCount)
	assert.Zero(t, posts)
	assert.Zero(t, comments, "comments survived post deletion")
	assert.Zero(t, reactions, "reactions survived post deletion")
	// Tags have an independent lifecycle.
	assert.EqualValues(t, 1, tagCount)
}

func TestSearchFindsByTitleAndContent(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	now := time.Now()
	require.NoError(t, e.db.Create(&models.Post{Title: "Gopher news", Content: "<p>hello</p>", DatePosted: now, AuthorID: alice.ID}).Error)
	require.NoError(t, e.db.Create(&models.Post{Title: "Other", Content: "<p>gopher inside</p>", DatePosted: now, AuthorID: alice.ID}).Error)
	require.NoError(t, e.db.Create(&models.Post{Title: "Unrelated", Content: "<p>nothing</p>", DatePosted: now, AuthorID: alice.ID}).Error)

	w := e.do(t, http.MethodGet, "/search?q=GOPHER", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Pagination.Total)

	w = e.do(t, http.MethodGet, "/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func postPath(id uint, action string) string {
	p := "/post/" + itoa(id)
	if action != "" {
		p += "/" + action
	}
	return p
}
