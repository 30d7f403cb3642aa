package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanberk/blogforum/internal/cache"
	"github.com/ozanberk/blogforum/internal/models"
)

func TestAddCommentInvalidatesOnlyThatPost(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	now := time.Now()
	target := models.Post{Title: "Target", Content: "<p>hi</p>", DatePosted: now, AuthorID: alice.ID}
	other := models.Post{Title: "Other", Content: "<p>hi</p>", DatePosted: now, AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&target).Error)
	require.NoError(t, e.db.Create(&other).Error)

	// Prime both detail views (after login, which flushed the cache).
	for _, p := range []models.Post{target, other} {
		w := e.do(t, http.MethodGet, postPath(p.ID, ""), nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := e.do(t, http.MethodPost, postPath(target.ID, "comment"), gin.H{
		"content": "well *said*",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, cached := e.store.Get(cache.PostKey(target.ID))
	assert.False(t, cached, "commented post still cached")
	_, cached = e.store.Get(cache.PostKey(other.ID))
	assert.True(t, cached, "unrelated post invalidated")

	var comment models.Comment
	require.NoError(t, e.db.First(&comment).Error)
	assert.Contains(t, comment.Content, "<em>said</em>")
	assert.Equal(t, target.ID, comment.PostID)
}

func TestAddCommentMissingPost(t *testing.T) {
	e := newEnv(t)
	e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	w := e.do(t, http.MethodPost, "/post/9999/comment", gin.H{"content": "into the void"}, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count, "orphan comment created")
}

func TestDeleteCommentByAuthor(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	cookies := e.login(t, "alice")

	post := models.Post{Title: "Post", Content: "<p>hi</p>", DatePosted: time.Now(), AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&post).Error)
	comment := models.Comment{Content: "<p>oops</p>", DatePosted: time.Now(), PostID: post.ID, AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&comment).Error)

	w := e.do(t, http.MethodPost, "/admin/delete_comment/"+itoa(comment.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	require.NoError(t, e.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteCommentForbiddenForStrangers(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	e.createUser(t, "bob", models.RoleUser)

	post := models.Post{Title: "Post", Content: "<p>hi</p>", DatePosted: time.Now(), AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&post).Error)
	comment := models.Comment{Content: "<p>keep</p>", DatePosted: time.Now(), PostID: post.ID, AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&comment).Error)

	cookies := e.login(t, "bob")
	w := e.do(t, http.MethodPost, "/admin/delete_comment/"+itoa(comment.ID), nil, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&models.Comment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteCommentByAdmin(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", models.RoleUser)
	e.createUser(t, "root", models.RoleAdmin)

	post := models.Post{Title: "Post", Content: "<p>hi</p>", DatePosted: time.Now(), AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&post).Error)
	comment := models.Comment{Content: "<p>spam</p>", DatePosted: time.Now(), PostID: post.ID, AuthorID: alice.ID}
	require.NoError(t, e.db.Create(&comment).Error)

	cookies := e.login(t, "root")
	w := e.do(t, http.MethodPost, "/admin/delete_comment/"+itoa(comment.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	require.NoError(t, e.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}
