package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ReactionKind is the closed set of post reactions.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is one of the known reaction kinds.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// User represents a registered account.
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Username    string         `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null;size:150"`
	Password    string         `json:"-" gorm:"not null;size:150"`
	Role        Role           `json:"role" gorm:"not null;default:user;size:50"`
	Avatar      string         `json:"avatar,omitempty" gorm:"size:150"`
	Bio         string         `json:"bio,omitempty" gorm:"type:text"`
	SocialLinks datatypes.JSON `json:"social_links,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`

	Posts     []Post     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Comments  []Comment  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Media     []Media    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Reactions []Reaction `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanModify is the single ownership predicate used by every mutating
// handler: the acting user may modify a resource it owns, admins may
// modify anything.
func (u *User) CanModify(ownerID uint) bool {
	return u.ID == ownerID || u.IsAdmin()
}

// Post is an authored entry. Content holds sanitized HTML rendered once
// at write time; DatePosted is set at creation and never updated.
type Post struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"not null;size:200"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	MediaFilename string    `json:"media_filename,omitempty" gorm:"size:150"`
	DatePosted    time.Time `json:"date_posted" gorm:"not null"`
	AuthorID      uint      `json:"author_id" gorm:"not null;index"`

	Author    *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Comments  []Comment  `json:"comments,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Reactions []Reaction `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Tags      []Tag      `json:"tags,omitempty" gorm:"many2many:post_tags;constraint:OnDelete:CASCADE"`
}

// Comment belongs to exactly one post and one author.
type Comment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	DatePosted time.Time `json:"date_posted" gorm:"not null"`
	PostID     uint      `json:"post_id" gorm:"not null;index"`
	AuthorID   uint      `json:"author_id" gorm:"not null;index"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// Tag has an independent lifecycle; deleting a tag only removes its
// post_tags join rows, never the posts.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:30"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null;size:50"`

	Posts []Post `json:"-" gorm:"many2many:post_tags"`
}

// Media is an uploaded file owned by a user, optionally attached to a
// post. Removing the row does not remove the file; callers go through
// media.Storage for filesystem cleanup.
type Media struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Filename     string    `json:"filename" gorm:"not null;size:150"`
	Filetype     string    `json:"filetype" gorm:"not null;size:100"`
	DateUploaded time.Time `json:"date_uploaded" gorm:"not null"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	PostID       *uint     `json:"post_id,omitempty" gorm:"index"`
}

// Reaction records one user's like/dislike of one post. The composite
// unique index enforces the at-most-one-row-per-(user,post) invariant;
// writers upsert on conflict rather than check-then-insert.
type Reaction struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	UserID uint         `json:"user_id" gorm:"not null;uniqueIndex:idx_reactions_user_post"`
	PostID uint         `json:"post_id" gorm:"not null;uniqueIndex:idx_reactions_user_post"`
	Kind   ReactionKind `json:"kind" gorm:"not null;size:10"`
}

// All lists every entity for migration, parents before children.
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Post{},
		&Comment{},
		&Media{},
		&Reaction{},
	}
}
