package database

// Per-service DDL. Counters are plain integers mutated only by the
// projectors via GREATEST(col + delta, 0).

// SchemaUsers is owned by the user directory service.
const SchemaUsers = `
CREATE TABLE IF NOT EXISTS users (
	id          UUID PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	avatar      TEXT,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SchemaPosts is owned by the post service.
const SchemaPosts = `
CREATE TABLE IF NOT EXISTS posts (
	id            UUID PRIMARY KEY,
	author_id     UUID NOT NULL,
	content       TEXT NOT NULL,
	like_count    INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SchemaPostLikes records the local fact behind post.liked events.
const SchemaPostLikes = `
CREATE TABLE IF NOT EXISTS post_likes (
	post_id    UUID NOT NULL,
	user_id    UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (post_id, user_id)
)`

// SchemaComments is owned by the comment service.
const SchemaComments = `
CREATE TABLE IF NOT EXISTS comments (
	id                UUID PRIMARY KEY,
	post_id           UUID NOT NULL,
	user_id           UUID NOT NULL,
	content           TEXT NOT NULL,
	parent_comment_id UUID,
	like_count        INTEGER NOT NULL DEFAULT 0,
	is_deleted        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SchemaCommentLikes records the local fact behind comment.liked events.
const SchemaCommentLikes = `
CREATE TABLE IF NOT EXISTS comment_likes (
	comment_id UUID NOT NULL,
	user_id    UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (comment_id, user_id)
)`

// SchemaFollows is owned by the social graph service. Follower counts are
// derived by live query, never cached.
const SchemaFollows = `
CREATE TABLE IF NOT EXISTS follows (
	follower_id  UUID NOT NULL,
	following_id UUID NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (follower_id, following_id)
)`

// SchemaNotifications is owned by the notification service.
const SchemaNotifications = `
CREATE TABLE IF NOT EXISTS notifications (
	id           UUID PRIMARY KEY,
	recipient_id UUID NOT NULL,
	actor_id     UUID NOT NULL,
	post_id      UUID,
	comment_id   UUID,
	type         TEXT NOT NULL,
	title        TEXT NOT NULL,
	body         TEXT NOT NULL,
	is_read      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created
	ON notifications (recipient_id, created_at DESC, id DESC)`
