// Package mongorepo implements the repository contract on MongoDB. Every
// relationship is a separate document (posts, comments, likes and follow
// edges) found through secondary indexes, so no document grows with a
// user's activity.
package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/iliyamo/snapgram/internal/repository"
)

// Collection names.
const (
	colUsers    = "users"
	colPosts    = "posts"
	colComments = "comments"
	colLikes    = "likes"
	colFollows  = "follows"
	colRevoked  = "black_listed_tokens"
	colResets   = "reset_tokens"
)

type repos struct {
	users    *UserRepo
	posts    *PostRepo
	comments *CommentRepo
	likes    *LikeRepo
	follows  *FollowRepo
	revoked  *RevokedTokenRepo
	resets   *ResetTokenRepo
}

func (r repos) Users() repository.Users                 { return r.users }
func (r repos) Posts() repository.Posts                 { return r.posts }
func (r repos) Comments() repository.Comments           { return r.comments }
func (r repos) Likes() repository.Likes                 { return r.likes }
func (r repos) Follows() repository.Follows             { return r.follows }
func (r repos) RevokedTokens() repository.RevokedTokens { return r.revoked }
func (r repos) ResetTokens() repository.ResetTokens     { return r.resets }

// Store is a repository.Store backed by one MongoDB database.
type Store struct {
	repos
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

var _ repository.Store = (*Store)(nil)

// Connect dials uri, verifies the connection and returns a Store on dbName.
// transactions must only be enabled against a replica set or sharded
// cluster; without it WithTx runs fn directly.
func Connect(ctx context.Context, uri, dbName string, transactions bool) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, client.Database(dbName), transactions), nil
}

// New wraps an existing client and database.
func New(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	return &Store{
		repos: repos{
			users:    &UserRepo{c: db.Collection(colUsers)},
			posts:    &PostRepo{c: db.Collection(colPosts)},
			comments: &CommentRepo{c: db.Collection(colComments)},
			likes:    &LikeRepo{c: db.Collection(colLikes)},
			follows:  &FollowRepo{c: db.Collection(colFollows)},
			revoked:  &RevokedTokenRepo{c: db.Collection(colRevoked)},
			resets:   &ResetTokenRepo{c: db.Collection(colResets)},
		},
		client:       client,
		db:           db,
		transactions: transactions,
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories
// rely on. It is safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	asc := func(keys ...string) bson.D {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return d
	}
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}
	named := func(name string) *options.IndexOptions {
		return options.Index().SetName(name)
	}
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: asc("email"), Options: unique("uq_users_email")},
			{Keys: asc("username"), Options: unique("uq_users_username")},
		},
		colPosts: {
			{Keys: asc("user_id", "created_at"), Options: named("idx_posts_user")},
		},
		colComments: {
			{Keys: asc("post_id", "created_at"), Options: named("idx_comments_post")},
			{Keys: asc("user_id"), Options: named("idx_comments_user")},
		},
		colLikes: {
			{Keys: asc("user_id", "post_id"), Options: unique("uq_likes_user_post")},
			{Keys: asc("post_id"), Options: named("idx_likes_post")},
		},
		colFollows: {
			{Keys: asc("follower_id", "followee_id"), Options: unique("uq_follows_edge")},
			{Keys: asc("followee_id"), Options: named("idx_follows_followee")},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// WithTx runs fn in a multi-document transaction when transactions are
// enabled. The session context handed to fn carries the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if !s.transactions {
		return fn(ctx, s.repos)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.repos)
	})
	return err
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error { return s.db.Drop(ctx) }

// Ping checks that the primary answers.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, readpref.Primary()) }

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func byCreated() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
}

// findAll decodes every document matching filter and converts it.
func findAll[D any, T any](ctx context.Context, c *mongo.Collection, filter any, conv func(*D) *T, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		var d D
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, conv(&d))
	}
	return out, cur.Err()
}

// findOne decodes the single document matching filter.
func findOne[D any, T any](ctx context.Context, c *mongo.Collection, filter any, conv func(*D) *T) (*T, error) {
	var d D
	err := c.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv(&d), nil
}

func deleteOne(ctx context.Context, c *mongo.Collection, filter any) error {
	res, err := c.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func deleteMany(ctx context.Context, c *mongo.Collection, filter any) (int64, error) {
	res, err := c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// userConflict maps a duplicate key error on users to the sentinel named
// by the violated index.
func userConflict(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "uq_users_email"):
		return repository.ErrEmailExists
	case strings.Contains(msg, "uq_users_username"):
		return repository.ErrUsernameExists
	}
	return repository.ErrConflict
}
