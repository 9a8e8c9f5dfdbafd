package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
)

// UserRepo is the users collection.
type UserRepo struct{ c *mongo.Collection }

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.c.InsertOne(ctx, toUserDoc(u))
	if mongo.IsDuplicateKeyError(err) {
		return userConflict(err)
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return findOne(ctx, r.c, bson.M{"_id": id}, (*userDoc).model)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne(ctx, r.c, bson.M{"email": email}, (*userDoc).model)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return findOne(ctx, r.c, bson.M{"username": username}, (*userDoc).model)
}

func (r *UserRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	return findAll(ctx, r.c, bson.M{"_id": bson.M{"$in": ids}}, (*userDoc).model, byCreated())
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	return findAll(ctx, r.c, bson.M{}, (*userDoc).model, byCreated())
}

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	res, err := r.c.ReplaceOne(ctx, bson.M{"_id": u.ID}, toUserDoc(u))
	if mongo.IsDuplicateKeyError(err) {
		return userConflict(err)
	}
	return matched(res, err)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": at.UTC()}}))
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

// PostRepo is the posts collection.
type PostRepo struct{ c *mongo.Collection }

func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	_, err := r.c.InsertOne(ctx, toPostDoc(p))
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return findOne(ctx, r.c, bson.M{"_id": id}, (*postDoc).model)
}

func (r *PostRepo) List(ctx context.Context) ([]*model.Post, error) {
	return findAll(ctx, r.c, bson.M{}, (*postDoc).model, byCreated())
}

func (r *PostRepo) ListByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	return findAll(ctx, r.c, bson.M{"user_id": userID}, (*postDoc).model, byCreated())
}

func (r *PostRepo) Update(ctx context.Context, p *model.Post) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"content": p.Content, "media_type": p.MediaType, "media_url": p.MediaURL, "updated_at": p.UpdatedAt.UTC(),
	}}))
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

// CommentRepo is the comments collection.
type CommentRepo struct{ c *mongo.Collection }

func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	_, err := r.c.InsertOne(ctx, commentDoc{
		ID: c.ID, PostID: c.PostID, UserID: c.UserID, Content: c.Content,
		CreatedAt: c.CreatedAt.UTC(), UpdatedAt: c.UpdatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *CommentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	return findOne(ctx, r.c, bson.M{"_id": id}, (*commentDoc).model)
}

func (r *CommentRepo) List(ctx context.Context) ([]*model.Comment, error) {
	return findAll(ctx, r.c, bson.M{}, (*commentDoc).model, byCreated())
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	return findAll(ctx, r.c, bson.M{"post_id": postID}, (*commentDoc).model, byCreated())
}

func (r *CommentRepo) Update(ctx context.Context, c *model.Comment) error {
	return matched(r.c.UpdateOne(ctx, bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{"content": c.Content, "updated_at": c.UpdatedAt.UTC()}}))
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

func (r *CommentRepo) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	return deleteMany(ctx, r.c, bson.M{"post_id": postID})
}

func (r *CommentRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return deleteMany(ctx, r.c, bson.M{"user_id": userID})
}

// LikeRepo is the likes collection.
type LikeRepo struct{ c *mongo.Collection }

func (r *LikeRepo) Create(ctx context.Context, l *model.Like) error {
	_, err := r.c.InsertOne(ctx, likeDoc{
		ID: l.ID, UserID: l.UserID, PostID: l.PostID,
		CreatedAt: l.CreatedAt.UTC(), UpdatedAt: l.UpdatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *LikeRepo) GetByID(ctx context.Context, id string) (*model.Like, error) {
	return findOne(ctx, r.c, bson.M{"_id": id}, (*likeDoc).model)
}

func (r *LikeRepo) GetByUserAndPost(ctx context.Context, userID, postID string) (*model.Like, error) {
	return findOne(ctx, r.c, bson.M{"user_id": userID, "post_id": postID}, (*likeDoc).model)
}

func (r *LikeRepo) ListByPost(ctx context.Context, postID string) ([]*model.Like, error) {
	return findAll(ctx, r.c, bson.M{"post_id": postID}, (*likeDoc).model, byCreated())
}

func (r *LikeRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id})
}

func (r *LikeRepo) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	return deleteMany(ctx, r.c, bson.M{"post_id": postID})
}

func (r *LikeRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return deleteMany(ctx, r.c, bson.M{"user_id": userID})
}

// FollowRepo is the follows edge collection.
type FollowRepo struct{ c *mongo.Collection }

// Create upserts the edge so a repeated follow keeps the original record.
func (r *FollowRepo) Create(ctx context.Context, f *model.Follow) error {
	filter := bson.M{"follower_id": f.FollowerID, "followee_id": f.FolloweeID}
	_, err := r.c.UpdateOne(ctx, filter,
		bson.M{"$setOnInsert": followDoc{FollowerID: f.FollowerID, FolloweeID: f.FolloweeID, CreatedAt: f.CreatedAt.UTC()}},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *FollowRepo) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	n, err := deleteMany(ctx, r.c, bson.M{"follower_id": followerID, "followee_id": followeeID})
	return n > 0, err
}

func (r *FollowRepo) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID},
		options.Count().SetLimit(1))
	return n > 0, err
}

func (r *FollowRepo) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	docs, err := findAll(ctx, r.c, bson.M{"followee_id": userID}, func(d *followDoc) *string { return &d.FollowerID }, byCreated())
	return derefAll(docs), err
}

func (r *FollowRepo) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	docs, err := findAll(ctx, r.c, bson.M{"follower_id": userID}, func(d *followDoc) *string { return &d.FolloweeID }, byCreated())
	return derefAll(docs), err
}

func (r *FollowRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return deleteMany(ctx, r.c, bson.M{"$or": bson.A{
		bson.M{"follower_id": userID},
		bson.M{"followee_id": userID},
	}})
}

func derefAll(ptrs []*string) []string {
	out := make([]string, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out
}

// RevokedTokenRepo is the black_listed_tokens collection, keyed by the
// token digest.
type RevokedTokenRepo struct{ c *mongo.Collection }

func (r *RevokedTokenRepo) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	_, err := r.c.InsertOne(ctx, revokedDoc{Key: repository.TokenKey(token), Token: token, BlacklistedOn: at.UTC()})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"_id": repository.TokenKey(token)}, options.Count().SetLimit(1))
	return n > 0, err
}

// ResetTokenRepo is the reset_tokens collection.
type ResetTokenRepo struct{ c *mongo.Collection }

func (r *ResetTokenRepo) Consume(ctx context.Context, jti, userID string, at time.Time) error {
	_, err := r.c.InsertOne(ctx, resetDoc{JTI: jti, UserID: userID, ConsumedAt: at.UTC()})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrConflict
	}
	return err
}
