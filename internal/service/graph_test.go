package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
)

func TestCreatePostRequiresContentOrMedia(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")

	for _, in := range []PostInput{
		{UserID: id},
		{UserID: id, MediaType: "image/png"},
		{UserID: id, Content: "   "},
		{UserID: "ghost"},
	} {
		if _, err := e.graph.CreatePost(ctx, in); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("%+v: expected validation error, got %v", in, err)
		}
	}
	posts, _ := e.graph.ListPosts(ctx)
	if len(posts) != 0 {
		t.Fatalf("invalid posts were persisted: %d", len(posts))
	}

	if _, err := e.graph.CreatePost(ctx, PostInput{UserID: "ghost", Content: "x"}); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	p, err := e.graph.CreatePost(ctx, PostInput{UserID: id, MediaURL: "https://cdn/x.png", MediaType: "image/png"})
	if err != nil {
		t.Fatalf("media-only post: %v", err)
	}
	mine, _ := e.graph.ListUserPosts(ctx, id)
	if len(mine) != 1 || mine[0].ID != p.ID {
		t.Fatalf("post missing from owner's set: %v", mine)
	}
}

func TestPostAndCommentLengthLimits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")

	for _, in := range []PostInput{
		{UserID: id, MediaURL: "https://cdn/" + strings.Repeat("x", model.MaxMediaURLLength)},
		{UserID: id, Content: "hi", MediaType: strings.Repeat("t", model.MaxMediaTypeLength+1)},
		{UserID: id, Content: strings.Repeat("é", model.MaxContentLength+1)},
	} {
		if _, err := e.graph.CreatePost(ctx, in); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
	if posts, _ := e.graph.ListPosts(ctx); len(posts) != 0 {
		t.Fatalf("over-long posts were persisted: %d", len(posts))
	}

	p, err := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: strings.Repeat("é", model.MaxContentLength)})
	if err != nil {
		t.Fatalf("post at the limit: %v", err)
	}
	long := strings.Repeat("u", model.MaxMediaURLLength+1)
	if _, err := e.graph.UpdatePost(ctx, p.ID, model.PostPatch{MediaURL: &long}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error on update, got %v", err)
	}
	in := CommentInput{PostID: p.ID, UserID: id, Content: strings.Repeat("c", model.MaxContentLength+1)}
	if _, err := e.graph.AddComment(ctx, in); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error on comment, got %v", err)
	}
}

func TestUpdatePostRechecksInvariant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	p, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "hi"})

	empty := ""
	if _, err := e.graph.UpdatePost(ctx, p.ID, model.PostPatch{Content: &empty}); !errors.Is(err, model.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
	url := "https://cdn/y.png"
	got, err := e.graph.UpdatePost(ctx, p.ID, model.PostPatch{Content: &empty, MediaURL: &url})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Content != "" || got.MediaURL != url {
		t.Fatalf("unexpected post: %+v", got)
	}
	if _, err := e.graph.UpdatePost(ctx, "missing", model.PostPatch{}); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestAddLikeTwiceConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	p, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "hi"})

	l, err := e.graph.AddLike(ctx, id, p.ID)
	if err != nil || l.ID == "" {
		t.Fatalf("first like: %v, %v", l, err)
	}
	if _, err := e.graph.AddLike(ctx, id, p.ID); !errors.Is(err, model.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	if _, err := e.graph.AddLike(ctx, id, "missing"); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := e.graph.AddLike(ctx, "ghost", p.ID); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := e.graph.RemoveLike(ctx, l.ID); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := e.graph.RemoveLike(ctx, l.ID); !errors.Is(err, model.ErrLikeNotFound) {
		t.Fatalf("expected ErrLikeNotFound, got %v", err)
	}
	if _, err := e.graph.AddLike(ctx, id, p.ID); err != nil {
		t.Fatalf("like after unlike: %v", err)
	}
}

func TestDeletePostCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	bob, _ := e.register(t, "bob@x.com", "bob", "pw123456")
	p, _ := e.graph.CreatePost(ctx, PostInput{UserID: alice, Content: "hi"})
	keep, _ := e.graph.CreatePost(ctx, PostInput{UserID: alice, Content: "keep"})

	c1, _ := e.graph.AddComment(ctx, CommentInput{PostID: p.ID, UserID: bob, Content: "nice"})
	c2, _ := e.graph.AddComment(ctx, CommentInput{PostID: p.ID, UserID: alice, Content: "thanks"})
	l1, _ := e.graph.AddLike(ctx, bob, p.ID)
	other, _ := e.graph.AddComment(ctx, CommentInput{PostID: keep.ID, UserID: bob, Content: "still here"})

	if err := e.graph.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	for _, id := range []string{c1.ID, c2.ID} {
		if _, err := e.graph.GetComment(ctx, id); !errors.Is(err, model.ErrCommentNotFound) {
			t.Fatalf("comment %s survived: %v", id, err)
		}
	}
	if _, err := e.graph.GetLike(ctx, l1.ID); !errors.Is(err, model.ErrLikeNotFound) {
		t.Fatalf("like survived: %v", err)
	}
	if _, err := e.graph.GetPost(ctx, p.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("post survived: %v", err)
	}
	if _, err := e.graph.GetComment(ctx, other.ID); err != nil {
		t.Fatalf("unrelated comment removed: %v", err)
	}
	mine, _ := e.graph.ListUserPosts(ctx, alice)
	if len(mine) != 1 || mine[0].ID != keep.ID {
		t.Fatalf("owner's post set still references deleted post: %v", mine)
	}
	if err := e.graph.DeletePost(ctx, p.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	bob, _ := e.register(t, "bob@x.com", "bob", "pw123456")
	carol, _ := e.register(t, "carol@x.com", "carol", "pw123456")

	p1, _ := e.graph.CreatePost(ctx, PostInput{UserID: alice, Content: "one"})
	p2, _ := e.graph.CreatePost(ctx, PostInput{UserID: alice, Content: "two"})
	bp, _ := e.graph.CreatePost(ctx, PostInput{UserID: bob, Content: "bob's"})

	onAlice, _ := e.graph.AddComment(ctx, CommentInput{PostID: p1.ID, UserID: bob, Content: "c"})
	likeOnAlice, _ := e.graph.AddLike(ctx, carol, p2.ID)
	aliceOnBob, _ := e.graph.AddComment(ctx, CommentInput{PostID: bp.ID, UserID: alice, Content: "c"})
	aliceLike, _ := e.graph.AddLike(ctx, alice, bp.ID)
	bobOnBob, _ := e.graph.AddComment(ctx, CommentInput{PostID: bp.ID, UserID: bob, Content: "c"})

	_ = e.graph.Follow(ctx, alice, bob)
	_ = e.graph.Follow(ctx, carol, alice)
	_ = e.graph.Follow(ctx, carol, bob)

	if err := e.graph.DeleteUser(ctx, alice); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for _, id := range []string{p1.ID, p2.ID} {
		if _, err := e.graph.GetPost(ctx, id); !errors.Is(err, model.ErrPostNotFound) {
			t.Fatalf("post %s survived: %v", id, err)
		}
	}
	for _, id := range []string{onAlice.ID, aliceOnBob.ID} {
		if _, err := e.graph.GetComment(ctx, id); !errors.Is(err, model.ErrCommentNotFound) {
			t.Fatalf("comment %s survived: %v", id, err)
		}
	}
	for _, id := range []string{likeOnAlice.ID, aliceLike.ID} {
		if _, err := e.graph.GetLike(ctx, id); !errors.Is(err, model.ErrLikeNotFound) {
			t.Fatalf("like %s survived: %v", id, err)
		}
	}
	if _, err := e.graph.GetUser(ctx, alice); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("user survived: %v", err)
	}

	bobFollowers, _ := e.graph.Followers(ctx, bob)
	if len(bobFollowers) != 1 || bobFollowers[0].ID != carol {
		t.Fatalf("bob's followers should be [carol], got %v", bobFollowers)
	}
	carolFollowing, _ := e.graph.Following(ctx, carol)
	if len(carolFollowing) != 1 || carolFollowing[0].ID != bob {
		t.Fatalf("carol should only follow bob, got %v", carolFollowing)
	}
	if _, err := e.graph.GetComment(ctx, bobOnBob.ID); err != nil {
		t.Fatalf("unrelated comment removed: %v", err)
	}
	if err := e.graph.DeleteUser(ctx, alice); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFollowUnfollowRestoresState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, _ := e.register(t, "a@x.com", "a", "pw123456")
	b, _ := e.register(t, "b@x.com", "b", "pw123456")

	if err := e.graph.Follow(ctx, a, b); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := e.graph.Follow(ctx, a, b); err != nil {
		t.Fatalf("re-follow: %v", err)
	}
	followers, _ := e.graph.Followers(ctx, b)
	following, _ := e.graph.Following(ctx, a)
	if len(followers) != 1 || followers[0].ID != a || len(following) != 1 || following[0].ID != b {
		t.Fatalf("edge not symmetric: followers=%v following=%v", followers, following)
	}

	if err := e.graph.Unfollow(ctx, a, b); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	followers, _ = e.graph.Followers(ctx, b)
	following, _ = e.graph.Following(ctx, a)
	if len(followers) != 0 || len(following) != 0 {
		t.Fatalf("unfollow left state behind: %v %v", followers, following)
	}
	if err := e.graph.Unfollow(ctx, a, b); err != nil {
		t.Fatalf("unfollow without edge should be a no-op: %v", err)
	}

	if err := e.graph.Follow(ctx, a, a); !errors.Is(err, model.ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
	if err := e.graph.Follow(ctx, a, "ghost"); !errors.Is(err, model.ErrFolloweeNotFound) {
		t.Fatalf("expected ErrFolloweeNotFound, got %v", err)
	}
	if err := e.graph.Unfollow(ctx, a, "ghost"); !errors.Is(err, model.ErrFolloweeNotFound) {
		t.Fatalf("expected ErrFolloweeNotFound, got %v", err)
	}
}

func TestCommentLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	p, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "hi"})

	if _, err := e.graph.AddComment(ctx, CommentInput{PostID: p.ID, UserID: id, Content: " "}); !errors.Is(err, model.ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}
	if _, err := e.graph.AddComment(ctx, CommentInput{PostID: "missing", UserID: id, Content: "x"}); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	c, err := e.graph.AddComment(ctx, CommentInput{PostID: p.ID, UserID: id, Content: "first"})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := e.graph.UpdateComment(ctx, c.ID, "edited"); err != nil {
		t.Fatalf("update comment: %v", err)
	}
	list, _ := e.graph.ListComments(ctx, p.ID)
	if len(list) != 1 || list[0].Content != "edited" {
		t.Fatalf("unexpected comments: %v", list)
	}
	if err := e.graph.DeleteComment(ctx, c.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := e.graph.DeleteComment(ctx, c.ID); !errors.Is(err, model.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
	if _, err := e.graph.ListComments(ctx, "missing"); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

// countingFollowsStore counts follow edge inserts.
type countingFollowsStore struct {
	repository.Store
	creates int
}

type countingFollows struct {
	repository.Follows
	s *countingFollowsStore
}

func (s *countingFollowsStore) Follows() repository.Follows {
	return countingFollows{Follows: s.Store.Follows(), s: s}
}

func (f countingFollows) Create(ctx context.Context, edge *model.Follow) error {
	f.s.creates++
	return f.Follows.Create(ctx, edge)
}

func TestFollowTwiceWritesOneEdge(t *testing.T) {
	store := &countingFollowsStore{Store: openStore(t)}
	e := newEnvWithStore(t, store)
	ctx := context.Background()
	a, _ := e.register(t, "a@x.com", "a", "pw123456")
	b, _ := e.register(t, "b@x.com", "b", "pw123456")

	for i := 0; i < 3; i++ {
		if err := e.graph.Follow(ctx, a, b); err != nil {
			t.Fatalf("follow: %v", err)
		}
	}
	if store.creates != 1 {
		t.Fatalf("expected one edge insert, got %d", store.creates)
	}
	if followers, _ := e.graph.Followers(ctx, b); len(followers) != 1 {
		t.Fatalf("expected one follower, got %v", followers)
	}
}

func TestListAllComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	p1, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "one"})
	p2, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "two"})

	if all, err := e.graph.ListAllComments(ctx); err != nil || len(all) != 0 {
		t.Fatalf("expected no comments, got %v, %v", all, err)
	}
	c1, _ := e.graph.AddComment(ctx, CommentInput{PostID: p1.ID, UserID: id, Content: "a"})
	c2, _ := e.graph.AddComment(ctx, CommentInput{PostID: p2.ID, UserID: id, Content: "b"})

	all, err := e.graph.ListAllComments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	seen := map[string]bool{}
	for _, c := range all {
		seen[c.ID] = true
	}
	if len(all) != 2 || !seen[c1.ID] || !seen[c2.ID] {
		t.Fatalf("unexpected comments: %v", all)
	}
}

// flakyStore fails the first n units of work before touching the database.
type flakyStore struct {
	repository.Store
	failures int
	calls    int
}

var errStoreDown = errors.New("store unavailable")

func (s *flakyStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.calls++
	if s.calls <= s.failures {
		return errStoreDown
	}
	return s.Store.WithTx(ctx, fn)
}

func TestCascadeRetriesOnce(t *testing.T) {
	flaky := &flakyStore{Store: openStore(t), failures: 1}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	p, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "hi"})

	if err := e.graph.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("delete should succeed on retry: %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", flaky.calls)
	}
}

func TestCascadeReportsConsistencyHazard(t *testing.T) {
	flaky := &flakyStore{Store: openStore(t), failures: 2}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()
	id, _ := e.register(t, "alice@x.com", "alice", "pw123456")
	p, _ := e.graph.CreatePost(ctx, PostInput{UserID: id, Content: "hi"})

	err := e.graph.DeletePost(ctx, p.ID)
	if !errors.Is(err, model.ErrConsistency) {
		t.Fatalf("expected ErrConsistency, got %v", err)
	}
	if _, err := e.graph.GetPost(ctx, p.ID); err != nil {
		t.Fatalf("failed cascade must not delete the post: %v", err)
	}
}

func TestCascadeDoesNotRetryDomainErrors(t *testing.T) {
	flaky := &flakyStore{Store: openStore(t)}
	e := newEnvWithStore(t, flaky)
	if err := e.graph.DeletePost(context.Background(), "missing"); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if flaky.calls != 1 {
		t.Fatalf("domain rejection retried: %d attempts", flaky.calls)
	}
}

func TestScenarioRegisterPostCommentDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, _, err := e.identity.Register(ctx, RegisterInput{Email: "alice@x.com", Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := e.identity.Login(ctx, "alice@x.com", "pw123")
	if err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("login: %+v, %v", pair, err)
	}
	p, err := e.graph.CreatePost(ctx, PostInput{UserID: u.ID, Content: "hi"})
	if err != nil || p.ID == "" || p.Content != "hi" {
		t.Fatalf("create post: %+v, %v", p, err)
	}
	c, err := e.graph.AddComment(ctx, CommentInput{PostID: p.ID, UserID: u.ID, Content: "nice"})
	if err != nil || c.PostID != p.ID {
		t.Fatalf("add comment: %+v, %v", c, err)
	}
	if err := e.graph.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	comments, err := e.store.Comments().ListByPost(ctx, p.ID)
	if err != nil || len(comments) != 0 {
		t.Fatalf("comments remain after delete: %v, %v", comments, err)
	}
	if _, err := e.graph.ListComments(ctx, p.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}
