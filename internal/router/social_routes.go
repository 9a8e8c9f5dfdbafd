package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/handler"
	"github.com/iliyamo/snapgram/internal/middleware"
)

// SocialHandlers groups the handlers of the content and follow graph.
type SocialHandlers struct {
	Users    *handler.UserHandler
	Posts    *handler.PostHandler
	Comments *handler.CommentHandler
	Likes    *handler.LikeHandler
}

// RegisterSocial registers users, posts, comments and likes. Every route
// needs a valid access token; changing a user record is limited to the
// user itself.
func RegisterSocial(e *echo.Echo, h SocialHandlers, authn middleware.Authenticator) {
	v1 := e.Group("/v1", middleware.Authenticate(authn))

	users := v1.Group("/users")
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update, middleware.RequireSelf("id"))
	users.DELETE("/:id", h.Users.Delete, middleware.RequireSelf("id"))
	users.POST("/follow/:id", h.Users.Follow)
	users.DELETE("/unfollow/:id", h.Users.Unfollow)
	users.GET("/:id/followers", h.Users.Followers)
	users.GET("/:id/following", h.Users.Following)

	posts := v1.Group("/posts")
	posts.POST("", h.Posts.Create)
	posts.GET("", h.Posts.List)
	posts.GET("/user/:id", h.Posts.ListByUser)
	posts.GET("/:id", h.Posts.Get)
	posts.PUT("/:id", h.Posts.Update)
	posts.DELETE("/:id", h.Posts.Delete)

	comments := v1.Group("/comments")
	comments.POST("", h.Comments.Create)
	comments.GET("", h.Comments.List)
	comments.GET("/post/:id", h.Comments.ListByPost)
	comments.GET("/:id", h.Comments.Get)
	comments.PUT("/:id", h.Comments.Update)
	comments.DELETE("/:id", h.Comments.Delete)

	likes := v1.Group("/likes")
	likes.POST("", h.Likes.Create)
	likes.DELETE("/:id", h.Likes.Delete)
	likes.GET("/post/:id", h.Likes.ListByPost)
}
