package router

import (
	"net/http"

	postHandler "github.com/DeepakDums1998/blog-app-skilldzire/internal/post"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/repository"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/service"
	"github.com/DeepakDums1998/blog-app-skilldzire/middleware"
	"github.com/DeepakDums1998/blog-app-skilldzire/socket"
)

// Setup wires the post routes and the change feed onto one handler.
// hub may be nil, in which case no events are published and /ws is not served.
func Setup(store repository.PostStore, hub *socket.Hub, maxBodyBytes int64) http.Handler {
	mux := http.NewServeMux()

	var events service.Publisher
	if hub != nil {
		events = hub
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			socket.ServeWs(hub, w, r)
		})
	}

	// REST API
	postService := service.NewPostService(store, events)
	posts := postHandler.NewPostHandler(postService, maxBodyBytes)

	mux.HandleFunc("/getPosts", posts.GetPosts)
	mux.HandleFunc("/getPostById", posts.GetPostByID)
	mux.HandleFunc("/createPost", posts.CreatePost)
	mux.HandleFunc("/updatePost", posts.UpdatePost)
	mux.HandleFunc("/deletePost", posts.DeletePost)
	mux.HandleFunc("/healthz", posts.Health)

	return middleware.RequestLogger(middleware.CORSMiddleware(mux))
}
