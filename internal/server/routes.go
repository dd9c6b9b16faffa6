package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"konnectia/internal/handlers"
	"konnectia/internal/middlewares"
)

const uuidPattern = "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.LoggingMiddleware)
	r.Use(middlewares.PrometheusMiddleware)
	r.Use(middlewares.CorsMiddleware(s.cfg.AllowedOrigins))

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/", ch.HelloWorldHandler)
	r.HandleFunc("/health", ch.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	s.registerAuthRoutes(r)
	s.registerUserRoutes(r)
	s.registerPostRoutes(r)
	s.registerProfileRoutes(r)

	return r
}

// public limits anonymous callers per IP.
func (s *Server) public(h http.HandlerFunc) http.Handler {
	return s.limiter.Middleware(h)
}

// protected authenticates first so the limiter keys on the user.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return middlewares.AuthMiddleware(s.tokenService)(s.limiter.Middleware(h))
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	ah := handlers.NewAuthHandler(s.authService, s.otpService, s.sessionService)

	r.Handle("/api/auth/signup", s.public(ah.Signup)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/activate/{token}", s.public(ah.Activate)).Methods("GET", "OPTIONS")
	r.Handle("/api/auth/signin", s.public(ah.Signin)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/resend-otp", s.public(ah.ResendOTP)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/verify-otp", s.public(ah.VerifyOTP)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/refresh", s.public(ah.Refresh)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/logout", s.protected(ah.Logout)).Methods("POST", "OPTIONS")
}

func (s *Server) registerUserRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)

	r.Handle("/api/users/me", s.protected(uh.GetMe)).Methods("GET", "OPTIONS")
	r.Handle("/api/users/me", s.protected(uh.UpdateMe)).Methods("PATCH", "PUT", "OPTIONS")
	r.Handle("/api/users/me", s.protected(uh.DeleteMe)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/users/upload_profile_picture", s.protected(uh.UploadProfilePicture)).Methods("POST", "OPTIONS")
	r.Handle("/api/users", s.protected(uh.ListUsers)).Methods("GET", "OPTIONS")
	r.Handle("/api/users/{id:"+uuidPattern+"}", s.protected(uh.GetUser)).Methods("GET", "OPTIONS")
}

func (s *Server) registerProfileRoutes(r *mux.Router) {
	ph := handlers.NewProfileHandler(s.profileService, s.postService)

	r.Handle("/api/profiles", s.protected(ph.ListProfiles)).Methods("GET", "OPTIONS")
	r.Handle("/api/profiles/me", s.protected(ph.MyProfile)).Methods("GET", "OPTIONS")
	r.Handle("/api/profiles/{id:"+uuidPattern+"}", s.protected(ph.GetProfile)).Methods("GET", "OPTIONS")
	r.Handle("/api/profiles/{id:"+uuidPattern+"}/posts", s.protected(ph.ProfilePosts)).Methods("GET", "OPTIONS")
	r.Handle("/api/profiles/{id:"+uuidPattern+"}/follow", s.protected(ph.Follow)).Methods("POST", "OPTIONS")
	r.Handle("/api/profiles/{id:"+uuidPattern+"}/unfollow", s.protected(ph.Unfollow)).Methods("POST", "OPTIONS")
}

func (s *Server) registerPostRoutes(r *mux.Router) {
	ph := handlers.NewPostHandler(s.postService)

	r.Handle("/api/posts", s.protected(ph.ListPosts)).Methods("GET", "OPTIONS")
	r.Handle("/api/posts", s.protected(ph.CreatePost)).Methods("POST", "OPTIONS")
	r.Handle("/api/posts/mine", s.protected(ph.MyPosts)).Methods("GET", "OPTIONS")
	r.Handle("/api/posts/{id}", s.protected(ph.GetPost)).Methods("GET", "OPTIONS")
	r.Handle("/api/posts/{id}", s.protected(ph.UpdatePost)).Methods("PUT", "PATCH", "OPTIONS")
	r.Handle("/api/posts/{id}", s.protected(ph.DeletePost)).Methods("DELETE", "OPTIONS")

	r.Handle("/api/posts/{id}/like/toggle", s.protected(ph.ToggleLike)).Methods("POST", "OPTIONS")
	r.Handle("/api/posts/{id}/like", s.protected(ph.Like)).Methods("POST", "OPTIONS")
	r.Handle("/api/posts/{id}/unlike", s.protected(ph.Unlike)).Methods("POST", "OPTIONS")
	r.Handle("/api/posts/{id}/save/toggle", s.protected(ph.ToggleSave)).Methods("POST", "OPTIONS")
	r.Handle("/api/posts/{id}/save", s.protected(ph.Save)).Methods("POST", "OPTIONS")
	r.Handle("/api/posts/{id}/unsave", s.protected(ph.Unsave)).Methods("POST", "OPTIONS")
	r.Handle("/api/saved-posts", s.protected(ph.SavedPosts)).Methods("GET", "OPTIONS")

	r.Handle("/api/posts/{id}/comments", s.protected(ph.ListComments)).Methods("GET", "OPTIONS")
	r.Handle("/api/posts/{id}/comments", s.protected(ph.AddComment)).Methods("POST", "OPTIONS")
	r.Handle("/api/comments/{id}", s.protected(ph.GetComment)).Methods("GET", "OPTIONS")
	r.Handle("/api/comments/{id}", s.protected(ph.UpdateComment)).Methods("PUT", "PATCH", "OPTIONS")
	r.Handle("/api/comments/{id}", s.protected(ph.DeleteComment)).Methods("DELETE", "OPTIONS")
}
