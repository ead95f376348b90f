package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"eternal/internal/config"
	"eternal/internal/repository"
	"eternal/internal/service"
	"eternal/internal/transport/rest/handler"
	"eternal/internal/transport/rest/middleware"
	"eternal/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	Images         repository.ImageRepo
	WSHub          *ws.Hub
	CORS           config.CORSConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	conversationHandler := handler.NewConversationHandler(c.SessionService)
	reportHandler := handler.NewReportHandler(c.SessionService)
	imageHandler := handler.NewImageHandler(c.Images)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORS))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")

	// WebSocket (token in query param)
	v1.HandleFunc("/ws", wsHandler.UserWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// User routes (require guest token)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/conversation", conversationHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/conversation", conversationHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/conversation/messages", conversationHandler.SendMessage).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/conversation/image", conversationHandler.UploadImage).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/conversation/report", reportHandler.Generate).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/conversation/retake", conversationHandler.Retake).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/reports/me", reportHandler.Mine).Methods("GET", "OPTIONS")
	if c.Images != nil {
		userRoutes.HandleFunc("/images/{id}", imageHandler.Get).Methods("GET", "OPTIONS")
	}

	return r
}

func corsMiddleware(cors config.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cors.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cors.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cors.AllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
