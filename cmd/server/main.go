// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/auth"
	"github.com/skatch-gg/skatch/internal/bridge"
	"github.com/skatch-gg/skatch/internal/database"
	"github.com/skatch-gg/skatch/internal/handlers"
	"github.com/skatch-gg/skatch/internal/middleware"
	"github.com/skatch-gg/skatch/internal/room"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Fan-out bridge: Redis when configured, otherwise single-instance.
	var br bridge.Bridge = bridge.Noop{}
	if os.Getenv("REDIS_ADDR") != "" {
		rb, err := bridge.NewRedis()
		if err != nil {
			log.Fatalf("failed to connect bridge: %v", err)
		}
		defer rb.Close()
		br = rb
		logger.Info("Redis bridge connected")
	}

	registry := room.NewRegistry()
	history := database.NewHistoryStore()
	gw := handlers.NewGateway(registry, br, history, logger)

	logMW := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.Handle("/user/create", logMW(http.HandlerFunc(handlers.CreateUserHandler)))
	mux.Handle("/user/login", logMW(handlers.LoginHandler(gw)))
	mux.Handle("/user/password", logMW(handlers.RequireAuth(http.HandlerFunc(handlers.UpdatePasswordHandler))))
	mux.Handle("/user/delete", logMW(handlers.RequireAuth(http.HandlerFunc(handlers.DeleteUserHandler))))

	// room endpoints
	mux.Handle("/api/rooms", logMW(handlers.RoomsHandler(gw)))
	mux.Handle("/api/rooms/", logMW(handlers.RoomsHandler(gw)))

	// match history
	mux.Handle("/api/history/", logMW(handlers.RequireAuth(handlers.HistoryHandler(history))))

	// game websocket
	mux.Handle("/ws", handlers.WSHandler(gw))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
