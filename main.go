package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"asistente/controllers"
	"asistente/services"
	"asistente/utils"
)

func main() {
	utils.LoadEnv()

	if utils.GetEnvBool("DEBUG", false) {
		log.SetLevel(log.DebugLevel)
	}

	// Configuration surface: everything the core consumes comes from here.
	knowledgeFile := utils.GetEnv("KNOWLEDGE_FILE", "knowledge_base.json")
	ollamaURL := utils.GetEnv("OLLAMA_URL", "http://localhost:11434")
	model := utils.GetEnv("MODEL", "phi4-mini:latest")
	modelTimeout := time.Duration(utils.GetEnvInt("MODEL_TIMEOUT_SECONDS", 120)) * time.Second
	historyWindow := utils.GetEnvInt("HISTORY_WINDOW", 10)
	maxResults := utils.GetEnvInt("MAX_RESULTS", 5)
	minScore := utils.GetEnvFloat("MIN_SCORE", 1)
	sessionTTL := time.Duration(utils.GetEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute
	retryAttempts := utils.GetEnvInt("MODEL_RETRY_ATTEMPTS", 1)
	port := utils.GetEnv("PORT", "8140")

	knowledge := services.NewKnowledgeStore(knowledgeFile)
	if err := knowledge.Load(); err != nil {
		log.Fatalf("Cannot start without a knowledge base: %v", err)
	}

	sessions := services.NewSessionStore(sessionTTL)
	retriever := services.NewRetriever(maxResults, minScore)
	composer := services.NewComposer(historyWindow)
	llm := services.NewLLMService(ollamaURL, model, modelTimeout)

	chat := services.NewChatService(knowledge, sessions, retriever, composer, llm)
	chat.RetryAttempts = retryAttempts

	discord := services.NewDiscordService(chat,
		utils.GetEnv("DISCORD_BOT_TOKEN", ""),
		utils.GetEnv("DISCORD_COMMAND_PREFIX", "!chat "))

	controller := controllers.NewController(chat, discord)
	if err := controller.StartServices(utils.GetEnvBool("ENABLE_DISCORD", true)); err != nil {
		log.Warnf("Background services failed to start: %v", err)
	}

	// Optional reload of the knowledge file on change.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if utils.GetEnvBool("KNOWLEDGE_WATCH", false) {
		watcher, err := services.NewKnowledgeWatcher(knowledge, knowledgeFile)
		if err != nil {
			log.Warnf("Knowledge watcher disabled: %v", err)
		} else {
			go watcher.Run(watchCtx)
			log.Infof("Watching %s for changes", knowledgeFile)
		}
	}

	router := mux.NewRouter()
	router.HandleFunc("/", controller.IndexHandler).Methods("GET")
	router.HandleFunc("/api/chat", controller.ChatHandler).Methods("POST")
	router.HandleFunc("/api/history", controller.HistoryHandler).Methods("GET")
	router.HandleFunc("/api/clear", controller.ClearHandler).Methods("POST")
	router.HandleFunc("/api/status", controller.StatusHandler).Methods("GET")
	router.HandleFunc("/health", controller.HealthHandler).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:    port,
		Handler: c.Handler(router),
	}

	go func() {
		log.Infof("Server starting on port %s using model %s", port, llm.GetModel())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	cancelWatch()
	if err := controller.StopServices(); err != nil {
		log.Errorf("Error stopping services: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}
}
