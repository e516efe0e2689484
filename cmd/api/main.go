package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/Osama-Null/growmesh-API/internal/accounts"
	"github.com/Osama-Null/growmesh-API/internal/assistant"
	"github.com/Osama-Null/growmesh-API/internal/auth"
	"github.com/Osama-Null/growmesh-API/internal/config"
	"github.com/Osama-Null/growmesh-API/internal/db"
	"github.com/Osama-Null/growmesh-API/internal/goals"
	"github.com/Osama-Null/growmesh-API/internal/ledger"
	"github.com/Osama-Null/growmesh-API/internal/scheduler"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal("failed to connect DB: ", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatal("failed to run migrations: ", err)
	}

	slog.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)

	store := ledger.NewPostgresStore(database)
	svc := ledger.NewService(store, ledger.SystemClock{})
	agent := assistant.New(cfg.AssistantURL)
	secret := []byte(cfg.JWTSecret)
	mw := auth.New(secret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(svc, cfg.DepositInterval)
	go sched.Run(ctx)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// auth
	mux.Handle("POST /auth/register", auth.RegisterHandler(database, svc, secret))
	mux.Handle("POST /auth/login", auth.LoginHandler(database, secret))
	mux.Handle("POST /auth/logout", mw.Wrap(auth.LogoutHandler()))
	mux.Handle("GET /auth/me", mw.Wrap(auth.MeHandler(database)))

	// account
	mux.Handle("GET /account/get-info", mw.Wrap(accounts.GetInfoHandler(svc)))
	mux.Handle("POST /account/deposit", mw.Wrap(accounts.DepositHandler(svc)))
	mux.Handle("POST /account/withdraw", mw.Wrap(accounts.WithdrawHandler(svc)))

	// transactions
	mux.Handle("GET /transactions/get-all", mw.Wrap(accounts.GetTransactionsHandler(svc)))
	mux.Handle("GET /transactions/get-by-goal/{goalId}", mw.Wrap(accounts.GetTransactionsByGoalHandler(svc)))

	// savings goals
	mux.Handle("POST /savings-goals/create", mw.Wrap(goals.CreateGoalHandler(svc)))
	mux.Handle("GET /savings-goals/get-all", mw.Wrap(goals.GetAllGoalsHandler(svc)))
	mux.Handle("GET /savings-goals/get/{id}", mw.Wrap(goals.GetGoalHandler(svc)))
	mux.Handle("PUT /savings-goals/update/{id}", mw.Wrap(goals.UpdateGoalHandler(svc)))
	mux.Handle("DELETE /savings-goals/delete/{id}", mw.Wrap(goals.DeleteGoalHandler(svc)))
	mux.Handle("POST /savings-goals/deposit/{id}", mw.Wrap(goals.DepositToGoalHandler(svc)))
	mux.Handle("POST /savings-goals/withdraw/{id}", mw.Wrap(goals.WithdrawFromGoalHandler(svc)))
	mux.Handle("POST /savings-goals/unlock/{id}", mw.Wrap(goals.UnlockGoalHandler(svc)))
	mux.Handle("POST /savings-goals/mark-as-done/{id}", mw.Wrap(goals.MarkAsDoneHandler(svc)))
	mux.Handle("GET /savings-goals/savings-trend", mw.Wrap(goals.SavingsTrendHandler(svc)))
	mux.Handle("GET /savings-goals/trend/{id}", mw.Wrap(goals.GoalTrendHandler(svc)))

	// assistant
	mux.Handle("POST /assistant/home-agent", mw.Wrap(assistant.HomeAgentHandler(svc, agent)))
	mux.Handle("POST /assistant/all-goals-agent", mw.Wrap(assistant.AllGoalsAgentHandler(svc, agent)))
	mux.Handle("POST /assistant/goal-details-agent/{id}", mw.Wrap(assistant.GoalDetailsAgentHandler(svc, agent)))
	mux.Handle("POST /assistant/transactions-agent", mw.Wrap(assistant.TransactionsAgentHandler(svc, agent)))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(mux),
	}

	go func() {
		slog.Info("API server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error: ", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
