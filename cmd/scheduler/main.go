package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"vaccine-scheduler/internal/auth"
	"vaccine-scheduler/internal/config"
	"vaccine-scheduler/internal/handler"
	"vaccine-scheduler/internal/logging"
	"vaccine-scheduler/internal/scheduler"
	"vaccine-scheduler/internal/session"
	"vaccine-scheduler/internal/store"
	"vaccine-scheduler/internal/store/memstore"
	"vaccine-scheduler/internal/store/postgres"
	"vaccine-scheduler/internal/store/sqlite"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "scheduler:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("store ready", zap.String("driver", cfg.DBDriver))

	pick, err := scheduler.PickerByName(cfg.CaregiverPicker)
	if err != nil {
		return err
	}
	sess := session.New()
	log = log.With(zap.String("session_id", sess.ID()))

	sched := scheduler.New(st, scheduler.WithPicker(pick), scheduler.WithLogger(log))
	accounts := auth.NewAccounts(st, auth.NewLimiter(cfg.LoginRate, cfg.LoginBurst), log)
	h := handler.New(sched, accounts, sess, os.Stdout, log)

	// the read on stdin can't be interrupted; give up on it when signalled
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, os.Stdin) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		fmt.Fprintln(os.Stdout)
		return nil
	}
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(ctx, cfg.DatabaseURL, log)
	case "memory":
		return memstore.New()
	default:
		return sqlite.Open(ctx, cfg.DatabaseURL, log)
	}
}
