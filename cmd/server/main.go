// Package main wires the retail-bank ledger daemon: the in-memory notarised
// ledger with its contract verifier, the postgres read-side projections and
// the recurring payment scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/api-sage/retail-bank-ledger/internal/adapter/repository/postgres"
	"github.com/api-sage/retail-bank-ledger/internal/config"
	"github.com/api-sage/retail-bank-ledger/internal/contract"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/logger"
	"github.com/api-sage/retail-bank-ledger/internal/scheduler"
	"github.com/api-sage/retail-bank-ledger/internal/usecase/services"
)

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	logger.Init(zl)

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited with error", err, nil)
		zl.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	recurringRepo := postgres.NewRecurringPaymentRepository(db)
	txLogRepo := postgres.NewTransactionLogRepository(db)

	recorder := postgres.NewLedgerRecorder(accountRepo, recurringRepo, txLogRepo)
	verifier := contract.NewTransactionVerifier()
	bankLedger := ledger.New(verifier, recorder, ledger.Party{Name: cfg.NotaryName, Key: cfg.NotaryName})

	// The flows are the service surface of the module; the daemon itself
	// only drives the recurring payment scheduler against the shared ledger.
	customerService := services.NewCustomerService(customerRepo)
	paymentService := services.NewPaymentService(bankLedger, accountRepo, recurringRepo, customerService, txLogRepo)

	sched := scheduler.New(bankLedger, paymentService, cfg.SchedulerInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})

	logger.Info("retail bank ledger started", logger.Fields{
		"bank":   cfg.BankName,
		"notary": cfg.NotaryName,
	})

	return g.Wait()
}
