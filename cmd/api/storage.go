package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Presupuestos-api/pkg/config"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// storage repositorios y transacciones del backend elegido por DB_DRIVER.
type storage struct {
	tx       ports.TxRunner
	orders   repository.OrderRepository
	expenses repository.ExpenseLineRepository
	vouchers repository.VoucherRepository
	users    repository.UserRepository
	ping     func(ctx context.Context) error // nil en memoria
	close    func()
}

func openStorage(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*storage, error) {
	if cfg.InMemory() {
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			tx:       memory.NewTxRunner(store),
			orders:   memory.NewOrderRepository(store),
			expenses: memory.NewExpenseLineRepository(store),
			vouchers: memory.NewVoucherRepository(store),
			users:    memory.NewUserRepository(store),
			close:    func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.ConnectionString()); err != nil {
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &storage{
		tx:       postgres.NewTxRunner(pool),
		orders:   postgres.NewOrderRepository(pool),
		expenses: postgres.NewExpenseLineRepository(pool),
		vouchers: postgres.NewVoucherRepository(pool),
		users:    postgres.NewUserRepository(pool),
		ping:     pool.Ping,
		close:    pool.Close,
	}, nil
}
