package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/swaggo/swag"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Presupuestos-api/docs"
	"github.com/jhoicas/Presupuestos-api/internal/application/auth"
	"github.com/jhoicas/Presupuestos-api/internal/application/expenses"
	"github.com/jhoicas/Presupuestos-api/internal/application/orders"
	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/application/vouchers"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/events"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Presupuestos-api/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/Presupuestos-api/internal/interfaces/http"
	"github.com/jhoicas/Presupuestos-api/pkg/config"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// @title                       Presupuestos API
// @version                     1.0
// @description                 Motor de asignación presupuestaria y aprobación de gastos de campañas.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.New(reg)

	checks := map[string]httpRouter.HealthCheck{}
	if st.ping != nil {
		checks["postgres"] = st.ping
	}

	// Eventos: broker local para SSE; con Redis también se difunden a las demás instancias.
	broker := events.NewBroker(cfg.Events.Buffer)
	var publisher ports.EventPublisher = broker
	redisClient, err := events.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	var relay *events.RedisPublisher
	if redisClient != nil {
		defer redisClient.Close()
		relay = events.NewRedisPublisher(redisClient, cfg.Redis.Channel, uuid.NewString())
		publisher = events.Fanout{broker, relay}
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	currency := cfg.App.DefaultCurrency
	orderUC := orders.NewOrderUseCase(st.tx, st.orders, st.expenses, publisher, engineMetrics, log, currency)
	expenseUC := expenses.NewExpenseUseCase(st.tx, st.orders, st.expenses, publisher, engineMetrics, log, currency)
	voucherUC := vouchers.NewVoucherUseCase(
		st.tx, st.vouchers, st.orders,
		infrapdf.NewMarotoPDFGenerator(cfg.App.Name),
		publisher, engineMetrics, log, currency,
	)
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Sin WriteTimeout: /api/events mantiene la respuesta abierta.
	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	if specPath, err := writeSwaggerSpec(); err != nil {
		log.Warn().Err(err).Msg("swagger deshabilitado")
	} else {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: specPath,
			Path:     "docs",
			Title:    "Presupuestos API",
		}))
	}

	eventsHandler := httpRouter.NewEventsHandler(broker, 0)
	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		OrderUC:   orderUC,
		ExpenseUC: expenseUC,
		VoucherUC: voucherUC,
		Events:    eventsHandler,
		Health:    httpRouter.NewHealthHandler(checks),
		Gatherer:  reg,
		Log:       log,
		JWTSecret: cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Relay(gctx, broker, log)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		eventsHandler.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("servidor HTTP finalizado con error")
	}

	log.Info().Msg("aplicación detenida")
}

// writeSwaggerSpec vuelca el spec registrado por swag a un archivo temporal para la UI.
func writeSwaggerSpec() (string, error) {
	doc, err := swag.ReadDoc()
	if err != nil {
		return "", err
	}
	path := filepath.Join(os.TempDir(), "presupuestos-swagger.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
