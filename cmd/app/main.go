package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
	"github.com/wichananm65/grocery-backend/internal/banner"
	"github.com/wichananm65/grocery-backend/internal/cart"
	"github.com/wichananm65/grocery-backend/internal/catalog"
	"github.com/wichananm65/grocery-backend/internal/category"
	"github.com/wichananm65/grocery-backend/internal/checkout"
	"github.com/wichananm65/grocery-backend/internal/config"
	"github.com/wichananm65/grocery-backend/internal/customer"
	"github.com/wichananm65/grocery-backend/internal/database"
	"github.com/wichananm65/grocery-backend/internal/events"
	"github.com/wichananm65/grocery-backend/internal/logging"
	"github.com/wichananm65/grocery-backend/internal/order"
	"github.com/wichananm65/grocery-backend/internal/pricing"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type stores struct {
	items      catalog.Repository
	categories category.Repository
	banners    banner.Repository
	customers  customer.Repository
	orders     order.Repository
	carts      cart.Repository
	tx         txn.Manager
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Store == config.StorePostgres {
		db, err = database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database unavailable")
		}
		defer db.Close()
		if cfg.RunMigrations {
			if err := database.Migrate(db); err != nil {
				log.Fatal().Err(err).Msg("migrations failed")
			}
		}
	}

	st := openStores(db)
	if cfg.CartStore == config.StoreRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis unavailable")
		}
		st.carts = cart.NewRedisRepository(client, cfg.GuestCartTTL)
	}

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	calc := pricing.NewCalculator(cfg.Pricing)

	categoryService := category.NewService(st.categories, st.items)
	catalogService := catalog.NewService(st.items, catalog.WithCategoryChecker(categoryService))
	bannerService := banner.NewService(st.banners, st.tx)
	customerService := customer.NewService(st.customers)
	cartService := cart.NewService(st.carts, st.items, st.tx, calc, log)
	orderService := order.NewService(st.orders, st.items, st.tx, publisher, log)
	checkoutService := checkout.NewService(checkout.Deps{
		Carts:     st.carts,
		Items:     st.items,
		Orders:    st.orders,
		Customers: st.customers,
		Tx:        st.tx,
		Pricing:   calc,
		Events:    publisher,
		Log:       log,
	}, checkout.WithMaxAttempts(cfg.CheckoutMaxAttempts))

	if cfg.AdminEmail != "" {
		admin, created, err := customerService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin account")
		}
		if created {
			log.Info().Str("email", admin.Email).Msg("admin account created")
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.ErrorHandler(log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.RequestLogger(log))
	setupCORS(app, cfg.CORSOrigins)

	app.Get("/health", func(c *fiber.Ctx) error {
		if db != nil {
			if err := db.PingContext(c.UserContext()); err != nil {
				return apperror.Internal(err)
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "store": cfg.Store, "cartStore": cfg.CartStore})
	})

	api := app.Group("/api", auth.Identify(cfg.JWTSecret))

	catalogHandler := catalog.NewHandler(catalogService)
	categoryHandler := category.NewHandler(categoryService)
	bannerHandler := banner.NewHandler(bannerService)
	customerHandler := customer.NewHandler(customerService, cfg.JWTSecret, cfg.TokenTTL)
	cartHandler := cart.NewHandler(cartService)
	checkoutHandler := checkout.NewHandler(checkoutService)
	orderHandler := order.NewHandler(orderService)

	catalogHandler.RegisterPublicRoutes(api)
	categoryHandler.RegisterPublicRoutes(api)
	bannerHandler.RegisterPublicRoutes(api)
	customerHandler.RegisterPublicRoutes(api)
	cartHandler.RegisterPublicRoutes(api)
	checkoutHandler.RegisterPublicRoutes(api)

	protected := api.Group("", auth.Protect(cfg.JWTSecret))
	admin := auth.RequireAdmin()
	catalogHandler.RegisterProtectedRoutes(protected, admin)
	categoryHandler.RegisterProtectedRoutes(protected, admin)
	bannerHandler.RegisterProtectedRoutes(protected, admin)
	customerHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected, admin)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Str("store", cfg.Store).Str("cart_store", cfg.CartStore).Msg("server starting")
	if err := app.Listen(cfg.Addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server exited")
}

// openStores picks the postgres repositories when db is set, in-memory ones otherwise.
func openStores(db *sql.DB) stores {
	if db != nil {
		return stores{
			items:      catalog.NewPostgresRepository(db),
			categories: category.NewPostgresRepository(db),
			banners:    banner.NewPostgresRepository(db),
			customers:  customer.NewPostgresRepository(db),
			orders:     order.NewPostgresRepository(db),
			carts:      cart.NewPostgresRepository(db),
			tx:         txn.NewSQLManager(db),
		}
	}
	return stores{
		items:      catalog.NewInMemoryRepository(nil),
		categories: category.NewInMemoryRepository(nil),
		banners:    banner.NewInMemoryRepository(nil),
		customers:  customer.NewInMemoryRepository(nil),
		orders:     order.NewInMemoryRepository(),
		carts:      cart.NewInMemoryRepository(),
		tx:         txn.NewMemoryManager(),
	}
}

func newPublisher(cfg *config.Config, log zerolog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(log)
	}
	return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log))
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
