package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "rentalhub/internal/config"
	intdb "rentalhub/internal/db"
	"rentalhub/internal/delivery"
	router "rentalhub/internal/http"
	"rentalhub/internal/http/handlers"
	"rentalhub/internal/notify"
	"rentalhub/internal/payments"
	"rentalhub/internal/repositories"
	"rentalhub/internal/services"
	"rentalhub/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.GinMode == gin.ReleaseMode {
		utils.SetLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	db, err := intconfig.ConnectDB(env.DBDSN)
	if err != nil {
		utils.LogError("", "main", "connect_db", err)
		os.Exit(1)
	}
	defer intconfig.CloseDB()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		utils.LogError("", "main", "migrate", err)
		os.Exit(1)
	}
	cancelMigrate()

	var cache *delivery.RedisCache
	if env.RedisAddr != "" {
		cache = delivery.NewRedisCache(env.RedisAddr, env.RedisPassword)
		defer cache.Close()
	}

	r := router.NewRouter(env, buildHandler(env, db, cache))

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.LogEvent("", "main", "listen", "server listening on "+env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.LogError("", "main", "listen", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	utils.LogEvent("", "main", "shutdown", "shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError("", "main", "shutdown", err)
		return
	}
	utils.LogEvent("", "main", "shutdown", "server stopped cleanly")
}

func buildHandler(env intconfig.Env, db *sql.DB, cache *delivery.RedisCache) handlers.Handler {
	bookings := repositories.BookingRepository{DB: db}
	histories := repositories.HistoryRepository{DB: db}
	items := repositories.ItemRepository{DB: db}
	users := repositories.UserRepository{DB: db}
	ledger := repositories.PaymentRepository{DB: db}
	provider := payments.NewPayMongo(env.PayMongoBaseURL, env.PayMongoSecretKey)

	geocoder := delivery.NewNominatimGeocoder(env.GeocoderURL, env.GeocodeUserAgent)
	if cache != nil {
		geocoder.Cache = cache
	}
	resolver := delivery.Resolver{
		Geocoder:  geocoder,
		Router:    delivery.NewOSRMRouter(env.RouterURL),
		Region:    delivery.Region{Town: env.GeocodeTown, Province: env.GeocodeProvince, Country: env.GeocodeCountry},
		RatePerKm: env.DeliveryRatePerKm,
	}

	var verifier services.IntentVerifier
	if env.PayMongoSecretKey != "" {
		verifier = provider
	}

	return handlers.Handler{
		Bookings: services.BookingService{
			Bookings:  bookings,
			Histories: histories,
			Items:     items,
			Users:     users,
			Returns:   repositories.ReturnRepository{DB: db},
			Ledger:    ledger,
			Verifier:  verifier,
			Notifier:  buildNotifier(env),
			Location:  env.Location,
		},
		Payments: services.PaymentService{
			Provider:   provider,
			Ledger:     ledger,
			Bookings:   bookings,
			SuccessURL: env.PaymentSuccessURL,
			CancelURL:  env.PaymentCancelURL,
		},
		Quotes:  services.QuoteService{Items: items, Delivery: resolver, Location: env.Location},
		Docs:    services.DocsService{Bookings: bookings, Histories: histories, Location: env.Location},
		Reports: services.ReportsService{Bookings: bookings, Histories: histories, Location: env.Location},
		Auth:    services.AuthService{Users: users, Secret: []byte(env.JWTSecret)},
		DB:      db,
	}
}

func buildNotifier(env intconfig.Env) notify.Notifier {
	var out notify.Multi
	if env.MailEnabled() {
		out = append(out, notify.NewMailjetNotifier(env.MailjetAPIKey, env.MailjetSecretKey, env.MailFrom, env.MailFromName))
	}
	if env.ExpoAccessToken != "" {
		out = append(out, notify.NewExpoNotifier(env.ExpoAccessToken))
	}
	if len(out) == 0 {
		return notify.LogNotifier{}
	}
	return out
}
