package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr     string
	GinMode     string
	DBDSN       string
	JWTSecret   string
	CORSOrigins []string
	Location    *time.Location

	PayMongoSecretKey string
	PayMongoBaseURL   string
	PaymentSuccessURL string
	PaymentCancelURL  string

	MailjetAPIKey    string
	MailjetSecretKey string
	MailFrom         string
	MailFromName     string
	ExpoAccessToken  string

	RedisAddr     string
	RedisPassword string

	GeocoderURL       string
	RouterURL         string
	GeocodeUserAgent  string
	GeocodeTown       string
	GeocodeProvince   string
	GeocodeCountry    string
	DeliveryRatePerKm float64
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:8081",
	"http://127.0.0.1:8081",
	"http://localhost:19006",
}

// LoadEnv reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func LoadEnv() Env {
	_ = godotenv.Load()

	env := Env{
		AppAddr:     getenv("APP_ADDR", ":8080"),
		GinMode:     getenv("GIN_MODE", ""),
		DBDSN:       getenv("DB_DSN", "root:@tcp(127.0.0.1:3306)/rentalhub?parseTime=true&clientFoundRows=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"),
		JWTSecret:   getenv("JWT_SECRET", ""),
		CORSOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", ""), defaultCORSOrigins),
		Location:    loadLocation(getenv("TZ_LOCATION", "Asia/Manila")),

		PayMongoSecretKey: getenv("PAYMONGO_SECRET_KEY", ""),
		PayMongoBaseURL:   getenv("PAYMONGO_BASE_URL", "https://api.paymongo.com"),
		PaymentSuccessURL: getenv("PAYMENT_SUCCESS_URL", "https://example.com/payment/success"),
		PaymentCancelURL:  getenv("PAYMENT_CANCEL_URL", "https://example.com/payment/cancel"),

		MailjetAPIKey:    getenv("MAILJET_API_KEY", ""),
		MailjetSecretKey: getenv("MAILJET_SECRET_KEY", ""),
		MailFrom:         getenv("MAIL_FROM", ""),
		MailFromName:     getenv("MAIL_FROM_NAME", "RentalHub"),
		ExpoAccessToken:  getenv("EXPO_ACCESS_TOKEN", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		GeocoderURL:       getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		RouterURL:         getenv("ROUTER_URL", "https://router.project-osrm.org"),
		GeocodeUserAgent:  getenv("GEOCODE_USER_AGENT", "rentalhub/1.0"),
		GeocodeTown:       getenv("GEOCODE_TOWN", "Bulan"),
		GeocodeProvince:   getenv("GEOCODE_PROVINCE", "Sorsogon"),
		GeocodeCountry:    getenv("GEOCODE_COUNTRY", "Philippines"),
		DeliveryRatePerKm: getfloat("DELIVERY_RATE_PER_KM", 10),
	}
	return env
}

// MailEnabled reports whether Mailjet credentials are configured.
func (e Env) MailEnabled() bool {
	return e.MailjetAPIKey != "" && e.MailjetSecretKey != "" && e.MailFrom != ""
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getfloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func splitList(raw string, def []string) []string {
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 8*60*60)
	}
	return loc
}
