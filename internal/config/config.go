package config

import (
	"os"
	"strconv"
	"time"

	"github.com/homematch/credential-platform/internal/utils"
)

// Config holds all configuration for one process. Every value is
// environment-supplied; nothing security-relevant is hardcoded.
type Config struct {
	AppName string
	AppPort string
	AppUrl  string

	// Shared symmetric signing secret. One per environment, shared by the
	// issuer, the gateway and every backend service.
	JWTSecret     []byte
	TokenIssuer   string
	TokenAudience string

	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	RedisAddr     string
	RedisPassword string
	// StoreTimeout bounds every credential-store call.
	StoreTimeout time.Duration

	DBUrl string

	MaxLoginAttempts int
	AttemptWindow    time.Duration
	LockDuration     time.Duration

	// RevocationFailOpen decides what happens when the credential store is
	// unreachable during a revocation lookup: true forwards the request on
	// cryptographic validation alone, false rejects it. Each binary reads
	// its own knob so the gateway and the services can differ.
	RevocationFailOpen bool

	// EnforceSecurityStamp rejects tokens whose stamp no longer matches the
	// directory. Off by default: already-issued tokens keep their grace
	// window until natural expiry.
	EnforceSecurityStamp bool

	// Gateway route table: path prefix to backend base URL.
	AuthServiceURL    string
	ListingServiceURL string
}

const (
	OrganizationName = "HomeMatch"

	DefaultTokenIssuer   = OrganizationName
	DefaultTokenAudience = "homematch-services"

	MaxLoginAttempts = 10
	AttemptWindow    = 5 * time.Minute
	LockDuration     = 10 * time.Minute

	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
	TestShortAccessExpiry     = 2 * time.Second
	TestShortRefreshExpiry    = 8 * time.Second

	DefaultStoreTimeout = 2 * time.Second

	RefreshTokenLength = 64
)

// LoadAuthConfig builds the configuration for the auth-service binary.
func LoadAuthConfig(appName string) *Config {
	cfg := loadShared(appName)
	cfg.DBUrl = requireEnv("DB_URL")
	cfg.RevocationFailOpen = boolEnv("SERVICE_REVOCATION_FAIL_OPEN", false)
	cfg.MaxLoginAttempts = MaxLoginAttempts
	cfg.AttemptWindow = AttemptWindow
	cfg.LockDuration = LockDuration
	return cfg
}

// LoadGatewayConfig builds the configuration for the gateway binary.
func LoadGatewayConfig(appName string) *Config {
	cfg := loadShared(appName)
	cfg.AuthServiceURL = requireEnv("AUTH_SERVICE_URL")
	cfg.ListingServiceURL = requireEnv("LISTING_SERVICE_URL")
	// The gateway is a cheap pre-filter; the authoritative check runs inside
	// each service, so it defaults to failing open.
	cfg.RevocationFailOpen = boolEnv("GATEWAY_REVOCATION_FAIL_OPEN", true)
	return cfg
}

// LoadServiceConfig builds the configuration for a plain backend service.
func LoadServiceConfig(appName string) *Config {
	cfg := loadShared(appName)
	cfg.RevocationFailOpen = boolEnv("SERVICE_REVOCATION_FAIL_OPEN", false)
	return cfg
}

func loadShared(appName string) *Config {
	utils.Logger.Info("Loading config for app: ", appName)

	secret := requireEnv("JWT_SECRET")
	if len(secret) < 32 {
		utils.Logger.Fatal("JWT_SECRET must be at least 32 bytes")
	}

	accessExpiry := durationEnv("ACCESS_TOKEN_TTL", DefaultAccessTokenExpiry)
	refreshExpiry := durationEnv("REFRESH_TOKEN_TTL", DefaultRefreshTokenExpiry)
	if boolEnv("SHORT_TOKEN_TTL", false) {
		accessExpiry = TestShortAccessExpiry
		refreshExpiry = TestShortRefreshExpiry
	}

	return &Config{
		AppName:              appName,
		AppPort:              requireEnv("APP_PORT"),
		AppUrl:               requireEnv("APP_URL_FROM_ANYWHERE"),
		JWTSecret:            []byte(secret),
		TokenIssuer:          envOr("TOKEN_ISSUER", DefaultTokenIssuer),
		TokenAudience:        envOr("TOKEN_AUDIENCE", DefaultTokenAudience),
		AccessTokenExpiry:    accessExpiry,
		RefreshTokenExpiry:   refreshExpiry,
		RedisAddr:            requireEnv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		StoreTimeout:         durationEnv("STORE_TIMEOUT", DefaultStoreTimeout),
		EnforceSecurityStamp: boolEnv("ENFORCE_SECURITY_STAMP", false),
	}
}

func requireEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", name)
	}
	return v
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func boolEnv(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be a boolean, got %q", name, v)
	}
	return b
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be a duration, got %q", name, v)
	}
	return d
}
