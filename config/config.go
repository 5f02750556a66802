package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	Port        string
	Environment string
	LogLevel    string

	GeminiAPIKey string
	GeminiModel  string

	BrowserHeadless  bool
	BrowserUserAgent string
	ChromeDriverPath string
	SessionFile      string
	LoginWait        time.Duration
	LoginPoll        time.Duration
	PageTimeout      time.Duration

	AggregateThreshold int
	SearchLimit        int
	DefaultSite        string

	MongoURI string
	MongoDB  string

	CacheBackend string
	RedisAddr    string
	RedisDB      int
	MemcacheAddr string
	CacheTTL     time.Duration

	AWSRegion     string
	AWSBucketName string
	ExportImages  bool

	SendGridAPIKey string
	EmailFrom      string

	JWTSecret string
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	Port = getEnv("PORT", "8080")
	Environment = getEnv("APP_ENV", "development")
	LogLevel = os.Getenv("LOG_LEVEL")

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	GeminiModel = getEnv("GEMINI_MODEL", "gemini-1.5-flash")

	BrowserHeadless = getBool("BROWSER_HEADLESS", true)
	BrowserUserAgent = getEnv("BROWSER_USER_AGENT", defaultUserAgent)
	ChromeDriverPath = getEnv("CHROMEDRIVER_PATH", "/usr/local/bin/chromedriver")
	SessionFile = getEnv("SESSION_FILE", "session_cookies.json")
	LoginWait = getSeconds("LOGIN_WAIT_SECONDS", 120)
	LoginPoll = getSeconds("LOGIN_POLL_SECONDS", 2)
	PageTimeout = getSeconds("PAGE_TIMEOUT_SECONDS", 60)

	AggregateThreshold = getInt("AGGREGATE_THRESHOLD", 20)
	SearchLimit = getInt("SEARCH_LIMIT", 10)
	DefaultSite = getEnv("DEFAULT_SITE", "amazon")

	MongoURI = os.Getenv("MONGO_URI")
	MongoDB = getEnv("MONGO_DB", "shopbot")

	CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", "none"))
	RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	RedisDB = getInt("REDIS_DB", 0)
	MemcacheAddr = getEnv("MEMCACHE_ADDR", "localhost:11211")
	CacheTTL = getSeconds("CACHE_TTL_SECONDS", 600)

	AWSRegion = getEnv("AWS_REGION", "ap-south-1")
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")
	ExportImages = getBool("EXPORT_IMAGES", false)

	SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	EmailFrom = getEnv("EMAIL_FROM", "no-reply@shopbot.local")

	JWTSecret = os.Getenv("JWT_SECRET")
}

// Validate reports settings that would make the server misbehave.
func Validate() error {
	if AggregateThreshold < 1 {
		return fmt.Errorf("AGGREGATE_THRESHOLD must be at least 1, got %d", AggregateThreshold)
	}
	if SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be at least 1, got %d", SearchLimit)
	}
	if LoginWait <= 0 || LoginPoll <= 0 || PageTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}
	if LoginPoll > LoginWait {
		return fmt.Errorf("LOGIN_POLL_SECONDS (%v) exceeds LOGIN_WAIT_SECONDS (%v)", LoginPoll, LoginWait)
	}
	switch CacheBackend {
	case "none", "redis", "memcache":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", CacheBackend)
	}
	return nil
}

// Fixed parts of one site fetch: the plain HTTP client timeout and the
// selenium settle sleeps.
const (
	httpFetchTimeout = 30 * time.Second
	seleniumSettle   = 10 * time.Second
)

// TaskTimeout bounds a single task. The slowest are a login, which waits up
// to LoginWait, and an all-site search where every site falls through HTTP,
// the browser tab and selenium.
func TaskTimeout(sites int) time.Duration {
	login := LoginWait + 2*PageTimeout
	search := time.Duration(sites) * (httpFetchTimeout + 2*PageTimeout + seleniumSettle)
	return max(login, search)
}

// RequestTimeout bounds a chat request: its own task plus one task already
// holding the browser.
func RequestTimeout(sites int) time.Duration {
	return 2 * TaskTimeout(sites)
}

// IsProduction reports whether APP_ENV is production.
func IsProduction() bool {
	return Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}
