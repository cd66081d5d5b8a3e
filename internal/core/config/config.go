package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Mongo holds the system-of-record connection settings.
	Mongo MongoConfig `mapstructure:",squash"`

	// Redis holds the cache and pub/sub connection settings.
	Redis RedisConfig `mapstructure:",squash"`

	// Auth holds the bearer token verification settings.
	Auth AuthConfig `mapstructure:",squash"`

	// Razorpay holds the payment gateway credentials.
	Razorpay RazorpayConfig `mapstructure:",squash"`

	// Shiprocket holds the carrier booking credentials.
	Shiprocket ShiprocketConfig `mapstructure:",squash"`

	// Checkout holds checkout tuning knobs.
	Checkout CheckoutConfig `mapstructure:",squash"`
}

// MongoConfig holds MongoDB connection details.
type MongoConfig struct {
	// URI is the MongoDB connection string. Transactions need a replica set.
	URI string `mapstructure:"MONGO_URI" required:"true"`
	// Database is the database name.
	Database string `mapstructure:"MONGO_DATABASE" default:"storefront"`
	// Timeout bounds connection establishment and server selection.
	Timeout time.Duration `mapstructure:"MONGO_TIMEOUT" default:"10s"`
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	// URL is in the format redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// AuthConfig holds the shared secret used to verify HS256 tokens.
type AuthConfig struct {
	// JWTSecret is the HMAC secret of the login service.
	JWTSecret string `mapstructure:"JWT_SECRET" required:"true"`
}

// RazorpayConfig holds the credentials for the payment gateway.
type RazorpayConfig struct {
	// BaseURL is the gateway API root.
	BaseURL string `mapstructure:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	// KeyID is the public key id, also returned to clients for the checkout widget.
	KeyID string `mapstructure:"RAZORPAY_KEY_ID" required:"true"`
	// KeySecret signs payment callbacks and authenticates API calls.
	KeySecret string `mapstructure:"RAZORPAY_KEY_SECRET" required:"true"`
}

// ShiprocketConfig holds the credentials for the shipping carrier.
type ShiprocketConfig struct {
	// BaseURL is the carrier API root.
	BaseURL string `mapstructure:"SHIPROCKET_BASE_URL" default:"https://apiv2.shiprocket.in"`
	// Email is the API user login.
	Email string `mapstructure:"SHIPROCKET_EMAIL" required:"true"`
	// Password is the API user password.
	Password string `mapstructure:"SHIPROCKET_PASSWORD" required:"true"`
	// WebhookToken must match the x-api-key header of carrier webhooks.
	WebhookToken string `mapstructure:"SHIPROCKET_WEBHOOK_TOKEN" required:"true"`
	// PickupLocation is the registered warehouse nickname.
	PickupLocation string `mapstructure:"SHIPROCKET_PICKUP_LOCATION" default:"Primary"`
}

// CheckoutConfig holds checkout behaviour settings.
type CheckoutConfig struct {
	// Timeout aborts the checkout transaction when exceeded.
	Timeout time.Duration `mapstructure:"CHECKOUT_TIMEOUT" default:"10s"`
	// PaymentIntentTTL is how long a created gateway order stays verifiable from cache.
	PaymentIntentTTL time.Duration `mapstructure:"PAYMENT_INTENT_TTL" default:"30m"`
	// Currency is the single store currency.
	Currency string `mapstructure:"CURRENCY" default:"INR"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags binds every tagged field to its env key and registers defaults.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
