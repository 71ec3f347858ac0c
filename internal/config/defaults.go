package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch_db",
}

var defaultKafka = Kafka{
	GroupID:     "service-dispatch",
	OrdersTopic: "orders.placed",
}

var defaultDispatch = Dispatch{
	ResponseWindow:   15 * time.Second,
	OperationTimeout: 3 * time.Second,
}

var defaultDelivery = Delivery{
	RatePerKm:        10,
	MaxCodeAttempts:  5,
	OperationTimeout: 3 * time.Second,
}

var defaultReaper = Reaper{
	Interval:   time.Minute,
	StaleAfter: 5 * time.Minute,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       20,
	Burst:      40,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:      defaultPort,
		LogLevel:  "info",
		DB:        defaultDB,
		Kafka:     defaultKafka,
		Auth:      Auth{JWTSecret: "dev-secret"},
		Dispatch:  defaultDispatch,
		Delivery:  defaultDelivery,
		Reaper:    defaultReaper,
		RateLimit: defaultRateLimit,
	}
}

// DefaultDispatch returns the default cascade settings.
func DefaultDispatch() Dispatch {
	return defaultDispatch
}

// DefaultDelivery returns the default delivery settings.
func DefaultDelivery() Delivery {
	return defaultDelivery
}

// DefaultReaper returns the default sweep settings.
func DefaultReaper() Reaper {
	return defaultReaper
}
