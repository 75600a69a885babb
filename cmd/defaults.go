package cmd

import "time"

const defaultHTTPPort = 8080

var defaultDB = DB{
	Host:    "127.0.0.1",
	Port:    "5432",
	User:    "deliveryhub",
	Pass:    "deliveryhub",
	Name:    "deliveryhub",
	SslMode: "disable",
}

var defaultRetry = Retry{
	MaxAttempts:         4,
	InitialInterval:     200 * time.Millisecond,
	MaxInterval:         2 * time.Second,
	MaxDispatchAttempts: 3,
}

var defaultJobs = Jobs{
	DispatchSchedule:  "@every 5s",
	DispatchBatchSize: 50,
	PollingSchedule:   "@every 15s",
	RoundTimeout:      30 * time.Second,
	Concurrency:       8,
}

var defaultStore = Store{
	Fee:        "5.00",
	Currency:   "PEN",
	DropoffEta: 35 * time.Minute,
	OpensAt:    10 * time.Hour,
	ClosesAt:   23 * time.Hour,
	TimeZone:   "America/Lima",
}

const defaultProviderTimeout = 10 * time.Second

// DefaultHTTPPort returns the default port.
func DefaultHTTPPort() int {
	return defaultHTTPPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultRetry returns the default provider retry settings.
func DefaultRetry() Retry {
	return defaultRetry
}

// DefaultJobs returns the default job settings.
func DefaultJobs() Jobs {
	return defaultJobs
}

// DefaultStore returns the default in-house courier settings.
func DefaultStore() Store {
	return defaultStore
}
