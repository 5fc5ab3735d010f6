package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	Webhook         Category = "Webhook"
	Sweeper         Category = "Sweeper"
	Token           Category = "Token"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup      SubCategory = "Startup"
	Shutdown     SubCategory = "Shutdown"
	RateLimiting SubCategory = "RateLimiting"

	// Webhook / Sweeper
	Verification SubCategory = "Verification"
	Reconcile    SubCategory = "Reconcile"
	Reap         SubCategory = "Reap"

	// RabbitMQ
	Publish SubCategory = "Publish"
	Consume SubCategory = "Consume"

	ExternalService SubCategory = "ExternalService"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	RoomID       ExtraKey = "RoomId"
	EventKind    ExtraKey = "EventKind"
	EventID      ExtraKey = "EventId"
	MemberCount  ExtraKey = "MemberCount"
	Reason       ExtraKey = "Reason"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
