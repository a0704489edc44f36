package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"areyoudead"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// PostgreSQL 配置
	PostgreSQLHost        string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort        string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser        string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword    string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase    string `env:"POSTGRESQL_DATABASE" envDefault:"areyoudead"`
	PostgreSQLSchema      string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode     string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle     int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"5"`
	PostgreSQLMaxOpen     int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"20"`
	PostgreSQLReplicaHost string `env:"POSTGRESQL_REPLICA_HOST"` // 只读副本，为空则不启用读写分离

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"ayd"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置，接口只服务单一操作者
	JWTSecret        string `env:"JWT_SECRET"`
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"43200"`

	// 打卡默认设置（数据库中无设置记录时使用）
	CheckInHour           int           `env:"CHECK_IN_HOUR" envDefault:"9"`
	CheckInMinute         int           `env:"CHECK_IN_MINUTE" envDefault:"0"`
	GracePeriodHours      int           `env:"GRACE_PERIOD_HOURS" envDefault:"4"`
	CheckInFrequencyDays  int           `env:"CHECK_IN_FREQUENCY_DAYS" envDefault:"1"`
	CheckInEnabled        bool          `env:"CHECK_IN_ENABLED" envDefault:"true"`
	MessagingMethod       string        `env:"MESSAGING_METHOD" envDefault:"both"`      // sms, whatsapp, both
	UserName              string        `env:"USER_NAME" envDefault:"User"`
	Timezone              string        `env:"TIMEZONE" envDefault:"Local"`
	HistoryWindowDays     int           `env:"HISTORY_WINDOW_DAYS" envDefault:"30"`
	EscalationDispatch    string        `env:"ESCALATION_DISPATCH" envDefault:"inline"` // inline, queue
	EscalationDedupeTTL   time.Duration `env:"ESCALATION_DEDUPE_TTL"`                   // 为空时按重复周期减一小时计算
	ChannelSendTimeout    time.Duration `env:"CHANNEL_SEND_TIMEOUT" envDefault:"15s"`
	GatewayBreakerFailure int           `env:"GATEWAY_BREAKER_FAILURES" envDefault:"3"`
	GatewayBreakerReset   time.Duration `env:"GATEWAY_BREAKER_RESET" envDefault:"1m"`

	// 短信服务配置
	// 主通道 twilio，备用通道 aliyun（AccessKey 通过 ALIBABA_CLOUD_ACCESS_KEY_ID / SECRET 环境变量获取）
	SMSProvider         string `env:"SMS_PROVIDER" envDefault:"twilio"`          // twilio, aliyun, none
	SMSFallbackProvider string `env:"SMS_FALLBACK_PROVIDER" envDefault:"aliyun"` // aliyun, twilio, none
	SMSSignName         string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode     string `env:"SMS_TEMPLATE_CODE"`

	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber  string `env:"TWILIO_PHONE_NUMBER"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_NUMBER"`
	TwilioBaseURL      string `env:"TWILIO_BASE_URL" envDefault:"https://api.twilio.com"`
	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE" envDefault:"+1"`

	// 邮件服务配置
	SendGridAPIKey   string `env:"SENDGRID_API_KEY"`
	SendGridBaseURL  string `env:"SENDGRID_BASE_URL" envDefault:"https://api.sendgrid.com"`
	EmailFromAddress string `env:"EMAIL_FROM_ADDRESS" envDefault:"alerts@areyoudead.app"`
	EmailFromName    string `env:"EMAIL_FROM_NAME" envDefault:"Are You Dead? Safety Alert"`
	RelayBaseURL     string `env:"RELAY_BASE_URL"`
	SMTPHost         string `env:"SMTP_HOST"`
	SMTPPort         int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername     string `env:"SMTP_USERNAME"`
	SMTPPassword     string `env:"SMTP_PASSWORD"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPM     int  `env:"RATE_LIMIT_RPM" envDefault:"120"`

	// CLI 访问的服务地址
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://127.0.0.1:8888"`
	APIToken   string `env:"API_TOKEN"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.JWTSecret == "" {
		log.Printf("WARN: JWT_SECRET is not set, API authentication is disabled")
	}

	if Cfg.CheckInHour < 0 || Cfg.CheckInHour > 23 {
		log.Fatalf("CHECK_IN_HOUR must be within 0-23, got %d", Cfg.CheckInHour)
	}
	if Cfg.CheckInMinute < 0 || Cfg.CheckInMinute > 59 {
		log.Fatalf("CHECK_IN_MINUTE must be within 0-59, got %d", Cfg.CheckInMinute)
	}
	if Cfg.GracePeriodHours < 1 {
		log.Fatalf("GRACE_PERIOD_HOURS must be positive, got %d", Cfg.GracePeriodHours)
	}

	switch strings.ToLower(Cfg.MessagingMethod) {
	case "sms", "whatsapp", "both":
	default:
		log.Printf("WARN: MESSAGING_METHOD %q is unknown, falling back to both", Cfg.MessagingMethod)
		Cfg.MessagingMethod = "both"
	}

	if Cfg.SMSProvider == "twilio" && (Cfg.TwilioAccountSID == "" || Cfg.TwilioAuthToken == "") {
		log.Printf("WARN: TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN are not set, SMS gateway will be unavailable")
	}
	if Cfg.SMSFallbackProvider == "aliyun" && (Cfg.SMSSignName == "" || Cfg.SMSTemplateCode == "") {
		log.Printf("WARN: SMS_SIGN_NAME / SMS_TEMPLATE_CODE are not set, fallback SMS may not work properly")
	}
	if Cfg.TwilioWhatsAppFrom == "" {
		log.Printf("WARN: TWILIO_WHATSAPP_NUMBER is not set, WhatsApp alerts are disabled")
	}
	if Cfg.SendGridAPIKey == "" && Cfg.RelayBaseURL == "" && Cfg.SMTPHost == "" {
		log.Printf("WARN: no email transport configured (SENDGRID_API_KEY, RELAY_BASE_URL, SMTP_HOST)")
	}
}

func (c *Config) GetDSN() string {
	return c.dsnFor(c.PostgreSQLHost)
}

// GetReplicaDSN 返回只读副本的 DSN，未配置时为空
func (c *Config) GetReplicaDSN() string {
	if c.PostgreSQLReplicaHost == "" {
		return ""
	}
	return c.dsnFor(c.PostgreSQLReplicaHost)
}

func (c *Config) dsnFor(host string) string {
	return "host=" + host +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

// Location 返回打卡时间所在的时区，解析失败时使用本地时区
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("WARN: invalid TIMEZONE %q: %v, using local time", c.Timezone, err)
		return time.Local
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// QueueDispatch 告警是否通过消息队列交给 worker 执行
func (c *Config) QueueDispatch() bool {
	return strings.EqualFold(c.EscalationDispatch, "queue")
}
