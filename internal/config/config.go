package config

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Log         Log         `envPrefix:"LOG_"`
	HTTP        HTTPServer  `envPrefix:"HTTP_"`
	Auth        Auth        `envPrefix:"AUTH_"`
	MercadoPago MercadoPago `envPrefix:"MP_"`
}

type MercadoPago struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.mercadopago.com"`
	AccessToken   string `env:"ACCESS_TOKEN"`
	PublicKey     string `env:"PUBLIC_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
