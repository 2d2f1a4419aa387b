package config

type Config struct {
	Server   Server          `yaml:"server"`
	Auth     Auth            `yaml:"auth"`
	Radius   Radius          `yaml:"radius"`
	Redis    Redis           `yaml:"redis"`
	Session  Session         `yaml:"session"`
	JWT      JWT             `yaml:"jwt"`
	Audit    Audit           `yaml:"audit"`
	Methods  []MethodBinding `yaml:"methods"`
	Settings map[string]any  `yaml:"settings"`
}

type Server struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Bind    struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"bind"`
	SwaggerUI bool `yaml:"swagger_ui"`
}

type Auth struct {
	Realm     string `yaml:"realm"`
	Backend   string `yaml:"backend"` // file|radius
	UsersFile string `yaml:"users_file"`
}

type Radius struct {
	Server         string `yaml:"server"`
	AcctServer     string `yaml:"acct_server"` // accounting disabled when empty
	SecretRef      string `yaml:"secret_ref"`
	NASIdentifier  string `yaml:"nas_identifier"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DB      int    `yaml:"db"`
	Prefix  string `yaml:"prefix"`
	AuthRef string `yaml:"auth_ref"`
}

type Session struct {
	CookieName string `yaml:"cookie_name"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type JWT struct {
	SecretRef  string `yaml:"secret_ref"`
	Issuer     string `yaml:"issuer"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type Audit struct {
	Enabled   bool   `yaml:"enabled"`
	SecretRef string `yaml:"secret_ref"`
}

// MethodBinding declares the rules of one RPC method. Groups is decoded
// untyped: a single name or a list of names.
type MethodBinding struct {
	Name          string   `yaml:"name"`
	Help          string   `yaml:"help"`
	Signature     []string `yaml:"signature"`
	LoginRequired bool     `yaml:"login_required"`
	Superuser     bool     `yaml:"superuser_required"`
	Permissions   []string `yaml:"permissions"`
	Groups        any      `yaml:"groups"`
}
