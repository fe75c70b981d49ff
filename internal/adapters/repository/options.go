package repository

type settings struct {
	path          string
	redisAddr     string
	redisPassword string
	redisDB       int
	redisKey      string
	postgresDSN   string
	documentName  string
}

func defaultSettings() settings {
	return settings{
		path:         "data/review_state.json",
		redisKey:     "reviewdesk:state",
		documentName: "shared",
	}
}

// Option configures Open.
type Option func(*settings)

// WithPath sets the file backend location.
func WithPath(path string) Option {
	return func(s *settings) {
		s.path = path
	}
}

// WithRedis sets the redis connection.
func WithRedis(addr, password string, db int) Option {
	return func(s *settings) {
		s.redisAddr = addr
		s.redisPassword = password
		s.redisDB = db
	}
}

// WithRedisKey sets the key the document is stored under.
func WithRedisKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.redisKey = key
		}
	}
}

// WithPostgresDSN sets the postgres connection string.
func WithPostgresDSN(dsn string) Option {
	return func(s *settings) {
		s.postgresDSN = dsn
	}
}

// WithDocumentName sets the row id used by the postgres backend.
func WithDocumentName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.documentName = name
		}
	}
}
