package config

// Retrieval limits used when the config leaves them unset.
const (
	DefaultChatLimit   = 5
	DefaultSearchLimit = 10
	DefaultMaxLimit    = 100
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/docsy/data/db/index_status.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Model = "text-embedding-3-small"
		case "gemini":
			cfg.Embedding.Model = "text-embedding-004"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Dimensions = 1536
		default:
			cfg.Embedding.Dimensions = 768
		}
	}
	if cfg.Embedding.MaxInputChars == 0 {
		cfg.Embedding.MaxInputChars = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 10
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 30
	}
	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "qdrant"
	}
	if cfg.Vector.URL == "" && cfg.Vector.Type == "qdrant" {
		cfg.Vector.URL = "http://localhost:6333"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "docsy_documents"
	}
	if cfg.Vector.TimeoutSecs == 0 {
		cfg.Vector.TimeoutSecs = 15
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 200
	}
	if cfg.Chunking.MinChunkChars == 0 {
		cfg.Chunking.MinChunkChars = 50
	}
	if cfg.Retrieval.ChatLimit == 0 {
		cfg.Retrieval.ChatLimit = DefaultChatLimit
	}
	if cfg.Retrieval.SearchLimit == 0 {
		cfg.Retrieval.SearchLimit = DefaultSearchLimit
	}
	if cfg.Retrieval.MaxLimit == 0 {
		cfg.Retrieval.MaxLimit = DefaultMaxLimit
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md"}
	}
}
