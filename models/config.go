package models

type Config struct {
	Debug          bool   `yaml:"debug" envconfig:"VCOMMONS_DEBUG"`
	SemVer         string `yaml:"semver" envconfig:"VCOMMONS_SERVICE_SEMVER" default:"0.1.0"`
	ServiceContact string `yaml:"serviceContact" envconfig:"VCOMMONS_SERVICE_CONTACT"`

	Api struct {
		Url                            string `yaml:"url"`
		Port                           string `yaml:"port" envconfig:"VCOMMONS_API_INTERNAL_PORT" default:"5000"`
		ManifestPath                   string `yaml:"manifestPath" envconfig:"VCOMMONS_API_MANIFEST_PATH" default:"/app/manifests"`
		FileProcessingConcurrencyLevel int    `yaml:"fileProcessingConcurrencyLevel" envconfig:"VCOMMONS_API_FILE_PROC_CONC_LVL" default:"4"`
		IngestRequestRetentionHours    int    `yaml:"ingestRequestRetentionHours" envconfig:"VCOMMONS_API_INGEST_REQUEST_RETENTION_HOURS" default:"24"`
	} `yaml:"api"`

	Store struct {
		Backend         string `yaml:"backend" envconfig:"VCOMMONS_STORE_BACKEND" default:"mongo"`
		FilesCollection string `yaml:"filesCollection" envconfig:"VCOMMONS_STORE_FILES_COLLECTION" default:"files"`
	} `yaml:"store"`

	Mongo struct {
		Uri      string `yaml:"uri" envconfig:"VCOMMONS_MONGO_URI" default:"mongodb://localhost:27017"`
		Database string `yaml:"database" envconfig:"VCOMMONS_MONGO_DATABASE" default:"variation"`
	} `yaml:"mongo"`

	Elasticsearch struct {
		Url      string `yaml:"url" envconfig:"VCOMMONS_ES_URL"`
		Username string `yaml:"username" envconfig:"VCOMMONS_ES_USERNAME"`
		Password string `yaml:"password" envconfig:"VCOMMONS_ES_PASSWORD"`
	} `yaml:"elasticsearch"`

	Sanitation struct {
		IntervalMinutes int `yaml:"intervalMinutes" envconfig:"VCOMMONS_SANITATION_INTERVAL_MINUTES" default:"60"`
	} `yaml:"sanitation"`
}

const (
	StoreBackendMongo         = "mongo"
	StoreBackendElasticsearch = "elasticsearch"
	StoreBackendMemory        = "memory"
)
