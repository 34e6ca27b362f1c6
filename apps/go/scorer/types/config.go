package types

import (
	"encoding/json"
)

type TemporalConfig struct {
	Host      string `json:"host" mapstructure:"host"`
	Port      uint   `json:"port" mapstructure:"port"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
	TaskQueue string `json:"task_queue" mapstructure:"task_queue"`
	// WorkflowTimeout bounds one score update run, in seconds.
	WorkflowTimeout int `json:"workflow_timeout" mapstructure:"workflow_timeout"`
}

type HttpConfig struct {
	Listen string   `json:"listen" mapstructure:"listen"`
	Cors   []string `json:"cors" mapstructure:"cors"`
}

type ScoringConfig struct {
	ScaleW  int `json:"scale_w" mapstructure:"scale_w"`
	ScaleH  int `json:"scale_h" mapstructure:"scale_h"`
	Workers int `json:"workers" mapstructure:"workers"`
}

type VdaConfig struct {
	BaseUrl    string `json:"base_url" mapstructure:"base_url"`
	Key        string `json:"key" mapstructure:"key"`
	Secret     string `json:"secret" mapstructure:"secret"`
	RatePerSec int    `json:"rate_per_sec" mapstructure:"rate_per_sec"`
	Retries    int    `json:"retries" mapstructure:"retries"`
	CacheTTL   int    `json:"cache_ttl" mapstructure:"cache_ttl"`
}

type StorageConfig struct {
	Bucket          string `json:"bucket" mapstructure:"bucket"`
	CredentialsFile string `json:"credentials_file" mapstructure:"credentials_file"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	// Prefix locates a mission's files, {rcif} and {mission} are substituted.
	Prefix string `json:"prefix" mapstructure:"prefix"`
}

type MailConfig struct {
	Urls         []string `json:"urls" mapstructure:"urls"`
	FrontendHost string   `json:"frontend_host" mapstructure:"frontend_host"`
}

type MqttConfig struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Topic    string `json:"topic" mapstructure:"topic"`
	ClientID string `json:"client_id" mapstructure:"client_id"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

type Config struct {
	MongodbUri string          `json:"mongodb_uri" mapstructure:"mongodb_uri"`
	LogLevel   string          `json:"log_level" mapstructure:"log_level"`
	Temporal   *TemporalConfig `json:"temporal" mapstructure:"temporal"`
	Http       *HttpConfig     `json:"http" mapstructure:"http"`
	Scoring    *ScoringConfig  `json:"scoring" mapstructure:"scoring"`
	Vda        *VdaConfig      `json:"vda" mapstructure:"vda"`
	Storage    *StorageConfig  `json:"storage" mapstructure:"storage"`
	Mail       *MailConfig     `json:"mail" mapstructure:"mail"`
	Mqtt       *MqttConfig     `json:"mqtt" mapstructure:"mqtt"`
	Metrics    bool            `json:"metrics" mapstructure:"metrics"`
}

// NewDefaultConfig returns the configuration used for every value a config file leaves out.
func NewDefaultConfig() *Config {
	return &Config{
		MongodbUri: DefaultMongodbUri,
		LogLevel:   DefaultLogLevel,
		Temporal: &TemporalConfig{
			Host:            DefaultTemporalHost,
			Port:            DefaultTemporalPort,
			Namespace:       DefaultTemporalNamespace,
			TaskQueue:       DefaultTemporalTaskQueue,
			WorkflowTimeout: DefaultWorkflowTimeoutSeconds,
		},
		Http: &HttpConfig{
			Listen: DefaultHttpListen,
			Cors:   []string{},
		},
		Scoring: &ScoringConfig{
			ScaleW:  DefaultScoringScaleW,
			ScaleH:  DefaultScoringScaleH,
			Workers: DefaultScoringWorkers,
		},
		Vda: &VdaConfig{
			RatePerSec: DefaultVdaRatePerSec,
			Retries:    DefaultVdaRetries,
			CacheTTL:   DefaultVdaCacheTTLSeconds,
		},
		Storage: &StorageConfig{
			Prefix: DefaultStoragePrefixTemplate,
		},
		Mail: &MailConfig{
			Urls: []string{},
		},
		Mqtt: &MqttConfig{
			Topic:    DefaultMqttTopic,
			ClientID: DefaultMqttClientID,
		},
		Metrics: true,
	}
}

// UnmarshalJSON implement the Unmarshaler interface on Config
func (c *Config) UnmarshalJSON(b []byte) error {
	// We create an alias for the Config type to avoid recursive calls to the UnmarshalJSON method
	type Alias Config
	defaultValues := (*Alias)(NewDefaultConfig())

	if err := json.Unmarshal(b, defaultValues); err != nil {
		return err
	}

	// If the incoming JSON has values, it will override the defaults. If not, the default values will be used.
	*c = Config(*defaultValues)

	return nil
}
