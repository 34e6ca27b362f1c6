package types

var (
	DefaultMongodbUri             = "mongodb://127.0.0.1:27017/roofscore?replicaSet=devRs"
	DefaultLogLevel               = "info"
	DefaultTemporalNamespace      = "roofscore"
	DefaultTemporalHost           = "localhost"
	DefaultTemporalPort           = uint(7233)
	DefaultTemporalTaskQueue      = "roof-score"
	DefaultWorkflowTimeoutSeconds = 30 * 60
	DefaultHttpListen             = ":8080"
	DefaultScoringScaleW          = 22
	DefaultScoringScaleH          = 16
	DefaultScoringWorkers         = 4
	DefaultVdaRatePerSec          = 5
	DefaultVdaRetries             = 3
	DefaultVdaCacheTTLSeconds     = 300
	DefaultStoragePrefixTemplate  = "{rcif}/{mission}/structure1"
	DefaultMqttTopic              = "roofscore/score-updated"
	DefaultMqttClientID           = "roofscore"
)
