package common

// Class labels
const (
	ClassFishing    = "fishing"
	ClassNotFishing = "notfishing"
)

// Input file columns
const (
	ColUTCDate     = "utc_date"
	ColLocalTime   = "local_time"
	ColFishing     = "fishing"
	ColLength      = "len"
	ColBoat        = "boat"
	ColHour        = "hour"
	ColBearing     = "bearing.rad"
	ColSpeed       = "speed"
	ColBottomDepth = "bottom_depth"
)

// Derived feature columns
const (
	ColLengthBin = "len_bin"
	ColHourBin   = "hour_bin"
)

// TimestampLayout is the layout of both timestamp columns in the input file.
const TimestampLayout = "2006-01-02 15:04:05"

// Environment variable keys
const (
	EnvConfigFile    = "CONFIG_FILE"
	EnvDataPath      = "DATA_PATH"
	EnvDataFormat    = "DATA_FORMAT"
	EnvOutputPath    = "OUTPUT_PATH"
	EnvLocalZone     = "LOCAL_ZONE"
	EnvSeed          = "SEED"
	EnvFrom          = "WINDOW_FROM"
	EnvTo            = "WINDOW_TO"
	EnvFeatures      = "FEATURES"
	EnvLenBins       = "LEN_BINS"
	EnvHourBins      = "HOUR_BINS"
	EnvTrainFraction = "TRAIN_FRACTION"
	EnvFolds         = "FOLDS"
	EnvMetric        = "METRIC"
	EnvThreshold     = "THRESHOLD"
	EnvRefitOnTest   = "REFIT_ON_TEST"
	EnvNetSizes      = "NNET_SIZES"
	EnvNetDecays     = "NNET_DECAYS"
	EnvNetMaxIter    = "NNET_MAXIT"
	EnvTreeDepths    = "GBM_DEPTHS"
	EnvTreeCounts    = "GBM_TREES"
	EnvShrinkages    = "GBM_SHRINKAGES"
	EnvMinObs        = "GBM_MINOBS"
	EnvBagFraction   = "GBM_BAG_FRACTION"
	EnvMetricsFile   = "METRICS_FILE"
	EnvHTTPTimeout   = "HTTP_TIMEOUT"
)

// Configuration defaults
const (
	DefaultDataPath      = "data/polls.csv"
	DefaultDataFormat    = "auto"
	DefaultOutputPath    = "output"
	DefaultLocalZone     = "America/Los_Angeles"
	DefaultSeed          = 42
	DefaultLenBins       = 5
	DefaultHourBins      = 4
	DefaultTrainFraction = 0.8
	DefaultFolds         = 5
	DefaultMetric        = MetricROC
	DefaultThreshold     = 0.5
	DefaultNetMaxIter    = 100
	DefaultNetRang       = 0.7
	DefaultBagFraction   = 0.5
)

// Selection metrics
const (
	MetricROC      = "ROC"
	MetricAccuracy = "Accuracy"
)

// Data source formats
const (
	FormatAuto   = "auto"
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatBoltDB = "boltdb"
	FormatHTTP   = "http"
)

// DefaultFeatures is the enumerated feature list handed to both model families.
var DefaultFeatures = []string{ColLengthBin, ColHourBin, ColBearing, ColSpeed, ColBottomDepth}

// Default tuning grids
var (
	DefaultNetSizes   = []int{1, 3, 5}
	DefaultNetDecays  = []float64{0, 1e-4, 0.1}
	DefaultTreeDepths = []int{1, 3, 5}
	DefaultTreeCounts = []int{50, 100, 150}
	DefaultShrinkages = []float64{0.1}
	DefaultMinObs     = []int{10, 20}
)

// Validation limits
const (
	MinBins      = 2
	MaxBins      = 100
	MinFolds     = 2
	MaxFolds     = 50
	MaxNetSize   = 200
	MaxNetIter   = 10000
	MaxTreeDepth = 20
	MaxTreeCount = 5000
)
