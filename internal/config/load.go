// Package config defines environment configuration structs and loaders.
package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	SynthesizerEnvConfig
	ProducerEnvConfig
	OutputEnvConfig
	Environment string `env:"ENVIRONMENT" envDefault:"prod"`
}

// LoadConfig reads an optional .env file and parses the process environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SynthesizerEnvConfig configures question generation.
type SynthesizerEnvConfig struct {
	BalanceEnvConfig
	InputSceneFile           string `env:"INPUT_SCENE_FILE" envDefault:"output/CLEVR_scenes.json"`
	OutputQuestionsFile      string `env:"OUTPUT_QUESTIONS_FILE" envDefault:"output/CLEVR_questions.json"`
	TemplateDir              string `env:"TEMPLATE_DIR"` // empty selects the embedded library
	TemplatesPerImage        int    `env:"TEMPLATES_PER_IMAGE" envDefault:"10"`
	InstancesPerTemplate     int    `env:"INSTANCES_PER_TEMPLATE" envDefault:"1"`
	MaxCandidatesPerTemplate int    `env:"MAX_CANDIDATES_PER_TEMPLATE" envDefault:"10000"`
	Seed                     uint64 `env:"SEED" envDefault:"0"`
	Paraphrase               bool   `env:"PARAPHRASE" envDefault:"true"`
	SceneStartIndex          int    `env:"SCENE_START_IDX" envDefault:"0"`
	NumScenes                int    `env:"NUM_SCENES" envDefault:"0"` // 0 means all
}

// BalanceEnvConfig holds the answer-balancing thresholds.
type BalanceEnvConfig struct {
	RunnerUpRatio float64 `env:"BALANCE_RUNNER_UP_RATIO" envDefault:"1.1"`
	MedianRatio   float64 `env:"BALANCE_MEDIAN_RATIO" envDefault:"5"`
	MedianFloor   int     `env:"BALANCE_MEDIAN_FLOOR" envDefault:"5"`
}

// ProducerEnvConfig configures object placement and actions.
type ProducerEnvConfig struct {
	PropertiesFile    string   `env:"PROPERTIES_FILE"` // empty selects the embedded properties
	Action            bool     `env:"ACTION" envDefault:"true"`
	NumImages         int      `env:"NUM_IMAGES" envDefault:"5"`
	StartIndex        int      `env:"START_IDX" envDefault:"0"`
	MinObjects        int      `env:"MIN_OBJECTS" envDefault:"3"`
	MaxObjects        int      `env:"MAX_OBJECTS" envDefault:"10"`
	MinDist           float64  `env:"MIN_DIST" envDefault:"0.25"`
	Margin            float64  `env:"MARGIN" envDefault:"0.4"`
	MaxRetries        int      `env:"MAX_RETRIES" envDefault:"50"`
	MaxLayoutAttempts int      `env:"MAX_LAYOUT_ATTEMPTS" envDefault:"100"`
	ActionProperties  []string `env:"ACTION_PROPERTIES" envSeparator:"," envDefault:"position,material,color"`
	MoveProbability   float64  `env:"MOVE_PROBABILITY" envDefault:"0.8"`
	UseGPU            bool     `env:"USE_GPU" envDefault:"false"`
	ProgressFile      string   `env:"PROGRESS_FILE" envDefault:"output/progress.json"`
}

// OutputEnvConfig holds the dataset info block and output locations.
type OutputEnvConfig struct {
	OutputSceneDir  string `env:"OUTPUT_SCENE_DIR" envDefault:"output/scenes"`
	OutputSceneFile string `env:"OUTPUT_SCENE_FILE" envDefault:"output/CLEVR_scenes.json"`
	OutputCountFile string `env:"OUTPUT_COUNT_FILE" envDefault:"output/CLEVR_counts.json"`
	FilenamePrefix  string `env:"FILENAME_PREFIX" envDefault:"CLEVR"`
	Split           string `env:"SPLIT" envDefault:"new"`
	AfterSplit      string `env:"AFTER_SPLIT" envDefault:"cor"`
	Version         string `env:"VERSION" envDefault:"1.0"`
	License         string `env:"LICENSE" envDefault:"Creative Commons Attribution (CC-BY 4.0)"`
	Date            string `env:"DATE"`
}
