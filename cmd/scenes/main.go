package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/clevr-action/assets"
	"github.com/tensorplex-labs/clevr-action/internal/config"
	"github.com/tensorplex-labs/clevr-action/internal/dataset"
	"github.com/tensorplex-labs/clevr-action/internal/progress"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
	"github.com/tensorplex-labs/clevr-action/internal/scenegen"
	"github.com/tensorplex-labs/clevr-action/internal/utils/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	pc, oc := &cfg.ProducerEnvConfig, &cfg.OutputEnvConfig
	var seed uint64

	flag.IntVar(&pc.NumImages, "num_images", pc.NumImages, "number of scenes to produce")
	flag.IntVar(&pc.StartIndex, "start_idx", pc.StartIndex, "index of the first scene")
	flag.BoolVar(&pc.UseGPU, "use_gpu", pc.UseGPU, "accepted for compatibility; layout does not render")
	flag.BoolVar(&pc.Action, "action", pc.Action, "also produce an after frame with one object changed")
	flag.IntVar(&pc.MinObjects, "min_objects", pc.MinObjects, "minimum objects per scene")
	flag.IntVar(&pc.MaxObjects, "max_objects", pc.MaxObjects, "maximum objects per scene")
	flag.StringVar(&pc.PropertiesFile, "properties_json", pc.PropertiesFile, "object properties file; empty uses the built-in one")
	flag.StringVar(&pc.ProgressFile, "progress_file", pc.ProgressFile, "where the last completed index is kept")
	flag.StringVar(&oc.OutputSceneDir, "output_scene_dir", oc.OutputSceneDir, "directory for per-scene files")
	flag.StringVar(&oc.OutputSceneFile, "output_scene_file", oc.OutputSceneFile, "combined scene file")
	flag.StringVar(&oc.OutputCountFile, "output_count_file", oc.OutputCountFile, "action type counts file")
	flag.StringVar(&oc.Split, "split", oc.Split, "split name of the before frames")
	flag.Uint64Var(&seed, "seed", cfg.Seed, "random seed")
	flag.Parse()

	logger.Init(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, seed); err != nil {
		logger.Sync()
		log.Fatal().Err(err).Msg("scene production failed")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, seed uint64) error {
	pc, oc := &cfg.ProducerEnvConfig, &cfg.OutputEnvConfig
	if pc.UseGPU {
		log.Warn().Msg("--use_gpu has no effect on layout-only production")
	}

	var propsFS fs.FS = assets.FS
	propsName := "properties.json"
	if pc.PropertiesFile != "" {
		propsFS = os.DirFS(filepath.Dir(pc.PropertiesFile))
		propsName = filepath.Base(pc.PropertiesFile)
	}
	props, err := scenegen.LoadProperties(propsFS, propsName)
	if err != nil {
		return err
	}

	producer, err := scenegen.NewProducer(props, scenegen.Config{
		MinObjects:        pc.MinObjects,
		MaxObjects:        pc.MaxObjects,
		MinDist:           pc.MinDist,
		Margin:            pc.Margin,
		MaxRetries:        pc.MaxRetries,
		MaxLayoutAttempts: pc.MaxLayoutAttempts,
		Action:            pc.Action,
		ActionProperties:  pc.ActionProperties,
		MoveProbability:   pc.MoveProbability,
		FilenamePrefix:    oc.FilenamePrefix,
		Split:             oc.Split,
		AfterSplit:        oc.AfterSplit,
	}, seed)
	if err != nil {
		return err
	}

	cursor, err := progress.Load(pc.ProgressFile)
	if err != nil {
		return err
	}

	start := time.Now()
	paths, err := producer.Run(ctx, cursor, oc.OutputSceneDir, pc.StartIndex, pc.NumImages)
	if errors.Is(err, scenegen.ErrPlacementFailed) {
		log.Error().
			Int("last_completed", cursor.LastCompleted).
			Str("progress_file", cursor.Path()).
			Msg("object placement failed, rerun to resume")
	}
	if err != nil {
		return err
	}

	date := oc.Date
	if date == "" {
		date = time.Now().Format("01/02/2006")
	}
	file, counts, err := scenegen.Join(paths, scene.Info{
		Date:    date,
		Version: oc.Version,
		Split:   oc.Split,
		License: oc.License,
	})
	if err != nil {
		return err
	}
	if err := scene.WriteFile(oc.OutputSceneFile, file); err != nil {
		return err
	}
	if pc.Action {
		if err := dataset.WriteJSON(oc.OutputCountFile, counts); err != nil {
			return err
		}
	}

	logger.Sugar().Infow("scene production finished",
		"scenes", len(file.Scenes),
		"output", oc.OutputSceneFile,
		"elapsed", time.Since(start).String(),
	)
	return nil
}
