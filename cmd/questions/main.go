package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/clevr-action/assets"
	"github.com/tensorplex-labs/clevr-action/internal/config"
	"github.com/tensorplex-labs/clevr-action/internal/dataset"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
	"github.com/tensorplex-labs/clevr-action/internal/synth"
	"github.com/tensorplex-labs/clevr-action/internal/template"
	"github.com/tensorplex-labs/clevr-action/internal/utils/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	sc := &cfg.SynthesizerEnvConfig

	flag.StringVar(&sc.InputSceneFile, "input_scene_file", sc.InputSceneFile, "scene file to generate questions for (.json or .json.zst)")
	flag.StringVar(&sc.OutputQuestionsFile, "output_questions_file", sc.OutputQuestionsFile, "where to write the question file")
	flag.StringVar(&sc.TemplateDir, "template_dir", sc.TemplateDir, "template directory; empty uses the built-in library")
	flag.IntVar(&sc.TemplatesPerImage, "templates_per_image", sc.TemplatesPerImage, "templates to draw questions from per scene")
	flag.IntVar(&sc.InstancesPerTemplate, "instances_per_template", sc.InstancesPerTemplate, "questions per template per scene")
	flag.IntVar(&sc.MaxCandidatesPerTemplate, "max_candidates_per_template", sc.MaxCandidatesPerTemplate, "candidate bindings explored per template per scene")
	flag.Uint64Var(&sc.Seed, "seed", sc.Seed, "random seed")
	flag.BoolVar(&sc.Paraphrase, "paraphrase", sc.Paraphrase, "replace words with synonyms")
	flag.IntVar(&sc.SceneStartIndex, "scene_start_idx", sc.SceneStartIndex, "image index of the first scene to process")
	flag.IntVar(&sc.NumScenes, "num_scenes", sc.NumScenes, "number of image indices to process from scene_start_idx; 0 means all")
	flag.BoolVar(&cfg.Action, "action", cfg.Action, "ask action questions of scenes with an after frame")
	flag.Parse()

	logger.Init(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Sync()
		log.Fatal().Err(err).Msg("question generation failed")
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	sc := &cfg.SynthesizerEnvConfig

	var templates fs.FS = assets.Templates()
	if sc.TemplateDir != "" {
		templates = os.DirFS(sc.TemplateDir)
	}
	lib, err := template.Open(templates, assets.FS)
	if err != nil {
		return err
	}
	log.Info().Int("templates", len(lib.Templates)).Msg("template library loaded")

	file, err := scene.LoadFile(sc.InputSceneFile)
	if err != nil {
		return err
	}
	scenes := window(file.Scenes, sc.SceneStartIndex, sc.NumScenes)
	log.Info().Str("input", sc.InputSceneFile).Int("scenes", len(scenes)).Msg("scenes loaded")

	syn, err := synth.New(lib,
		synth.WithSeed(sc.Seed),
		synth.WithTemplatesPerImage(sc.TemplatesPerImage),
		synth.WithInstancesPerTemplate(sc.InstancesPerTemplate),
		synth.WithMaxCandidatesPerTemplate(sc.MaxCandidatesPerTemplate),
		synth.WithParaphrase(sc.Paraphrase),
		synth.WithActions(cfg.Action),
		synth.WithBalance(synth.Balance{
			RunnerUpRatio: sc.RunnerUpRatio,
			MedianRatio:   sc.MedianRatio,
			MedianFloor:   float64(sc.MedianFloor),
		}),
	)
	if err != nil {
		return err
	}

	questions, err := syn.Generate(ctx, scenes)
	if err != nil {
		return err
	}

	out := syn.File(file.Info, filepath.Base(sc.InputSceneFile), questions)
	if err := dataset.WriteJSON(sc.OutputQuestionsFile, out); err != nil {
		return err
	}
	log.Info().
		Str("output", sc.OutputQuestionsFile).
		Int("questions", len(questions)).
		Str("dataset_id", out.Info.DatasetID).
		Msg("questions written")
	return nil
}

// window keeps the scenes whose image index lies in [start, start+n); n <= 0
// means no upper bound.
func window(scenes []scene.Scene, start, n int) []scene.Scene {
	out := make([]scene.Scene, 0, len(scenes))
	for _, sc := range scenes {
		if sc.ImageIndex < start || (n > 0 && sc.ImageIndex >= start+n) {
			continue
		}
		out = append(out, sc)
	}
	return out
}
