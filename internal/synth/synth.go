// Package synth expands question templates over scene graphs into
// question, answer and program triples.
package synth

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/clevr-action/internal/program"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
	"github.com/tensorplex-labs/clevr-action/internal/template"
	"github.com/tensorplex-labs/clevr-action/internal/utils/logger"
)

// datasetNamespace scopes generated dataset ids.
var datasetNamespace = uuid.MustParse("6f1c7c1e-5a43-4f5e-9d51-3c0c6a1f9b2e")

type Synthesizer struct {
	lib      *template.Library
	opts     Options
	rng      *rand.Rand
	usage    map[int]int
	balancer *balancer
	next     int
}

// New returns a synthesizer over lib. All randomness comes from a single
// generator seeded with the configured seed.
func New(lib *template.Library, opts ...Option) (*Synthesizer, error) {
	if lib == nil {
		return nil, fmt.Errorf("template library cannot be nil")
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.TemplatesPerImage <= 0 || o.InstancesPerTemplate <= 0 {
		return nil, fmt.Errorf("templates per image and instances per template must be positive")
	}
	if o.MaxCandidatesPerTemplate <= 0 {
		return nil, fmt.Errorf("max candidates per template must be positive")
	}

	return &Synthesizer{
		lib:      lib,
		opts:     o,
		rng:      rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15)),
		usage:    make(map[int]int),
		balancer: newBalancer(o.Balance),
	}, nil
}

func (s *Synthesizer) Options() Options {
	return s.opts
}

// Generate synthesizes questions for every scene in order. Question indices
// run across the whole call.
func (s *Synthesizer) Generate(ctx context.Context, scenes []scene.Scene) ([]Question, error) {
	var out []Question
	short := 0
	for i := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate questions: %w", err)
		}
		qs, err := s.GenerateScene(scene.NewGraph(&scenes[i]))
		if err != nil {
			return nil, err
		}
		if len(qs) < s.opts.QuestionsPerScene() {
			short++
		}
		out = append(out, qs...)

		if (i+1)%100 == 0 {
			log.Info().Int("scenes", i+1).Int("questions", len(out)).Msg("synthesis progress")
		}
	}

	logger.Sugar().Infow("question synthesis finished",
		"scenes", len(scenes),
		"questions", len(out),
		"short_scenes", short,
		"families_used", len(s.usage),
	)
	return out, nil
}

// GenerateScene synthesizes up to TemplatesPerImage*InstancesPerTemplate
// questions for one scene. Fewer are returned, never padded, when the
// templates cannot produce enough distinct balanced questions.
func (s *Synthesizer) GenerateScene(g *scene.Graph) ([]Question, error) {
	target := s.opts.QuestionsPerScene()
	texts := make(map[string]bool)
	traces := make(map[string]bool)
	var out []Question

	for _, t := range s.order(s.lib.TemplatesFor(g.HasAction() && s.opts.Actions)) {
		if len(out) >= target {
			break
		}
		domain := s.lib.AnswerDomain(t)
		emitted := 0

		err := s.expand(g, t, func(c Candidate) error {
			steps := t.Instantiate(c.Bindings)
			traceKey := strconv.Itoa(t.Family) + "#" + template.CanonicalTrace(steps)
			if traces[traceKey] {
				return nil
			}

			text := s.lib.Render(t, s.rng.IntN(len(t.Text)), c.Bindings)
			if s.opts.Paraphrase {
				text = s.lib.Synonyms.Paraphrase(text, s.rng)
			}
			norm := s.lib.Synonyms.Normalize(text)
			if texts[norm] {
				return nil
			}

			key := c.Answer.Key()
			if !s.balancer.accept(t.Family, domain, key) {
				return nil
			}
			s.balancer.record(t.Family, key)
			traces[traceKey] = true
			texts[norm] = true

			out = append(out, Question{
				Split:               g.Split,
				ImageIndex:          g.ImageIndex,
				ImageFilename:       g.ImageFilename,
				QuestionIndex:       s.next,
				Question:            text,
				Answer:              c.Answer.Answer(),
				Program:             steps,
				TemplateFilename:    t.Filename,
				QuestionFamilyIndex: t.Family,
			})
			s.next++
			emitted++

			if emitted >= s.opts.InstancesPerTemplate || len(out) >= target {
				return errStop
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("generate scene %d: %w", g.ImageIndex, err)
		}
		s.usage[t.Family] += emitted
	}

	if len(out) < target {
		log.Warn().
			Int("image_index", g.ImageIndex).
			Int("questions", len(out)).
			Int("target", target).
			Msg("scene short of questions")
	}
	log.Debug().Int("image_index", g.ImageIndex).Int("questions", len(out)).Msg("scene done")
	return out, nil
}

// order returns templates least-used first, ties broken randomly.
func (s *Synthesizer) order(templates []*template.Template) []*template.Template {
	out := slices.Clone(templates)
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	slices.SortStableFunc(out, func(a, b *template.Template) int {
		return s.usage[a.Family] - s.usage[b.Family]
	})
	return out
}

// AnswerCounts returns the run-wide answer counts per family.
func (s *Synthesizer) AnswerCounts() map[int]map[string]int {
	return s.balancer.Counts()
}

// Candidates lists every valid candidate of t on g with its rendered text,
// ignoring caps, dedup and balancing.
func (s *Synthesizer) Candidates(g *scene.Graph, t *template.Template) ([]string, []any, error) {
	var texts []string
	var answers []any
	err := s.expand(g, t, func(c Candidate) error {
		for k := range t.Text {
			texts = append(texts, s.lib.Render(t, k, c.Bindings))
			answers = append(answers, c.Answer.Answer())
		}
		return nil
	})
	return texts, answers, err
}

// File wraps questions with run info. The dataset id is derived from the
// input name, seed and template library so reruns reproduce it.
func (s *Synthesizer) File(info scene.Info, input string, questions []Question) *File {
	if questions == nil {
		questions = []Question{}
	}
	return &File{
		Info: Info{
			Date:      info.Date,
			Version:   info.Version,
			Split:     info.Split,
			License:   info.License,
			DatasetID: s.DatasetID(input).String(),
			Seed:      s.opts.Seed,
		},
		Questions: questions,
	}
}

func (s *Synthesizer) DatasetID(input string) uuid.UUID {
	var sb strings.Builder
	sb.WriteString(input)
	sb.WriteString("|")
	sb.WriteString(strconv.FormatUint(s.opts.Seed, 10))
	for _, t := range s.lib.Templates {
		sb.WriteString("|")
		sb.WriteString(t.Filename)
		sb.WriteString(":")
		sb.WriteString(strings.Join(t.Text, "/"))
	}
	return uuid.NewSHA1(datasetNamespace, []byte(sb.String()))
}

// Verify replays every question's program and checks it reproduces the
// recorded answer.
func Verify(questions []Question, graphs map[int]*scene.Graph) error {
	var errs []error
	for _, q := range questions {
		g, ok := graphs[q.ImageIndex]
		if !ok {
			errs = append(errs, fmt.Errorf("question %d: no scene %d", q.QuestionIndex, q.ImageIndex))
			continue
		}
		got, err := program.Replay(q.Program, g)
		if err != nil {
			errs = append(errs, fmt.Errorf("question %d: %w", q.QuestionIndex, err))
			continue
		}
		if program.AnswerKey(got) != program.AnswerKey(q.Answer) {
			errs = append(errs, fmt.Errorf("question %d: replay gives %v, recorded %v", q.QuestionIndex, got, q.Answer))
		}
	}
	return errors.Join(errs...)
}
