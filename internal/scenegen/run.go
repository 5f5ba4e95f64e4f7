package scenegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/clevr-action/internal/dataset"
	"github.com/tensorplex-labs/clevr-action/internal/progress"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

// Counts tallies action types over a run.
type Counts map[scene.ActionType]int

// ScenePath is where the scene record for index is written.
func (p *Producer) ScenePath(dir string, index int) string {
	return filepath.Join(dir, Filename(p.cfg.FilenamePrefix, p.cfg.Split, index, "json"))
}

// Run produces scenes start..start+num-1 into dir, skipping indices the
// cursor already records as done whose files are present, and saves the
// cursor after every scene.
// It returns the paths of the whole window in index order.
func (p *Producer) Run(ctx context.Context, cursor *progress.Cursor, dir string, start, num int) ([]string, error) {
	paths := make([]string, 0, num)
	for i := start; i < start+num; i++ {
		paths = append(paths, p.ScenePath(dir, i))
	}

	first := cursor.Next(start)
	for i := start; i < min(first, start+num); i++ {
		if !exists(paths[i-start]) {
			first = i
			break
		}
	}
	if first > start {
		log.Info().Int("resume_from", first).Int("start", start).Msg("resuming scene production")
	}
	for i := first; i < start+num; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("produce scenes: %w", err)
		}
		s, err := p.Scene(i)
		if err != nil {
			return nil, err
		}
		if err := dataset.WriteJSON(paths[i-start], s); err != nil {
			return nil, fmt.Errorf("write scene %d: %w", i, err)
		}
		if err := cursor.Complete(i); err != nil {
			return nil, err
		}

		ev := log.Info().Int("image_index", i).Int("objects", len(s.Objects))
		if s.Action != nil {
			ev = ev.Str("action", string(s.Action.Type))
		}
		ev.Msg("scene written")
	}
	return paths, nil
}

// Join loads per-index scene files into one scene file, sorted by index,
// and tallies the action type of every scene.
func Join(paths []string, info scene.Info) (*scene.File, Counts, error) {
	counts := make(Counts, len(scene.ActionTypes))
	for _, t := range scene.ActionTypes {
		counts[t] = 0
	}

	f := &scene.File{Info: info, Scenes: make([]scene.Scene, 0, len(paths))}
	for _, path := range paths {
		s, err := scene.LoadScene(path)
		if err != nil {
			return nil, nil, fmt.Errorf("join scenes: %w", err)
		}
		if s.Action != nil {
			counts[s.Action.Type]++
		}
		f.Scenes = append(f.Scenes, *s)
	}
	scene.SortByIndex(f.Scenes)
	return f, counts, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
