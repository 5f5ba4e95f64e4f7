package template

import (
	"math/rand/v2"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/clevr-action/assets"
	"github.com/tensorplex-labs/clevr-action/internal/program"
)

func defaultLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(assets.Templates(), assets.FS)
	require.NoError(t, err)
	return lib
}

func metadata(t *testing.T) *Metadata {
	t.Helper()
	meta, err := LoadMetadata(assets.FS, "metadata.json")
	require.NoError(t, err)
	return meta
}

func TestOpen_DefaultLibrary(t *testing.T) {
	lib := defaultLibrary(t)
	require.NotEmpty(t, lib.Templates)

	files := map[string]bool{}
	for i, tmpl := range lib.Templates {
		assert.Equal(t, i, tmpl.Family)
		files[tmpl.Filename] = true
	}
	assert.True(t, files["action.yaml"], "yaml templates are loaded")
	assert.True(t, files["count.json"])

	// lexical file order: action.yaml sorts first
	assert.Equal(t, "action.yaml", lib.Templates[0].Filename)
	assert.True(t, lib.Templates[0].Action)

	plain := lib.TemplatesFor(false)
	withAction := lib.TemplatesFor(true)
	assert.Less(t, len(plain), len(withAction))
	for _, tmpl := range plain {
		assert.False(t, tmpl.Action)
	}
}

func TestNewLibrary_RejectsMalformed(t *testing.T) {
	meta := metadata(t)
	sizeParam := []Param{{Type: program.ParamSize, Name: "<Z>"}}

	cases := map[string]*Template{
		"unknown op": {
			Text:  []string{"?"},
			Nodes: []program.Node{{Type: "scene"}, {Type: "teleport", Inputs: []int{0}}},
		},
		"forward input": {
			Text:  []string{"How many?"},
			Nodes: []program.Node{{Type: "count", Inputs: []int{1}}, {Type: "scene"}},
		},
		"wrong arity": {
			Text:  []string{"How many?"},
			Nodes: []program.Node{{Type: "scene"}, {Type: "count", Inputs: []int{0, 0}}},
		},
		"kind mismatch": {
			Text:  []string{"What color?"},
			Nodes: []program.Node{{Type: "scene"}, {Type: "query_color", Inputs: []int{0}}},
		},
		"undeclared side input": {
			Text:  []string{"How many <Z> things?"},
			Nodes: []program.Node{{Type: "scene"}, {Type: "filter_size", Inputs: []int{0}, SideInputs: []string{"<Z>"}}, {Type: "count", Inputs: []int{1}}},
		},
		"side input type mismatch": {
			Text:   []string{"How many <Z> things?"},
			Nodes:  []program.Node{{Type: "scene"}, {Type: "filter_color", Inputs: []int{0}, SideInputs: []string{"<Z>"}}, {Type: "count", Inputs: []int{1}}},
			Params: sizeParam,
		},
		"unused param": {
			Text:   []string{"How many things?"},
			Nodes:  []program.Node{{Type: "scene"}, {Type: "count", Inputs: []int{0}}},
			Params: sizeParam,
		},
		"text references undeclared param": {
			Text:  []string{"How many <C> things?"},
			Nodes: []program.Node{{Type: "scene"}, {Type: "count", Inputs: []int{0}}},
		},
		"not an answer": {
			Text:  []string{"Which?"},
			Nodes: []program.Node{{Type: "scene"}},
		},
		"bad constraint": {
			Text:        []string{"How many things?"},
			Nodes:       []program.Node{{Type: "scene"}, {Type: "count", Inputs: []int{0}}},
			Constraints: []Constraint{{Type: ConstraintOutNeq, Nodes: []int{0, 9}}},
		},
		"unknown param type": {
			Text:   []string{"How many <Z> things?"},
			Nodes:  []program.Node{{Type: "scene"}, {Type: "filter_size", Inputs: []int{0}, SideInputs: []string{"<Z>"}}, {Type: "count", Inputs: []int{1}}},
			Params: []Param{{Type: "Weight", Name: "<Z>"}},
		},
	}

	for name, tmpl := range cases {
		t.Run(name, func(t *testing.T) {
			tmpl.Filename = "bad.json"
			_, err := NewLibrary([]*Template{tmpl}, meta, nil)
			assert.ErrorIs(t, err, ErrMalformedTemplate)
			assert.Contains(t, err.Error(), "bad.json[0]")
		})
	}
}

func TestLoadTemplates_DecodeErrors(t *testing.T) {
	_, err := LoadTemplates(fstest.MapFS{})
	assert.ErrorIs(t, err, ErrMalformedTemplate)

	_, err = LoadTemplates(fstest.MapFS{"broken.json": {Data: []byte(`[{"text": `)}})
	assert.ErrorIs(t, err, ErrMalformedTemplate)

	ts, err := LoadTemplates(fstest.MapFS{
		"b.json":    {Data: []byte(`[{"text":["How many things?"],"nodes":[{"type":"scene","inputs":[]},{"type":"count","inputs":[0]}]}]`)},
		"a.yml":     {Data: []byte("- text: [\"Are there any things?\"]\n  nodes:\n    - {type: scene, inputs: []}\n    - {type: exist, inputs: [0]}\n")},
		"notes.txt": {Data: []byte("ignored")},
	})
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "a.yml", ts[0].Filename)
	assert.Equal(t, "exist", ts[0].Nodes[1].Type)
	assert.Equal(t, "b.json", ts[1].Filename)
}

func TestRender(t *testing.T) {
	lib := defaultLibrary(t)
	var count, relation *Template
	for _, tmpl := range lib.Templates {
		switch tmpl.Filename {
		case "count.json":
			if count == nil {
				count = tmpl
			}
		case "relation.json":
			relation = tmpl
		}
	}
	require.NotNil(t, count)
	require.NotNil(t, relation)

	assert.Equal(t, "How many objects are there?", lib.Render(count, 0, Bindings{}))
	assert.Equal(t, "How many large red cubes are there?",
		lib.Render(count, 0, Bindings{"<Z>": "large", "<C>": "red", "<S>": "cube"}))

	got := lib.Render(relation, 0, Bindings{
		"<C>": "red", "<S>": "cube", "<R>": "left", "<C2>": "blue", "<S2>": "sphere",
	})
	assert.Equal(t, "Is the red cube to the left of the blue sphere?", got)
}

func TestInstantiate_EmptyFilterKeepsNode(t *testing.T) {
	lib := defaultLibrary(t)
	tmpl := lib.Templates[len(lib.Templates)-1]
	steps := tmpl.Instantiate(Bindings{})
	require.Len(t, steps, len(tmpl.Nodes))
	for _, s := range steps {
		assert.NotNil(t, s.ValueInputs)
		assert.Empty(t, s.ValueInputs)
	}
	assert.Equal(t, CanonicalTrace(steps), CanonicalTrace(tmpl.Instantiate(Bindings{})))
	assert.NotEqual(t, CanonicalTrace(steps), CanonicalTrace(tmpl.Instantiate(Bindings{"<C>": "red"})))
}

func TestAnswerDomain(t *testing.T) {
	lib := defaultLibrary(t)
	for _, tmpl := range lib.Templates {
		domain := lib.AnswerDomain(tmpl)
		switch tmpl.AnswerOp().Name {
		case "exist", "count_equal", "equal_color", "greater_than":
			assert.Equal(t, []string{"no", "yes"}, domain)
		case "query_color", "query_color_after":
			assert.Contains(t, domain, "red")
			assert.Len(t, domain, 8)
		case "query_direction":
			assert.Contains(t, domain, "front right")
		case "query_action":
			assert.Contains(t, domain, "no change")
		case "count":
			assert.Contains(t, domain, "10")
		}
	}
}

func TestSynonyms(t *testing.T) {
	syn := NewSynonyms(map[string][]string{
		"to the left of": {"left of", "on the left side of"},
		"sphere":         {"ball"},
		"how many":       {"what number of"},
	})

	a := syn.Normalize("Is the red cube to the left of the blue sphere?")
	b := syn.Normalize("Is the red cube left of the blue ball ?")
	c := syn.Normalize("is the  red cube on the left side of the blue sphere?")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, "is the red cube to the left of the blue sphere?", a)
	assert.Equal(t, syn.Normalize("How many spheres?"), syn.Normalize("What number of spheres?"))

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		p := syn.Paraphrase("How many red spheres are to the left of the cube?", rng)
		assert.Equal(t, syn.Normalize("How many red spheres are to the left of the cube?"), syn.Normalize(p))
		assert.Regexp(t, `^[A-Z]`, p)
	}

	empty := NewSynonyms(nil)
	assert.Equal(t, "Is it?", empty.Paraphrase("Is it?", rng))
}

func TestLoadSynonyms_Missing(t *testing.T) {
	syn, err := LoadSynonyms(fstest.MapFS{}, "synonyms.json")
	require.NoError(t, err)
	assert.Equal(t, "a b", syn.Normalize("A  B"))
}
