package synth

// Balance holds the answer balancing thresholds. A zero RunnerUpRatio turns
// balancing off.
type Balance struct {
	RunnerUpRatio float64
	MedianRatio   float64
	MedianFloor   float64
}

func DefaultBalance() Balance {
	return Balance{
		RunnerUpRatio: 1.1,
		MedianRatio:   5,
		MedianFloor:   5,
	}
}

type Options struct {
	Seed                     uint64
	TemplatesPerImage        int
	InstancesPerTemplate     int
	MaxCandidatesPerTemplate int
	Paraphrase               bool
	Actions                  bool // ask action templates of scenes with an after frame
	Balance                  Balance
}

func DefaultOptions() Options {
	return Options{
		TemplatesPerImage:        10,
		InstancesPerTemplate:     1,
		MaxCandidatesPerTemplate: 10000,
		Paraphrase:               true,
		Actions:                  true,
		Balance:                  DefaultBalance(),
	}
}

type Option func(*Options)

func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
	}
}

func WithTemplatesPerImage(n int) Option {
	return func(o *Options) {
		o.TemplatesPerImage = n
	}
}

func WithInstancesPerTemplate(n int) Option {
	return func(o *Options) {
		o.InstancesPerTemplate = n
	}
}

func WithMaxCandidatesPerTemplate(n int) Option {
	return func(o *Options) {
		o.MaxCandidatesPerTemplate = n
	}
}

func WithParaphrase(enabled bool) Option {
	return func(o *Options) {
		o.Paraphrase = enabled
	}
}

func WithActions(enabled bool) Option {
	return func(o *Options) {
		o.Actions = enabled
	}
}

func WithBalance(b Balance) Option {
	return func(o *Options) {
		o.Balance = b
	}
}

// QuestionsPerScene is the per-scene question target.
func (o Options) QuestionsPerScene() int {
	return o.TemplatesPerImage * o.InstancesPerTemplate
}
