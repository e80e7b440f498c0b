package spec

import (
	"sync"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds the process-wide knobs of the engine. Values are loaded
// once from the environment (a local .env file is honored) and can be
// replaced programmatically with Configure.
type Settings struct {
	// CheckAsserts enables Assert; when false Assert returns its value
	// unchanged without validating.
	CheckAsserts bool `env:"SPEC_CHECK_ASSERTS" envDefault:"false"`

	// RecursionLimit bounds generator re-entry through the same recursive
	// node or registered name.
	RecursionLimit int `env:"SPEC_RECURSION_LIMIT" envDefault:"4"`

	// FSpecIterations is the number of generative trials a function spec
	// runs, and the resample budget of constrained generators.
	FSpecIterations int `env:"SPEC_FSPEC_ITERATIONS" envDefault:"21"`

	// CollCheckLimit caps how many elements Every validates in sampling
	// mode.
	CollCheckLimit int `env:"SPEC_COLL_CHECK_LIMIT" envDefault:"101"`

	// CollErrorLimit caps how many element problems a collection spec
	// reports.
	CollErrorLimit int `env:"SPEC_COLL_ERROR_LIMIT" envDefault:"20"`
}

var (
	settingsOnce sync.Once
	settingsPtr  atomic.Pointer[Settings]
)

// CurrentSettings returns the active settings snapshot.
func CurrentSettings() Settings {
	settingsOnce.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
		s, err := env.ParseAs[Settings]()
		if err != nil {
			s = defaultSettings()
		}
		settingsPtr.CompareAndSwap(nil, &s)
	})
	return *settingsPtr.Load()
}

// Configure replaces the active settings. The swap is atomic; readers see
// either the old or the new snapshot.
func Configure(s Settings) {
	CurrentSettings()
	settingsPtr.Store(&s)
}

func defaultSettings() Settings {
	return Settings{
		CheckAsserts:    false,
		RecursionLimit:  4,
		FSpecIterations: 21,
		CollCheckLimit:  101,
		CollErrorLimit:  20,
	}
}
