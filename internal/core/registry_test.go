package core_test

import (
	"bytes"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"pgregory.net/rapid"

	"github.com/toejough/abstract/internal/core"
)

// recordingSwitch records every SetMocking call it receives.
type recordingSwitch struct {
	name string
	log  *[]string
	mu   *sync.Mutex
	last bool
}

func (s *recordingSwitch) SetMocking(mocking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = mocking

	if mocking {
		*s.log = append(*s.log, s.name+":mock")
	} else {
		*s.log = append(*s.log, s.name+":unmock")
	}
}

func TestRegister_Unmocked_FiresUnmock(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	unmocks := 0
	registry := core.NewRegistry()
	getPerson := newGetPerson().SetUnmock(func() { unmocks++ })

	registry.Register(getPerson)

	g.Expect(getPerson.IsMocking()).To(BeFalse())
	g.Expect(unmocks).To(Equal(1), "registration always syncs the wrapper")
	g.Expect(registry.Len()).To(Equal(1))
}

func TestRegister_AfterMockAll_IsMocked(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()
	registry.MockAll()

	getCharlie := newGetPerson()
	registry.Register(getCharlie)

	g.Expect(getCharlie.IsMocking()).To(BeTrue())

	got, err := getCharlie.Exec("1").Get()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got.Name).To(Equal("Charlie"))
}

func TestRegister_AfterUnmockAll_IsUnmocked(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()
	registry.MockAll()
	registry.UnmockAll()

	getPerson := newGetPerson().Mock()
	registry.Register(getPerson)

	g.Expect(getPerson.IsMocking()).To(BeFalse())
}

func TestMockAll_UnmockAll_TogglesEveryRegisteredWrapper(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()
	getVeruca := core.New(core.Sync(named("Veruca Salt"))).SetMock(core.Sync(named("Veruca Aloompa")))
	getCharlie := core.New(core.Sync(named("Charlie"))).SetMock(core.Sync(named("Charlie Bucket")))
	unregistered := newGetPerson()

	registry.Register(getVeruca)
	registry.Register(getCharlie)

	registry.MockAll()

	g.Expect(registry.IsMocking()).To(BeTrue())
	g.Expect(getVeruca.Exec("1").Get()).To(HaveField("Name", "Veruca Aloompa"))
	g.Expect(getCharlie.Exec("1").Get()).To(HaveField("Name", "Charlie Bucket"))
	g.Expect(unregistered.IsMocking()).To(BeFalse(), "only registered wrappers are affected")

	registry.UnmockAll()

	g.Expect(registry.IsMocking()).To(BeFalse())
	g.Expect(getVeruca.Exec("1").Get()).To(HaveField("Name", "Veruca Salt"))
	g.Expect(getCharlie.Exec("1").Get()).To(HaveField("Name", "Charlie"))
}

func TestBroadcast_FollowsRegistrationOrder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var (
		log []string
		mu  sync.Mutex
	)

	registry := core.NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		registry.Register(&recordingSwitch{name: name, log: &log, mu: &mu})
	}

	registry.MockAll()
	registry.UnmockAll()

	g.Expect(log).To(Equal([]string{
		"a:unmock", "b:unmock", "c:unmock",
		"a:mock", "b:mock", "c:mock",
		"a:unmock", "b:unmock", "c:unmock",
	}))
}

func TestDirectToggle_HonoredUntilNextBroadcast(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()
	getPerson := newGetPerson()
	registry.Register(getPerson)
	registry.MockAll()

	getPerson.Unmock()
	g.Expect(getPerson.IsMocking()).To(BeFalse())

	registry.MockAll()
	g.Expect(getPerson.IsMocking()).To(BeTrue())
}

func TestUnmockAll_HookPanic_AbortsBroadcast(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()
	first := newGetPerson()
	failing := newGetPerson()
	last := newGetPerson()

	registry.Register(first)
	registry.Register(failing)
	registry.Register(last)
	registry.MockAll()

	failing.SetUnmock(func() { panic("hook failed") })

	g.Expect(registry.UnmockAll).To(PanicWith("hook failed"))
	g.Expect(registry.IsMocking()).To(BeFalse())
	g.Expect(first.IsMocking()).To(BeFalse())
	g.Expect(failing.IsMocking()).To(BeFalse())
	g.Expect(last.IsMocking()).To(BeTrue(), "switches after the failure are not visited")

	g.Expect(registry.Len()).To(Equal(3), "the registry stays usable")
}

func TestRegister_Nil_Panics(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(func() { core.NewRegistry().Register(nil) }).To(PanicWith(MatchError(core.ErrNilCallable)))
}

func TestRegister_TypedNil_PanicsWithoutRegistering(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()

	var missing *core.Wrapper[string, person]

	g.Expect(func() { registry.Register(missing) }).To(PanicWith(MatchError(core.ErrNilCallable)))
	g.Expect(registry.Len()).To(Equal(0))

	getPerson := newGetPerson()
	registry.Register(getPerson)

	g.Expect(registry.MockAll).NotTo(Panic(), "the registry stays usable")
	g.Expect(getPerson.IsMocking()).To(BeTrue())
}

func TestRegister_HookPanic_Propagates(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	registry := core.NewRegistry()
	getPerson := newGetPerson().Mock().SetUnmock(func() { panic("hook failed") })

	g.Expect(func() { registry.Register(getPerson) }).To(PanicWith("hook failed"))
	g.Expect(registry.Len()).To(Equal(1), "the wrapper stays registered")
	g.Expect(getPerson.IsMocking()).To(BeFalse())

	getPerson.SetUnmock(nil)
	registry.MockAll()

	g.Expect(getPerson.IsMocking()).To(BeTrue())
}

func TestWithLogger_LogsRegistrationAndBroadcast(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var buf bytes.Buffer

	registry := core.NewRegistry(core.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	getPerson := newGetPerson().Named("getPerson")

	registry.Register(getPerson)
	registry.MockAll()

	g.Expect(buf.String()).To(ContainSubstring(`"message":"registered"`))
	g.Expect(buf.String()).To(ContainSubstring(getPerson.ID()))
	g.Expect(buf.String()).To(ContainSubstring(`"message":"broadcast"`))
	g.Expect(buf.String()).To(ContainSubstring(`"count":1`))
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	const workers = 50

	registry := core.NewRegistry()
	wrappers := make([]*core.Wrapper[string, person], workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		go func(idx int) {
			defer wg.Done()

			wrappers[idx] = newGetPerson()
			registry.Register(wrappers[idx])

			if idx%2 == 0 {
				registry.MockAll()
			} else {
				registry.UnmockAll()
			}
		}(i)
	}

	wg.Wait()

	registry.MockAll()

	g.Expect(registry.Len()).To(Equal(workers))

	for _, w := range wrappers {
		g.Expect(w.IsMocking()).To(BeTrue())
	}
}

// TestRegistry_LastBroadcastWins_Property checks that, whatever the
// interleaving of registrations and broadcasts, every registered switch ends
// in the state of the last broadcast, or of the registry at its registration
// if it was registered after that broadcast.
func TestRegistry_LastBroadcastWins_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		var (
			log []string
			mu  sync.Mutex
		)

		registry := core.NewRegistry()
		switches := []*recordingSwitch{}
		mocking := false

		steps := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 40).Draw(rt, "steps")
		for i, step := range steps {
			switch step {
			case 0:
				s := &recordingSwitch{name: "s", log: &log, mu: &mu}
				registry.Register(s)

				switches = append(switches, s)
			case 1:
				registry.MockAll()

				mocking = true
			case 2:
				registry.UnmockAll()

				mocking = false
			}

			for j, s := range switches {
				if s.last != mocking {
					rt.Fatalf("step %d: switch %d mocking = %v, want %v", i, j, s.last, mocking)
				}
			}
		}

		if registry.Len() != len(switches) {
			rt.Fatalf("Len() = %d, want %d", registry.Len(), len(switches))
		}
	})
}
