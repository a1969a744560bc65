package demo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Borislavv/refptr/pkg/config"
	"github.com/Borislavv/refptr/pkg/ptr"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrCountMismatch   = errors.New("unexpected count")
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Scenario exercises the handles and returns ErrCountMismatch when an observed count
// differs from the expected one.
type Scenario func(ctx context.Context, cfg *config.Config) error

const (
	ScenarioBasic    = "basic"
	ScenarioAssign   = "assign"
	ScenarioSwap     = "swap"
	ScenarioPartners = "partners"
	ScenarioStress   = "stress"
)

// order is the execution order when no explicit list is configured.
var order = []string{ScenarioBasic, ScenarioAssign, ScenarioSwap, ScenarioPartners, ScenarioStress}

var registry = map[string]Scenario{
	ScenarioBasic:    basic,
	ScenarioAssign:   assign,
	ScenarioSwap:     swap,
	ScenarioPartners: partners,
	ScenarioStress:   stress,
}

// Scenarios resolves the configured scenario names. An empty list selects all of them,
// the stress scenario is skipped unless stress is enabled.
func Scenarios(cfg *config.Config) ([]string, error) {
	names := cfg.Demo.Scenarios
	if len(names) == 0 {
		names = order
	}

	selected := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownScenario, name)
		}
		if name == ScenarioStress && !cfg.Stress.Enabled {
			continue
		}
		selected = append(selected, name)
	}
	return selected, nil
}

// Run executes the selected scenarios one by one and stops at the first failure.
func Run(ctx context.Context, cfg *config.Config) error {
	names, err := Scenarios(cfg)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err = ctx.Err(); err != nil {
			return err
		}

		from := time.Now()
		log.Info().Msgf("[demo] running %s scenario", name)
		if err = registry[name](ctx, cfg); err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
		log.Info().Msgf("[demo] %s scenario passed in %s", name, time.Since(from))
	}

	return nil
}

func expect(what string, got, want int64) error {
	log.Info().Msgf("[demo] %s: %d", what, got)
	if got != want {
		return fmt.Errorf("%w: %s is %d, expected %d", ErrCountMismatch, what, got, want)
	}
	return nil
}

// countInside takes the handle by value, as a function argument does, and owns it.
func countInside(s ptr.Shared[int]) int64 {
	defer s.Release()
	if s.Valid() {
		log.Info().Msgf("[demo] hello from function: %d", s.Value())
	}
	return s.UseCount()
}

func basic(context.Context, *config.Config) error {
	p := ptr.Make(2)
	defer p.Release()

	if p.Get() == nil {
		return errors.New("made handle is null")
	}
	log.Info().Msgf("[demo] ptr: %d", p.Value())

	if err := expect("ptr count", p.UseCount(), 1); err != nil {
		return err
	}

	copied := p.Clone()
	defer copied.Release()
	if err := expect("ptr count after copy", p.UseCount(), 2); err != nil {
		return err
	}

	if err := expect("ptr count inside function", countInside(p.Clone()), 3); err != nil {
		return err
	}
	if err := expect("ptr count after function", p.UseCount(), 2); err != nil {
		return err
	}

	assigned := ptr.Make(3)
	defer assigned.Release()
	assigned.Assign(&p)

	return expect("ptr count after assignment", p.UseCount(), 3)
}

func assign(context.Context, *config.Config) error {
	var handles []ptr.Shared[int]
	defer func() {
		for i := range handles {
			handles[i].Release()
		}
	}()
	hold := func(s ptr.Shared[int]) {
		handles = append(handles, s)
	}

	p1 := ptr.Make(323)
	defer p1.Release()
	hold(p1.Clone())
	if err := expect("count of p1", p1.UseCount(), 2); err != nil {
		return err
	}

	p3 := ptr.Make(323)
	defer p3.Release()
	p4 := p3.Clone()
	defer p4.Release()
	if err := expect("count of p3", p3.UseCount(), 2); err != nil {
		return err
	}

	p4.Assign(&p1)
	if err := expect("count of p1 after assignment", p1.UseCount(), 3); err != nil {
		return err
	}
	if err := expect("count of p3 after assignment", p3.UseCount(), 1); err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		hold(p1.Clone())
	}
	if err := expect("count of p1 after three copies", p1.UseCount(), 6); err != nil {
		return err
	}

	x1, x2 := p3.Clone(), p3.Clone()
	defer x1.Release()
	defer x2.Release()
	if err := expect("count of p3 after two copies", p3.UseCount(), 3); err != nil {
		return err
	}

	x2.Reset()
	x1.Reset()
	if err := expect("count of p3 after reset", p3.UseCount(), 1); err != nil {
		return err
	}
	return expect("count of p1 after reset", p1.UseCount(), 6)
}

// foo logs its construction and destruction.
type foo struct {
	val       int
	destroyed *atomic.Int64
}

func newFoo(val int, destroyed *atomic.Int64) foo {
	log.Info().Msgf("[demo] foo %d constructed", val)
	return foo{val: val, destroyed: destroyed}
}

func (f *foo) Destroy() {
	log.Info().Msgf("[demo] foo %d destroyed", f.val)
	f.destroyed.Add(1)
}

func printFoo(s *ptr.Shared[foo]) string {
	if !s.Valid() {
		return "nullptr"
	}
	return strconv.Itoa(s.Get().val)
}

func swap(context.Context, *config.Config) error {
	destroyed := &atomic.Int64{}

	p1 := ptr.Make(newFoo(100, destroyed))
	defer p1.Release()
	p2 := ptr.Make(newFoo(200, destroyed))
	defer p2.Release()

	state := func(want string) error {
		got := "p1=" + printFoo(&p1) + " p2=" + printFoo(&p2)
		log.Info().Msgf("[demo] %s", got)
		if got != want {
			return fmt.Errorf("%w: handles are '%s', expected '%s'", ErrCountMismatch, got, want)
		}
		return nil
	}

	if err := state("p1=100 p2=200"); err != nil {
		return err
	}

	p1.Swap(&p2)
	if err := state("p1=200 p2=100"); err != nil {
		return err
	}

	p1.Reset()
	if err := state("p1=nullptr p2=100"); err != nil {
		return err
	}
	if err := expect("foo destroyed after reset", destroyed.Load(), 1); err != nil {
		return err
	}

	p1.Swap(&p2)
	if err := state("p1=100 p2=nullptr"); err != nil {
		return err
	}

	p1.Release()
	return expect("foo destroyed after release", destroyed.Load(), 2)
}

// person refers to its partner weakly, so two partners never keep each other alive.
type person struct {
	name      string
	partner   ptr.Weak[person]
	destroyed *atomic.Int64
}

func (p *person) Destroy() {
	log.Info().Msgf("[demo] %s destroyed", p.name)
	p.partner.Release()
	p.destroyed.Add(1)
}

func partnerUp(p1, p2 *ptr.Shared[person]) bool {
	if !p1.Valid() || !p2.Valid() {
		return false
	}
	p1.Get().partner.AssignShared(p2)
	p2.Get().partner.AssignShared(p1)
	log.Info().Msgf("[demo] %s is now partnered with %s", p1.Get().name, p2.Get().name)
	return true
}

func partners(context.Context, *config.Config) error {
	destroyed := &atomic.Int64{}

	lucy := ptr.Make(person{name: "Lucy", destroyed: destroyed})
	defer lucy.Release()
	ricky := ptr.Make(person{name: "Ricky", destroyed: destroyed})
	defer ricky.Release()

	if !partnerUp(&lucy, &ricky) {
		return errors.New("partnering failed")
	}
	if err := expect("Lucy count", lucy.UseCount(), 1); err != nil {
		return err
	}
	if err := expect("Ricky count", ricky.UseCount(), 1); err != nil {
		return err
	}

	partner := lucy.Get().partner.Lock()
	if err := expect("Ricky count while locked by Lucy", ricky.UseCount(), 2); err != nil {
		partner.Release()
		return err
	}
	log.Info().Msgf("[demo] Lucy's partner is %s", partner.Get().name)
	partner.Release()

	lucy.Release()
	ricky.Release()
	return expect("persons destroyed", destroyed.Load(), 2)
}

// counter is the stress payload: it must be destroyed exactly once.
type counter struct {
	destroyed *atomic.Int64
}

func (c *counter) Destroy() {
	c.destroyed.Add(1)
}

func stress(ctx context.Context, cfg *config.Config) error {
	var (
		goroutines = cfg.Stress.Goroutines
		iterations = cfg.Stress.Iterations
		destroyed  = &atomic.Int64{}
		done       = &atomic.Int64{}
		total      = int64(goroutines) * int64(iterations)
		progress   = &rate.Sometimes{First: 1, Interval: cfg.Stress.ProgressInterval}
	)

	base := ptr.Make(counter{destroyed: destroyed})
	defer base.Release()

	// copy and release churn on a shared block
	wg := &sync.WaitGroup{}
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			weak := base.Weak()
			defer weak.Release()

			for i := 0; i < iterations; i++ {
				if i&1023 == 0 && ctx.Err() != nil {
					return
				}
				c := base.Clone()
				if i&1 == 0 {
					c.Release()
				} else {
					l := weak.Lock()
					l.Release()
					c.Release()
				}
				if n := done.Add(1); n%1024 == 0 {
					progress.Do(func() {
						log.Info().Msgf("[demo] stress progress: %d/%d copies released", n, total)
					})
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := expect("stress count after churn", base.UseCount(), 1); err != nil {
		return err
	}
	if err := expect("stress destroyed after churn", destroyed.Load(), 0); err != nil {
		return err
	}

	// every goroutine holds the last copies while the origin is released;
	// the last of them to let go destroys the payload
	copies := make([]ptr.Shared[counter], goroutines)
	weaks := make([]ptr.Weak[counter], goroutines)
	for g := range copies {
		copies[g] = base.Clone()
		weaks[g] = base.Weak()
	}
	base.Release()

	start := make(chan struct{})
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(own *ptr.Shared[counter], weak *ptr.Weak[counter]) {
			defer wg.Done()
			defer weak.Release()
			<-start
			l := weak.Lock()
			own.Release()
			l.Release()
		}(&copies[g], &weaks[g])
	}
	close(start)
	wg.Wait()

	return expect("stress destroyed after last release", destroyed.Load(), 1)
}
