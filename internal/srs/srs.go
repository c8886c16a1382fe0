// Package srs computes review schedules for cards. Compute is pure: the
// clock is passed in and identical inputs always produce identical outputs,
// which keeps the math independently testable and lets cram mode reuse the
// review flow without persisting anything.
package srs

import (
	"time"

	"github.com/tbellec/flashdeck/internal/models"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Forgot   Rating = 1
	Hard     Rating = 2
	Good     Rating = 3
	Easy     Rating = 4
	VeryEasy Rating = 5
)

// Valid reports whether r is within the accepted 1..5 range.
func (r Rating) Valid() bool { return r >= Forgot && r <= VeryEasy }

// Params holds the tunables of the scheduler.
type Params struct {
	// LearningSteps is the short-interval ladder walked while a card is in
	// learning, measured in real clock time.
	LearningSteps []time.Duration

	// GraduatingInterval is the first full-day interval once the ladder is
	// exhausted, in days.
	GraduatingInterval float64

	// InitialEase is the ease factor assigned when a card graduates.
	InitialEase float64

	// MinEase floors the ease factor so intervals cannot shrink forever.
	MinEase float64
}

// DefaultParams returns the stock scheduling parameters.
func DefaultParams() *Params {
	return &Params{
		LearningSteps:      []time.Duration{10 * time.Minute, 1 * time.Hour, 24 * time.Hour},
		GraduatingInterval: 1,
		InitialEase:        2.5,
		MinEase:            1.3,
	}
}

// Result is the next scheduling state for a card.
type Result struct {
	Interval   float64 // days; fractional while in learning
	EaseFactor float64
	Status     models.Status
	Step       int
	DueDate    time.Time
}

// ease deltas per rating, applied only in review status.
var easeDelta = map[Rating]float64{
	Forgot:   -0.20,
	Hard:     -0.15,
	Good:     0,
	Easy:     +0.10,
	VeryEasy: +0.15,
}

// interval growth modifiers relative to the ease factor.
const (
	hardIntervalFactor     = 0.75
	easyIntervalFactor     = 1.15
	veryEasyIntervalFactor = 1.30
)

// Compute returns the next schedule for a card given its prior progress and
// a rating. A nil prior means the card has never been reviewed: it enters
// learning at step 0 and the rating is applied from there.
func (p *Params) Compute(prior *models.CardProgress, rating Rating, now time.Time) Result {
	ease := p.InitialEase
	status := models.StatusLearning
	step := 0
	interval := 0.0

	if prior != nil {
		if prior.EaseFactor > 0 {
			ease = prior.EaseFactor
		}
		if prior.Status != "" && prior.Status != models.StatusNew {
			status = prior.Status
		}
		step = prior.Step
		interval = prior.Interval
	}

	if status == models.StatusLearning {
		return p.nextLearning(step, rating, ease, now)
	}
	return p.nextReview(interval, rating, ease, now)
}

func (p *Params) nextLearning(step int, rating Rating, ease float64, now time.Time) Result {
	if rating <= Hard {
		// failed or struggled: back to the bottom of the ladder
		return p.learningStep(0, ease, now)
	}

	next := step + 1
	if next >= len(p.LearningSteps) {
		// ladder exhausted: graduate to full-day reviews
		interval := p.GraduatingInterval
		return Result{
			Interval:   interval,
			EaseFactor: ease,
			Status:     models.StatusReview,
			Step:       0,
			DueDate:    now.Add(days(interval)),
		}
	}
	return p.learningStep(next, ease, now)
}

func (p *Params) nextReview(interval float64, rating Rating, ease float64, now time.Time) Result {
	newEase := ease + easeDelta[rating]
	if newEase < p.MinEase {
		newEase = p.MinEase
	}

	if rating == Forgot {
		// lapse: demote to learning step 0 with the shrunken ease
		r := p.learningStep(0, newEase, now)
		return r
	}

	factor := newEase
	switch rating {
	case Hard:
		factor *= hardIntervalFactor
	case Easy:
		factor *= easyIntervalFactor
	case VeryEasy:
		factor *= veryEasyIntervalFactor
	}

	if interval < p.GraduatingInterval {
		interval = p.GraduatingInterval
	}
	newInterval := interval * factor
	if newInterval < 1 {
		newInterval = 1
	}

	return Result{
		Interval:   newInterval,
		EaseFactor: newEase,
		Status:     models.StatusReview,
		Step:       0,
		DueDate:    now.Add(days(newInterval)),
	}
}

func (p *Params) learningStep(step int, ease float64, now time.Time) Result {
	d := p.LearningSteps[step]
	return Result{
		Interval:   d.Hours() / 24,
		EaseFactor: ease,
		Status:     models.StatusLearning,
		Step:       step,
		DueDate:    now.Add(d),
	}
}

func days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}
