package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tbellec/flashdeck/internal/srs"
)

// Study runs an interactive review session over the due queue. With cram
// true every card is shown regardless of its due date and nothing is
// written back, so the schedule stays untouched.
func (a *App) Study(ctx context.Context, cram bool) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	queue, err := a.session.DueCards(ctx, nil, cram)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		printlnFn("Nothing due, come back later")
		return nil
	}

	printlnFn(len(queue), "card(s) in the queue")

	for i, qc := range queue {
		printlnFn(fmt.Sprintf("--- %d/%d ---", i+1, len(queue)))
		printlnFn("Q:", qc.Card.Question)
		start := time.Now()

		input, err := getSimpleText(a.reader, "Enter to reveal, q to stop", os.Stdout)
		if err != nil {
			return err
		}
		if input == "q" {
			break
		}
		printlnFn("A:", qc.Card.Answer)

		rating, stop, err := a.askRating()
		if err != nil {
			return err
		}
		if stop {
			break
		}
		if rating == 0 {
			// Skipped.
			continue
		}

		progress, err := a.session.RecordAnswer(ctx, qc.Card.ID, rating, time.Since(start), cram)
		if err != nil {
			return err
		}
		if progress != nil {
			printlnFn("Next review:", progress.DueDate.Format("2006-01-02 15:04"))
		}
	}

	printlnFn("Session over")
	return nil
}

// askRating reads a rating from 1 (forgot) to 5 (very easy). "s" skips the
// card (rating 0), "q" stops the session. Invalid input re-prompts.
func (a *App) askRating() (srs.Rating, bool, error) {
	for {
		input, err := getSimpleText(a.reader, "Rate 1-5 (1 forgot, 3 good, 5 very easy), s skip, q stop", os.Stdout)
		if err != nil {
			return 0, false, err
		}
		switch input {
		case "q":
			return 0, true, nil
		case "s":
			return 0, false, nil
		}
		n, err := strconv.Atoi(input)
		if err == nil && srs.Rating(n).Valid() {
			return srs.Rating(n), false, nil
		}
		printlnFn("Please answer 1-5, s or q")
	}
}
