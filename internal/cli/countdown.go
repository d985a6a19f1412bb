package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/on-the-ground/unidir_go/effects"
	"github.com/on-the-ground/unidir_go/store"
	"github.com/on-the-ground/unidir_go/viewstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type countdownState struct {
	Remaining int
	Running   bool
}

type countdownAction interface{ isCountdownAction() }

type startCountdown struct{}
type stopCountdown struct{}
type countdownTicked struct{}

func (startCountdown) isCountdownAction()  {}
func (stopCountdown) isCountdownAction()   {}
func (countdownTicked) isCountdownAction() {}

// countdownTimerID is the token of the ticking timer.
type countdownTimerID struct{}

func countdownReducer(tick time.Duration) store.Reducer[countdownState, countdownAction] {
	return func(state countdownState, action countdownAction) (countdownState, effects.Effect[countdownAction]) {
		switch action.(type) {
		case startCountdown:
			if state.Running || state.Remaining <= 0 {
				return state, effects.None[countdownAction]()
			}
			state.Running = true
			return state, effects.Timer(countdownTimerID{}, tick, func(time.Time) countdownAction {
				return countdownTicked{}
			})

		case countdownTicked:
			if !state.Running {
				return state, effects.None[countdownAction]()
			}
			state.Remaining--
			if state.Remaining > 0 {
				return state, effects.None[countdownAction]()
			}
			state.Running = false
			return state, effects.Cancel[countdownAction](countdownTimerID{})

		case stopCountdown:
			state.Running = false
			return state, effects.Cancel[countdownAction](countdownTimerID{})
		}
		return state, effects.None[countdownAction]()
	}
}

// NewCountdownCommand creates the countdown command.
func NewCountdownCommand(rootOpts *RootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Count down on a cancellable timer",
		Long: `Starts a timer effect under a token and prints the remaining count on
every tick. The reducer cancels the timer when the count reaches zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("count") {
				rootOpts.Config.Demo.Count = count
			}
			return runCountdown(rootOpts, cmd)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number to count down from, overrides the config file")

	return cmd
}

func runCountdown(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := opts.Config
	logger := opts.Logger.With(zap.String("demo", "countdown"))

	s := store.New(ctx,
		countdownState{Remaining: cfg.Demo.Count},
		countdownReducer(cfg.Demo.Tick),
		store.WithConfig(cfg.Store),
		store.WithLogger(logger),
	)
	defer s.Close()

	vs := viewstore.New[countdownState, countdownAction](s, func(prev, next countdownState) bool {
		return prev.Remaining == next.Remaining
	}, viewstore.WithLogger(logger))
	defer vs.Close()

	changes := vs.Changes(ctx, cfg.View.ChangeBuffer)
	vs.Send(startCountdown{})

	return printCountdown(cmd.OutOrStdout(), changes, ctx.Done())
}

func printCountdown(out io.Writer, changes <-chan countdownState, done <-chan struct{}) error {
	for {
		select {
		case state, ok := <-changes:
			if !ok {
				return nil
			}
			fmt.Fprintln(out, state.Remaining)
			if state.Remaining <= 0 {
				fmt.Fprintln(out, "liftoff")
				return nil
			}
		case <-done:
			return nil
		}
	}
}
