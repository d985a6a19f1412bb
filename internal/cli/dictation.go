package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/on-the-ground/unidir_go/effects"
	"github.com/on-the-ground/unidir_go/effects/operation"
	"github.com/on-the-ground/unidir_go/store"
	"github.com/on-the-ground/unidir_go/viewstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNoSpeech = errors.New("nothing to recognize")

type dictationState struct {
	Partial    []string
	Transcript string
	Listening  bool
	Err        string
}

type dictationAction interface{ isDictationAction() }

type startDictation struct{}
type abortDictation struct{}
type wordHeard struct{ word string }
type silenceDetected struct{}
type transcribed struct{ text string }
type dictationFailed struct{ err error }

func (startDictation) isDictationAction()  {}
func (abortDictation) isDictationAction()  {}
func (wordHeard) isDictationAction()       {}
func (silenceDetected) isDictationAction() {}
func (transcribed) isDictationAction()     {}
func (dictationFailed) isDictationAction() {}

// dictationID is the token of the recognition task.
type dictationID struct{}

func dictationReducer(recognize operation.StartFunc[dictationAction]) store.Reducer[dictationState, dictationAction] {
	return func(state dictationState, action dictationAction) (dictationState, effects.Effect[dictationAction]) {
		switch a := action.(type) {
		case startDictation:
			state = dictationState{Listening: true}
			return state, effects.Catch(operation.Task(dictationID{}, recognize), func(err error) dictationAction {
				return dictationFailed{err: err}
			})

		case wordHeard:
			state.Partial = append(slices.Clone(state.Partial), a.word)

		case silenceDetected:
			return state, operation.FinishTask[dictationAction](dictationID{})

		case transcribed:
			state.Transcript = a.text
			state.Listening = false

		case dictationFailed:
			state.Err = a.err.Error()
			state.Listening = false

		case abortDictation:
			state.Partial = nil
			state.Listening = false
			return state, operation.CancelTask[dictationAction](dictationID{})
		}
		return state, effects.None[dictationAction]()
	}
}

func sameDictation(prev, next dictationState) bool {
	return prev.Listening == next.Listening &&
		prev.Transcript == next.Transcript &&
		prev.Err == next.Err &&
		slices.Equal(prev.Partial, next.Partial)
}

// simulatedRecognizer hears one word per interval. Once every word has been
// heard it reports silence and waits to be finished, then delivers the whole
// transcript.
type simulatedRecognizer struct {
	words    []string
	interval time.Duration
}

func (r simulatedRecognizer) start(ctx context.Context, sub *effects.Subscriber[dictationAction]) (operation.Operation, error) {
	if len(r.words) == 0 {
		return nil, errNoSpeech
	}

	finish := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		heard := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-finish:
				sub.Send(transcribed{text: strings.Join(r.words[:heard], " ")})
				sub.Complete()
				return
			case <-ticker.C:
				if heard == len(r.words) {
					continue
				}
				sub.Send(wordHeard{word: r.words[heard]})
				heard++
				if heard == len(r.words) {
					sub.Send(silenceDetected{})
				}
			}
		}
	}()

	return operation.Funcs{
		// the goroutine follows ctx, which ends with the run
		CancelFn: func() {},
		FinishFn: func() {
			once.Do(func() { close(finish) })
		},
	}, nil
}

// NewDictationCommand creates the dictation command.
func NewDictationCommand(rootOpts *RootOptions) *cobra.Command {
	var words []string

	cmd := &cobra.Command{
		Use:   "dictation",
		Short: "Run a simulated speech recognition task",
		Long: `Starts a recognition task under a token, prints every partial result and
finishes the task gracefully on silence so the final transcript still arrives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("words") {
				rootOpts.Config.Demo.Words = words
			}
			return runDictation(rootOpts, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&words, "words", "w", nil, "words the recognizer hears, overrides the config file")

	return cmd
}

func runDictation(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := opts.Config
	logger := opts.Logger.With(zap.String("demo", "dictation"))

	recognizer := simulatedRecognizer{words: cfg.Demo.Words, interval: cfg.Demo.Tick}
	s := store.New(ctx,
		dictationState{},
		dictationReducer(recognizer.start),
		store.WithConfig(cfg.Store),
		store.WithLogger(logger),
		store.WithSnapshot(func(state dictationState) dictationState {
			state.Partial = slices.Clone(state.Partial)
			return state
		}),
	)
	defer s.Close()

	vs := viewstore.New[dictationState, dictationAction](s, sameDictation, viewstore.WithLogger(logger))
	defer vs.Close()

	// every word is a change; leave room for all of them
	changes := vs.Changes(ctx, max(cfg.View.ChangeBuffer, len(cfg.Demo.Words)+4))
	vs.Send(startDictation{})

	return printDictation(cmd.OutOrStdout(), changes, ctx.Done())
}

func printDictation(out io.Writer, changes <-chan dictationState, done <-chan struct{}) error {
	printed := 0
	for {
		select {
		case state, ok := <-changes:
			if !ok {
				return nil
			}
			for _, word := range state.Partial[min(printed, len(state.Partial)):] {
				fmt.Fprintf(out, "heard: %s\n", word)
			}
			printed = max(printed, len(state.Partial))

			switch {
			case state.Err != "":
				return fmt.Errorf("dictation failed: %s", state.Err)
			case state.Transcript != "":
				fmt.Fprintf(out, "transcript: %s\n", state.Transcript)
				return nil
			}
		case <-done:
			return nil
		}
	}
}
