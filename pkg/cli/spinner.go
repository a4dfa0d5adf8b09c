package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// withSpinner shows a spinner on stderr while fn runs
func withSpinner(msg string, fn func() error) error {
	return withSpinnerTo(os.Stderr, msg, fn)
}

func withSpinnerTo(w io.Writer, msg string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(w),
		spinner.WithSuffix(" "+msg))
	s.Start()
	defer s.Stop()

	return fn()
}
