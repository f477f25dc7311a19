package render

import "github.com/cockroachdb/errors"

var (
	// ErrSetup marks failures while creating GPU resources. None of them are
	// recoverable.
	ErrSetup = errors.New("render setup failed")
	// ErrFrame marks failures while waiting on, recording or submitting a frame.
	ErrFrame = errors.New("frame failed")
)

func setupError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrSetup)
}

func setupErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrSetup)
}

func frameError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrFrame)
}
