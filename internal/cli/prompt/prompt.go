// Package prompt wraps promptui for the handful of interactive inputs
// quillctl needs: credentials and delete confirmations.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted reports that the user cancelled the prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err came from a cancelled prompt.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrAbort)
}

func normalize(err error) error {
	if err != nil && IsAborted(err) {
		return ErrAborted
	}
	return err
}

// InputRequired prompts for a non-empty line.
func InputRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if s == "" {
				return promptui.ErrAbort
			}
			return nil
		},
	}
	s, err := p.Run()
	return s, normalize(err)
}

// Password prompts for a masked line.
func Password(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	s, err := p.Run()
	return s, normalize(err)
}

// Confirm asks a yes/no question, defaulting to no. Ctrl+C aborts with
// ErrAborted; answering "n" is a plain false.
func Confirm(label string) (bool, error) {
	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [y/N]", label),
		IsConfirm: true,
	}
	answer, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		// promptui reports a negative answer as ErrAbort.
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// ConfirmWithForce skips the question when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label)
}
