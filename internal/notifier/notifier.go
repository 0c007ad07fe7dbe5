// Package notifier delivers run results to the console and to Telegram.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
)

// Notifier delivers a formatted message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WriterNotifier prints messages as plain text.
type WriterNotifier struct {
	W io.Writer
}

var tagRe = regexp.MustCompile(`</?[a-z]+>`)

func (w WriterNotifier) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintln(w.W, html.UnescapeString(tagRe.ReplaceAllString(text, "")))
	return err
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
