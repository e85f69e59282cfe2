package handlers

import (
	"context"

	"github.com/imamik/quantserver/internal/ui"
)

// Start handles the start command.
func Start(ctx context.Context, opts Options) error {
	s, err := newSession(ctx, opts, validateStart)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	res, err := s.manager.Start(ctx)
	if err != nil {
		return err
	}
	return s.printer.Start(res)
}

// Stop handles the stop command.
func Stop(ctx context.Context, opts Options) error {
	s, err := newSession(ctx, opts, validateBase)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	res, err := s.manager.Stop(ctx)
	if err != nil {
		return err
	}
	return s.printer.Stop(res)
}

// Status handles the status command.
func Status(ctx context.Context, opts Options, format string) error {
	if err := ui.ValidateFormat(format); err != nil {
		return err
	}
	s, err := newSession(ctx, opts, validateBase)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	report, err := s.manager.Status(ctx)
	if err != nil {
		return err
	}
	if format == ui.FormatYAML {
		return s.printer.YAML(report)
	}
	return s.printer.Status(report)
}

// Prune handles the prune command.
func Prune(ctx context.Context, opts Options, dryRun bool) error {
	s, err := newSession(ctx, opts, validateBase)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	res, err := s.manager.Prune(ctx, dryRun)
	if res != nil {
		if perr := s.printer.Prune(res); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}
