// Package bootstrap renders the first-boot script attached to new instances.
//
// The script joins the tailnet, refreshes the trading code, starts the
// container stack and installs a systemd unit for the trading process.
// Providers receive it base64 encoded.
package bootstrap

import (
	"bytes"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/imamik/quantserver/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

const scriptTemplate = "templates/user-data.sh.tmpl"

// codeSubdir is the checkout inside the repo holding the entrypoint.
const codeSubdir = "quant"

var serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.@-]*$`)

// Options configures the rendered script.
type Options struct {
	TailscaleAuthKey string
	RepoDir          string
	CodeDir          string
	ServiceName      string
	Entrypoint       string
}

// FromConfig derives script options from the bootstrap section of cfg.
func FromConfig(cfg *config.Config) Options {
	b := cfg.Bootstrap
	return Options{
		TailscaleAuthKey: b.TailscaleAuthKey,
		RepoDir:          b.RepoDir,
		CodeDir:          path.Join(b.RepoDir, codeSubdir),
		ServiceName:      b.ServiceName,
		Entrypoint:       b.Entrypoint,
	}
}

// Validate checks that the options render to a usable script.
func (o Options) Validate() error {
	var errs []error
	if o.TailscaleAuthKey == "" {
		errs = append(errs, errors.New("tailscale auth key is required"))
	}
	if !path.IsAbs(o.RepoDir) {
		errs = append(errs, fmt.Errorf("repo dir must be absolute: %q", o.RepoDir))
	}
	if !path.IsAbs(o.CodeDir) {
		errs = append(errs, fmt.Errorf("code dir must be absolute: %q", o.CodeDir))
	}
	if !serviceNamePattern.MatchString(o.ServiceName) {
		errs = append(errs, fmt.Errorf("invalid service name: %q", o.ServiceName))
	}
	if o.Entrypoint == "" || strings.ContainsAny(o.Entrypoint, "\n\r") {
		errs = append(errs, fmt.Errorf("invalid entrypoint: %q", o.Entrypoint))
	}
	return errors.Join(errs...)
}

// Script produces boot payloads for a fixed set of options.
type Script struct {
	opts Options
}

// New returns a Script for opts.
func New(opts Options) *Script {
	return &Script{opts: opts}
}

// Render returns the plain shell script.
func (s *Script) Render() (string, error) {
	if err := s.opts.Validate(); err != nil {
		return "", fmt.Errorf("invalid bootstrap options: %w", err)
	}

	content, err := templatesFS.ReadFile(scriptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", scriptTemplate, err)
	}
	tmpl, err := template.New(path.Base(scriptTemplate)).
		Funcs(template.FuncMap{"quote": shellQuote}).
		Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", scriptTemplate, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s.opts); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", scriptTemplate, err)
	}
	return buf.String(), nil
}

// UserData returns the script base64 encoded, the form create calls expect.
func (s *Script) UserData() (string, error) {
	script, err := s.Render()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(script)), nil
}

// shellQuote wraps v in single quotes for bash.
func shellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
