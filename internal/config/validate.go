// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vmunix/plexlocalize/internal/localize"
	"github.com/vmunix/plexlocalize/internal/trigger"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, describe(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if len(c.Servers) == 0 {
		errs = append(errs, "servers: at least one Plex server must be configured")
	}
	names := make(map[string]bool, len(c.Servers))
	for i, s := range c.Servers {
		if s.Name == "" {
			continue
		}
		if names[s.Name] {
			errs = append(errs, fmt.Sprintf("servers[%d].name: duplicate server name %q", i, s.Name))
		}
		names[s.Name] = true
	}

	for i, entry := range c.Localize.Libraries {
		server, _, ok := localize.ParseSelection(strings.TrimSpace(entry))
		if !ok {
			errs = append(errs, fmt.Sprintf("localize.libraries[%d]: %q must look like \"server.library\"", i, entry))
			continue
		}
		if len(names) > 0 && !names[server] {
			errs = append(errs, fmt.Sprintf("localize.libraries[%d]: unknown server %q", i, server))
		}
	}

	if c.Localize.Cron != "" {
		if err := trigger.ValidateCron(c.Localize.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("localize.cron: %v", err))
		}
	}
	if c.Localize.Enabled && len(c.Localize.Libraries) == 0 {
		errs = append(errs, "localize.libraries: at least one library must be selected when enabled")
	}

	return errs
}

// describe renders a field error using TOML key paths.
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: required", path)
	case "url":
		return fmt.Sprintf("%s: must be a URL, got %q", path, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s; got %q", path, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s: must be %s %s, got %v", path, map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param(), fe.Value())
	case "excludesall":
		return fmt.Sprintf("%s: must not contain dots, got %q", path, fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s validation", path, fe.Tag())
	}
}
