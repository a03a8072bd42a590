package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapchart/internal/source"
)

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.Driver != "" && !slices.Contains(source.Drivers(), c.Source.Driver) {
		errs = append(errs, &source.UnknownDriverError{Driver: c.Source.Driver})
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output: unknown format %q (want one of %v)", c.OutputFormat, OutputFormats))
	}
	if c.UI.Port < 0 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port: %d is out of range", c.UI.Port))
	}
	if c.UI.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("ui.refresh_interval: must not be negative"))
	}
	return errors.Join(errs...)
}
