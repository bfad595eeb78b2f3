package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// File represents the root configuration structure for stackpilot.yaml
type File struct {
	Version  string           `yaml:"version" mapstructure:"version"`
	Stacks   map[string]Stack `yaml:"stacks" mapstructure:"stacks"`
	Defaults Defaults         `yaml:"defaults,omitempty" mapstructure:"defaults"`
	Logging  LoggingConfig    `yaml:"logging,omitempty" mapstructure:"logging"`
}

// Stack describes one compose stack managed for a test scope.
type Stack struct {
	// Name is the human-readable stack name. For stacks loaded from
	// stackpilot.yaml this is the map key; for flag-built stacks it is
	// set explicitly.
	Name string `yaml:"-" mapstructure:"-"`

	// Files are compose file paths, applied in order.
	Files []string `yaml:"files" mapstructure:"files"`

	// EnvFiles are dotenv files loaded into the compose subprocess
	// environment, applied in order (later files win).
	EnvFiles []string `yaml:"env_files,omitempty" mapstructure:"env_files"`

	// Project is the compose project name. Must be unique per
	// concurrently-running stack; generated from Name when empty.
	Project string `yaml:"project,omitempty" mapstructure:"project"`

	// Vars are extra environment variables for the compose subprocess.
	// They override values from EnvFiles.
	Vars map[string]string `yaml:"vars,omitempty" mapstructure:"vars"`

	// Wait configures the readiness wait performed after up.
	Wait *WaitConfig `yaml:"wait,omitempty" mapstructure:"wait"`
}

// WaitConfig configures the post-up readiness wait for a stack.
type WaitConfig struct {
	Services []string      `yaml:"services" mapstructure:"services"`
	Target   string        `yaml:"target,omitempty" mapstructure:"target"`
	Timeout  time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Interval time.Duration `yaml:"interval,omitempty" mapstructure:"interval"`
}

// Defaults holds fallback values applied to stacks that don't set their own.
type Defaults struct {
	Timeout   time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Interval  time.Duration `yaml:"interval,omitempty" mapstructure:"interval"`
	StateFile string        `yaml:"state_file,omitempty" mapstructure:"state_file"`
}

// LoggingConfig controls file logging behavior.
type LoggingConfig struct {
	FileEnabled *bool `yaml:"file_enabled,omitempty" mapstructure:"file_enabled"`
	MaxSizeMB   int   `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxAgeDays  int   `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	MaxBackups  int   `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

// projectNameRe matches valid compose project names: lowercase
// alphanumerics, dashes and underscores, starting with a letter or digit.
var projectNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NewStack builds a validated Stack from explicit values. A missing
// project name is generated from the stack name plus a random suffix so
// concurrent runs of the same stack don't collide on the container
// namespace.
func NewStack(name string, files []string) (*Stack, error) {
	s := &Stack{
		Name:  name,
		Files: files,
	}
	s.ApplyDefaults(Defaults{})
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyDefaults fills unset stack fields from defaults and generates a
// project name if none is configured.
func (s *Stack) ApplyDefaults(d Defaults) {
	if s.Name == "" && len(s.Files) > 0 {
		s.Name = "stack"
	}
	if s.Project == "" {
		s.Project = GenerateProjectName(s.Name)
	}
	if s.Wait != nil {
		if s.Wait.Timeout == 0 {
			s.Wait.Timeout = d.Timeout
		}
		if s.Wait.Interval == 0 {
			s.Wait.Interval = d.Interval
		}
	}
}

// Validate checks the stack definition for errors, accumulating all
// findings before returning.
func (s *Stack) Validate() error {
	var errs []error

	if len(s.Files) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "files",
			Message: "at least one compose file is required",
			Value:   s.Files,
		})
	}
	for i, f := range s.Files {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("files[%d]", i),
				Message: "compose file path must not be blank",
				Value:   f,
			})
		}
	}
	if s.Project == "" {
		errs = append(errs, &ValidationError{
			Field:   "project",
			Message: "project name is required",
			Value:   s.Project,
		})
	} else if !projectNameRe.MatchString(s.Project) {
		errs = append(errs, &ValidationError{
			Field:   "project",
			Message: "must contain only lowercase letters, digits, dashes and underscores",
			Value:   s.Project,
		})
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}

// GenerateProjectName derives a compose project name from a stack name
// plus a random suffix. The result always passes project validation.
func GenerateProjectName(stackName string) string {
	base := strings.ToLower(stackName)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	base = strings.Trim(base, "-_")
	if base == "" {
		base = "stack"
	}
	return base + "-" + uuid.NewString()[:8]
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

// MultiValidationError holds multiple validation errors
type MultiValidationError struct {
	Errors []error
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d configuration errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidationErrors returns the individual errors
func (e *MultiValidationError) ValidationErrors() []error {
	return e.Errors
}
