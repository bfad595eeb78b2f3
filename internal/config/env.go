package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
)

// BuildEnv assembles the environment for the compose subprocess:
// the current process environment, then each env file in order (later
// files win), then the stack's explicit Vars on top.
func (s *Stack) BuildEnv(workDir string) ([]string, error) {
	merged := map[string]string{}

	for _, file := range s.EnvFiles {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		for k, v := range vars {
			merged[k] = v
		}
	}

	for k, v := range s.Vars {
		merged[k] = v
	}

	env := os.Environ()
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}

	return env, nil
}
