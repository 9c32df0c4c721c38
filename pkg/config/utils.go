package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// envFileNames lists the files tried for name, most specific first:
// name.<env>.local, name.<env>, name.local, then name itself.
func envFileNames(name, env string) []string {
	var names []string
	if env != "" {
		names = append(names, name+"."+env+".local", name+"."+env)
	}
	return append(names, name+".local", name)
}

// FindEnvFile looks for name, or one of its APP_ENV and .local variants,
// in the working directory and its parents. The walk stops at the first
// directory holding a go.mod so files outside the checkout are ignored.
// If name is empty, it searches for .env
func FindEnvFile(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findEnvFile(dir, name, os.Getenv("APP_ENV"))
}

func findEnvFile(dir, name, env string) (string, error) {
	if name == "" {
		name = ".env"
	}
	candidates := envFileNames(name, env)
	for {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				return path, nil
			}
		}
		if isModuleRoot(dir) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("env file %s: %w", name, os.ErrNotExist)
}

func isModuleRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil
}
