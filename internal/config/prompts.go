package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts is the prompt resource read once at startup.
type Prompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

func LoadPrompts(path string) (Prompts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("open prompts file: %w", err)
	}
	defer f.Close()

	var prompts Prompts
	if err := yaml.NewDecoder(f).Decode(&prompts); err != nil {
		return Prompts{}, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	if strings.TrimSpace(prompts.SystemPrompt) == "" {
		return Prompts{}, errors.New("prompts file has no system_prompt")
	}
	return prompts, nil
}
