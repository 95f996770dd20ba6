package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"navi/internal/dialogue"
)

// Script is the YAML form of dialogue.Lines. Omitted fields keep their
// default wording.
type Script struct {
	Greeting     string              `yaml:"greeting"`
	Farewell     string              `yaml:"farewell"`
	Unrecognized string              `yaml:"unrecognized"`
	Unavailable  string              `yaml:"unavailable"`
	ExitPhrases  []string            `yaml:"exit_phrases"`
	Replies      map[string][]string `yaml:"replies"`
	FollowUps    []ScriptFollowUp    `yaml:"follow_ups"`
	Fallback     string              `yaml:"fallback"`
}

type ScriptFollowUp struct {
	Trigger string `yaml:"trigger"`
	Reply   string `yaml:"reply"`
}

func LoadScript(path string) (dialogue.Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return dialogue.Lines{}, fmt.Errorf("script: open %q: %w", path, err)
	}
	defer f.Close()

	lines, err := LoadScriptFromReader(f)
	if err != nil {
		return dialogue.Lines{}, fmt.Errorf("script: %q: %w", path, err)
	}
	return lines, nil
}

func LoadScriptFromReader(r io.Reader) (dialogue.Lines, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return dialogue.Lines{}, fmt.Errorf("decode yaml: %w", err)
	}

	lines, err := s.Lines()
	if err != nil {
		return dialogue.Lines{}, err
	}
	if err := lines.Validate(); err != nil {
		return dialogue.Lines{}, err
	}
	return lines, nil
}

// Lines overlays the script on the default lines.
func (s Script) Lines() (dialogue.Lines, error) {
	l := dialogue.DefaultLines()

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&l.Greeting, s.Greeting)
	set(&l.Farewell, s.Farewell)
	set(&l.Unrecognized, s.Unrecognized)
	set(&l.Unavailable, s.Unavailable)
	set(&l.Fallback, s.Fallback)

	if s.ExitPhrases != nil {
		l.ExitPhrases = s.ExitPhrases
	}

	for name, replies := range s.Replies {
		e, err := dialogue.ParseEmotion(name)
		if err != nil {
			return dialogue.Lines{}, fmt.Errorf("replies: %w", err)
		}
		l.Replies[e] = replies
	}

	if s.FollowUps != nil {
		l.FollowUps = make([]dialogue.FollowUp, len(s.FollowUps))
		for i, f := range s.FollowUps {
			l.FollowUps[i] = dialogue.FollowUp{Trigger: f.Trigger, Reply: f.Reply}
		}
	}

	return l, nil
}
