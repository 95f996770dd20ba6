package dialogue

import (
	"errors"
	"fmt"
	"strings"
)

// Picker chooses an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Picker interface {
	IntN(n int) int
}

// ResponseTable holds the candidate replies for every emotion.
type ResponseTable map[Emotion][]string

// Pick returns one candidate for e chosen by r.
// An emotion with no candidates yields the empty string; Validate rules that out.
func (t ResponseTable) Pick(e Emotion, r Picker) string {
	candidates := t[e]
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return candidates[0]
	}
	return candidates[r.IntN(len(candidates))]
}

// FollowUp is a keyword-triggered reply spoken after the emotion reply.
type FollowUp struct {
	Trigger string
	Reply   string
}

// Lines is everything the assistant can say.
type Lines struct {
	Greeting     string
	Farewell     string
	Unrecognized string
	Unavailable  string
	ExitPhrases  []string
	Replies      ResponseTable
	FollowUps    []FollowUp // first match wins
	Fallback     string
}

func DefaultLines() Lines {
	return Lines{
		Greeting:     "Rockman.EXE: Online! Ready to assist, Operator!",
		Farewell:     "Logging out for the day. See you tomorrow, Operator!",
		Unrecognized: "I didn't catch that. Could you repeat it?",
		Unavailable:  "I’m having trouble accessing the recognition service.",
		ExitPhrases:  []string{"exit", "don't need it anymore"},
		Replies: ResponseTable{
			Happy: {
				"I'm glad you're feeling great!",
				"That sounds wonderful! Let's keep it up!",
			},
			Neutral: {
				"Alright, what else can I do for you?",
				"Understood. Let’s move forward.",
			},
			Sad: {
				"I'm here for you, Operator. Let me know how I can help.",
				"I'm sorry to hear that. Want to talk about it?",
			},
			Angry: {
				"Take a deep breath. Let’s sort this out together.",
				"I’m here to assist, even when things are tough.",
			},
		},
		FollowUps: []FollowUp{
			{Trigger: "weather", Reply: "Checking the weather now... It's sunny outside!"},
			{Trigger: "reminder", Reply: "What should I remind you about?"},
			{Trigger: "play music", Reply: "Playing some music to match your mood!"},
		},
		Fallback: "What else can I do for you?",
	}
}

// Validate reports every blank line and every emotion without candidates.
func (l Lines) Validate() error {
	var errs []error

	blank := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s line is empty", name))
		}
	}
	blank("greeting", l.Greeting)
	blank("farewell", l.Farewell)
	blank("unrecognized", l.Unrecognized)
	blank("unavailable", l.Unavailable)
	blank("fallback", l.Fallback)

	if len(l.ExitPhrases) == 0 {
		errs = append(errs, errors.New("no exit phrases"))
	}
	for i, p := range l.ExitPhrases {
		blank(fmt.Sprintf("exit phrase %d", i), p)
	}

	for _, e := range Emotions {
		if len(l.Replies[e]) == 0 {
			errs = append(errs, fmt.Errorf("no replies for %s", e))
		}
		for i, r := range l.Replies[e] {
			blank(fmt.Sprintf("%s reply %d", e, i), r)
		}
	}
	for e := range l.Replies {
		if _, err := ParseEmotion(string(e)); err != nil {
			errs = append(errs, err)
		}
	}

	for i, f := range l.FollowUps {
		blank(fmt.Sprintf("follow-up %d trigger", i), f.Trigger)
		blank(fmt.Sprintf("follow-up %d reply", i), f.Reply)
	}

	return errors.Join(errs...)
}

// IsExit reports whether the utterance contains any exit phrase.
func (l Lines) IsExit(utterance string) bool {
	u := normalize(utterance)
	for _, p := range l.ExitPhrases {
		if strings.Contains(u, normalize(p)) {
			return true
		}
	}
	return false
}

// FollowUpFor returns the reply of the first trigger found in the utterance,
// or the fallback when none matches.
func (l Lines) FollowUpFor(utterance string) string {
	u := normalize(utterance)
	for _, f := range l.FollowUps {
		if strings.Contains(u, normalize(f.Trigger)) {
			return f.Reply
		}
	}
	return l.Fallback
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

func normalize(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}
