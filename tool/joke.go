package tool

import (
	"context"
	"strings"
)

// DefaultJoke is told when the topic is unknown.
const DefaultJoke = "What's brown and sticky? A stick!"

var jokes = map[string][]string{
	"programming": {
		"Why do programmers prefer dark mode? Because light attracts bugs!",
		"There are 10 kinds of people: those who understand binary and those who don't.",
	},
	"math": {
		"Why was 6 afraid of 7? Because 7 8 9!",
		"Parallel lines have so much in common. It's a shame they'll never meet.",
	},
	"physics": {
		"I have a new theory on matter, but I'm afraid it won't work!",
		"Never trust an atom. They make up everything.",
	},
	"food": {
		"I'm on a seafood diet. Every time I see food, I eat it!",
		"I told a joke about pizza once. It was a little cheesy.",
	},
	"animals": {
		"What do you call a bear with no teeth? A gummy bear!",
		"Why don't cows have money? Because farmers milk them dry.",
	},
}

// Joke tells a joke about a topic.
type Joke struct {
	Rand *Rand
}

func (j *Joke) Name() string { return "joke" }

func (j *Joke) Description() string {
	return "Useful for getting a joke about a specific topic. Input should be a single topic word " +
		"(programming, math, physics, food or animals)."
}

func (j *Joke) Call(_ context.Context, input string) (string, error) {
	return j.Tell(input), nil
}

// Tell picks a joke for topic.
func (j *Joke) Tell(topic string) string {
	list, ok := jokes[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		return DefaultJoke
	}
	if j.Rand == nil {
		j.Rand = defaultRand()
	}
	return j.Rand.Pick(list)
}
