package agent

var (
	emotionalFallbacks = []string{
		"That sounds difficult. Would you like to talk more about it?",
		"I can hear this is important to you. What should I understand better?",
		"This seems to be affecting you deeply. What would help right now?",
	}

	questionFallbacks = []string{
		"That's an interesting question. Let me think about that...",
		"Good question. Could you tell me a bit more about what you're looking for?",
		"I'm not sure I have a complete answer to that. What would you like to know first?",
	}

	shortInputFallbacks = []string{
		"Could you say more about that?",
		"Tell me a little more?",
		"Go on, I'm listening.",
	}

	defaultFallbacks = []string{
		"I'd like to understand better. Can you explain in different words?",
		"Help me understand what's most important about this.",
		"Let's focus on this. What aspect matters most to you?",
	}

	empatheticPhrases = []string{
		"I can imagine this must be difficult.",
		"This sounds challenging.",
		"I understand this might be hard.",
		"I hear how important this is.",
	}
)

const (
	processingErrorText = "I'm having trouble processing that. Could you try again?"
	exitText            = "Goodbye! Feel free to return if you have more questions."
	noSolutionText      = "consider possible solutions"
)
