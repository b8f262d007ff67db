package config

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location, model string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
		model:     model,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(embedder, generator string, gemini Gemini, genai GenAI, openai OpenAI) *LLM {
	return &LLM{
		embedder:  embedder,
		generator: generator,
		Gemini:    gemini,
		GenAI:     genai,
		OpenAI:    openai,
	}
}

// NewOpenAIForTest creates an OpenAI config for testing purposes
func NewOpenAIForTest(apiKey, baseURL string) *OpenAI {
	return &OpenAI{apiKey: apiKey, baseURL: baseURL}
}

// NewGenAIForTest creates a GenAI config for testing purposes
func NewGenAIForTest(apiKey, model string) *GenAI {
	return &GenAI{apiKey: apiKey, model: model}
}

// NewKnowledgeForTest creates a Knowledge config for testing purposes
func NewKnowledgeForTest(documents, intents string) *Knowledge {
	return &Knowledge{documents: documents, intents: intents}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewProfileForTest creates a Profile config for testing purposes
func NewProfileForTest(path string) *Profile {
	return &Profile{path: path}
}

// NewAudioForTest creates an Audio config for testing purposes
func NewAudioForTest(disabled bool) *Audio {
	return &Audio{disabled: disabled, voice: "alloy", speed: 1.0}
}
