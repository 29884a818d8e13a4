package llm

// TaskType identifies the type of LLM task.
type TaskType string

// Task type constants.
const (
	TaskTypeLanguageSelect TaskType = "language_select"
	TaskTypeTranslate      TaskType = "translate"
	TaskTypeSynthesize     TaskType = "synthesize"
	TaskTypeCacheMatch     TaskType = "cache_match"
	TaskTypeComplete       TaskType = "complete"
)

// ProviderModel specifies a provider and model combination.
type ProviderModel struct {
	Provider ProviderName
	Model    string
}

// TaskProviderChain defines the provider/model fallback chain for a task.
type TaskProviderChain struct {
	Default   ProviderModel
	Fallbacks []ProviderModel
}

// DefaultTaskConfig returns the default provider/model fallback chain per task.
func DefaultTaskConfig() map[TaskType]TaskProviderChain {
	return map[TaskType]TaskProviderChain{
		// Language selection: small JSON answer, cheap models first
		TaskTypeLanguageSelect: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: ModelClaudeHaiku},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
				{Provider: ProviderGoogle, Model: ModelGeminiFlashLite},
			},
		},

		// Translate: long outputs, streamed
		TaskTypeTranslate: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: ModelClaudeHaiku},
			Fallbacks: []ProviderModel{
				{Provider: ProviderGoogle, Model: ModelGeminiFlashLite},
				{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
				{Provider: ProviderOpenRouter, Model: ModelLlama31Instruct},
			},
		},

		// Synthesize: longest outputs, streamed
		TaskTypeSynthesize: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: ModelClaudeHaiku},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: "gpt-4o"},
				{Provider: ProviderGoogle, Model: ModelGeminiFlashLite},
			},
		},

		// Cache match: short JSON verdict
		TaskTypeCacheMatch: {
			Default: ProviderModel{Provider: ProviderOpenAI, Model: "gpt-5-mini"},
			Fallbacks: []ProviderModel{
				{Provider: ProviderAnthropic, Model: ModelClaudeHaiku},
				{Provider: ProviderGoogle, Model: ModelGeminiFlashLite},
			},
		},

		// Complete: generic prompts
		TaskTypeComplete: {
			Default: ProviderModel{Provider: ProviderOpenRouter, Model: ModelLlama31Instruct},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
			},
		},
	}
}

// GetProviderChain returns the ordered list of provider/model combinations for a task.
func (tc TaskProviderChain) GetProviderChain() []ProviderModel {
	chain := make([]ProviderModel, 0, 1+len(tc.Fallbacks))
	chain = append(chain, tc.Default)
	chain = append(chain, tc.Fallbacks...)

	return chain
}
