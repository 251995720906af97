package adapter

// Options are the generation parameters accepted from callers and used for
// provider defaults. Pointer fields distinguish "unset" from a zero value so
// merging can fall through caller -> provider default -> base default.
type Options struct {
	Model       string           `json:"model,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	Stream      *bool            `json:"stream,omitempty"`
	Seed        *int             `json:"seed,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	JSONMode    *bool            `json:"json_mode,omitempty"`
	Tools       []map[string]any `json:"tools,omitempty"`
	ToolChoice  any              `json:"tool_choice,omitempty"`
}

// NormalizedOptions is the fully merged option set. Fields that remained
// unset after the merge stay nil and are omitted from the outbound body
// rather than sent as null.
type NormalizedOptions struct {
	Model       string
	Temperature *float64
	Stream      bool
	Seed        *int
	MaxTokens   *int
	JSONMode    bool
	Tools       []map[string]any
	ToolChoice  any
}

// normalizeOptions merges caller options over provider defaults over the
// built-in base (stream and JSON mode off, everything else absent).
// It never fails: unusable caller values simply fall through.
func normalizeOptions(caller, defaults Options) NormalizedOptions {
	out := NormalizedOptions{
		Model:       firstNonEmpty(caller.Model, defaults.Model),
		Temperature: firstFloat(caller.Temperature, defaults.Temperature),
		Seed:        firstInt(caller.Seed, defaults.Seed),
		MaxTokens:   firstInt(caller.MaxTokens, defaults.MaxTokens),
		Tools:       caller.Tools,
		ToolChoice:  caller.ToolChoice,
	}

	if out.Tools == nil {
		out.Tools = defaults.Tools
	}
	if out.ToolChoice == nil {
		out.ToolChoice = defaults.ToolChoice
	}
	if b := firstBool(caller.Stream, defaults.Stream); b != nil {
		out.Stream = *b
	}
	if b := firstBool(caller.JSONMode, defaults.JSONMode); b != nil {
		out.JSONMode = *b
	}

	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func firstInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func firstBool(a, b *bool) *bool {
	if a != nil {
		return a
	}
	return b
}
