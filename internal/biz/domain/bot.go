package domain

import "fmt"

// TriggerType decides when a bot integration fires.
type TriggerType string

const (
	TriggerAll     TriggerType = "all"
	TriggerKeyword TriggerType = "keyword"
)

// TriggerOperator is the keyword matching mode.
type TriggerOperator string

const (
	OperatorContains   TriggerOperator = "contains"
	OperatorEquals     TriggerOperator = "equals"
	OperatorStartsWith TriggerOperator = "startsWith"
	OperatorEndsWith   TriggerOperator = "endsWith"
	OperatorRegex      TriggerOperator = "regex"
)

// BotConfig is a bot integration attached to an instance, created and
// updated against the remote /EvoAI endpoints. JSON keys match the remote
// contract.
type BotConfig struct {
	ID          string `json:"id,omitempty"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
	AgentURL    string `json:"agentUrl"`
	APIKey      string `json:"apiKey,omitempty"`

	TriggerType     TriggerType     `json:"triggerType"`
	TriggerOperator TriggerOperator `json:"triggerOperator,omitempty"`
	TriggerValue    string          `json:"triggerValue,omitempty"`

	Expire         int    `json:"expire"`
	KeywordFinish  string `json:"keywordFinish"`
	DelayMessage   int    `json:"delayMessage"`
	UnknownMessage string `json:"unknownMessage"`

	ListeningFromMe bool `json:"listeningFromMe"`
	StopBotFromMe   bool `json:"stopBotFromMe"`
	KeepOpen        bool `json:"keepOpen"`
	DebounceTime    int  `json:"debounceTime"`

	SplitMessages bool `json:"splitMessages"`
	TimePerChar   int  `json:"timePerChar"`

	IgnoreJids []string `json:"ignoreJids,omitempty"`

	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
	InstanceID string `json:"instanceId,omitempty"`
}

// DefaultBotConfig mirrors the remote-side defaults for a new integration.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		TriggerType:    TriggerAll,
		KeywordFinish:  "!exit",
		DelayMessage:   1000,
		UnknownMessage: "Sorry, I didn't understand your message.",
		KeepOpen:       true,
		DebounceTime:   3,
	}
}

// Validate checks the cross-field rules before a config goes to the remote
// API: a keyword trigger needs both operator and value.
func (c BotConfig) Validate() error {
	if c.AgentURL == "" {
		return fmt.Errorf("agent url is required")
	}
	switch c.TriggerType {
	case TriggerAll:
	case TriggerKeyword:
		if c.TriggerOperator == "" || c.TriggerValue == "" {
			return fmt.Errorf("keyword trigger requires operator and value")
		}
	default:
		return fmt.Errorf("unsupported trigger type: %q", c.TriggerType)
	}
	return nil
}
