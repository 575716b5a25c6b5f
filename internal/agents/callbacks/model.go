package callbacks

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"finassist/pkg/logger"
)

// UsageLoggingAfterModelCallback logs token usage of every model turn and
// warns about truncated or filtered responses.
func UsageLoggingAfterModelCallback() llmagent.AfterModelCallback {
	return func(ctx agent.CallbackContext, resp *model.LLMResponse, respErr error) (*model.LLMResponse, error) {
		if respErr != nil || resp == nil {
			return nil, nil
		}

		log := logger.Get().With("component", "model_usage", "agent", ctx.AgentName(), "session", ctx.SessionID())

		if resp.UsageMetadata != nil {
			log.Debugw("Model turn",
				"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
				"completion_tokens", resp.UsageMetadata.CandidatesTokenCount,
				"total_tokens", resp.UsageMetadata.TotalTokenCount,
			)
		}

		switch resp.FinishReason {
		case genai.FinishReasonMaxTokens:
			log.Warnw("Model response truncated at max tokens")
		case genai.FinishReasonSafety:
			log.Warnw("Model response filtered")
		case genai.FinishReasonMalformedFunctionCall:
			log.Warnw("Model produced a malformed function call", "error", resp.ErrorMessage)
		}

		return nil, nil
	}
}
