package agents

import (
	"context"
	"strings"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	adksession "google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"finassist/internal/agents/callbacks"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	"finassist/pkg/templates"
)

const appNamePrefix = "finassist_"

// Agent answers a question within a conversation session.
type Agent interface {
	Type() AgentType
	Invoke(ctx context.Context, query, sessionID string) (string, error)
	Info() AgentInfo
}

// ADKAgent runs an ADK llmagent through a runner. Every application session
// maps to one ADK session, so the agent keeps the conversation history of
// each session.
type ADKAgent struct {
	cfg      AgentConfig
	tools    []string
	runner   *runner.Runner
	sessions adksession.Service
	appName  string
	usage    *UsageTracker
	log      *logger.Logger
	states   *sessionTable
}

var _ Agent = (*ADKAgent)(nil)

// ADKAgentDeps bundles what an ADKAgent is built from.
type ADKAgentDeps struct {
	Model     model.LLM
	Tools     []tool.Tool
	Templates *templates.Registry
	Sessions  adksession.Service
	Usage     *UsageTracker
}

// NewADKAgent builds the llmagent for cfg and its runner.
func NewADKAgent(cfg AgentConfig, deps ADKAgentDeps) (*ADKAgent, error) {
	if deps.Model == nil {
		return nil, errors.Wrap(errors.ErrNotConfigured, "agent model is required")
	}
	if deps.Templates == nil {
		deps.Templates = templates.Get()
	}
	if deps.Sessions == nil {
		deps.Sessions = adksession.InMemoryService()
	}

	toolNames := make([]string, 0, len(deps.Tools))
	for _, t := range deps.Tools {
		toolNames = append(toolNames, t.Name())
	}

	// fail at build time rather than on the first question
	if _, err := renderInstruction(deps.Templates, cfg, toolNames, time.Now()); err != nil {
		return nil, err
	}

	budget := callbacks.NewToolBudget(cfg.MaxToolCalls)
	tmpl := deps.Templates

	llm, err := llmagent.New(llmagent.Config{
		Name:        string(cfg.Type),
		Description: cfg.Description,
		Model:       deps.Model,
		InstructionProvider: func(agent.ReadonlyContext) (string, error) {
			return renderInstruction(tmpl, cfg, toolNames, time.Now())
		},
		Tools: deps.Tools,
		BeforeAgentCallbacks: []agent.BeforeAgentCallback{
			callbacks.TurnStartBeforeAgentCallback(),
		},
		AfterAgentCallbacks: []agent.AfterAgentCallback{
			budget.Release(),
			callbacks.TurnEndAfterAgentCallback(),
		},
		AfterModelCallbacks: []llmagent.AfterModelCallback{
			callbacks.UsageLoggingAfterModelCallback(),
		},
		BeforeToolCallbacks: []llmagent.BeforeToolCallback{
			budget.BeforeTool(),
			callbacks.RecordToolStartTimeBeforeToolCallback(),
		},
		AfterToolCallbacks: []llmagent.AfterToolCallback{
			callbacks.AuditLogAfterToolCallback(),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create llm agent %s", cfg.Type)
	}

	appName := appNamePrefix + string(cfg.Type)
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          llm,
		SessionService: deps.Sessions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ADK runner")
	}

	return &ADKAgent{
		cfg:      cfg,
		tools:    toolNames,
		runner:   r,
		sessions: deps.Sessions,
		appName:  appName,
		usage:    deps.Usage,
		log:      logger.Get().With("component", "agent", "agent", cfg.Type),
		states:   newSessionTable(sessionTableSize, sessionIdleTTL),
	}, nil
}

func renderInstruction(reg *templates.Registry, cfg AgentConfig, tools []string, now time.Time) (string, error) {
	prompt, err := reg.Render(cfg.SystemPromptTemplate, map[string]any{
		"Label": cfg.Name,
		"Tools": tools,
		"Date":  now.Format("January 2, 2006"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "render prompt for %s", cfg.Type)
	}
	return prompt, nil
}

func (a *ADKAgent) Type() AgentType { return a.cfg.Type }

// Info describes the agent and the tools it was built with.
func (a *ADKAgent) Info() AgentInfo {
	return AgentInfo{
		Type:      a.cfg.Type,
		Name:      a.cfg.Name,
		Label:     a.cfg.Label,
		ToolCount: len(a.tools),
		Tools:     append([]string(nil), a.tools...),
	}
}

// Invoke runs one conversation turn and returns the agent's final answer.
// Turns of the same session are serialized.
func (a *ADKAgent) Invoke(ctx context.Context, query, sessionID string) (string, error) {
	st := a.states.get(sessionID)
	st.Lock()
	defer st.Unlock()

	if err := a.ensureSession(ctx, sessionID, st); err != nil {
		return "", err
	}

	var (
		final         []string
		failure       string
		input, output int
	)

	content := genai.NewContentFromText(query, genai.RoleUser)
	for event, err := range a.runner.Run(ctx, sessionID, sessionID, content, agent.RunConfig{}) {
		if err != nil {
			a.recordTokens(input, output)
			return "", errors.Wrapf(err, "%s execution failed", a.cfg.Type)
		}
		if event == nil || event.LLMResponse.Partial {
			continue
		}

		if event.UsageMetadata != nil {
			input += int(event.UsageMetadata.PromptTokenCount)
			output += int(event.UsageMetadata.CandidatesTokenCount)
		}
		if event.ErrorMessage != "" {
			failure = event.ErrorMessage
		}

		if event.IsFinalResponse() {
			if text := eventText(event); text != "" {
				final = append(final, text)
			}
		}
	}
	a.recordTokens(input, output)

	answer := strings.TrimSpace(strings.Join(final, "\n"))
	if answer == "" {
		if failure != "" {
			return "", errors.Wrapf(errors.ErrAgentFailed, "%s: %s", a.cfg.Type, failure)
		}
		return "", errors.Wrapf(errors.ErrEmptyResponse, "%s returned no answer", a.cfg.Type)
	}

	a.log.Debugw("Agent answered",
		"session", sessionID,
		"input_tokens", input,
		"output_tokens", output,
		"chars", len(answer),
	)
	return answer, nil
}

func (a *ADKAgent) recordTokens(input, output int) {
	if a.usage != nil && (input > 0 || output > 0) {
		a.usage.RecordTokens(a.cfg.Type, input, output)
	}
}

// ensureSession creates the ADK session on first use. Callers hold st.
func (a *ADKAgent) ensureSession(ctx context.Context, sessionID string, st *sessionState) error {
	if st.known {
		return nil
	}

	_, err := a.sessions.Get(ctx, &adksession.GetRequest{
		AppName:   a.appName,
		UserID:    sessionID,
		SessionID: sessionID,
	})
	if err != nil {
		_, err = a.sessions.Create(ctx, &adksession.CreateRequest{
			AppName:   a.appName,
			UserID:    sessionID,
			SessionID: sessionID,
		})
		if err != nil {
			return errors.Wrapf(err, "create session %s", sessionID)
		}
		a.log.Debugw("Session created", "session", sessionID)
	}

	st.known = true
	return nil
}

func eventText(event *adksession.Event) string {
	if event.Content == nil {
		return ""
	}
	var parts []string
	for _, p := range event.Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "")
}
