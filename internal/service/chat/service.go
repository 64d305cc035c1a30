package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/zhouzirui/z-research/backend/internal/model/chat"
	"github.com/zhouzirui/z-research/backend/internal/service/agents"
)

var (
	ErrNoMessages       = errors.New("no messages provided")
	ErrRoundsExhausted  = errors.New("researcher did not produce an answer within the round limit")
	ErrWriterRequired   = errors.New("specific mode requires a writer")
	ErrResearchRequired = errors.New("researcher and suggestor are required")
)

// Mode 决定一次请求走哪条编排路径，每个请求只判定一次。
type Mode string

const (
	ModeGeneric  Mode = "generic"
	ModeSpecific Mode = "specific"
	ModeOllama   Mode = "ollama"
)

// HistoryWindow is how many trailing turns the writer sees.
func (m Mode) HistoryWindow() int {
	switch m {
	case ModeSpecific:
		return 5
	case ModeOllama:
		return 1
	default:
		return 10
	}
}

// ResolveMode picks the mode from provider settings. The writer wins over Ollama.
func ResolveMode(useWriter, useOllama bool) Mode {
	switch {
	case useWriter:
		return ModeSpecific
	case useOllama:
		return ModeOllama
	default:
		return ModeGeneric
	}
}

// Researcher runs one research round.
type Researcher interface {
	Research(ctx context.Context, conversation []*schema.Message, toolsOnly bool) (*agents.ResearchResult, error)
}

// Writer drafts an answer from a flattened conversation.
type Writer interface {
	Write(ctx context.Context, conversation []*schema.Message) (string, error)
}

// Suggestor proposes related queries. It never fails.
type Suggestor interface {
	Suggest(ctx context.Context, conversation []*schema.Message) chat.RelatedQueries
}

// Options tunes the orchestration.
type Options struct {
	Mode                Mode
	FlattenToolMessages bool
	MaxRounds           int
}

// Result is what a completion produced.
type Result struct {
	// Messages is the client history followed by every message this request appended.
	Messages []chat.Message
	// Conversation is the model-facing transcript after the research rounds.
	Conversation []*schema.Message
	GroupID      string
	Answer       string
	Related      chat.RelatedQueries
	Rounds       int
	// Err is the error that stopped the orchestration, if any. The messages
	// gathered before it are still returned.
	Err error
}

// Service orchestrates researcher, writer and suggestor for one completion request.
type Service struct {
	researcher Researcher
	writer     Writer
	suggestor  Suggestor
	opts       Options
	newID      func() string
}

// NewService wires the agents. writer may be nil unless opts.Mode is ModeSpecific.
func NewService(researcher Researcher, suggestor Suggestor, writer Writer, opts Options) (*Service, error) {
	if researcher == nil || suggestor == nil {
		return nil, ErrResearchRequired
	}
	if opts.Mode == "" {
		opts.Mode = ModeGeneric
	}
	if opts.Mode == ModeSpecific && writer == nil {
		return nil, ErrWriterRequired
	}
	if opts.MaxRounds < 1 {
		opts.MaxRounds = 5
	}

	return &Service{
		researcher: researcher,
		writer:     writer,
		suggestor:  suggestor,
		opts:       opts,
		newID:      uuid.NewString,
	}, nil
}

// Mode reports the orchestration path this service takes.
func (s *Service) Mode() Mode {
	return s.opts.Mode
}

// Complete runs the research loop over messages and returns the enriched history.
// Only an empty input is reported as an error; failures during orchestration end
// up in Result.Err.
func (s *Service) Complete(ctx context.Context, messages []chat.Message) (*Result, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	res := &Result{
		Messages:     append(make([]chat.Message, 0, len(messages)+8), messages...),
		Conversation: buildConversation(messages),
		GroupID:      s.newID(),
	}

	s.research(ctx, res)

	if s.opts.Mode == ModeSpecific && res.Answer == "" && res.Err == nil {
		s.write(ctx, res)
	}

	if res.Err != nil {
		log.Printf("[chat] group=%s mode=%s stopped after %d round(s): %v", res.GroupID, s.opts.Mode, res.Rounds, res.Err)
		return res, nil
	}

	res.Messages = append(res.Messages, chat.Message{
		ID:      res.GroupID,
		Role:    chat.RoleAssistant,
		Content: res.Answer,
		Type:    chat.TypeAnswer,
	})

	res.Related = s.suggestor.Suggest(ctx, s.suggestorInput(res))
	related, err := json.Marshal(res.Related)
	if err != nil {
		// RelatedQueries 只包含字符串，理论上不会失败
		related = []byte(`{"items":[]}`)
	}

	res.Messages = append(res.Messages,
		chat.Message{ID: res.GroupID, Role: chat.RoleAssistant, Content: string(related), Type: chat.TypeRelated},
		chat.Message{ID: res.GroupID, Role: chat.RoleAssistant, Content: string(chat.TypeFollowup), Type: chat.TypeFollowup},
	)

	log.Printf("[chat] group=%s mode=%s completed in %d round(s), answer_len=%d related=%d",
		res.GroupID, s.opts.Mode, res.Rounds, len(res.Answer), len(res.Related.Items))
	return res, nil
}

func (s *Service) research(ctx context.Context, res *Result) {
	var (
		finishReason string
		toolCount    int
	)

	for s.shouldContinue(res, finishReason, toolCount) {
		if res.Rounds == s.opts.MaxRounds {
			if s.opts.Mode != ModeSpecific && res.Answer == "" {
				res.Err = ErrRoundsExhausted
			}
			return
		}
		res.Rounds++

		out, err := s.researcher.Research(ctx, res.Conversation, s.opts.Mode == ModeSpecific)
		if err != nil {
			res.Err = fmt.Errorf("research round %d: %w", res.Rounds, err)
			return
		}

		finishReason = out.FinishReason
		res.Answer = out.Text
		toolCount = len(out.ToolResults)
		res.Conversation = append(res.Conversation, out.Messages...)

		for _, tr := range out.ToolResults {
			res.Messages = append(res.Messages, chat.Message{
				ID:      res.GroupID,
				Role:    chat.RoleTool,
				Content: tr.Content,
				Name:    tr.Name,
				Type:    chat.TypeTool,
			})
		}
	}
}

func (s *Service) shouldContinue(res *Result, finishReason string, toolCount int) bool {
	if res.Err != nil {
		return false
	}
	if s.opts.Mode == ModeSpecific {
		return toolCount == 0 && res.Answer == ""
	}
	return finishReason != agents.FinishReasonStop || res.Answer == ""
}

func (s *Service) write(ctx context.Context, res *Result) {
	input := lastN(agents.FlattenToolMessages(res.Conversation), s.opts.Mode.HistoryWindow())

	answer, err := s.writer.Write(ctx, input)
	if err != nil {
		res.Err = fmt.Errorf("writer: %w", err)
		return
	}

	res.Answer = answer
	res.Conversation = append(res.Conversation, schema.AssistantMessage(answer, nil))
}

func (s *Service) suggestorInput(res *Result) []*schema.Message {
	switch {
	case s.opts.Mode == ModeOllama:
		return []*schema.Message{schema.AssistantMessage(res.Answer, nil)}
	case s.opts.FlattenToolMessages:
		return agents.FlattenToolMessages(res.Conversation)
	default:
		return res.Conversation
	}
}

// buildConversation drops UI bookkeeping and keeps only role and content.
func buildConversation(messages []chat.Message) []*schema.Message {
	visible := lo.Filter(messages, func(m chat.Message, _ int) bool {
		return !m.Hidden()
	})
	return lo.Map(visible, func(m chat.Message, _ int) *schema.Message {
		return &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content}
	})
}

func lastN(messages []*schema.Message, n int) []*schema.Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
