package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/planner"
)

const maxSuggestions = 5

var explicitActionPattern = regexp.MustCompile(`(?i)\b(GET|POST|PUT|PATCH|DELETE)\s+(/[\w\-/{}_]*)`)

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hii+|hello|hey|yo|howdy|good\s+(morning|afternoon|evening)|thanks|thank\s+you|ok|okay)[\s!,.?]*$`)

// actionVerbPattern marks messages that ask for something to happen
// rather than chat.
var actionVerbPattern = regexp.MustCompile(`(?i)\b(list|show|get|fetch|find|search|create|add|make|update|change|edit|set|delete|remove|cancel|publish|unpublish|sync|import|export)\b`)

// Planner turns free-text messages into validated planned requests.
type Planner struct {
	index   *catalog.Index
	threads *ThreadStore
	logger  *slog.Logger
}

func NewPlanner(index *catalog.Index, threads *ThreadStore, logger *slog.Logger) *Planner {
	return &Planner{
		index:   index,
		threads: threads,
		logger:  logger.With("module", "chat_planner"),
	}
}

// Plan runs the planning pipeline for one message. Greetings
// short-circuit with a plain reply and never produce a planned request.
func (p *Planner) Plan(ctx context.Context, request Request) Response {
	response := Response{
		Status:     StatusReply,
		ThreadID:   p.threads.Ensure(request.ThreadID),
		ResourceID: request.ResourceID,
	}

	defer func() {
		p.threads.Append(response.ThreadID, request.Message, response.Reply)
	}()

	message := strings.TrimSpace(request.Message)

	if message == "" || isGreeting(message) {
		response.Reply = "Hi! Tell me what you want to do with your store data, for example \"list products\" or \"GET /admin/orders\"."

		return response
	}

	method, path, explicit := explicitAction(message)

	if !explicit {
		if !looksLikeAction(message) {
			response.Reply = "I can plan admin API actions for you. Describe one, like \"create a product\" or \"show draft orders\"."

			return response
		}

		candidate, ok := p.rankCandidate(ctx, message)
		if !ok {
			response.Status = StatusInvalidEndpoint
			response.Reply = "I couldn't match that to a known admin endpoint. Try naming the resource, e.g. \"list products\"."

			return response
		}

		method, path = candidate.Method, candidate.Path
	}

	resolved, ok := p.index.Resolve(ctx, method, path)
	if !ok && p.index.Size(ctx) > 0 {
		suggestions := p.suggest(ctx, method, path)
		response.Status = StatusInvalidEndpoint
		response.Suggestions = suggestions
		response.Reply = invalidEndpointReply(method, path, suggestions)

		p.logger.InfoContext(ctx, "Chat plan rejected", "method", method, "path", path, "suggestions", len(suggestions))

		return response
	}

	plan := models.NewPlannedRequest(resolved.Method, resolved.Path, nil)

	// prerequisite suggestions are advisory and ride along with the plan
	dependency := planner.Plan(ctx, plan.Method, plan.Path, plan.Body, p.index)
	response.Suggestions = dependency.Next

	response.Status = StatusPlanned
	response.Plan = &plan
	response.ToolCalls = []ToolCall{{
		Name: adminAPIToolName,
		Arguments: map[string]any{
			"method": plan.Method,
			"path":   plan.Path,
			"body":   plan.Body,
		},
	}}

	// the canonical summary always wins over free-text narrative so the
	// reply never claims an action ran when only a plan exists
	response.Reply = summarize(plan, dependency.Notes)

	p.logger.InfoContext(ctx, "Chat plan produced", "method", plan.Method, "path", plan.Path)

	return response
}

func isGreeting(message string) bool {
	return greetingPattern.MatchString(message)
}

func looksLikeAction(message string) bool {
	if !actionVerbPattern.MatchString(message) {
		return false
	}

	return len(strings.Fields(message)) > 2 || explicitActionPattern.MatchString(message)
}

func explicitAction(message string) (string, string, bool) {
	match := explicitActionPattern.FindStringSubmatch(message)
	if match == nil {
		return "", "", false
	}

	return strings.ToUpper(match[1]), match[2], true
}

// rankCandidate picks the best catalog endpoint for a free-text request,
// preferring the method implied by the message's verb.
func (p *Planner) rankCandidate(ctx context.Context, message string) (catalog.Endpoint, bool) {
	method := impliedMethod(message)

	matches := p.index.Search(ctx, method, message, 1)
	if len(matches) == 0 && method != http.MethodGet {
		matches = p.index.Search(ctx, "", message, 1)
	}

	if len(matches) == 0 {
		return catalog.Endpoint{}, false
	}

	return matches[0], true
}

func impliedMethod(message string) string {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "create", "add", "make", "import"):
		return http.MethodPost
	case containsAny(lower, "update", "change", "edit", "set", "publish", "unpublish"):
		return http.MethodPatch
	case containsAny(lower, "delete", "remove", "cancel"):
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}

	return false
}

// suggest returns up to five endpoints ranked by path token overlap
// with the rejected path, same-method first, any method as fallback.
func (p *Planner) suggest(ctx context.Context, method, path string) []models.PlannedRequest {
	matches := p.index.Search(ctx, method, path, maxSuggestions)
	if len(matches) == 0 {
		matches = p.index.Search(ctx, "", path, maxSuggestions)
	}

	suggestions := make([]models.PlannedRequest, 0, len(matches))
	for _, match := range matches {
		suggestions = append(suggestions, models.NewPlannedRequest(match.Method, match.Path, nil))
	}

	return suggestions
}

func summarize(plan models.PlannedRequest, notes []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Planned: %s %s.", plan.Method, plan.Path)

	if len(plan.Body) > 0 {
		keys := make([]string, 0, len(plan.Body))
		for key := range plan.Body {
			keys = append(keys, key)
		}

		sort.Strings(keys)
		fmt.Fprintf(&b, " Body fields: %s.", strings.Join(keys, ", "))
	}

	b.WriteString(" Nothing has been executed; confirm to run it.")

	for _, note := range notes {
		b.WriteString(" Note: ")
		b.WriteString(note)
		b.WriteString(".")
	}

	return b.String()
}

func invalidEndpointReply(method, path string, suggestions []models.PlannedRequest) string {
	if len(suggestions) == 0 {
		return fmt.Sprintf("%s %s is not in the API catalog and I found no close match.", method, path)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s %s is not in the API catalog. Did you mean:", method, path)

	for _, suggestion := range suggestions {
		fmt.Fprintf(&b, " %s %s;", suggestion.Method, suggestion.Path)
	}

	return strings.TrimSuffix(b.String(), ";")
}
