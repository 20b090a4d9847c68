package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/rahul/taskflow/internal/agent"
	"github.com/rahul/taskflow/internal/store"
)

const historyLimit = 5

const helpText = `Commands:
/plan <query> - generate and run tasks for a query
/tasks - show the current tasks
/edit <id> <description> - change a task (it goes back to pending)
/delete <id> - delete a task
/add <description> - add a task
/refine - check the tasks for gaps, duplicates and vague steps
/approve - run the edited tasks and show the results
/review - evaluate the latest results
/history - list recent approved runs
/help - show this message
Any other text is treated as /plan.`

// Handler implements the human review loop on top of a chat transport: plan,
// edit, refine, approve. Each chat has its own session in the store.
type Handler struct {
	Sessions *store.SessionStore
	Workflow *agent.Workflow
	Feedback *agent.FeedbackEngine

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewHandler(sessions *store.SessionStore, workflow *agent.Workflow, feedback *agent.FeedbackEngine) *Handler {
	return &Handler{
		Sessions: sessions,
		Workflow: workflow,
		Feedback: feedback,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (h *Handler) chatLock(chatID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[chatID] = l
	}
	return l
}

// Respond runs one command for a chat. Messages from the same chat are
// handled one at a time.
func (h *Handler) Respond(ctx context.Context, chatID, text string) string {
	l := h.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	cmd, arg := parseCommand(text)
	if cmd == "" {
		return helpText
	}

	sess, err := h.Sessions.Load(chatID)
	if err != nil {
		log.Printf("Error loading session %s: %v", chatID, err)
		return "I could not load your session, please try again."
	}

	var reply string
	var changed bool
	switch cmd {
	case "plan":
		reply, changed = h.plan(ctx, sess, arg)
	case "tasks":
		reply = formatTasks(sess.Tasks)
	case "edit":
		reply, changed = h.edit(sess, arg)
	case "delete":
		reply, changed = h.delete(sess, arg)
	case "add":
		reply, changed = h.add(sess, arg)
	case "refine":
		reply, changed = h.refine(sess)
	case "approve":
		reply, changed = h.approve(ctx, sess)
	case "review":
		reply = h.review(sess)
	case "history":
		reply = h.history(chatID)
	case "help", "start":
		reply = helpText
	default:
		reply = fmt.Sprintf("Unknown command /%s.\n\n%s", cmd, helpText)
	}

	if changed {
		if err := h.Sessions.Save(sess); err != nil {
			log.Printf("Error saving session %s: %v", chatID, err)
			return reply + "\n\n(warning: your changes could not be saved)"
		}
	}
	return reply
}

// parseCommand splits "/cmd@bot args" into ("cmd", "args"). Plain text is a
// plan request.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if !strings.HasPrefix(text, "/") {
		return "plan", text
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

func (h *Handler) plan(ctx context.Context, sess *store.Session, query string) (string, bool) {
	if query == "" {
		return "Please enter a query.", false
	}

	out, err := h.Workflow.Run(ctx, query, nil, false)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), false
	}

	sess.Query = query
	sess.Tasks = out.Tasks
	sess.Results = out.Results
	return "Generated Tasks:\n" + formatTasks(out.Tasks), true
}

func (h *Handler) edit(sess *store.Session, arg string) (string, bool) {
	id, desc, _ := strings.Cut(arg, " ")
	desc = strings.TrimSpace(desc)
	if id == "" || desc == "" {
		return "Usage: /edit <id> <description>", false
	}
	if err := sess.Tasks.Edit(id, desc); err != nil {
		return fmt.Sprintf("Could not edit task %s: %v", id, err), false
	}
	return fmt.Sprintf("Updated Task %s: %s", id, desc), true
}

func (h *Handler) delete(sess *store.Session, id string) (string, bool) {
	if id == "" {
		return "Usage: /delete <id>", false
	}
	if err := sess.Tasks.Delete(id); err != nil {
		return fmt.Sprintf("Could not delete task %s: %v", id, err), false
	}
	return fmt.Sprintf("Deleted Task %s", id), true
}

func (h *Handler) add(sess *store.Session, desc string) (string, bool) {
	if desc == "" {
		return "Usage: /add <description>", false
	}
	t := sess.Tasks.Add(desc)
	return fmt.Sprintf("Added Task %s: %s", t.ID, t.Description), true
}

func (h *Handler) refine(sess *store.Session) (string, bool) {
	if len(sess.Tasks.Active()) == 0 {
		return "No tasks to refine. Send a query first.", false
	}

	refined, feedback := h.Feedback.ReflectAndRefine(sess.Tasks, sess.Query)
	sess.Tasks = refined

	var sb strings.Builder
	if len(feedback) == 0 {
		sb.WriteString("No changes needed.\n")
	}
	for _, msg := range feedback {
		sb.WriteString("- " + msg + "\n")
	}
	sb.WriteString("\n" + formatTasks(refined))
	return sb.String(), len(feedback) > 0
}

func (h *Handler) approve(ctx context.Context, sess *store.Session) (string, bool) {
	if len(sess.Tasks) == 0 {
		return "No tasks to run.", false
	}
	edited := sess.Tasks.Active()
	if len(edited) == 0 {
		return "No tasks available to run.", false
	}

	out, err := h.Workflow.Run(ctx, sess.Query, edited, true)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), false
	}
	sess.Tasks = out.Tasks
	sess.Results = out.Results

	run := store.Run{
		RunID:   out.RunID,
		ChatID:  sess.ChatID,
		Query:   out.Query,
		Tasks:   out.Tasks,
		Results: out.Results,
	}
	if err := h.Sessions.RecordRun(run); err != nil {
		log.Printf("Error recording run %s: %v", out.RunID, err)
	}

	var sb strings.Builder
	sb.WriteString("Results:\n")
	for _, r := range out.Results {
		fmt.Fprintf(&sb, "Task %s: %s\n", r.TaskID, r.Text)
	}
	if out.Halt == agent.HaltIterationCap {
		sb.WriteString("\nStopped at the step limit; remaining tasks were not run.")
	}
	return strings.TrimRight(sb.String(), "\n"), true
}

func (h *Handler) review(sess *store.Session) string {
	if len(sess.Results) == 0 {
		return "No results yet. Use /approve to run the tasks."
	}

	var sb strings.Builder
	for _, e := range h.Feedback.Review(sess.Tasks, sess.Results) {
		fmt.Fprintf(&sb, "Task %s: %s\n", e.TaskID, e.Verdict)
	}
	if h.Feedback.NeedsRefinement(sess.Tasks, sess.Results, sess.Query) {
		sb.WriteString("\nSome tasks still need work. Try /refine.")
	} else {
		sb.WriteString("\nAll tasks have results.")
	}
	return sb.String()
}

func (h *Handler) history(chatID string) string {
	runs, err := h.Sessions.ListRuns(chatID, historyLimit)
	if err != nil {
		log.Printf("Error listing runs for %s: %v", chatID, err)
		return "I could not load your run history."
	}
	if len(runs) == 0 {
		return "No approved runs yet."
	}

	var sb strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&sb, "%s  %s (%d results)\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Query, len(r.Results))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTasks(tasks store.TaskList) string {
	active := tasks.Active()
	if len(active) == 0 {
		return "No tasks."
	}

	var sb strings.Builder
	for _, t := range active {
		marker := "-"
		if strings.Contains(t.Description, "Error") {
			marker = "!"
		}
		fmt.Fprintf(&sb, "%s Task %s: %s (Status: %s)\n", marker, t.ID, t.Description, t.Status)
	}
	return strings.TrimRight(sb.String(), "\n")
}
