package api

import (
	"net/http"
	"slices"

	"github.com/ayusman/winklock/internal/config"
	"github.com/ayusman/winklock/internal/gesture"
)

// ConfigReader reads the configuration file, reporting why it is unusable.
// *config.Loader implements it.
type ConfigReader interface {
	LoadStrict() (*config.Config, error)
}

// CommandsHandler serves GET /api/commands: the command table a new session
// would use, with lint findings.
type CommandsHandler struct {
	reader ConfigReader
}

// NewCommandsHandler creates a CommandsHandler.
func NewCommandsHandler(reader ConfigReader) *CommandsHandler {
	return &CommandsHandler{reader: reader}
}

type commandResponse struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	ActionID string `json:"action_id"`
}

type commandsResponse struct {
	MaxDigit       int               `json:"max_digit"`
	BlinkThreshold float64           `json:"blink_threshold"`
	InputDelay     float64           `json:"input_delay"`
	ResetDelay     float64           `json:"reset_delay"`
	Commands       []commandResponse `json:"commands"`
	Actions        []string          `json:"actions"`
	Findings       []string          `json:"findings"`
	Fallback       bool              `json:"fallback"`
	Error          string            `json:"error,omitempty"`
}

func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.reader.LoadStrict()
	resp := commandsResponse{Findings: []string{}}
	if err != nil {
		cfg = config.Default()
		resp.Fallback = true
		resp.Error = err.Error()
	}

	resp.MaxDigit = cfg.MaxDigit
	resp.BlinkThreshold = cfg.BlinkThreshold
	resp.InputDelay = cfg.InputDelay
	resp.ResetDelay = cfg.ResetDelay

	resp.Commands = make([]commandResponse, len(cfg.Commands))
	for i, c := range cfg.Commands {
		resp.Commands[i] = commandResponse{Name: c.Name, Code: gesture.FormatCode(c.Code), ActionID: c.ActionID}
	}

	resp.Actions = make([]string, 0, len(cfg.Actions))
	for id := range cfg.Actions {
		resp.Actions = append(resp.Actions, id)
	}
	slices.Sort(resp.Actions)

	for _, f := range config.Lint(cfg) {
		resp.Findings = append(resp.Findings, f.String())
	}

	writeJSON(w, http.StatusOK, resp)
}
