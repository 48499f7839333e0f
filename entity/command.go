package entity

import (
	"encoding/json"
	"net/http"

	"botfleet/lib/validate"
)

// CommandType is the json_code "type" discriminant (spec.md §3).
type CommandType string

const (
	CommandTypeMenu         CommandType = "menu"
	CommandTypeMessage      CommandType = "message"
	CommandTypeKeyboard     CommandType = "keyboard"
	CommandTypeMultiCommand CommandType = "multi_command"
)

// Command is a scripted action attached to one Bot, matched either by LLM
// intent classification (text) or by exact callback data (buttons).
type Command struct {
	Id                     string          `json:"id"`
	BotId                  string          `json:"bot_id"`
	Name                   string          `json:"name" validate:"required"`
	Description            string          `json:"description"`
	JsonCode               json.RawMessage `json:"json_code" validate:"required"`
	IsActive               bool            `json:"is_active"`
	IsMultiCommand         bool            `json:"is_multi_command"`
	ParentMultiCommandId   string          `json:"parent_multi_command_id"`
	AllowExternalCommands  bool            `json:"allow_external_commands"`
}

func (c *Command) Bind(_ *http.Request) error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	var probe map[string]any
	return json.Unmarshal(c.JsonCode, &probe)
}

// IsTopLevel reports whether this command has no parent multi-command.
func (c *Command) IsTopLevel() bool {
	return c.ParentMultiCommandId == ""
}

// ButtonSpec is one inline-keyboard button inside a menu command's json_code.
type ButtonSpec struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// CommandSpec is the parsed shape of Command.JsonCode. Every field is
// optional: a command of a given CommandType only reads the fields that
// matter for that type (spec.md §4.5); unknown types fall back to Text
// or a pretty-printed dump of the whole object.
type CommandSpec struct {
	Type           CommandType    `json:"type"`
	Text           string         `json:"text"`
	Buttons        [][]ButtonSpec `json:"buttons"`
	WelcomeMessage string         `json:"welcome_message"`
	OneTime        bool           `json:"one_time"`
}

// ParseSpec decodes json_code. Write-time validation (Bind) only checks that
// json_code is a well-formed JSON object; a json_code whose fields do not
// fit CommandSpec is a best-effort failure here, at execution time.
func (c *Command) ParseSpec() (CommandSpec, error) {
	var spec CommandSpec
	err := json.Unmarshal(c.JsonCode, &spec)
	return spec, err
}

// Pretty renders json_code for the "any other type" fallback reply.
func (c *Command) Pretty() string {
	var buf map[string]any
	if err := json.Unmarshal(c.JsonCode, &buf); err != nil {
		return string(c.JsonCode)
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return string(c.JsonCode)
	}
	return string(out)
}
