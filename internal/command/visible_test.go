package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"botfleet/entity"
)

func cmd(id, parent string, active, multi, allowExternal bool) *entity.Command {
	return &entity.Command{
		Id: id, Name: id, ParentMultiCommandId: parent,
		IsActive: active, IsMultiCommand: multi, AllowExternalCommands: allowExternal,
	}
}

func TestVisible_NoActiveMultiCommand(t *testing.T) {
	all := []*entity.Command{
		cmd("a", "", true, false, false),
		cmd("b", "", false, false, false),
		cmd("m", "", true, true, false),
	}
	visible := Visible(all, "")
	assert.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].Name)
	assert.Equal(t, "m", visible[1].Name)
}

func TestVisible_RestrictiveMultiCommand(t *testing.T) {
	all := []*entity.Command{
		cmd("m", "", true, true, false),
		cmd("child", "m", true, false, false),
		cmd("other", "", true, false, false),
	}
	visible := Visible(all, "m")
	assert.Len(t, visible, 1)
	assert.Equal(t, "child", visible[0].Name)
}

func TestVisible_PermissiveMultiCommandIncludesTopLevel(t *testing.T) {
	all := []*entity.Command{
		cmd("m", "", true, true, true),
		cmd("child", "m", true, false, false),
		cmd("toplevel", "", true, false, false),
	}
	visible := Visible(all, "m")
	assert.Len(t, visible, 3)
}

func TestVisible_DeletedMultiCommandFallsBackToTopLevel(t *testing.T) {
	all := []*entity.Command{
		cmd("a", "", true, false, false),
	}
	visible := Visible(all, "gone")
	assert.Len(t, visible, 1)
}

func TestMatchCallback(t *testing.T) {
	visible := []*entity.Command{cmd("a", "", true, false, false), cmd("b", "", true, false, false)}
	assert.Equal(t, "b", MatchCallback(visible, "b").Name)
	assert.Nil(t, MatchCallback(visible, "missing"))
}

func TestMatchIntentReply(t *testing.T) {
	visible := []*entity.Command{cmd("weather", "", true, false, false), cmd("news", "", true, false, false)}

	assert.Equal(t, "weather", matchIntentReply(visible, "weather").Name)
	assert.Equal(t, "weather", matchIntentReply(visible, "Думаю, это команда Weather").Name)
	assert.Nil(t, matchIntentReply(visible, "НЕТ"))
	assert.Nil(t, matchIntentReply(visible, "не знаю"))
}
