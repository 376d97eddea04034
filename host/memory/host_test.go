package memory

import (
	"errors"
	"testing"

	"github.com/leeforge/hostbridge/host"
	"github.com/stretchr/testify/require"
)

func TestHost_LoadFiresStringArrayPayload(t *testing.T) {
	h := New(host.V2011)
	h.Define(PluginSpec{Name: "simpleCmd", Commands: []string{"doThing"}})

	var got []host.Event
	_, err := h.AddEventCallback(host.EventPluginLoaded, func(ev host.Event) {
		got = append(got, ev)
	})
	require.NoError(t, err)

	require.NoError(t, h.Load("simpleCmd"))
	require.Len(t, got, 1)
	require.Equal(t, host.PayloadStrings, got[0].Payload.Kind)
	require.Equal(t, []string{"/plug-ins/simpleCmd.so", "simpleCmd"}, got[0].Payload.Strings)
	require.False(t, got[0].Callback.IsZero())

	require.Error(t, h.Load("simpleCmd"), "double load should fail")
	require.Error(t, h.Load("missing"))
}

func TestHost_UnloadPayloadAndValidTypes(t *testing.T) {
	h := New(host.V2011, "transform")
	h.Define(PluginSpec{Name: "meshPlug", NodeTypes: []string{"myMesh", "abstractBase"}, ValidNodeTypes: []string{"myMesh"}})

	var unloaded []string
	h.AddEventCallback(host.EventPluginUnloaded, func(ev host.Event) {
		unloaded = append(unloaded, ev.Payload.Strings...)
	})

	require.NoError(t, h.Load("meshPlug"))
	valid, err := h.ValidNodeTypes()
	require.NoError(t, err)
	require.Equal(t, []string{"myMesh", "transform"}, valid)

	require.NoError(t, h.Unload("meshPlug"))
	require.Equal(t, []string{"meshPlug", "/plug-ins/meshPlug.so"}, unloaded)

	valid, _ = h.ValidNodeTypes()
	require.Equal(t, []string{"transform"}, valid)
	require.Error(t, h.Unload("meshPlug"))
}

func TestHost_LegacyLoadCommand(t *testing.T) {
	h := New(host.V85)
	h.Define(PluginSpec{Name: "old"})

	var evaluated []string
	require.NoError(t, h.AddLoadPluginCommand(`bridge.loaded("%s")`, func(cmd string) error {
		evaluated = append(evaluated, cmd)
		return nil
	}))

	fired := 0
	h.AddEventCallback(host.EventPluginLoaded, func(host.Event) { fired++ })

	require.NoError(t, h.Load("old"))
	require.Equal(t, []string{`bridge.loaded("old")`}, evaluated)
	require.Zero(t, fired, "old hosts have no string-array callbacks")

	require.NoError(t, h.Unload("old"))
}

func TestHost_RemoveCallbackDuringDispatch(t *testing.T) {
	h := New(host.V2011)

	var ids []host.CallbackID
	calls := 0
	handler := func(ev host.Event) {
		calls++
		for _, id := range ids {
			h.RemoveCallback(id)
		}
	}
	id1, _ := h.AddEventCallback(host.EventSceneOpened, handler)
	id2, _ := h.AddEventCallback(host.EventSceneOpened, handler)
	ids = []host.CallbackID{id1, id2}

	require.Equal(t, 1, h.FireSceneOpened())
	require.Equal(t, 1, calls)
	require.Zero(t, h.CallbackCount(host.EventSceneOpened))
	require.ErrorIs(t, h.RemoveCallback(id1), host.ErrUnknownCallback)
}

func TestHost_FailureInjection(t *testing.T) {
	h := New(host.V2011)
	h.Define(PluginSpec{Name: "p", Commands: []string{"c"}})
	require.NoError(t, h.Load("p"))

	boom := errors.New("boom")
	h.Fail(QueryCommands, "p", boom)
	_, err := h.PluginCommands("p")
	require.ErrorIs(t, err, boom)

	h.Heal()
	cmds, err := h.PluginCommands("p")
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, cmds)
}

func TestHost_OpenScene(t *testing.T) {
	h := New(host.V2011)
	var busy bool
	opened := 0
	h.AddEventCallback(host.EventSceneOpened, func(host.Event) { opened++ })

	require.NoError(t, h.OpenScene(func() error {
		busy = h.IsReadingFile() && h.IsOpeningFile()
		return nil
	}))
	require.True(t, busy)
	require.False(t, h.IsReadingFile())
	require.Equal(t, 1, opened)
}
