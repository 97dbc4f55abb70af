package fsm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testName = "fsm_test"

	stateDraft     = State("state_draft")
	stateReview    = State("state_review")
	stateAccepted  = State("state_accepted")
	statePublished = State("state_published")

	// Events
	eventSubmit  = Event("event_submit")
	eventVote    = Event("event_vote")
	eventPublish = Event("event_publish")

	// Internal events
	eventAutoCountVotesInternal = Event("event_count_votes_internal")
	eventSetAcceptedInternal    = Event("event_set_accepted_internal")
)

type votingMachine struct {
	*FSM
	votes    int
	required int
}

func newVotingMachine(required int) *votingMachine {
	m := &votingMachine{required: required}
	m.FSM = MustNewFSM(
		testName,
		stateDraft,
		[]EventDesc{
			{Name: eventSubmit, SrcState: []State{stateDraft}, DstState: stateReview},

			// Same event from two sources keeps the machine where it is
			{Name: eventVote, SrcState: []State{stateReview}, DstState: stateReview},
			{Name: eventVote, SrcState: []State{stateAccepted}, DstState: stateAccepted},

			{Name: eventAutoCountVotesInternal, SrcState: []State{stateReview}, DstState: stateReview, IsInternal: true, IsAuto: true},
			{Name: eventSetAcceptedInternal, SrcState: []State{stateReview}, DstState: stateAccepted, IsInternal: true},

			{Name: eventPublish, SrcState: []State{stateAccepted}, DstState: statePublished},
		},
		Callbacks{
			eventVote: func(event Event, args ...interface{}) (Event, interface{}, error) {
				if len(args) != 1 {
					return "", nil, errors.New("{arg0} required {voter}")
				}
				m.votes++
				return event, m.votes, nil
			},
			eventAutoCountVotesInternal: func(event Event, args ...interface{}) (Event, interface{}, error) {
				if m.votes >= m.required {
					return eventSetAcceptedInternal, nil, nil
				}
				return "", nil, nil
			},
		},
	)
	return m
}

func compareRecoverStr(t *testing.T, r interface{}, assertion string) {
	if r == nil {
		t.Error("expected recover:", assertion)
		return
	}
	msg, ok := r.(string)
	if !ok {
		t.Error("not asserted recover:", r)
	}
	if msg != assertion {
		t.Error("not asserted recover:", msg)
	}
}

func TestMustNewFSM_Empty_Name_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "machine name cannot be empty")
	}()
	MustNewFSM("", "init_state", []EventDesc{}, nil)

	t.Errorf("did not panic on empty machine name")
}

func TestMustNewFSM_Empty_Initial_State_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "initial state state cannot be empty")
	}()
	MustNewFSM("fsm", "", []EventDesc{}, nil)

	t.Errorf("did not panic on empty initial")
}

func TestMustNewFSM_Empty_Events_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "cannot init fsm with empty events")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{}, nil)

	t.Errorf("did not panic on empty events list")
}

func TestMustNewFSM_Event_Empty_Name_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "cannot init empty event")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "", SrcState: []State{"init_state"}, DstState: "done"},
	}, nil)

	t.Errorf("did not panic on empty event name")
}

func TestMustNewFSM_Event_Empty_Source_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "event must have minimum one source available state")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event", SrcState: []State{}, DstState: "done"},
	}, nil)

	t.Errorf("did not panic on empty event sources")
}

func TestMustNewFSM_States_Min_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "machine must contain at least two states")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event", SrcState: []State{"init_state"}, DstState: "init_state"},
	}, nil)

	t.Errorf("did not panic on less than two states")
}

func TestMustNewFSM_Duplicate_Pair_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "duplicate dst for pair \"init_state\" + \"event1\"")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event1", SrcState: []State{"init_state"}, DstState: "state"},
		{Name: "event1", SrcState: []State{"init_state"}, DstState: "state2"},
	}, nil)

	t.Errorf("did not panic on duplicated source + event pair")
}

func TestMustNewFSM_State_Final_Not_Found_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "cannot initialize machine without final states")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event1", SrcState: []State{"init_state"}, DstState: "state2"},
		{Name: "event2", SrcState: []State{"state2"}, DstState: "init_state"},
	}, nil)

	t.Errorf("did not panic on initialize without final state")
}

func TestMustNewFSM_Unknown_Callback_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "callback bound to unknown event \"event2\"")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event1", SrcState: []State{"init_state"}, DstState: "done"},
	}, Callbacks{
		"event2": func(event Event, args ...interface{}) (Event, interface{}, error) {
			return event, nil, nil
		},
	})

	t.Errorf("did not panic on callback for unknown event")
}

func TestFSM_Name(t *testing.T) {
	m := newVotingMachine(2)
	require.Equal(t, testName, m.Name())
	require.Equal(t, stateDraft, m.InitialState())
}

func TestFSM_EventsList(t *testing.T) {
	m := newVotingMachine(2)
	require.Equal(t, []Event{eventPublish, eventSubmit, eventVote}, m.EventsList())
}

func TestFSM_StatesList(t *testing.T) {
	m := newVotingMachine(2)
	require.Equal(t, []State{stateAccepted, stateDraft, stateReview}, m.StatesSourcesList())
	require.True(t, m.IsFinState(statePublished))
	require.False(t, m.IsFinState(stateReview))
}

func TestFSM_Do_AutoEvent(t *testing.T) {
	req := require.New(t)
	m := newVotingMachine(2)

	resp, err := m.Do(eventSubmit)
	req.NoError(err)
	req.Equal(stateReview, resp.State)

	resp, err = m.Do(eventVote, "alice")
	req.NoError(err)
	req.Equal(stateReview, resp.State)
	req.Equal(1, resp.Data)

	resp, err = m.Do(eventVote, "bob")
	req.NoError(err)
	req.Equal(stateAccepted, resp.State)

	// Vote is bound to the accepted state too
	resp, err = m.Do(eventVote, "carol")
	req.NoError(err)
	req.Equal(stateAccepted, resp.State)
	req.Equal(3, resp.Data)

	_, err = m.Do(eventPublish)
	req.NoError(err)
	req.Equal(statePublished, m.State())
}

func TestFSM_Do_Errors(t *testing.T) {
	req := require.New(t)
	m := newVotingMachine(2)

	_, err := m.Do(eventVote, "alice")
	req.Error(err)
	var fsmErr *FsmError
	req.True(errors.As(err, &fsmErr))
	req.Equal(ErrorLevel, fsmErr.Level())
	req.Equal(stateDraft, m.State())

	_, err = m.Do(eventSubmit)
	req.NoError(err)

	_, err = m.Do(eventSetAcceptedInternal)
	req.EqualError(err, "error: event \"event_set_accepted_internal\" is internal")

	// Callback errors leave the state untouched
	_, err = m.Do(eventVote)
	req.EqualError(err, "{arg0} required {voter}")
	req.Equal(stateReview, m.State())
	req.Equal(0, m.votes)

	_, err = m.DoInternal(eventSetAcceptedInternal)
	req.NoError(err)
	req.Equal(stateAccepted, m.State())
}

func TestFSM_MustCopyWithState(t *testing.T) {
	req := require.New(t)
	m := newVotingMachine(1)

	copied := m.MustCopyWithState(stateAccepted)
	req.Equal(stateAccepted, copied.State())
	req.Equal(stateDraft, m.State())
	req.True(copied.Can(eventPublish))
	req.False(m.Can(eventPublish))

	req.Panics(func() {
		m.MustCopyWithState("state_unknown")
	})
}

func TestVisualize(t *testing.T) {
	m := newVotingMachine(1)
	out := Visualize(m.FSM)

	req := require.New(t)
	req.True(strings.HasPrefix(out, "digraph fsm {\n    \"state_draft\" -> \"state_review\" [ label = \"event_submit\" ];"))
	req.Contains(out, "style = dashed")
	req.Contains(out, "\"state_published\" [ shape = doublecircle ];")
}
