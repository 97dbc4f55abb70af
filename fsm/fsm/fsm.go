package fsm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

//
//  machine := fsm.MustNewFSM(name, initialState, events, callbacks)
//
//  resp, err := machine.Do(event, args...)
//  if err != nil {
//     return err
//  }
//

const (
	EventRunDefault EventRunMode = iota
	EventRunBefore
	EventRunAfter
)

type State string

func (s State) String() string {
	return string(s)
}

type Event string

func (e Event) String() string {
	return string(e)
}

func (e Event) IsEmpty() bool {
	return e == ""
}

type EventRunMode uint8

// Response returns result of the processed event
type Response struct {
	// Returns machine execution result state
	State State
	// Must be cast, according to mapper event_name->response_type
	Data interface{}
}

type FSM struct {
	name         string
	initialState State
	currentState State

	// One event name may be bound to several sources, the pair must be unique
	transitions map[trKey]*trEvent

	autoTransitions map[State]*trEvent

	callbacks Callbacks

	// Finish states, cannot be linked as SrcState in this machine
	finStates map[State]bool

	// stateMu guards access to the currentState state.
	stateMu sync.RWMutex
}

// Transition key source + event
type trKey struct {
	source State
	event  Event
}

// Transition lightweight event description
type trEvent struct {
	event      Event
	dstState   State
	isInternal bool
	isAuto     bool
	runMode    EventRunMode
}

type EventDesc struct {
	Name Event

	SrcState []State

	// Dst state changes after callback
	DstState State

	// Internal events, cannot be emitted from external call
	IsInternal bool

	// Event must run without manual call
	IsAuto bool

	AutoRunMode EventRunMode
}

type Callback func(event Event, args ...interface{}) (Event, interface{}, error)

type Callbacks map[Event]Callback

func MustNewFSM(machineName string, initialState State, events []EventDesc, callbacks Callbacks) *FSM {
	machineName = strings.TrimSpace(machineName)
	initialState = State(strings.TrimSpace(initialState.String()))

	if machineName == "" {
		panic("machine name cannot be empty")
	}

	if initialState == "" {
		panic("initial state state cannot be empty")
	}

	if len(events) == 0 {
		panic("cannot init fsm with empty events")
	}

	f := &FSM{
		name:            machineName,
		currentState:    initialState,
		initialState:    initialState,
		transitions:     make(map[trKey]*trEvent),
		autoTransitions: make(map[State]*trEvent),
		finStates:       make(map[State]bool),
		callbacks:       make(map[Event]Callback),
	}

	allEvents := make(map[Event]bool)

	// Required for find finStates
	allSources := make(map[State]bool)
	allStates := make(map[State]bool)

	for _, event := range events {
		event.Name = Event(strings.TrimSpace(event.Name.String()))
		event.DstState = State(strings.TrimSpace(event.DstState.String()))

		if event.Name == "" {
			panic("cannot init empty event")
		}

		if event.DstState == "" {
			panic("event dest cannot be empty")
		}

		allEvents[event.Name] = true
		allStates[event.DstState] = true

		if event.IsAuto && event.AutoRunMode == EventRunDefault {
			event.AutoRunMode = EventRunAfter
		}

		trimmedSourcesCounter := 0

		for _, sourceState := range event.SrcState {
			sourceState := State(strings.TrimSpace(sourceState.String()))

			if sourceState == "" {
				continue
			}

			tKey := trKey{
				sourceState,
				event.Name,
			}

			if _, ok := f.transitions[tKey]; ok {
				panic(fmt.Sprintf("duplicate dst for pair \"%s\" + \"%s\"", sourceState, event.Name))
			}

			tr := &trEvent{
				event:      tKey.event,
				dstState:   event.DstState,
				isInternal: event.IsInternal,
				isAuto:     event.IsAuto,
				runMode:    event.AutoRunMode,
			}

			f.transitions[tKey] = tr

			if event.IsAuto {
				if event.AutoRunMode != EventRunBefore && event.AutoRunMode != EventRunAfter {
					panic("{AutoRunMode} not set for auto event")
				}

				if _, ok := f.autoTransitions[sourceState]; ok {
					panic(fmt.Sprintf(
						"auto event \"%s\" already exists for state \"%s\"",
						event.Name,
						sourceState,
					))
				}
				f.autoTransitions[sourceState] = tr
			}

			allSources[sourceState] = true
			allStates[sourceState] = true
			trimmedSourcesCounter++
		}

		if trimmedSourcesCounter == 0 {
			panic("event must have minimum one source available state")
		}
	}

	if len(allStates) < 2 {
		panic("machine must contain at least two states")
	}

	for event, callback := range callbacks {
		if event == "" {
			panic("callback event cannot be empty")
		}

		if _, ok := allEvents[event]; !ok {
			panic(fmt.Sprintf("callback bound to unknown event \"%s\"", event))
		}

		f.callbacks[event] = callback
	}

	for state := range allStates {
		// Exit states cannot be a source in this machine
		if _, exists := allSources[state]; !exists {
			f.finStates[state] = true
		}
	}

	if len(f.finStates) == 0 {
		panic("cannot initialize machine without final states")
	}

	return f
}

// MustCopyWithState returns a machine sharing the transition tables of f
// and positioned at state
func (f *FSM) MustCopyWithState(state State) *FSM {
	if !f.hasState(state) {
		panic(fmt.Sprintf("cannot copy machine \"%s\" with unknown state \"%s\"", f.name, state))
	}

	return &FSM{
		name:            f.name,
		initialState:    f.initialState,
		currentState:    state,
		transitions:     f.transitions,
		autoTransitions: f.autoTransitions,
		callbacks:       f.callbacks,
		finStates:       f.finStates,
	}
}

// DoInternal executes event regardless of its internal flag
func (f *FSM) DoInternal(event Event, args ...interface{}) (resp *Response, err error) {
	tr, ok := f.transitions[trKey{f.State(), event}]
	if !ok {
		return nil, NewErrf(ErrorLevel, "cannot execute event \"%s\" for state \"%s\"", event, f.State())
	}

	return f.do(tr, args...)
}

func (f *FSM) Do(event Event, args ...interface{}) (resp *Response, err error) {
	tr, ok := f.transitions[trKey{f.State(), event}]
	if !ok {
		return nil, NewErrf(ErrorLevel, "cannot execute event \"%s\" for state \"%s\"", event, f.State())
	}
	if tr.isInternal {
		return nil, NewErrf(ErrorLevel, "event \"%s\" is internal", event)
	}

	return f.do(tr, args...)
}

func (f *FSM) do(tr *trEvent, args ...interface{}) (resp *Response, err error) {
	if err = f.runAuto(EventRunBefore, args...); err != nil {
		return &Response{State: f.State()}, err
	}

	resp = &Response{
		State: f.State(),
	}

	var outEvent Event
	if callback, ok := f.callbacks[tr.event]; ok {
		outEvent, resp.Data, err = callback(tr.event, args...)
		// Do not try change state on error
		if err != nil {
			return resp, err
		}
	}

	if err = f.switchState(tr.event, outEvent); err != nil {
		return resp, err
	}

	if err = f.runAuto(EventRunAfter, args...); err != nil {
		resp.State = f.State()
		return resp, err
	}

	resp.State = f.State()

	return resp, nil
}

func (f *FSM) runAuto(mode EventRunMode, args ...interface{}) error {
	autoEvent, ok := f.autoTransitions[f.State()]
	if !ok || autoEvent.runMode != mode {
		return nil
	}

	var outEvent Event
	if callback, ok := f.callbacks[autoEvent.event]; ok {
		var err error
		if outEvent, _, err = callback(autoEvent.event, args...); err != nil {
			return err
		}
	}

	return f.switchState(autoEvent.event, outEvent)
}

func (f *FSM) switchState(event, outEvent Event) error {
	if outEvent.IsEmpty() || outEvent == event {
		return f.SetState(event)
	}
	return f.SetState(outEvent)
}

// State returns the currentState state of the FSM.
func (f *FSM) State() State {
	f.stateMu.RLock()
	defer f.stateMu.RUnlock()
	return f.currentState
}

// SetState moves the machine along the transition of event from the current state.
// The call does not trigger any callbacks, if defined.
func (f *FSM) SetState(event Event) error {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()

	tr, ok := f.transitions[trKey{f.currentState, event}]
	if !ok {
		return NewErrf(ErrorLevel, "cannot change state \"%s\" with event \"%s\"", f.currentState, event)
	}

	f.currentState = tr.dstState

	return nil
}

func (f *FSM) Name() string {
	return f.name
}

func (f *FSM) InitialState() State {
	return f.initialState
}

// Can reports whether event is accepted in the current state
func (f *FSM) Can(event Event) bool {
	_, ok := f.transitions[trKey{f.State(), event}]
	return ok
}

// EventsList returns sorted external events of the machine
func (f *FSM) EventsList() (events []Event) {
	eventsMap := map[Event]bool{}
	for key, tr := range f.transitions {
		if !tr.isInternal {
			eventsMap[key.event] = true
		}
	}

	for event := range eventsMap {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })

	return
}

// StatesSourcesList returns sorted states having outgoing transitions
func (f *FSM) StatesSourcesList() (states []State) {
	allStates := map[State]bool{}
	for key := range f.transitions {
		allStates[key.source] = true
	}

	for state := range allStates {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	return
}

func (f *FSM) IsFinState(state State) bool {
	_, exists := f.finStates[state]
	return exists
}

func (f *FSM) hasState(state State) bool {
	if f.finStates[state] || state == f.initialState {
		return true
	}
	for key := range f.transitions {
		if key.source == state {
			return true
		}
	}
	return false
}
