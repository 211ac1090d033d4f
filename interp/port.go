package interp

// PortAction enumerates the device vtable entry points a port! scheme
// handler implements, spec.md §6.2: "init, read, write, open, close,
// query, create, delete, rename, poll, quit."
type PortAction uint8

const (
	PortInit PortAction = iota
	PortRead
	PortWrite
	PortOpen
	PortClose
	PortQuery
	PortCreate
	PortDelete
	PortRename
	PortPoll
	PortQuit
)

// PortRequest is the pending-request record a scheme handler fills in and
// the device polls, spec.md §6.2's async I/O model.
type PortRequest struct {
	Action PortAction
	Port   *Context
	Data   []byte
	Target Cell // file!, url!, or other scheme-specific target

	Done  bool
	Error error
	N     int // bytes transferred, for read/write completion
}

// DeviceHooks is the vtable a scheme registers, spec.md §6.2: "Ports carry
// a scheme-specific hook vtable dispatched by action." Any entry left nil
// fails with a not-implemented error rather than panicking, since scheme
// authors routinely implement only a subset (e.g. a read-only scheme has
// no Write hook).
type DeviceHooks struct {
	Init   func(req *PortRequest) error
	Read   func(req *PortRequest) error
	Write  func(req *PortRequest) error
	Open   func(req *PortRequest) error
	Close  func(req *PortRequest) error
	Query  func(req *PortRequest) error
	Create func(req *PortRequest) error
	Delete func(req *PortRequest) error
	Rename func(req *PortRequest) error
	Poll   func(req *PortRequest) error
	Quit   func(req *PortRequest) error
}

// Device owns one scheme's hooks plus its pending asynchronous requests,
// spec.md §6.2 "a device's pending list of in-flight requests, drained by
// poll."
type Device struct {
	Scheme  string
	Hooks   DeviceHooks
	pending []*PortRequest
}

// deviceRegistry maps scheme name -> Device, spec.md's "schemes register
// themselves with the core by name" (e.g. "file", "tcp", "console").
type deviceRegistry struct {
	byScheme map[string]*Device
}

func newDeviceRegistry() *deviceRegistry {
	return &deviceRegistry{byScheme: map[string]*Device{}}
}

// RegisterDevice installs dev under its Scheme name, replacing any prior
// registration — matching the host's ability to re-bind a scheme (e.g. a
// test harness swapping in a fake "file" device).
func (interp *Interpreter) RegisterDevice(dev *Device) {
	interp.devices.byScheme[dev.Scheme] = dev
}

func (interp *Interpreter) deviceFor(scheme string) (*Device, error) {
	dev, ok := interp.devices.byScheme[scheme]
	if !ok {
		return nil, newError("access", "no-scheme", "no device registered for scheme %q", scheme)
	}
	return dev, nil
}

// hookFor resolves the vtable entry for action, spec.md §6.2's dispatch
// step ("dispatched by action").
func hookFor(dev *Device, action PortAction) func(req *PortRequest) error {
	switch action {
	case PortInit:
		return dev.Hooks.Init
	case PortRead:
		return dev.Hooks.Read
	case PortWrite:
		return dev.Hooks.Write
	case PortOpen:
		return dev.Hooks.Open
	case PortClose:
		return dev.Hooks.Close
	case PortQuery:
		return dev.Hooks.Query
	case PortCreate:
		return dev.Hooks.Create
	case PortDelete:
		return dev.Hooks.Delete
	case PortRename:
		return dev.Hooks.Rename
	case PortPoll:
		return dev.Hooks.Poll
	case PortQuit:
		return dev.Hooks.Quit
	}
	return nil
}

// DoPort dispatches action against port's scheme device, spec.md §6.2's
// port-action entry point used by `open`, `read`, `write`, etc.
func (interp *Interpreter) DoPort(port *Context, scheme string, action PortAction, req *PortRequest) error {
	dev, err := interp.deviceFor(scheme)
	if err != nil {
		return err
	}
	hook := hookFor(dev, action)
	if hook == nil {
		return newError("access", "no-action", "scheme %q has no %v hook", scheme, action)
	}
	req.Port = port
	if err := hook(req); err != nil {
		return err
	}
	if !req.Done {
		dev.pending = append(dev.pending, req)
	}
	return nil
}

// PollDevice drains completed requests from a scheme's pending list, the
// asynchronous-completion side of spec.md §6.2's device model.
func (interp *Interpreter) PollDevice(scheme string) ([]*PortRequest, error) {
	dev, err := interp.deviceFor(scheme)
	if err != nil {
		return nil, err
	}
	if dev.Hooks.Poll != nil {
		if err := dev.Hooks.Poll(&PortRequest{}); err != nil {
			return nil, err
		}
	}
	var done []*PortRequest
	var still []*PortRequest
	for _, r := range dev.pending {
		if r.Done {
			done = append(done, r)
		} else {
			still = append(still, r)
		}
	}
	dev.pending = still
	return done, nil
}

// DeviceEvent is the event! payload SPEC_FULL.md's supplement #3 attaches to
// completed asynchronous port requests, so a script-level `wait` loop can
// inspect what finished without polling scheme internals directly.
type DeviceEvent struct {
	Scheme string
	Action PortAction
	N      int
	Err    error
}

// MarshalCell reifies e as an event! value backed by an object context so it can flow through the
// ordinary evaluator (events are otherwise host-only Go values), per
// spec.md §3.1's event! kind.
func (e DeviceEvent) MarshalCell() Cell {
	ctx := NewObjectContext(nil)
	ctx.Put(internSymbol("scheme"), Text(e.Scheme))
	ctx.Put(internSymbol("action"), Integer(int64(e.Action)))
	ctx.Put(internSymbol("n"), Integer(int64(e.N)))
	if e.Err != nil {
		ctx.Put(internSymbol("error"), Text(e.Err.Error()))
	} else {
		ctx.Put(internSymbol("error"), Null())
	}
	return Cell{kind: KindEvent, ctx: ctx}
}

// UnmarshalCell reconstructs a DeviceEvent from a value produced by
// MarshalCell, the round-trip direction SPEC_FULL.md's supplement #3 requires
// for an embedder that stores/replays events.
func UnmarshalCell(c Cell) (DeviceEvent, bool) {
	if c.Kind() != KindEvent || c.ctx == nil {
		return DeviceEvent{}, false
	}
	scheme, _ := c.ctx.Get(internSymbol("scheme"))
	action, _ := c.ctx.Get(internSymbol("action"))
	n, _ := c.ctx.Get(internSymbol("n"))
	errCell, _ := c.ctx.Get(internSymbol("error"))
	ev := DeviceEvent{
		Scheme: scheme.GoString(),
		Action: PortAction(action.Int()),
		N:      int(n.Int()),
	}
	if errCell.Kind() == KindText {
		ev.Err = newError("access", "device-error", "%s", errCell.GoString())
	}
	return ev, true
}
