package feed

import (
	"slices"
	"sync"
)

// Key is a navigation key.
type Key string

const (
	KeyArrowUp   Key = "ArrowUp"
	KeyArrowDown Key = "ArrowDown"
	KeySpace     Key = " "
)

// KeyHandler receives one key press and reports whether the key's default
// action should be suppressed.
type KeyHandler func(Key) (preventDefault bool)

// Keyboard is a source of global key presses.
type Keyboard interface {
	AddListener(h KeyHandler) (remove func())
}

// HandleKey applies a key press. handled reports whether the key means
// anything to the feed; preventDefault is set only for Space.
func (c *Controller) HandleKey(k Key) (handled, preventDefault bool) {
	switch k {
	case KeyArrowUp:
		c.Up()
		return true, false
	case KeyArrowDown:
		c.Down()
		return true, false
	case KeySpace:
		c.TogglePlay()
		return true, true
	default:
		return false, false
	}
}

// Bind attaches the feed to kb. Binding again first removes the previous
// listener, so there is never more than one. The returned function removes
// the listener and is safe to call more than once.
func (c *Controller) Bind(kb Keyboard) func() {
	c.mu.Lock()
	prev := c.unbind
	c.unbind = nil
	c.mu.Unlock()
	if prev != nil {
		prev()
	}

	remove := kb.AddListener(func(k Key) bool {
		_, prevent := c.HandleKey(k)
		return prevent
	})
	var once sync.Once
	unbind := func() {
		once.Do(remove)
	}

	c.mu.Lock()
	c.unbind = unbind
	c.mu.Unlock()
	return unbind
}

// Unbind removes the keyboard listener if one is attached.
func (c *Controller) Unbind() {
	c.mu.Lock()
	unbind := c.unbind
	c.unbind = nil
	c.mu.Unlock()
	if unbind != nil {
		unbind()
	}
}

// Bound reports whether a keyboard listener is attached.
func (c *Controller) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unbind != nil
}

// Dispatcher is an in-process Keyboard. Listeners run in registration order.
type Dispatcher struct {
	mu        sync.Mutex
	next      int
	listeners map[int]KeyHandler
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[int]KeyHandler)}
}

// AddListener implements Keyboard.
func (d *Dispatcher) AddListener(h KeyHandler) func() {
	d.mu.Lock()
	id := d.next
	d.next++
	d.listeners[id] = h
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// Listeners returns the number of attached listeners.
func (d *Dispatcher) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// Press delivers k to every listener and reports whether any of them asked
// for the default action to be suppressed.
func (d *Dispatcher) Press(k Key) bool {
	d.mu.Lock()
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	handlers := make([]KeyHandler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, d.listeners[id])
	}
	d.mu.Unlock()

	prevented := false
	for _, h := range handlers {
		if h(k) {
			prevented = true
		}
	}
	return prevented
}
