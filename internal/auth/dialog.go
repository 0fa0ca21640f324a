package auth

// Dialog is the authentication prompt currently shown to a logged-out user.
type Dialog int

const (
	DialogNone Dialog = iota
	DialogLogin
	DialogSignup
)

func (d Dialog) String() string {
	switch d {
	case DialogLogin:
		return "login"
	case DialogSignup:
		return "signup"
	default:
		return "none"
	}
}

// ShowLogin opens the login prompt.
func (c *Controller) ShowLogin() {
	c.mu.Lock()
	c.dialog = DialogLogin
	c.mu.Unlock()
}

// ShowSignup opens the signup prompt.
func (c *Controller) ShowSignup() {
	c.mu.Lock()
	c.dialog = DialogSignup
	c.mu.Unlock()
}

// SwitchMode flips between the login and signup prompts. It does nothing
// when no prompt is open.
func (c *Controller) SwitchMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.dialog {
	case DialogLogin:
		c.dialog = DialogSignup
	case DialogSignup:
		c.dialog = DialogLogin
	}
}

// Close dismisses whichever prompt is open.
func (c *Controller) Close() {
	c.mu.Lock()
	c.dialog = DialogNone
	c.mu.Unlock()
}

// Dialog returns the prompt currently open.
func (c *Controller) Dialog() Dialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}
