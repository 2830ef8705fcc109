package session

import "sync"

// UpdateKind is the disposition a request leaves for the transport layer.
type UpdateKind uint8

const (
	// UpdateSet binds the identifier with the given expiry.
	UpdateSet UpdateKind = iota + 1
	// UpdateDelete clears any previously bound identifier.
	UpdateDelete
)

// Update is the final disposition of a session for one request.
type Update struct {
	Kind   UpdateKind
	ID     ID
	Expiry Expiry
}

// Updater is the per-request slot through which lifecycle operations report
// their disposition to whatever emits the session cookie. It carries no data.
// The zero value is ready to use.
type Updater struct {
	mu     sync.Mutex
	update Update
	set    bool
}

// NewUpdater returns an empty slot.
func NewUpdater() *Updater {
	return &Updater{}
}

// Get returns the recorded disposition. The boolean is false when the
// session was left unchanged.
func (u *Updater) Get() (Update, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.update, u.set
}

func (u *Updater) setID(id ID, expiry Expiry) {
	u.replace(Update{Kind: UpdateSet, ID: id, Expiry: expiry})
}

func (u *Updater) setDelete() {
	u.replace(Update{Kind: UpdateDelete})
}

func (u *Updater) replace(update Update) {
	u.mu.Lock()
	u.update = update
	u.set = true
	u.mu.Unlock()
}
